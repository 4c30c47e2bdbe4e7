package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
	"github.com/desertwitch/volguard/internal/shell"
	"github.com/desertwitch/volguard/internal/storage"
	"github.com/dustin/go-humanize"
)

const (
	// consoleLimit is the amount of console lines kept for scrolling.
	consoleLimit = 500

	// stateInterval is the refresh interval of the upper panels.
	stateInterval = 500 * time.Millisecond
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// promptStyle defines the style for echoed command lines.
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	// errorStyle defines the style for failed command lines.
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// StateMsg is a [tea.Msg] containing the registry and volume state.
type StateMsg struct {
	t        time.Time
	snapshot registry.Snapshot
	volumes  []schema.VolumeInfo
}

// CommandMsg is a [tea.Msg] containing the result of a shell command line.
type CommandMsg struct {
	line   string
	output string
	err    error
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width  int
	height int

	ctx    context.Context //nolint:containedctx
	cancel context.CancelFunc

	uiHandler *Handler

	fullWidthWithBorders  int
	splitWidthWithBorders int
	panelHeight           int

	snapshot registry.Snapshot
	volumes  []schema.VolumeInfo

	input           textinput.Model
	consoleViewport viewport.Model
	console         []string

	history    []string
	historyPos int

	running bool
	ready   bool
}

// NewTeaModel returns an initial new [TeaModel]. Command lines are executed
// with ctx, cancel is called when the user interrupts the program.
//
//nolint:mnd
func NewTeaModel(ctx context.Context, uiHandler *Handler, cancel context.CancelFunc) TeaModel {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "type help for a list of commands"
	input.Focus()

	consoleViewport := viewport.New(80, 20)
	consoleViewport.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return TeaModel{
		ctx:             ctx,
		cancel:          cancel,
		uiHandler:       uiHandler,
		input:           input,
		consoleViewport: consoleViewport,
		console:         make([]string, 0, 100),
		ready:           false,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		textinput.Blink,
		updateState(m.uiHandler.storage),
	)
}

// currentState returns a [StateMsg] for the current state of a
// [storage.Handler].
func currentState(t time.Time, storageHandler *storage.Handler) StateMsg {
	return StateMsg{
		t:        t,
		snapshot: storageHandler.Registry().Snapshot(),
		volumes:  storageHandler.Volumes(),
	}
}

// updateState produces a [tea.Cmd] for later scheduling in a [tea.Program].
// When executed, a [StateMsg] with the current state is returned.
func updateState(storageHandler *storage.Handler) tea.Cmd {
	return tea.Tick(stateInterval, func(t time.Time) tea.Msg {
		return currentState(t, storageHandler)
	})
}

// runCommand produces a [tea.Cmd] executing a command line on a [shell.Shell].
// When executed, a [CommandMsg] with the collected output is returned.
func runCommand(ctx context.Context, sh *shell.Shell, line string) tea.Cmd {
	return func() tea.Msg {
		var out bytes.Buffer

		err := sh.Execute(ctx, &out, line)

		return CommandMsg{line: line, output: out.String(), err: err}
	}
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:mnd,funlen,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.running {
				return m, nil
			}

			m.input.Reset()
			m.history = append(m.history, line)
			m.historyPos = len(m.history)
			m.running = true

			return m, runCommand(m.ctx, m.uiHandler.shell, line)

		case "up":
			if m.historyPos > 0 {
				m.historyPos--
				m.input.SetValue(m.history[m.historyPos])
				m.input.CursorEnd()
			}

			return m, nil

		case "down":
			if m.historyPos < len(m.history)-1 {
				m.historyPos++
				m.input.SetValue(m.history[m.historyPos])
				m.input.CursorEnd()
			} else {
				m.historyPos = len(m.history)
				m.input.Reset()
			}

			return m, nil

		case "pgup", "pgdown":
			m.consoleViewport, cmd = m.consoleViewport.Update(msg)

			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2
		m.splitWidthWithBorders = (m.width / 2) - 2

		// We want upper panels to take about 40% of the height.
		upperHeight := m.height * 2 / 5
		lowerHeight := m.height - upperHeight

		// Panel height: upper section minus borders and title.
		m.panelHeight = max(upperHeight-3, 1)

		// Viewport height: lower section minus borders, title, input and help.
		m.consoleViewport.Width = m.fullWidthWithBorders
		m.consoleViewport.Height = max(lowerHeight-5, 1)
		m.input.Width = m.fullWidthWithBorders - len(m.input.Prompt) - 1

		m.refreshConsole()

		if !m.ready {
			m.ready = true
			m.uiHandler.Ready.Store(true)
		}

	case StateMsg:
		m.snapshot = msg.snapshot
		m.volumes = msg.volumes

		// Queue the next update.
		cmds = append(cmds, updateState(m.uiHandler.storage))

	case CommandMsg:
		m.running = false

		m.appendConsole(promptStyle.Render(m.input.Prompt + msg.line))
		if out := strings.TrimSuffix(msg.output, "\n"); out != "" {
			m.appendConsole(out)
		}

		if msg.err != nil {
			if errors.Is(msg.err, shell.ErrExit) {
				return m, tea.Quit
			}
			m.appendConsole(errorStyle.Render("error: " + msg.err.Error()))
		}

		m.refreshConsole()

	case LogMsg:
		m.appendConsole(strings.TrimSuffix(string(msg), "\n"))
		m.refreshConsole()
	}

	// Remaining messages (e.g. typing, cursor blinking) go to the input.
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// appendConsole adds a line to the console, discarding the oldest lines
// beyond the console limit.
func (m *TeaModel) appendConsole(line string) {
	if len(m.console) >= consoleLimit {
		m.console = m.console[1:]
	}

	m.console = append(m.console, line)
}

// refreshConsole renders the console lines into the viewport.
func (m *TeaModel) refreshConsole() {
	if len(m.console) == 0 {
		return
	}

	content := lipgloss.NewStyle().
		Width(m.consoleViewport.Width).
		Render(strings.Join(m.console, "\n"))

	m.consoleViewport.SetContent(content)
	m.consoleViewport.GotoBottom()
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the GUI..."
	}

	var s strings.Builder

	handlesView := m.formatPanel(fmt.Sprintf("Open Handles (%d)", len(m.snapshot.Handles)), m.handleLines())
	volumesView := m.formatPanel(fmt.Sprintf("Volumes (%d)", len(m.volumes)), m.volumeLines())

	upperSection := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(m.splitWidthWithBorders).Render(handlesView),
		borderStyle.Width(m.splitWidthWithBorders).Render(volumesView),
	)

	consoleSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Console"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.consoleViewport.View()),
			),
		)

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("enter: run • up/down: history • pgup/pgdown: scroll • exit/ctrl+c: quit program")

	s.WriteString(lipgloss.JoinVertical(
		lipgloss.Left,
		upperSection,
		consoleSection,
		m.input.View(),
		helpSection,
	))

	return s.String()
}

// handleLines renders the open handles and locked directories.
func (m TeaModel) handleLines() []string {
	lines := make([]string, 0, len(m.snapshot.Handles)+len(m.snapshot.Locked))

	for _, h := range m.snapshot.Handles {
		marker := " "
		if h.Current {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s%4d %-9s %-9s %-16s %s",
			marker, h.ID, h.Access, h.Share, humanize.Time(h.OpenedAt), h.Path))
	}

	for _, key := range m.snapshot.Locked {
		lines = append(lines, fmt.Sprintf(" LOCK %s", key))
	}

	if len(lines) == 0 {
		lines = append(lines, "No open handles.")
	}

	return lines
}

// volumeLines renders the mounted volumes and the current directory.
func (m TeaModel) volumeLines() []string {
	lines := make([]string, 0, len(m.volumes)+2) //nolint:mnd

	lines = append(lines, "Current directory: "+m.snapshot.CurrentDirectory, "")

	for _, v := range m.volumes {
		lines = append(lines, fmt.Sprintf("%-3s %-12s %-8s %s free of %s",
			v.Root, v.Label, v.FileSystem, humanize.IBytes(v.FreeSpace), humanize.IBytes(v.TotalSize)))
	}

	if len(m.volumes) == 0 {
		lines = append(lines, "No mounted volumes.")
	}

	return lines
}

// formatPanel is a helper function for rendering the upper panels, cutting
// the lines to the available panel height.
func (m TeaModel) formatPanel(title string, lines []string) string {
	if len(lines) > m.panelHeight {
		lines = append(lines[:m.panelHeight-1:m.panelHeight-1], fmt.Sprintf("... and %d more", len(lines)-m.panelHeight+1))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render(title),
		infoStyle.Width(m.splitWidthWithBorders).Height(m.panelHeight).Render(strings.Join(lines, "\n")),
	)

	return content
}
