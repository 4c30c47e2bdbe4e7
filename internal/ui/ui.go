// Package ui implements a command-line user interface using [tea].
//
// The interface hosts the [shell.Shell] on a single input line, with panels
// showing the currently open handles, locked directories and mounted volumes.
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertwitch/volguard/internal/shell"
	"github.com/desertwitch/volguard/internal/storage"
)

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	shell   *shell.Shell
	storage *storage.Handler
	program *tea.Program

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler].
func NewHandler(ctx context.Context, cancel context.CancelFunc, sh *shell.Shell, storageHandler *storage.Handler) *Handler {
	handler := &Handler{
		shell:   sh,
		storage: storageHandler,
	}

	model := NewTeaModel(ctx, handler, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the command-line user interface (the [tea.Program]).
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}
