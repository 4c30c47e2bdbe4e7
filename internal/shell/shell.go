// Package shell implements the command interpreter of the device console. It
// drives the storage facade, keeping track of the files and directory locks
// that were opened through it.
package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/storage"
	"github.com/spf13/cobra"
)

// Shell is the principal implementation of the command interpreter. It is
// safe for concurrent use, commands are executed one at a time.
type Shell struct {
	mu      sync.Mutex
	handler *storage.Handler
	files   map[uint64]*storage.File           // map[handleID]*storage.File
	locks   map[registry.Key]*registry.DirLock // map[registry.Key]*registry.DirLock
}

// New returns a pointer to a new [Shell].
func New(handler *storage.Handler) *Shell {
	return &Shell{
		handler: handler,
		files:   make(map[uint64]*storage.File),
		locks:   make(map[registry.Key]*registry.DirLock),
	}
}

// Execute parses and executes one command line, writing its output to out.
// An empty line is a no-op, the exit command returns [ErrExit].
func (s *Shell) Execute(ctx context.Context, out io.Writer, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return fmt.Errorf("(shell-exec) %w", err)
	}
	if len(args) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)

	if err := root.ExecuteContext(ctx); err != nil {
		return err //nolint:wrapcheck
	}

	return nil
}

// Close closes all files opened and releases all directories locked through
// the [Shell].
func (s *Shell) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, f := range s.files {
		if err := f.Close(); err != nil {
			slog.Warn("Failure closing file on shell exit", "path", f.Path(), "id", id, "err", err)
		}
		delete(s.files, id)
	}

	for key, l := range s.locks {
		l.Unlock()
		delete(s.locks, key)
	}
}

// OpenHandles returns the identifiers of the files opened through the
// [Shell], in order.
func (s *Shell) OpenHandles() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint64, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func (s *Shell) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "volguard",
		Short:         "Device storage console",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(
		s.pwdCommand(),
		s.cdCommand(),
		s.lsCommand(),
		s.statCommand(),
		s.attribCommand(),
		s.openCommand(),
		s.closeCommand(),
		s.readCommand(),
		s.writeCommand(),
		s.handlesCommand(),
		s.lockCommand(),
		s.unlockCommand(),
		s.mkdirCommand(),
		s.rmdirCommand(),
		s.rmCommand(),
		s.mvCommand(),
		s.cpCommand(),
		s.formatCommand(),
		s.ejectCommand(),
		s.mountCommand(),
		s.volumesCommand(),
		s.pathCommand(),
		&cobra.Command{
			Use:   "exit",
			Short: "Close all handles and leave the console",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return ErrExit
			},
		},
	)

	return root
}

// splitArgs splits a command line into arguments on whitespace. Single or
// double quotes group an argument. Backslashes are taken literally, as they
// are the directory separator of the device.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
	)

	for _, r := range line {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, ErrUnbalancedQuotes
	}

	if inArg {
		args = append(args, current.String())
	}

	return args, nil
}
