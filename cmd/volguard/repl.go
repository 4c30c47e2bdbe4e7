package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/desertwitch/volguard/internal/shell"
)

// runREPL reads command lines from in and executes them on the [shell.Shell],
// prompting with the current directory. It returns nil on the exit command,
// at the end of input or once ctx is done.
func runREPL(ctx context.Context, sh *shell.Shell, cwd func() string, in io.Reader, out io.Writer) error {
	var readErr error

	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr = scanner.Err()
	}()

	for {
		fmt.Fprintf(out, "%s> ", cwd())

		select {
		case <-ctx.Done():
			fmt.Fprintln(out)

			return nil

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)

				if readErr != nil {
					return fmt.Errorf("(repl) %w", readErr)
				}

				return nil
			}

			if err := sh.Execute(ctx, out, line); err != nil {
				if errors.Is(err, shell.ErrExit) {
					return nil
				}
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}
