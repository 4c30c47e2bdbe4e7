package shell

import "errors"

var (
	// ErrExit is returned by [Shell.Execute] for the exit command.
	ErrExit = errors.New("exit requested")

	// ErrUnknownHandle occurs when a command refers to a handle identifier
	// that was not opened through the shell.
	ErrUnknownHandle = errors.New("unknown handle")

	// ErrUnbalancedQuotes occurs when a command line has an unterminated
	// quoted argument.
	ErrUnbalancedQuotes = errors.New("unbalanced quotes")

	// ErrInvalidArgument occurs when a command argument cannot be parsed.
	ErrInvalidArgument = errors.New("invalid argument")
)
