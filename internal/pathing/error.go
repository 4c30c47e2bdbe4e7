package pathing

import "errors"

var (
	// ErrInvalidPath is an error that occurs when a path contains characters
	// that can never be part of a valid path (such as the NUL character).
	ErrInvalidPath = errors.New("path contains invalid characters")

	// ErrPathTooLong is an error that occurs when a path exceeds [MaxPath]
	// characters and cannot be handed to the native driver.
	ErrPathTooLong = errors.New("path exceeds maximum length")

	// ErrEmptyPath is an error that occurs when an operation requires a
	// non-empty path, but the path is empty or consists only of spaces.
	ErrEmptyPath = errors.New("path is empty")
)
