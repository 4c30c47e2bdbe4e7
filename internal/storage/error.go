package storage

import "errors"

var (
	// ErrHandleEvicted occurs when I/O is attempted through a [File] whose
	// volume was ejected or formatted while it was open.
	ErrHandleEvicted = errors.New("file handle was evicted with its volume")

	// ErrClosed occurs when I/O is attempted through a closed [File].
	ErrClosed = errors.New("file is already closed")

	// ErrNotPermitted occurs when a [File] is used beyond the access it was
	// opened with, or a write mode is requested without write access.
	ErrNotPermitted = errors.New("operation not permitted by access")

	// ErrHashMismatch occurs when the checksums of a copied file differ.
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrNotRoot occurs when a volume operation is given a path other than a
	// volume root.
	ErrNotRoot = errors.New("path is not a volume root")

	// ErrMoveIntoSelf occurs when a directory is to be moved beneath itself.
	ErrMoveIntoSelf = errors.New("cannot move directory into itself")
)
