package schema

import "errors"

var (
	// ErrNotExist is the sentinel a [Driver] returns for a missing path.
	ErrNotExist = errors.New("path does not exist")

	// ErrExist occurs when a path is to be created but already exists.
	ErrExist = errors.New("path already exists")

	// ErrNotDirectory occurs when a directory operation targets a file.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrIsDirectory occurs when a file operation targets a directory.
	ErrIsDirectory = errors.New("path is a directory")

	// ErrDirectoryNotEmpty occurs when a directory is deleted
	// non-recursively but still has entries.
	ErrDirectoryNotEmpty = errors.New("directory is not empty")

	// ErrNotMounted occurs when a path lies on a volume that is not mounted.
	ErrNotMounted = errors.New("volume is not mounted")

	// ErrReadOnly occurs when a read-only file is to be written or deleted.
	ErrReadOnly = errors.New("path is read-only")
)
