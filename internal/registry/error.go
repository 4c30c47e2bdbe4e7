package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorizedAccess is the base error for any refused registration or
	// directory lock. All more specific refusals wrap it.
	ErrUnauthorizedAccess = errors.New("unauthorized access")

	// ErrShareConflict occurs when a path is already open with a share mode
	// that does not permit the requested access and share combination.
	ErrShareConflict = fmt.Errorf("%w: share mode conflict", ErrUnauthorizedAccess)

	// ErrDirectoryLocked occurs when a path is registered or locked beneath a
	// directory that is currently locked for an exclusive operation.
	ErrDirectoryLocked = fmt.Errorf("%w: directory is locked", ErrUnauthorizedAccess)

	// ErrDirectoryInUse occurs when a directory is to be locked, but open
	// handles exist within it.
	ErrDirectoryInUse = fmt.Errorf("%w: directory has open handles", ErrUnauthorizedAccess)

	// ErrAlreadyLocked occurs when a directory is to be locked twice.
	ErrAlreadyLocked = fmt.Errorf("%w: directory is already locked", ErrUnauthorizedAccess)

	// ErrRelativePath occurs when a path handed to the registry is not rooted.
	// Callers need to resolve paths before registering them.
	ErrRelativePath = errors.New("path is not rooted")

	// ErrInvalidAccess occurs when an open is registered without requesting
	// read or write access.
	ErrInvalidAccess = errors.New("no access requested")

	// ErrHandleEvicted occurs when a native close callback is attached to a
	// [Handle] that was already evicted with its volume.
	ErrHandleEvicted = errors.New("handle was evicted")
)
