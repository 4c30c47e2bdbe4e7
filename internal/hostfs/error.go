package hostfs

import "errors"

var (
	// ErrUnsupportedPath occurs when a path is not of the drive-letter form
	// or contains relative segments.
	ErrUnsupportedPath = errors.New("unsupported path")

	// ErrUnknownVolume occurs when a path refers to a drive letter that has no
	// host directory configured.
	ErrUnknownVolume = errors.New("unknown volume")

	// ErrRootOperation occurs when an operation that needs a file or
	// directory is attempted on a volume root.
	ErrRootOperation = errors.New("operation not permitted on volume root")
)
