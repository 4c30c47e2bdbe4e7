package registry

import (
	"fmt"
	"strings"
)

// Access describes the kind of access requested for an open handle.
type Access uint8

// Share describes which accesses other openers may request while a handle is
// open. Its bits correspond to those of [Access].
type Share uint8

const (
	AccessRead Access = 1 << iota
	AccessWrite
	AccessReadWrite = AccessRead | AccessWrite
)

const (
	ShareNone      Share = 0
	ShareRead      Share = Share(AccessRead)
	ShareWrite     Share = Share(AccessWrite)
	ShareReadWrite Share = ShareRead | ShareWrite
)

// compatible reports whether a new open with access and share can coexist
// with an existing handle opened with the existing share mode.
func compatible(existing Share, access Access, share Share) bool {
	return share == ShareReadWrite && existing&Share(access) == Share(access)
}

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "readwrite"
	default:
		return fmt.Sprintf("access(%d)", uint8(a))
	}
}

func (s Share) String() string {
	switch s {
	case ShareNone:
		return "none"
	case ShareRead:
		return "read"
	case ShareWrite:
		return "write"
	case ShareReadWrite:
		return "readwrite"
	default:
		return fmt.Sprintf("share(%d)", uint8(s))
	}
}

// ParseAccess parses the short (`r`, `w`, `rw`) or long form of an [Access].
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(s) {
	case "r", "read":
		return AccessRead, nil
	case "w", "write":
		return AccessWrite, nil
	case "rw", "readwrite":
		return AccessReadWrite, nil
	default:
		return 0, fmt.Errorf("(registry-parse) %w: %q", ErrInvalidAccess, s)
	}
}

// ParseShare parses the short (`none`, `r`, `w`, `rw`) or long form of a
// [Share].
func ParseShare(s string) (Share, error) {
	switch strings.ToLower(s) {
	case "", "none", "-":
		return ShareNone, nil
	case "r", "read":
		return ShareRead, nil
	case "w", "write":
		return ShareWrite, nil
	case "rw", "readwrite":
		return ShareReadWrite, nil
	default:
		return 0, fmt.Errorf("(registry-parse) invalid share mode: %q", s)
	}
}
