package pathing

import (
	"fmt"
	"strings"
)

// Combine joins two paths with exactly one separator between them. If path2
// is rooted it is returned unchanged, and if either path is empty the other
// is returned.
func Combine(path1, path2 string) (string, error) {
	if strings.IndexByte(path1, 0) >= 0 || strings.IndexByte(path2, 0) >= 0 {
		return "", fmt.Errorf("(pathing-combine) %w", ErrInvalidPath)
	}

	if path2 == "" {
		return path1, nil
	}

	if path1 == "" || IsPathRooted(path2) {
		return path2, nil
	}

	if IsDirectorySeparator(path1[len(path1)-1]) {
		return path1 + path2, nil
	}

	return path1 + string(DirectorySeparator) + path2, nil
}

// Resolve returns the absolute, normalized form of path. A relative path is
// resolved against base, a drive-relative path (`D:foo`) against the root of
// its drive and a path rooted without a drive (`\foo`) against the drive of
// base. The segments `.` and `..` are collapsed, never climbing above the
// root.
func Resolve(base, path string) (string, error) {
	if IsEffectivelyEmpty(path) {
		return "", fmt.Errorf("(pathing-resolve) %w", ErrEmptyPath)
	}

	if err := Validate(path); err != nil {
		return "", fmt.Errorf("(pathing-resolve) %w", err)
	}

	full := path
	rootLength := RootLength(path)

	switch {
	case rootLength == 2 && path[1] == VolumeSeparator:
		// Drive-relative.
		full = path[:2] + string(DirectorySeparator) + path[2:]

	case rootLength == 1 && len(base) >= 2 && base[1] == VolumeSeparator && IsValidDriveChar(base[0]):
		// Rooted on the drive of base.
		full = base[:2] + path

	case rootLength == 0:
		if !IsPathRooted(base) {
			return "", fmt.Errorf("(pathing-resolve) %w: base %q is relative", ErrInvalidPath, base)
		}

		combined, err := Combine(base, path)
		if err != nil {
			return "", fmt.Errorf("(pathing-resolve) %w", err)
		}
		full = combined
	}

	full = NormalizeSeparators(full)
	full = collapseSegments(full)

	if err := Validate(full); err != nil {
		return "", fmt.Errorf("(pathing-resolve) %w", err)
	}

	return full, nil
}

// collapseSegments removes `.` and `..` segments following the root of a
// normalized path.
func collapseSegments(path string) string {
	rootLength := RootLength(path)
	root, rest := path[:rootLength], path[rootLength:]

	if !strings.Contains(rest, ".") {
		return path
	}

	trailing := rest != "" && rest[len(rest)-1] == DirectorySeparator

	segments := strings.Split(rest, string(DirectorySeparator))
	kept := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(kept) > 0 {
				kept = kept[:len(kept)-1]
			}
		default:
			kept = append(kept, seg)
		}
	}

	joined := strings.Join(kept, string(DirectorySeparator))
	if trailing && joined != "" {
		joined += string(DirectorySeparator)
	}

	if root != "" && !IsDirectorySeparator(root[len(root)-1]) && joined != "" {
		return root + string(DirectorySeparator) + joined
	}

	return root + joined
}
