// Package pathing implements pure, allocation-avoiding functions for parsing
// and normalizing volume paths (drive-letter, UNC and device forms). None of
// the functions access a file system or hold shared state, so they are safe
// for concurrent use without locking.
package pathing

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DirectorySeparator is the primary separator character.
	DirectorySeparator = '\\'

	// AltDirectorySeparator is accepted as a separator and normalized to
	// [DirectorySeparator].
	AltDirectorySeparator = '/'

	// VolumeSeparator separates a drive letter from the rest of a path.
	VolumeSeparator = ':'

	// MaxPath is the maximum number of characters a path may consist of.
	MaxPath = 260

	// devicePrefixLength is the length of `\\.\`, `\\?\` and `\??\`.
	devicePrefixLength = 4

	// uncPrefixLength is the length of `\\`.
	uncPrefixLength = 2

	// uncExtendedPrefixLength is the length of `\\?\UNC\`.
	uncExtendedPrefixLength = 8
)

// IsDirectorySeparator reports whether c is either of the separator characters.
func IsDirectorySeparator(c byte) bool {
	return c == DirectorySeparator || c == AltDirectorySeparator
}

// IsValidDriveChar reports whether c is an ASCII letter.
func IsValidDriveChar(c byte) bool {
	return uint((c|0x20)-'a') <= uint('z'-'a')
}

// IsEffectivelyEmpty reports whether path is empty or consists only of spaces.
func IsEffectivelyEmpty(path string) bool {
	for i := range len(path) {
		if path[i] != ' ' {
			return false
		}
	}

	return true
}

// isExtended checks for the `\\?\` or `\??\` prefix. Those are only
// recognized with the primary separator.
func isExtended(path string) bool {
	return len(path) >= devicePrefixLength &&
		path[0] == DirectorySeparator &&
		(path[1] == DirectorySeparator || path[1] == '?') &&
		path[2] == '?' &&
		path[3] == DirectorySeparator
}

// isDevice checks for any of the device prefixes (`\\.\`, `\\?\`, `\??\`).
func isDevice(path string) bool {
	return isExtended(path) ||
		(len(path) >= devicePrefixLength &&
			IsDirectorySeparator(path[0]) &&
			IsDirectorySeparator(path[1]) &&
			(path[2] == '.' || path[2] == '?') &&
			IsDirectorySeparator(path[3]))
}

// isDeviceUNC checks for `\\?\UNC\` or `\\.\UNC\`.
func isDeviceUNC(path string) bool {
	return len(path) >= uncExtendedPrefixLength &&
		isDevice(path) &&
		IsDirectorySeparator(path[7]) &&
		path[4] == 'U' &&
		path[5] == 'N' &&
		path[6] == 'C'
}

// RootLength returns the number of leading bytes of path that belong to its
// root. A relative path has a root length of zero.
//
// Recognized forms are device paths (`\\.\X`, `\\?\X`, `\??\X`), device UNC
// paths (`\\?\UNC\server\share`), UNC paths (`\\server\share`), rooted paths
// (`\foo`) and drive-letter paths (`X:`, `X:\`).
func RootLength(path string) int {
	pathLength := len(path)
	i := 0

	deviceSyntax := isDevice(path)
	deviceUNC := deviceSyntax && isDeviceUNC(path)

	switch {
	case (!deviceSyntax || deviceUNC) && pathLength > 0 && IsDirectorySeparator(path[0]):
		if deviceUNC || (pathLength > 1 && IsDirectorySeparator(path[1])) {
			if deviceUNC {
				i = uncExtendedPrefixLength
			} else {
				i = uncPrefixLength
			}

			// Stop at the separator following the share.
			n := 2
			for i < pathLength {
				if IsDirectorySeparator(path[i]) {
					n--
					if n == 0 {
						break
					}
				}
				i++
			}
		} else {
			i = 1
		}

	case deviceSyntax:
		i = devicePrefixLength
		for i < pathLength && !IsDirectorySeparator(path[i]) {
			i++
		}

		// Absorb the separator in front of a following drive or UNC segment.
		if i < pathLength && i > devicePrefixLength && IsDirectorySeparator(path[i]) {
			i++
		}

	case pathLength >= 2 && path[1] == VolumeSeparator && IsValidDriveChar(path[0]):
		i = 2
		if pathLength > 2 && IsDirectorySeparator(path[2]) {
			i++
		}
	}

	return i
}

// IsPathRooted reports whether path starts with a separator or a drive letter
// followed by the volume separator.
func IsPathRooted(path string) bool {
	return (len(path) >= 1 && IsDirectorySeparator(path[0])) ||
		(len(path) >= 2 && IsValidDriveChar(path[0]) && path[1] == VolumeSeparator)
}

// NormalizeSeparators converts alternate separators to the primary one and
// collapses runs of separators, keeping up to two leading separators (UNC).
// An already normalized path is returned as-is.
func NormalizeSeparators(path string) string {
	if path == "" {
		return path
	}

	normalized := true
	for i := range len(path) {
		c := path[i]
		if IsDirectorySeparator(c) &&
			(c != DirectorySeparator || (i > 0 && i+1 < len(path) && IsDirectorySeparator(path[i+1]))) {
			normalized = false

			break
		}
	}

	if normalized {
		return path
	}

	var b strings.Builder
	b.Grow(len(path))

	start := 0
	if IsDirectorySeparator(path[0]) {
		start++
		b.WriteByte(DirectorySeparator)
	}

	for i := start; i < len(path); i++ {
		c := path[i]
		if IsDirectorySeparator(c) {
			if i+1 < len(path) && IsDirectorySeparator(path[i+1]) {
				continue
			}
			c = DirectorySeparator
		}
		b.WriteByte(c)
	}

	return b.String()
}

// GetPathRoot returns the normalized root of path, which is empty for a
// relative path. The boolean is false if path is effectively empty.
func GetPathRoot(path string) (string, bool) {
	if IsEffectivelyEmpty(path) {
		return "", false
	}

	return NormalizeSeparators(path[:RootLength(path)]), true
}

// Validate returns an error if path contains a NUL character or invalid UTF-8
// or is longer than [MaxPath] characters.
func Validate(path string) error {
	if strings.IndexByte(path, 0) >= 0 || !utf8.ValidString(path) {
		return fmt.Errorf("(pathing-validate) %w: %q", ErrInvalidPath, path)
	}

	if utf8.RuneCountInString(path) > MaxPath {
		return fmt.Errorf("(pathing-validate) %w: %d > %d", ErrPathTooLong, utf8.RuneCountInString(path), MaxPath)
	}

	return nil
}
