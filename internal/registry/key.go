package registry

import (
	"fmt"
	"strings"

	"github.com/desertwitch/volguard/internal/pathing"
)

// Key is the canonical form of an absolute path: separator-normalized, without
// trailing separators and upper-cased, as the volumes are case-insensitive.
// A [Key] can only be obtained through [Canonicalize].
type Key string

// Canonicalize converts an absolute path into its [Key].
func Canonicalize(path string) (Key, error) {
	display, err := displayPath(path)
	if err != nil {
		return "", err
	}

	return canonicalKey(display), nil
}

func canonicalKey(display string) Key {
	return Key(strings.ToUpper(display))
}

// displayPath returns the case-preserving form of a [Key].
func displayPath(path string) (string, error) {
	if pathing.IsEffectivelyEmpty(path) {
		return "", fmt.Errorf("(registry-key) %w", pathing.ErrEmptyPath)
	}

	if err := pathing.Validate(path); err != nil {
		return "", fmt.Errorf("(registry-key) %w", err)
	}

	if !pathing.IsPathRooted(path) {
		return "", fmt.Errorf("(registry-key) %w: %s", ErrRelativePath, path)
	}

	p := pathing.NormalizeSeparators(path)
	for len(p) > 1 && p[len(p)-1] == pathing.DirectorySeparator {
		p = p[:len(p)-1]
	}

	return p, nil
}

// String returns the key as a path string.
func (k Key) String() string {
	return string(k)
}

// IsRoot reports whether the key consists only of its root, such as `D:`.
func (k Key) IsRoot() bool {
	return pathing.RootLength(string(k)) >= len(k)
}

// Root returns the key of the volume root the key lies on.
func (k Key) Root() Key {
	root := string(k)[:pathing.RootLength(string(k))]
	for len(root) > 1 && root[len(root)-1] == pathing.DirectorySeparator {
		root = root[:len(root)-1]
	}

	return Key(root)
}

// Within reports whether the key equals or lies beneath directory.
func (k Key) Within(directory Key) bool {
	return IsInDirectory(string(k), string(directory))
}

// IsInDirectory reports whether path equals directory or lies beneath it. It
// is a prefix test on segment boundaries, so `D:\Foobar` is not in `D:\Foo`.
// Both arguments are compared as given and should be canonical: a directory
// with a trailing separator (`D:\`) only contains itself, except for the
// bare root `\`, which contains every path starting with it.
func IsInDirectory(path, directory string) bool {
	if !strings.HasPrefix(path, directory) {
		return false
	}

	if len(path) == len(directory) {
		return true
	}

	if len(directory) == 1 && directory[0] == pathing.DirectorySeparator {
		return true
	}

	return path[len(directory)] == pathing.DirectorySeparator
}
