package pathing

import "strings"

// GetDirectoryName returns the normalized parent of path. The boolean is false
// if path is effectively empty or consists only of its root.
func GetDirectoryName(path string) (string, bool) {
	if IsEffectivelyEmpty(path) {
		return "", false
	}

	end := directoryNameOffset(path)
	if end < 0 {
		return "", false
	}

	return NormalizeSeparators(path[:end]), true
}

func directoryNameOffset(path string) int {
	rootLength := RootLength(path)
	end := len(path)

	if end <= rootLength {
		return -1
	}

	for end > rootLength {
		end--
		if IsDirectorySeparator(path[end]) {
			break
		}
	}

	// Trim any remaining separators (C:\foo\\bar).
	for end > rootLength && IsDirectorySeparator(path[end-1]) {
		end--
	}

	return end
}

// GetFileName returns the part of path following the last separator past the
// root. A path ending in a separator has an empty file name.
func GetFileName(path string) string {
	root, _ := GetPathRoot(path)
	rootLength := len(root)

	for i := len(path) - 1; i >= 0; i-- {
		if i < rootLength || IsDirectorySeparator(path[i]) {
			return path[i+1:]
		}
	}

	return path
}

// GetFileNameWithoutExtension returns [GetFileName] without the extension.
func GetFileNameWithoutExtension(path string) string {
	name := GetFileName(path)

	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}

	return name
}

// extensionIndex returns the index of the `.` starting the extension of path,
// or -1 if a separator is reached first.
func extensionIndex(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		c := path[i]
		if c == '.' {
			return i
		}
		if IsDirectorySeparator(c) {
			break
		}
	}

	return -1
}

// GetExtension returns the extension of path including the leading `.`. It is
// empty if there is no extension or the `.` is the last character.
func GetExtension(path string) string {
	i := extensionIndex(path)
	if i < 0 || i == len(path)-1 {
		return ""
	}

	return path[i:]
}

// HasExtension reports whether path has a non-empty extension.
func HasExtension(path string) bool {
	i := extensionIndex(path)

	return i >= 0 && i != len(path)-1
}

// ChangeExtension replaces the extension of path with ext, adding a leading
// `.` to ext if it has none. An empty path is returned unchanged.
func ChangeExtension(path string, ext string) string {
	if path == "" {
		return path
	}

	subpath := RemoveExtension(path)

	if ext == "" || ext[0] != '.' {
		return subpath + "." + ext
	}

	return subpath + ext
}

// RemoveExtension strips the extension (including the `.`) from path.
func RemoveExtension(path string) string {
	if i := extensionIndex(path); i >= 0 {
		return path[:i]
	}

	return path
}
