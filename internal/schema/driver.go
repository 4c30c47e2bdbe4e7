package schema

import (
	"io"
	"time"
)

// Attributes are the FAT-style attribute bits of a file system entry.
type Attributes uint8

const (
	AttrReadOnly  Attributes = 0x01
	AttrHidden    Attributes = 0x02
	AttrSystem    Attributes = 0x04
	AttrVolumeID  Attributes = 0x08
	AttrDirectory Attributes = 0x10
	AttrArchive   Attributes = 0x20
	AttrNormal    Attributes = 0x80
)

// Has reports whether all bits of flag are set.
func (a Attributes) Has(flag Attributes) bool {
	return a&flag == flag
}

func (a Attributes) String() string {
	flags := []byte("------")
	for i, f := range []struct {
		attr Attributes
		char byte
	}{
		{AttrDirectory, 'd'},
		{AttrReadOnly, 'r'},
		{AttrHidden, 'h'},
		{AttrSystem, 's'},
		{AttrArchive, 'a'},
		{AttrVolumeID, 'v'},
	} {
		if a.Has(f.attr) {
			flags[i] = f.char
		}
	}

	return string(flags)
}

// OpenMode specifies how a [Driver] opens a file.
type OpenMode int

const (
	// ModeOpen opens an existing file.
	ModeOpen OpenMode = iota

	// ModeCreateNew creates a file, failing with [ErrExist] if it exists.
	ModeCreateNew

	// ModeCreate creates a file, truncating an existing one.
	ModeCreate

	// ModeOpenOrCreate opens a file, creating it if it does not exist.
	ModeOpenOrCreate

	// ModeTruncate opens an existing file and truncates it.
	ModeTruncate

	// ModeAppend opens or creates a file and seeks to its end.
	ModeAppend
)

// Writes reports whether the mode implies write access.
func (m OpenMode) Writes() bool {
	return m != ModeOpen && m != ModeOpenOrCreate
}

// FileInfo describes a file system entry as reported by the [Driver].
type FileInfo struct {
	Name       string
	Attributes Attributes
	Size       int64
	ModifiedAt time.Time
}

// IsDir reports whether the entry is a directory.
func (fi FileInfo) IsDir() bool {
	return fi.Attributes.Has(AttrDirectory)
}

// VolumeInfo describes a mounted volume.
type VolumeInfo struct {
	Root       string
	Label      string
	FileSystem string
	TotalSize  uint64
	FreeSpace  uint64
}

// RawFile is a native file handle.
type RawFile interface {
	io.ReadWriteSeeker
	io.Closer
	Sync() error
	Size() (int64, error)
}

// Driver describes the native file system driver. All paths handed to a
// [Driver] are absolute and normalized; arbitration of concurrent access is
// not its concern.
type Driver interface {
	Open(path string, mode OpenMode, write bool) (RawFile, error)
	Delete(path string) error
	Move(oldpath, newpath string) error
	CreateDirectory(path string) error
	DeleteDirectory(path string) error
	ReadDir(path string) ([]FileInfo, error)
	Stat(path string) (FileInfo, error)
	SetAttributes(path string, attrs Attributes) error
	Format(root string, label string) error
	Mount(root string) error
	Unmount(root string) error
	VolumeInfo(root string) (VolumeInfo, error)
	Volumes() []string
}

// Entry is a file system entry, either a file or a directory.
type Entry interface {
	Name() string
	Path() string
	Attributes() Attributes
	IsDir() bool
	Exists() bool
	Delete() error
}
