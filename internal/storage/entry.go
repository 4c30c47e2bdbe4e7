package storage

import (
	"time"

	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
)

// FileEntry is a file as returned by [Handler.Entry] and [Handler.Enumerate].
// Its information is a snapshot taken when the entry was created.
type FileEntry struct {
	handler *Handler
	path    string
	info    schema.FileInfo
}

func (e *FileEntry) Name() string                  { return e.info.Name }
func (e *FileEntry) Path() string                  { return e.path }
func (e *FileEntry) Attributes() schema.Attributes { return e.info.Attributes }
func (e *FileEntry) IsDir() bool                   { return false }
func (e *FileEntry) Size() int64                   { return e.info.Size }
func (e *FileEntry) ModifiedAt() time.Time         { return e.info.ModifiedAt }

// Exists reports whether the file still exists.
func (e *FileEntry) Exists() bool {
	ok, err := e.handler.exists(e.path)

	return ok && err == nil
}

// Delete deletes the file.
func (e *FileEntry) Delete() error {
	return e.handler.DeleteFile(e.path)
}

// Open opens the file, see [Handler.OpenFile].
func (e *FileEntry) Open(mode schema.OpenMode, access registry.Access, share registry.Share) (*File, error) {
	return e.handler.OpenFile(e.path, mode, access, share)
}

// DirectoryEntry is a directory as returned by [Handler.Entry] and
// [Handler.Enumerate].
type DirectoryEntry struct {
	handler *Handler
	path    string
	info    schema.FileInfo
}

func (e *DirectoryEntry) Name() string                  { return e.info.Name }
func (e *DirectoryEntry) Path() string                  { return e.path }
func (e *DirectoryEntry) Attributes() schema.Attributes { return e.info.Attributes }
func (e *DirectoryEntry) IsDir() bool                   { return true }
func (e *DirectoryEntry) ModifiedAt() time.Time         { return e.info.ModifiedAt }

// Exists reports whether the directory still exists.
func (e *DirectoryEntry) Exists() bool {
	ok, err := e.handler.exists(e.path)

	return ok && err == nil
}

// Delete deletes the directory if it is empty.
func (e *DirectoryEntry) Delete() error {
	return e.handler.DeleteDirectory(e.path, false)
}

// DeleteAll deletes the directory and everything within it.
func (e *DirectoryEntry) DeleteAll() error {
	return e.handler.DeleteDirectory(e.path, true)
}

// Entries returns the entries of the directory.
func (e *DirectoryEntry) Entries() ([]schema.Entry, error) {
	return e.handler.Enumerate(e.path)
}
