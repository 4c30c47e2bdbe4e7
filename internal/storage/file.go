package storage

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
)

// File is an open file of the device. Its methods other than Close are not
// safe for concurrent use.
type File struct {
	raw    schema.RawFile
	handle *registry.Handle

	closed   atomic.Bool
	once     sync.Once
	closeErr error
}

// OpenFile opens the file at path. The open is registered with the
// [registry.Registry] using access and share before the native open, so it
// fails with an error wrapping [registry.ErrUnauthorizedAccess] if it
// conflicts with other open handles or a locked directory.
func (h *Handler) OpenFile(path string, mode schema.OpenMode, access registry.Access, share registry.Share) (*File, error) {
	full, err := h.GetFullPath(path)
	if err != nil {
		return nil, fmt.Errorf("(storage-open) %w", err)
	}

	write := access&registry.AccessWrite != 0
	if mode.Writes() && !write {
		return nil, fmt.Errorf("(storage-open) %w: write mode without write access", ErrNotPermitted)
	}

	handle, err := h.registry.RegisterOpen(full, access, share)
	if err != nil {
		return nil, fmt.Errorf("(storage-open) %w", err)
	}

	raw, err := h.driver.Open(full, mode, write)
	if err != nil {
		handle.Release()

		return nil, fmt.Errorf("(storage-open) %w", err)
	}

	f := &File{
		raw:    raw,
		handle: handle,
	}

	if err := handle.Attach(f.closeRaw); err != nil {
		f.closeRaw() //nolint:errcheck
		handle.Release()

		return nil, fmt.Errorf("(storage-open) %w: %s", ErrHandleEvicted, full)
	}

	slog.Debug("Opened file:", "path", full, "id", handle.ID(), "access", access, "share", share)

	return f, nil
}

// ID returns the identifier of the underlying [registry.Handle].
func (f *File) ID() uint64 {
	return f.handle.ID()
}

// Path returns the full path of the file.
func (f *File) Path() string {
	return f.handle.Path()
}

// Access returns the access the file was opened with.
func (f *File) Access() registry.Access {
	return f.handle.Access()
}

// Evicted reports whether the file was evicted with its volume.
func (f *File) Evicted() bool {
	return f.handle.Evicted()
}

func (f *File) usable(access registry.Access) error {
	if f.closed.Load() {
		return ErrClosed
	}

	if f.handle.Evicted() {
		return ErrHandleEvicted
	}

	if access != 0 && f.handle.Access()&access == 0 {
		return fmt.Errorf("%w: %s", ErrNotPermitted, access)
	}

	return nil
}

func (f *File) Read(p []byte) (int, error) {
	if err := f.usable(registry.AccessRead); err != nil {
		return 0, fmt.Errorf("(storage-read) %w", err)
	}

	return f.raw.Read(p) //nolint:wrapcheck
}

func (f *File) Write(p []byte) (int, error) {
	if err := f.usable(registry.AccessWrite); err != nil {
		return 0, fmt.Errorf("(storage-write) %w", err)
	}

	return f.raw.Write(p) //nolint:wrapcheck
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.usable(0); err != nil {
		return 0, fmt.Errorf("(storage-seek) %w", err)
	}

	return f.raw.Seek(offset, whence) //nolint:wrapcheck
}

// Sync commits the written contents of the file to the volume.
func (f *File) Sync() error {
	if err := f.usable(registry.AccessWrite); err != nil {
		return fmt.Errorf("(storage-sync) %w", err)
	}

	return f.raw.Sync() //nolint:wrapcheck
}

// Size returns the current size of the file.
func (f *File) Size() (int64, error) {
	if err := f.usable(0); err != nil {
		return 0, fmt.Errorf("(storage-size) %w", err)
	}

	return f.raw.Size() //nolint:wrapcheck
}

// Close closes the file and releases its registration. It is safe to call
// more than once, and on a file that was evicted.
func (f *File) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	defer f.handle.Release()

	err := f.closeRaw()
	if f.handle.Evicted() {
		return nil
	}

	if err != nil {
		return fmt.Errorf("(storage-close) %w", err)
	}

	return nil
}

// closeRaw closes the native file exactly once. It is attached to the handle
// and must not call into the [registry.Registry].
func (f *File) closeRaw() error {
	f.once.Do(func() {
		f.closeErr = f.raw.Close()
	})

	return f.closeErr
}

// ReadFile returns the contents of the file at path, opened for reading with
// [registry.ShareRead].
func (h *Handler) ReadFile(path string) ([]byte, error) {
	f, err := h.OpenFile(path, schema.ModeOpen, registry.AccessRead, registry.ShareRead)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("(storage-readfile) %w", err)
	}

	return data, nil
}

// WriteFile creates or truncates the file at path and writes data to it.
func (h *Handler) WriteFile(path string, data []byte) error {
	f, err := h.OpenFile(path, schema.ModeCreate, registry.AccessWrite, registry.ShareNone)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("(storage-writefile) %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("(storage-writefile) %w", err)
	}

	return f.Close()
}
