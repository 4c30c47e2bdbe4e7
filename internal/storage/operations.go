package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
	"github.com/zeebo/blake3"
)

//nolint:containedctx
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, context.Canceled
	default:
		return cr.reader.Read(p)
	}
}

// exclusive registers full for exclusive write access, which fails if the
// path is open anywhere or lies within a locked directory.
func (h *Handler) exclusive(full string) (*registry.Handle, error) {
	return h.registry.RegisterOpen(full, registry.AccessWrite, registry.ShareNone) //nolint:wrapcheck
}

// DeleteFile deletes the file at path, which must not be open.
func (h *Handler) DeleteFile(path string) error {
	full, err := h.GetFullPath(path)
	if err != nil {
		return fmt.Errorf("(storage-delete) %w", err)
	}

	handle, err := h.exclusive(full)
	if err != nil {
		return fmt.Errorf("(storage-delete) %w", err)
	}
	defer handle.Release()

	if err := h.driver.Delete(full); err != nil {
		return fmt.Errorf("(storage-delete) %w", err)
	}

	slog.Debug("Deleted file:", "path", full)

	return nil
}

// MoveFile moves the file at src to dst. Neither may be open.
func (h *Handler) MoveFile(src, dst string) error {
	return h.move("(storage-move)", src, dst)
}

func (h *Handler) move(prefix, src, dst string) error {
	srcFull, err := h.GetFullPath(src)
	if err != nil {
		return fmt.Errorf("%s %w", prefix, err)
	}

	dstFull, err := h.GetFullPath(dst)
	if err != nil {
		return fmt.Errorf("%s %w", prefix, err)
	}

	srcHandle, err := h.exclusive(srcFull)
	if err != nil {
		return fmt.Errorf("%s %w", prefix, err)
	}
	defer srcHandle.Release()

	dstHandle, err := h.exclusive(dstFull)
	if err != nil {
		return fmt.Errorf("%s %w", prefix, err)
	}
	defer dstHandle.Release()

	if err := h.driver.Move(srcFull, dstFull); err != nil {
		return fmt.Errorf("%s %w", prefix, err)
	}

	slog.Debug("Moved:", "path", dstFull, "src", srcFull)

	return nil
}

// CopyFile copies the file at src to dst through a temporary file, which is
// only renamed to dst once the checksums of both sides match. An existing dst
// is replaced only if overwrite is set. The copy can be canceled through ctx.
func (h *Handler) CopyFile(ctx context.Context, src, dst string, overwrite bool) error {
	var transferComplete bool

	dstFull, err := h.GetFullPath(dst)
	if err != nil {
		return fmt.Errorf("(storage-copy) %w", err)
	}

	srcFile, err := h.OpenFile(src, schema.ModeOpen, registry.AccessRead, registry.ShareRead)
	if err != nil {
		return fmt.Errorf("(storage-copy) failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstHandle, err := h.exclusive(dstFull)
	if err != nil {
		return fmt.Errorf("(storage-copy) %w", err)
	}
	defer dstHandle.Release()

	dstExists, err := h.exists(dstFull)
	if err != nil {
		return fmt.Errorf("(storage-copy) failed to check destination existence: %w", err)
	}
	if dstExists && !overwrite {
		return fmt.Errorf("(storage-copy) %w: %s", schema.ErrExist, dstFull)
	}

	tmpPath := dstFull + ".volguard"
	tmpFile, err := h.OpenFile(tmpPath, schema.ModeCreateNew, registry.AccessWrite, registry.ShareNone)
	if err != nil {
		return fmt.Errorf("(storage-copy) failed to open temporary file %s: %w", tmpPath, err)
	}
	defer func() {
		tmpFile.Close()
		if !transferComplete {
			h.DeleteFile(tmpPath) //nolint:errcheck
		}
	}()

	srcHasher := blake3.New()
	dstHasher := blake3.New()

	ctxReader := &contextReader{
		ctx:    ctx,
		reader: io.TeeReader(srcFile, srcHasher),
	}
	multiWriter := io.MultiWriter(tmpFile, dstHasher)

	if _, err := io.Copy(multiWriter, ctxReader); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("(storage-copy) transfer canceled: %w", err)
		}

		return fmt.Errorf("(storage-copy) failed to copy file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("(storage-copy) failed to sync temporary file: %w", err)
	}

	srcChecksum := hex.EncodeToString(srcHasher.Sum(nil))
	dstChecksum := hex.EncodeToString(dstHasher.Sum(nil))

	if srcChecksum != dstChecksum {
		return fmt.Errorf("(storage-copy) %w: %s (src) != %s (dst)", ErrHashMismatch, srcChecksum, dstChecksum)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("(storage-copy) failed to close temporary file: %w", err)
	}

	if dstExists {
		if err := h.driver.Delete(dstFull); err != nil {
			return fmt.Errorf("(storage-copy) failed to replace destination: %w", err)
		}
	}

	tmpHandle, err := h.exclusive(tmpPath)
	if err != nil {
		return fmt.Errorf("(storage-copy) %w", err)
	}
	defer tmpHandle.Release()

	if err := h.driver.Move(tmpPath, dstFull); err != nil {
		return fmt.Errorf("(storage-copy) failed to rename temporary file to destination file: %w", err)
	}

	transferComplete = true

	slog.Debug("Copied file:", "path", dstFull, "src", srcFile.Path(), "blake3", dstChecksum)

	return nil
}

// Exists reports whether path exists.
func (h *Handler) Exists(path string) (bool, error) {
	full, err := h.GetFullPath(path)
	if err != nil {
		return false, fmt.Errorf("(storage-exists) %w", err)
	}

	return h.exists(full)
}

func (h *Handler) exists(full string) (bool, error) {
	if _, err := h.driver.Stat(full); err != nil {
		if errors.Is(err, schema.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("(storage-exists) %w", err)
	}

	return true, nil
}

// GetAttributes returns the [schema.Attributes] of path.
func (h *Handler) GetAttributes(path string) (schema.Attributes, error) {
	full, err := h.GetFullPath(path)
	if err != nil {
		return 0, fmt.Errorf("(storage-getattr) %w", err)
	}

	info, err := h.driver.Stat(full)
	if err != nil {
		return 0, fmt.Errorf("(storage-getattr) %w", err)
	}

	return info.Attributes, nil
}

// SetAttributes sets the [schema.Attributes] of path. Other handles may keep
// the path open if they share write access.
func (h *Handler) SetAttributes(path string, attrs schema.Attributes) error {
	full, err := h.GetFullPath(path)
	if err != nil {
		return fmt.Errorf("(storage-setattr) %w", err)
	}

	handle, err := h.registry.RegisterOpen(full, registry.AccessWrite, registry.ShareReadWrite)
	if err != nil {
		return fmt.Errorf("(storage-setattr) %w", err)
	}
	defer handle.Release()

	if err := h.driver.SetAttributes(full, attrs); err != nil {
		return fmt.Errorf("(storage-setattr) %w", err)
	}

	return nil
}

// Entry returns the entry at path, a [*FileEntry] or a [*DirectoryEntry].
func (h *Handler) Entry(path string) (schema.Entry, error) {
	full, err := h.GetFullPath(path)
	if err != nil {
		return nil, fmt.Errorf("(storage-entry) %w", err)
	}

	info, err := h.driver.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("(storage-entry) %w", err)
	}

	return h.newEntry(full, info), nil
}

func (h *Handler) newEntry(full string, info schema.FileInfo) schema.Entry {
	if info.IsDir() {
		return &DirectoryEntry{handler: h, path: full, info: info}
	}

	return &FileEntry{handler: h, path: full, info: info}
}

func childPath(dir, name string) string {
	p, _ := pathing.Combine(dir, name)

	return p
}
