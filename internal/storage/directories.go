package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
)

// CreateDirectory creates the directory at path, along with any missing
// parent directories. An already existing directory is not an error.
func (h *Handler) CreateDirectory(path string) error {
	full, err := h.GetFullPath(path)
	if err != nil {
		return fmt.Errorf("(storage-mkdir) %w", err)
	}

	handle, err := h.exclusive(full)
	if err != nil {
		return fmt.Errorf("(storage-mkdir) %w", err)
	}
	defer handle.Release()

	var missing []string
	for p, ok := full, true; ok; p, ok = pathing.GetDirectoryName(p) {
		info, err := h.driver.Stat(p)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("(storage-mkdir) %w: %s", schema.ErrNotDirectory, p)
			}

			break
		}
		if !errors.Is(err, schema.ErrNotExist) {
			return fmt.Errorf("(storage-mkdir) %w", err)
		}
		missing = append(missing, p)
	}

	for i := len(missing) - 1; i >= 0; i-- {
		if err := h.driver.CreateDirectory(missing[i]); err != nil && !errors.Is(err, schema.ErrExist) {
			return fmt.Errorf("(storage-mkdir) %w", err)
		}
		slog.Debug("Created directory:", "path", missing[i])
	}

	return nil
}

// DeleteDirectory deletes the directory at path. The directory is locked for
// the duration of the operation, so it fails with an error wrapping
// [registry.ErrUnauthorizedAccess] if anything within it is open. Unless
// recursive is set, a directory that is not empty is not deleted.
func (h *Handler) DeleteDirectory(path string, recursive bool) error {
	full, err := h.GetFullPath(path)
	if err != nil {
		return fmt.Errorf("(storage-rmdir) %w", err)
	}

	info, err := h.driver.Stat(full)
	if err != nil {
		return fmt.Errorf("(storage-rmdir) %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("(storage-rmdir) %w: %s", schema.ErrNotDirectory, full)
	}

	l, err := h.registry.LockDirectory(full)
	if err != nil {
		return fmt.Errorf("(storage-rmdir) %w", err)
	}
	defer l.Unlock()

	if recursive {
		err = h.deleteTree(full)
	} else {
		err = h.driver.DeleteDirectory(full)
	}
	if err != nil {
		return fmt.Errorf("(storage-rmdir) %w", err)
	}

	slog.Debug("Deleted directory:", "path", full, "recursive", recursive)

	return nil
}

// deleteTree removes the files of dir, then its subdirectories depth first
// and then dir itself. The caller must hold the lock of dir.
func (h *Handler) deleteTree(dir string) error {
	infos, err := h.driver.ReadDir(dir)
	if err != nil {
		return err //nolint:wrapcheck
	}

	var subdirs []string
	for _, info := range infos {
		child := childPath(dir, info.Name)
		if info.IsDir() {
			subdirs = append(subdirs, child)

			continue
		}
		if err := h.driver.Delete(child); err != nil {
			return err //nolint:wrapcheck
		}
	}

	for _, sub := range subdirs {
		if err := h.deleteTree(sub); err != nil {
			return err
		}
	}

	return h.driver.DeleteDirectory(dir) //nolint:wrapcheck
}

// MoveDirectory moves the directory at src to dst. Both are locked for the
// duration of the move.
func (h *Handler) MoveDirectory(src, dst string) error {
	srcFull, err := h.GetFullPath(src)
	if err != nil {
		return fmt.Errorf("(storage-movedir) %w", err)
	}

	dstFull, err := h.GetFullPath(dst)
	if err != nil {
		return fmt.Errorf("(storage-movedir) %w", err)
	}

	srcKey, err := registry.Canonicalize(srcFull)
	if err != nil {
		return fmt.Errorf("(storage-movedir) %w", err)
	}

	dstKey, err := registry.Canonicalize(dstFull)
	if err != nil {
		return fmt.Errorf("(storage-movedir) %w", err)
	}

	if dstKey.Within(srcKey) {
		return fmt.Errorf("(storage-movedir) %w: %s -> %s", ErrMoveIntoSelf, srcFull, dstFull)
	}

	info, err := h.driver.Stat(srcFull)
	if err != nil {
		return fmt.Errorf("(storage-movedir) %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("(storage-movedir) %w: %s", schema.ErrNotDirectory, srcFull)
	}

	srcLock, err := h.registry.LockDirectory(srcFull)
	if err != nil {
		return fmt.Errorf("(storage-movedir) %w", err)
	}
	defer srcLock.Unlock()

	dstLock, err := h.registry.LockDirectory(dstFull)
	if err != nil {
		return fmt.Errorf("(storage-movedir) %w", err)
	}
	defer dstLock.Unlock()

	if err := h.driver.Move(srcFull, dstFull); err != nil {
		return fmt.Errorf("(storage-movedir) %w", err)
	}

	slog.Debug("Moved directory:", "path", dstFull, "src", srcFull)

	return nil
}

// Enumerate returns the entries of the directory at path.
func (h *Handler) Enumerate(path string) ([]schema.Entry, error) {
	full, err := h.GetFullPath(path)
	if err != nil {
		return nil, fmt.Errorf("(storage-enumerate) %w", err)
	}

	handle, err := h.registry.RegisterOpen(full, registry.AccessRead, registry.ShareReadWrite)
	if err != nil {
		return nil, fmt.Errorf("(storage-enumerate) %w", err)
	}
	defer handle.Release()

	infos, err := h.driver.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("(storage-enumerate) %w", err)
	}

	entries := make([]schema.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, h.newEntry(childPath(full, info.Name), info))
	}

	return entries, nil
}
