// Package storage implements the file and directory operations of the device
// on top of a native [schema.Driver]. Every operation first resolves its
// paths against the current directory, then registers with the
// [registry.Registry] before any native work is done, and releases that
// registration on every exit path once the native work is complete.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
)

// Handler is the principal implementation for the storage facade.
type Handler struct {
	driver   schema.Driver
	registry *registry.Registry
}

// NewHandler returns a pointer to a new storage [Handler].
func NewHandler(driver schema.Driver, reg *registry.Registry) *Handler {
	return &Handler{
		driver:   driver,
		registry: reg,
	}
}

// Registry returns the [registry.Registry] arbitrating the [Handler].
func (h *Handler) Registry() *registry.Registry {
	return h.registry
}

// GetFullPath resolves path against the current directory.
func (h *Handler) GetFullPath(path string) (string, error) {
	full, err := pathing.Resolve(h.registry.CurrentDirectory(), path)
	if err != nil {
		return "", fmt.Errorf("(storage-fullpath) %w", err)
	}

	return full, nil
}

// CurrentDirectory returns the current working directory.
func (h *Handler) CurrentDirectory() string {
	return h.registry.CurrentDirectory()
}

// SetCurrentDirectory changes the current working directory to the existing
// directory at path.
func (h *Handler) SetCurrentDirectory(path string) error {
	full, err := h.GetFullPath(path)
	if err != nil {
		return fmt.Errorf("(storage-chdir) %w", err)
	}

	info, err := h.driver.Stat(full)
	if err != nil {
		return fmt.Errorf("(storage-chdir) %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("(storage-chdir) %w: %s", schema.ErrNotDirectory, full)
	}

	if err := h.registry.SetCurrentDirectory(full); err != nil {
		return fmt.Errorf("(storage-chdir) %w", err)
	}

	return nil
}

// LockDirectory locks the directory at path for an exclusive operation.
func (h *Handler) LockDirectory(path string) (*registry.DirLock, error) {
	full, err := h.GetFullPath(path)
	if err != nil {
		return nil, fmt.Errorf("(storage-lock) %w", err)
	}

	l, err := h.registry.LockDirectory(full)
	if err != nil {
		return nil, fmt.Errorf("(storage-lock) %w", err)
	}

	return l, nil
}

// UnlockDirectory releases any lock held on the directory at path.
func (h *Handler) UnlockDirectory(path string) error {
	full, err := h.GetFullPath(path)
	if err != nil {
		return fmt.Errorf("(storage-unlock) %w", err)
	}

	if err := h.registry.UnlockDirectoryPath(full); err != nil {
		return fmt.Errorf("(storage-unlock) %w", err)
	}

	return nil
}

// Volumes returns the [schema.VolumeInfo] of every mounted volume. Volumes
// whose information cannot be read are skipped.
func (h *Handler) Volumes() []schema.VolumeInfo {
	roots := h.driver.Volumes()
	infos := make([]schema.VolumeInfo, 0, len(roots))

	for _, root := range roots {
		info, err := h.driver.VolumeInfo(root)
		if err != nil {
			slog.Warn("Skipped volume: failed to get volume information", "root", root, "err", err)

			continue
		}
		infos = append(infos, info)
	}

	return infos
}

// Format formats the volume of root, which must not have any open handles.
func (h *Handler) Format(root string, label string) error {
	display, err := volumeRoot(root)
	if err != nil {
		return fmt.Errorf("(storage-format) %w", err)
	}

	l, err := h.registry.LockDirectory(display)
	if err != nil {
		return fmt.Errorf("(storage-format) %w", err)
	}
	defer l.Unlock()

	if err := h.driver.Format(display, label); err != nil {
		return fmt.Errorf("(storage-format) %w", err)
	}

	slog.Info("Formatted volume:", "root", display, "label", label)

	return nil
}

// Eject evicts all open handles of the volume of root, closing their native
// resources, and then unmounts it. The volume is unmounted even if some of
// the native resources failed to close.
func (h *Handler) Eject(root string) error {
	display, err := volumeRoot(root)
	if err != nil {
		return fmt.Errorf("(storage-eject) %w", err)
	}

	evicted, evictErr := h.registry.ForceRemoveRoot(display)
	if evicted > 0 {
		slog.Warn("Evicted open handles with ejected volume", "root", display, "count", evicted)
	}

	if err := h.driver.Unmount(display); err != nil {
		return fmt.Errorf("(storage-eject) %w", errors.Join(err, evictErr))
	}

	if evictErr != nil {
		return fmt.Errorf("(storage-eject) %w", evictErr)
	}

	slog.Info("Ejected volume:", "root", display)

	return nil
}

// Mount mounts the volume of root again.
func (h *Handler) Mount(root string) error {
	display, err := volumeRoot(root)
	if err != nil {
		return fmt.Errorf("(storage-mount) %w", err)
	}

	if err := h.driver.Mount(display); err != nil {
		return fmt.Errorf("(storage-mount) %w", err)
	}

	slog.Info("Mounted volume:", "root", display)

	return nil
}

// volumeRoot returns the display form (such as "D:") of a volume root.
func volumeRoot(root string) (string, error) {
	key, err := registry.Canonicalize(root)
	if err != nil {
		return "", err
	}

	if !key.IsRoot() || len(root) < 2 || root[1] != pathing.VolumeSeparator {
		return "", fmt.Errorf("%w: %s", ErrNotRoot, root)
	}

	return strings.ToUpper(root[:2]), nil
}
