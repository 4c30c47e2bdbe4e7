package hostfs

import (
	"fmt"
	"path/filepath"

	"github.com/desertwitch/volguard/internal/schema"
)

// CreateDirectory creates the directory at path. Its parent must exist.
func (d *Driver) CreateDirectory(path string) error {
	hostPath, rel, _, err := d.resolve(path)
	if err != nil {
		return fmt.Errorf("(hostfs-mkdir) %w", err)
	}
	if rel == "" {
		return fmt.Errorf("(hostfs-mkdir) %w: %s", schema.ErrExist, path)
	}

	if err := d.unixHandler.Mkdir(hostPath, dirPerms); err != nil {
		return fmt.Errorf("(hostfs-mkdir) %w", mapError(err, path))
	}

	return nil
}

// DeleteDirectory removes the empty directory at path.
func (d *Driver) DeleteDirectory(path string) error {
	hostPath, rel, _, err := d.resolve(path)
	if err != nil {
		return fmt.Errorf("(hostfs-rmdir) %w", err)
	}
	if rel == "" {
		return fmt.Errorf("(hostfs-rmdir) %w: %s", ErrRootOperation, path)
	}

	if err := d.unixHandler.Rmdir(hostPath); err != nil {
		return fmt.Errorf("(hostfs-rmdir) %w", mapError(err, path))
	}

	d.forget(hostPath)

	return nil
}

// ReadDir returns the entries of the directory at path.
func (d *Driver) ReadDir(path string) ([]schema.FileInfo, error) {
	hostPath, _, _, err := d.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("(hostfs-readdir) %w", err)
	}

	fi, err := d.osHandler.Stat(hostPath)
	if err != nil {
		return nil, fmt.Errorf("(hostfs-readdir) %w", mapError(err, path))
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("(hostfs-readdir) %w: %s", schema.ErrNotDirectory, path)
	}

	entries, err := d.osHandler.ReadDir(hostPath)
	if err != nil {
		return nil, fmt.Errorf("(hostfs-readdir) %w", mapError(err, path))
	}

	infos := make([]schema.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // removed in between
		}
		infos = append(infos, d.toFileInfo(filepath.Join(hostPath, entry.Name()), info))
	}

	return infos, nil
}
