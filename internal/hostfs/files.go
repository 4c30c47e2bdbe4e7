package hostfs

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/desertwitch/volguard/internal/schema"
)

type hostFile struct {
	*os.File
}

func (f *hostFile) Size() (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	return fi.Size(), nil
}

func openFlags(mode schema.OpenMode, write bool) int {
	rw := os.O_RDONLY
	if write || mode.Writes() {
		rw = os.O_RDWR
	}

	switch mode {
	case schema.ModeCreateNew:
		return rw | os.O_CREATE | os.O_EXCL
	case schema.ModeCreate:
		return rw | os.O_CREATE | os.O_TRUNC
	case schema.ModeOpenOrCreate:
		return rw | os.O_CREATE
	case schema.ModeTruncate:
		return rw | os.O_TRUNC
	case schema.ModeAppend:
		return rw | os.O_CREATE
	case schema.ModeOpen:
		return rw
	}

	return rw
}

// Open opens the file at path with the given [schema.OpenMode]. A file with
// [schema.AttrReadOnly] cannot be opened for writing.
func (d *Driver) Open(path string, mode schema.OpenMode, write bool) (schema.RawFile, error) {
	hostPath, rel, _, err := d.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("(hostfs-open) %w", err)
	}
	if rel == "" {
		return nil, fmt.Errorf("(hostfs-open) %w: %s", ErrRootOperation, path)
	}

	fi, err := d.osHandler.Stat(hostPath)
	if err == nil {
		if fi.IsDir() {
			return nil, fmt.Errorf("(hostfs-open) %w: %s", schema.ErrIsDirectory, path)
		}
		if (write || mode.Writes()) && fi.Mode().Perm()&0o200 == 0 {
			return nil, fmt.Errorf("(hostfs-open) %w: %s", schema.ErrReadOnly, path)
		}
	}

	f, err := d.osHandler.OpenFile(hostPath, openFlags(mode, write), filePerms)
	if err != nil {
		return nil, fmt.Errorf("(hostfs-open) %w", mapError(err, path))
	}

	if mode == schema.ModeAppend {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()

			return nil, fmt.Errorf("(hostfs-open) failed to seek to end: %w", err)
		}
	}

	return &hostFile{File: f}, nil
}

// Delete removes the file at path.
func (d *Driver) Delete(path string) error {
	hostPath, rel, _, err := d.resolve(path)
	if err != nil {
		return fmt.Errorf("(hostfs-delete) %w", err)
	}
	if rel == "" {
		return fmt.Errorf("(hostfs-delete) %w: %s", ErrRootOperation, path)
	}

	fi, err := d.osHandler.Stat(hostPath)
	if err != nil {
		return fmt.Errorf("(hostfs-delete) %w", mapError(err, path))
	}
	if fi.IsDir() {
		return fmt.Errorf("(hostfs-delete) %w: %s", schema.ErrIsDirectory, path)
	}
	if fi.Mode().Perm()&0o200 == 0 {
		return fmt.Errorf("(hostfs-delete) %w: %s", schema.ErrReadOnly, path)
	}

	if err := d.osHandler.Remove(hostPath); err != nil {
		return fmt.Errorf("(hostfs-delete) %w", mapError(err, path))
	}

	d.forget(hostPath)

	return nil
}

// Move renames oldpath to newpath, which must not exist yet. Both paths must
// lie on the same volume.
func (d *Driver) Move(oldpath, newpath string) error {
	oldHost, oldRel, oldVol, err := d.resolve(oldpath)
	if err != nil {
		return fmt.Errorf("(hostfs-move) %w", err)
	}

	newHost, newRel, newVol, err := d.resolve(newpath)
	if err != nil {
		return fmt.Errorf("(hostfs-move) %w", err)
	}

	if oldRel == "" || newRel == "" {
		return fmt.Errorf("(hostfs-move) %w: %s -> %s", ErrRootOperation, oldpath, newpath)
	}
	if oldVol != newVol {
		return fmt.Errorf("(hostfs-move) %w: cross-volume move %s -> %s", ErrUnsupportedPath, oldpath, newpath)
	}

	if _, err := d.osHandler.Stat(oldHost); err != nil {
		return fmt.Errorf("(hostfs-move) %w", mapError(err, oldpath))
	}
	if _, err := d.osHandler.Stat(newHost); err == nil {
		return fmt.Errorf("(hostfs-move) %w: %s", schema.ErrExist, newpath)
	}

	if err := d.osHandler.Rename(oldHost, newHost); err != nil {
		return fmt.Errorf("(hostfs-move) %w", mapError(err, newpath))
	}

	d.Lock()
	if attrs, ok := d.attrs[oldHost]; ok {
		delete(d.attrs, oldHost)
		d.attrs[newHost] = attrs
	}
	d.Unlock()

	return nil
}

// Stat returns the [schema.FileInfo] of path.
func (d *Driver) Stat(path string) (schema.FileInfo, error) {
	hostPath, rel, vol, err := d.resolve(path)
	if err != nil {
		return schema.FileInfo{}, fmt.Errorf("(hostfs-stat) %w", err)
	}

	fi, err := d.osHandler.Stat(hostPath)
	if err != nil {
		return schema.FileInfo{}, fmt.Errorf("(hostfs-stat) %w", mapError(err, path))
	}

	info := d.toFileInfo(hostPath, fi)
	if rel == "" {
		info.Name = vol.root + string(pathing.DirectorySeparator)
	}

	return info, nil
}

// SetAttributes applies attrs to path. [schema.AttrReadOnly] maps onto the
// write permission of the host file, the remaining settable bits are kept by
// the driver. [schema.AttrDirectory] and [schema.AttrVolumeID] are ignored.
func (d *Driver) SetAttributes(path string, attrs schema.Attributes) error {
	hostPath, rel, _, err := d.resolve(path)
	if err != nil {
		return fmt.Errorf("(hostfs-setattr) %w", err)
	}
	if rel == "" {
		return fmt.Errorf("(hostfs-setattr) %w: %s", ErrRootOperation, path)
	}

	fi, err := d.osHandler.Stat(hostPath)
	if err != nil {
		return fmt.Errorf("(hostfs-setattr) %w", mapError(err, path))
	}

	perms := os.FileMode(filePerms)
	switch {
	case fi.IsDir() && attrs.Has(schema.AttrReadOnly):
		perms = readOnlyDirs
	case fi.IsDir():
		perms = dirPerms
	case attrs.Has(schema.AttrReadOnly):
		perms = readOnlyPerms
	}

	if err := d.osHandler.Chmod(hostPath, perms); err != nil {
		return fmt.Errorf("(hostfs-setattr) failed to chmod: %w", err)
	}

	d.Lock()
	defer d.Unlock()

	if kept := attrs & (schema.AttrHidden | schema.AttrSystem | schema.AttrArchive); kept != 0 {
		d.attrs[hostPath] = kept
	} else {
		delete(d.attrs, hostPath)
	}

	return nil
}

func (d *Driver) toFileInfo(hostPath string, fi fs.FileInfo) schema.FileInfo {
	d.RLock()
	attrs := d.attrs[hostPath]
	d.RUnlock()

	if fi.IsDir() {
		attrs |= schema.AttrDirectory
	}
	if fi.Mode().Perm()&0o200 == 0 {
		attrs |= schema.AttrReadOnly
	}
	if attrs == 0 {
		attrs = schema.AttrNormal
	}

	var size int64
	if !fi.IsDir() {
		size = fi.Size()
	}

	return schema.FileInfo{
		Name:       fi.Name(),
		Attributes: attrs,
		Size:       size,
		ModifiedAt: fi.ModTime(),
	}
}

func (d *Driver) forget(hostPath string) {
	d.Lock()
	delete(d.attrs, hostPath)
	d.Unlock()
}
