// Package hostfs implements a [schema.Driver] backed by directories of the
// host, with one directory serving as the contents of each drive letter. It
// stands in for the native driver of the device during development.
package hostfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/desertwitch/volguard/internal/schema"
	"golang.org/x/sys/unix"
)

const (
	// FileSystemName is the file system name reported for host volumes.
	FileSystemName = "HOSTFS"

	filePerms     = 0o644
	readOnlyPerms = 0o444
	dirPerms      = 0o755
	readOnlyDirs  = 0o555
)

type osProvider interface {
	Chmod(name string, mode os.FileMode) error
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	ReadDir(name string) ([]os.DirEntry, error)
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
}

type unixProvider interface {
	Mkdir(path string, mode uint32) error
	Rmdir(path string) error
	Statfs(path string, buf *unix.Statfs_t) error
}

type volume struct {
	root    string
	dir     string
	label   string
	mounted bool
}

// Driver is the principal implementation of the host-backed [schema.Driver].
type Driver struct {
	sync.RWMutex
	osHandler   osProvider
	unixHandler unixProvider
	volumes     map[byte]*volume
	attrs       map[string]schema.Attributes // map[hostPath]schema.Attributes
}

// NewDriver returns a pointer to a new [Driver]. The mounts map drive letters
// (such as "D") to existing host directories, all of which start mounted.
func NewDriver(osHandler osProvider, unixHandler unixProvider, mounts map[string]string) (*Driver, error) {
	d := &Driver{
		osHandler:   osHandler,
		unixHandler: unixHandler,
		volumes:     make(map[byte]*volume, len(mounts)),
		attrs:       make(map[string]schema.Attributes),
	}

	for letter, dir := range mounts {
		if len(letter) != 1 || !pathing.IsValidDriveChar(letter[0]) {
			return nil, fmt.Errorf("(hostfs-new) %w: invalid drive letter %q", ErrUnknownVolume, letter)
		}

		fi, err := osHandler.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("(hostfs-new) failed to stat %s: %w", dir, err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("(hostfs-new) %w: %s", schema.ErrNotDirectory, dir)
		}

		upper := strings.ToUpper(letter)
		d.volumes[upper[0]] = &volume{
			root:    upper + string(pathing.VolumeSeparator),
			dir:     dir,
			label:   upper,
			mounted: true,
		}
	}

	return d, nil
}

// resolve translates a drive-letter path into its host path. The returned
// relative part is empty for the volume root.
func (d *Driver) resolve(path string) (string, string, *volume, error) {
	rootLength := pathing.RootLength(path)
	if rootLength < 2 || path[1] != pathing.VolumeSeparator {
		return "", "", nil, fmt.Errorf("%w: %s", ErrUnsupportedPath, path)
	}

	d.RLock()
	vol, ok := d.volumes[strings.ToUpper(path[:1])[0]]
	mounted := ok && vol.mounted
	d.RUnlock()

	if !ok {
		return "", "", nil, fmt.Errorf("%w: %s", ErrUnknownVolume, path[:2])
	}
	if !mounted {
		return "", "", nil, fmt.Errorf("%w: %s", schema.ErrNotMounted, vol.root)
	}

	rel := path[rootLength:]
	segments := []string{vol.dir}

	for _, seg := range strings.FieldsFunc(rel, func(r rune) bool {
		return r < 0x80 && pathing.IsDirectorySeparator(byte(r))
	}) {
		if seg == "." || seg == ".." {
			return "", "", nil, fmt.Errorf("%w: relative segment in %s", ErrUnsupportedPath, path)
		}
		segments = append(segments, seg)
	}

	return filepath.Join(segments...), strings.Join(segments[1:], string(pathing.DirectorySeparator)), vol, nil
}

// Volumes returns the roots of all mounted volumes, in order.
func (d *Driver) Volumes() []string {
	d.RLock()
	defer d.RUnlock()

	roots := make([]string, 0, len(d.volumes))
	for _, vol := range d.volumes {
		if vol.mounted {
			roots = append(roots, vol.root)
		}
	}
	slices.Sort(roots)

	return roots
}

// VolumeInfo returns [schema.VolumeInfo] for the volume of root.
func (d *Driver) VolumeInfo(root string) (schema.VolumeInfo, error) {
	_, _, vol, err := d.resolve(root)
	if err != nil {
		return schema.VolumeInfo{}, fmt.Errorf("(hostfs-volinfo) %w", err)
	}

	var stat unix.Statfs_t
	if err := d.unixHandler.Statfs(vol.dir, &stat); err != nil {
		return schema.VolumeInfo{}, fmt.Errorf("(hostfs-volinfo) failed to statfs: %w", err)
	}

	d.RLock()
	label := vol.label
	d.RUnlock()

	return schema.VolumeInfo{
		Root:       vol.root,
		Label:      label,
		FileSystem: FileSystemName,
		TotalSize:  stat.Blocks * uint64(stat.Bsize), //nolint:gosec
		FreeSpace:  stat.Bavail * uint64(stat.Bsize), //nolint:gosec
	}, nil
}

// Mount marks the volume of root as mounted.
func (d *Driver) Mount(root string) error {
	return d.setMounted(root, true)
}

// Unmount marks the volume of root as unmounted. Any further operation on it
// fails with [schema.ErrNotMounted] until it is mounted again.
func (d *Driver) Unmount(root string) error {
	return d.setMounted(root, false)
}

func (d *Driver) setMounted(root string, mounted bool) error {
	if len(root) < 2 || root[1] != pathing.VolumeSeparator || !pathing.IsValidDriveChar(root[0]) {
		return fmt.Errorf("(hostfs-mount) %w: %s", ErrUnsupportedPath, root)
	}

	d.Lock()
	defer d.Unlock()

	vol, ok := d.volumes[strings.ToUpper(root[:1])[0]]
	if !ok {
		return fmt.Errorf("(hostfs-mount) %w: %s", ErrUnknownVolume, root)
	}

	vol.mounted = mounted

	return nil
}

// Format removes all contents of the volume of root and sets its label.
func (d *Driver) Format(root string, label string) error {
	hostPath, _, vol, err := d.resolve(root)
	if err != nil {
		return fmt.Errorf("(hostfs-format) %w", err)
	}

	entries, err := d.osHandler.ReadDir(hostPath)
	if err != nil {
		return fmt.Errorf("(hostfs-format) failed to readdir: %w", err)
	}

	for _, entry := range entries {
		if err := d.osHandler.RemoveAll(filepath.Join(hostPath, entry.Name())); err != nil {
			return fmt.Errorf("(hostfs-format) failed to remove %s: %w", entry.Name(), err)
		}
	}

	d.Lock()
	defer d.Unlock()

	if label != "" {
		vol.label = label
	}

	for p := range d.attrs {
		if strings.HasPrefix(p, vol.dir+string(filepath.Separator)) {
			delete(d.attrs, p)
		}
	}

	return nil
}

// mapError translates a host error into the [schema] error taxonomy.
func mapError(err error, path string) error {
	switch {
	case errors.Is(err, unix.ENOTEMPTY):
		return fmt.Errorf("%w: %s", schema.ErrDirectoryNotEmpty, path)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", schema.ErrNotExist, path)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %s", schema.ErrExist, path)
	case errors.Is(err, unix.ENOTDIR):
		return fmt.Errorf("%w: %s", schema.ErrNotDirectory, path)
	case errors.Is(err, unix.EISDIR):
		return fmt.Errorf("%w: %s", schema.ErrIsDirectory, path)
	default:
		return fmt.Errorf("%w: %s", err, path)
	}
}
