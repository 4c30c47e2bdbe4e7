package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertwitch/volguard/internal/hostfs"
	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
	"github.com/desertwitch/volguard/internal/schema/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()

	dir := t.TempDir()

	driver, err := hostfs.NewDriver(&schema.OS{}, &schema.Unix{}, map[string]string{"D": dir})
	require.NoError(t, err)

	return NewHandler(driver, registry.New()), dir
}

func writeHostFile(t *testing.T, path string, data string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

// TestOpenFile_ShareModes tests that opens are arbitrated by share mode.
func TestOpenFile_ShareModes(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a.txt"), "data")

	r1, err := h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareRead)
	require.NoError(t, err)
	defer r1.Close()

	r2, err := h.OpenFile(`d:/A.TXT`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err, "readers sharing read access should coexist")
	defer r2.Close()

	_, err = h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessReadWrite, registry.ShareReadWrite)
	require.ErrorIs(t, err, registry.ErrShareConflict)
	require.ErrorIs(t, err, registry.ErrUnauthorizedAccess)

	require.NoError(t, r1.Close())
	require.NoError(t, r2.Close())

	w, err := h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessReadWrite, registry.ShareNone)
	require.NoError(t, err, "write open should succeed once all readers are closed")
	require.NoError(t, w.Close())
}

// TestFile_ReadWrite tests I/O through an open file.
func TestFile_ReadWrite(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)

	f, err := h.OpenFile(`D:\new.txt`, schema.ModeCreateNew, registry.AccessReadWrite, registry.ShareNone)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	size, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, `D:\new.txt`, f.Path())
	assert.Equal(t, registry.AccessReadWrite, f.Access())

	require.NoError(t, f.Close())
	require.NoError(t, f.Close(), "close should be idempotent")

	_, err = f.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)

	open, err := h.Registry().IsOpen(`D:\new.txt`)
	require.NoError(t, err)
	assert.False(t, open)

	got, err := os.ReadFile(filepath.Join(dir, "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

// TestFile_Fail_Access tests that a file cannot be used beyond its access.
func TestFile_Fail_Access(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a.txt"), "data")

	_, err := h.OpenFile(`D:\a.txt`, schema.ModeCreate, registry.AccessRead, registry.ShareReadWrite)
	require.ErrorIs(t, err, ErrNotPermitted)

	f, err := h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("x"))
	require.ErrorIs(t, err, ErrNotPermitted)
}

// TestOpenFile_Fail_NativeReleases tests that a failed native open does not
// leave a registration behind.
func TestOpenFile_Fail_NativeReleases(t *testing.T) {
	t.Parallel()

	driver := mocks.NewDriver(t)
	h := NewHandler(driver, registry.New())

	driver.On("Open", `D:\a.txt`, schema.ModeOpen, false).Return(nil, schema.ErrNotExist).Once()

	_, err := h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareNone)
	require.ErrorIs(t, err, schema.ErrNotExist)

	open, err := h.Registry().IsOpen(`D:\a.txt`)
	require.NoError(t, err)
	assert.False(t, open)
}

// TestOpenFile_Fail_Relative tests that relative paths need a current
// directory.
func TestOpenFile_Fail_Relative(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	_, err := h.OpenFile(`a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareNone)
	require.ErrorIs(t, err, pathing.ErrInvalidPath)
}

// TestDeleteFile tests that open files cannot be deleted.
func TestDeleteFile(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a.txt"), "data")

	f, err := h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)

	require.ErrorIs(t, h.DeleteFile(`D:\a.txt`), registry.ErrShareConflict)

	require.NoError(t, f.Close())
	require.NoError(t, h.DeleteFile(`D:\a.txt`))

	exists, err := h.Exists(`D:\a.txt`)
	require.NoError(t, err)
	assert.False(t, exists)

	require.ErrorIs(t, h.DeleteFile(`D:\a.txt`), schema.ErrNotExist)
}

// TestMoveFile tests moving files, which must not be open.
func TestMoveFile(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a.txt"), "data")

	f, err := h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)
	require.ErrorIs(t, h.MoveFile(`D:\a.txt`, `D:\b.txt`), registry.ErrUnauthorizedAccess)
	require.NoError(t, f.Close())

	require.NoError(t, h.MoveFile(`D:\a.txt`, `D:\b.txt`))

	data, err := h.ReadFile(`D:\b.txt`)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

// TestCopyFile tests verified copies with and without overwriting.
func TestCopyFile(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "src.bin"), "payload")
	writeHostFile(t, filepath.Join(dir, "other.bin"), "old")

	require.NoError(t, h.CopyFile(context.Background(), `D:\src.bin`, `D:\dst.bin`, false))

	data, err := h.ReadFile(`D:\dst.bin`)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	err = h.CopyFile(context.Background(), `D:\src.bin`, `D:\other.bin`, false)
	require.ErrorIs(t, err, schema.ErrExist)

	require.NoError(t, h.CopyFile(context.Background(), `D:\src.bin`, `D:\other.bin`, true))

	data, err = h.ReadFile(`D:\other.bin`)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = os.Stat(filepath.Join(dir, "other.bin.volguard"))
	require.ErrorIs(t, err, os.ErrNotExist, "no temporary file should remain")

	snap := h.Registry().Snapshot()
	assert.Empty(t, snap.Handles, "no registration should remain")
}

// TestCopyFile_Fail_Canceled tests that a canceled copy leaves nothing
// behind.
func TestCopyFile_Fail_Canceled(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "src.bin"), "payload")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.CopyFile(ctx, `D:\src.bin`, `D:\dst.bin`, false)
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "src.bin", entries[0].Name())
}

// TestCopyFile_Fail_DestinationOpen tests that a copy onto an open file is
// refused.
func TestCopyFile_Fail_DestinationOpen(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "src.bin"), "payload")
	writeHostFile(t, filepath.Join(dir, "dst.bin"), "old")

	f, err := h.OpenFile(`D:\dst.bin`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)
	defer f.Close()

	err = h.CopyFile(context.Background(), `D:\src.bin`, `D:\dst.bin`, true)
	require.ErrorIs(t, err, registry.ErrShareConflict)
}

// TestAttributes tests reading and writing of attributes.
func TestAttributes(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a.txt"), "data")

	require.NoError(t, h.SetAttributes(`D:\a.txt`, schema.AttrReadOnly|schema.AttrArchive))

	attrs, err := h.GetAttributes(`D:\a.txt`)
	require.NoError(t, err)
	assert.True(t, attrs.Has(schema.AttrReadOnly))
	assert.True(t, attrs.Has(schema.AttrArchive))

	require.ErrorIs(t, h.DeleteFile(`D:\a.txt`), schema.ErrReadOnly)

	_, err = h.GetAttributes(`D:\missing`)
	require.ErrorIs(t, err, schema.ErrNotExist)
}

// TestCreateDirectory tests creation of nested directories.
func TestCreateDirectory(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)

	require.NoError(t, h.CreateDirectory(`D:\a\b\c`))
	require.NoError(t, h.CreateDirectory(`D:\a\b\c`), "existing directory should not fail")

	fi, err := os.Stat(filepath.Join(dir, "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	writeHostFile(t, filepath.Join(dir, "file"), "x")
	require.ErrorIs(t, h.CreateDirectory(`D:\file\sub`), schema.ErrNotDirectory)
}

// TestDeleteDirectory tests non-recursive and recursive deletes.
func TestDeleteDirectory(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a", "f1"), "x")
	writeHostFile(t, filepath.Join(dir, "a", "b", "f2"), "x")
	writeHostFile(t, filepath.Join(dir, "a", "b", "c", "f3"), "x")

	require.ErrorIs(t, h.DeleteDirectory(`D:\a`, false), schema.ErrDirectoryNotEmpty)

	f, err := h.OpenFile(`D:\a\b\c\f3`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)

	require.ErrorIs(t, h.DeleteDirectory(`D:\a`, true), registry.ErrDirectoryInUse)
	require.NoError(t, f.Close())

	require.NoError(t, h.DeleteDirectory(`D:\a`, true))

	_, err = os.Stat(filepath.Join(dir, "a"))
	require.ErrorIs(t, err, os.ErrNotExist)

	snap := h.Registry().Snapshot()
	assert.Empty(t, snap.Locked, "directory lock should be released")

	writeHostFile(t, filepath.Join(dir, "file"), "x")
	require.ErrorIs(t, h.DeleteDirectory(`D:\file`, false), schema.ErrNotDirectory)
}

// TestMoveDirectory tests moving directories.
func TestMoveDirectory(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a", "f"), "x")

	require.ErrorIs(t, h.MoveDirectory(`D:\a`, `D:\a\b`), ErrMoveIntoSelf)

	f, err := h.OpenFile(`D:\a\f`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)
	require.ErrorIs(t, h.MoveDirectory(`D:\a`, `D:\z`), registry.ErrDirectoryInUse)
	require.NoError(t, f.Close())

	require.NoError(t, h.MoveDirectory(`D:\a`, `D:\z`))

	exists, err := h.Exists(`D:\z\f`)
	require.NoError(t, err)
	assert.True(t, exists)
}

// TestLockDirectory tests that opens beneath a locked directory are refused.
func TestLockDirectory(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a", "f"), "x")

	l, err := h.LockDirectory(`D:\a`)
	require.NoError(t, err)

	_, err = h.OpenFile(`D:\a\f`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.ErrorIs(t, err, registry.ErrDirectoryLocked)

	_, err = h.LockDirectory(`D:\a`)
	require.ErrorIs(t, err, registry.ErrAlreadyLocked)

	require.NoError(t, h.UnlockDirectory(`D:\a`))
	l.Unlock()

	f, err := h.OpenFile(`D:\a\f`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

// TestEnumerate tests listing of directories as entries.
func TestEnumerate(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "d", "f.txt"), "abc")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d", "sub"), 0o755))

	entries, err := h.Enumerate(`D:\d`)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		switch v := e.(type) {
		case *FileEntry:
			assert.Equal(t, "f.txt", v.Name())
			assert.Equal(t, `D:\d\f.txt`, v.Path())
			assert.Equal(t, int64(3), v.Size())
			assert.True(t, v.Exists())
		case *DirectoryEntry:
			assert.Equal(t, "sub", v.Name())
			assert.Equal(t, `D:\d\sub`, v.Path())
			assert.True(t, v.Attributes().Has(schema.AttrDirectory))
		default:
			t.Fatalf("unexpected entry type %T", e)
		}
	}

	_, err = h.Enumerate(`D:\d\f.txt`)
	require.ErrorIs(t, err, schema.ErrNotDirectory)
}

// TestEntry tests the tagged entry variants and their operations.
func TestEntry(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "d", "f.txt"), "abc")

	e, err := h.Entry(`D:\d\f.txt`)
	require.NoError(t, err)
	fe, ok := e.(*FileEntry)
	require.True(t, ok)
	assert.False(t, fe.IsDir())

	f, err := fe.Open(schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, fe.Delete())
	assert.False(t, fe.Exists())

	e, err = h.Entry(`D:\d`)
	require.NoError(t, err)
	de, ok := e.(*DirectoryEntry)
	require.True(t, ok)
	assert.True(t, de.IsDir())

	children, err := de.Entries()
	require.NoError(t, err)
	assert.Empty(t, children)

	require.NoError(t, de.Delete())
	assert.False(t, de.Exists())

	_, err = h.Entry(`D:\d`)
	require.ErrorIs(t, err, schema.ErrNotExist)
}

// TestCurrentDirectory tests relative paths and tracking of the current
// directory.
func TestCurrentDirectory(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "file"), "x")

	require.NoError(t, h.SetCurrentDirectory(`D:\`))
	assert.Equal(t, `D:\`, h.CurrentDirectory())

	require.NoError(t, h.CreateDirectory("work"))
	require.NoError(t, h.SetCurrentDirectory("work"))
	assert.Equal(t, `D:\work`, h.CurrentDirectory())

	require.NoError(t, h.WriteFile("a.txt", []byte("hi")))

	full, err := h.GetFullPath(`..\file`)
	require.NoError(t, err)
	assert.Equal(t, `D:\file`, full)

	require.ErrorIs(t, h.DeleteDirectory(`D:\work`, true), registry.ErrDirectoryInUse)

	require.ErrorIs(t, h.SetCurrentDirectory(`..\file`), schema.ErrNotDirectory)
	require.ErrorIs(t, h.SetCurrentDirectory(`missing`), schema.ErrNotExist)
	assert.Equal(t, `D:\work`, h.CurrentDirectory())

	require.NoError(t, h.SetCurrentDirectory(`..`))
	require.NoError(t, h.DeleteDirectory(`work`, true))
}

// TestFormat tests that a volume can only be formatted without open handles.
func TestFormat(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a", "f"), "x")

	require.ErrorIs(t, h.Format(`D:\a`, "X"), ErrNotRoot)

	f, err := h.OpenFile(`D:\a\f`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)
	require.ErrorIs(t, h.Format(`D:\`, "X"), registry.ErrDirectoryInUse)
	require.NoError(t, f.Close())

	require.NoError(t, h.Format(`d:`, "CARD"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	vols := h.Volumes()
	require.Len(t, vols, 1)
	assert.Equal(t, "CARD", vols[0].Label)
	assert.Empty(t, h.Registry().Snapshot().Locked)
}

// TestEject tests that ejecting a volume evicts its open files.
func TestEject(t *testing.T) {
	t.Parallel()

	h, dir := newTestHandler(t)
	writeHostFile(t, filepath.Join(dir, "a.txt"), "data")

	f, err := h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)

	require.NoError(t, h.Eject(`D:\`))

	_, err = f.Read(make([]byte, 4))
	require.ErrorIs(t, err, ErrHandleEvicted)
	require.NoError(t, f.Close())

	assert.Empty(t, h.Volumes())
	assert.Empty(t, h.Registry().Snapshot().Handles)

	_, err = h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.ErrorIs(t, err, schema.ErrNotMounted)

	require.NoError(t, h.Mount("D:"))

	data, err := h.ReadFile(`D:\a.txt`)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

// TestEject_Fail_CloseError tests that failing native closes are reported
// while the volume is still unmounted.
func TestEject_Fail_CloseError(t *testing.T) {
	t.Parallel()

	driver := mocks.NewDriver(t)
	raw := mocks.NewRawFile(t)
	h := NewHandler(driver, registry.New())

	closeErr := errors.New("card removed")

	driver.On("Open", `D:\a.txt`, schema.ModeOpen, false).Return(raw, nil).Once()
	raw.On("Close").Return(closeErr).Once()
	driver.On("Unmount", "D:").Return(nil).Once()

	f, err := h.OpenFile(`D:\a.txt`, schema.ModeOpen, registry.AccessRead, registry.ShareReadWrite)
	require.NoError(t, err)

	err = h.Eject("D:")
	require.ErrorIs(t, err, closeErr)

	require.NoError(t, f.Close(), "closing an evicted file should not fail")
}

// TestVolumes_SkipsFailures tests that unreadable volumes are skipped.
func TestVolumes_SkipsFailures(t *testing.T) {
	t.Parallel()

	driver := mocks.NewDriver(t)
	h := NewHandler(driver, registry.New())

	driver.On("Volumes").Return([]string{"D:", "E:"}).Once()
	driver.On("VolumeInfo", "D:").Return(schema.VolumeInfo{Root: "D:"}, nil).Once()
	driver.On("VolumeInfo", "E:").Return(schema.VolumeInfo{}, schema.ErrNotMounted).Once()

	vols := h.Volumes()
	require.Len(t, vols, 1)
	assert.Equal(t, "D:", vols[0].Root)
}
