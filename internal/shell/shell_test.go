package shell

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/desertwitch/volguard/internal/hostfs"
	"github.com/desertwitch/volguard/internal/registry"
	"github.com/desertwitch/volguard/internal/schema"
	"github.com/desertwitch/volguard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer, string) {
	t.Helper()

	dir := t.TempDir()

	driver, err := hostfs.NewDriver(&schema.OS{}, &schema.Unix{}, map[string]string{"D": dir})
	require.NoError(t, err)

	s := New(storage.NewHandler(driver, registry.New()))
	t.Cleanup(s.Close)

	return s, &bytes.Buffer{}, dir
}

func run(t *testing.T, s *Shell, out *bytes.Buffer, line string) string {
	t.Helper()

	out.Reset()
	require.NoError(t, s.Execute(context.Background(), out, line), line)

	return out.String()
}

// TestSplitArgs tests the splitting of command lines.
func TestSplitArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"Empty", "", nil},
		{"Blank", "  \t ", nil},
		{"Words", "ls  D:\\dir", []string{"ls", `D:\dir`}},
		{"DoubleQuoted", `write 1 "hello world"`, []string{"write", "1", "hello world"}},
		{"SingleQuoted", `cd 'D:\my dir'`, []string{"cd", `D:\my dir`}},
		{"EmptyQuoted", `format D: ""`, []string{"format", "D:", ""}},
		{"Adjacent", `a"b c"d`, []string{"ab cd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := splitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := splitArgs(`cd "D:\x`)
	require.ErrorIs(t, err, ErrUnbalancedQuotes)
}

// TestExecute_Basics tests empty lines, unknown commands and exit.
func TestExecute_Basics(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestShell(t)

	require.NoError(t, s.Execute(context.Background(), io.Discard, "   "))
	require.Error(t, s.Execute(context.Background(), io.Discard, "frobnicate"))
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, "exit"), ErrExit)

	assert.Contains(t, run(t, s, out, "help"), "volumes")
	assert.Contains(t, run(t, s, out, "pwd"), "<none>")
}

// TestExecute_FileLifecycle tests opening, writing, reading and closing.
func TestExecute_FileLifecycle(t *testing.T) {
	t.Parallel()

	s, out, dir := newTestShell(t)

	assert.Contains(t, run(t, s, out, `open -m createnew D:\a.txt rw none`), `D:\a.txt`)
	ids := s.OpenHandles()
	require.Len(t, ids, 1)
	id := strconv.FormatUint(ids[0], 10)

	assert.Contains(t, run(t, s, out, "write "+id+` "hello world"`), "11 B")
	assert.Contains(t, run(t, s, out, "handles"), "console")

	err := s.Execute(context.Background(), io.Discard, `open D:\a.txt r rw`)
	require.ErrorIs(t, err, registry.ErrShareConflict)

	run(t, s, out, "close "+id)
	assert.Empty(t, s.OpenHandles())
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, "close "+id), ErrUnknownHandle)
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, "close x"), ErrInvalidArgument)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	run(t, s, out, `open D:\a.txt`)
	ids = s.OpenHandles()
	require.Len(t, ids, 1)

	assert.Contains(t, run(t, s, out, "read "+strconv.FormatUint(ids[0], 10)), "hello world")
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, `open -m bogus D:\a.txt`), ErrInvalidArgument)
}

// TestExecute_Directories tests navigation and directory commands.
func TestExecute_Directories(t *testing.T) {
	t.Parallel()

	s, out, dir := newTestShell(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.txt"), []byte("abc"), 0o644))

	run(t, s, out, `cd D:\`)
	run(t, s, out, `mkdir work\sub`)
	assert.Contains(t, run(t, s, out, `cd work`), `D:\work`)
	assert.Contains(t, run(t, s, out, "pwd"), `D:\work`)

	listing := run(t, s, out, `ls ..`)
	assert.Contains(t, listing, "top.txt")
	assert.Contains(t, listing, "<DIR>")

	stat := run(t, s, out, `stat ..\top.txt`)
	assert.Contains(t, stat, "file")
	assert.Contains(t, stat, "3 bytes")

	err := s.Execute(context.Background(), io.Discard, `rmdir -r D:\work`)
	require.ErrorIs(t, err, registry.ErrDirectoryInUse)

	run(t, s, out, `cd ..`)
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, `rmdir work`), schema.ErrDirectoryNotEmpty)
	run(t, s, out, `rmdir -r work`)

	_, err = os.Stat(filepath.Join(dir, "work"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestExecute_Locks tests locking and unlocking of directories.
func TestExecute_Locks(t *testing.T) {
	t.Parallel()

	s, out, dir := newTestShell(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "d", "f"), []byte("x"), 0o644))

	assert.Contains(t, run(t, s, out, `lock D:\d`), `D:\D`)
	assert.Contains(t, run(t, s, out, "handles"), "lock")

	err := s.Execute(context.Background(), io.Discard, `open D:\d\f`)
	require.ErrorIs(t, err, registry.ErrDirectoryLocked)

	run(t, s, out, `unlock D:\d`)
	run(t, s, out, `open D:\d\f`)
}

// TestExecute_FileOperations tests attributes, copies, moves and deletes.
func TestExecute_FileOperations(t *testing.T) {
	t.Parallel()

	s, out, dir := newTestShell(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0o644))

	assert.Contains(t, run(t, s, out, `attrib D:\a.txt +r +h`), "-rh---")
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, `rm D:\a.txt`), schema.ErrReadOnly)
	assert.Contains(t, run(t, s, out, `attrib D:\a.txt -r -h`), "------")
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, `attrib D:\a.txt +x`), ErrInvalidArgument)

	run(t, s, out, `cp D:\a.txt D:\b.txt`)
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, `cp D:\a.txt D:\b.txt`), schema.ErrExist)
	run(t, s, out, `cp -f D:\a.txt D:\b.txt`)

	run(t, s, out, `mkdir D:\dir`)
	run(t, s, out, `mv D:\b.txt D:\dir\c.txt`)
	run(t, s, out, `mv D:\dir D:\moved`)

	data, err := os.ReadFile(filepath.Join(dir, "moved", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	run(t, s, out, `rm D:\a.txt`)
	_, err = os.Stat(filepath.Join(dir, "a.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestExecute_Volumes tests the volume commands.
func TestExecute_Volumes(t *testing.T) {
	t.Parallel()

	s, out, dir := newTestShell(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0o644))

	assert.Contains(t, run(t, s, out, "volumes"), "HOSTFS")

	run(t, s, out, `open D:\a.txt`)
	require.ErrorIs(t, s.Execute(context.Background(), io.Discard, "format D:"), registry.ErrDirectoryInUse)

	assert.Contains(t, run(t, s, out, "eject D:"), "was evicted")
	assert.Empty(t, s.OpenHandles())
	assert.NotContains(t, run(t, s, out, "volumes"), "HOSTFS")

	run(t, s, out, "mount D:")
	assert.Contains(t, run(t, s, out, "format D: CARD"), "formatted")
	assert.Contains(t, run(t, s, out, "volumes"), "CARD")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestExecute_Path tests the path functions.
func TestExecute_Path(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestShell(t)

	tests := []struct {
		line string
		want string
	}{
		{`path rootlength \\server\share\x`, "14"},
		{`path root D:\x\y`, strconv.Quote(`D:\`)},
		{`path root x`, `""`},
		{`path root "  "`, "<null>"},
		{`path isrooted \x`, "true"},
		{`path normalize D:/a//b`, strconv.Quote(`D:\a\b`)},
		{`path isempty "  "`, "true"},
		{`path combine D:\a b.txt`, strconv.Quote(`D:\a\b.txt`)},
		{`path dirname D:\`, "<null>"},
		{`path dirname D:\a\b`, strconv.Quote(`D:\a`)},
		{`path filename D:\a\b.txt`, strconv.Quote("b.txt")},
		{`path stem D:\a\b.txt`, strconv.Quote("b")},
		{`path ext D:\a\b.txt`, strconv.Quote(".txt")},
		{`path hasext D:\a\b`, "false"},
		{`path changeext D:\a\b.txt md`, strconv.Quote(`D:\a\b.md`)},
		{`path removeext D:\a\b.txt`, strconv.Quote(`D:\a\b`)},
	}

	for _, tt := range tests {
		assert.Contains(t, run(t, s, out, tt.line), tt.want, tt.line)
	}

	require.Error(t, s.Execute(context.Background(), io.Discard, `path full x`), "relative path without current directory")
	run(t, s, out, `cd D:\`)
	assert.Contains(t, run(t, s, out, `path full x\..\y`), strconv.Quote(`D:\y`))
}

// TestClose tests that closing the shell releases everything it holds.
func TestClose(t *testing.T) {
	t.Parallel()

	s, out, dir := newTestShell(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d"), 0o755))

	run(t, s, out, `open D:\a.txt`)
	run(t, s, out, `lock D:\d`)

	s.Close()

	snap := s.handler.Registry().Snapshot()
	assert.Empty(t, snap.Handles)
	assert.Empty(t, snap.Locked)
	assert.Empty(t, s.OpenHandles())
}
