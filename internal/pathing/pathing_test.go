package pathing_test

import (
	"strings"
	"testing"

	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRootLength_Table tests root detection for all recognized path forms.
func TestRootLength_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want int
	}{
		{"Empty", "", 0},
		{"Relative", `foo\bar`, 0},
		{"Relative_Dot", `.\foo`, 0},
		{"Drive_Bare", `C:`, 2},
		{"Drive_Lower", `d:`, 2},
		{"Drive_Separator", `C:\`, 3},
		{"Drive_AltSeparator", `C:/`, 3},
		{"Drive_Path", `C:\dir\file`, 3},
		{"Drive_Relative", `C:file`, 2},
		{"Drive_Invalid", `1:\foo`, 0},
		{"Rooted", `\foo`, 1},
		{"Rooted_Alt", `/foo`, 1},
		{"UNC_Bare", `\\`, 2},
		{"UNC_Server", `\\server`, 8},
		{"UNC_Share", `\\server\share`, 14},
		{"UNC_SharePath", `\\server\share\dir\file`, 14},
		{"UNC_Alt", `//server/share/dir`, 14},
		{"Device_Dot", `\\.\C:\foo`, 7},
		{"Device_Question", `\\?\C:\foo`, 7},
		{"Device_NT", `\??\C:\foo`, 7},
		{"Device_NoSegment", `\\.\`, 4},
		{"Device_Bare", `\\.\COM1`, 8},
		{"DeviceUNC_Extended", `\\?\UNC\server\share\dir`, 20},
		{"DeviceUNC_Dot", `\\.\UNC\server\share`, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pathing.RootLength(tt.path))
		})
	}
}

// TestRootLength_Monotonic tests that the root never exceeds the path.
func TestRootLength_Monotonic(t *testing.T) {
	t.Parallel()

	paths := []string{
		"", `\`, `\\`, `\\\`, `C:`, `C:\`, `\\?\`, `\\?\UNC\`, `\\?\UNC\a`,
		`\\.\`, `\??\x`, `//`, `a:b`, `\\server\share\`, `Z:\\\\`,
	}

	for _, p := range paths {
		assert.LessOrEqual(t, pathing.RootLength(p), len(p), "path %q", p)
	}
}

// TestIsValidDriveChar_Table tests the drive letter check.
func TestIsValidDriveChar_Table(t *testing.T) {
	t.Parallel()

	for c := range 256 {
		b := byte(c)
		want := (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
		assert.Equal(t, want, pathing.IsValidDriveChar(b), "char %d", c)
	}
}

// TestIsDirectorySeparator tests both separator characters.
func TestIsDirectorySeparator(t *testing.T) {
	t.Parallel()

	assert.True(t, pathing.IsDirectorySeparator('\\'))
	assert.True(t, pathing.IsDirectorySeparator('/'))
	assert.False(t, pathing.IsDirectorySeparator(':'))
	assert.False(t, pathing.IsDirectorySeparator('a'))
}

// TestIsEffectivelyEmpty_Table tests the empty and space-only detection.
func TestIsEffectivelyEmpty_Table(t *testing.T) {
	t.Parallel()

	assert.True(t, pathing.IsEffectivelyEmpty(""))
	assert.True(t, pathing.IsEffectivelyEmpty(" "))
	assert.True(t, pathing.IsEffectivelyEmpty("    "))
	assert.False(t, pathing.IsEffectivelyEmpty(" a "))
	assert.False(t, pathing.IsEffectivelyEmpty("\t"))
}

// TestNormalizeSeparators_Table tests separator normalization.
func TestNormalizeSeparators_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"Empty", "", ""},
		{"AlreadyNormal", `C:\dir\file`, `C:\dir\file`},
		{"AltSeparators", `C:/dir/file`, `C:\dir\file`},
		{"Mixed", `C:\dir/file`, `C:\dir\file`},
		{"Collapse", `C:\dir\\\file`, `C:\dir\file`},
		{"CollapseTrailing", `C:\dir\\`, `C:\dir\`},
		{"UNC_Kept", `\\server\share`, `\\server\share`},
		{"UNC_Alt", `//server//share`, `\\server\share`},
		{"LeadingTriple", `\\\server`, `\\server`},
		{"OnlySeparators", `////`, `\\`},
		{"Single", `/`, `\`},
		{"NoSeparators", `file.txt`, `file.txt`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pathing.NormalizeSeparators(tt.path))
		})
	}
}

// TestNormalizeSeparators_Idempotent tests that normalizing twice changes
// nothing further.
func TestNormalizeSeparators_Idempotent(t *testing.T) {
	t.Parallel()

	paths := []string{
		"", `\`, `/`, `\\`, `///`, `\\\\\`, `C:/a//b\\\c/`, `//?/UNC//x`,
		`a/b`, `\a\\`, `x\\/\\y`, `\\.\C:\\dir`,
	}

	for _, p := range paths {
		once := pathing.NormalizeSeparators(p)
		assert.Equal(t, once, pathing.NormalizeSeparators(once), "path %q", p)
	}
}

// TestNormalizeSeparators_NoAllocation tests that normalized input is returned
// without building a new string.
func TestNormalizeSeparators_NoAllocation(t *testing.T) {
	path := `D:\data\file.txt`

	allocs := testing.AllocsPerRun(100, func() {
		_ = pathing.NormalizeSeparators(path)
	})

	assert.Zero(t, allocs)
}

// TestGetPathRoot_Table tests the normalized root extraction.
func TestGetPathRoot_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		want   string
		wantOk bool
	}{
		{"Empty", "", "", false},
		{"Spaces", "   ", "", false},
		{"Drive", `I:`, `I:`, true},
		{"DriveDir", `I:\dir\file`, `I:\`, true},
		{"DriveAlt", `I:/dir`, `I:\`, true},
		{"UNC", `\\server\share\dir`, `\\server\share`, true},
		{"Rooted", `\dir`, `\`, true},
		{"Relative", `dir\file`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := pathing.GetPathRoot(tt.path)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestIsPathRooted_Table tests the rootedness check.
func TestIsPathRooted_Table(t *testing.T) {
	t.Parallel()

	assert.True(t, pathing.IsPathRooted(`\foo`))
	assert.True(t, pathing.IsPathRooted(`/foo`))
	assert.True(t, pathing.IsPathRooted(`C:`))
	assert.True(t, pathing.IsPathRooted(`c:foo`))
	assert.True(t, pathing.IsPathRooted(`\\server\share`))
	assert.False(t, pathing.IsPathRooted(""))
	assert.False(t, pathing.IsPathRooted(`foo`))
	assert.False(t, pathing.IsPathRooted(`1:\foo`))
	assert.False(t, pathing.IsPathRooted(`C`))
}

// TestValidate_Table tests the path validation policy.
func TestValidate_Table(t *testing.T) {
	t.Parallel()

	require.NoError(t, pathing.Validate(`D:\data\file.txt`))
	require.NoError(t, pathing.Validate(""))
	require.NoError(t, pathing.Validate(`D:\`+strings.Repeat("a", pathing.MaxPath-3)))

	require.ErrorIs(t, pathing.Validate("D:\\fi\x00le"), pathing.ErrInvalidPath)
	require.ErrorIs(t, pathing.Validate("D:\\\xff"), pathing.ErrInvalidPath)
	require.ErrorIs(t, pathing.Validate("D:\\data\\\xfe\xfe.txt"), pathing.ErrInvalidPath)
	require.NoError(t, pathing.Validate("D:\\日本\\ü.txt"))
	require.ErrorIs(t, pathing.Validate(`D:\`+strings.Repeat("a", pathing.MaxPath)), pathing.ErrPathTooLong)
}
