package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSortsAndDedups(t *testing.T) {
	s := NewSet("/b", "/a", "/c", "/a")
	assert.Equal(t, []string{"/a", "/b", "/c"}, s.Items())
	assert.Equal(t, 3, s.Len())
}

func TestSetTakeIsOneShot(t *testing.T) {
	s := NewSet("/sys/a", "/sys/b")

	assert.True(t, s.Take("/sys/a"))
	assert.False(t, s.Take("/sys/a"), "second match of the same element must miss")
	assert.False(t, s.Contains("/sys/a"))
	assert.True(t, s.Contains("/sys/b"))
	assert.Equal(t, 1, s.Len())
}

func TestSetTakeMiss(t *testing.T) {
	s := NewSet("/x")
	assert.False(t, s.Take("/y"))
	assert.Equal(t, 1, s.Len())
}

func TestSetNil(t *testing.T) {
	var s *Set
	assert.False(t, s.Take("/x"))
	assert.False(t, s.Contains("/x"))
	assert.Zero(t, s.Len())
	assert.Nil(t, s.Items())
}

func TestCanonicalKeepsFinalSymlink(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "real"), 0o755))
	require.NoError(t, os.Symlink("real", filepath.Join(dir, "alias")))
	require.NoError(t, os.Symlink("elsewhere", filepath.Join(dir, "real", "link")))

	got, err := Canonical(filepath.Join(dir, "alias", "link"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "real", "link"), got)
}

func TestExpandGlobs(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"cpu0", "cpu1", "power"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0o755))
	}

	got, err := ExpandGlobs([]string{
		filepath.Join(dir, "cpu*"),
		filepath.Join(dir, "cpu0"),
		filepath.Join(dir, "missing*"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "cpu0"), filepath.Join(dir, "cpu1")}, got)
}

func TestExpandGlobsBadPattern(t *testing.T) {
	_, err := ExpandGlobs([]string{"[unterminated"})
	assert.Error(t, err)
}
