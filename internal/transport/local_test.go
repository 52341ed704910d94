package transport_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/bamsammich/psclone/internal/transport"
)

func TestLocalWriteEndpoint_Mkdir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ep := transport.NewLocalWriteEndpoint(root)

	require.NoError(t, ep.Mkdir("sub", 0o750))
	info, err := os.Stat(filepath.Join(root, "sub"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())

	err = ep.Mkdir("sub", 0o750)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))
}

func TestLocalWriteEndpoint_Symlink(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ep := transport.NewLocalWriteEndpoint(root)

	require.NoError(t, ep.Symlink("../does/not/exist", "dangling"))
	target, err := os.Readlink(filepath.Join(root, "dangling"))
	require.NoError(t, err)
	assert.Equal(t, "../does/not/exist", target)

	info, err := ep.Lstat("dangling")
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
}

func TestLocalWriteEndpoint_WriteFileReplaces(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ep := transport.NewLocalWriteEndpoint(root)

	require.NoError(t, ep.WriteFile("attr", []byte("first"), 0o444))
	require.NoError(t, ep.WriteFile("attr", []byte("second"), 0o444))

	got, err := os.ReadFile(filepath.Join(root, "attr"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	info, err := os.Stat(filepath.Join(root, "attr"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())

	// No temp files left behind.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalWriteEndpoint_MknodFifo(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ep := transport.NewLocalWriteEndpoint(root)

	require.NoError(t, ep.Mknod("pipe", unix.S_IFIFO|0o600, 0))
	info, err := ep.Lstat("pipe")
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeNamedPipe)
}

func TestLocalWriteEndpoint_WriteFileMissingParent(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ep := transport.NewLocalWriteEndpoint(root)

	err := ep.WriteFile(filepath.Join("nope", "attr"), []byte("x"), 0o644)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCleanupTmpFiles(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, ".leftover.psclone-tmp")
	require.NoError(t, os.WriteFile(tmp, nil, 0o600))

	transport.RegisterTmp(tmp)
	transport.CleanupTmpFiles()

	_, err := os.Stat(tmp)
	assert.True(t, os.IsNotExist(err))
}
