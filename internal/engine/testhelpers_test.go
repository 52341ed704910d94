package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDirs returns canonical source and destination paths in a fresh
// temporary directory. The destination does not exist yet.
func testDirs(t *testing.T) (string, string) {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	src := filepath.Join(base, "src")
	require.NoError(t, os.Mkdir(src, 0o755))
	return src, filepath.Join(base, "dst")
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// createTestTree populates root with:
//
//	dir1/file_a      (10 bytes)
//	dir1/link_b      -> ../file_c
//	file_c           (500 bytes)
func createTestTree(t *testing.T, root string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "dir1", "file_a"), []byte("0123456789"))
	writeFile(t, filepath.Join(root, "file_c"), bytes.Repeat([]byte("c"), 500))
	require.NoError(t, os.Symlink("../file_c", filepath.Join(root, "dir1", "link_b")))
}

func baseConfig(src, dst string, mode Mode) Config {
	return Config{
		Src:      src,
		Dst:      dst,
		Mode:     mode,
		MaxDepth: NoDepthLimit,
	}
}

func runOK(t *testing.T, cfg Config) Result {
	t.Helper()
	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	return res
}

func readDst(t *testing.T, dst, rel string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dst, rel))
	require.NoError(t, err)
	return data
}

var writeModes = []Mode{ModeDirect, ModeCached}
