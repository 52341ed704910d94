package transport

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/bamsammich/psclone/internal/platform"
)

var _ WriteEndpoint = (*LocalWriteEndpoint)(nil)

// LocalWriteEndpoint writes to the local filesystem.
type LocalWriteEndpoint struct {
	root string
}

// NewLocalWriteEndpoint creates a new local write endpoint rooted at root.
func NewLocalWriteEndpoint(root string) *LocalWriteEndpoint {
	return &LocalWriteEndpoint{root: root}
}

func (e *LocalWriteEndpoint) Mkdir(relPath string, perm os.FileMode) error {
	absPath := e.AbsPath(relPath)
	if err := os.Mkdir(absPath, perm); err != nil {
		return err
	}
	// Undo the process umask.
	return os.Chmod(absPath, perm)
}

func (e *LocalWriteEndpoint) Symlink(target, relPath string) error {
	return os.Symlink(target, e.AbsPath(relPath))
}

func (e *LocalWriteEndpoint) Mknod(relPath string, mode uint32, rdev uint64) error {
	absPath := e.AbsPath(relPath)
	//nolint:gosec // G115: device numbers fit in int on supported platforms
	if err := unix.Mknod(absPath, mode, int(rdev)); err != nil {
		return &os.PathError{Op: "mknod", Path: absPath, Err: err}
	}
	return os.Chmod(absPath, os.FileMode(mode).Perm())
}

func (e *LocalWriteEndpoint) WriteFile(relPath string, data []byte, perm os.FileMode) error {
	absPath := e.AbsPath(relPath)
	dir := filepath.Dir(absPath)
	base := filepath.Base(absPath)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.psclone-tmp", base, uuid.New().String()[:8]))

	RegisterTmp(tmpPath)
	defer func() {
		DeregisterTmp(tmpPath)
		_ = os.Remove(tmpPath) // no-op if rename succeeded
	}()

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	platform.Preallocate(f, int64(len(data)))
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, absPath)
}

func (e *LocalWriteEndpoint) Lstat(relPath string) (os.FileInfo, error) {
	return os.Lstat(e.AbsPath(relPath))
}

func (e *LocalWriteEndpoint) Root() string { return e.root }

func (*LocalWriteEndpoint) Close() error {
	CleanupTmpFiles()
	return nil
}

// AbsPath returns the absolute path for a relative path.
func (e *LocalWriteEndpoint) AbsPath(relPath string) string {
	return filepath.Join(e.root, relPath)
}
