package transport

import "os"

// WriteEndpoint is the destination side of a clone. Every path is relative
// to Root.
type WriteEndpoint interface {
	// Mkdir creates a single directory. An existing entry yields an error
	// satisfying errors.Is(err, os.ErrExist).
	Mkdir(relPath string, perm os.FileMode) error

	// Symlink creates a symbolic link at relPath pointing to target. The
	// target is stored verbatim and never resolved.
	Symlink(target, relPath string) error

	// Mknod creates a block or character device node.
	Mknod(relPath string, mode uint32, rdev uint64) error

	// WriteFile atomically replaces relPath with data.
	WriteFile(relPath string, data []byte, perm os.FileMode) error

	// Lstat returns metadata for relPath without following a final symlink.
	Lstat(relPath string) (os.FileInfo, error)

	// Root returns the absolute root path of this endpoint.
	Root() string

	// Close releases resources held by this endpoint.
	Close() error
}
