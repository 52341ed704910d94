package platform

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/bamsammich/psclone/internal/stats"
)

// Classify maps an error onto the transfer error taxonomy.
func Classify(err error) stats.ErrClass {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return stats.ErrOther
	}
	switch errno {
	case unix.EACCES:
		return stats.ErrAccess
	case unix.EPERM:
		return stats.ErrPerm
	case unix.EIO:
		return stats.ErrIO
	case unix.ENODATA:
		return stats.ErrNoData
	case unix.ENOENT, unix.ENXIO, unix.ENODEV:
		return stats.ErrNotFound
	default:
		return stats.ErrOther
	}
}
