package engine

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// FileType is the classification of a filesystem entry.
type FileType uint8

const (
	TypeOther FileType = iota
	TypeDir
	TypeSymlink
	TypeRegular
	TypeBlock
	TypeChar
	TypeFifo
	TypeSocket
	TypeDangling // link target could not be stat'ed
)

var typeNames = [...]string{
	TypeOther:    "other",
	TypeDir:      "dir",
	TypeSymlink:  "symlink",
	TypeRegular:  "regular",
	TypeBlock:    "block",
	TypeChar:     "char",
	TypeFifo:     "fifo",
	TypeSocket:   "socket",
	TypeDangling: "dangling",
}

func (t FileType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// typeFromMode maps the S_IFMT bits of a raw mode to a FileType.
func typeFromMode(mode uint32) FileType {
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		return TypeDir
	case unix.S_IFLNK:
		return TypeSymlink
	case unix.S_IFREG:
		return TypeRegular
	case unix.S_IFBLK:
		return TypeBlock
	case unix.S_IFCHR:
		return TypeChar
	case unix.S_IFIFO:
		return TypeFifo
	case unix.S_IFSOCK:
		return TypeSocket
	default:
		return TypeOther
	}
}

// Entry is one classified filesystem entry as emitted by the Walker.
type Entry struct {
	Path       string // absolute source path
	Rel        string // relative to the walk root
	ParentRel  string // Rel of the containing directory, "." at the top
	Name       string
	Depth      int
	Type       FileType // what lstat reports
	Target     FileType // what stat reports; TypeDangling when that fails
	Dev        uint64
	Mode       uint32 // raw mode including S_IFMT
	TargetMode uint32 // raw mode of the link target
	Rdev       uint64
	Deref      bool // symlink named in the dereference set
}

// Classify inspects path with both a link-aware and a link-following status
// query. Only a failure of the link-aware query is an error.
func Classify(path string) (Entry, error) {
	var st unix.Stat_t
	if err := ignoringEINTR(func() error { return unix.Lstat(path, &st) }); err != nil {
		return Entry{}, &os.PathError{Op: "lstat", Path: path, Err: err}
	}

	e := Entry{Path: path, Name: filepath.Base(path)}
	e.Dev, e.Mode, e.Rdev = statFields(&st)
	e.Type = typeFromMode(e.Mode)
	e.Target = e.Type
	e.TargetMode = e.Mode

	if e.Type == TypeSymlink {
		var tst unix.Stat_t
		if err := ignoringEINTR(func() error { return unix.Stat(path, &tst) }); err != nil {
			e.Target = TypeDangling
			e.TargetMode = 0
		} else {
			_, e.TargetMode, _ = statFields(&tst)
			e.Target = typeFromMode(e.TargetMode)
		}
	}
	return e, nil
}

func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}
