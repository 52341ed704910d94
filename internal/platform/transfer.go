package platform

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// ChunkSize is the size of each read issued against a source file. Pseudo
// filesystem attributes are generated one page at a time, so a read shorter
// than this is treated as end of data.
const ChunkSize = 4096

// ReadParams describes a bounded read of a source regular file.
type ReadParams struct {
	Path        string
	Limit       int64
	NonBlocking bool
	PollTimeout time.Duration
}

// ReadResult reports what a bounded read produced.
type ReadResult struct {
	Data     []byte
	Opened   bool // the source was opened; false means nothing should be materialized
	AtCap    bool // Limit bytes were read; the file is at the cap or longer
	TimedOut bool // a non-blocking read waited PollTimeout without data
}

// Empty reports whether the read produced no bytes.
func (r ReadResult) Empty() bool { return len(r.Data) == 0 }

// ReadCapped reads at most p.Limit bytes from p.Path. The size reported by
// stat is never consulted. On a read error the bytes read so far are returned
// together with the error.
func ReadCapped(p ReadParams) (ReadResult, error) {
	flags := unix.O_RDONLY | unix.O_CLOEXEC | unix.O_NOCTTY
	if p.NonBlocking {
		flags |= unix.O_NONBLOCK
	}

	fd, err := openRetry(p.Path, flags)
	if err != nil {
		return ReadResult{}, &os.PathError{Op: "open", Path: p.Path, Err: err}
	}
	defer unix.Close(fd) //nolint:errcheck // read-only descriptor

	res := ReadResult{Opened: true}
	if p.Limit <= 0 {
		return res, nil
	}

	buf := make([]byte, 0, min(p.Limit, ChunkSize))
	for int64(len(buf)) < p.Limit {
		want := int(min(p.Limit-int64(len(buf)), ChunkSize))
		if cap(buf)-len(buf) < want {
			grown := make([]byte, len(buf), 2*cap(buf)+want)
			copy(grown, buf)
			buf = grown
		}

		n, err := unix.Read(fd, buf[len(buf):len(buf)+want])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN && p.NonBlocking {
			ready, perr := waitReadable(fd, p.PollTimeout)
			if perr != nil {
				res.Data = buf
				return res, &os.PathError{Op: "poll", Path: p.Path, Err: perr}
			}
			if !ready {
				res.TimedOut = true
				break
			}
			continue
		}
		if err != nil {
			res.Data = buf
			return res, &os.PathError{Op: "read", Path: p.Path, Err: err}
		}

		buf = buf[:len(buf)+n]
		if n < want {
			break
		}
	}

	res.Data = buf
	res.AtCap = int64(len(buf)) >= p.Limit
	return res, nil
}

// waitReadable blocks for at most timeout until fd is readable.
func waitReadable(fd int, timeout time.Duration) (bool, error) {
	ms := int(timeout / time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}} //nolint:gosec // G115: fd fits in int32
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}

func openRetry(path string, flags int) (int, error) {
	for {
		fd, err := unix.Open(path, flags, 0)
		if err == unix.EINTR {
			continue
		}
		return fd, err
	}
}
