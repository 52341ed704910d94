package engine

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/manifest"
	"github.com/bamsammich/psclone/internal/platform"
	"github.com/bamsammich/psclone/internal/stats"
	"github.com/bamsammich/psclone/internal/transport"
)

const (
	dirPermFloor  = 0o300 // owner write and search, so the tree can be populated
	filePermFloor = 0o400
)

// materializer reproduces nodes at the destination. It is shared by the
// direct clone and the unroller. A nil dst turns every write into a no-op
// while source reads still happen.
type materializer struct {
	dst      transport.WriteEndpoint
	fresh    bool
	read     platform.ReadParams
	stats    *stats.Collector
	events   chan<- event.Event
	manifest *manifest.Manifest
	logger   *slog.Logger
}

// dir creates a directory. It reports whether the directory can be
// populated.
func (m *materializer) dir(rel string, mode uint32) bool {
	if m.dst == nil {
		return true
	}
	perm := fs.FileMode(mode).Perm() | dirPermFloor

	err := m.dst.Mkdir(rel, perm)
	if err == nil {
		event.Emit(m.events, event.Event{Type: event.DirCreated, Path: rel})
		return true
	}
	if !m.fresh && errors.Is(err, fs.ErrExist) {
		if fi, lerr := m.dst.Lstat(rel); lerr == nil && fi.IsDir() {
			m.stats.Inc(stats.Exists)
			return true
		}
	}
	m.dstFail(rel, err)
	return false
}

// existing reports whether rel already exists at the destination as the
// given kind. It is never consulted for a fresh destination.
func (m *materializer) existing(rel string, kind fs.FileMode) bool {
	if m.fresh {
		return false
	}
	fi, err := m.dst.Lstat(rel)
	if err != nil || fi.Mode().Type() != kind {
		return false
	}
	m.stats.Inc(stats.Exists)
	return true
}

func (m *materializer) symlink(target, rel string) {
	if m.dst == nil || m.existing(rel, fs.ModeSymlink) {
		return
	}
	if err := m.dst.Symlink(target, rel); err != nil {
		m.dstFail(rel, err)
		return
	}
	event.Emit(m.events, event.Event{Type: event.SymlinkCreated, Path: rel, Detail: target})
}

func (m *materializer) device(rel string, mode uint32, rdev uint64) {
	if m.dst == nil {
		return
	}
	kind := fs.ModeDevice
	if typeFromMode(mode) == TypeChar {
		kind |= fs.ModeCharDevice
	}
	if m.existing(rel, kind) {
		return
	}
	if err := m.dst.Mknod(rel, mode, rdev); err != nil {
		m.dstFail(rel, err)
		return
	}
	event.Emit(m.events, event.Event{Type: event.DeviceCreated, Path: rel})
}

// copyFile reads src with the bounded transfer and writes what was read to
// rel. Data read before an error is still written; a source that could not
// be opened produces nothing.
func (m *materializer) copyFile(src, rel string, mode uint32) {
	res, err := m.readSource(src)
	if !res.Opened {
		return
	}
	m.writeFile(rel, res.Data, mode)
	if err != nil {
		m.logger.Debug("partial read", "path", src, "bytes", len(res.Data), "error", err)
	}
}

// readSource performs the bounded read of src and accounts for its outcome.
func (m *materializer) readSource(src string) (platform.ReadResult, error) {
	p := m.read
	p.Path = src
	res, err := platform.ReadCapped(p)
	if err != nil {
		m.stats.AddSrcError(platform.Classify(err))
		m.logger.Debug("source read failed", "path", src, "error", err)
		event.Emit(m.events, event.Event{Type: event.NodeFailed, Path: src, Error: err})
	}
	if res.AtCap {
		m.stats.Inc(stats.AtCap)
	}
	if res.TimedOut {
		m.stats.Inc(stats.PollTimeouts)
	}
	if res.Opened && err == nil && res.Empty() {
		m.stats.Inc(stats.EmptyReads)
	}
	return res, err
}

func (m *materializer) writeFile(rel string, data []byte, mode uint32) {
	if m.dst == nil {
		return
	}
	perm := fs.FileMode(mode).Perm() | filePermFloor
	if err := m.dst.WriteFile(rel, data, perm); err != nil {
		m.dstFail(rel, err)
		return
	}
	m.stats.Add(stats.BytesCopied, int64(len(data)))
	m.manifest.Add(rel, data)
	event.Emit(m.events, event.Event{Type: event.FileCopied, Path: rel, Size: int64(len(data))})
}

// marker writes the file naming the canonical target of a dereferenced
// directory symlink into the directory created in its place.
func (m *materializer) marker(dirRel, target string) {
	m.stats.Inc(stats.Markers)
	m.writeFile(filepath.Join(dirRel, MarkerName), markerContent(target), 0o444)
}

func (m *materializer) dstFail(rel string, err error) {
	m.stats.AddDstError(platform.Classify(err))
	m.logger.Debug("destination write failed", "path", rel, "error", err)
	event.Emit(m.events, event.Event{Type: event.NodeFailed, Path: rel, Error: err})
}

func markerContent(target string) []byte {
	return []byte(target + "\n")
}

// within reports whether p is root or lies below it. Both must be clean
// absolute paths.
func within(root, p string) bool {
	if root == string(os.PathSeparator) {
		return true
	}
	return p == root || len(p) > len(root) && p[len(root)] == os.PathSeparator && p[:len(root)] == root
}
