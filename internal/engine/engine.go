package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/filter"
	"github.com/bamsammich/psclone/internal/manifest"
	"github.com/bamsammich/psclone/internal/platform"
	"github.com/bamsammich/psclone/internal/stats"
	"github.com/bamsammich/psclone/internal/transport"
	"github.com/bamsammich/psclone/internal/tree"
)

const (
	// NoDepthLimit disables the depth limit.
	NoDepthLimit = -1

	// MaxDerefNesting bounds dereference recursion when depth is unlimited.
	MaxDerefNesting = 40

	// MarkerName is the file written into every directory created in place
	// of a dereferenced symlink. It holds the canonical target and a newline.
	MarkerName = ".psclone-target"

	DefaultMaxBytes    int64 = 1 << 20
	DefaultPollTimeout       = 100 * time.Millisecond

	// MaxBytesLimit bounds MaxBytes. A regular file is read whole into
	// memory before it is written.
	MaxBytesLimit int64 = 1 << 30
)

var (
	ErrScanFailed    = errors.New("scan failed")
	ErrDerefFailed   = errors.New("dereference failed")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Mode selects the pipeline a run uses.
type Mode int

const (
	ModeDirect     Mode = iota // single pass, writes the destination
	ModeDirectScan             // single pass, no destination writes
	ModeCached                 // cache, prune, unroll
	ModeCachedScan             // cache and prune only
)

var modeNames = [...]string{
	ModeDirect:     "direct",
	ModeDirectScan: "scan",
	ModeCached:     "cached",
	ModeCachedScan: "cached-scan",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

// Cached reports whether the mode builds an in-memory tree.
func (m Mode) Cached() bool { return m == ModeCached || m == ModeCachedScan }

// Writes reports whether the mode materializes the destination.
func (m Mode) Writes() bool { return m == ModeDirect || m == ModeCached }

// Config describes a clone operation. Src and Dst must be canonical
// absolute paths. The filter sets are consumed as they match.
type Config struct {
	Src  string
	Dst  string
	Mode Mode

	ExcludePaths *filter.Set
	ExcludeNames *filter.Set
	DerefPaths   *filter.Set
	PruneTargets *filter.Set

	MaxDepth     int
	MaxBytes     int64
	CrossDevice  bool
	Hidden       bool
	NonBlocking  bool
	PollTimeout  time.Duration
	DstFresh     bool
	CacheContent bool

	Stats    *stats.Collector
	Events   chan<- event.Event
	Manifest *manifest.Manifest
	Logger   *slog.Logger

	classify func(string) (Entry, error)
}

// Result is the outcome of a clone operation. Tree is set for the cached
// modes.
type Result struct {
	Stats stats.Snapshot
	Tree  *tree.Tree
	Err   error
}

// Degraded reports whether the run stopped on a fatal error, leaving a
// partial destination.
func (r Result) Degraded() bool { return r.Err != nil }

// run carries the state shared by every pass of one operation.
type run struct {
	cfg    Config
	stats  *stats.Collector
	logger *slog.Logger
	guard  string
	m      *materializer
}

// Run executes a clone operation, blocking until complete.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.classify == nil {
		cfg.classify = Classify
	}

	if err := validate(&cfg); err != nil {
		return Result{Stats: collector.Snapshot(), Err: err}
	}

	r := &run{cfg: cfg, stats: collector, logger: cfg.Logger}
	if cfg.Dst != "" && within(cfg.Src, cfg.Dst) {
		r.guard = cfg.Dst
		r.logger.Warn("destination lies inside source; it will not be traversed",
			"src", cfg.Src, "dst", cfg.Dst)
	}

	var dst transport.WriteEndpoint
	if cfg.Mode.Writes() {
		if err := os.MkdirAll(cfg.Dst, 0o755); err != nil {
			return Result{Stats: collector.Snapshot(), Err: fmt.Errorf("create destination: %w", err)}
		}
		ep := transport.NewLocalWriteEndpoint(cfg.Dst)
		defer ep.Close()
		dst = ep
	}

	r.m = &materializer{
		dst:   dst,
		fresh: cfg.DstFresh,
		read: platform.ReadParams{
			Limit:       cfg.MaxBytes,
			NonBlocking: cfg.NonBlocking,
			PollTimeout: cfg.PollTimeout,
		},
		stats:    collector,
		events:   cfg.Events,
		manifest: cfg.Manifest,
		logger:   cfg.Logger,
	}

	event.Emit(cfg.Events, event.Event{Type: event.WalkStarted, Path: cfg.Src, Detail: cfg.Mode.String()})

	var (
		t   *tree.Tree
		err error
	)
	if cfg.Mode.Cached() {
		t, err = r.cached(ctx)
	} else {
		err = r.cloneTree(ctx, cfg.Src, ".", 0, 0)
		event.Emit(cfg.Events, event.Event{Type: event.WalkComplete, Path: cfg.Src, Error: err})
	}

	return Result{Stats: collector.Snapshot(), Tree: t, Err: err}
}

func validate(cfg *Config) error {
	if cfg.Src == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	if cfg.Mode < ModeDirect || cfg.Mode > ModeCachedScan {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, cfg.Mode)
	}
	if cfg.Mode.Writes() && cfg.Dst == "" {
		return fmt.Errorf("%w: destination is required in %s mode", ErrInvalidConfig, cfg.Mode)
	}
	if !filepath.IsAbs(cfg.Src) || (cfg.Dst != "" && !filepath.IsAbs(cfg.Dst)) {
		return fmt.Errorf("%w: source and destination must be absolute", ErrInvalidConfig)
	}
	cfg.Src = filepath.Clean(cfg.Src)
	if cfg.Dst != "" {
		cfg.Dst = filepath.Clean(cfg.Dst)
	}
	if cfg.Dst == cfg.Src {
		return fmt.Errorf("%w: destination %s is the source", ErrInvalidConfig, cfg.Dst)
	}
	if cfg.PruneTargets.Len() > 0 && !cfg.Mode.Cached() {
		return fmt.Errorf("%w: prune targets require a cached mode", ErrInvalidConfig)
	}
	if cfg.MaxDepth < NoDepthLimit {
		return fmt.Errorf("%w: max depth %d", ErrInvalidConfig, cfg.MaxDepth)
	}
	if cfg.MaxBytes < 0 || cfg.MaxBytes > MaxBytesLimit {
		return fmt.Errorf("%w: max bytes %d outside [0, %d]", ErrInvalidConfig, cfg.MaxBytes, MaxBytesLimit)
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}

	root, err := cfg.classify(cfg.Src)
	if err != nil {
		return fmt.Errorf("%w: source: %w", ErrInvalidConfig, err)
	}
	if root.Type != TypeDir {
		return fmt.Errorf("%w: source %s is not a directory", ErrInvalidConfig, cfg.Src)
	}
	return nil
}

func (r *run) walker(root string, baseDepth int) *Walker {
	return NewWalker(WalkConfig{
		Root:         root,
		BaseDepth:    baseDepth,
		MaxDepth:     r.cfg.MaxDepth,
		CrossDevice:  r.cfg.CrossDevice,
		Hidden:       r.cfg.Hidden,
		ExcludePaths: r.cfg.ExcludePaths,
		ExcludeNames: r.cfg.ExcludeNames,
		DerefPaths:   r.cfg.DerefPaths,
		Guard:        r.guard,
		Stats:        r.stats,
		Logger:       r.logger,
		classify:     r.cfg.classify,
	})
}

// census counts an emitted entry by type.
func (r *run) census(e *Entry) {
	switch e.Type {
	case TypeDir:
		r.stats.Inc(stats.Dirs)
	case TypeSymlink:
		r.stats.Inc(stats.Symlinks)
		if e.Target == TypeDangling {
			r.stats.Inc(stats.Dangling)
		}
	case TypeRegular:
		r.stats.Inc(stats.Regular)
	case TypeBlock:
		r.stats.Inc(stats.BlockDevs)
	case TypeChar:
		r.stats.Inc(stats.CharDevs)
	case TypeFifo:
		r.stats.Inc(stats.Fifos)
	case TypeSocket:
		r.stats.Inc(stats.Sockets)
	default:
		r.stats.Inc(stats.Others)
	}
}

func (r *run) srcFail(path string, err error) {
	r.stats.AddSrcError(platform.Classify(err))
	r.logger.Debug("source entry failed", "path", path, "error", err)
	event.Emit(r.cfg.Events, event.Event{Type: event.NodeFailed, Path: path, Error: err})
}

type derefAction int

const (
	derefSkip  derefAction = iota // drop the entry
	derefPlain                    // keep it as an ordinary symlink
	derefDir                      // replace it with the target directory
	derefFile                     // replace it with the target file content
)

// derefDecision canonicalizes the target of a symlink flagged for
// dereference and decides how it is reproduced.
func (r *run) derefDecision(e *Entry, nesting int) (string, derefAction) {
	target, err := filepath.EvalSymlinks(e.Path)
	if err != nil {
		r.stats.Inc(stats.DerefErrors)
		r.logger.Debug("dereference failed", "path", e.Path, "error", err)
		return "", derefSkip
	}
	if !within(r.cfg.Src, target) {
		r.stats.Inc(stats.FollowOutside)
		r.logger.Debug("dereference target outside source", "path", e.Path, "target", target)
		return target, derefPlain
	}

	var action derefAction
	switch e.Target {
	case TypeDir:
		action = derefDir
	case TypeRegular:
		action = derefFile
	default:
		return target, derefPlain
	}
	if nesting >= MaxDerefNesting {
		r.stats.Inc(stats.DerefErrors)
		r.logger.Warn("dereference nesting limit reached", "path", e.Path, "limit", MaxDerefNesting)
		return target, derefPlain
	}

	r.stats.Inc(stats.Dereferenced)
	event.Emit(r.cfg.Events, event.Event{Type: event.Dereferenced, Path: e.Rel, Detail: target})
	return target, action
}
