package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/psclone/internal/config"
	"github.com/bamsammich/psclone/internal/engine"
	"github.com/bamsammich/psclone/internal/filter"
	"github.com/bamsammich/psclone/internal/ui"
)

var _ pflag.Value = listFlag{}

// listFlag is a repeatable string flag.
type listFlag struct {
	vals *[]string
}

func (f listFlag) String() string {
	if f.vals == nil {
		return ""
	}
	return strings.Join(*f.vals, ",")
}

func (listFlag) Type() string { return "path" }

func (f listFlag) Set(val string) error {
	if val == "" {
		return errors.New("empty value")
	}
	*f.vals = append(*f.vals, val)
	return nil
}

// options holds everything the command line can set.
type options struct {
	maxDepth     int
	maxBytes     string
	excludes     []string
	excludeNames []string
	excludeFrom  string
	derefs       []string
	prunes       []string
	crossDevice  bool
	hidden       bool
	nonblock     bool
	pollTimeout  time.Duration
	cache        bool
	cacheContent bool
	scanOnly     bool
	fresh        bool
	manifest     string
	verbose      bool
	quiet        bool
	logFile      string
	showVersion  bool
}

func (o *options) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&o.showVersion, "version", false, "print version and exit")

	f.IntVarP(&o.maxDepth, "max-depth", "d", engine.NoDepthLimit,
		"descend at most N levels below the source (0 = source only, -1 = unlimited)")
	f.StringVar(&o.maxBytes, "max-bytes", "1M", "read at most SIZE bytes from each file (e.g. 4K, 1M)")
	f.Var(listFlag{&o.excludes}, "exclude", "skip the first path matching GLOB; each * spans one path component (repeatable)")
	f.Var(listFlag{&o.excludeNames}, "exclude-name", "skip the first entry named NAME (repeatable)")
	f.StringVar(&o.excludeFrom, "exclude-from", "", "read exclude globs from FILE")
	f.Var(listFlag{&o.derefs}, "deref", "replace the symlink at PATH with what it points to (repeatable)")
	f.Var(listFlag{&o.prunes}, "prune", "keep only PATH, its ancestors and what it references (repeatable, implies --cache)")
	f.BoolVarP(&o.crossDevice, "cross-device", "x", false, "descend into directories on other filesystems")
	f.BoolVar(&o.hidden, "hidden", false, "include entries whose names start with a dot")
	f.BoolVar(&o.nonblock, "nonblock", false, "open files non-blocking and give up on reads after --poll-timeout")
	f.DurationVar(&o.pollTimeout, "poll-timeout", engine.DefaultPollTimeout, "how long a non-blocking read waits for data")
	f.BoolVar(&o.cache, "cache", false, "build the whole tree in memory before writing")
	f.BoolVar(&o.cacheContent, "cache-content", false, "with --cache, read file contents while building the tree")
	f.BoolVarP(&o.scanOnly, "scan-only", "n", false, "classify and read, but write nothing")
	f.BoolVar(&o.fresh, "fresh", false, "assume the destination is empty and skip existence checks")
	f.StringVar(&o.manifest, "manifest", "", "write a BLAKE3 manifest of copied files to FILE")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "suppress all output except errors")
	f.StringVar(&o.logFile, "log", "", "write structured JSON log to FILE")
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI.
func (o *options) applyConfigDefaults(cmd *cobra.Command, d config.DefaultsConfig) error {
	changed := cmd.Flags().Changed
	if !changed("max-depth") && d.MaxDepth != nil {
		o.maxDepth = *d.MaxDepth
	}
	if !changed("max-bytes") && d.MaxBytes != nil {
		o.maxBytes = *d.MaxBytes
	}
	if !changed("poll-timeout") && d.PollTimeout != nil {
		v, err := d.PollTimeoutDuration()
		if err != nil {
			return err
		}
		o.pollTimeout = v
	}
	if !changed("cross-device") && d.CrossDevice != nil {
		o.crossDevice = *d.CrossDevice
	}
	if !changed("hidden") && d.Hidden != nil {
		o.hidden = *d.Hidden
	}
	if !changed("nonblock") && d.NonBlock != nil {
		o.nonblock = *d.NonBlock
	}
	if !changed("cache") && d.Cache != nil {
		o.cache = *d.Cache
	}
	if !changed("cache-content") && d.CacheContent != nil {
		o.cacheContent = *d.CacheContent
	}
	return nil
}

func (o *options) mode() engine.Mode {
	cached := o.cache || o.cacheContent || len(o.prunes) > 0
	switch {
	case cached && o.scanOnly:
		return engine.ModeCachedScan
	case cached:
		return engine.ModeCached
	case o.scanOnly:
		return engine.ModeDirectScan
	default:
		return engine.ModeDirect
	}
}

// engineConfig resolves paths and patterns into an engine.Config. Every
// path is canonicalized so it compares equal to what the walker produces.
func (o *options) engineConfig(cfg config.Config, args []string) (engine.Config, error) {
	if o.verbose && o.quiet {
		return engine.Config{}, errors.New("--verbose and --quiet are mutually exclusive")
	}
	if len(args) < 2 && !o.scanOnly {
		return engine.Config{}, errors.New("a destination is required unless --scan-only is given")
	}

	src, err := filepath.Abs(args[0])
	if err == nil {
		src, err = filepath.EvalSymlinks(src)
	}
	if err != nil {
		return engine.Config{}, fmt.Errorf("source: %w", err)
	}

	var dst string
	if len(args) > 1 {
		if dst, err = canonicalDst(args[1]); err != nil {
			return engine.Config{}, fmt.Errorf("destination: %w", err)
		}
	}

	maxBytes, err := filter.ParseSize(o.maxBytes)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid --max-bytes: %w", err)
	}

	patterns := append(append([]string(nil), o.excludes...), cfg.Exclude.Paths...)
	if o.excludeFrom != "" {
		more, err := filter.LoadPatterns(o.excludeFrom)
		if err != nil {
			return engine.Config{}, fmt.Errorf("load exclude file: %w", err)
		}
		patterns = append(patterns, more...)
	}
	excludes, err := filter.ExpandGlobs(patterns)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid --exclude: %w", err)
	}

	derefs, err := canonicalAll(o.derefs)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid --deref: %w", err)
	}
	prunes, err := canonicalAll(o.prunes)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid --prune: %w", err)
	}

	names := append(append([]string(nil), o.excludeNames...), cfg.Exclude.Names...)

	ec := engine.Config{
		Src:          src,
		Dst:          dst,
		Mode:         o.mode(),
		ExcludePaths: filter.NewSet(excludes...),
		ExcludeNames: filter.NewSet(names...),
		DerefPaths:   filter.NewSet(derefs...),
		MaxDepth:     o.maxDepth,
		MaxBytes:     maxBytes,
		CrossDevice:  o.crossDevice,
		Hidden:       o.hidden,
		NonBlocking:  o.nonblock,
		PollTimeout:  o.pollTimeout,
		DstFresh:     o.fresh,
		CacheContent: o.cacheContent,
	}
	if len(prunes) > 0 {
		ec.PruneTargets = filter.NewSet(prunes...)
	}
	return ec, nil
}

func canonicalAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		c, err := filter.Canonical(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// canonicalDst resolves as much of the destination as already exists.
func canonicalDst(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	if c, err := filter.Canonical(abs); err == nil {
		return c, nil
	}
	return abs, nil
}

// newLogger builds the process logger: text on stderr, plus JSON at debug
// level when a log file is given. The returned close func releases the file.
func newLogger(o *options) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	} else if !o.quiet {
		level = slog.LevelInfo
	}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if o.logFile == "" {
		return slog.New(handler), func() {}, nil
	}

	lf, err := os.Create(o.logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(ui.NewMultiHandler(handler, jsonHandler)), func() { _ = lf.Close() }, nil
}
