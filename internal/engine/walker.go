package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bamsammich/psclone/internal/filter"
	"github.com/bamsammich/psclone/internal/stats"
)

// SkipDir is returned by a visitor to suppress descent into the entry just
// visited. It never escapes Walk.
var SkipDir = errors.New("skip directory") //nolint:revive,staticcheck // mirrors fs.SkipDir

// errListing marks a directory listing that failed after the directory was
// opened.
var errListing = errors.New("listing failed")

// WalkConfig controls one depth-first walk.
type WalkConfig struct {
	Root         string
	BaseDepth    int // depth of Root itself
	MaxDepth     int // NoDepthLimit disables the limit
	CrossDevice  bool
	Hidden       bool
	ExcludePaths *filter.Set
	ExcludeNames *filter.Set
	DerefPaths   *filter.Set
	Guard        string // never emitted
	Stats        *stats.Collector
	Logger       *slog.Logger

	classify func(string) (Entry, error)
}

// Walker emits the entries of a directory tree in sorted order, parents
// before children, applying depth, device, hidden and exclusion policy.
type Walker struct {
	cfg     WalkConfig
	rootDev uint64
}

// NewWalker creates a walker with the given config.
func NewWalker(cfg WalkConfig) *Walker {
	if cfg.classify == nil {
		cfg.classify = Classify
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Walker{cfg: cfg}
}

// Walk calls visit for every admitted entry below the root. The root itself
// is not emitted. A visitor error other than SkipDir aborts the walk and is
// returned unchanged.
func (w *Walker) Walk(ctx context.Context, visit func(*Entry) error) error {
	root, err := w.cfg.classify(w.cfg.Root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScanFailed, err)
	}
	if root.Type != TypeDir {
		return fmt.Errorf("%w: %s is a %s, not a directory", ErrScanFailed, w.cfg.Root, root.Type)
	}
	w.rootDev = root.Dev

	if !w.descendable(w.cfg.BaseDepth) {
		return nil
	}
	return w.walkDir(ctx, w.cfg.Root, ".", w.cfg.BaseDepth, true, visit)
}

func (w *Walker) walkDir(ctx context.Context, dirPath, dirRel string, depth int, isRoot bool, visit func(*Entry) error) error {
	names, err := readNames(dirPath)
	if err != nil {
		if isRoot || errors.Is(err, errListing) {
			return fmt.Errorf("%w: %w", ErrScanFailed, err)
		}
		w.cfg.Stats.Inc(stats.UnreadableDirs)
		w.cfg.Logger.Debug("directory not readable", "path", dirPath, "error", err)
		return nil
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		e, descend, ok := w.admit(dirPath, dirRel, name, depth+1)
		if !ok {
			continue
		}

		err := visit(&e)
		if errors.Is(err, SkipDir) {
			continue
		}
		if err != nil {
			return err
		}

		if descend {
			if err := w.walkDir(ctx, e.Path, e.Rel, e.Depth, false, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// admit applies the walk policy to one directory entry. It reports whether
// the entry is emitted and, if so, whether it should be descended.
func (w *Walker) admit(dirPath, dirRel, name string, depth int) (Entry, bool, bool) {
	path := filepath.Join(dirPath, name)
	st := w.cfg.Stats

	if w.cfg.Guard != "" && path == w.cfg.Guard {
		return Entry{}, false, false
	}
	if !w.cfg.Hidden && strings.HasPrefix(name, ".") {
		st.Inc(stats.Hidden)
		return Entry{}, false, false
	}
	if w.cfg.ExcludePaths.Take(path) {
		st.Inc(stats.Excluded)
		return Entry{}, false, false
	}
	if w.cfg.ExcludeNames.Take(name) {
		st.Inc(stats.ExcludedNames)
		return Entry{}, false, false
	}

	e, err := w.cfg.classify(path)
	if err != nil {
		st.Inc(stats.ClassifyErrors)
		w.cfg.Logger.Debug("classify failed", "path", path, "error", err)
		return Entry{}, false, false
	}
	e.Name = name
	e.Rel = filepath.Join(dirRel, name)
	e.ParentRel = dirRel
	e.Depth = depth

	if e.Type == TypeSymlink && w.cfg.DerefPaths.Take(path) {
		e.Deref = true
	}

	descend := e.Type == TypeDir
	if descend && !w.descendable(depth) {
		st.Inc(stats.DepthLimited)
		descend = false
	}
	if descend && !w.cfg.CrossDevice && e.Dev != w.rootDev {
		st.Inc(stats.OtherFS)
		descend = false
	}
	return e, descend, true
}

func (w *Walker) descendable(depth int) bool {
	return w.cfg.MaxDepth == NoDepthLimit || depth < w.cfg.MaxDepth
}

// readNames returns the sorted names in dir. An open failure is returned
// as is; a failure after the directory was opened wraps errListing.
func readNames(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errListing, dir, err)
	}
	sort.Strings(names)
	return names, nil
}
