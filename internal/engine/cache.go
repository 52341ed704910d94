package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/stats"
	"github.com/bamsammich/psclone/internal/tree"
)

// cached runs the three-pass pipeline: build the tree, propagate retention
// marks when prune targets were given, then unroll unless scanning.
func (r *run) cached(ctx context.Context) (*tree.Tree, error) {
	root, err := r.cfg.classify(r.cfg.Src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}
	t := tree.New(filepath.Base(r.cfg.Src), tree.ShortStat{Dev: root.Dev, Mode: root.Mode}, filepath.Dir(r.cfg.Src))

	pruning := r.cfg.PruneTargets.Len() > 0
	b := &cacheBuilder{run: r, tree: t, matched: make(map[string]bool)}
	b.mark(t.Node(t.Root()), r.cfg.Src)

	err = b.build(ctx, r.cfg.Src, t.Root(), 0, 0)
	event.Emit(r.cfg.Events, event.Event{Type: event.WalkComplete, Path: r.cfg.Src, Size: int64(t.Len()), Error: err})
	if err != nil {
		return t, err
	}

	if pruning {
		for _, target := range r.cfg.PruneTargets.Items() {
			if !b.matched[target] {
				r.logger.Warn("prune target not found in source", "path", target)
			}
		}
		p := &pruner{tree: t, src: r.cfg.Src, stats: r.stats, logger: r.logger, resolve: filepath.EvalSymlinks}
		p.run()
		event.Emit(r.cfg.Events, event.Event{Type: event.PruneComplete, Size: int64(t.Len())})
	}

	if r.cfg.Mode == ModeCachedScan {
		return t, nil
	}

	u := &unroller{tree: t, m: r.m, stats: r.stats, pruning: pruning}
	err = u.run(ctx)
	event.Emit(r.cfg.Events, event.Event{Type: event.UnrollComplete, Size: int64(t.Len()), Error: err})
	return t, err
}

// cacheBuilder is pass one: it records the walk as a tree instead of
// writing it out.
type cacheBuilder struct {
	*run
	tree    *tree.Tree
	matched map[string]bool // retention targets seen so far
}

// cursor tracks the parent directory of the entries of one walk as depth
// rises and falls.
type cursor struct {
	root    tree.ID // node the walk is rooted at
	parent  tree.ID
	depth   int // depth of parent
	lastDir tree.ID
}

func (b *cacheBuilder) build(ctx context.Context, walkRoot string, at tree.ID, baseDepth, nesting int) error {
	c := &cursor{root: at, parent: at, depth: baseDepth, lastDir: tree.NoID}
	return b.walker(walkRoot, baseDepth).Walk(ctx, func(e *Entry) error {
		return b.visit(ctx, c, e, nesting)
	})
}

// parentOf moves the cursor to the directory containing e.
func (b *cacheBuilder) parentOf(c *cursor, e *Entry) (tree.ID, bool) {
	want := e.Depth - 1
	switch {
	case want == c.depth:
	case want == c.depth+1 && c.lastDir != tree.NoID && b.tree.Node(c.lastDir).Name == filepath.Base(e.ParentRel):
		c.parent = c.lastDir
	case want == c.depth-1:
		c.parent = b.tree.Node(c.parent).Parent
	default:
		id, ok := b.tree.LookupDir(c.root, e.ParentRel)
		if !ok {
			return tree.NoID, false
		}
		c.parent = id
	}
	c.depth = want
	return c.parent, true
}

func (b *cacheBuilder) visit(ctx context.Context, c *cursor, e *Entry, nesting int) error {
	parent, ok := b.parentOf(c, e)
	if !ok {
		b.stats.Inc(stats.StructuralErrors)
		b.logger.Debug("parent not found in tree", "path", e.Path, "parent", e.ParentRel)
		return SkipDir
	}
	b.census(e)

	st := tree.ShortStat{Dev: e.Dev, Mode: e.Mode}
	var n *tree.Node
	switch e.Type {
	case TypeDir:
		n = tree.NewDir(e.Name, st, filepath.Dir(e.Path))
	case TypeSymlink:
		return b.symlink(ctx, parent, e, nesting)
	case TypeRegular:
		if n = b.regular(e.Name, st, e.Path); n == nil {
			return nil
		}
	case TypeBlock, TypeChar:
		n = tree.NewDevice(e.Name, st, e.Type == TypeBlock, e.Rdev)
	case TypeFifo, TypeSocket:
		n = tree.NewFifoSocket(e.Name, st)
	default:
		n = tree.NewOther(e.Name, st)
	}

	id := b.add(parent, n, e.Path)
	if e.Type == TypeDir {
		c.lastDir = id
	}
	return nil
}

// add attaches n under parent, marking it when its source path is a
// retention target.
func (b *cacheBuilder) add(parent tree.ID, n *tree.Node, srcPath string) tree.ID {
	b.mark(n, srcPath)
	return b.tree.Add(parent, n)
}

// mark flags n Exact when srcPath is a retention target. Targets are not
// consumed: a dereferenced copy can reach a target before its real path.
func (b *cacheBuilder) mark(n *tree.Node, srcPath string) {
	if b.cfg.PruneTargets.Contains(srcPath) {
		n.Mark |= tree.MarkExact
		b.matched[srcPath] = true
	}
}

// regular returns a regular file node, reading the content now when content
// caching is on. It returns nil when the source could not be opened.
func (b *cacheBuilder) regular(name string, st tree.ShortStat, src string) *tree.Node {
	if !b.cfg.CacheContent {
		return tree.NewRegular(name, st, tree.Regular{SrcPath: src})
	}
	res, _ := b.m.readSource(src)
	if !res.Opened {
		return nil
	}
	return tree.NewRegular(name, st, tree.Regular{
		Content: res.Data,
		SrcPath: src,
		Cached:  true,
		Empty:   res.Empty(),
	})
}

func (b *cacheBuilder) symlink(ctx context.Context, parent tree.ID, e *Entry, nesting int) error {
	raw, err := os.Readlink(e.Path)
	if err != nil {
		b.srcFail(e.Path, err)
		return nil
	}
	st := tree.ShortStat{Dev: e.Dev, Mode: e.Mode}
	if !e.Deref {
		b.add(parent, tree.NewSymlink(e.Name, st, raw, e.Path), e.Path)
		return nil
	}

	target, action := b.derefDecision(e, nesting)
	tst := tree.ShortStat{Dev: e.Dev, Mode: e.TargetMode}
	switch action {
	case derefSkip:
	case derefDir:
		id := b.add(parent, tree.NewDir(e.Name, tst, filepath.Dir(e.Path)), e.Path)
		b.stats.Inc(stats.Markers)
		b.tree.Add(id, tree.NewRegular(MarkerName, tree.ShortStat{Mode: unix.S_IFREG | 0o444}, tree.Regular{
			Content:   markerContent(target),
			Cached:    true,
			UseCached: true,
		}))
		if err := b.build(ctx, target, id, e.Depth, nesting+1); err != nil {
			return fmt.Errorf("%w: %s -> %s: %w", ErrDerefFailed, e.Path, target, err)
		}
	case derefFile:
		if n := b.regular(e.Name, tst, target); n != nil {
			b.add(parent, n, e.Path)
		}
	default:
		b.add(parent, tree.NewSymlink(e.Name, st, raw, e.Path), e.Path)
	}
	return nil
}
