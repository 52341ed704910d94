package engine

import (
	"log/slog"
	"path/filepath"

	"github.com/bamsammich/psclone/internal/stats"
	"github.com/bamsammich/psclone/internal/tree"
)

// pruner is pass two. Starting from nodes marked Exact it marks every
// ancestor UpChain and every descendant AllBelow, following symlinks met
// on the way down to the tree location they denote.
type pruner struct {
	tree    *tree.Tree
	src     string
	stats   *stats.Collector
	logger  *slog.Logger
	resolve func(string) (string, error)
}

func (p *pruner) run() {
	p.search(p.tree.Root())
}

func (p *pruner) search(id tree.ID) {
	n := p.tree.Node(id)
	if n.Mark&tree.MarkAllBelow != 0 {
		return
	}
	if n.Mark&tree.MarkExact != 0 {
		p.upChain(id)
		p.allBelow(id, 0)
		return
	}
	for _, c := range p.tree.Children(id) {
		p.search(c)
	}
}

// upChain marks the ancestors of id. A marked ancestor already has a
// marked chain above it.
func (p *pruner) upChain(id tree.ID) {
	p.tree.Ancestors(id, func(a tree.ID) bool {
		n := p.tree.Node(a)
		if n.Mark&(tree.MarkUpChain|tree.MarkAllBelow) != 0 {
			return false
		}
		n.Mark |= tree.MarkUpChain
		return true
	})
}

// allBelow marks id and its subtree. Subtrees already marked are skipped,
// which bounds symlink cycles.
func (p *pruner) allBelow(id tree.ID, nesting int) {
	n := p.tree.Node(id)
	if n.Mark&tree.MarkAllBelow != 0 {
		return
	}
	n.Mark |= tree.MarkAllBelow

	if n.Kind == tree.KindSymlink {
		p.follow(id, nesting)
	}
	for _, c := range p.tree.Children(id) {
		p.allBelow(c, nesting)
	}
}

// follow retains the tree location a symlink node points at.
func (p *pruner) follow(id tree.ID, nesting int) {
	n := p.tree.Node(id)
	if nesting >= MaxDerefNesting {
		p.fail(n, "symlink nesting limit reached", nil)
		return
	}
	target, err := p.resolve(n.Symlink.SrcPath)
	if err != nil {
		p.fail(n, "symlink target unresolvable", err)
		return
	}
	if !within(p.src, target) {
		p.fail(n, "symlink target outside source", nil)
		return
	}
	rel, err := filepath.Rel(p.src, target)
	if err != nil {
		p.fail(n, "symlink target unresolvable", err)
		return
	}
	tid, ok := p.tree.Lookup(rel)
	if !ok {
		p.fail(n, "symlink target not in tree", nil)
		return
	}

	p.upChain(tid)
	p.allBelow(tid, nesting+1)
}

func (p *pruner) fail(n *tree.Node, msg string, err error) {
	p.stats.Inc(stats.PruneErrors)
	p.logger.Debug(msg, "path", n.Symlink.SrcPath, "target", n.Symlink.Target, "error", err)
}
