package engine

import (
	"context"
	"path/filepath"

	"github.com/bamsammich/psclone/internal/event"
	"github.com/bamsammich/psclone/internal/stats"
	"github.com/bamsammich/psclone/internal/tree"
)

// unroller is pass three: it writes the tree out depth first.
type unroller struct {
	tree    *tree.Tree
	m       *materializer
	stats   *stats.Collector
	pruning bool
}

func (u *unroller) run(ctx context.Context) error {
	return u.children(ctx, u.tree.Root(), ".")
}

func (u *unroller) children(ctx context.Context, id tree.ID, rel string) error {
	for _, c := range u.tree.Children(id) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := u.tree.Node(c)
		if !u.keep(n) {
			u.stats.Add(stats.Pruned, u.size(c))
			event.Emit(u.m.events, event.Event{Type: event.NodeSkipped, Path: u.tree.Path(c), Detail: "pruned"})
			continue
		}
		n.Mark &^= tree.MarkUpChain

		crel := filepath.Join(rel, n.Name)
		switch n.Kind {
		case tree.KindDir:
			if u.m.dir(crel, n.Stat.Mode) {
				if err := u.children(ctx, c, crel); err != nil {
					return err
				}
			}
		case tree.KindSymlink:
			u.m.symlink(n.Symlink.Target, crel)
		case tree.KindDevice:
			u.m.device(crel, n.Stat.Mode, n.Device.Rdev)
		case tree.KindRegular:
			u.regular(n.Regular, crel, n.Stat.Mode)
		}
	}
	return nil
}

// keep reports whether n is written. Markers follow the directory that
// holds them.
func (u *unroller) keep(n *tree.Node) bool {
	return !u.pruning || n.Retained() || (n.Kind == tree.KindRegular && n.Regular.UseCached)
}

func (u *unroller) regular(r *tree.Regular, rel string, mode uint32) {
	if r.Cached || r.UseCached {
		u.m.writeFile(rel, r.Content, mode)
		return
	}
	u.m.copyFile(r.SrcPath, rel, mode)
}

// size counts the nodes of the subtree rooted at id.
func (u *unroller) size(id tree.ID) int64 {
	n := int64(1)
	for _, c := range u.tree.Children(id) {
		n += u.size(c)
	}
	return n
}
