package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// cloneTree walks root and reproduces each entry under prefix at the
// destination as it is visited.
func (r *run) cloneTree(ctx context.Context, root, prefix string, baseDepth, nesting int) error {
	return r.walker(root, baseDepth).Walk(ctx, func(e *Entry) error {
		return r.cloneEntry(ctx, e, filepath.Join(prefix, e.Rel), nesting)
	})
}

func (r *run) cloneEntry(ctx context.Context, e *Entry, rel string, nesting int) error {
	r.census(e)

	switch e.Type {
	case TypeDir:
		if !r.m.dir(rel, e.Mode) {
			return SkipDir
		}
	case TypeSymlink:
		return r.cloneSymlink(ctx, e, rel, nesting)
	case TypeRegular:
		r.m.copyFile(e.Path, rel, e.Mode)
	case TypeBlock, TypeChar:
		r.m.device(rel, e.Mode, e.Rdev)
	}
	return nil
}

func (r *run) cloneSymlink(ctx context.Context, e *Entry, rel string, nesting int) error {
	raw, err := os.Readlink(e.Path)
	if err != nil {
		r.srcFail(e.Path, err)
		return nil
	}
	if !e.Deref {
		r.m.symlink(raw, rel)
		return nil
	}
	if r.m.dst != nil && r.m.existing(rel, fs.ModeSymlink) {
		return nil
	}

	target, action := r.derefDecision(e, nesting)
	switch action {
	case derefSkip:
	case derefDir:
		if !r.m.dir(rel, e.TargetMode) {
			return nil
		}
		r.m.marker(rel, target)
		if err := r.cloneTree(ctx, target, rel, e.Depth, nesting+1); err != nil {
			return fmt.Errorf("%w: %s -> %s: %w", ErrDerefFailed, e.Path, target, err)
		}
	case derefFile:
		r.m.copyFile(target, rel, e.TargetMode)
	default:
		r.m.symlink(raw, rel)
	}
	return nil
}
