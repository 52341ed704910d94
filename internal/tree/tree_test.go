package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSample creates:
//
//	root/
//	  a/
//	    b/
//	      c   (regular)
//	  x/
//	    y     (symlink -> ../a)
func buildSample(t *testing.T) (*Tree, map[string]ID) {
	t.Helper()
	tr := New("root", ShortStat{}, "/src")
	ids := map[string]ID{}
	ids["a"] = tr.Add(tr.Root(), NewDir("a", ShortStat{}, "/src/root"))
	ids["a/b"] = tr.Add(ids["a"], NewDir("b", ShortStat{}, "/src/root/a"))
	ids["a/b/c"] = tr.Add(ids["a/b"], NewRegular("c", ShortStat{}, Regular{SrcPath: "/src/root/a/b/c"}))
	ids["x"] = tr.Add(tr.Root(), NewDir("x", ShortStat{}, "/src/root"))
	ids["x/y"] = tr.Add(ids["x"], NewSymlink("y", ShortStat{}, "../a", "/r/x/y"))
	return tr, ids
}

func TestTreeAddAssignsIndicesAndDepth(t *testing.T) {
	tr, ids := buildSample(t)

	assert.Equal(t, 6, tr.Len())
	assert.Equal(t, -1, tr.Node(tr.Root()).Dir.Depth)
	assert.True(t, tr.Node(tr.Root()).IsRoot)
	assert.Equal(t, 0, tr.Node(ids["a"]).Dir.Depth)
	assert.Equal(t, 1, tr.Node(ids["a/b"]).Dir.Depth)

	assert.Equal(t, 0, tr.Node(ids["a"]).Index)
	assert.Equal(t, 1, tr.Node(ids["x"]).Index)
	assert.Equal(t, tr.Root(), tr.Node(ids["x"]).Parent)
	assert.Equal(t, []ID{ids["a"], ids["x"]}, tr.Children(tr.Root()))
	assert.Nil(t, tr.Children(ids["a/b/c"]))
}

func TestTreeHandlesSurviveGrowth(t *testing.T) {
	tr, ids := buildSample(t)
	a := tr.Node(ids["a"])

	for range 1000 {
		tr.Add(ids["x"], NewOther("n", ShortStat{}))
	}

	assert.Same(t, a, tr.Node(ids["a"]))
	assert.Equal(t, "a", tr.Node(ids["a"]).Name)
}

func TestTreeLookup(t *testing.T) {
	tr, ids := buildSample(t)

	id, ok := tr.Lookup("a/b/c")
	require.True(t, ok)
	assert.Equal(t, ids["a/b/c"], id)

	id, ok = tr.Lookup("x/y")
	require.True(t, ok)
	assert.Equal(t, ids["x/y"], id)

	id, ok = tr.Lookup(".")
	require.True(t, ok)
	assert.Equal(t, tr.Root(), id)

	_, ok = tr.Lookup("a/missing")
	assert.False(t, ok)

	_, ok = tr.Lookup("a/b/c/deeper")
	assert.False(t, ok)
}

func TestTreeLookupDirIgnoresNonDirs(t *testing.T) {
	tr, ids := buildSample(t)

	id, ok := tr.LookupDir(tr.Root(), "a/b")
	require.True(t, ok)
	assert.Equal(t, ids["a/b"], id)

	_, ok = tr.LookupDir(tr.Root(), "a/b/c")
	assert.False(t, ok, "regular files are not in the directory name map")

	id, ok = tr.LookupDir(ids["a"], "b")
	require.True(t, ok)
	assert.Equal(t, ids["a/b"], id)
}

func TestTreePath(t *testing.T) {
	tr, ids := buildSample(t)
	assert.Equal(t, "a/b/c", tr.Path(ids["a/b/c"]))
	assert.Equal(t, "x", tr.Path(ids["x"]))
	assert.Equal(t, "", tr.Path(tr.Root()))
}

func TestTreeAncestors(t *testing.T) {
	tr, ids := buildSample(t)

	var got []ID
	tr.Ancestors(ids["a/b/c"], func(id ID) bool {
		got = append(got, id)
		return true
	})
	assert.Equal(t, []ID{ids["a/b"], ids["a"], tr.Root()}, got)

	got = nil
	tr.Ancestors(ids["a/b/c"], func(id ID) bool {
		got = append(got, id)
		return false
	})
	assert.Equal(t, []ID{ids["a/b"]}, got)
}

func TestMarkString(t *testing.T) {
	assert.Equal(t, "none", Mark(0).String())
	assert.Equal(t, "exact|up_chain", (MarkExact | MarkUpChain).String())
	assert.Equal(t, "fifo/socket", KindFifoSocket.String())
}
