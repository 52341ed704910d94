package tree

import (
	"path/filepath"
	"slices"
	"strings"
)

// Tree is an arena of nodes rooted at a directory.
type Tree struct {
	nodes []*Node
}

// New creates a tree whose root directory is called name.
func New(name string, st ShortStat, parentPath string) *Tree {
	root := NewDir(name, st, parentPath)
	root.IsRoot = true
	root.Parent = NoID
	root.Dir.Depth = -1
	return &Tree{nodes: []*Node{root}}
}

// Root returns the handle of the root directory.
func (*Tree) Root() ID { return 0 }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node for id. The pointer stays valid for the tree's life.
func (t *Tree) Node(id ID) *Node { return t.nodes[id] }

// Add appends n as the last child of the directory parent and returns its
// handle. The parent must be a directory.
func (t *Tree) Add(parent ID, n *Node) ID {
	p := t.nodes[parent]
	id := ID(len(t.nodes)) //nolint:gosec // G115: arena size bounded by memory
	n.Parent = parent
	n.Index = len(p.Dir.Children)
	if n.Kind == KindDir {
		n.Dir.Depth = p.Dir.Depth + 1
		if p.Dir.byName == nil {
			p.Dir.byName = make(map[string]int)
		}
		p.Dir.byName[n.Name] = n.Index
	}
	p.Dir.Children = append(p.Dir.Children, id)
	t.nodes = append(t.nodes, n)
	return id
}

// Children returns the child handles of a directory, or nil.
func (t *Tree) Children(id ID) []ID {
	n := t.nodes[id]
	if n.Dir == nil {
		return nil
	}
	return n.Dir.Children
}

// ChildDir finds a child directory by name through the directory's name map.
func (t *Tree) ChildDir(parent ID, name string) (ID, bool) {
	p := t.nodes[parent]
	if p.Dir == nil {
		return NoID, false
	}
	idx, ok := p.Dir.byName[name]
	if !ok {
		return NoID, false
	}
	return p.Dir.Children[idx], true
}

// Child finds any child by name: directories through the name map, other
// kinds by scanning the child list.
func (t *Tree) Child(parent ID, name string) (ID, bool) {
	if id, ok := t.ChildDir(parent, name); ok {
		return id, true
	}
	p := t.nodes[parent]
	if p.Dir == nil {
		return NoID, false
	}
	for _, c := range p.Dir.Children {
		if t.nodes[c].Name == name {
			return c, true
		}
	}
	return NoID, false
}

// LookupDir descends from start through directory name maps, one component
// of rel at a time. An empty or "." rel returns start.
func (t *Tree) LookupDir(start ID, rel string) (ID, bool) {
	cur := start
	for _, comp := range splitRel(rel) {
		next, ok := t.ChildDir(cur, comp)
		if !ok {
			return NoID, false
		}
		cur = next
	}
	return cur, true
}

// Lookup resolves rel, relative to the root, to a node of any kind.
func (t *Tree) Lookup(rel string) (ID, bool) {
	comps := splitRel(rel)
	if len(comps) == 0 {
		return t.Root(), true
	}
	dir, ok := t.LookupDir(t.Root(), filepath.Join(comps[:len(comps)-1]...))
	if !ok {
		return NoID, false
	}
	return t.Child(dir, comps[len(comps)-1])
}

// Path returns the path of id relative to the root.
func (t *Tree) Path(id ID) string {
	var names []string
	for cur := id; cur != NoID && !t.nodes[cur].IsRoot; cur = t.nodes[cur].Parent {
		names = append(names, t.nodes[cur].Name)
	}
	slices.Reverse(names)
	return filepath.Join(names...)
}

// Ancestors calls fn for each ancestor of id, nearest first, root last.
// Returning false stops the climb.
func (t *Tree) Ancestors(id ID, fn func(ID) bool) {
	for cur := t.nodes[id].Parent; cur != NoID; cur = t.nodes[cur].Parent {
		if !fn(cur) {
			return
		}
	}
}

func splitRel(rel string) []string {
	rel = filepath.Clean(rel)
	if rel == "." || rel == "" || rel == string(filepath.Separator) {
		return nil
	}
	return strings.Split(strings.Trim(rel, string(filepath.Separator)), string(filepath.Separator))
}
