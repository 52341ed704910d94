// Package tree holds the in-memory snapshot of a scanned subtree. Nodes live
// in an arena and refer to each other by ID, so a handle stays valid no
// matter how many nodes are appended after it.
package tree

import "strings"

// Kind is the variant of a Node.
type Kind uint8

const (
	KindOther Kind = iota
	KindDir
	KindSymlink
	KindDevice
	KindFifoSocket
	KindRegular
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	case KindDevice:
		return "device"
	case KindFifoSocket:
		return "fifo/socket"
	case KindRegular:
		return "regular"
	default:
		return "other"
	}
}

// Mark is the prune mask of a node.
type Mark uint8

const (
	MarkExact    Mark = 1 << iota // path named as a retention target
	MarkAllBelow                  // retained with everything below it
	MarkUpChain                   // ancestor of a retained node
)

func (m Mark) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m&MarkExact != 0 {
		parts = append(parts, "exact")
	}
	if m&MarkAllBelow != 0 {
		parts = append(parts, "all_below")
	}
	if m&MarkUpChain != 0 {
		parts = append(parts, "up_chain")
	}
	return strings.Join(parts, "|")
}

// ID is a handle into a Tree's arena.
type ID int32

// NoID is the parent of the root.
const NoID ID = -1

// ShortStat is the reduced stat kept per node.
type ShortStat struct {
	Dev  uint64
	Mode uint32
}

// Dir is the payload of a directory node.
type Dir struct {
	Children   []ID
	byName     map[string]int // child directory name -> index in Children
	ParentPath string
	Depth      int
}

// Symlink is the payload of a symlink node.
type Symlink struct {
	Target  string // verbatim link contents
	SrcPath string // where the link lives in the source
}

// Device is the payload of a block or character device node.
type Device struct {
	Block bool
	Rdev  uint64
}

// Regular is the payload of a regular file node.
type Regular struct {
	Content   []byte
	SrcPath   string // re-read from here when Cached is false
	Cached    bool
	Empty     bool // the read found nothing
	UseCached bool // never re-read; Content is authoritative
}

// Node is one entry of the tree. Exactly one payload pointer matching Kind
// is set; FifoSocket and Other nodes carry none.
type Node struct {
	Name   string
	Stat   ShortStat
	Kind   Kind
	Index  int // position in the parent's Children
	Parent ID
	Mark   Mark
	IsRoot bool

	Dir     *Dir
	Symlink *Symlink
	Device  *Device
	Regular *Regular
}

// NewDir returns a directory node.
func NewDir(name string, st ShortStat, parentPath string) *Node {
	return &Node{Name: name, Stat: st, Kind: KindDir, Dir: &Dir{ParentPath: parentPath}}
}

// NewSymlink returns a symlink node.
func NewSymlink(name string, st ShortStat, target, srcPath string) *Node {
	return &Node{Name: name, Stat: st, Kind: KindSymlink, Symlink: &Symlink{Target: target, SrcPath: srcPath}}
}

// NewDevice returns a device node.
func NewDevice(name string, st ShortStat, block bool, rdev uint64) *Node {
	return &Node{Name: name, Stat: st, Kind: KindDevice, Device: &Device{Block: block, Rdev: rdev}}
}

// NewRegular returns a regular file node.
func NewRegular(name string, st ShortStat, payload Regular) *Node {
	return &Node{Name: name, Stat: st, Kind: KindRegular, Regular: &payload}
}

// NewFifoSocket returns a fifo or socket node.
func NewFifoSocket(name string, st ShortStat) *Node {
	return &Node{Name: name, Stat: st, Kind: KindFifoSocket}
}

// NewOther returns a node of a type that cannot be reproduced.
func NewOther(name string, st ShortStat) *Node {
	return &Node{Name: name, Stat: st, Kind: KindOther}
}

// Retained reports whether the node survives pruning.
func (n *Node) Retained() bool { return n.Mark != 0 }
