package tree

import (
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// Payload is the leaf data a node carries.  Nodes without a payload
// are plain structural nodes.
type Payload interface {
	GroupType() GroupType
	KindName() string
}

// Node is the unit of a tree.  A node is detached until it is added
// under an attached node; a Root is attached to itself.
type Node struct {
	name     string
	root     *Node
	parent   *Node
	isRoot   bool
	branch   *Branch
	treepath string
	metadata map[string]*Metadata
	payload  Payload
}

// NewNode returns a detached node.  payload may be nil.
func NewNode(name string, payload Payload) *Node {
	return &Node{
		name:     name,
		branch:   newBranch(),
		metadata: map[string]*Metadata{},
		payload:  payload,
	}
}

// NewRoot returns a fresh Root.
func NewRoot(name string) *Node {
	n := NewNode(name, nil)
	n.root = n
	n.isRoot = true
	return n
}

func (n *Node) Name() string {
	return n.name
}

// SetName renames a detached node.
func (n *Node) SetName(name string) error {
	if n.root != nil {
		return &StructureError{Op: "rename", Node: n.name, Reason: "node is attached"}
	}
	n.name = name
	return nil
}

// Root returns the node's Root, or nil when detached.
func (n *Node) Root() *Node {
	return n.root
}

// Parent returns the node that owns n, nil for Roots and detached
// nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) IsRoot() bool {
	return n.isRoot
}

// Path is n's canonical path from its Root: "" for the Root itself,
// "/a/b" below it and "" for a detached node.
func (n *Node) Path() string {
	return n.treepath
}

func (n *Node) Branch() *Branch {
	return n.branch
}

// Keys returns child names, sorted.
func (n *Node) Keys() []string {
	return n.branch.Keys()
}

// Children returns the direct children in name order.
func (n *Node) Children() (kids []*Node) {
	for _, k := range n.branch.Keys() {
		kids = append(kids, n.branch.children[k])
	}
	return
}

func (n *Node) Payload() Payload {
	return n.payload
}

// SetPayload replaces the leaf data.
func (n *Node) SetPayload(p Payload) {
	n.payload = p
}

// GroupType is the payload's group type, or root / node for
// structural nodes.
func (n *Node) GroupType() GroupType {
	if n.payload != nil {
		return n.payload.GroupType()
	}
	if n.isRoot {
		return GroupRoot
	}
	return GroupNode
}

// KindName is the concrete kind used to look the node up on read.
func (n *Node) KindName() string {
	if n.payload != nil {
		return n.payload.KindName()
	}
	if n.isRoot {
		return "Root"
	}
	return "Node"
}

// SetMetadata stores md under its name; the last writer wins.
func (n *Node) SetMetadata(md *Metadata) {
	n.metadata[md.Name()] = md
}

// Metadata returns the record called name.
func (n *Node) Metadata(name string) (md *Metadata, ok bool) {
	md, ok = n.metadata[name]
	return
}

// DeleteMetadata removes the record called name.
func (n *Node) DeleteMetadata(name string) {
	delete(n.metadata, name)
}

// MetadataKeys returns record names, sorted.
func (n *Node) MetadataKeys() (keys []string) {
	for k := range n.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

// MetadataRecords returns the records in name order.
func (n *Node) MetadataRecords() (out []*Metadata) {
	for _, k := range n.MetadataKeys() {
		out = append(out, n.metadata[k])
	}
	return
}

// relink points n and everything below it at root, recomputing
// canonical paths from treepath.
func (n *Node) relink(root *Node, treepath string) {
	n.root = root
	n.treepath = treepath
	for name, kid := range n.branch.children {
		kidpath := ""
		if root != nil {
			kidpath = treepath + "/" + name
		}
		kid.relink(root, kidpath)
	}
}

// Add attaches the detached node child under n.
func (n *Node) Add(child *Node) (err error) {
	if child == nil {
		return &StructureError{Op: "add", Node: n.name, Reason: "nil child"}
	}
	if n.root == nil {
		return &StructureError{Op: "add", Node: child.name, Reason: fmt.Sprintf("%s is not attached to a root", n.name)}
	}
	if child.root != nil {
		return &StructureError{Op: "add", Node: child.name, Reason: "node already has a root; use Graft to move it"}
	}
	if child.isRoot {
		return &StructureError{Op: "add", Node: child.name, Reason: "a root cannot be added as a child"}
	}
	err = n.branch.set(child)
	if err != nil {
		return
	}
	child.parent = n
	child.relink(n.root, n.treepath+"/"+child.name)
	Assert(child.root == n.root)
	return
}

// ForceAdd is Add for detached children.  An attached child is grafted
// under n without merging its old Root's metadata.
func (n *Node) ForceAdd(child *Node) (err error) {
	if child != nil && child.root != nil {
		_, err = Graft(n, child, MetadataDrop)
		return
	}
	return n.Add(child)
}

// Get resolves a "/" delimited path.  An empty path is n's Root, a
// leading "/" resolves from the Root and anything else from n.
func (n *Node) Get(path string) (*Node, error) {
	if path == "" {
		if n.root == nil {
			return nil, &PathError{Path: path, Missing: n.name + " has no root"}
		}
		return n.root, nil
	}
	if strings.HasPrefix(path, "/") {
		if n.root == nil {
			return nil, &PathError{Path: path, Missing: n.name + " has no root"}
		}
		return n.root.branch.Get(path)
	}
	return n.branch.Get(path)
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for x := other; x != nil; x = x.parent {
		if x == n {
			return true
		}
	}
	return false
}

// Walk calls fn for n and every descendant, parents before children,
// siblings in name order.
func (n *Node) Walk(fn func(*Node) error) (err error) {
	err = fn(n)
	if err != nil {
		return
	}
	for _, kid := range n.Children() {
		err = kid.Walk(fn)
		if err != nil {
			return
		}
	}
	return
}

// detach removes n from its parent and its Root.
func (n *Node) detach() {
	if n.parent != nil {
		n.parent.branch.remove(n.name)
		n.parent = nil
	}
	n.relink(nil, "")
}

// Graft moves src under dest and folds src's old Root metadata into
// dest's Root according to policy.  A Root src moves each of its
// children instead of itself.  Returns dest's Root.
func Graft(dest, src *Node, policy MetadataPolicy) (root *Node, err error) {
	if dest == nil || src == nil {
		return nil, &StructureError{Op: "graft", Reason: "nil node"}
	}
	if src.root == nil {
		return nil, &StructureError{Op: "graft", Node: src.name, Reason: "source is not attached to a root"}
	}
	if dest.root == nil {
		return nil, &StructureError{Op: "graft", Node: src.name, Reason: fmt.Sprintf("destination %s is not attached to a root", dest.name)}
	}

	var moving []*Node
	if src.isRoot {
		moving = src.Children()
	} else {
		moving = []*Node{src}
	}
	// check everything before mutating anything
	for _, m := range moving {
		if m.Contains(dest) {
			return nil, &StructureError{Op: "graft", Node: m.name, Reason: fmt.Sprintf("%s lies inside the subtree being moved", dest.name)}
		}
		if existing, ok := dest.branch.children[m.name]; ok && existing != m {
			return nil, &StructureError{Op: "graft", Node: m.name, Reason: fmt.Sprintf("%s already has a child with that name", dest.name)}
		}
	}

	oldRoot := src.root
	for _, m := range moving {
		if m.parent == dest {
			continue
		}
		m.detach()
		err = dest.Add(m)
		Assert(err == nil)
		log.Debugf("grafted %s under %s", m.name, dest.Path())
	}
	if oldRoot != dest.root {
		policy.mergeInto(dest.root.metadata, oldRoot.metadata)
	}
	return dest.root, nil
}

// Cut detaches the subtree at n into a fresh Root named
// "<old root>_cut_<n>", folding the old Root's metadata in according
// to policy.  Returns the new Root.
func Cut(n *Node, policy MetadataPolicy) (root *Node, err error) {
	if n.root == nil {
		return nil, &StructureError{Op: "cut", Node: n.name, Reason: "node is not attached to a root"}
	}
	root = NewRoot(n.root.name + "_cut_" + n.name)
	_, err = Graft(root, n, policy)
	if err != nil {
		return nil, err
	}
	return
}

// Detached wraps the detached node n in a temporary Root called
// "<name>_root".  release undoes the wrapping, leaving n detached.
func Detached(n *Node) (root *Node, release func(), err error) {
	root = NewRoot(n.name + "_root")
	release, err = Borrow(root, n)
	if err != nil {
		return nil, nil, err
	}
	return
}

// Borrow adds the detached nodes under parent until release is
// called, which detaches them again.  On error nothing stays added.
func Borrow(parent *Node, nodes ...*Node) (release func(), err error) {
	var added []*Node
	release = func() {
		for _, n := range added {
			if n.parent == parent {
				n.detach()
			}
		}
	}
	for _, n := range nodes {
		if n.root != nil {
			err = &StructureError{Op: "wrap", Node: n.name, Reason: "node is already attached"}
		} else {
			err = parent.Add(n)
		}
		if err != nil {
			release()
			return nil, err
		}
		added = append(added, n)
	}
	return
}

func (n *Node) String() string {
	return fmt.Sprintf("%s( %s )", n.KindName(), n.name)
}
