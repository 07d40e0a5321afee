package tree

import (
	"sort"
	"strings"
)

// Branch owns a node's children, keyed by name.
type Branch struct {
	children map[string]*Node
}

func newBranch() *Branch {
	return &Branch{children: map[string]*Node{}}
}

// Keys returns child names, sorted.
func (b *Branch) Keys() (keys []string) {
	for k := range b.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

func (b *Branch) Len() int {
	return len(b.children)
}

// Has reports whether a direct child called name exists.
func (b *Branch) Has(name string) bool {
	_, ok := b.children[name]
	return ok
}

// Get resolves a "/" joined path of child names.  Empty segments are
// ignored, so "/a/b", "a/b" and "a//b" are the same path.
func (b *Branch) Get(path string) (n *Node, err error) {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, &PathError{Path: path, Missing: path}
	}
	cur := b
	for i, p := range parts {
		kid, ok := cur.children[p]
		if !ok {
			return nil, &PathError{Path: path, Missing: strings.Join(parts[:i+1], "/")}
		}
		n = kid
		cur = kid.branch
	}
	return
}

func (b *Branch) set(child *Node) error {
	if child.name == "" || strings.Contains(child.name, "/") {
		return &StructureError{Op: "add", Node: child.name, Reason: "invalid node name"}
	}
	if _, ok := b.children[child.name]; ok {
		return &StructureError{Op: "add", Node: child.name, Reason: "duplicate child name"}
	}
	b.children[child.name] = child
	return nil
}

func (b *Branch) remove(name string) {
	delete(b.children, name)
}
