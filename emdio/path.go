package emdio

import (
	"fmt"
	"strings"

	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// Path is a parsed emdpath: a root group name followed by the tree
// path of a node below it.
type Path struct {
	Raw   string
	Root  string   // root group name
	Parts []string // node names below the root
	Tree  string   // "/"-joined Parts with a leading "/", "" for the root
}

// New parses raw.  Empty segments are ignored, so "/root/a" and
// "root/a/" are the same path.
func (path Path) New(raw string) (res *Path, err error) {
	path.Raw = raw
	for _, p := range strings.Split(raw, "/") {
		if p != "" {
			path.Parts = append(path.Parts, p)
		}
	}
	if len(path.Parts) == 0 {
		return nil, &tree.PathError{Path: raw, Missing: "root name"}
	}
	path.Root = path.Parts[0]
	path.Parts = path.Parts[1:]
	if len(path.Parts) > 0 {
		path.Tree = "/" + strings.Join(path.Parts, "/")
	}
	return &path, nil
}

// IsRoot reports whether path names a root group.
func (path *Path) IsRoot() bool {
	return len(path.Parts) == 0
}

func (path *Path) String() string {
	return "/" + path.Root + path.Tree
}

// Resolve finds path's root group and node group under top.
func (path *Path) Resolve(top *store.Group) (rootgrp, nodegrp *store.Group, err error) {
	rootgrp, err = top.Group(path.Root)
	if err != nil {
		return nil, nil, &tree.PathError{Path: path.String(), Missing: path.Root}
	}
	gt, _ := rootgrp.StringAttr(GroupTypeAttr)
	if tree.GroupType(gt) != tree.GroupRoot {
		return nil, nil, &tree.PathError{Path: path.String(), Missing: fmt.Sprintf("root %s", path.Root)}
	}
	nodegrp = rootgrp
	for i, name := range path.Parts {
		nodegrp, err = nodegrp.Group(name)
		if err != nil {
			return nil, nil, &tree.PathError{Path: path.String(), Missing: strings.Join(path.Parts[:i+1], "/")}
		}
	}
	return
}

// Locate walks treepath, a node's canonical path, down from rootgrp.
// It returns the deepest group reached and whether the whole path was
// found.  A path whose last segment alone is missing returns that
// segment's would-be parent with inside false; any earlier miss is a
// PathError.
func Locate(rootgrp *store.Group, treepath string) (grp *store.Group, inside bool, err error) {
	var parts []string
	for _, p := range strings.Split(treepath, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	grp = rootgrp
	for i, name := range parts {
		next, err := grp.Group(name)
		if err != nil {
			if i == len(parts)-1 {
				return grp, false, nil
			}
			return nil, false, &tree.PathError{Path: treepath, Missing: strings.Join(parts[:i+1], "/")}
		}
		grp = next
	}
	return grp, true, nil
}
