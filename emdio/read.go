package emdio

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/t7a/emdtree/codec"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// defaultKinds names the kind of groups written without emd_kind.
var defaultKinds = map[tree.GroupType]string{
	tree.GroupRoot: "Root",
	tree.GroupNode: "Node",
}

// ReadNode rebuilds the single node stored at grp, without children.
func ReadNode(grp *store.Group, reg *Registry) (n *tree.Node, err error) {
	s, ok := grp.StringAttr(GroupTypeAttr)
	if !ok {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: "no " + GroupTypeAttr}
	}
	gt := tree.GroupType(s)
	if gt != tree.GroupRoot && !gt.IsData() && !gt.IsPart() {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: fmt.Sprintf("%q is not a node group type", gt)}
	}
	kindName, ok := grp.StringAttr(KindAttr)
	if !ok {
		kindName, ok = defaultKinds[gt.Unprefixed()]
		if !ok {
			return nil, &tree.FormatError{Path: grp.Path(), Reason: "no " + KindAttr}
		}
	}
	kind, err := reg.Lookup(kindName)
	if err != nil {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: err.Error()}
	}
	if kind.GroupType() != gt.Unprefixed() {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: fmt.Sprintf("kind %s does not store %s groups", kindName, gt)}
	}

	args, err := kind.Args(grp)
	if err != nil {
		return
	}
	if gt == tree.GroupRoot {
		n = tree.NewRoot(grp.Name())
	} else {
		payload, err := kind.New(args)
		if err != nil {
			return nil, err
		}
		n = tree.NewNode(grp.Name(), payload)
	}
	err = kind.PostInit(n, grp, reg)
	if err != nil {
		return nil, err
	}

	records, err := ReadMetadata(grp)
	if err != nil {
		return nil, err
	}
	for _, md := range records {
		n.SetMetadata(md)
	}
	return
}

// ReadMetadata loads every record in grp's metadata bundle.
func ReadMetadata(grp *store.Group) (records []*tree.Metadata, err error) {
	bundle, err := grp.Group(MetadataBundle)
	if err != nil {
		return nil, nil
	}
	for _, name := range bundle.Groups() {
		mdgrp, _ := bundle.Group(name)
		md, err := codec.ReadMetadata(mdgrp)
		if err != nil {
			return nil, err
		}
		records = append(records, md)
	}
	return
}

// Populate reads every node group below grp and attaches it under n,
// which must be attached.  grp itself is not read.  Returns the number
// of nodes added.
func Populate(n *tree.Node, grp *store.Group, reg *Registry) (count int, err error) {
	for _, name := range grp.Groups() {
		sub, _ := grp.Group(name)
		gt, _ := sub.StringAttr(GroupTypeAttr)
		if !tree.GroupType(gt).IsData() {
			continue
		}
		kid, err := ReadNode(sub, reg)
		if err != nil {
			return count, err
		}
		err = n.ForceAdd(kid)
		if err != nil {
			return count, err
		}
		count++
		more, err := Populate(kid, sub, reg)
		count += more
		if err != nil {
			return count, err
		}
	}
	return
}

// Read loads a tree from a container whose top-level group is top.
// emdpath selects the target node as "/<root>/<tree path>"; an empty
// emdpath selects the container's only root.  Reading a root returns
// the root; reading another node returns that node, attached under a
// freshly read copy of its root, for SelfOnly and Subtree, and the
// root holding the node's subtree for ExcludeSelf.
func Read(top *store.Group, reg *Registry, emdpath string, depth Depth) (n *tree.Node, err error) {
	_, err = ReadHeader(top)
	if err != nil {
		return
	}
	if emdpath == "" {
		roots := Roots(top)
		switch len(roots) {
		case 0:
			return nil, &tree.FormatError{Path: top.Path(), Reason: "no root groups"}
		case 1:
			emdpath = roots[0]
		default:
			return nil, &AmbiguousRootError{Roots: roots}
		}
	}
	path, err := Path{}.New(emdpath)
	if err != nil {
		return
	}
	rootgrp, nodegrp, err := path.Resolve(top)
	if err != nil {
		return
	}
	root, err := ReadNode(rootgrp, reg)
	if err != nil {
		return
	}
	log.Debugf("read %s depth %s", path, depth)

	if path.IsRoot() {
		if depth != SelfOnly {
			_, err = Populate(root, rootgrp, reg)
		}
		return root, err
	}
	switch depth {
	case ExcludeSelf:
		_, err = Populate(root, nodegrp, reg)
		return root, err
	case SelfOnly:
		n, err = ReadNode(nodegrp, reg)
		if err != nil {
			return
		}
		return n, root.ForceAdd(n)
	}
	n, err = ReadNode(nodegrp, reg)
	if err != nil {
		return
	}
	err = root.ForceAdd(n)
	if err != nil {
		return
	}
	_, err = Populate(n, nodegrp, reg)
	return
}
