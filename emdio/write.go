package emdio

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"

	"github.com/t7a/emdtree/codec"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// WriteNode writes n alone, without its children, as a new group under
// parent and returns that group.
func WriteNode(parent *store.Group, n *tree.Node) (grp *store.Group, err error) {
	return writeGroup(parent, n, n.Name(), n.GroupType())
}

// WritePart writes n as a named part of a composite node.  Its group
// type is prefixed so that tree traversal passes over it.
func WritePart(parent *store.Group, name string, n *tree.Node) (grp *store.Group, err error) {
	return writeGroup(parent, n, name, n.GroupType().AsPart())
}

func writeGroup(parent *store.Group, n *tree.Node, name string, gt tree.GroupType) (grp *store.Group, err error) {
	grp, err = parent.CreateGroup(name)
	if err != nil {
		return nil, errors.Wrapf(err, "write node %s", name)
	}
	grp.SetStringAttr(GroupTypeAttr, string(gt))
	grp.SetStringAttr(KindAttr, n.KindName())

	defer func() {
		if err != nil {
			parent.Delete(name)
			grp = nil
		}
	}()

	if s, ok := n.Payload().(Serializer); ok {
		err = s.Serialize(grp)
		if err != nil {
			return grp, errors.Wrapf(err, "serialize %s", grp.Path())
		}
	}
	err = WriteMetadata(grp, n.MetadataRecords())
	if err != nil {
		return
	}
	log.Debugf("wrote %s %s at %s", gt, n.KindName(), grp.Path())
	return
}

// WriteMetadata stores records in grp's metadata bundle, creating the
// bundle when needed.
func WriteMetadata(grp *store.Group, records []*tree.Metadata) (err error) {
	defer Return(&err)
	if len(records) == 0 {
		return
	}
	bundle, err := grp.RequireGroup(MetadataBundle)
	Ck(err, "metadata bundle of %s", grp.Path())
	bundle.SetStringAttr(GroupTypeAttr, string(tree.GroupMetadataBundle))
	for _, md := range records {
		_, err = codec.WriteMetadata(bundle, md)
		Ck(err)
	}
	return
}

// WriteTree writes everything below n, but not n itself, under grp.
func WriteTree(grp *store.Group, n *tree.Node) (err error) {
	defer Return(&err)
	for _, kid := range n.Children() {
		kidgrp, err := WriteNode(grp, kid)
		Ck(err)
		err = WriteTree(kidgrp, kid)
		Ck(err)
	}
	return
}

// Write writes n under parent according to depth.  It returns n's new
// group, or parent for ExcludeSelf.
func Write(parent *store.Group, n *tree.Node, depth Depth) (grp *store.Group, err error) {
	switch depth {
	case SelfOnly:
		return WriteNode(parent, n)
	case ExcludeSelf:
		return parent, WriteTree(parent, n)
	}
	grp, err = WriteNode(parent, n)
	if err != nil {
		return
	}
	return grp, WriteTree(grp, n)
}
