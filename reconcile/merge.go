package reconcile

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"

	"github.com/t7a/emdtree/codec"
	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

const tmpPrefix = "_tmp_"

// syncer carries one Save's state: the container's top group, the
// tree being saved and the node within it that was passed in.
type syncer struct {
	top        *store.Group
	root       *tree.Node
	data       *tree.Node
	depth      emdio.Depth
	appendover bool
}

func (s *syncer) rootGroup() (grp *store.Group, ok bool) {
	grp, err := s.top.Group(s.root.Name())
	if err != nil {
		return nil, false
	}
	gt, _ := grp.StringAttr(emdio.GroupTypeAttr)
	return grp, tree.GroupType(gt) == tree.GroupRoot
}

// writeFromRoot adds the root as a new group, then data below it at
// s.depth.  A data node deeper in the tree is written directly under
// the root group.
func (s *syncer) writeFromRoot() (err error) {
	defer Return(&err)
	rootgrp, err := emdio.WriteNode(s.top, s.root)
	Ck(err)
	if s.data == s.root {
		if s.depth != emdio.SelfOnly {
			err = emdio.WriteTree(rootgrp, s.root)
			Ck(err)
		}
		return
	}
	_, err = emdio.Write(rootgrp, s.data, s.depth)
	Ck(err)
	return
}

// writeAtTarget writes data under the existing node named by target,
// in a tree other than data's own.
func (s *syncer) writeAtTarget(target *emdio.Path) (err error) {
	_, grp, err := target.Resolve(s.top)
	if err != nil {
		return
	}
	if s.data.IsRoot() {
		if s.depth == emdio.SelfOnly {
			return &tree.SyncConflictError{Path: target.String(), Reason: "a root can only be appended with its subtree"}
		}
		return emdio.WriteTree(grp, s.data)
	}
	_, err = emdio.Write(grp, s.data, s.depth)
	return
}

// mergeAtNode reconciles data against the stored copy of its own tree,
// found by walking data's path down from rootgrp.
func (s *syncer) mergeAtNode(rootgrp *store.Group) (err error) {
	err = s.appendRootMetadata(rootgrp)
	if err != nil {
		return
	}
	if s.data == s.root {
		if s.depth == emdio.SelfOnly {
			return
		}
		return s.appendBranch(rootgrp, s.root)
	}

	grp, inside, err := emdio.Locate(rootgrp, s.data.Path())
	if err != nil {
		return &tree.SyncConflictError{Path: s.data.Path(), Reason: "node's tree path does not exist in the stored tree"}
	}
	if !inside {
		log.Debugf("merge: %s is new under %s", s.data.Path(), grp.Path())
		_, err = emdio.Write(grp, s.data, s.depth)
		return
	}
	return s.merge(grp, s.data)
}

// mergeAtTarget reconciles data against the stored node at target,
// which lies in data's own tree.
func (s *syncer) mergeAtTarget(rootgrp *store.Group, target *emdio.Path) (err error) {
	tgrp, inside, err := emdio.Locate(rootgrp, target.Tree)
	if err != nil || !inside {
		return &tree.PathError{Path: target.String(), Missing: target.Tree}
	}
	err = s.appendRootMetadata(rootgrp)
	if err != nil {
		return
	}

	if s.data == s.root {
		src, err := s.below(s.root, rootgrp, tgrp)
		if err != nil {
			return err
		}
		return s.merge(tgrp, src)
	}

	sgrp, inside, err := emdio.Locate(rootgrp, s.data.Path())
	if err != nil {
		return &tree.SyncConflictError{Path: s.data.Path(), Reason: "node cannot be matched to the stored tree"}
	}
	switch {
	case !inside && sgrp == tgrp:
		// data is a new child of the target
		if s.depth == emdio.ExcludeSelf {
			return s.appendBranch(tgrp, s.data)
		}
		_, err = emdio.Write(tgrp, s.data, s.depth)
		return
	case !inside:
		return &tree.SyncConflictError{Path: s.data.Path(), Reason: fmt.Sprintf("parent is not stored at %s", target)}
	case sgrp == tgrp:
		return s.merge(tgrp, s.data)
	case sgrp.Parent() == tgrp:
		return s.merge(sgrp, s.data)
	case sgrp.Contains(tgrp):
		src, err := s.below(s.data, sgrp, tgrp)
		if err != nil {
			return err
		}
		return s.merge(tgrp, src)
	}
	return &tree.SyncConflictError{Path: target.String(), Reason: fmt.Sprintf("target is not downstream of %s", s.data.Path())}
}

// below finds the in-memory node matching tgrp, which lies under grp,
// the stored copy of n.
func (s *syncer) below(n *tree.Node, grp, tgrp *store.Group) (*tree.Node, error) {
	rel := strings.TrimPrefix(strings.TrimPrefix(tgrp.Path(), grp.Path()), "/")
	if rel == "" {
		return n, nil
	}
	found, err := n.Get(rel)
	if err != nil {
		return nil, &tree.SyncConflictError{Path: tgrp.Path(), Reason: "target is stored but missing from the in-memory tree"}
	}
	return found, nil
}

// merge reconciles the existing group grp with n: replace n itself in
// AppendOver mode unless the depth excludes it, then walk its branch.
// A root group is never replaced.
func (s *syncer) merge(grp *store.Group, n *tree.Node) (err error) {
	if s.appendover && s.depth != emdio.ExcludeSelf && !n.IsRoot() {
		grp, err = s.overwriteSingleNode(grp, n)
		if err != nil {
			return
		}
	}
	if s.depth == emdio.SelfOnly {
		return
	}
	return s.appendBranch(grp, n)
}

// overwriteSingleNode replaces the stored node grp with n, keeping the
// stored children.  The group's name and tree path must match n's.
func (s *syncer) overwriteSingleNode(grp *store.Group, n *tree.Node) (newgrp *store.Group, err error) {
	if grp.Name() != n.Name() {
		return nil, &tree.SyncConflictError{Path: grp.Path(), Reason: fmt.Sprintf("stored name does not match node %s", n.Name())}
	}
	if treepath(grp) != n.Path() {
		return nil, &tree.SyncConflictError{Path: grp.Path(), Reason: fmt.Sprintf("stored path does not match node path %s", n.Path())}
	}
	defer Return(&err)
	parent := grp.Parent()
	tmp := tmpName(parent, n.Name())
	err = parent.Move(n.Name(), tmp)
	Ck(err)
	newgrp, err = emdio.WriteNode(parent, n)
	if err != nil {
		parent.Move(tmp, n.Name())
	}
	Ck(err)
	for _, name := range grp.Groups() {
		kid, _ := grp.Group(name)
		gt, _ := kid.StringAttr(emdio.GroupTypeAttr)
		if !tree.GroupType(gt).IsData() {
			continue
		}
		err = newgrp.Adopt(name, kid)
		Ck(err)
	}
	err = parent.Delete(tmp)
	Ck(err)
	log.Debugf("merge: overwrote %s", newgrp.Path())
	return
}

// tmpName returns a name for name's stand-in that parent does not
// hold yet.
func tmpName(parent *store.Group, name string) string {
	tmp := tmpPrefix + name
	for i := 1; parent.Has(tmp); i++ {
		tmp = fmt.Sprintf("%s%s_%d", tmpPrefix, name, i)
	}
	return tmp
}

// treepath is grp's path below its root group.
func treepath(grp *store.Group) string {
	parts := strings.SplitN(strings.TrimPrefix(grp.Path(), "/"), "/", 2)
	if len(parts) < 2 {
		return ""
	}
	return "/" + parts[1]
}

// appendBranch walks n's children against grp's: a missing child is
// written with its whole subtree, an existing one is replaced or kept
// and then walked in turn.
func (s *syncer) appendBranch(grp *store.Group, n *tree.Node) (err error) {
	for _, kid := range n.Children() {
		sub, err := grp.Group(kid.Name())
		stored := false
		if err == nil {
			gt, _ := sub.StringAttr(emdio.GroupTypeAttr)
			stored = tree.GroupType(gt).IsData()
		}
		if !stored {
			log.Debugf("merge: adding %s under %s", kid.Name(), grp.Path())
			_, err = emdio.Write(grp, kid, emdio.Subtree)
			if err != nil {
				return err
			}
			continue
		}
		next := sub
		if s.appendover {
			next, err = s.overwriteSingleNode(sub, kid)
			if err != nil {
				return err
			}
		} else {
			log.Debugf("merge: keeping %s", sub.Path())
		}
		err = s.appendBranch(next, kid)
		if err != nil {
			return err
		}
	}
	return
}

// appendRootMetadata adds the root's metadata records to the stored
// root's bundle.  Existing records are kept, or replaced in AppendOver
// mode.
func (s *syncer) appendRootMetadata(rootgrp *store.Group) (err error) {
	defer Return(&err)
	records := s.root.MetadataRecords()
	if len(records) == 0 {
		return
	}
	bundle, err := rootgrp.RequireGroup(emdio.MetadataBundle)
	Ck(err)
	bundle.SetStringAttr(emdio.GroupTypeAttr, string(tree.GroupMetadataBundle))
	for _, md := range records {
		if bundle.Has(md.Name()) {
			if !s.appendover {
				log.Debugf("merge: keeping root metadata %s", md.Name())
				continue
			}
			err = bundle.Delete(md.Name())
			Ck(err)
		}
		_, err = codec.WriteMetadata(bundle, md)
		Ck(err, "root metadata %s", md.Name())
	}
	return
}
