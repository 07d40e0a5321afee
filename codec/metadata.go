package codec

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

const (
	GroupTypeAttr = "emd_group_type"
	KindAttr      = "emd_kind"
	metadataKind  = "Metadata"
)

// WriteMetadata stores md as a new group named after it under parent
// and returns that group.
func WriteMetadata(parent *store.Group, md *tree.Metadata) (grp *store.Group, err error) {
	grp, err = parent.CreateGroup(md.Name())
	if err != nil {
		return nil, errors.Wrapf(err, "metadata %s", md.Name())
	}
	grp.SetStringAttr(GroupTypeAttr, string(tree.GroupMetadata))
	grp.SetStringAttr(KindAttr, metadataKind)
	for _, k := range md.Keys() {
		v, _ := md.Get(k)
		err = Encode(grp, k, v)
		if err != nil {
			parent.Delete(md.Name())
			return nil, err
		}
	}
	log.Debugf("wrote metadata %s (%d keys)", grp.Path(), len(md.Keys()))
	return
}

// ReadMetadata loads a record written by WriteMetadata.
func ReadMetadata(grp *store.Group) (md *tree.Metadata, err error) {
	gt, _ := grp.StringAttr(GroupTypeAttr)
	if tree.GroupType(gt) != tree.GroupMetadata {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: "not a metadata group"}
	}
	md = tree.NewMetadata(grp.Name(), nil)
	for _, k := range append(grp.Datasets(), grp.Groups()...) {
		v, err := Decode(grp, k)
		if err != nil {
			return nil, err
		}
		md.Set(k, v)
	}
	return
}
