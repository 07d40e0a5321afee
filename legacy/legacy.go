// Package legacy reads containers in the version 0.1 layout, where
// each dataset lives in a group tagged with the integer
// emd_group_type 1 and carries its calibrations as dim1..dimN.
package legacy

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/t7a/emdtree/payload"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

const groupTypeAttr = "emd_group_type"

// Find returns every legacy data group below top, depth first in name
// order.
func Find(top *store.Group) (found []*store.Group) {
	for _, name := range top.Groups() {
		grp, _ := top.Group(name)
		if t, ok := grp.IntAttr(groupTypeAttr); ok && t == 1 {
			found = append(found, grp)
		}
		found = append(found, Find(grp)...)
	}
	return
}

// IsLegacy reports whether top holds at least one legacy data group.
func IsLegacy(top *store.Group) bool {
	return len(Find(top)) > 0
}

// Read converts every legacy data group into an Array node under a
// new Root named after the file.
func Read(top *store.Group, filename string) (root *tree.Node, err error) {
	groups := Find(top)
	if len(groups) == 0 {
		return nil, &tree.FormatError{Path: filename, Reason: "no version 0.1 data groups"}
	}
	root = tree.NewRoot(filepath.Base(filename))
	for _, grp := range groups {
		a, err := readArray(grp)
		if err != nil {
			return nil, err
		}
		err = root.Add(tree.NewNode(grp.Name(), a))
		if err != nil {
			return nil, err
		}
		log.Debugf("legacy: read %s", grp.Path())
	}
	return
}

func readArray(grp *store.Group) (a *payload.Array, err error) {
	ds, err := grp.Dataset("data")
	if err != nil {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: "no data dataset"}
	}
	a, err = payload.NewArray(ds.Data)
	if err != nil {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: err.Error()}
	}
	for n := 0; n < a.Rank(); n++ {
		dim, err := grp.Dataset(fmt.Sprintf("dim%d", n+1))
		if err != nil {
			return nil, &tree.FormatError{Path: grp.Path(), Reason: fmt.Sprintf("no dim%d dataset", n+1)}
		}
		units, _ := dim.StringAttr("units")
		name, _ := dim.StringAttr("name")
		err = a.SetDim(n, dim.Data, units, name)
		if err != nil {
			return nil, &tree.FormatError{Path: dim.Path(), Reason: err.Error()}
		}
	}
	return
}
