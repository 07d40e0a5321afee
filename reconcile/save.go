package reconcile

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	. "github.com/stevegt/goadapt"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// Save stores data in the container at path according to opts.
//
// A new file gets a header and data's whole root, written down to data
// at opts.Depth.  An existing file is merged into: a root it does not
// hold yet is added beside the others, and a root it holds is
// reconciled node by node, creating what is missing and skipping
// (Append) or replacing (AppendOver) what is there.  A detached data
// node is saved under a temporary root called "<name>_root".
func Save(fs afero.Fs, path string, data *tree.Node, opts Options) (err error) {
	defer Return(&err)
	mode := opts.Mode
	if opts.EMDPath != "" && mode != AppendOver {
		mode = Append
	}
	exists, err := afero.Exists(fs, path)
	Ck(err, "stat %s", path)
	if mode == Write && exists {
		return &tree.SyncConflictError{Path: path, Reason: "file exists; use an append or overwrite mode"}
	}

	root := data.Root()
	if root == nil {
		var release func()
		root, release, err = tree.Detached(data)
		if err != nil {
			return
		}
		defer release()
	}

	s := &syncer{root: root, data: data, depth: opts.Depth, appendover: mode == AppendOver}

	if mode == Write || mode == Overwrite || !exists {
		// Overwrite needs no delete: Save replaces the file whole.
		file := store.NewFile(fs, path)
		s.top = file.Root()
		emdio.WriteHeader(s.top, opts.Session)
		log.Debugf("save %s: new file, mode %s", path, mode)
		err = s.writeFromRoot()
		Ck(err)
		return file.Save()
	}

	file, err := store.Open(fs, path)
	Ck(err)
	s.top = file.Root()
	_, err = emdio.ReadHeader(s.top)
	Ck(err)

	var target *emdio.Path
	if opts.EMDPath != "" {
		target, err = emdio.Path{}.New(opts.EMDPath)
		if err != nil {
			return
		}
	}
	rootgrp, haveRoot := s.rootGroup()
	switch {
	case target == nil && !haveRoot:
		log.Debugf("save %s: adding root %s", path, root.Name())
		err = s.writeFromRoot()
	case target == nil:
		log.Debugf("save %s: merging into root %s", path, root.Name())
		err = s.mergeAtNode(rootgrp)
	case !haveRoot || target.Root != root.Name():
		log.Debugf("save %s: writing under %s", path, target)
		err = s.writeAtTarget(target)
	default:
		log.Debugf("save %s: merging at %s", path, target)
		err = s.mergeAtTarget(rootgrp, target)
	}
	if err != nil {
		return
	}
	return file.Save()
}
