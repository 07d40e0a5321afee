package reconcile

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	. "github.com/stevegt/goadapt"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/payload"
	"github.com/t7a/emdtree/tree"
)

const (
	// ValueRoot names the Root made for a bare array or metadata.
	ValueRoot = "root"
	// ValueArray names the Array node made for a bare array.
	ValueArray = "np.array"
	// ValueDict names the metadata record made for a bare tree.Map.
	ValueDict = "dictionary"
	// ListRoot collects the detached items of a list.
	ListRoot = "root_savedlist"
)

// SaveValue stores v in the container at path.  v may be:
//
//   *tree.Node      saved as by Save
//   *ndarray.Array  saved as the Array "np.array" under a Root "root"
//   tree.Map        saved as the metadata "dictionary" of a Root "root"
//   *tree.Metadata  saved as metadata of a Root "root"
//   []interface{}   a list of nodes, arrays and maps; see SaveList
func SaveValue(fs afero.Fs, path string, v interface{}, opts Options) (err error) {
	switch x := v.(type) {
	case *tree.Node:
		return Save(fs, path, x, opts)
	case []interface{}:
		return SaveList(fs, path, x, opts)
	case *ndarray.Array:
		root := tree.NewRoot(ValueRoot)
		n, err := arrayNode(ValueArray, x)
		if err != nil {
			return err
		}
		err = root.Add(n)
		if err != nil {
			return err
		}
		return Save(fs, path, n, opts)
	case tree.Map:
		root := tree.NewRoot(ValueRoot)
		root.SetMetadata(tree.NewMetadata(ValueDict, x))
		return Save(fs, path, root, opts)
	case *tree.Metadata:
		root := tree.NewRoot(ValueRoot)
		root.SetMetadata(x)
		return Save(fs, path, root, opts)
	}
	return fmt.Errorf("cannot save %T", v)
}

func arrayNode(name string, a *ndarray.Array) (n *tree.Node, err error) {
	p, err := payload.NewArray(a)
	if err != nil {
		return
	}
	return tree.NewNode(name, p), nil
}

// SaveList stores a list of nodes, arrays and maps in one go.
//
// Roots are saved whole.  Detached nodes, arrays (as "array_<i>") and
// maps (as metadata "dictionary_<i>") are gathered under a Root called
// "root_savedlist".  Nodes still attached to a tree are saved alone,
// flat under a Root of their tree's name carrying that tree's root
// metadata, replacing stored nodes of the same name.  Two different
// trees whose roots share a name are refused.
//
// Write and Overwrite apply to the file as a whole; the items are then
// appended one by one.  opts.Depth and opts.EMDPath are ignored.
func SaveList(fs afero.Fs, path string, items []interface{}, opts Options) (err error) {
	defer Return(&err)

	var roots, rooted []*tree.Node
	var detached []*tree.Node
	var others []interface{}
	for i, item := range items {
		switch x := item.(type) {
		case *tree.Node:
			switch {
			case x.IsRoot():
				roots = append(roots, x)
			case x.Root() == nil:
				detached = append(detached, x)
			default:
				rooted = append(rooted, x)
			}
		case *ndarray.Array, tree.Map:
			others = append(others, x)
		default:
			return fmt.Errorf("item %d: cannot save %T in a list", i, item)
		}
	}

	// trees of the attached nodes, by root name
	var names []string
	trees := map[string]*tree.Node{}
	for _, n := range rooted {
		name := n.Root().Name()
		have, ok := trees[name]
		if !ok {
			trees[name] = n.Root()
			names = append(names, name)
			continue
		}
		if have != n.Root() {
			return &tree.SyncConflictError{Path: "/" + name, Reason: "two different roots share this name"}
		}
	}

	exists, err := afero.Exists(fs, path)
	Ck(err, "stat %s", path)
	switch opts.Mode {
	case Write:
		if exists {
			return &tree.SyncConflictError{Path: path, Reason: "file exists; use an append or overwrite mode"}
		}
	case Overwrite:
		if exists {
			err = fs.Remove(path)
			Ck(err, "remove %s", path)
		}
	}
	mode := opts.Mode
	if mode == Write || mode == Overwrite {
		mode = Append
	}
	save := func(n *tree.Node, mode Mode, depth emdio.Depth) error {
		return Save(fs, path, n, Options{Mode: mode, Depth: depth, Session: opts.Session})
	}

	if len(detached)+len(others) > 0 {
		list := tree.NewRoot(ListRoot)
		var arrays, dicts int
		for _, x := range others {
			switch v := x.(type) {
			case *ndarray.Array:
				n, err := arrayNode(fmt.Sprintf("array_%d", arrays), v)
				Ck(err)
				err = list.Add(n)
				Ck(err)
				arrays++
			case tree.Map:
				list.SetMetadata(tree.NewMetadata(fmt.Sprintf("dictionary_%d", dicts), v))
				dicts++
			}
		}
		release, err := tree.Borrow(list, detached...)
		if err != nil {
			return err
		}
		err = save(list, mode, emdio.Subtree)
		release()
		Ck(err)
		log.Debugf("save %s: %d detached items under %s", path, len(detached)+len(others), ListRoot)
	}

	for _, root := range roots {
		err = save(root, mode, emdio.Subtree)
		Ck(err)
	}

	for _, name := range names {
		flat := tree.NewRoot(name)
		for _, md := range trees[name].MetadataRecords() {
			flat.SetMetadata(md)
		}
		err = save(flat, mode, emdio.SelfOnly)
		Ck(err)
	}
	for _, n := range rooted {
		flat := tree.NewRoot(n.Root().Name())
		for _, md := range n.Root().MetadataRecords() {
			flat.SetMetadata(md)
		}
		proxy := tree.NewNode(n.Name(), n.Payload())
		for _, md := range n.MetadataRecords() {
			proxy.SetMetadata(md)
		}
		err = flat.Add(proxy)
		Ck(err)
		err = save(proxy, AppendOver, emdio.SelfOnly)
		Ck(err)
	}
	return
}
