package store

import (
	"bytes"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	. "github.com/stevegt/goadapt"
	"github.com/vmihailenco/msgpack"

	"github.com/t7a/emdtree/ndarray"
)

// header is the first line of every store file; the msgpack encoded
// group hierarchy follows it.
const header = "EMDSTORE 1\n"

// File is a store persisted as a single file.  The whole hierarchy is
// held in memory between Open and Save, and Save replaces the file
// atomically, so a failed write never leaves a half-written file
// behind.
type File struct {
	Fs   afero.Fs
	Path string
	root *Group
}

// NewFile returns an empty, unsaved store for path.  Nothing touches
// the filesystem until Save.
func NewFile(fs afero.Fs, path string) *File {
	return &File{Fs: fs, Path: filepath.Clean(path), root: newGroup("", nil)}
}

// Create is NewFile, but fails with ExistsError if path is already there.
func Create(fs afero.Fs, path string) (file *File, err error) {
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return
	}
	if ok {
		return nil, &ExistsError{Path: path}
	}
	return NewFile(fs, path), nil
}

// Open loads an existing store file.
func Open(fs afero.Fs, path string) (file *File, err error) {
	path = filepath.Clean(path)
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return
	}
	if !ok {
		return nil, &NotFoundError{Path: path}
	}
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if !bytes.HasPrefix(buf, []byte(header)) {
		return nil, &MalformedError{Path: path, Reason: "missing store header"}
	}
	wire := &wireGroup{}
	err = msgpack.Unmarshal(buf[len(header):], wire)
	if err != nil {
		return nil, &MalformedError{Path: path, Reason: err.Error()}
	}
	root, err := wire.build("", nil)
	if err != nil {
		return nil, &MalformedError{Path: path, Reason: err.Error()}
	}
	log.Debugf("opened store %s", path)
	return &File{Fs: fs, Path: path, root: root}, nil
}

// Root returns the top-level group.
func (file *File) Root() *Group {
	return file.root
}

// Save writes the store to file.Path, replacing any previous content
// in one rename.
func (file *File) Save() (err error) {
	defer Return(&err)

	wire, err := flatten(file.root)
	Ck(err)
	body, err := msgpack.Marshal(wire)
	Ck(err)
	buf := append([]byte(header), body...)

	if _, ok := file.Fs.(*afero.OsFs); ok {
		err = renameio.WriteFile(file.Path, buf, 0644)
		Ck(err)
		log.Debugf("saved store %s (%d bytes)", file.Path, len(buf))
		return
	}

	// same tmpfile-then-rename dance for non-OS filesystems
	dir, _ := filepath.Split(file.Path)
	if dir == "" {
		dir = "."
	}
	err = file.Fs.MkdirAll(dir, 0755)
	Ck(err)
	tmp, err := afero.TempFile(file.Fs, dir, ".emdstore-*")
	Ck(err)
	_, err = tmp.Write(buf)
	if err != nil {
		tmp.Close()
		file.Fs.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	err = tmp.Close()
	Ck(err)
	err = file.Fs.Rename(tmp.Name(), file.Path)
	Ck(err)
	log.Debugf("saved store %s (%d bytes)", file.Path, len(buf))
	return
}

type wireDataset struct {
	Data  ndarray.Packed            `msgpack:"data"`
	Attrs map[string]ndarray.Packed `msgpack:"attrs,omitempty"`
}

type wireGroup struct {
	Attrs    map[string]ndarray.Packed `msgpack:"attrs,omitempty"`
	Groups   map[string]*wireGroup     `msgpack:"groups,omitempty"`
	Datasets map[string]*wireDataset   `msgpack:"datasets,omitempty"`
}

func packAttrs(at Attrs) (out map[string]ndarray.Packed, err error) {
	out = map[string]ndarray.Packed{}
	for k, v := range at {
		out[k], err = v.Pack()
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", k)
		}
	}
	return
}

func unpackAttrs(in map[string]ndarray.Packed) (at Attrs, err error) {
	at = Attrs{}
	for k, v := range in {
		at[k], err = v.Unpack()
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", k)
		}
	}
	return
}

func flatten(g *Group) (wire *wireGroup, err error) {
	wire = &wireGroup{
		Groups:   map[string]*wireGroup{},
		Datasets: map[string]*wireDataset{},
	}
	wire.Attrs, err = packAttrs(g.Attrs)
	if err != nil {
		return nil, errors.Wrapf(err, "group %s", g.Path())
	}
	for name, ds := range g.datasets {
		wds := &wireDataset{}
		wds.Data, err = ds.Data.Pack()
		if err != nil {
			return nil, errors.Wrapf(err, "dataset %s", ds.Path())
		}
		wds.Attrs, err = packAttrs(ds.Attrs)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset %s", ds.Path())
		}
		wire.Datasets[name] = wds
	}
	for name, child := range g.groups {
		wire.Groups[name], err = flatten(child)
		if err != nil {
			return
		}
	}
	return
}

func (wire *wireGroup) build(name string, parent *Group) (g *Group, err error) {
	g = newGroup(name, parent)
	g.Attrs, err = unpackAttrs(wire.Attrs)
	if err != nil {
		return
	}
	for dsname, wds := range wire.Datasets {
		data, err := wds.Data.Unpack()
		if err != nil {
			return nil, errors.Wrapf(err, "dataset %s", join(g.Path(), dsname))
		}
		attrs, err := unpackAttrs(wds.Attrs)
		if err != nil {
			return nil, err
		}
		g.datasets[dsname] = &Dataset{Attrs: attrs, name: dsname, parent: g, Data: data}
	}
	for childname, wchild := range wire.Groups {
		g.groups[childname], err = wchild.build(childname, g)
		if err != nil {
			return
		}
	}
	return
}

// OpenOrCreate opens path if it exists and otherwise returns a new,
// unsaved store for it.
func OpenOrCreate(fs afero.Fs, path string) (file *File, err error) {
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return
	}
	if ok {
		return Open(fs, path)
	}
	return NewFile(fs, path), nil
}
