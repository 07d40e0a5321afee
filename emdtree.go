package emdtree

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/legacy"
	"github.com/t7a/emdtree/payload"
	"github.com/t7a/emdtree/reconcile"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// NewRegistry returns a registry knowing the structural kinds and the
// built-in payloads.  Applications register their own kinds on top.
func NewRegistry() *emdio.Registry {
	reg := emdio.NewRegistry()
	payload.Register(reg)
	return reg
}

// Save stores n in the container at path.
func Save(fs afero.Fs, path string, n *tree.Node, opts reconcile.Options) error {
	return reconcile.Save(fs, path, n, opts)
}

// SaveValue stores a node, a bare array, a metadata record or map, or
// a mixed list of them.  See reconcile.SaveValue for the layouts.
func SaveValue(fs afero.Fs, path string, v interface{}, opts reconcile.Options) error {
	return reconcile.SaveValue(fs, path, v, opts)
}

// Read loads the node at emdpath from the container at path.  An
// empty emdpath selects the container's only root.
func Read(fs afero.Fs, path string, reg *emdio.Registry, emdpath string, depth emdio.Depth) (n *tree.Node, err error) {
	file, err := store.Open(fs, path)
	if err != nil {
		return
	}
	return emdio.Read(file.Root(), reg, emdpath, depth)
}

// ReadFile is Read with one fallback: a file holding no current-format
// header is tried as a version 0.1 container, whose data groups come
// back as Arrays under a root named after the file.
func ReadFile(fs afero.Fs, path string, reg *emdio.Registry, emdpath string, depth emdio.Depth) (n *tree.Node, err error) {
	file, err := store.Open(fs, path)
	if err != nil {
		return
	}
	top := file.Root()
	_, herr := emdio.ReadHeader(top)
	if herr != nil && legacy.IsLegacy(top) {
		log.Debugf("%s: %v; reading as version 0.1", path, herr)
		return legacy.Read(top, path)
	}
	return emdio.Read(top, reg, emdpath, depth)
}

// Info describes a container.
type Info struct {
	Header emdio.Header
	Roots  []string
}

// Stat reads a container's header and root names.
func Stat(fs afero.Fs, path string) (info Info, err error) {
	file, err := store.Open(fs, path)
	if err != nil {
		return
	}
	info.Header, err = emdio.ReadHeader(file.Root())
	if err != nil {
		return
	}
	info.Roots = emdio.Roots(file.Root())
	return
}
