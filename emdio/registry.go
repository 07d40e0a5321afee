// Package emdio moves trees between memory and a store: one group per
// node, tagged with its structural group type and its concrete kind,
// holding the node's payload and a metadata bundle.
package emdio

import (
	"fmt"
	"sort"

	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// Kind rebuilds one concrete kind of node from its group.  Reading a
// node asks the kind for constructor arguments, builds the payload
// from them, then lets the kind finish the node once it exists.
type Kind interface {
	GroupType() tree.GroupType
	Args(grp *store.Group) (args interface{}, err error)
	New(args interface{}) (tree.Payload, error)
	PostInit(n *tree.Node, grp *store.Group, reg *Registry) error
}

// Serializer is implemented by payloads that store data of their own
// in the node's group.
type Serializer interface {
	Serialize(grp *store.Group) error
}

// Registry maps kind names, as stored in the emd_kind attribute, to
// kinds.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry returns a registry that knows Node and Root.
func NewRegistry() *Registry {
	reg := &Registry{kinds: map[string]Kind{}}
	reg.Register("Node", structural{tree.GroupNode})
	reg.Register("Root", structural{tree.GroupRoot})
	return reg
}

// Register makes a kind available by name.  It panics if kind is nil
// or name is taken.
func (reg *Registry) Register(name string, kind Kind) {
	if kind == nil {
		panic("emdio: Register kind is nil")
	}
	if _, dup := reg.kinds[name]; dup {
		panic(fmt.Sprintf("emdio: Register called twice for kind %s", name))
	}
	reg.kinds[name] = kind
}

// Lookup returns the kind registered under name.
func (reg *Registry) Lookup(name string) (kind Kind, err error) {
	kind, ok := reg.kinds[name]
	if !ok {
		return nil, &tree.FormatError{Reason: fmt.Sprintf("unknown node kind %q", name)}
	}
	return
}

// Names lists registered kinds, sorted.
func (reg *Registry) Names() (names []string) {
	for name := range reg.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// structural is the kind of nodes without a payload.
type structural struct {
	gt tree.GroupType
}

func (k structural) GroupType() tree.GroupType                         { return k.gt }
func (structural) Args(*store.Group) (interface{}, error)              { return nil, nil }
func (structural) New(interface{}) (tree.Payload, error)               { return nil, nil }
func (structural) PostInit(*tree.Node, *store.Group, *Registry) error { return nil }
