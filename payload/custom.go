package payload

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// Custom is a composite payload made of named node-valued parts.  Each
// part is stored as a child group with a custom_ prefixed group type,
// so tree traversal never mistakes it for a child node.
type Custom struct {
	Kind  string
	Parts map[string]*tree.Node
}

// NewCustom returns an empty composite of the given kind.  An empty
// kind registers as plain "Custom".
func NewCustom(kind string) *Custom {
	return &Custom{Kind: kind, Parts: map[string]*tree.Node{}}
}

func (*Custom) GroupType() tree.GroupType { return tree.GroupCustom }

func (c *Custom) KindName() string {
	if c.Kind == "" {
		return "Custom"
	}
	return c.Kind
}

// SetPart stores n, which must be a detached non-root node, as part
// name.
func (c *Custom) SetPart(name string, n *tree.Node) error {
	if n == nil || n.IsRoot() || n.Root() != nil {
		return &tree.StructureError{Op: "set part", Node: name, Reason: "parts must be detached non-root nodes"}
	}
	if c.Parts == nil {
		c.Parts = map[string]*tree.Node{}
	}
	c.Parts[name] = n
	return nil
}

// PartNames lists the parts in name order.
func (c *Custom) PartNames() (names []string) {
	for k := range c.Parts {
		names = append(names, k)
	}
	sort.Strings(names)
	return
}

func (c *Custom) Serialize(grp *store.Group) (err error) {
	defer Return(&err)
	for _, name := range c.PartNames() {
		_, err = emdio.WritePart(grp, name, c.Parts[name])
		Ck(err, "part %s", name)
	}
	return
}

// CustomKind reads Custom payloads written under a given kind name.
// Register one per composite kind an application defines.
type CustomKind struct {
	Name string
}

func (CustomKind) GroupType() tree.GroupType { return tree.GroupCustom }

func (k CustomKind) Args(*store.Group) (interface{}, error) {
	return k.Name, nil
}

func (CustomKind) New(args interface{}) (tree.Payload, error) {
	name, ok := args.(string)
	if !ok {
		return nil, fmt.Errorf("custom kind: unexpected args %T", args)
	}
	if name == "Custom" {
		name = ""
	}
	return NewCustom(name), nil
}

// PostInit reads every custom_ prefixed group under grp back into the
// node's parts.
func (CustomKind) PostInit(n *tree.Node, grp *store.Group, reg *emdio.Registry) (err error) {
	c, ok := n.Payload().(*Custom)
	if !ok {
		return fmt.Errorf("custom kind: payload is %T", n.Payload())
	}
	for _, name := range grp.Groups() {
		sub, _ := grp.Group(name)
		gt, _ := sub.StringAttr(emdio.GroupTypeAttr)
		if !tree.GroupType(gt).IsPart() {
			continue
		}
		part, err := emdio.ReadNode(sub, reg)
		if err != nil {
			return err
		}
		c.Parts[name] = part
		log.Debugf("custom %s: read part %s", n.Name(), name)
	}
	return
}
