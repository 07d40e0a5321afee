package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/t7a/emdtree/ndarray"
)

// Attrs holds the named attributes of a group or dataset.  Attribute
// values are small arrays; scalars are 0-d.
type Attrs map[string]*ndarray.Array

// SetAttr creates or replaces an attribute.
func (at Attrs) SetAttr(name string, val *ndarray.Array) {
	at[name] = val
}

// SetStringAttr stores a scalar string attribute.
func (at Attrs) SetStringAttr(name, val string) {
	at[name] = &ndarray.Array{Dtype: ndarray.String, Shape: []int{}, Data: []string{val}}
}

// SetIntAttr stores a scalar int64 attribute.
func (at Attrs) SetIntAttr(name string, val int64) {
	at[name] = &ndarray.Array{Dtype: ndarray.Int64, Shape: []int{}, Data: []int64{val}}
}

// Attr returns the named attribute.
func (at Attrs) Attr(name string) (val *ndarray.Array, ok bool) {
	val, ok = at[name]
	return
}

// HasAttr reports whether the attribute exists.
func (at Attrs) HasAttr(name string) bool {
	_, ok := at[name]
	return ok
}

// StringAttr returns a scalar string attribute.
func (at Attrs) StringAttr(name string) (s string, ok bool) {
	val, ok := at[name]
	if !ok {
		return
	}
	strs, ok := val.Strings()
	if !ok || len(strs) != 1 {
		return "", false
	}
	return strs[0], true
}

// IntAttr returns a scalar integer attribute of any integer dtype.
func (at Attrs) IntAttr(name string) (n int64, ok bool) {
	val, ok := at[name]
	if !ok {
		return
	}
	ints, err := val.Int64s()
	if err != nil || len(ints) != 1 {
		return 0, false
	}
	return ints[0], true
}

// DeleteAttr removes an attribute; it is an error if it is absent.
func (at Attrs) DeleteAttr(name string) error {
	if _, ok := at[name]; !ok {
		return &NotFoundError{Path: "@" + name}
	}
	delete(at, name)
	return nil
}

// AttrNames lists attribute names in sorted order.
func (at Attrs) AttrNames() []string {
	names := make([]string, 0, len(at))
	for k := range at {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Dataset is a named typed array stored under a group.
type Dataset struct {
	Attrs
	name   string
	parent *Group
	Data   *ndarray.Array
}

// Name returns the dataset name.
func (ds *Dataset) Name() string {
	return ds.name
}

// Path returns the absolute path of the dataset.
func (ds *Dataset) Path() string {
	return join(ds.parent.Path(), ds.name)
}

// Group is a named container of child groups, datasets and
// attributes.  Groups and datasets share one namespace per group.
type Group struct {
	Attrs
	name     string
	parent   *Group
	groups   map[string]*Group
	datasets map[string]*Dataset
}

func newGroup(name string, parent *Group) *Group {
	return &Group{
		Attrs:    Attrs{},
		name:     name,
		parent:   parent,
		groups:   map[string]*Group{},
		datasets: map[string]*Dataset{},
	}
}

// NewGroup returns a detached top-level group, useful for scratch
// encoding.
func NewGroup() *Group {
	return newGroup("", nil)
}

// Name returns the group name; the top-level group has an empty name.
func (g *Group) Name() string {
	return g.name
}

// Parent returns the enclosing group, or nil at the top.
func (g *Group) Parent() *Group {
	return g.parent
}

// Path returns the absolute "/"-delimited path of the group.
func (g *Group) Path() string {
	if g.parent == nil {
		return "/"
	}
	return join(g.parent.Path(), g.name)
}

// Top returns the top-level group g belongs to.
func (g *Group) Top() *Group {
	for g.parent != nil {
		g = g.parent
	}
	return g
}

func join(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func checkName(name string) error {
	if name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}

// Has reports whether a child group or dataset called name exists.
func (g *Group) Has(name string) bool {
	_, isGroup := g.groups[name]
	_, isDataset := g.datasets[name]
	return isGroup || isDataset
}

// HasGroup reports whether a child group called name exists.
func (g *Group) HasGroup(name string) bool {
	_, ok := g.groups[name]
	return ok
}

// CreateGroup makes a new child group.
func (g *Group) CreateGroup(name string) (child *Group, err error) {
	err = checkName(name)
	if err != nil {
		return
	}
	if g.Has(name) {
		return nil, &ExistsError{Path: join(g.Path(), name)}
	}
	child = newGroup(name, g)
	g.groups[name] = child
	return
}

// RequireGroup opens the named child group, creating it if needed.
func (g *Group) RequireGroup(name string) (child *Group, err error) {
	child, ok := g.groups[name]
	if ok {
		return
	}
	return g.CreateGroup(name)
}

// Group opens an existing child group.
func (g *Group) Group(name string) (child *Group, err error) {
	child, ok := g.groups[name]
	if !ok {
		return nil, &NotFoundError{Path: join(g.Path(), name)}
	}
	return
}

// Lookup walks a "/"-delimited path.  A leading "/" starts from the
// top-level group; otherwise the walk starts at g.  Empty segments are
// ignored, so "" and "/" name the starting group itself.
func (g *Group) Lookup(path string) (found *Group, err error) {
	found = g
	if strings.HasPrefix(path, "/") {
		found = g.Top()
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		found, err = found.Group(part)
		if err != nil {
			return nil, err
		}
	}
	return
}

// Groups lists child group names in sorted order.
func (g *Group) Groups() []string {
	names := make([]string, 0, len(g.groups))
	for k := range g.groups {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Datasets lists dataset names in sorted order.
func (g *Group) Datasets() []string {
	names := make([]string, 0, len(g.datasets))
	for k := range g.datasets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CreateDataset stores data under name.
func (g *Group) CreateDataset(name string, data *ndarray.Array) (ds *Dataset, err error) {
	err = checkName(name)
	if err != nil {
		return
	}
	if data == nil {
		return nil, fmt.Errorf("nil data for dataset %s", join(g.Path(), name))
	}
	if g.Has(name) {
		return nil, &ExistsError{Path: join(g.Path(), name)}
	}
	ds = &Dataset{Attrs: Attrs{}, name: name, parent: g, Data: data}
	g.datasets[name] = ds
	return
}

// Dataset opens an existing dataset.
func (g *Group) Dataset(name string) (ds *Dataset, err error) {
	ds, ok := g.datasets[name]
	if !ok {
		return nil, &NotFoundError{Path: join(g.Path(), name)}
	}
	return
}

// HasDataset reports whether a dataset called name exists.
func (g *Group) HasDataset(name string) bool {
	_, ok := g.datasets[name]
	return ok
}

// Delete removes a child group (recursively) or dataset.
func (g *Group) Delete(name string) error {
	if child, ok := g.groups[name]; ok {
		child.parent = nil
		delete(g.groups, name)
		return nil
	}
	if _, ok := g.datasets[name]; ok {
		delete(g.datasets, name)
		return nil
	}
	return &NotFoundError{Path: join(g.Path(), name)}
}

// Move renames a child group or dataset within g.
func (g *Group) Move(src, dst string) (err error) {
	err = checkName(dst)
	if err != nil {
		return
	}
	if g.Has(dst) {
		return &ExistsError{Path: join(g.Path(), dst)}
	}
	if child, ok := g.groups[src]; ok {
		delete(g.groups, src)
		child.name = dst
		g.groups[dst] = child
		return
	}
	if ds, ok := g.datasets[src]; ok {
		delete(g.datasets, src)
		ds.name = dst
		g.datasets[dst] = ds
		return
	}
	return &NotFoundError{Path: join(g.Path(), src)}
}

// Adopt re-homes an existing group under g as name, detaching it from
// its previous parent.
func (g *Group) Adopt(name string, child *Group) (err error) {
	err = checkName(name)
	if err != nil {
		return
	}
	if child.Contains(g) {
		return fmt.Errorf("cannot move %s under itself", child.Path())
	}
	if g.Has(name) {
		return &ExistsError{Path: join(g.Path(), name)}
	}
	if child.parent != nil {
		delete(child.parent.groups, child.name)
	}
	child.parent = g
	child.name = name
	g.groups[name] = child
	return
}

// Contains reports whether other is g or lies below g.
func (g *Group) Contains(other *Group) bool {
	for x := other; x != nil; x = x.parent {
		if x == g {
			return true
		}
	}
	return false
}
