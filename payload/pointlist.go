package payload

import (
	"fmt"

	. "github.com/stevegt/goadapt"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// Field is one named column of a PointList.
type Field struct {
	Name  string
	Dtype ndarray.Dtype
}

// PointList is a set of points, one 1-d column per field, all of the
// same length.
type PointList struct {
	Fields  []Field
	columns map[string]*ndarray.Array
}

// NewPointList returns an empty list with the given fields.
func NewPointList(fields ...Field) (pl *PointList, err error) {
	pl = &PointList{columns: map[string]*ndarray.Array{}}
	for _, f := range fields {
		if _, dup := pl.columns[f.Name]; dup || f.Name == "" {
			return nil, fmt.Errorf("bad or duplicate field name %q", f.Name)
		}
		pl.columns[f.Name], err = ndarray.Zeros(f.Dtype, 0)
		if err != nil {
			return nil, err
		}
		pl.Fields = append(pl.Fields, f)
	}
	return
}

// PointListOf builds a list from named columns, in the given order.
func PointListOf(names []string, columns ...*ndarray.Array) (pl *PointList, err error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("%d names for %d columns", len(names), len(columns))
	}
	fields := make([]Field, len(names))
	for i, c := range columns {
		fields[i] = Field{Name: names[i], Dtype: c.Dtype}
	}
	pl, err = NewPointList(fields...)
	if err != nil {
		return
	}
	return pl, pl.AppendColumns(columns...)
}

func (*PointList) GroupType() tree.GroupType { return tree.GroupPointList }
func (*PointList) KindName() string          { return "PointList" }

// Len is the number of points.
func (pl *PointList) Len() int {
	if len(pl.Fields) == 0 {
		return 0
	}
	return pl.columns[pl.Fields[0].Name].Size()
}

// Column returns the data for field name.
func (pl *PointList) Column(name string) (col *ndarray.Array, ok bool) {
	col, ok = pl.columns[name]
	return
}

// SameFields reports whether other has the same field names and
// dtypes in the same order.
func (pl *PointList) SameFields(other *PointList) bool {
	if len(pl.Fields) != len(other.Fields) {
		return false
	}
	for i := range pl.Fields {
		if pl.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// AppendColumns adds points given one column per field, in field
// order.
func (pl *PointList) AppendColumns(columns ...*ndarray.Array) (err error) {
	if len(columns) != len(pl.Fields) {
		return fmt.Errorf("%d columns for %d fields", len(columns), len(pl.Fields))
	}
	n := -1
	for i, c := range columns {
		if c.Ndim() != 1 {
			return fmt.Errorf("field %s: columns must be 1-d, got shape %v", pl.Fields[i].Name, c.Shape)
		}
		if n >= 0 && c.Size() != n {
			return fmt.Errorf("field %s: %d values, want %d", pl.Fields[i].Name, c.Size(), n)
		}
		n = c.Size()
	}
	joined := make([]*ndarray.Array, len(columns))
	for i, f := range pl.Fields {
		joined[i], err = ndarray.Concat(f.Dtype, pl.columns[f.Name], columns[i])
		if err != nil {
			return fmt.Errorf("field %s: %v", f.Name, err)
		}
	}
	for i, f := range pl.Fields {
		pl.columns[f.Name] = joined[i]
	}
	return
}

// Append adds every point of other, whose fields must match.
func (pl *PointList) Append(other *PointList) error {
	if !pl.SameFields(other) {
		return fmt.Errorf("point list fields differ")
	}
	cols := make([]*ndarray.Array, len(other.Fields))
	for i, f := range other.Fields {
		cols[i] = other.columns[f.Name]
	}
	return pl.AppendColumns(cols...)
}

// Remove drops every point whose mask entry is true.
func (pl *PointList) Remove(mask []bool) (err error) {
	if len(mask) != pl.Len() {
		return fmt.Errorf("mask has %d entries for %d points", len(mask), pl.Len())
	}
	var keep []int
	for i, drop := range mask {
		if !drop {
			keep = append(keep, i)
		}
	}
	for _, f := range pl.Fields {
		pl.columns[f.Name], err = pl.columns[f.Name].Take(keep)
		if err != nil {
			return
		}
	}
	return
}

// Copy returns an independent list.
func (pl *PointList) Copy() *PointList {
	out := &PointList{Fields: append([]Field{}, pl.Fields...), columns: map[string]*ndarray.Array{}}
	for k, v := range pl.columns {
		out.columns[k] = v.Copy()
	}
	return out
}

// Equal compares fields and data.
func (pl *PointList) Equal(other *PointList) bool {
	if !pl.SameFields(other) {
		return false
	}
	for _, f := range pl.Fields {
		if !pl.columns[f.Name].Equal(other.columns[f.Name]) {
			return false
		}
	}
	return true
}

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Serialize stores each field as a dataset named after it, and the
// field order in the "fields" attribute.
func (pl *PointList) Serialize(grp *store.Group) (err error) {
	defer Return(&err)
	grp.SetAttr("fields", ndarray.MustNew(fieldNames(pl.Fields)))
	for _, f := range pl.Fields {
		ds, err := grp.CreateDataset(f.Name, pl.columns[f.Name].Copy())
		Ck(err, "field %s", f.Name)
		ds.SetStringAttr("dtype", string(f.Dtype))
	}
	return
}

// storedFields returns the field order of grp: the "fields" attribute
// when present, else every dataset in name order.
func storedFields(grp *store.Group) []string {
	if a, ok := grp.Attr("fields"); ok {
		if names, ok := a.Strings(); ok {
			return names
		}
	}
	return grp.Datasets()
}

type pointListKind struct{}

func (pointListKind) GroupType() tree.GroupType { return tree.GroupPointList }

func (pointListKind) Args(grp *store.Group) (interface{}, error) {
	names := storedFields(grp)
	cols := make([]*ndarray.Array, len(names))
	for i, name := range names {
		ds, err := grp.Dataset(name)
		if err != nil {
			return nil, &tree.FormatError{Path: grp.Path(), Reason: fmt.Sprintf("missing field %s", name)}
		}
		cols[i] = ds.Data
	}
	pl, err := PointListOf(names, cols...)
	if err != nil {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: err.Error()}
	}
	return pl, nil
}

func (pointListKind) New(args interface{}) (tree.Payload, error) {
	pl, ok := args.(*PointList)
	if !ok {
		return nil, fmt.Errorf("pointlist kind: unexpected args %T", args)
	}
	return pl, nil
}

func (pointListKind) PostInit(*tree.Node, *store.Group, *emdio.Registry) error { return nil }
