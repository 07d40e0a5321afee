package payload

import (
	"fmt"

	. "github.com/stevegt/goadapt"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// PointListArray is a 2-d grid of PointLists that share one set of
// fields.
type PointListArray struct {
	Fields []Field
	Shape  [2]int
	lists  []*PointList
}

// NewPointListArray returns a rows x cols grid of empty lists.
func NewPointListArray(rows, cols int, fields ...Field) (pla *PointListArray, err error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("bad grid shape (%d, %d)", rows, cols)
	}
	pla = &PointListArray{Fields: append([]Field{}, fields...), Shape: [2]int{rows, cols}}
	pla.lists = make([]*PointList, rows*cols)
	for i := range pla.lists {
		pla.lists[i], err = NewPointList(fields...)
		if err != nil {
			return nil, err
		}
	}
	return
}

func (*PointListArray) GroupType() tree.GroupType { return tree.GroupPointListArray }
func (*PointListArray) KindName() string          { return "PointListArray" }

func (pla *PointListArray) index(i, j int) (int, error) {
	if i < 0 || j < 0 || i >= pla.Shape[0] || j >= pla.Shape[1] {
		return 0, fmt.Errorf("index (%d, %d) out of range for shape %v", i, j, pla.Shape)
	}
	return i*pla.Shape[1] + j, nil
}

// At returns the list at row i, column j.
func (pla *PointListArray) At(i, j int) (pl *PointList, err error) {
	k, err := pla.index(i, j)
	if err != nil {
		return
	}
	return pla.lists[k], nil
}

// Set replaces the list at row i, column j.  Its fields must match.
func (pla *PointListArray) Set(i, j int, pl *PointList) (err error) {
	k, err := pla.index(i, j)
	if err != nil {
		return
	}
	if !pl.SameFields(&PointList{Fields: pla.Fields}) {
		return fmt.Errorf("point list fields differ from the grid's")
	}
	pla.lists[k] = pl
	return
}

// Equal compares shape, fields and every list.
func (pla *PointListArray) Equal(other *PointListArray) bool {
	if pla.Shape != other.Shape || len(pla.lists) != len(other.lists) {
		return false
	}
	for k := range pla.lists {
		if !pla.lists[k].Equal(other.lists[k]) {
			return false
		}
	}
	return true
}

// Serialize stores a "counts" dataset of shape (rows, cols) holding
// each list's length, and under the plain "data" subgroup one dataset
// per field with every list's column concatenated in row-major order.
func (pla *PointListArray) Serialize(grp *store.Group) (err error) {
	defer Return(&err)
	names := fieldNames(pla.Fields)
	dtypes := make([]string, len(pla.Fields))
	for i, f := range pla.Fields {
		dtypes[i] = string(f.Dtype)
	}
	grp.SetAttr("fields", ndarray.MustNew(names))
	grp.SetAttr("dtypes", ndarray.MustNew(dtypes))

	counts := make([]int64, len(pla.lists))
	for k, pl := range pla.lists {
		counts[k] = int64(pl.Len())
	}
	_, err = grp.CreateDataset("counts", ndarray.MustNew(counts, pla.Shape[0], pla.Shape[1]))
	Ck(err)

	data, err := grp.CreateGroup("data")
	Ck(err)
	for _, f := range pla.Fields {
		cols := make([]*ndarray.Array, len(pla.lists))
		for k, pl := range pla.lists {
			cols[k], _ = pl.Column(f.Name)
		}
		joined, err := ndarray.Concat(f.Dtype, cols...)
		Ck(err, "field %s", f.Name)
		_, err = data.CreateDataset(f.Name, joined)
		Ck(err)
	}
	return
}

type pointListArrayKind struct{}

func (pointListArrayKind) GroupType() tree.GroupType { return tree.GroupPointListArray }

func (pointListArrayKind) Args(grp *store.Group) (args interface{}, err error) {
	bad := func(reason string, a ...interface{}) error {
		return &tree.FormatError{Path: grp.Path(), Reason: fmt.Sprintf(reason, a...)}
	}
	fattr, ok := grp.Attr("fields")
	if !ok {
		return nil, bad("no fields attribute")
	}
	names, _ := fattr.Strings()
	dattr, ok := grp.Attr("dtypes")
	if !ok {
		return nil, bad("no dtypes attribute")
	}
	dtypes, _ := dattr.Strings()
	if len(names) != len(dtypes) {
		return nil, bad("%d fields with %d dtypes", len(names), len(dtypes))
	}
	fields := make([]Field, len(names))
	for i := range names {
		fields[i] = Field{Name: names[i], Dtype: ndarray.Dtype(dtypes[i])}
	}

	cds, err := grp.Dataset("counts")
	if err != nil || cds.Data.Ndim() != 2 {
		return nil, bad("missing or malformed counts")
	}
	counts, err := cds.Data.Int64s()
	if err != nil {
		return nil, bad("counts: %v", err)
	}
	pla, err := NewPointListArray(cds.Data.Shape[0], cds.Data.Shape[1], fields...)
	if err != nil {
		return nil, bad("%v", err)
	}
	data, err := grp.Group("data")
	if err != nil {
		return nil, bad("no data group")
	}

	columns := make([]*ndarray.Array, len(fields))
	for i, f := range fields {
		ds, err := data.Dataset(f.Name)
		if err != nil {
			return nil, bad("missing field %s", f.Name)
		}
		columns[i] = ds.Data
	}
	offset := 0
	for k, n := range counts {
		end := offset + int(n)
		parts := make([]*ndarray.Array, len(fields))
		for i := range fields {
			parts[i], err = columns[i].Slice(offset, end)
			if err != nil {
				return nil, bad("field %s: %v", fields[i].Name, err)
			}
			parts[i] = parts[i].Copy()
		}
		err = pla.lists[k].AppendColumns(parts...)
		if err != nil {
			return nil, bad("%v", err)
		}
		offset = end
	}
	return pla, nil
}

func (pointListArrayKind) New(args interface{}) (tree.Payload, error) {
	pla, ok := args.(*PointListArray)
	if !ok {
		return nil, fmt.Errorf("pointlistarray kind: unexpected args %T", args)
	}
	return pla, nil
}

func (pointListArrayKind) PostInit(*tree.Node, *store.Group, *emdio.Registry) error { return nil }
