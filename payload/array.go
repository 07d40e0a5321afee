// Package payload holds the built-in leaf kinds: calibrated arrays,
// point lists, grids of point lists, and composite custom nodes.
package payload

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	. "github.com/stevegt/goadapt"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

const labelsName = "_labels_"

// Array is an n-d array with units and one calibration vector per
// dimension.  A stack holds several equally shaped arrays along its
// first axis, each named by a slice label.
type Array struct {
	Data        *ndarray.Array
	Units       string
	Dims        []*ndarray.Array
	DimNames    []string
	DimUnits    []string
	SliceLabels []string
}

// NewArray wraps data with pixel calibrations on every axis.
func NewArray(data *ndarray.Array) (a *Array, err error) {
	return newArray(data, nil)
}

// NewStack wraps data as a stack of arrays along its first axis.
// Missing labels are filled in as array<i>; extra labels are dropped.
func NewStack(data *ndarray.Array, labels []string) (a *Array, err error) {
	if data.Ndim() < 1 {
		return nil, fmt.Errorf("a stack needs at least one axis, got shape %v", data.Shape)
	}
	depth := data.Shape[0]
	full := make([]string, depth)
	for i := range full {
		if i < len(labels) {
			full[i] = labels[i]
		} else {
			full[i] = fmt.Sprintf("array%d", i)
		}
	}
	return newArray(data, full)
}

func newArray(data *ndarray.Array, labels []string) (a *Array, err error) {
	if data == nil {
		return nil, fmt.Errorf("nil array data")
	}
	a = &Array{Data: data, SliceLabels: labels}
	rank := a.Rank()
	a.Dims = make([]*ndarray.Array, rank)
	a.DimNames = make([]string, rank)
	a.DimUnits = make([]string, rank)
	for n := 0; n < rank; n++ {
		err = a.SetDim(n, nil, "pixels", fmt.Sprintf("dim%d", n))
		if err != nil {
			return nil, err
		}
	}
	return
}

func (*Array) GroupType() tree.GroupType { return tree.GroupArray }
func (*Array) KindName() string          { return "Array" }

func (a *Array) IsStack() bool {
	return a.SliceLabels != nil
}

// Rank counts calibrated axes, leaving out a stack's first axis.
func (a *Array) Rank() int {
	if a.IsStack() {
		return a.Data.Ndim() - 1
	}
	return a.Data.Ndim()
}

// Depth is the number of arrays in a stack, 0 otherwise.
func (a *Array) Depth() int {
	if a.IsStack() {
		return a.Data.Shape[0]
	}
	return 0
}

// Shape is the shape of one array, leaving out a stack's first axis.
func (a *Array) Shape() []int {
	if a.IsStack() {
		return a.Data.Shape[1:]
	}
	return a.Data.Shape
}

// SetDim sets axis n's calibration.  dim may be nil (pixel indices),
// hold one number (the step from zero), two numbers (the first two
// samples of a linear vector), or exactly one value per sample.
// Empty units or name leave the current ones.
func (a *Array) SetDim(n int, dim *ndarray.Array, units, name string) (err error) {
	if n < 0 || n >= a.Rank() {
		return fmt.Errorf("dim %d out of range for rank %d", n, a.Rank())
	}
	full, err := unpackDim(dim, a.Shape()[n])
	if err != nil {
		return errors.Wrapf(err, "dim %d", n)
	}
	a.Dims[n] = full
	if units != "" {
		a.DimUnits[n] = units
	}
	if name != "" {
		a.DimNames[n] = name
	}
	return
}

// unpackDim expands a calibration to length samples.
func unpackDim(dim *ndarray.Array, length int) (full *ndarray.Array, err error) {
	if dim == nil {
		return ndarray.Arange(0, 1, length), nil
	}
	if dim.Ndim() > 1 {
		return nil, fmt.Errorf("calibration must be 1-d, got shape %v", dim.Shape)
	}
	n := dim.Size()
	if !dim.Dtype.IsNumeric() {
		if n != length {
			return nil, fmt.Errorf("non-numeric calibration has %d values for %d samples", n, length)
		}
		return dim, nil
	}
	if n == length {
		return dim, nil
	}
	vals, _ := dim.Float64s()
	switch n {
	case 1:
		return ndarray.Arange(0, vals[0], length), nil
	case 2:
		return ndarray.Arange(vals[0], vals[1]-vals[0], length), nil
	}
	return nil, fmt.Errorf("calibration has %d values; want 1, 2 or %d", n, length)
}

// isLinear reports whether dim is the linear extension of its first
// two samples.
func isLinear(dim *ndarray.Array) bool {
	if !dim.Dtype.IsNumeric() || dim.Size() <= 2 {
		return true
	}
	vals, _ := dim.Float64s()
	step := vals[1] - vals[0]
	for i, v := range vals {
		want := vals[0] + step*float64(i)
		if math.Abs(v-want) > 1e-9*math.Max(1, math.Abs(want)) {
			return false
		}
	}
	return true
}

// Slice returns the stack member called label as a new Array.
func (a *Array) Slice(label string) (out *Array, err error) {
	if !a.IsStack() {
		return nil, fmt.Errorf("not a stack")
	}
	for i, l := range a.SliceLabels {
		if l != label {
			continue
		}
		per := 1
		for _, s := range a.Shape() {
			per *= s
		}
		flat := &ndarray.Array{Dtype: a.Data.Dtype, Shape: []int{a.Data.Size()}, Data: a.Data.Data}
		part, err := flat.Slice(i*per, (i+1)*per)
		if err != nil {
			return nil, err
		}
		part = part.Copy()
		part.Shape = append([]int{}, a.Shape()...)
		out = &Array{
			Data:     part,
			Units:    a.Units,
			Dims:     append([]*ndarray.Array{}, a.Dims...),
			DimNames: append([]string{}, a.DimNames...),
			DimUnits: append([]string{}, a.DimUnits...),
		}
		return out, nil
	}
	return nil, fmt.Errorf("no slice labelled %q", label)
}

// Serialize stores the data as "data" and each calibration as
// "dim<n>", linear ones cut down to their first two samples.  A stack's
// labels go last, named "_labels_".
func (a *Array) Serialize(grp *store.Group) (err error) {
	defer Return(&err)
	ds, err := grp.CreateDataset("data", a.Data.Copy())
	Ck(err)
	ds.SetStringAttr("units", a.Units)
	for n := 0; n < a.Rank(); n++ {
		dim := a.Dims[n]
		if isLinear(dim) && dim.Size() > 2 {
			dim, _ = dim.Slice(0, 2)
		}
		ds, err = grp.CreateDataset(fmt.Sprintf("dim%d", n), dim.Copy())
		Ck(err, "dim%d", n)
		ds.SetStringAttr("name", a.DimNames[n])
		ds.SetStringAttr("units", a.DimUnits[n])
	}
	if a.IsStack() {
		ds, err = grp.CreateDataset(fmt.Sprintf("dim%d", a.Rank()), ndarray.MustNew(append([]string{}, a.SliceLabels...)))
		Ck(err)
		ds.SetStringAttr("name", labelsName)
	}
	return
}

type arrayKind struct{}

func (arrayKind) GroupType() tree.GroupType { return tree.GroupArray }

func (arrayKind) Args(grp *store.Group) (args interface{}, err error) {
	ds, err := grp.Dataset("data")
	if err != nil {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: "array without data"}
	}
	data := ds.Data
	units, _ := ds.StringAttr("units")
	rank := data.Ndim()

	var labels []string
	if rank > 0 {
		last, err := grp.Dataset(fmt.Sprintf("dim%d", rank-1))
		if err == nil {
			name, _ := last.StringAttr("name")
			if name == labelsName {
				labels, _ = last.Data.Strings()
				rank--
			}
		}
	}

	a, err := newArray(data, labels)
	if err != nil {
		return nil, &tree.FormatError{Path: grp.Path(), Reason: err.Error()}
	}
	a.Units = units
	for n := 0; n < rank; n++ {
		dimds, err := grp.Dataset(fmt.Sprintf("dim%d", n))
		if err != nil {
			continue
		}
		name, _ := dimds.StringAttr("name")
		dunits, _ := dimds.StringAttr("units")
		err = a.SetDim(n, dimds.Data, dunits, name)
		if err != nil {
			return nil, &tree.FormatError{Path: grp.Path(), Reason: err.Error()}
		}
	}
	return a, nil
}

func (arrayKind) New(args interface{}) (tree.Payload, error) {
	a, ok := args.(*Array)
	if !ok {
		return nil, fmt.Errorf("array kind: unexpected args %T", args)
	}
	return a, nil
}

func (arrayKind) PostInit(*tree.Node, *store.Group, *emdio.Registry) error { return nil }
