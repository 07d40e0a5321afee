package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

func registry() *emdio.Registry {
	reg := emdio.NewRegistry()
	Register(reg)
	return reg
}

func roundTrip(t *testing.T, root *tree.Node) *tree.Node {
	top := store.NewGroup()
	emdio.WriteHeader(top, emdio.Session{Program: "payload test"})
	_, err := emdio.Write(top, root, emdio.Subtree)
	require.NoError(t, err)
	got, err := emdio.Read(top, registry(), "", emdio.Subtree)
	require.NoError(t, err)
	return got
}

func xy() []Field {
	return []Field{{Name: "qx", Dtype: ndarray.Float64}, {Name: "intensity", Dtype: ndarray.Int64}}
}

func TestArrayAndGrid(t *testing.T) {
	root := tree.NewRoot("root")
	a, err := NewArray(ndarray.MustNew([]int64{1, 2, 3, 4}, 2, 2))
	require.NoError(t, err)
	arr := tree.NewNode("array", a)
	require.NoError(t, root.Add(arr))

	pla, err := NewPointListArray(3, 4, xy()...)
	require.NoError(t, err)
	pl, err := pla.At(1, 2)
	require.NoError(t, err)
	require.NoError(t, pl.AppendColumns(ndarray.MustNew([]float64{0.5, 1.5}), ndarray.MustNew([]int64{7, 9})))
	require.NoError(t, arr.Add(tree.NewNode("pointlistarray", pla)))

	got := roundTrip(t, root)

	gotArr, err := got.Get("array")
	require.NoError(t, err)
	ga, ok := gotArr.Payload().(*Array)
	require.True(t, ok)
	assert.True(t, ga.Data.Equal(ndarray.MustNew([]int64{1, 2, 3, 4}, 2, 2)), "got %v", ga.Data)

	gotPla, err := got.Get("array/pointlistarray")
	require.NoError(t, err)
	gp, ok := gotPla.Payload().(*PointListArray)
	require.True(t, ok)
	assert.Equal(t, [2]int{3, 4}, gp.Shape)
	assert.True(t, gp.Equal(pla))
	cell, _ := gp.At(1, 2)
	assert.Equal(t, 2, cell.Len())
	empty, _ := gp.At(0, 0)
	assert.Equal(t, 0, empty.Len())

	_, err = gp.At(3, 0)
	assert.Error(t, err)
}

func TestArrayCalibration(t *testing.T) {
	a, err := NewArray(ndarray.MustNew([]float64{1, 2, 3, 4, 5, 6}, 2, 3))
	require.NoError(t, err)
	a.Units = "counts"
	require.NoError(t, a.SetDim(1, ndarray.MustNew([]float64{10, 12}), "nm", "x"))
	require.NoError(t, a.SetDim(0, ndarray.MustNew([]float64{0, 1}), "", ""))
	d, _ := a.Dims[1].Float64s()
	assert.Equal(t, []float64{10, 12, 14}, d)
	assert.Error(t, a.SetDim(1, ndarray.MustNew([]float64{1, 2, 3, 4}), "", ""))
	assert.Error(t, a.SetDim(2, nil, "", ""))

	// a non-linear calibration is stored whole
	require.NoError(t, a.SetDim(0, ndarray.MustNew([]float64{0, 5}), "s", "t"))
	nonlin := ndarray.MustNew([]float64{0, 1, 4})
	require.NoError(t, a.SetDim(1, nonlin, "", ""))

	grp := store.NewGroup()
	require.NoError(t, a.Serialize(grp))
	dim0, err := grp.Dataset("dim0")
	require.NoError(t, err)
	assert.Equal(t, 2, dim0.Data.Size())
	dim1, _ := grp.Dataset("dim1")
	assert.Equal(t, 3, dim1.Data.Size())

	args, err := arrayKind{}.Args(grp)
	require.NoError(t, err)
	back := args.(*Array)
	assert.Equal(t, "counts", back.Units)
	assert.Equal(t, []string{"t", "x"}, back.DimNames)
	assert.Equal(t, []string{"s", "nm"}, back.DimUnits)
	assert.True(t, back.Dims[1].Equal(nonlin))
	d0, _ := back.Dims[0].Float64s()
	assert.Equal(t, []float64{0, 5}, d0)
}

func TestStack(t *testing.T) {
	a, err := NewStack(ndarray.MustNew([]int32{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2), []string{"first"})
	require.NoError(t, err)
	assert.True(t, a.IsStack())
	assert.Equal(t, 2, a.Rank())
	assert.Equal(t, 2, a.Depth())
	assert.Equal(t, []string{"first", "array1"}, a.SliceLabels)

	root := tree.NewRoot("root")
	require.NoError(t, root.Add(tree.NewNode("stack", a)))
	got := roundTrip(t, root)
	n, err := got.Get("stack")
	require.NoError(t, err)
	back := n.Payload().(*Array)
	assert.Equal(t, a.SliceLabels, back.SliceLabels)
	assert.Equal(t, 2, back.Rank())

	second, err := back.Slice("array1")
	require.NoError(t, err)
	assert.True(t, second.Data.Equal(ndarray.MustNew([]int32{5, 6, 7, 8}, 2, 2)))
	_, err = back.Slice("nope")
	assert.Error(t, err)
}

func TestPointList(t *testing.T) {
	pl, err := PointListOf([]string{"x", "y"}, ndarray.MustNew([]float64{1, 2, 3}), ndarray.MustNew([]float64{4, 5, 6}))
	require.NoError(t, err)
	assert.Equal(t, 3, pl.Len())

	cp := pl.Copy()
	require.NoError(t, pl.Append(cp))
	assert.Equal(t, 6, pl.Len())
	require.NoError(t, pl.Remove([]bool{true, false, false, true, true, true}))
	x, _ := pl.Column("x")
	assert.True(t, x.Equal(ndarray.MustNew([]float64{2, 3})))
	assert.Equal(t, 3, cp.Len())

	other, _ := NewPointList(Field{Name: "x", Dtype: ndarray.Int64})
	assert.Error(t, pl.Append(other))
	assert.Error(t, pl.AppendColumns(ndarray.MustNew([]float64{1}), ndarray.MustNew([]float64{1, 2})))
	_, err = NewPointList(Field{Name: "x", Dtype: ndarray.Int64}, Field{Name: "x", Dtype: ndarray.Int64})
	assert.Error(t, err)

	root := tree.NewRoot("root")
	require.NoError(t, root.Add(tree.NewNode("points", pl)))
	got := roundTrip(t, root)
	n, _ := got.Get("points")
	back := n.Payload().(*PointList)
	assert.True(t, back.Equal(pl))
	assert.Equal(t, []string{"x", "y"}, fieldNames(back.Fields))
}

func TestCustom(t *testing.T) {
	probe, err := NewArray(ndarray.MustNew([]float64{0.1, 0.2, 0.3}))
	require.NoError(t, err)
	c := NewCustom("")
	require.NoError(t, c.SetPart("probe", tree.NewNode("probe", probe)))
	assert.Error(t, c.SetPart("bad", tree.NewRoot("r")))

	root := tree.NewRoot("root")
	node := tree.NewNode("composite", c)
	require.NoError(t, root.Add(node))
	require.NoError(t, node.Add(tree.NewNode("child", nil)))

	got := roundTrip(t, root)
	n, err := got.Get("composite")
	require.NoError(t, err)
	assert.Equal(t, []string{"child"}, n.Keys(), "parts are not tree children")
	back, ok := n.Payload().(*Custom)
	require.True(t, ok)
	assert.Equal(t, "Custom", back.KindName())
	assert.Equal(t, []string{"probe"}, back.PartNames())
	p := back.Parts["probe"].Payload().(*Array)
	assert.True(t, p.Data.Equal(probe.Data))
}

func TestRegisterTwicePanics(t *testing.T) {
	reg := registry()
	assert.Equal(t, []string{"Array", "Custom", "Node", "PointList", "PointListArray", "Root"}, reg.Names())
	assert.Panics(t, func() { Register(reg) })
}

func TestSerializeIntoUsedGroup(t *testing.T) {
	a, err := NewArray(ndarray.MustNew([]float64{1, 2}))
	require.NoError(t, err)
	grp := store.NewGroup()
	_, err = grp.CreateDataset("dim0", ndarray.MustNew([]float64{0}))
	require.NoError(t, err)
	assert.Error(t, a.Serialize(grp))

	pl, err := NewPointList(Field{Name: "x", Dtype: ndarray.Float64})
	require.NoError(t, err)
	grp = store.NewGroup()
	_, err = grp.CreateDataset("x", ndarray.MustNew([]float64{0}))
	require.NoError(t, err)
	assert.Error(t, pl.Serialize(grp))
}
