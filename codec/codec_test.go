package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

var valueCmp = cmp.Comparer(tree.Equal)

func allShapes() map[string]tree.Value {
	i32, _ := tree.NumberOf(int32(-7))
	u8, _ := tree.NumberOf(uint8(200))
	c128, _ := tree.NumberOf(complex(1, -2))
	f32tuple, _ := tree.TupleOf([]float32{0.5, 1.5})
	return map[string]tree.Value{
		"none":          tree.None{},
		"str":           tree.String("hello"),
		"sentinel":      tree.String("_None"),
		"empty_str":     tree.String(""),
		"yes":           tree.Bool(true),
		"no":            tree.Bool(false),
		"int":           tree.Int(42),
		"int32":         i32,
		"uint8":         u8,
		"float":         tree.Float(3.25),
		"complex":       c128,
		"array":         tree.NDArray{A: ndarray.MustNew([]int16{1, 2, 3, 4, 5, 6}, 2, 3)},
		"bool_array":    tree.NDArray{A: ndarray.MustNew([]bool{true, false})},
		"tuple":         tree.Ints(1, 2, 3),
		"f32tuple":      f32tuple,
		"empty_tuple":   tree.NumberTuple{},
		"list":          tree.Floats(1, 2),
		"empty_list":    tree.Floats(),
		"str_tuple":     tree.StringTuple{"a", "b"},
		"str_list":      tree.StringList{"x"},
		"empty_strs":    tree.StringList{},
		"array_tuple":   tree.ArrayTuple{ndarray.MustNew([]float64{1}), ndarray.MustNew([]int64{1, 2, 3, 4}, 2, 2)},
		"array_list":    tree.ArrayList{ndarray.MustNew([]uint32{9})},
		"tuple_tuple":   tree.TupleTuple{tree.Ints(1, 2), tree.Float(3), tree.Ints()},
		"nested":        tree.Map{"a": tree.Map{"b": tree.Map{"c": tree.None{}, "d": tree.Ints(5)}}},
		"empty_map":     tree.Map{},
		"mixed_map_str": tree.Map{"s": tree.String("v"), "l": tree.StringList{"p", "q"}},
	}
}

func TestRoundTrip(t *testing.T) {
	for key, v := range allShapes() {
		grp := store.NewGroup()
		require.NoError(t, Encode(grp, key, v), key)
		got, err := Decode(grp, key)
		require.NoError(t, err, key)
		assert.Equal(t, v.Tag(), got.Tag(), key)
		if diff := cmp.Diff(v, got, valueCmp); diff != "" {
			t.Errorf("%s: round trip mismatch (-want +got):\n%s", key, diff)
		}
	}
}

func TestRoundTripThroughFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	f, err := store.Create(fs, "/meta.emd")
	require.NoError(t, err)
	md := tree.NewMetadata("shapes", allShapes())
	_, err = WriteMetadata(f.Root(), md)
	require.NoError(t, err)
	require.NoError(t, f.Save())

	back, err := store.Open(fs, "/meta.emd")
	require.NoError(t, err)
	grp, err := back.Root().Group("shapes")
	require.NoError(t, err)
	got, err := ReadMetadata(grp)
	require.NoError(t, err)
	for _, k := range md.Keys() {
		want, _ := md.Get(k)
		have, ok := got.Get(k)
		require.True(t, ok, k)
		assert.True(t, tree.Equal(want, have), "%s: want %s got %s", k, tree.Format(want), tree.Format(have))
	}
	assert.True(t, md.Equal(got))
}

func TestMetadataRecord(t *testing.T) {
	a, _ := tree.TupleOf([]int64{1, 2, 3})
	md := tree.NewMetadata("params", map[string]tree.Value{
		"a": a,
		"b": tree.None{},
		"c": tree.Floats(1.0, 2.0),
	})
	parent := store.NewGroup()
	grp, err := WriteMetadata(parent, md)
	require.NoError(t, err)
	gt, _ := grp.StringAttr(GroupTypeAttr)
	assert.Equal(t, "metadata", gt)
	kind, _ := grp.StringAttr(KindAttr)
	assert.Equal(t, "Metadata", kind)

	got, err := ReadMetadata(grp)
	require.NoError(t, err)
	assert.Equal(t, "params", got.Name())
	for _, k := range []string{"a", "b", "c"} {
		want, _ := md.Get(k)
		have, _ := got.Get(k)
		assert.True(t, tree.Equal(want, have), k)
	}

	_, err = WriteMetadata(parent, md)
	assert.IsType(t, &store.ExistsError{}, errors.Cause(err))
}

func TestUnsupported(t *testing.T) {
	grp := store.NewGroup()
	err := Encode(grp, "bad", tree.TupleTuple{tree.String("x")})
	assert.IsType(t, &tree.CodecError{}, err)

	err = Encode(grp, "strnum", tree.Number{A: ndarray.MustNew([]string{"x"})})
	assert.IsType(t, &tree.CodecError{}, err)

	err = Encode(grp, "nil", nil)
	assert.IsType(t, &tree.CodecError{}, err)

	// a failed record leaves nothing behind
	md := tree.NewMetadata("broken", map[string]tree.Value{"x": tree.NDArray{}})
	_, err = WriteMetadata(grp, md)
	assert.Error(t, err)
	assert.False(t, grp.Has("broken"))
}

func TestDecodeErrors(t *testing.T) {
	grp := store.NewGroup()
	_, err := Decode(grp, "missing")
	assert.IsType(t, &tree.PathError{}, err)

	ds, err := grp.CreateDataset("odd", ndarray.MustNew([]float64{1}))
	require.NoError(t, err)
	ds.SetStringAttr(TypeAttr, "frobnicated")
	_, err = Decode(grp, "odd")
	assert.IsType(t, &tree.CodecError{}, err)

	// files written by older versions tag None as "None"
	old, err := grp.CreateDataset("old", ndarray.MustNew([]string{"_None"}))
	require.NoError(t, err)
	old.SetStringAttr(TypeAttr, "None")
	v, err := Decode(grp, "old")
	require.NoError(t, err)
	assert.Equal(t, tree.TagNone, v.Tag())
}

func TestBadLength(t *testing.T) {
	grp := store.NewGroup()
	require.NoError(t, Encode(grp, "names", tree.StringList{"a", "b"}))
	sub, err := grp.Group("names")
	require.NoError(t, err)

	for _, n := range []int64{-1, 3} {
		sub.SetIntAttr(LengthAttr, n)
		_, err = Decode(grp, "names")
		assert.IsType(t, &tree.CodecError{}, err, "length %d", n)
	}
}
