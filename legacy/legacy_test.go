package legacy

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/payload"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// writeV01 lays out a version 0.1 file: a 2x3 image under
// /data/test_data plus empty bookkeeping groups.
func writeV01(t *testing.T, fs afero.Fs, path string) {
	f := store.NewFile(fs, path)
	top := f.Root()
	top.SetIntAttr("version_major", 0)
	top.SetIntAttr("version_minor", 1)
	for _, name := range []string{"microscope", "user", "sample"} {
		_, err := top.CreateGroup(name)
		require.NoError(t, err)
	}
	data, err := top.CreateGroup("data")
	require.NoError(t, err)
	grp, err := data.CreateGroup("test_data")
	require.NoError(t, err)
	grp.SetIntAttr(groupTypeAttr, 1)
	_, err = grp.CreateDataset("data", ndarray.MustNew([]float64{1, 2, 3, 4, 5, 6}, 2, 3))
	require.NoError(t, err)
	for i, spec := range []struct {
		name string
		vals []int64
	}{{"Y", []int64{0, 1}}, {"X", []int64{0, 1, 2}}} {
		ds, err := grp.CreateDataset([]string{"dim1", "dim2"}[i], ndarray.MustNew(spec.vals))
		require.NoError(t, err)
		ds.SetStringAttr("name", spec.name)
		ds.SetStringAttr("units", "pixels")
	}
	require.NoError(t, f.Save())
}

func TestRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeV01(t, fs, "/tmp/old.emd")
	f, err := store.Open(fs, "/tmp/old.emd")
	require.NoError(t, err)

	assert.True(t, IsLegacy(f.Root()))
	root, err := Read(f.Root(), "/tmp/old.emd")
	require.NoError(t, err)
	assert.Equal(t, "old.emd", root.Name())
	assert.Equal(t, []string{"test_data"}, root.Keys())

	n, err := root.Get("test_data")
	require.NoError(t, err)
	a, ok := n.Payload().(*payload.Array)
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, []string{"Y", "X"}, a.DimNames)
	assert.Equal(t, []string{"pixels", "pixels"}, a.DimUnits)
}

func TestNotLegacy(t *testing.T) {
	top := store.NewGroup()
	grp, _ := top.CreateGroup("thing")
	grp.SetStringAttr(groupTypeAttr, "root")
	assert.False(t, IsLegacy(top))
	_, err := Read(top, "x.emd")
	assert.IsType(t, &tree.FormatError{}, err)
}
