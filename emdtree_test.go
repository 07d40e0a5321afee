package emdtree

import (
	"os"
	"testing"

	"github.com/spf13/afero"

	"github.com/t7a/emdtree/emdio"
	"github.com/t7a/emdtree/ndarray"
	"github.com/t7a/emdtree/payload"
	"github.com/t7a/emdtree/reconcile"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("EMD_AUTHOR")
	os.Unsetenv("EMD_PROGRAM")
	homedirExpand = func(string) (string, error) { return "/home/tester/.emd.yaml", nil }
	os.Exit(m.Run())
}

func TestConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := LoadConfig(fs, "")
	tassert(t, err == nil, "%v", err)
	tassert(t, cfg.Program == "emdtree" && cfg.Mode == "write", "defaults: %#v", cfg)

	err = afero.WriteFile(fs, "/home/tester/.emd.yaml", []byte("author: ada\nmode: appendover\ndepth: none\n"), 0644)
	tassert(t, err == nil, "%v", err)
	cfg, err = LoadConfig(fs, "")
	tassert(t, err == nil, "%v", err)
	tassert(t, cfg.Author == "ada", "author %q", cfg.Author)

	opts, err := cfg.Options("/root/a")
	tassert(t, err == nil, "%v", err)
	tassert(t, opts.Mode == reconcile.AppendOver, "mode %v", opts.Mode)
	tassert(t, opts.Depth == emdio.ExcludeSelf, "depth %v", opts.Depth)
	tassert(t, opts.Session.User == "ada", "session %#v", opts.Session)

	os.Setenv("EMD_AUTHOR", "grace")
	defer os.Unsetenv("EMD_AUTHOR")
	cfg, err = LoadConfig(fs, "")
	tassert(t, err == nil, "%v", err)
	tassert(t, cfg.Author == "grace", "env override: %q", cfg.Author)

	err = afero.WriteFile(fs, "/bad.yaml", []byte("mode: [1, 2"), 0644)
	tassert(t, err == nil, "%v", err)
	_, err = LoadConfig(fs, "/bad.yaml")
	tassert(t, err != nil, "expected parse error")

	_, err = Config{Mode: "sideways", Depth: "true"}.Options("")
	tassert(t, err != nil, "expected mode error")
}

func TestSaveReadStat(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := tree.NewRoot("root")
	a, err := payload.NewArray(ndarray.MustNew([]int64{1, 2, 3, 4}, 2, 2))
	tassert(t, err == nil, "%v", err)
	tassert(t, root.Add(tree.NewNode("array", a)) == nil, "add")

	cfg := Config{Program: "tests", Author: "ada", Mode: "w", Depth: "true"}
	opts, err := cfg.Options("")
	tassert(t, err == nil, "%v", err)
	err = Save(fs, "/c.emd", root, opts)
	tassert(t, err == nil, "%v", err)

	info, err := Stat(fs, "/c.emd")
	tassert(t, err == nil, "%v", err)
	tassert(t, info.Header.Program == "tests" && info.Header.User == "ada", "header %#v", info.Header)
	tassert(t, info.Header.Version() == "1.0", "version %s", info.Header.Version())
	tassert(t, len(info.Roots) == 1 && info.Roots[0] == "root", "roots %v", info.Roots)

	got, err := ReadFile(fs, "/c.emd", NewRegistry(), "/root/array", emdio.SelfOnly)
	tassert(t, err == nil, "%v", err)
	ga, ok := got.Payload().(*payload.Array)
	tassert(t, ok, "payload %T", got.Payload())
	tassert(t, ga.Data.Equal(a.Data), "data %v", ga.Data)

	_, err = Read(fs, "/missing.emd", NewRegistry(), "", emdio.Subtree)
	_, ok = err.(*store.NotFoundError)
	tassert(t, ok, "got %v", err)
}

func TestReadFileLegacy(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := store.NewFile(fs, "/old.emd")
	grp, err := f.Root().CreateGroup("image")
	tassert(t, err == nil, "%v", err)
	grp.SetIntAttr("emd_group_type", 1)
	_, err = grp.CreateDataset("data", ndarray.MustNew([]float32{1, 2, 3}))
	tassert(t, err == nil, "%v", err)
	dim, err := grp.CreateDataset("dim1", ndarray.MustNew([]float64{0, 0.5, 1}))
	tassert(t, err == nil, "%v", err)
	dim.SetStringAttr("name", "x")
	dim.SetStringAttr("units", "nm")
	tassert(t, f.Save() == nil, "save")

	root, err := ReadFile(fs, "/old.emd", NewRegistry(), "", emdio.Subtree)
	tassert(t, err == nil, "%v", err)
	tassert(t, root.Name() == "old.emd", "root %s", root.Name())
	n, err := root.Get("image")
	tassert(t, err == nil, "%v", err)
	a := n.Payload().(*payload.Array)
	tassert(t, a.DimUnits[0] == "nm", "units %v", a.DimUnits)

	// without the fallback the header check fails
	_, err = Read(fs, "/old.emd", NewRegistry(), "", emdio.Subtree)
	_, ok := err.(*tree.FormatError)
	tassert(t, ok, "got %v", err)
}
