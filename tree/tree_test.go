package tree

import (
	"bytes"
	"testing"
)

func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

// mktree builds root -> a -> (b, c), root -> d
func mktree(t *testing.T) (root, a, b, c, d *Node) {
	t.Helper()
	root = NewRoot("root")
	a = NewNode("a", nil)
	b = NewNode("b", nil)
	c = NewNode("c", nil)
	d = NewNode("d", nil)
	for _, pair := range [][2]*Node{{root, a}, {a, b}, {a, c}, {root, d}} {
		err := pair[0].Add(pair[1])
		if err != nil {
			t.Fatal(err)
		}
	}
	return
}

func checkPaths(t *testing.T, root *Node) {
	t.Helper()
	err := root.Walk(func(n *Node) error {
		tassert(t, n.Root() == root, "%s root is %v, want %v", n.Name(), n.Root(), root)
		got, err := root.Get(n.Path())
		tassert(t, err == nil, "get %q: %v", n.Path(), err)
		tassert(t, got == n, "get %q returned %v, want %v", n.Path(), got, n)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAdd(t *testing.T) {
	root, a, b, _, d := mktree(t)
	tassert(t, root.Path() == "", "root path %q", root.Path())
	tassert(t, a.Path() == "/a", "a path %q", a.Path())
	tassert(t, b.Path() == "/a/b", "b path %q", b.Path())
	tassert(t, d.Parent() == root, "d parent %v", d.Parent())
	checkPaths(t, root)

	// detached parent
	loose := NewNode("loose", nil)
	err := loose.Add(NewNode("x", nil))
	_, ok := err.(*StructureError)
	tassert(t, ok, "expected StructureError, got %v", err)

	// rooted child
	other := NewRoot("other")
	err = other.Add(b)
	_, ok = err.(*StructureError)
	tassert(t, ok, "expected StructureError, got %v", err)

	// duplicate name
	err = root.Add(NewNode("a", nil))
	_, ok = err.(*StructureError)
	tassert(t, ok, "expected StructureError, got %v", err)
	tassert(t, root.Branch().Len() == 2, "root has %d children", root.Branch().Len())
}

func TestAddRootsDescendants(t *testing.T) {
	// children added through ForceAdd keep their own subtree
	root, a, b, c, _ := mktree(t)
	other := NewRoot("other")
	err := other.ForceAdd(a)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []*Node{a, b, c} {
		tassert(t, n.Root() == other, "%s root %v", n.Name(), n.Root())
	}
	tassert(t, c.Path() == "/a/c", "c path %q", c.Path())
	tassert(t, !root.Branch().Has("a"), "a still under old root")
	checkPaths(t, other)
	checkPaths(t, root)
}

func TestGet(t *testing.T) {
	root, a, b, c, _ := mktree(t)
	got, err := a.Get("")
	tassert(t, err == nil && got == root, "empty path: %v %v", got, err)
	got, err = c.Get("/a/b")
	tassert(t, err == nil && got == b, "absolute path: %v %v", got, err)
	got, err = a.Get("c")
	tassert(t, err == nil && got == c, "relative path: %v %v", got, err)
	got, err = root.Get("a//b/")
	tassert(t, err == nil && got == b, "sloppy path: %v %v", got, err)

	_, err = root.Get("a/nope/b")
	perr, ok := err.(*PathError)
	tassert(t, ok, "expected PathError, got %v", err)
	tassert(t, perr.Missing == "a/nope", "missing %q", perr.Missing)

	_, err = NewNode("loose", nil).Get("/a")
	_, ok = err.(*PathError)
	tassert(t, ok, "expected PathError, got %v", err)
}

func TestGraftPolicies(t *testing.T) {
	cases := []struct {
		policy MetadataPolicy
		want   string
		copied bool
		extra  bool
	}{
		{MetadataMerge, "dest", false, true},
		{MetadataDrop, "dest", false, false},
		{MetadataCopy, "dest", true, true},
		{MetadataOverwrite, "src", false, true},
		{MetadataCopyOver, "src", true, true},
	}
	for _, tc := range cases {
		src, a, _, _, _ := mktree(t)
		dest := NewRoot("dest")
		sconf := NewMetadata("conf", map[string]Value{"who": String("src")})
		extra := NewMetadata("extra", map[string]Value{"n": Int(1)})
		src.SetMetadata(sconf)
		src.SetMetadata(extra)
		dest.SetMetadata(NewMetadata("conf", map[string]Value{"who": String("dest")}))

		got, err := Graft(dest, a, tc.policy)
		if err != nil {
			t.Fatal(err)
		}
		tassert(t, got == dest, "graft returned %v", got)
		md, _ := dest.Metadata("conf")
		who, _ := md.Get("who")
		tassert(t, Equal(who, String(tc.want)), "%s: conf.who = %v", tc.policy, who)
		emd, ok := dest.Metadata("extra")
		tassert(t, ok == tc.extra, "%s: extra present %v", tc.policy, ok)
		if ok {
			tassert(t, (emd != extra) == tc.copied, "%s: extra copied = %v", tc.policy, emd != extra)
			tassert(t, emd.Equal(extra), "%s: extra differs", tc.policy)
		}
		if tc.want == "src" {
			tassert(t, (md != sconf) == tc.copied, "%s: conf copied = %v", tc.policy, md != sconf)
		}
		checkPaths(t, dest)
		checkPaths(t, src)
	}
}

func TestGraftRootFlattens(t *testing.T) {
	src, a, _, _, d := mktree(t)
	dest := NewRoot("dest")
	x := NewNode("x", nil)
	if err := dest.Add(x); err != nil {
		t.Fatal(err)
	}
	_, err := Graft(x, src, MetadataMerge)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, a.Path() == "/x/a", "a path %q", a.Path())
	tassert(t, d.Path() == "/x/d", "d path %q", d.Path())
	tassert(t, src.Branch().Len() == 0, "source root still has children")
	checkPaths(t, dest)
}

func TestGraftErrors(t *testing.T) {
	root, a, b, _, d := mktree(t)

	// cycle
	_, err := Graft(b, a, MetadataMerge)
	_, ok := err.(*StructureError)
	tassert(t, ok, "expected StructureError, got %v", err)

	// name clash leaves everything in place
	dup := NewNode("b", nil)
	if err := d.Add(dup); err != nil {
		t.Fatal(err)
	}
	_, err = Graft(a, dup, MetadataMerge)
	_, ok = err.(*StructureError)
	tassert(t, ok, "expected StructureError, got %v", err)
	tassert(t, dup.Parent() == d, "dup moved to %v", dup.Parent())

	// detached
	_, err = Graft(root, NewNode("loose", nil), MetadataMerge)
	_, ok = err.(*StructureError)
	tassert(t, ok, "expected StructureError, got %v", err)
	checkPaths(t, root)
}

func TestCutGraftInverse(t *testing.T) {
	root, a, b, c, d := mktree(t)
	root.SetMetadata(NewMetadata("conf", map[string]Value{"k": Bool(true)}))

	cut, err := Cut(a, MetadataCopy)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, cut.Name() == "root_cut_a", "cut root name %q", cut.Name())
	tassert(t, cut.IsRoot(), "cut is not a root")
	tassert(t, a.Root() == cut && b.Root() == cut, "cut subtree not re-rooted")
	tassert(t, b.Path() == "/a/b", "b path %q", b.Path())
	_, ok := cut.Metadata("conf")
	tassert(t, ok, "conf not copied to cut root")
	tassert(t, !root.Branch().Has("a"), "a still under root")
	checkPaths(t, cut)

	_, err = Graft(root, cut, MetadataMerge)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []*Node{a, b, c, d} {
		tassert(t, n.Root() == root, "%s root %v", n.Name(), n.Root())
	}
	got, _ := root.Get("a/c")
	tassert(t, got == c, "a/c is %v", got)
	checkPaths(t, root)
}

func TestDetached(t *testing.T) {
	n := NewNode("array", nil)
	root, release, err := Detached(n)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, root.Name() == "array_root", "temp root %q", root.Name())
	tassert(t, n.Root() == root && n.Path() == "/array", "n not wrapped: %v %q", n.Root(), n.Path())
	release()
	tassert(t, n.Root() == nil && n.Parent() == nil && n.Path() == "", "n not released")

	_, a, _, _, _ := mktree(t)
	_, _, err = Detached(a)
	_, ok := err.(*StructureError)
	tassert(t, ok, "expected StructureError, got %v", err)
}

func TestBorrow(t *testing.T) {
	root := NewRoot("list")
	x, y := NewNode("x", nil), NewNode("y", nil)
	release, err := Borrow(root, x, y)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, x.Path() == "/x" && y.Root() == root, "not borrowed: %q %v", x.Path(), y.Root())
	release()
	tassert(t, x.Root() == nil && y.Root() == nil && root.Branch().Len() == 0, "not released")

	// a clash undoes the nodes already added
	dup := NewNode("x", nil)
	_, err = Borrow(root, y, x, dup)
	_, ok := err.(*StructureError)
	tassert(t, ok, "expected StructureError, got %v", err)
	tassert(t, y.Root() == nil && x.Root() == nil && root.Branch().Len() == 0, "partial borrow left behind")
}

func TestProvenance(t *testing.T) {
	root := NewRoot("root")
	child, err := WithProvenance(root, "bin", map[string]Value{"factor": Int(2)}, NewNode("binned", nil))
	if err != nil {
		t.Fatal(err)
	}
	md, ok := child.Metadata("_fn_call_bin")
	tassert(t, ok, "no provenance record: %v", child.MetadataKeys())
	for key, want := range map[string]Value{
		"factor":        Int(2),
		"parent_class":  String("Root"),
		"parent_name":   String("root"),
		"parent_method": String("bin"),
	} {
		got, _ := md.Get(key)
		tassert(t, Equal(got, want), "%s: got %v want %v", key, got, want)
	}
	tassert(t, child.Path() == "/binned", "child path %q", child.Path())
}

func TestShow(t *testing.T) {
	_, a, _, _, _ := mktree(t)
	buf := &bytes.Buffer{}
	err := a.Show(buf, true)
	if err != nil {
		t.Fatal(err)
	}
	expect := "/\n|---a\n|   |---b\n|   |---c\n|---d\n"
	tassert(t, buf.String() == expect, "show from root:\n%s\nwant:\n%s", buf.String(), expect)

	buf.Reset()
	err = a.Show(buf, false)
	if err != nil {
		t.Fatal(err)
	}
	expect = "a\n|---b\n|---c\n"
	tassert(t, buf.String() == expect, "show from a:\n%s\nwant:\n%s", buf.String(), expect)
}

func TestValueEqualCopy(t *testing.T) {
	m := Map{
		"a": Ints(1, 2, 3),
		"b": None{},
		"c": Floats(1, 2),
		"d": Map{"e": StringList{"x", "y"}},
	}
	cp := CopyValue(m)
	tassert(t, Equal(m, cp), "copy differs")
	cp.(Map)["d"].(Map)["e"] = StringList{"z"}
	tassert(t, !Equal(m, cp), "copy shares nested map")
	tassert(t, !Equal(Ints(1, 2), NumberList{A: Ints(1, 2).A}), "tuple equals list")
	tassert(t, Equal(NumberTuple{}, Ints()) == false, "float64 empty equals int64 empty")

	v, err := FromGo(map[string]interface{}{"x": []float64{1, 2}, "y": nil, "z": 3})
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, Equal(v.(Map)["x"], Floats(1, 2)), "x = %v", v.(Map)["x"])
	tassert(t, Equal(v.(Map)["y"], None{}), "y = %v", v.(Map)["y"])
	tassert(t, Equal(v.(Map)["z"], Int(3)), "z = %v", v.(Map)["z"])

	_, err = FromGo(struct{}{})
	_, ok := err.(*CodecError)
	tassert(t, ok, "expected CodecError, got %v", err)
}

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"true", "false", "copy", "overwrite", "copyover"} {
		p, err := ParsePolicy(s)
		tassert(t, err == nil && p.String() == s, "%s: %v %v", s, p, err)
	}
	_, err := ParsePolicy("maybe")
	tassert(t, err != nil, "expected error")
}
