package tree

import (
	"fmt"
	"io"
)

// Show prints the subtree below n, or below its Root when fromRoot is
// set, one "|---name" line per node.
func (n *Node) Show(w io.Writer, fromRoot bool) (err error) {
	start := n
	if fromRoot {
		if n.root == nil {
			return &StructureError{Op: "show", Node: n.name, Reason: "node is not attached to a root"}
		}
		start = n.root
	}
	if start.isRoot {
		_, err = fmt.Fprintln(w, "/")
	} else {
		_, err = fmt.Fprintln(w, start.name)
	}
	if err != nil {
		return
	}
	return start.showBranch(w, 0, map[int]bool{})
}

// showBranch draws each child at tablevel, with a vertical bar for
// every enclosing level that still has siblings to come.
func (n *Node) showBranch(w io.Writer, tablevel int, linelevels map[int]bool) (err error) {
	keys := n.Keys()
	if len(keys) == 0 {
		return
	}
	linelevels[tablevel] = true
	for i, k := range keys {
		line := " "
		if linelevels[0] {
			line = "|"
		}
		for lvl := 0; lvl < tablevel; lvl++ {
			bar := " "
			if linelevels[lvl+1] {
				bar = "|"
			}
			line += "   " + bar
		}
		_, err = fmt.Fprintln(w, line+"---"+k)
		if err != nil {
			return
		}
		if i == len(keys)-1 {
			delete(linelevels, tablevel)
		}
		err = n.branch.children[k].showBranch(w, tablevel+1, linelevels)
		if err != nil {
			return
		}
	}
	return
}
