package emdio

import (
	"fmt"
	"strings"
)

// Depth selects how much of a tree a read or write touches.
type Depth int

const (
	// Subtree is the node and everything below it.
	Subtree Depth = iota
	// SelfOnly is the node alone.
	SelfOnly
	// ExcludeSelf is everything below the node, but not the node.
	ExcludeSelf
)

func (d Depth) String() string {
	switch d {
	case Subtree:
		return "true"
	case SelfOnly:
		return "false"
	case ExcludeSelf:
		return "none"
	}
	return fmt.Sprintf("Depth(%d)", int(d))
}

// ParseDepth accepts true, false and none, plus the aliases subtree,
// self and branch.
func ParseDepth(s string) (d Depth, err error) {
	switch strings.ToLower(s) {
	case "true", "subtree":
		return Subtree, nil
	case "false", "self":
		return SelfOnly, nil
	case "none", "branch":
		return ExcludeSelf, nil
	}
	return d, fmt.Errorf("unknown depth %q", s)
}

// AmbiguousRootError is returned by Read when no emdpath is given and
// the container holds several roots.
type AmbiguousRootError struct {
	Roots []string
}

func (e *AmbiguousRootError) Error() string {
	return fmt.Sprintf("multiple roots found, pass an emdpath: %s", strings.Join(e.Roots, ", "))
}
