package tree

import "fmt"

// StructureError reports a violated tree invariant: adding under a
// detached node, adding a node that already has a root, a duplicate
// child name, or a move that would create a cycle.
type StructureError struct {
	Op     string
	Node   string
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Node, e.Reason)
}

// PathError reports a lookup miss, in memory or in a store.
type PathError struct {
	Path    string
	Missing string
}

func (e *PathError) Error() string {
	if e.Missing == "" || e.Missing == e.Path {
		return fmt.Sprintf("path not found: %s", e.Path)
	}
	return fmt.Sprintf("path not found: %s (no %q)", e.Path, e.Missing)
}

// FormatError reports an unrecognized group tag, an incompatible
// version or a malformed header.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "format error: " + e.Reason
	}
	return fmt.Sprintf("format error at %s: %s", e.Path, e.Reason)
}

// CodecError reports a metadata value outside the supported shapes,
// or a stored value that cannot be decoded.
type CodecError struct {
	Key    string
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("metadata %q: %s", e.Key, e.Reason)
}

// SyncConflictError reports a write that conflicts with what is
// already persisted: Write mode against an existing file, or an
// in-memory path that cannot be matched to the stored tree.
type SyncConflictError struct {
	Path   string
	Reason string
}

func (e *SyncConflictError) Error() string {
	return fmt.Sprintf("sync conflict at %s: %s", e.Path, e.Reason)
}
