package tree

// ProvenancePrefix starts the name of records that describe the call
// which produced a node.
const ProvenancePrefix = "_fn_call_"

// WithProvenance records that child was produced by calling method on
// parent with args, then adds child under parent.  The record is named
// "_fn_call_<method>" and holds args plus parent_class, parent_name and
// parent_method.
func WithProvenance(parent *Node, method string, args map[string]Value, child *Node) (*Node, error) {
	md := NewMetadata(ProvenancePrefix+method, args)
	md.Set("parent_class", String(parent.KindName()))
	md.Set("parent_name", String(parent.Name()))
	md.Set("parent_method", String(method))
	err := parent.Add(child)
	if err != nil {
		return nil, err
	}
	child.SetMetadata(md)
	return child, nil
}
