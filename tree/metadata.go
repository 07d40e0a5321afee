package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Metadata is a named, flat record of tagged values.
type Metadata struct {
	name   string
	params map[string]Value
}

// NewMetadata returns a record called name holding params.  The map is
// copied; the values are not.
func NewMetadata(name string, params map[string]Value) *Metadata {
	md := &Metadata{name: name, params: map[string]Value{}}
	for k, v := range params {
		md.params[k] = v
	}
	return md
}

func (md *Metadata) Name() string {
	return md.name
}

// Get returns the value stored under key.
func (md *Metadata) Get(key string) (v Value, ok bool) {
	v, ok = md.params[key]
	return
}

// Set stores v under key, replacing any previous value.  A nil v is
// stored as None.
func (md *Metadata) Set(key string, v Value) {
	if v == nil {
		v = None{}
	}
	md.params[key] = v
}

// Delete removes key.
func (md *Metadata) Delete(key string) {
	delete(md.params, key)
}

// Keys returns the parameter names, sorted.
func (md *Metadata) Keys() (keys []string) {
	for k := range md.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

// Params returns a shallow copy of the parameter map.
func (md *Metadata) Params() map[string]Value {
	out := make(map[string]Value, len(md.params))
	for k, v := range md.params {
		out[k] = v
	}
	return out
}

// Copy returns an independent record with the same parameters.  An
// empty name keeps md's name.
func (md *Metadata) Copy(name string) *Metadata {
	if name == "" {
		name = md.name
	}
	out := &Metadata{name: name, params: map[string]Value{}}
	for k, v := range md.params {
		out.params[k] = CopyValue(v)
	}
	return out
}

// Equal compares name and every parameter.
func (md *Metadata) Equal(other *Metadata) bool {
	if md == nil || other == nil {
		return md == other
	}
	if md.name != other.name || len(md.params) != len(other.params) {
		return false
	}
	for k, v := range md.params {
		w, ok := other.params[k]
		if !ok || !Equal(v, w) {
			return false
		}
	}
	return true
}

func (md *Metadata) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Metadata( %s )", md.name)
	for _, k := range md.Keys() {
		fmt.Fprintf(&b, "\n    %s: %s", k, Format(md.params[k]))
	}
	return b.String()
}

// MetadataPolicy says what happens to the old Root's metadata when a
// subtree moves to a new Root.
type MetadataPolicy int

const (
	// MetadataMerge adds records missing from the destination.
	MetadataMerge MetadataPolicy = iota
	// MetadataDrop leaves the destination untouched.
	MetadataDrop
	// MetadataCopy is MetadataMerge with independent copies.
	MetadataCopy
	// MetadataOverwrite adds every record, replacing conflicts.
	MetadataOverwrite
	// MetadataCopyOver is MetadataOverwrite with independent copies.
	MetadataCopyOver
)

var policyNames = map[MetadataPolicy]string{
	MetadataMerge:     "true",
	MetadataDrop:      "false",
	MetadataCopy:      "copy",
	MetadataOverwrite: "overwrite",
	MetadataCopyOver:  "copyover",
}

func (p MetadataPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("MetadataPolicy(%d)", int(p))
}

// ParsePolicy accepts true, false, copy, overwrite and copyover.
func ParsePolicy(s string) (p MetadataPolicy, err error) {
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return p, fmt.Errorf("unknown metadata policy %q", s)
}

// mergeInto folds records from src into dst according to p.
func (p MetadataPolicy) mergeInto(dst, src map[string]*Metadata) {
	if p == MetadataDrop {
		return
	}
	for name, md := range src {
		_, exists := dst[name]
		switch p {
		case MetadataMerge:
			if !exists {
				dst[name] = md
			}
		case MetadataCopy:
			if !exists {
				dst[name] = md.Copy("")
			}
		case MetadataOverwrite:
			dst[name] = md
		case MetadataCopyOver:
			dst[name] = md.Copy("")
		}
	}
}
