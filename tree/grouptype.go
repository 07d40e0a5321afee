package tree

import "strings"

// GroupType is the structural tag a node carries when persisted.
type GroupType string

const (
	GroupRoot           GroupType = "root"
	GroupNode           GroupType = "node"
	GroupArray          GroupType = "array"
	GroupPointList      GroupType = "pointlist"
	GroupPointListArray GroupType = "pointlistarray"
	GroupCustom         GroupType = "custom"
	GroupMetadataBundle GroupType = "metadatabundle"
	GroupMetadata       GroupType = "metadata"
	GroupFile           GroupType = "file"
)

// CustomPrefix marks node-valued parts of a Custom node, so generic
// traversal does not mistake them for tree children.
const CustomPrefix = "custom_"

var dataTypes = map[GroupType]bool{
	GroupNode:           true,
	GroupArray:          true,
	GroupPointList:      true,
	GroupPointListArray: true,
	GroupCustom:         true,
}

// IsData reports whether gt is a tree-child group type: node, array,
// pointlist, pointlistarray or custom.
func (gt GroupType) IsData() bool {
	return dataTypes[gt]
}

// IsPart reports whether gt is a custom_ prefixed data type.
func (gt GroupType) IsPart() bool {
	return strings.HasPrefix(string(gt), CustomPrefix) && gt.Unprefixed().IsData()
}

// Unprefixed strips CustomPrefix.
func (gt GroupType) Unprefixed() GroupType {
	return GroupType(strings.TrimPrefix(string(gt), CustomPrefix))
}

// AsPart returns gt with CustomPrefix.
func (gt GroupType) AsPart() GroupType {
	if gt.IsPart() {
		return gt
	}
	return GroupType(CustomPrefix + string(gt))
}

// IsKnown reports whether gt is any recognized group type.
func (gt GroupType) IsKnown() bool {
	switch gt {
	case GroupRoot, GroupMetadataBundle, GroupMetadata:
		return true
	}
	return gt.IsData() || gt.IsPart()
}
