package payload

import "github.com/t7a/emdtree/emdio"

// Register adds the built-in kinds to reg.  It panics if any of them
// is already registered.
func Register(reg *emdio.Registry) {
	reg.Register("Array", arrayKind{})
	reg.Register("PointList", pointListKind{})
	reg.Register("PointListArray", pointListArrayKind{})
	reg.Register("Custom", CustomKind{Name: "Custom"})
}
