// Package reconcile saves in-memory trees into container files,
// merging them node by node into trees that are already stored.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/t7a/emdtree/emdio"
)

// Mode picks how Save treats data that is already stored.
type Mode int

const (
	// Write creates a new file and fails if one exists.
	Write Mode = iota
	// Overwrite replaces any existing file.
	Overwrite
	// Append adds new nodes and leaves existing ones alone.
	Append
	// AppendOver adds new nodes and replaces existing ones.
	AppendOver
)

var modeNames = map[string]Mode{
	"w":          Write,
	"write":      Write,
	"o":          Overwrite,
	"overwrite":  Overwrite,
	"a":          Append,
	"+":          Append,
	"append":     Append,
	"ao":         AppendOver,
	"oa":         AppendOver,
	"o+":         AppendOver,
	"+o":         AppendOver,
	"appendover": AppendOver,
}

// ParseMode accepts the short and long mode names: w/write,
// o/overwrite, a/+/append and ao/oa/o+/+o/appendover.
func ParseMode(s string) (m Mode, err error) {
	m, ok := modeNames[strings.ToLower(s)]
	if !ok {
		return m, fmt.Errorf("unknown write mode %q", s)
	}
	return
}

func (m Mode) String() string {
	switch m {
	case Write:
		return "write"
	case Overwrite:
		return "overwrite"
	case Append:
		return "append"
	case AppendOver:
		return "appendover"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Options controls a Save.
type Options struct {
	Mode  Mode
	Depth emdio.Depth
	// EMDPath names an existing node, "/<root>/<tree path>", to write
	// under.  Setting it turns Write and Overwrite into Append.
	EMDPath string
	Session emdio.Session
}
