package emdio

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/t7a/emdtree/codec"
	"github.com/t7a/emdtree/store"
	"github.com/t7a/emdtree/tree"
)

const (
	GroupTypeAttr = codec.GroupTypeAttr
	KindAttr      = codec.KindAttr
	// MetadataBundle is the group holding a node's metadata records.
	MetadataBundle = "metadatabundle"

	VersionMajor = 1
	VersionMinor = 0
)

// Compatible is the range of file versions this package reads.
const Compatible = ">= 1.0, < 2.0"

// Session carries the provenance written into new file headers.
type Session struct {
	Program string
	User    string
}

// Header is the file-level attribute set.
type Header struct {
	Major   int64
	Minor   int64
	UUID    string
	Program string
	User    string
}

func (h Header) Version() string {
	return fmt.Sprintf("%d.%d", h.Major, h.Minor)
}

// WriteHeader stamps top as a new container and returns its UUID.
func WriteHeader(top *store.Group, s Session) string {
	id := uuid.New().String()
	top.SetStringAttr(GroupTypeAttr, string(tree.GroupFile))
	top.SetIntAttr("version_major", VersionMajor)
	top.SetIntAttr("version_minor", VersionMinor)
	top.SetStringAttr("UUID", id)
	top.SetStringAttr("authoring_program", s.Program)
	top.SetStringAttr("authoring_user", s.User)
	log.Debugf("new container %s by %q/%q", id, s.Program, s.User)
	return id
}

// ReadHeader validates and returns top's header.
func ReadHeader(top *store.Group) (h Header, err error) {
	gt, _ := top.StringAttr(GroupTypeAttr)
	if tree.GroupType(gt) != tree.GroupFile {
		return h, &tree.FormatError{Path: top.Path(), Reason: "missing file header"}
	}
	var ok bool
	h.Major, ok = top.IntAttr("version_major")
	if !ok {
		return h, &tree.FormatError{Path: top.Path(), Reason: "missing version_major"}
	}
	h.Minor, ok = top.IntAttr("version_minor")
	if !ok {
		return h, &tree.FormatError{Path: top.Path(), Reason: "missing version_minor"}
	}
	v, err := goversion.NewVersion(h.Version())
	if err != nil {
		return h, &tree.FormatError{Path: top.Path(), Reason: err.Error()}
	}
	c, err := goversion.NewConstraint(Compatible)
	if err != nil {
		return h, err
	}
	if !c.Check(v) {
		return h, &tree.FormatError{Path: top.Path(), Reason: fmt.Sprintf("unsupported version %s", v)}
	}
	h.UUID, _ = top.StringAttr("UUID")
	h.Program, _ = top.StringAttr("authoring_program")
	h.User, _ = top.StringAttr("authoring_user")
	return
}

// Roots lists the names of top's root groups, sorted.
func Roots(top *store.Group) (names []string) {
	for _, name := range top.Groups() {
		grp, _ := top.Group(name)
		gt, _ := grp.StringAttr(GroupTypeAttr)
		if tree.GroupType(gt) == tree.GroupRoot {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return
}

// IsEMD reports whether top carries a valid header and at least one
// root.
func IsEMD(top *store.Group) bool {
	_, err := ReadHeader(top)
	return err == nil && len(Roots(top)) > 0
}
