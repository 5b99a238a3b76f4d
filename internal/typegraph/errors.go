package typegraph

import (
	"fmt"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

// ErrorKind classifies a failed resolution.
type ErrorKind int

const (
	// StructuralError is a malformed entry tree.
	StructuralError ErrorKind = iota
	// MissingAttribute is a required attribute that is absent.
	MissingAttribute
	// UnresolvableReference is a reference that names no usable entry.
	UnresolvableReference
	// UnsupportedTag is an entry kind outside the modeled set.
	UnsupportedTag
)

func (k ErrorKind) String() string {
	switch k {
	case StructuralError:
		return "structural error"
	case MissingAttribute:
		return "missing attribute"
	case UnresolvableReference:
		return "unresolvable reference"
	case UnsupportedTag:
		return "unsupported tag"
	}
	return "unknown error"
}

// ResolveError describes why one entry could not be resolved. It never
// escapes Resolve; it is rendered into a diagnostic.
type ResolveError struct {
	Kind   ErrorKind
	Tag    Tag
	ID     debuginfo.TypeID
	Detail string
	Err    error
}

func (e *ResolveError) Error() string {
	msg := fmt.Sprintf("%s: %s @0x%X", e.Kind, e.Tag, uint64(e.ID))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

func missing(e Entry, what string) error {
	return &ResolveError{Kind: MissingAttribute, Tag: e.Tag(), ID: e.ID(), Detail: "missing " + what}
}

func structural(e Entry, err error) error {
	return &ResolveError{Kind: StructuralError, Tag: e.Tag(), ID: e.ID(), Err: err}
}
