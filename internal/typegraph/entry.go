// Package typegraph turns a tree of debug-info entries into a memoized,
// cycle-safe table of debuginfo.TypeRecords. It knows nothing about DWARF
// or CodeView: each format supplies a Source whose entries speak the closed
// Tag and Attr vocabulary below.
package typegraph

import (
	"github.com/skdltmxn/dbgtypes/debuginfo"
)

// Tag classifies an entry.
type Tag int

const (
	TagUnknown Tag = iota
	TagBase
	TagPointer
	TagArray
	TagStruct
	TagClass
	TagUnion
	TagEnum
	TagTypedef
	TagConst
	TagVolatile
	TagRestrict
	TagPacked
	TagAtomic
	TagImmutable
	TagModifier
	TagSubroutine
	TagUnspecified
	TagBitfield
	TagMember
	TagInheritance
	TagSubrange
	TagEnumerator
)

var tagNames = [...]string{
	TagUnknown:     "unknown",
	TagBase:        "base_type",
	TagPointer:     "pointer_type",
	TagArray:       "array_type",
	TagStruct:      "structure_type",
	TagClass:       "class_type",
	TagUnion:       "union_type",
	TagEnum:        "enumeration_type",
	TagTypedef:     "typedef",
	TagConst:       "const_type",
	TagVolatile:    "volatile_type",
	TagRestrict:    "restrict_type",
	TagPacked:      "packed_type",
	TagAtomic:      "atomic_type",
	TagImmutable:   "immutable_type",
	TagModifier:    "modifier",
	TagSubroutine:  "subroutine_type",
	TagUnspecified: "unspecified_type",
	TagBitfield:    "bitfield",
	TagMember:      "member",
	TagInheritance: "inheritance",
	TagSubrange:    "subrange_type",
	TagEnumerator:  "enumerator",
}

func (t Tag) String() string {
	if t >= 0 && int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

// nameTransparent reports whether a type with this tag takes its display
// name from the type it refers to.
func (t Tag) nameTransparent() bool {
	switch t {
	case TagConst, TagVolatile, TagModifier, TagPointer, TagArray:
		return true
	}
	return false
}

// Attr is an attribute key.
type Attr int

const (
	AttrByteSize Attr = iota
	AttrBitSize
	// AttrBitOffset counts from the most significant bit of the storage unit.
	AttrBitOffset
	// AttrDataBitOffset counts from the start of the containing storage.
	AttrDataBitOffset
	// AttrDataMemberLocation is a byte offset, already evaluated by the adapter.
	AttrDataMemberLocation
	AttrEncoding
	AttrByteStride
	AttrUpperBound
	AttrLowerBound
	AttrCount
	AttrDeclaration
	AttrForwardRef
	AttrConstValue
)

// Encoding values reported for AttrEncoding on base types.
const (
	EncodingAddress uint64 = iota + 1
	EncodingBoolean
	EncodingFloat
	EncodingSigned
	EncodingSignedChar
	EncodingUnsigned
	EncodingUnsignedChar
	EncodingOther
)

// Entry is a read-only view of one debug-info entry.
type Entry interface {
	ID() debuginfo.TypeID
	Unit() int
	Tag() Tag
	// Name returns the entry's name. ok is false when the entry has no name
	// attribute; a present but empty name returns ("", true).
	Name() (name string, ok bool)
	Uint(Attr) (uint64, bool)
	Int(Attr) (int64, bool)
	Flag(Attr) bool
	// TypeRef returns the id of the referenced type, if any.
	TypeRef() (debuginfo.TypeID, bool)
	// Children lists direct children. An error means the child tree could
	// not be read and fails the type under resolution.
	Children() ([]Entry, error)
}

// Source gives the builder random access to entries by id.
type Source interface {
	Entry(id debuginfo.TypeID) (Entry, error)
	AddressSize(unit int) uint64
}

// ForwardResolver finds the definition of a forward-declared aggregate.
// ok is false when no definition other than e itself is known.
type ForwardResolver interface {
	ResolveForward(e Entry) (def debuginfo.TypeID, ok bool)
}

// Options selects the format-specific rules.
type Options struct {
	// BigEndian mirrors storage-relative bit offsets.
	BigEndian bool
	// FlattenNestedArrays merges an array whose element is an array into a
	// single multi-dimensional array.
	FlattenNestedArrays bool
	// Forward resolves forward-declared aggregates. Nil means forward
	// declarations are treated as plain declarations.
	Forward ForwardResolver
}
