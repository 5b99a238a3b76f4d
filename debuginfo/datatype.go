// Package debuginfo defines the type graph and variable records extracted
// from DWARF or PDB debug information.
package debuginfo

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TypeID is the identity of a type record: a DWARF offset or a CodeView
// type index.
type TypeID uint64

// DataType is the closed set of type shapes. Use a type switch over the
// concrete variants below.
type DataType interface {
	// Size returns the storage size in bytes.
	Size() uint64
	String() string
	dataType()
}

// Scalar is a fixed-width numeric type.
type Scalar uint8

const (
	Uint8 Scalar = iota
	Uint16
	Uint32
	Uint64
	Sint8
	Sint16
	Sint32
	Sint64
	Float
	Double
)

var scalarInfo = [...]struct {
	name string
	size uint64
}{
	Uint8:  {"Uint8", 1},
	Uint16: {"Uint16", 2},
	Uint32: {"Uint32", 4},
	Uint64: {"Uint64", 8},
	Sint8:  {"Sint8", 1},
	Sint16: {"Sint16", 2},
	Sint32: {"Sint32", 4},
	Sint64: {"Sint64", 8},
	Float:  {"Float", 4},
	Double: {"Double", 8},
}

func (s Scalar) Size() uint64 {
	if int(s) < len(scalarInfo) {
		return scalarInfo[s].size
	}
	return 0
}

func (s Scalar) String() string {
	if int(s) < len(scalarInfo) {
		return scalarInfo[s].name
	}
	return fmt.Sprintf("Scalar(%d)", uint8(s))
}

// IsSigned reports whether s is one of the signed integer kinds.
func (s Scalar) IsSigned() bool {
	return s >= Sint8 && s <= Sint64
}

// Member is a named slot of an aggregate or a base class entry.
type Member struct {
	Type   TypeRecord
	Offset uint64
}

// Members keeps member names in declaration order. Setting an existing
// name replaces the value and keeps the original position.
type Members = orderedmap.OrderedMap[string, Member]

// NewMembers returns an empty member map.
func NewMembers() *Members {
	return orderedmap.New[string, Member]()
}

// Enumerator is one named value of an enumeration.
type Enumerator struct {
	Name  string
	Value int64
}

// Bitfield is a member occupying BitSize bits at BitOffset within Base.
type Bitfield struct {
	Base      *TypeRecord
	BitOffset uint16
	BitSize   uint16
}

// Pointer points at Target. A zero Target means void or unknown.
type Pointer struct {
	PointeeSize uint64
	Target      TypeID
}

type Struct struct {
	ByteSize uint64
	Members  *Members
}

// Class is a Struct with base classes. Inherited members are already
// copied into Members at their adjusted offsets.
type Class struct {
	ByteSize    uint64
	Inheritance *Members
	Members     *Members
}

type Union struct {
	ByteSize uint64
	Members  *Members
}

type Enum struct {
	ByteSize    uint64
	Signed      bool
	Enumerators []Enumerator
}

// Array is a possibly multi-dimensional array; Dims are outermost first.
type Array struct {
	ByteSize uint64
	Dims     []uint64
	Stride   uint64
	Element  *TypeRecord
}

// TypeRef refers to a record stored in the type table instead of inlining it.
type TypeRef struct {
	Target   TypeID
	ByteSize uint64
}

type FuncPtr struct {
	ByteSize uint64
}

// Other is an opaque or unsupported type.
type Other struct {
	ByteSize uint64
}

func (b Bitfield) Size() uint64 {
	if b.Base == nil {
		return 0
	}
	return b.Base.Size()
}
func (p Pointer) Size() uint64 { return p.PointeeSize }
func (s Struct) Size() uint64  { return s.ByteSize }
func (c Class) Size() uint64   { return c.ByteSize }
func (u Union) Size() uint64   { return u.ByteSize }
func (e Enum) Size() uint64    { return e.ByteSize }
func (a Array) Size() uint64   { return a.ByteSize }
func (r TypeRef) Size() uint64 { return r.ByteSize }
func (f FuncPtr) Size() uint64 { return f.ByteSize }
func (o Other) Size() uint64   { return o.ByteSize }

func (Scalar) dataType()   {}
func (Bitfield) dataType() {}
func (Pointer) dataType()  {}
func (Struct) dataType()   {}
func (Class) dataType()    {}
func (Union) dataType()    {}
func (Enum) dataType()     {}
func (Array) dataType()    {}
func (TypeRef) dataType()  {}
func (FuncPtr) dataType()  {}
func (Other) dataType()    {}

func (b Bitfield) String() string {
	return fmt.Sprintf("Bitfield(%d:%d)", b.BitOffset, b.BitSize)
}
func (p Pointer) String() string  { return fmt.Sprintf("Pointer(%d, 0x%x)", p.PointeeSize, uint64(p.Target)) }
func (s Struct) String() string   { return fmt.Sprintf("Struct(%d members)", memberCount(s.Members)) }
func (c Class) String() string    { return fmt.Sprintf("Class(%d members)", memberCount(c.Members)) }
func (u Union) String() string    { return fmt.Sprintf("Union(%d members)", memberCount(u.Members)) }
func (e Enum) String() string     { return fmt.Sprintf("Enum(%d enumerators)", len(e.Enumerators)) }
func (r TypeRef) String() string  { return fmt.Sprintf("TypeRef(0x%x)", uint64(r.Target)) }
func (f FuncPtr) String() string  { return fmt.Sprintf("function pointer(%d)", f.ByteSize) }
func (o Other) String() string    { return fmt.Sprintf("Other(%d)", o.ByteSize) }
func (a Array) String() string {
	elem := "?"
	if a.Element != nil {
		elem = a.Element.DataType.String()
	}
	return fmt.Sprintf("Array(%v x %s)", a.Dims, elem)
}

func memberCount(m *Members) int {
	if m == nil {
		return 0
	}
	return m.Len()
}

// MembersOf returns the member map of a Struct, Class or Union.
func MembersOf(dt DataType) (*Members, bool) {
	switch t := dt.(type) {
	case Struct:
		return t.Members, true
	case Class:
		return t.Members, true
	case Union:
		return t.Members, true
	}
	return nil, false
}

// KindName names the variant of dt, ignoring its payload.
func KindName(dt DataType) string {
	switch t := dt.(type) {
	case Scalar:
		return t.String()
	case Bitfield:
		return "Bitfield"
	case Pointer:
		return "Pointer"
	case Struct:
		return "Struct"
	case Class:
		return "Class"
	case Union:
		return "Union"
	case Enum:
		return "Enum"
	case Array:
		return "Array"
	case TypeRef:
		return "TypeRef"
	case FuncPtr:
		return "FuncPtr"
	case Other:
		return "Other"
	}
	return "Unknown"
}
