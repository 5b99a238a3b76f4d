package dwarfinfo

import (
	"debug/dwarf"
	"fmt"

	"github.com/go-delve/delve/pkg/dwarf/godwarf"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
)

var tags = map[dwarf.Tag]typegraph.Tag{
	dwarf.TagBaseType:            typegraph.TagBase,
	dwarf.TagPointerType:         typegraph.TagPointer,
	dwarf.TagReferenceType:       typegraph.TagPointer,
	dwarf.TagRvalueReferenceType: typegraph.TagPointer,
	dwarf.TagArrayType:           typegraph.TagArray,
	dwarf.TagStructType:          typegraph.TagStruct,
	dwarf.TagClassType:           typegraph.TagClass,
	dwarf.TagUnionType:           typegraph.TagUnion,
	dwarf.TagEnumerationType:     typegraph.TagEnum,
	dwarf.TagTypedef:             typegraph.TagTypedef,
	dwarf.TagConstType:           typegraph.TagConst,
	dwarf.TagVolatileType:        typegraph.TagVolatile,
	dwarf.TagRestrictType:        typegraph.TagRestrict,
	dwarf.TagPackedType:          typegraph.TagPacked,
	dwarf.TagAtomicType:          typegraph.TagAtomic,
	dwarf.TagImmutableType:       typegraph.TagImmutable,
	dwarf.TagSubroutineType:      typegraph.TagSubroutine,
	dwarf.TagUnspecifiedType:     typegraph.TagUnspecified,
	dwarf.TagMember:              typegraph.TagMember,
	dwarf.TagInheritance:         typegraph.TagInheritance,
	dwarf.TagSubrangeType:        typegraph.TagSubrange,
	dwarf.TagEnumerator:          typegraph.TagEnumerator,
}

var attrs = map[typegraph.Attr]dwarf.Attr{
	typegraph.AttrByteSize:      dwarf.AttrByteSize,
	typegraph.AttrBitSize:       dwarf.AttrBitSize,
	typegraph.AttrBitOffset:     dwarf.AttrBitOffset,
	typegraph.AttrDataBitOffset: dwarf.AttrDataBitOffset,
	typegraph.AttrEncoding:      dwarf.AttrEncoding,
	typegraph.AttrByteStride:    dwarf.AttrStride,
	typegraph.AttrUpperBound:    dwarf.AttrUpperBound,
	typegraph.AttrLowerBound:    dwarf.AttrLowerBound,
	typegraph.AttrCount:         dwarf.AttrCount,
	typegraph.AttrDeclaration:   dwarf.AttrDeclaration,
	typegraph.AttrConstValue:    dwarf.AttrConstValue,
}

// DW_ATE values
const (
	ateAddress      = 0x01
	ateBoolean      = 0x02
	ateFloat        = 0x04
	ateSigned       = 0x05
	ateSignedChar   = 0x06
	ateUnsigned     = 0x07
	ateUnsignedChar = 0x08
)

func encoding(ate uint64) uint64 {
	switch ate {
	case ateAddress:
		return typegraph.EncodingAddress
	case ateBoolean:
		return typegraph.EncodingBoolean
	case ateFloat:
		return typegraph.EncodingFloat
	case ateSigned:
		return typegraph.EncodingSigned
	case ateSignedChar:
		return typegraph.EncodingSignedChar
	case ateUnsigned:
		return typegraph.EncodingUnsigned
	case ateUnsignedChar:
		return typegraph.EncodingUnsignedChar
	}
	return typegraph.EncodingOther
}

// Options returns the builder options for this file. bigEndian selects the
// bitfield mirror rule.
func (f *File) Options(bigEndian bool) typegraph.Options {
	return typegraph.Options{BigEndian: bigEndian}
}

func (f *File) AddressSize(unit int) uint64 {
	if unit < 0 || unit >= len(f.units) {
		return 0
	}
	return uint64(f.units[unit].AddrSize)
}

func (f *File) Entry(id debuginfo.TypeID) (typegraph.Entry, error) {
	tree, err := godwarf.LoadTree(dwarf.Offset(id), f.dw, 0)
	if err != nil {
		return nil, fmt.Errorf("dwarfinfo: failed to load entry %#x: %w", uint64(id), err)
	}
	return &entry{file: f, tree: tree, unit: f.unitOf(tree.Offset)}, nil
}

type entry struct {
	file *File
	tree *godwarf.Tree
	unit int

	// evaluated DW_AT_data_member_location of members and bases
	location    uint64
	hasLocation bool
}

func (e *entry) ID() debuginfo.TypeID { return debuginfo.TypeID(e.tree.Offset) }
func (e *entry) Unit() int            { return e.unit }

func (e *entry) Tag() typegraph.Tag {
	if t, ok := tags[e.tree.Tag]; ok {
		return t
	}
	return typegraph.TagUnknown
}

func (e *entry) Name() (string, bool) {
	name, ok := e.tree.Val(dwarf.AttrName).(string)
	return name, ok
}

func (e *entry) Uint(a typegraph.Attr) (uint64, bool) {
	if a == typegraph.AttrDataMemberLocation {
		return e.location, e.hasLocation
	}
	key, ok := attrs[a]
	if !ok {
		return 0, false
	}
	v, ok := toUint(e.tree.Val(key))
	if ok && a == typegraph.AttrEncoding {
		v = encoding(v)
	}
	return v, ok
}

// Int returns a constant attribute as stored. debug/dwarf zero-extends the
// fixed-size data forms, so negative values of those forms need the
// width of their type to be recovered.
func (e *entry) Int(a typegraph.Attr) (int64, bool) {
	key, ok := attrs[a]
	if !ok {
		return 0, false
	}
	v, ok := toUint(e.tree.Val(key))
	return int64(v), ok
}

func (e *entry) Flag(a typegraph.Attr) bool {
	key, ok := attrs[a]
	if !ok {
		return false
	}
	v, _ := e.tree.Val(key).(bool)
	return v
}

func (e *entry) TypeRef() (debuginfo.TypeID, bool) {
	off, ok := e.tree.Val(dwarf.AttrType).(dwarf.Offset)
	return debuginfo.TypeID(off), ok
}

func (e *entry) Children() ([]typegraph.Entry, error) {
	out := make([]typegraph.Entry, 0, len(e.tree.Children))
	for _, c := range e.tree.Children {
		child := &entry{file: e.file, tree: c, unit: e.unit}
		if c.Tag == dwarf.TagMember || c.Tag == dwarf.TagInheritance {
			loc, ok, err := memberLocation(c.Val(dwarf.AttrDataMemberLoc))
			if err != nil {
				return nil, fmt.Errorf("member at %#x: %w", uint64(c.Offset), err)
			}
			child.location, child.hasLocation = loc, ok
		}
		out = append(out, child)
	}
	return out, nil
}

// toUint converts a constant-class attribute value.
func toUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case int64:
		return uint64(n), true
	case uint64:
		return n, true
	case int:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	}
	return 0, false
}
