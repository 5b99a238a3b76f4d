package codeview

import (
	"fmt"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/tpi"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
)

type builtinSpec struct {
	name     string
	size     uint64
	encoding uint64
}

const (
	encSigned   = typegraph.EncodingSigned
	encUnsigned = typegraph.EncodingUnsigned
	encBool     = typegraph.EncodingBoolean
	encFloat    = typegraph.EncodingFloat
	encOther    = typegraph.EncodingOther
)

// builtins maps simple type kinds to their shape. Kinds missing here
// resolve to an opaque zero-sized type.
var builtins = map[tpi.SimpleTypeKind]builtinSpec{
	tpi.SimpleTypeNone:         {"notype", 1, encUnsigned},
	tpi.SimpleTypeVoid:         {"void", 0, encOther},
	tpi.SimpleTypeHResult:      {"HRESULT", 4, encOther},
	tpi.SimpleTypeSignedChar:   {"char", 1, encSigned},
	tpi.SimpleTypeUnsignedChar: {"uchar", 1, encUnsigned},
	tpi.SimpleTypeNarrowChar:   {"rchar", 1, encUnsigned},
	tpi.SimpleTypeWideChar:     {"wchar", 2, encUnsigned},
	tpi.SimpleTypeChar8:        {"char8", 1, encUnsigned},
	tpi.SimpleTypeChar16:       {"rchar16", 2, encUnsigned},
	tpi.SimpleTypeChar32:       {"rchar32", 4, encUnsigned},
	tpi.SimpleTypeSByte:        {"i8", 1, encSigned},
	tpi.SimpleTypeByte:         {"u8", 1, encUnsigned},
	tpi.SimpleTypeInt16Short:   {"short", 2, encSigned},
	tpi.SimpleTypeUInt16Short:  {"ushort", 2, encUnsigned},
	tpi.SimpleTypeInt16:        {"i16", 2, encSigned},
	tpi.SimpleTypeUInt16:       {"u16", 2, encUnsigned},
	tpi.SimpleTypeInt32Long:    {"long", 4, encSigned},
	tpi.SimpleTypeUInt32Long:   {"ulong", 4, encUnsigned},
	tpi.SimpleTypeInt32:        {"i32", 4, encSigned},
	tpi.SimpleTypeUInt32:       {"u32", 4, encUnsigned},
	tpi.SimpleTypeInt64Quad:    {"quad", 8, encSigned},
	tpi.SimpleTypeUInt64Quad:   {"uquad", 8, encUnsigned},
	tpi.SimpleTypeInt64:        {"i64", 8, encSigned},
	tpi.SimpleTypeUInt64:       {"u64", 8, encUnsigned},
	tpi.SimpleTypeInt128Oct:    {"octa", 16, encOther},
	tpi.SimpleTypeUInt128Oct:   {"uocta", 16, encOther},
	tpi.SimpleTypeInt128:       {"i128", 16, encOther},
	tpi.SimpleTypeUInt128:      {"u128", 16, encOther},
	tpi.SimpleTypeFloat16:      {"f16", 2, encOther},
	tpi.SimpleTypeFloat32:      {"f32", 4, encFloat},
	tpi.SimpleTypeFloat32PP:    {"f32pp", 4, encOther},
	tpi.SimpleTypeFloat48:      {"f48", 6, encOther},
	tpi.SimpleTypeFloat64:      {"f64", 8, encFloat},
	tpi.SimpleTypeFloat80:      {"f80", 10, encOther},
	tpi.SimpleTypeFloat128:     {"f128", 16, encOther},
	tpi.SimpleTypeComplex32:    {"complex32", 4, encOther},
	tpi.SimpleTypeComplex64:    {"complex64", 8, encOther},
	tpi.SimpleTypeComplex80:    {"complex80", 10, encOther},
	tpi.SimpleTypeComplex128:   {"complex128", 16, encOther},
	tpi.SimpleTypeBool8:        {"bool8", 1, encBool},
	tpi.SimpleTypeBool16:       {"bool16", 2, encBool},
	tpi.SimpleTypeBool32:       {"bool32", 4, encBool},
	tpi.SimpleTypeBool64:       {"bool64", 8, encBool},
}

// builtin synthesizes the entry for a type index below 0x1000.
func builtin(ti tpi.TypeIndex) (typegraph.Entry, error) {
	e := &entry{id: debuginfo.TypeID(ti), hasName: true}
	switch ti.SimpleMode() {
	case tpi.SimpleModeDirect:
		spec, ok := builtins[ti.SimpleKind()]
		if !ok {
			spec = builtinSpec{"unknown", 0, encOther}
		}
		e.tag = typegraph.TagBase
		e.name = spec.name
		e.attrs = map[typegraph.Attr]uint64{
			typegraph.AttrByteSize: spec.size,
			typegraph.AttrEncoding: spec.encoding,
		}
	case tpi.SimpleModeNearPointer32, tpi.SimpleModeNearPointer64:
		size := uint64(4)
		if ti.SimpleMode() == tpi.SimpleModeNearPointer64 {
			size = 8
		}
		e.tag = typegraph.TagPointer
		e.hasName = false
		e.ref, e.hasRef = tpi.TypeIndex(ti.SimpleKind()), true
		e.attrs = map[typegraph.Attr]uint64{typegraph.AttrByteSize: size}
	default:
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedPointer, uint32(ti))
	}
	return e, nil
}
