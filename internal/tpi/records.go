// Package tpi reads the TPI type stream of a PDB: the header, the index of
// type records, and the leaf records the type graph needs.
package tpi

// TypeIndex refers to a record in the TPI stream or, below
// FirstUserTypeIndex, to a builtin type.
type TypeIndex uint32

// FirstUserTypeIndex is the first index backed by a record.
const FirstUserTypeIndex TypeIndex = 0x1000

// IsSimpleType reports whether ti is a builtin type.
func (ti TypeIndex) IsSimpleType() bool {
	return ti < FirstUserTypeIndex
}

// SimpleKind extracts the builtin kind (bits 0-7).
func (ti TypeIndex) SimpleKind() SimpleTypeKind {
	return SimpleTypeKind(ti & 0xFF)
}

// SimpleMode extracts the builtin pointer mode (bits 8-15).
func (ti TypeIndex) SimpleMode() SimpleTypeMode {
	return SimpleTypeMode((ti >> 8) & 0xFF)
}

// SimpleTypeKind identifies builtin types.
type SimpleTypeKind uint8

const (
	SimpleTypeNone          SimpleTypeKind = 0x00
	SimpleTypeAbs           SimpleTypeKind = 0x01
	SimpleTypeSegment       SimpleTypeKind = 0x02
	SimpleTypeVoid          SimpleTypeKind = 0x03
	SimpleTypeCurrency      SimpleTypeKind = 0x04
	SimpleTypeNearBasicStr  SimpleTypeKind = 0x05
	SimpleTypeFarBasicStr   SimpleTypeKind = 0x06
	SimpleTypeNotTranslated SimpleTypeKind = 0x07
	SimpleTypeHResult       SimpleTypeKind = 0x08
	SimpleTypeSignedChar    SimpleTypeKind = 0x10
	SimpleTypeInt16Short    SimpleTypeKind = 0x11
	SimpleTypeInt32Long     SimpleTypeKind = 0x12
	SimpleTypeInt64Quad     SimpleTypeKind = 0x13
	SimpleTypeInt128Oct     SimpleTypeKind = 0x14
	SimpleTypeUnsignedChar  SimpleTypeKind = 0x20
	SimpleTypeUInt16Short   SimpleTypeKind = 0x21
	SimpleTypeUInt32Long    SimpleTypeKind = 0x22
	SimpleTypeUInt64Quad    SimpleTypeKind = 0x23
	SimpleTypeUInt128Oct    SimpleTypeKind = 0x24
	SimpleTypeBool8         SimpleTypeKind = 0x30
	SimpleTypeBool16        SimpleTypeKind = 0x31
	SimpleTypeBool32        SimpleTypeKind = 0x32
	SimpleTypeBool64        SimpleTypeKind = 0x33
	SimpleTypeBool128       SimpleTypeKind = 0x34
	SimpleTypeBool32FF      SimpleTypeKind = 0x35
	SimpleTypeFloat32       SimpleTypeKind = 0x40
	SimpleTypeFloat64       SimpleTypeKind = 0x41
	SimpleTypeFloat80       SimpleTypeKind = 0x42
	SimpleTypeFloat128      SimpleTypeKind = 0x43
	SimpleTypeFloat48       SimpleTypeKind = 0x44
	SimpleTypeFloat32PP     SimpleTypeKind = 0x45
	SimpleTypeFloat16       SimpleTypeKind = 0x46
	SimpleTypeComplex32     SimpleTypeKind = 0x50
	SimpleTypeComplex64     SimpleTypeKind = 0x51
	SimpleTypeComplex80     SimpleTypeKind = 0x52
	SimpleTypeComplex128    SimpleTypeKind = 0x53
	SimpleTypeComplex48     SimpleTypeKind = 0x54
	SimpleTypeComplex32PP   SimpleTypeKind = 0x55
	SimpleTypeComplex16     SimpleTypeKind = 0x56
	SimpleTypePascalChar    SimpleTypeKind = 0x60
	SimpleTypeSByte         SimpleTypeKind = 0x68
	SimpleTypeByte          SimpleTypeKind = 0x69
	SimpleTypeNarrowChar    SimpleTypeKind = 0x70
	SimpleTypeWideChar      SimpleTypeKind = 0x71
	SimpleTypeInt16         SimpleTypeKind = 0x72
	SimpleTypeUInt16        SimpleTypeKind = 0x73
	SimpleTypeInt32         SimpleTypeKind = 0x74
	SimpleTypeUInt32        SimpleTypeKind = 0x75
	SimpleTypeInt64         SimpleTypeKind = 0x76
	SimpleTypeUInt64        SimpleTypeKind = 0x77
	SimpleTypeInt128        SimpleTypeKind = 0x78
	SimpleTypeUInt128       SimpleTypeKind = 0x79
	SimpleTypeChar16        SimpleTypeKind = 0x7a
	SimpleTypeChar32        SimpleTypeKind = 0x7b
	SimpleTypeChar8         SimpleTypeKind = 0x7c
)

// SimpleTypeMode is the pointer mode of a builtin type index.
type SimpleTypeMode uint8

const (
	SimpleModeDirect        SimpleTypeMode = 0x00
	SimpleModeNearPointer   SimpleTypeMode = 0x01
	SimpleModeFarPointer    SimpleTypeMode = 0x02
	SimpleModeHugePointer   SimpleTypeMode = 0x03
	SimpleModeNearPointer32 SimpleTypeMode = 0x04
	SimpleModeFarPointer32  SimpleTypeMode = 0x05
	SimpleModeNearPointer64 SimpleTypeMode = 0x06
)

// TypeRecordKind is the leaf kind of a type record or field.
type TypeRecordKind uint16

const (
	LF_VTSHAPE    TypeRecordKind = 0x000a
	LF_MODIFIER   TypeRecordKind = 0x1001
	LF_POINTER    TypeRecordKind = 0x1002
	LF_PROCEDURE  TypeRecordKind = 0x1008
	LF_MFUNCTION  TypeRecordKind = 0x1009
	LF_ARGLIST    TypeRecordKind = 0x1201
	LF_FIELDLIST  TypeRecordKind = 0x1203
	LF_BITFIELD   TypeRecordKind = 0x1205
	LF_METHODLIST TypeRecordKind = 0x1206

	LF_BCLASS    TypeRecordKind = 0x1400
	LF_VBCLASS   TypeRecordKind = 0x1401
	LF_IVBCLASS  TypeRecordKind = 0x1402
	LF_INDEX     TypeRecordKind = 0x1404
	LF_VFUNCTAB  TypeRecordKind = 0x1409
	LF_FRIENDCLS TypeRecordKind = 0x140a
	LF_VFUNCOFF  TypeRecordKind = 0x140c

	LF_ENUMERATE TypeRecordKind = 0x1502
	LF_ARRAY     TypeRecordKind = 0x1503
	LF_CLASS     TypeRecordKind = 0x1504
	LF_STRUCTURE TypeRecordKind = 0x1505
	LF_UNION     TypeRecordKind = 0x1506
	LF_ENUM      TypeRecordKind = 0x1507
	LF_DIMARRAY  TypeRecordKind = 0x1508
	LF_FRIENDFCN TypeRecordKind = 0x150c
	LF_MEMBER    TypeRecordKind = 0x150d
	LF_STMEMBER  TypeRecordKind = 0x150e
	LF_METHOD    TypeRecordKind = 0x150f
	LF_NESTTYPE  TypeRecordKind = 0x1510
	LF_ONEMETHOD TypeRecordKind = 0x1511
	LF_INTERFACE TypeRecordKind = 0x1519
)

// IsAggregate reports whether k is a class, struct, interface or union.
func (k TypeRecordKind) IsAggregate() bool {
	switch k {
	case LF_CLASS, LF_STRUCTURE, LF_INTERFACE, LF_UNION:
		return true
	}
	return false
}

// PointerMode distinguishes plain pointers from references and members.
type PointerMode uint8

const (
	PointerModePointer                 PointerMode = 0x00
	PointerModeLValueReference         PointerMode = 0x01
	PointerModePointerToDataMember     PointerMode = 0x02
	PointerModePointerToMemberFunction PointerMode = 0x03
	PointerModeRValueReference         PointerMode = 0x04
)

// PointerAttributes is the packed attribute word of LF_POINTER.
type PointerAttributes uint32

func (pa PointerAttributes) Mode() PointerMode { return PointerMode((pa >> 5) & 0x07) }
func (pa PointerAttributes) Size() uint8       { return uint8((pa >> 13) & 0x3F) }

// ClassProperties is the property word shared by aggregate and enum records.
type ClassProperties uint16

func (cp ClassProperties) IsForwardRef() bool  { return cp&0x0080 != 0 }
func (cp ClassProperties) HasUniqueName() bool { return cp&0x0200 != 0 }

// ModifierOptions holds LF_MODIFIER flags.
type ModifierOptions uint16

func (mo ModifierOptions) IsConst() bool    { return mo&0x01 != 0 }
func (mo ModifierOptions) IsVolatile() bool { return mo&0x02 != 0 }
