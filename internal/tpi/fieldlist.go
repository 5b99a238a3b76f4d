package tpi

import (
	"fmt"

	"github.com/skdltmxn/dbgtypes/internal/stream"
)

// Field is one entry of an LF_FIELDLIST record. Which members are set
// depends on Kind:
//
//	LF_MEMBER     Attributes, Type, Offset, Name
//	LF_BCLASS     Attributes, Type, Offset
//	LF_VBCLASS    Attributes, Type (virtual base)
//	LF_ENUMERATE  Attributes, Value, Name
//	LF_INDEX      Type (continuation field list)
//	others        Type and Name where the leaf has them
type Field struct {
	Kind       TypeRecordKind
	Attributes uint16
	Type       TypeIndex
	Offset     uint64
	Value      uint64
	Name       string
}

// method kinds that carry a vbase offset in LF_ONEMETHOD
const (
	methodIntroVirtual = 4
	methodPureIntro    = 6
)

// ParseFieldList splits LF_FIELDLIST data into fields. Continuations are
// returned as LF_INDEX fields for the caller to follow.
func ParseFieldList(data []byte) ([]Field, error) {
	r := stream.NewReader(data)
	var fields []Field
	for r.Remaining() > 0 {
		if err := skipPadding(r); err != nil {
			return nil, err
		}
		if r.Remaining() == 0 {
			break
		}
		at := r.Offset()
		f, err := parseField(r)
		if err != nil {
			return nil, fmt.Errorf("tpi: failed to parse field at offset %d: %w", at, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// skipPadding consumes LF_PAD bytes (0xF0-0xFF); the low nibble is the
// distance to the next field.
func skipPadding(r *stream.Reader) error {
	for r.Remaining() > 0 {
		b, err := r.PeekU8()
		if err != nil {
			return err
		}
		if b < 0xF0 {
			return nil
		}
		n := int(b & 0x0F)
		if n == 0 {
			n = 1
		}
		if n > r.Remaining() {
			n = r.Remaining()
		}
		if err := r.Skip(n); err != nil {
			return err
		}
	}
	return nil
}

func parseField(r *stream.Reader) (Field, error) {
	kind, err := r.ReadU16()
	if err != nil {
		return Field{}, err
	}
	f := Field{Kind: TypeRecordKind(kind)}

	u16 := func(dst *uint16) {
		if err == nil {
			*dst, err = r.ReadU16()
		}
	}
	typ := func(dst *TypeIndex) {
		if err == nil {
			var v uint32
			v, err = r.ReadU32()
			*dst = TypeIndex(v)
		}
	}
	num := func(dst *uint64) {
		if err == nil {
			*dst, err = r.ReadNumeric()
		}
	}
	name := func() {
		if err == nil {
			f.Name, err = r.ReadCString()
		}
	}
	var skip16 uint16
	var skipIdx TypeIndex
	var skipNum uint64

	switch f.Kind {
	case LF_MEMBER:
		u16(&f.Attributes)
		typ(&f.Type)
		num(&f.Offset)
		name()
	case LF_BCLASS:
		u16(&f.Attributes)
		typ(&f.Type)
		num(&f.Offset)
	case LF_VBCLASS, LF_IVBCLASS:
		u16(&f.Attributes)
		typ(&f.Type)
		typ(&skipIdx)
		num(&skipNum)
		num(&skipNum)
	case LF_ENUMERATE:
		u16(&f.Attributes)
		num(&f.Value)
		name()
	case LF_STMEMBER:
		u16(&f.Attributes)
		typ(&f.Type)
		name()
	case LF_NESTTYPE, LF_FRIENDFCN:
		u16(&skip16)
		typ(&f.Type)
		name()
	case LF_METHOD:
		u16(&skip16)
		typ(&f.Type)
		name()
	case LF_ONEMETHOD:
		u16(&f.Attributes)
		typ(&f.Type)
		if mk := (f.Attributes >> 2) & 7; err == nil && (mk == methodIntroVirtual || mk == methodPureIntro) {
			var vbase uint32
			vbase, err = r.ReadU32()
			f.Offset = uint64(vbase)
		}
		name()
	case LF_VFUNCTAB, LF_INDEX, LF_FRIENDCLS:
		u16(&skip16)
		typ(&f.Type)
	case LF_VFUNCOFF:
		u16(&skip16)
		typ(&f.Type)
		if err == nil {
			var off uint32
			off, err = r.ReadU32()
			f.Offset = uint64(off)
		}
	default:
		return f, fmt.Errorf("%w: unknown field kind %#x", ErrInvalidTypeRecord, kind)
	}
	return f, err
}
