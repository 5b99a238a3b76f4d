package tpi

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/dbgtypes/internal/stream"
)

// Stream versions accepted by ParseStream.
const (
	TPIVersionV70 uint32 = 19990903
	TPIVersionV80 uint32 = 20040203
)

// TPIHeaderSize is the encoded size of Header.
const TPIHeaderSize = 56

var (
	ErrInvalidTPIHeader    = errors.New("tpi: invalid TPI header")
	ErrUnsupportedVersion  = errors.New("tpi: unsupported TPI version")
	ErrTypeIndexOutOfRange = errors.New("tpi: type index out of range")
	ErrInvalidTypeRecord   = errors.New("tpi: invalid type record")
)

// Header is the fixed prefix of a TPI stream. Hash buffers are not used.
type Header struct {
	Version         uint32
	HeaderSize      uint32
	TypeIndexBegin  TypeIndex
	TypeIndexEnd    TypeIndex
	TypeRecordBytes uint32
}

// TypeRecord is one raw leaf record; Data excludes the length and kind.
type TypeRecord struct {
	Kind TypeRecordKind
	Data []byte
}

// Stream is a parsed TPI stream with random access by type index.
// It is immutable once parsed.
type Stream struct {
	Header  Header
	records []TypeRecord
}

// ParseStream parses a TPI stream and indexes every record.
func ParseStream(data []byte) (*Stream, error) {
	if len(data) < TPIHeaderSize {
		return nil, ErrInvalidTPIHeader
	}
	r := stream.NewReader(data)

	var h Header
	var begin, end uint32
	for _, dst := range []*uint32{&h.Version, &h.HeaderSize, &begin, &end, &h.TypeRecordBytes} {
		v, err := r.ReadU32()
		if err != nil {
			return nil, ErrInvalidTPIHeader
		}
		*dst = v
	}
	if h.Version != TPIVersionV80 && h.Version != TPIVersionV70 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if end < begin || begin < uint32(FirstUserTypeIndex) {
		return nil, fmt.Errorf("%w: index range [%#x, %#x)", ErrInvalidTPIHeader, begin, end)
	}
	h.TypeIndexBegin, h.TypeIndexEnd = TypeIndex(begin), TypeIndex(end)

	start := int(h.HeaderSize)
	stop := start + int(h.TypeRecordBytes)
	if start < TPIHeaderSize || stop > len(data) {
		return nil, fmt.Errorf("tpi: truncated stream: expected %d bytes, got %d", stop, len(data))
	}

	s := &Stream{Header: h, records: make([]TypeRecord, 0, end-begin)}
	rr := stream.NewReader(data[start:stop])
	for rr.Remaining() > 0 && len(s.records) < int(end-begin) {
		length, err := rr.ReadU16()
		if err != nil {
			return nil, err
		}
		body, err := rr.ReadBytesRef(int(length))
		if err != nil || len(body) < 2 {
			return nil, fmt.Errorf("%w: record %#x", ErrInvalidTypeRecord, begin+uint32(len(s.records)))
		}
		s.records = append(s.records, TypeRecord{
			Kind: TypeRecordKind(uint16(body[0]) | uint16(body[1])<<8),
			Data: body[2:],
		})
	}
	return s, nil
}

// Record returns the record for ti. Builtin indices have no record.
func (s *Stream) Record(ti TypeIndex) (*TypeRecord, error) {
	if ti.IsSimpleType() {
		return nil, nil
	}
	i := int(ti - s.Header.TypeIndexBegin)
	if ti < s.Header.TypeIndexBegin || i >= len(s.records) {
		return nil, fmt.Errorf("%w: %#x", ErrTypeIndexOutOfRange, uint32(ti))
	}
	return &s.records[i], nil
}

// Each calls fn for every record in index order.
func (s *Stream) Each(fn func(TypeIndex, *TypeRecord)) {
	for i := range s.records {
		fn(s.Header.TypeIndexBegin+TypeIndex(i), &s.records[i])
	}
}

// TypeCount returns the number of indexed records.
func (s *Stream) TypeCount() int {
	return len(s.records)
}

// ModifierRecord is LF_MODIFIER.
type ModifierRecord struct {
	ModifiedType TypeIndex
	Modifiers    ModifierOptions
}

// ParseModifierRecord parses LF_MODIFIER.
func ParseModifierRecord(data []byte) (*ModifierRecord, error) {
	r := stream.NewReader(data)
	t, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	m, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return &ModifierRecord{ModifiedType: TypeIndex(t), Modifiers: ModifierOptions(m)}, nil
}

// PointerRecord is LF_POINTER.
type PointerRecord struct {
	ReferentType TypeIndex
	Attributes   PointerAttributes
}

// ParsePointerRecord parses LF_POINTER. Member-pointer trailers are ignored.
func ParsePointerRecord(data []byte) (*PointerRecord, error) {
	r := stream.NewReader(data)
	t, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	a, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	return &PointerRecord{ReferentType: TypeIndex(t), Attributes: PointerAttributes(a)}, nil
}

// ArrayRecord is LF_ARRAY.
type ArrayRecord struct {
	ElementType TypeIndex
	IndexType   TypeIndex
	Size        uint64
	Name        string
}

// ParseArrayRecord parses LF_ARRAY.
func ParseArrayRecord(data []byte) (*ArrayRecord, error) {
	r := stream.NewReader(data)
	elem, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	index, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadNumeric()
	if err != nil {
		return nil, err
	}
	name, err := r.ReadCString()
	if err != nil {
		return nil, err
	}
	return &ArrayRecord{ElementType: TypeIndex(elem), IndexType: TypeIndex(index), Size: size, Name: name}, nil
}

// AggregateRecord covers LF_CLASS, LF_STRUCTURE, LF_INTERFACE and LF_UNION.
type AggregateRecord struct {
	Kind        TypeRecordKind
	MemberCount uint16
	Properties  ClassProperties
	FieldList   TypeIndex
	DerivedFrom TypeIndex
	Size        uint64
	Name        string
	UniqueName  string
}

// ParseAggregateRecord parses a class-like or union record. Unions carry no
// derivation or vshape indices.
func ParseAggregateRecord(kind TypeRecordKind, data []byte) (*AggregateRecord, error) {
	if !kind.IsAggregate() {
		return nil, fmt.Errorf("%w: kind %#x is not an aggregate", ErrInvalidTypeRecord, uint16(kind))
	}
	r := stream.NewReader(data)
	rec := &AggregateRecord{Kind: kind}

	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	props, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	fields, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	rec.MemberCount, rec.Properties, rec.FieldList = count, ClassProperties(props), TypeIndex(fields)

	if kind != LF_UNION {
		derived, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadU32(); err != nil { // vshape
			return nil, err
		}
		rec.DerivedFrom = TypeIndex(derived)
	}

	if rec.Size, err = r.ReadNumeric(); err != nil {
		return nil, err
	}
	if rec.Name, err = r.ReadCString(); err != nil {
		return nil, err
	}
	if rec.Properties.HasUniqueName() {
		if rec.UniqueName, err = r.ReadCString(); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// EnumRecord is LF_ENUM.
type EnumRecord struct {
	Count          uint16
	Properties     ClassProperties
	UnderlyingType TypeIndex
	FieldList      TypeIndex
	Name           string
	UniqueName     string
}

// ParseEnumRecord parses LF_ENUM.
func ParseEnumRecord(data []byte) (*EnumRecord, error) {
	r := stream.NewReader(data)
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	props, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	underlying, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	fields, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	rec := &EnumRecord{
		Count:          count,
		Properties:     ClassProperties(props),
		UnderlyingType: TypeIndex(underlying),
		FieldList:      TypeIndex(fields),
	}
	if rec.Name, err = r.ReadCString(); err != nil {
		return nil, err
	}
	if rec.Properties.HasUniqueName() {
		if rec.UniqueName, err = r.ReadCString(); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// BitFieldRecord is LF_BITFIELD.
type BitFieldRecord struct {
	Type     TypeIndex
	Length   uint8
	Position uint8
}

// ParseBitFieldRecord parses LF_BITFIELD.
func ParseBitFieldRecord(data []byte) (*BitFieldRecord, error) {
	r := stream.NewReader(data)
	t, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	pos, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	return &BitFieldRecord{Type: TypeIndex(t), Length: length, Position: pos}, nil
}

// UniqueName returns the kind, unique name and forward-reference flag of an
// aggregate or enum record. ok is false for any other record, or when the
// record carries no unique name.
func UniqueName(rec *TypeRecord) (kind TypeRecordKind, name string, forward bool, ok bool) {
	switch {
	case rec.Kind.IsAggregate():
		a, err := ParseAggregateRecord(rec.Kind, rec.Data)
		if err != nil || a.UniqueName == "" {
			return 0, "", false, false
		}
		return rec.Kind, a.UniqueName, a.Properties.IsForwardRef(), true
	case rec.Kind == LF_ENUM:
		e, err := ParseEnumRecord(rec.Data)
		if err != nil || e.UniqueName == "" {
			return 0, "", false, false
		}
		return rec.Kind, e.UniqueName, e.Properties.IsForwardRef(), true
	}
	return 0, "", false, false
}
