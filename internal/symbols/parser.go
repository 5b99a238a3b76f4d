package symbols

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/dbgtypes/internal/stream"
	"github.com/skdltmxn/dbgtypes/internal/tpi"
)

// Errors
var (
	ErrInvalidSymbolRecord = errors.New("symbols: invalid symbol record")
	ErrUnexpectedEnd       = errors.New("symbols: unexpected end of data")
	ErrBadSignature        = errors.New("symbols: unsupported module stream signature")
)

// moduleSignatureC13 prefixes every module symbol stream.
const moduleSignatureC13 = 4

// ParseSymbolRecord parses a single symbol record from raw data.
// Returns the symbol and the number of bytes consumed.
func ParseSymbolRecord(data []byte) (*SymbolRecord, int, error) {
	if len(data) < 4 {
		return nil, 0, ErrUnexpectedEnd
	}

	r := stream.NewReader(data)

	// length does not include the length field itself
	length, err := r.ReadU16()
	if err != nil {
		return nil, 0, err
	}
	kind, err := r.ReadU16()
	if err != nil {
		return nil, 0, err
	}

	totalSize := int(length) + 2
	if length < 2 {
		return nil, 0, ErrInvalidSymbolRecord
	}
	if totalSize > len(data) {
		return nil, 0, ErrUnexpectedEnd
	}

	return &SymbolRecord{
		Kind: SymbolRecordKind(kind),
		Data: data[4:totalSize],
	}, totalSize, nil
}

// SymbolIterator iterates over symbol records in a stream.
type SymbolIterator struct {
	data   []byte
	offset int
}

// NewSymbolIterator creates a new symbol iterator over a symbol record
// stream.
func NewSymbolIterator(data []byte) *SymbolIterator {
	return &SymbolIterator{data: data}
}

// NewModuleIterator creates an iterator over a module symbol stream,
// limited to symByteSize bytes including the leading signature.
func NewModuleIterator(data []byte, symByteSize uint32) (*SymbolIterator, error) {
	if int(symByteSize) < len(data) {
		data = data[:symByteSize]
	}
	r := stream.NewReader(data)
	sig, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("symbols: failed to read module signature: %w", err)
	}
	if sig != moduleSignatureC13 {
		return nil, fmt.Errorf("%w: %d", ErrBadSignature, sig)
	}
	return &SymbolIterator{data: data, offset: 4}, nil
}

// Next returns the next symbol record, or nil if there are no more.
// Trailing bytes shorter than a record header are treated as padding.
func (it *SymbolIterator) Next() (*SymbolRecord, error) {
	if len(it.data)-it.offset < 4 {
		return nil, nil
	}

	rec, size, err := ParseSymbolRecord(it.data[it.offset:])
	if err != nil {
		return nil, fmt.Errorf("symbols: record at %#x: %w", it.offset, err)
	}
	rec.Offset = it.offset

	it.offset += size
	return rec, nil
}

// Reset resets the iterator to the beginning.
func (it *SymbolIterator) Reset() {
	it.offset = 0
}

func readName(r *stream.Reader, kind SymbolRecordKind) (string, error) {
	if !kind.pascalNames() {
		return r.ReadCString()
	}
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytesRef(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseDataSym parses a data symbol (S_GDATA32, S_LDATA32, etc.).
func ParseDataSym(rec *SymbolRecord) (*DataSym, error) {
	if !rec.Kind.IsData() {
		return nil, fmt.Errorf("%w: kind %#x is not data", ErrInvalidSymbolRecord, uint16(rec.Kind))
	}
	r := stream.NewReader(rec.Data)

	typeIndex, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	offset, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	segment, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := readName(r, rec.Kind)
	if err != nil {
		return nil, err
	}

	return &DataSym{
		Type:    tpi.TypeIndex(typeIndex),
		Offset:  offset,
		Segment: segment,
		Name:    name,
	}, nil
}

// ParseProcSym parses a procedure symbol (S_GPROC32, S_LPROC32, etc.).
func ParseProcSym(rec *SymbolRecord) (*ProcSym, error) {
	if !rec.Kind.IsProc() {
		return nil, fmt.Errorf("%w: kind %#x is not a procedure", ErrInvalidSymbolRecord, uint16(rec.Kind))
	}
	r := stream.NewReader(rec.Data)

	var p ProcSym
	var err error
	for _, dst := range []*uint32{
		&p.PtrParent, &p.PtrEnd, &p.PtrNext, &p.CodeSize, &p.DbgStart, &p.DbgEnd,
	} {
		if *dst, err = r.ReadU32(); err != nil {
			return nil, err
		}
	}
	funcType, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	p.FunctionType = tpi.TypeIndex(funcType)
	if p.CodeOffset, err = r.ReadU32(); err != nil {
		return nil, err
	}
	if p.Segment, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if p.Flags, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if p.Name, err = readName(r, rec.Kind); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseBlockSym parses a block symbol (S_BLOCK32).
func ParseBlockSym(rec *SymbolRecord) (*BlockSym, error) {
	if rec.Kind != S_BLOCK32 {
		return nil, fmt.Errorf("%w: kind %#x is not a block", ErrInvalidSymbolRecord, uint16(rec.Kind))
	}
	r := stream.NewReader(rec.Data)

	var b BlockSym
	var err error
	for _, dst := range []*uint32{&b.PtrParent, &b.PtrEnd, &b.CodeSize, &b.Offset} {
		if *dst, err = r.ReadU32(); err != nil {
			return nil, err
		}
	}
	if b.Segment, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if b.Name, err = r.ReadCString(); err != nil {
		return nil, err
	}
	return &b, nil
}
