package testutil

import (
	"bytes"
	"encoding/binary"
)

// Leaf accumulates little-endian CodeView record bytes.
type Leaf struct {
	buf bytes.Buffer
}

// NewLeaf starts a record body.
func NewLeaf() *Leaf { return &Leaf{} }

func (l *Leaf) U8(v uint8) *Leaf {
	l.buf.WriteByte(v)
	return l
}

func (l *Leaf) U16(v uint16) *Leaf {
	_ = binary.Write(&l.buf, binary.LittleEndian, v)
	return l
}

func (l *Leaf) U32(v uint32) *Leaf {
	_ = binary.Write(&l.buf, binary.LittleEndian, v)
	return l
}

// Num writes a numeric leaf, using LF_ULONG above the literal range.
func (l *Leaf) Num(v uint64) *Leaf {
	switch {
	case v < 0x8000:
		return l.U16(uint16(v))
	case v <= 0xFFFFFFFF:
		return l.U16(0x8004).U32(uint32(v))
	default:
		l.U16(0x800a)
		_ = binary.Write(&l.buf, binary.LittleEndian, v)
		return l
	}
}

// SNum writes a signed numeric leaf.
func (l *Leaf) SNum(v int64) *Leaf {
	if v >= 0 {
		return l.Num(uint64(v))
	}
	l.U16(0x8009)
	_ = binary.Write(&l.buf, binary.LittleEndian, v)
	return l
}

// Str writes a NUL-terminated string.
func (l *Leaf) Str(s string) *Leaf {
	l.buf.WriteString(s)
	l.buf.WriteByte(0)
	return l
}

// Raw appends bytes as-is.
func (l *Leaf) Raw(b []byte) *Leaf {
	l.buf.Write(b)
	return l
}

// Bytes returns the accumulated body.
func (l *Leaf) Bytes() []byte { return l.buf.Bytes() }

// TPIBuilder assembles a TPI stream whose records start at index 0x1000.
type TPIBuilder struct {
	records [][]byte
}

// Next returns the index the next Add will assign.
func (b *TPIBuilder) Next() uint32 {
	return 0x1000 + uint32(len(b.records))
}

// Add appends a record of the given leaf kind and returns its index.
func (b *TPIBuilder) Add(kind uint16, body []byte) uint32 {
	rec := NewLeaf().U16(kind).Raw(body).Bytes()
	b.records = append(b.records, rec)
	return b.Next() - 1
}

// Set replaces the body of an already added record.
func (b *TPIBuilder) Set(index uint32, kind uint16, body []byte) {
	b.records[index-0x1000] = NewLeaf().U16(kind).Raw(body).Bytes()
}

// Bytes encodes the stream with a V80 header.
func (b *TPIBuilder) Bytes() []byte {
	var data bytes.Buffer
	for _, rec := range b.records {
		_ = binary.Write(&data, binary.LittleEndian, uint16(len(rec)))
		data.Write(rec)
	}
	h := NewLeaf().
		U32(20040203).U32(56).U32(0x1000).U32(b.Next()).U32(uint32(data.Len())).
		U16(0xFFFF).U16(0xFFFF).U32(4).U32(0).
		U32(0).U32(0).U32(0).U32(0).U32(0).U32(0)
	return append(h.Bytes(), data.Bytes()...)
}
