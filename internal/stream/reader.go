// Package stream provides a little-endian cursor over PDB stream bytes.
package stream

import (
	"encoding/binary"
	"errors"
)

// Errors returned by Reader
var (
	ErrUnexpectedEOF  = errors.New("stream: unexpected end of data")
	ErrNegativeOffset = errors.New("stream: negative offset")
	ErrInvalidNumeric = errors.New("stream: invalid numeric encoding")
)

// Numeric leaf prefixes used by CodeView variable-length integers.
const (
	leafChar      = 0x8000
	leafShort     = 0x8001
	leafUShort    = 0x8002
	leafLong      = 0x8003
	leafULong     = 0x8004
	leafQuadword  = 0x8009
	leafUQuadword = 0x800a
)

// Reader walks a byte slice. Multi-byte values are little-endian.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// take returns the next n bytes and advances past them.
func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.pos }

// SetOffset moves the read position.
func (r *Reader) SetOffset(offset int) error {
	if offset < 0 {
		return ErrNegativeOffset
	}
	r.pos = offset
	return nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// Align rounds the read position up to a multiple of alignment.
func (r *Reader) Align(alignment int) {
	if alignment > 1 {
		if mod := r.pos % alignment; mod != 0 {
			r.pos += alignment - mod
		}
	}
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads an unsigned 16-bit integer.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads an unsigned 32-bit integer.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads an unsigned 64-bit integer.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI32 reads a signed 32-bit integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadBytesRef returns the next n bytes without copying.
func (r *Reader) ReadBytesRef(n int) ([]byte, error) {
	return r.take(n)
}

// ReadCString reads a NUL-terminated string.
func (r *Reader) ReadCString() (string, error) {
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.pos:i])
			r.pos = i + 1
			return s, nil
		}
	}
	return "", ErrUnexpectedEOF
}

// ReadFixedString reads an n-byte string and drops trailing NUL padding.
func (r *Reader) ReadFixedString(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}

// ReadNumeric reads a CodeView numeric leaf. Signed encodings are
// sign-extended, so int64(v) recovers negative values.
func (r *Reader) ReadNumeric() (uint64, error) {
	leaf, err := r.ReadU16()
	if err != nil {
		return 0, err
	}
	if leaf < leafChar {
		return uint64(leaf), nil
	}

	var width int
	switch leaf {
	case leafChar:
		width = 1
	case leafShort, leafUShort:
		width = 2
	case leafLong, leafULong:
		width = 4
	case leafQuadword, leafUQuadword:
		width = 8
	default:
		return 0, ErrInvalidNumeric
	}
	b, err := r.take(width)
	if err != nil {
		return 0, err
	}

	switch leaf {
	case leafChar:
		return uint64(int8(b[0])), nil
	case leafShort:
		return uint64(int16(binary.LittleEndian.Uint16(b))), nil
	case leafUShort:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case leafLong:
		return uint64(int32(binary.LittleEndian.Uint32(b))), nil
	case leafULong:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	default:
		return binary.LittleEndian.Uint64(b), nil
	}
}

// PeekU8 returns the next byte without consuming it.
func (r *Reader) PeekU8() (uint8, error) {
	if r.pos >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	return r.data[r.pos], nil
}

// SubReader returns a Reader over the next length bytes and skips them.
func (r *Reader) SubReader(length int) (*Reader, error) {
	b, err := r.take(length)
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}

// RemainingData returns the unread bytes.
func (r *Reader) RemainingData() []byte {
	if r.pos >= len(r.data) {
		return nil
	}
	return r.data[r.pos:]
}
