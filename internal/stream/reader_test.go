package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadNumeric(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint64
	}{
		{"literal", []byte{0x34, 0x12}, 0x1234},
		{"char", []byte{0x00, 0x80, 0xfe}, uint64(0xfffffffffffffffe)},
		{"short", []byte{0x01, 0x80, 0xff, 0xff}, uint64(0xffffffffffffffff)},
		{"ushort", []byte{0x02, 0x80, 0xff, 0xff}, 0xffff},
		{"long", []byte{0x03, 0x80, 0x00, 0x00, 0x00, 0x80}, uint64(0xffffffff80000000)},
		{"ulong", []byte{0x04, 0x80, 0x00, 0x00, 0x00, 0x80}, 0x80000000},
		{"uquad", []byte{0x0a, 0x80, 1, 0, 0, 0, 0, 0, 0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewReader(tt.data).ReadNumeric()
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	t.Run("negative as int64", func(t *testing.T) {
		v, err := NewReader([]byte{0x00, 0x80, 0xfe}).ReadNumeric()
		require.NoError(t, err)
		assert.Equal(t, int64(-2), int64(v))
	})

	t.Run("invalid leaf", func(t *testing.T) {
		_, err := NewReader([]byte{0x05, 0x80, 0, 0}).ReadNumeric()
		assert.ErrorIs(t, err, ErrInvalidNumeric)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := NewReader([]byte{0x04, 0x80, 0x00}).ReadNumeric()
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})
}

func TestReaderStrings(t *testing.T) {
	r := NewReader([]byte("abc\x00name\x00\x00\x00"))
	s, err := r.ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	s, err = r.ReadFixedString(7)
	require.NoError(t, err)
	assert.Equal(t, "name", s)
	assert.Equal(t, 0, r.Remaining())

	_, err = NewReader([]byte("open")).ReadCString()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestReaderAlignAndSub(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	_, err := r.ReadU8()
	require.NoError(t, err)
	r.Align(4)
	assert.Equal(t, 4, r.Offset())

	sub, err := r.SubReader(2)
	require.NoError(t, err)
	v, err := sub.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0605), v)
	assert.Equal(t, 6, r.Offset())

	_, err = r.SubReader(3)
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}
