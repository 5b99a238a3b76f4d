package tpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/dbgtypes/internal/testutil"
)

func TestParseStream(t *testing.T) {
	var b testutil.TPIBuilder
	ptr := b.Add(uint16(LF_POINTER), testutil.NewLeaf().U32(0x74).U32(8<<13).Bytes())
	fwd := b.Add(uint16(LF_STRUCTURE), testutil.NewLeaf().
		U16(0).U16(0x0280).U32(0).U32(0).U32(0).Num(0).Str("Point").Str(".?AUPoint@@").Bytes())

	s, err := ParseStream(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, s.TypeCount())

	rec, err := s.Record(TypeIndex(ptr))
	require.NoError(t, err)
	assert.Equal(t, LF_POINTER, rec.Kind)
	p, err := ParsePointerRecord(rec.Data)
	require.NoError(t, err)
	assert.Equal(t, TypeIndex(0x74), p.ReferentType)
	assert.Equal(t, uint8(8), p.Attributes.Size())

	rec, err = s.Record(TypeIndex(fwd))
	require.NoError(t, err)
	kind, name, forward, ok := UniqueName(rec)
	require.True(t, ok)
	assert.Equal(t, LF_STRUCTURE, kind)
	assert.Equal(t, ".?AUPoint@@", name)
	assert.True(t, forward)

	rec, err = s.Record(0x74)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = s.Record(0x2000)
	assert.ErrorIs(t, err, ErrTypeIndexOutOfRange)

	var seen []TypeIndex
	s.Each(func(ti TypeIndex, _ *TypeRecord) { seen = append(seen, ti) })
	assert.Equal(t, []TypeIndex{0x1000, 0x1001}, seen)
}

func TestParseStreamRejectsVersion(t *testing.T) {
	var b testutil.TPIBuilder
	data := b.Bytes()
	data[0] = 0x01
	_, err := ParseStream(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = ParseStream(data[:10])
	assert.ErrorIs(t, err, ErrInvalidTPIHeader)
}

func TestParseAggregateRecord(t *testing.T) {
	t.Run("class", func(t *testing.T) {
		data := testutil.NewLeaf().U16(2).U16(0x0200).U32(0x1005).U32(0).U32(0).
			Num(0x10000).Str("Big").Str("uBig").Bytes()
		rec, err := ParseAggregateRecord(LF_CLASS, data)
		require.NoError(t, err)
		assert.Equal(t, TypeIndex(0x1005), rec.FieldList)
		assert.Equal(t, uint64(0x10000), rec.Size)
		assert.Equal(t, "Big", rec.Name)
		assert.Equal(t, "uBig", rec.UniqueName)
		assert.False(t, rec.Properties.IsForwardRef())
	})

	t.Run("union", func(t *testing.T) {
		data := testutil.NewLeaf().U16(2).U16(0).U32(0x1003).Num(4).Str("U").Bytes()
		rec, err := ParseAggregateRecord(LF_UNION, data)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), rec.Size)
		assert.Equal(t, "U", rec.Name)
		assert.Empty(t, rec.UniqueName)
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := ParseAggregateRecord(LF_ENUM, nil)
		assert.ErrorIs(t, err, ErrInvalidTypeRecord)
	})
}

func TestParseFieldList(t *testing.T) {
	data := testutil.NewLeaf().
		U16(uint16(LF_BCLASS)).U16(3).U32(0x1001).Num(0).
		U16(uint16(LF_MEMBER)).U16(3).U32(0x74).Num(4).Str("x").
		U8(0xF2).U8(0xF1).
		U16(uint16(LF_ONEMETHOD)).U16(4 << 2).U32(0x1009).U32(0).Str("vfn").
		U16(uint16(LF_ONEMETHOD)).U16(0).U32(0x1009).Str("fn").
		U16(uint16(LF_VBCLASS)).U16(3).U32(0x1002).U32(0x1003).Num(0).Num(1).
		U16(uint16(LF_NESTTYPE)).U16(0).U32(0x1004).Str("Inner").
		U16(uint16(LF_ENUMERATE)).U16(3).SNum(-1).Str("NEG").
		U16(uint16(LF_INDEX)).U16(0).U32(0x1010).
		Bytes()

	fields, err := ParseFieldList(data)
	require.NoError(t, err)
	require.Len(t, fields, 8)

	assert.Equal(t, LF_BCLASS, fields[0].Kind)
	assert.Equal(t, TypeIndex(0x1001), fields[0].Type)

	assert.Equal(t, "x", fields[1].Name)
	assert.Equal(t, uint64(4), fields[1].Offset)

	assert.Equal(t, "vfn", fields[2].Name)
	assert.Equal(t, "fn", fields[3].Name)
	assert.Equal(t, LF_VBCLASS, fields[4].Kind)
	assert.Equal(t, "Inner", fields[5].Name)

	assert.Equal(t, "NEG", fields[6].Name)
	assert.Equal(t, int64(-1), int64(fields[6].Value))

	assert.Equal(t, LF_INDEX, fields[7].Kind)
	assert.Equal(t, TypeIndex(0x1010), fields[7].Type)
}

func TestParseFieldListUnknownKind(t *testing.T) {
	_, err := ParseFieldList(testutil.NewLeaf().U16(0x0001).U16(0).Bytes())
	assert.ErrorIs(t, err, ErrInvalidTypeRecord)
}

func TestSimpleIndex(t *testing.T) {
	ti := TypeIndex(0x0674)
	assert.True(t, ti.IsSimpleType())
	assert.Equal(t, SimpleTypeInt32, ti.SimpleKind())
	assert.Equal(t, SimpleModeNearPointer64, ti.SimpleMode())
	assert.False(t, TypeIndex(0x1000).IsSimpleType())
}
