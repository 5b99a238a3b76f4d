package codeview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/testutil"
	"github.com/skdltmxn/dbgtypes/internal/tpi"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
)

const (
	tiInt32  = 0x74
	tiUInt32 = 0x75
	ptrAttr8 = 8<<13 | 0x0c
)

func member(l *testutil.Leaf, typ uint32, offset uint64, name string) *testutil.Leaf {
	return l.U16(uint16(tpi.LF_MEMBER)).U16(3).U32(typ).Num(offset).Str(name)
}

func structure(kind tpi.TypeRecordKind, props uint16, fields uint32, size uint64, name, unique string) []byte {
	l := testutil.NewLeaf().U16(0).U16(props).U32(fields)
	if kind != tpi.LF_UNION {
		l.U32(0).U32(0)
	}
	l.Num(size).Str(name)
	if unique != "" {
		l.Str(unique)
	}
	return l.Bytes()
}

func resolver(t *testing.T, b *testutil.TPIBuilder) (*typegraph.Builder, *typegraph.Context, *typegraph.Diagnostics) {
	t.Helper()
	types, err := tpi.ParseStream(b.Bytes())
	require.NoError(t, err)
	logger := testutil.NewTestLogger(t)
	src := NewSource(types, 8, logger)
	var diag typegraph.Diagnostics
	return typegraph.NewBuilder(src, src.Options(), logger), typegraph.NewContext(), &diag
}

func TestBuiltinTypes(t *testing.T) {
	tests := []struct {
		ti       debuginfo.TypeID
		want     debuginfo.DataType
		wantName string
	}{
		{0x0074, debuginfo.Sint32, "i32"},
		{0x0075, debuginfo.Uint32, "u32"},
		{0x0070, debuginfo.Uint8, "rchar"},
		{0x0010, debuginfo.Sint8, "char"},
		{0x0020, debuginfo.Uint8, "uchar"},
		{0x0071, debuginfo.Uint16, "wchar"},
		{0x0013, debuginfo.Sint64, "quad"},
		{0x0040, debuginfo.Float, "f32"},
		{0x0041, debuginfo.Double, "f64"},
		{0x0030, debuginfo.Uint8, "bool8"},
		{0x0000, debuginfo.Uint8, "notype"},
		{0x0003, debuginfo.Other{}, "void"},
		{0x0008, debuginfo.Other{ByteSize: 4}, "HRESULT"},
		{0x0042, debuginfo.Other{ByteSize: 10}, "f80"},
		{0x0046, debuginfo.Other{ByteSize: 2}, "f16"},
		{0x0078, debuginfo.Other{ByteSize: 16}, "i128"},
		{0x00ee, debuginfo.Other{}, "unknown"},
		{0x0474, debuginfo.Pointer{PointeeSize: 4, Target: 0x74}, "i32"},
		{0x0603, debuginfo.Pointer{PointeeSize: 8, Target: 0x03}, "void"},
	}
	var b testutil.TPIBuilder
	build, ctx, diag := resolver(t, &b)
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			rec := build.Resolve(ctx, diag, tt.ti)
			assert.Equal(t, tt.want, rec.DataType)
			assert.Equal(t, tt.wantName, rec.Name)
			assert.Equal(t, 0, rec.Unit)
		})
	}
	assert.Empty(t, *diag)
}

func TestBuiltinUnsupportedPointerMode(t *testing.T) {
	var b testutil.TPIBuilder
	build, ctx, diag := resolver(t, &b)

	rec := build.Resolve(ctx, diag, 0x0274)

	assert.Equal(t, debuginfo.Other{}, rec.DataType)
	require.Len(t, *diag, 1)
	assert.Contains(t, (*diag)[0], "unsupported builtin pointer mode")
}

func TestForwardReferenceResolvesToDefinition(t *testing.T) {
	var b testutil.TPIBuilder
	fwd := b.Add(uint16(tpi.LF_STRUCTURE), structure(tpi.LF_STRUCTURE, 0x0280, 0, 0, "Node", ".?AUNode@@"))
	ptr := b.Add(uint16(tpi.LF_POINTER), testutil.NewLeaf().U32(fwd).U32(ptrAttr8).Bytes())
	fields := b.Add(uint16(tpi.LF_FIELDLIST), member(member(testutil.NewLeaf(), ptr, 0, "next"), tiInt32, 8, "val").Bytes())
	def := b.Add(uint16(tpi.LF_STRUCTURE), structure(tpi.LF_STRUCTURE, 0x0200, fields, 16, "Node", ".?AUNode@@"))

	build, ctx, diag := resolver(t, &b)

	node := build.Resolve(ctx, diag, debuginfo.TypeID(def))
	s, ok := node.DataType.(debuginfo.Struct)
	require.True(t, ok, "got %s", node.DataType)
	assert.Equal(t, uint64(16), s.ByteSize)

	next, ok := s.Members.Get("next")
	require.True(t, ok)
	assert.Equal(t, debuginfo.Pointer{PointeeSize: 8, Target: debuginfo.TypeID(fwd)}, next.Type.DataType)
	assert.Equal(t, "Node", next.Type.Name)

	ref := ctx.Resolved[debuginfo.TypeID(fwd)]
	assert.Equal(t, debuginfo.TypeRef{Target: debuginfo.TypeID(def), ByteSize: 16}, ref.DataType)
	assert.Equal(t, []debuginfo.TypeID{debuginfo.TypeID(def)}, ctx.Names["Node"])
	assert.Equal(t, debuginfo.TypeID(def), debuginfo.Deref(ctx.Resolved, ref).ID)
	assert.Empty(t, *diag)

	// starting from the forward declaration gives the same shape
	build, ctx, diag = resolver(t, &b)
	rec := build.Resolve(ctx, diag, debuginfo.TypeID(fwd))
	assert.Equal(t, debuginfo.TypeRef{Target: debuginfo.TypeID(def), ByteSize: 16}, rec.DataType)
}

func TestForwardReferenceWithoutDefinition(t *testing.T) {
	var b testutil.TPIBuilder
	fwd := b.Add(uint16(tpi.LF_UNION), structure(tpi.LF_UNION, 0x0280, 0, 8, "Opaque", ".?ATOpaque@@"))
	// same unique name but a different kind is not a match
	b.Add(uint16(tpi.LF_STRUCTURE), structure(tpi.LF_STRUCTURE, 0x0200, 0, 4, "Opaque", ".?ATOpaque@@"))

	build, ctx, diag := resolver(t, &b)
	rec := build.Resolve(ctx, diag, debuginfo.TypeID(fwd))

	u, ok := rec.DataType.(debuginfo.Union)
	require.True(t, ok, "got %s", rec.DataType)
	assert.Equal(t, uint64(8), u.ByteSize)
	assert.Equal(t, 0, u.Members.Len())
}

func TestNestedArraysFlatten(t *testing.T) {
	var b testutil.TPIBuilder
	inner := b.Add(uint16(tpi.LF_ARRAY), testutil.NewLeaf().U32(tiInt32).U32(0x23).Num(8).Str("").Bytes())
	outer := b.Add(uint16(tpi.LF_ARRAY), testutil.NewLeaf().U32(inner).U32(0x23).Num(24).Str("").Bytes())

	build, ctx, diag := resolver(t, &b)
	rec := build.Resolve(ctx, diag, debuginfo.TypeID(outer))

	arr, ok := rec.DataType.(debuginfo.Array)
	require.True(t, ok)
	assert.Equal(t, []uint64{3, 2}, arr.Dims)
	assert.Equal(t, uint64(4), arr.Stride)
	assert.Equal(t, uint64(24), arr.ByteSize)
	assert.Equal(t, debuginfo.Sint32, arr.Element.DataType)
	assert.Equal(t, "i32", rec.Name)
}

func TestDimArrayDegrades(t *testing.T) {
	var b testutil.TPIBuilder
	dim := b.Add(uint16(tpi.LF_DIMARRAY), testutil.NewLeaf().U32(tiInt32).U32(0).Str("").Bytes())

	build, ctx, diag := resolver(t, &b)
	rec := build.Resolve(ctx, diag, debuginfo.TypeID(dim))

	assert.Equal(t, debuginfo.Other{}, rec.DataType)
	require.Len(t, *diag, 1)
	assert.Contains(t, (*diag)[0], "LF_DIMARRAY")
}

func TestClassWithBitfieldsAndBase(t *testing.T) {
	var b testutil.TPIBuilder
	baseFields := b.Add(uint16(tpi.LF_FIELDLIST), member(testutil.NewLeaf(), tiInt32, 0, "id").Bytes())
	base := b.Add(uint16(tpi.LF_STRUCTURE), structure(tpi.LF_STRUCTURE, 0x0200, baseFields, 4, "Base", ".?AUBase@@"))
	bits := b.Add(uint16(tpi.LF_BITFIELD), testutil.NewLeaf().U32(tiUInt32).U8(3).U8(5).Bytes())
	more := b.Add(uint16(tpi.LF_FIELDLIST), member(testutil.NewLeaf(), tiInt32, 8, "tail").Bytes())
	fields := testutil.NewLeaf().
		U16(uint16(tpi.LF_BCLASS)).U16(3).U32(base).Num(0)
	member(fields, bits, 4, "flags").
		U16(uint16(tpi.LF_ONEMETHOD)).U16(0).U32(0x1009).Str("get").
		U16(uint16(tpi.LF_INDEX)).U16(0).U32(more)
	list := b.Add(uint16(tpi.LF_FIELDLIST), fields.Bytes())
	cls := b.Add(uint16(tpi.LF_CLASS), structure(tpi.LF_CLASS, 0x0200, list, 12, "Derived", ".?AVDerived@@"))

	build, ctx, diag := resolver(t, &b)
	rec := build.Resolve(ctx, diag, debuginfo.TypeID(cls))

	c, ok := rec.DataType.(debuginfo.Class)
	require.True(t, ok, "got %s", rec.DataType)
	assert.Equal(t, uint64(12), c.ByteSize)

	var names []string
	for p := c.Members.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	assert.Equal(t, []string{"flags", "tail", "id"}, names)

	flags, _ := c.Members.Get("flags")
	bf, ok := flags.Type.DataType.(debuginfo.Bitfield)
	require.True(t, ok)
	assert.Equal(t, uint16(5), bf.BitOffset)
	assert.Equal(t, uint16(3), bf.BitSize)
	assert.Equal(t, uint64(4), flags.Offset)

	inherited, ok := c.Inheritance.Get("Base")
	require.True(t, ok)
	assert.Equal(t, debuginfo.TypeRef{Target: debuginfo.TypeID(base), ByteSize: 4}, inherited.Type.DataType)
	assert.Empty(t, *diag)
}

func TestEnumAndModifier(t *testing.T) {
	var b testutil.TPIBuilder
	fields := b.Add(uint16(tpi.LF_FIELDLIST), testutil.NewLeaf().
		U16(uint16(tpi.LF_ENUMERATE)).U16(3).Num(0).Str("OFF").
		U16(uint16(tpi.LF_ENUMERATE)).U16(3).SNum(-2).Str("ERR").Bytes())
	enum := b.Add(uint16(tpi.LF_ENUM), testutil.NewLeaf().
		U16(2).U16(0).U32(tiInt32).U32(fields).Str("state").Bytes())
	empty := b.Add(uint16(tpi.LF_ENUM), testutil.NewLeaf().
		U16(0).U16(0).U32(0x20).U32(0).Str("none").Bytes())
	mod := b.Add(uint16(tpi.LF_MODIFIER), testutil.NewLeaf().U32(enum).U16(1).Bytes())

	build, ctx, diag := resolver(t, &b)

	rec := build.Resolve(ctx, diag, debuginfo.TypeID(mod))
	assert.Equal(t, "state", rec.Name)
	e, ok := rec.DataType.(debuginfo.Enum)
	require.True(t, ok)
	assert.Equal(t, uint64(4), e.ByteSize)
	assert.True(t, e.Signed)
	assert.Equal(t, []debuginfo.Enumerator{{Name: "OFF", Value: 0}, {Name: "ERR", Value: -2}}, e.Enumerators)

	none := build.Resolve(ctx, diag, debuginfo.TypeID(empty)).DataType.(debuginfo.Enum)
	assert.Equal(t, uint64(1), none.ByteSize)
	assert.False(t, none.Signed)
	assert.Empty(t, none.Enumerators)
	assert.Empty(t, *diag)
}

func TestProcedureIsFuncPtr(t *testing.T) {
	var b testutil.TPIBuilder
	proc := b.Add(uint16(tpi.LF_PROCEDURE), testutil.NewLeaf().U32(0x03).U8(0).U8(0).U16(0).U32(0).Bytes())
	ptr := b.Add(uint16(tpi.LF_POINTER), testutil.NewLeaf().U32(proc).U32(ptrAttr8).Bytes())

	build, ctx, diag := resolver(t, &b)
	rec := build.Resolve(ctx, diag, debuginfo.TypeID(ptr))
	assert.Equal(t, debuginfo.Pointer{PointeeSize: 8, Target: debuginfo.TypeID(proc)}, rec.DataType)
	assert.Equal(t, "p_function", rec.Name)
	assert.Equal(t, debuginfo.FuncPtr{ByteSize: 8}, ctx.Resolved[debuginfo.TypeID(proc)].DataType)
}

func TestFieldListCycle(t *testing.T) {
	var b testutil.TPIBuilder
	list := b.Next()
	b.Add(uint16(tpi.LF_FIELDLIST), member(testutil.NewLeaf(), tiInt32, 0, "a").
		U16(uint16(tpi.LF_INDEX)).U16(0).U32(list).Bytes())
	s := b.Add(uint16(tpi.LF_STRUCTURE), structure(tpi.LF_STRUCTURE, 0, list, 4, "Loop", ""))

	build, ctx, diag := resolver(t, &b)
	rec := build.Resolve(ctx, diag, debuginfo.TypeID(s))

	assert.Equal(t, debuginfo.Other{}, rec.DataType)
	require.Len(t, *diag, 1)
	assert.Contains(t, (*diag)[0], "continuation cycle")
}

func TestForwardIndex(t *testing.T) {
	var b testutil.TPIBuilder
	b.Add(uint16(tpi.LF_CLASS), structure(tpi.LF_CLASS, 0x0280, 0, 0, "A", ".?AVA@@"))
	def := b.Add(uint16(tpi.LF_CLASS), structure(tpi.LF_CLASS, 0x0200, 0, 4, "A", ".?AVA@@"))
	b.Add(uint16(tpi.LF_CLASS), structure(tpi.LF_CLASS, 0x0200, 0, 8, "A", ".?AVA@@"))
	enum := b.Add(uint16(tpi.LF_ENUM), testutil.NewLeaf().U16(0).U16(0x0200).U32(tiInt32).U32(0).Str("E").Str(".?AW4E@@").Bytes())
	b.Add(uint16(tpi.LF_STRUCTURE), structure(tpi.LF_STRUCTURE, 0, 0, 4, "NoUnique", ""))

	types, err := tpi.ParseStream(b.Bytes())
	require.NoError(t, err)
	idx := NewForwardIndex(types)

	assert.Equal(t, 2, idx.Len())
	ti, ok := idx.Lookup(tpi.LF_CLASS, ".?AVA@@")
	require.True(t, ok)
	assert.Equal(t, tpi.TypeIndex(def), ti)
	ti, ok = idx.Lookup(tpi.LF_ENUM, ".?AW4E@@")
	require.True(t, ok)
	assert.Equal(t, tpi.TypeIndex(enum), ti)
	_, ok = idx.Lookup(tpi.LF_STRUCTURE, ".?AVA@@")
	assert.False(t, ok)
}
