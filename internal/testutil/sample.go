package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Record kinds used by SamplePDB.
const (
	lfPointer   = 0x1002
	lfFieldList = 0x1203
	lfStructure = 0x1505
	lfMember    = 0x150d

	sEnd     = 0x0006
	sLData32 = 0x110c
	sGData32 = 0x110d
	sGProc32 = 0x1110

	machineAMD64 = 0x8664
)

// SamplePDB describes the file written by WriteSamplePDB.
type SamplePDB struct {
	Path string
	// Fwd is the forward reference to Node, Def its definition.
	Fwd, Def uint32
	// Ptr is the Node* type of Node.next.
	Ptr uint32
}

func sampleMember(l *Leaf, typ uint32, offset uint64, name string) *Leaf {
	return l.U16(lfMember).U16(3).U32(typ).Num(offset).Str(name)
}

func sampleNode(props uint16, fields uint32, size uint64) []byte {
	return NewLeaf().U16(0).U16(props).U32(fields).U32(0).U32(0).
		Num(size).Str("Node").Str(".?AUNode@@").Bytes()
}

// WriteSamplePDB writes a small x64 PDB into a temporary directory.
//
// The global stream declares list::head with the forward reference to
// struct Node { int value; Node *next; }. Module 0 (C:\work\list.obj)
// defines head with the complete type at .data+0x40 and holds a static
// uint32 "ticks" at .data+0x50 inside procedure poll. .data starts at
// RVA 0x4000.
func WriteSamplePDB(t *testing.T) SamplePDB {
	t.Helper()

	var types TPIBuilder
	fwd := types.Add(lfStructure, sampleNode(0x0280, 0, 0))
	ptr := types.Add(lfPointer, NewLeaf().U32(fwd).U32(8<<13|0x0c).Bytes())
	fields := types.Add(lfFieldList,
		sampleMember(sampleMember(NewLeaf(), 0x74, 0, "value"), ptr, 8, "next").Bytes())
	def := types.Add(lfStructure, sampleNode(0x0200, fields, 16))

	globals := DataSym(sGData32, fwd, 0, 2, "list::head")

	proc := SymRecord(sGProc32, NewLeaf().
		U32(0).U32(0).U32(0).U32(0x40).U32(0).U32(0).U32(0).U32(0x10).U16(1).U8(0).
		Str("poll").Bytes())
	module := NewLeaf().U32(4).
		Raw(DataSym(sLData32, def, 0x40, 2, "head")).
		Raw(proc).
		Raw(DataSym(sLData32, 0x75, 0x50, 2, "ticks")).
		Raw(SymRecord(sEnd, nil)).
		Bytes()

	dbi := BuildDBI(machineAMD64, 5, []DBIModule{
		{Name: `C:\work\list.obj`, Stream: 6, SymSize: uint32(len(module))},
	}, true, 7)
	sections := NewLeaf().
		Raw(SectionHeader(".text", 0x1000, 0x1000)).
		Raw(SectionHeader(".data", 0x100, 0x4000)).
		Bytes()

	image := BuildMSF([][]byte{
		{}, {}, types.Bytes(), dbi, nil, globals, module, sections,
	})
	path := filepath.Join(t.TempDir(), "sample.pdb")
	require.NoError(t, os.WriteFile(path, image, 0o644))
	return SamplePDB{Path: path, Fwd: fwd, Def: def, Ptr: ptr}
}
