package loader

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/config"
	"github.com/skdltmxn/dbgtypes/internal/dwarfinfo"
	"github.com/skdltmxn/dbgtypes/internal/testutil"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestDetect(t *testing.T) {
	pdbPath := writeFile(t, "a.pdb", testutil.BuildMSF([][]byte{{}}))
	format, err := Detect(pdbPath)
	require.NoError(t, err)
	assert.Equal(t, FormatPDB, format)

	elfPath := writeFile(t, "a.elf", []byte("\x7fELF\x02\x01\x01"))
	format, err = Detect(elfPath)
	require.NoError(t, err)
	assert.Equal(t, FormatELF, format)

	for _, body := range [][]byte{nil, []byte("MZ\x90\x00")} {
		_, err = Detect(writeFile(t, "other", body))
		assert.ErrorIs(t, err, ErrUnknownFormat)
	}

	_, err = Detect(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadPDB(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)

	data, err := Load(sample.Path, nil, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"", `C:\work\list.obj`}, data.UnitNames)
	assert.Equal(t, debuginfo.Section{Start: 0x4000, End: 0x4100}, data.Sections[".data"])
	assert.Empty(t, data.DemangledNames)

	// the extern declaration is dropped in favor of the definition
	head, ok := data.LookupVariable("head")
	require.True(t, ok)
	require.Len(t, head, 1)
	assert.Equal(t, debuginfo.TypeID(sample.Def), head[0].TypeID)
	assert.Equal(t, uint64(0x4040), head[0].Address)
	assert.Equal(t, 1, head[0].Unit)

	ticks, ok := data.LookupVariable("ticks")
	require.True(t, ok)
	assert.Equal(t, "poll", ticks[0].Function)
	assert.Equal(t, uint64(0x4050), ticks[0].Address)

	node, ok := data.LookupType(debuginfo.TypeID(sample.Def))
	require.True(t, ok)
	assert.Equal(t, "Node", node.Name)
	assert.Equal(t, uint64(16), node.Size())

	ref, ok := data.LookupType(debuginfo.TypeID(sample.Fwd))
	require.True(t, ok)
	assert.Equal(t, debuginfo.TypeRef{Target: debuginfo.TypeID(sample.Def), ByteSize: 16}, ref.DataType)

	assert.Contains(t, data.TypeNames["Node"], debuginfo.TypeID(sample.Def))
	assert.NotContains(t, data.TypeNames["Node"], debuginfo.TypeID(sample.Fwd))
	assert.Empty(t, data.Diagnostics)
}

func TestLoadPDBFiltered(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)
	cfg := config.Default()
	cfg.Exclude = []string{"h*"}

	data, err := Load(sample.Path, cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)

	_, ok := data.LookupVariable("head")
	assert.False(t, ok)
	_, ok = data.LookupType(debuginfo.TypeID(sample.Def))
	assert.False(t, ok, "excluded variables do not populate the type table")
	_, ok = data.LookupVariable("ticks")
	assert.True(t, ok)
}

func TestFilterExterns(t *testing.T) {
	d := debuginfo.NewDebugData()
	d.Types[1] = debuginfo.TypeRecord{ID: 1, DataType: debuginfo.TypeRef{Target: 2, ByteSize: 4}}
	d.Types[2] = debuginfo.TypeRecord{ID: 2, DataType: debuginfo.Struct{ByteSize: 4, Members: debuginfo.NewMembers()}}
	d.AddVariable("only_extern", debuginfo.VariableRecord{TypeID: 1})
	d.AddVariable("pair", debuginfo.VariableRecord{TypeID: 1})
	d.AddVariable("pair", debuginfo.VariableRecord{TypeID: 2, Address: 8})
	d.AddVariable("unknown", debuginfo.VariableRecord{TypeID: 9})
	d.AddVariable("unknown", debuginfo.VariableRecord{TypeID: 1})
	d.AddVariable("refs_only", debuginfo.VariableRecord{TypeID: 1})
	d.AddVariable("refs_only", debuginfo.VariableRecord{TypeID: 1, Address: 4})

	assert.Equal(t, 2, filterExterns(d))

	v, _ := d.LookupVariable("only_extern")
	assert.Len(t, v, 1)
	v, _ = d.LookupVariable("pair")
	assert.Equal(t, []debuginfo.VariableRecord{{TypeID: 2, Address: 8}}, v)
	v, _ = d.LookupVariable("unknown")
	assert.Equal(t, []debuginfo.VariableRecord{{TypeID: 9}}, v)
	v, _ = d.LookupVariable("refs_only")
	assert.Len(t, v, 2)
}

type loaderState struct {
	Ready bool
	Limit uint32
}

var loaderSample = loaderState{Ready: true}

func TestLoadDWARF(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("test binary is not ELF")
	}
	loaderSample.Limit++

	exe, err := os.Executable()
	require.NoError(t, err)

	const name = "github.com/skdltmxn/dbgtypes/loader.loaderSample"
	cfg := config.Default()
	cfg.Include = []string{name}

	data, err := Load(exe, cfg, testutil.NewTestLogger(t))
	if errors.Is(err, dwarfinfo.ErrNoDWARF) {
		t.Skip("test binary built without DWARF")
	}
	require.NoError(t, err)

	assert.Equal(t, 1, data.Variables.Len())
	vars, ok := data.LookupVariable(name)
	require.True(t, ok)
	require.Len(t, vars, 1)
	assert.NotZero(t, vars[0].Address)

	rec, ok := data.LookupType(vars[0].TypeID)
	require.True(t, ok)
	members, ok := debuginfo.MembersOf(debuginfo.Deref(data.Types, rec).DataType)
	require.True(t, ok, "got %s", rec.DataType)
	limit, ok := members.Get("Limit")
	require.True(t, ok)
	assert.Equal(t, debuginfo.Uint32, limit.Type.DataType)
	assert.Equal(t, uint64(4), limit.Offset)

	assert.NotEmpty(t, data.UnitNames)
	assert.Contains(t, data.Sections, ".data")
}
