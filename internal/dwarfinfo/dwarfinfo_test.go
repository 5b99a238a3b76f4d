package dwarfinfo

import (
	"encoding/binary"
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/testutil"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
)

const (
	opAddr      = 0x03
	opConsts    = 0x11
	opPlus      = 0x22
	opPlusUcons = 0x23
	opFbreg     = 0x91
)

func TestMemberLocation(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    uint64
		wantOK  bool
		wantErr bool
	}{
		{"absent", nil, 0, false, false},
		{"constant", int64(12), 12, true, false},
		{"empty expression", []byte{}, 0, true, false},
		{"plus_uconst", []byte{opPlusUcons, 0x90, 0x01}, 144, true, false},
		{"consts plus", []byte{opConsts, 0x08, opPlus}, 8, true, false},
		{"consts without plus", []byte{opConsts, 0x08, opAddr}, 0, false, true},
		{"frame relative", []byte{opFbreg, 0x10}, 0, false, true},
		{"trailing bytes", []byte{opPlusUcons, 0x04, 0x00}, 0, false, true},
		{"truncated operand", []byte{opPlusUcons, 0x90}, 0, false, true},
		{"wrong class", "x", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := memberLocation(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticAddress(t *testing.T) {
	le8 := append([]byte{opAddr}, binary.LittleEndian.AppendUint64(nil, 0x601040)...)
	be4 := append([]byte{opAddr}, binary.BigEndian.AppendUint32(nil, 0x20001000)...)

	tests := []struct {
		name    string
		loc     []byte
		ptrSize int
		order   binary.ByteOrder
		want    uint64
		wantOK  bool
	}{
		{"little endian", le8, 8, binary.LittleEndian, 0x601040, true},
		{"big endian", be4, 4, binary.BigEndian, 0x20001000, true},
		{"offset little endian", append(le8, opPlusUcons, 0x08), 8, binary.LittleEndian, 0x601048, true},
		{"offset big endian", append(be4, opPlusUcons, 0x04), 4, binary.BigEndian, 0x20001004, true},
		{"frame relative", []byte{opFbreg, 0x10}, 8, binary.LittleEndian, 0, false},
		{"truncated", []byte{opAddr, 0x01}, 8, binary.LittleEndian, 0, false},
		{"empty", nil, 8, binary.LittleEndian, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := staticAddress(tt.loc, tt.ptrSize, tt.order)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncoding(t *testing.T) {
	assert.Equal(t, typegraph.EncodingSigned, encoding(ateSigned))
	assert.Equal(t, typegraph.EncodingUnsignedChar, encoding(ateUnsignedChar))
	assert.Equal(t, typegraph.EncodingFloat, encoding(ateFloat))
	assert.Equal(t, typegraph.EncodingOther, encoding(0x10)) // DW_ATE_UTF
}

func TestToUint(t *testing.T) {
	v, ok := toUint(int64(-1))
	assert.True(t, ok)
	assert.Equal(t, ^uint64(0), v)

	_, ok = toUint([]byte{1})
	assert.False(t, ok)
}

type sampleState struct {
	Count int64
	Flags [4]uint8
	Next  *sampleState
}

var dwarfSample = sampleState{Count: 1}

// TestExecutable reads the DWARF of the running test binary.
func TestExecutable(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("test binary is not ELF")
	}
	dwarfSample.Count++

	exe, err := os.Executable()
	require.NoError(t, err)
	logger := testutil.NewTestLogger(t)
	f, err := Open(exe, logger)
	if errors.Is(err, ErrNoDWARF) {
		t.Skip("test binary built without DWARF")
	}
	require.NoError(t, err)
	defer f.Close()

	assert.NotEmpty(t, f.Units())
	assert.Contains(t, f.Sections(), ".text")
	assert.False(t, f.BigEndian() && runtime.GOARCH == "amd64")

	vars, err := f.Variables()
	require.NoError(t, err)
	var sample *Variable
	for i := range vars {
		if strings.HasSuffix(vars[i].Name, "dwarfinfo.dwarfSample") {
			sample = &vars[i]
			break
		}
	}
	require.NotNil(t, sample, "sample variable not found among %d variables", len(vars))
	assert.NotZero(t, sample.Record.Address)

	build := typegraph.NewBuilder(f, f.Options(f.BigEndian()), logger)
	ctx := typegraph.NewContext()
	var diag typegraph.Diagnostics
	rec := build.Resolve(ctx, &diag, sample.Record.TypeID)
	members, ok := debuginfo.MembersOf(debuginfo.Deref(ctx.Resolved, rec).DataType)
	require.True(t, ok, "got %s", rec.DataType)

	count, ok := members.Get("Count")
	require.True(t, ok)
	assert.Equal(t, debuginfo.Sint64, count.Type.DataType)
	assert.Equal(t, uint64(0), count.Offset)

	flags, ok := members.Get("Flags")
	require.True(t, ok)
	arr, ok := flags.Type.DataType.(debuginfo.Array)
	require.True(t, ok, "got %s", flags.Type.DataType)
	assert.Equal(t, []uint64{4}, arr.Dims)
	assert.Equal(t, debuginfo.Uint8, arr.Element.DataType)
	assert.Equal(t, uint64(8), flags.Offset)

	next, ok := members.Get("Next")
	require.True(t, ok)
	assert.IsType(t, debuginfo.Pointer{}, next.Type.DataType)
	assert.Empty(t, ctx.InProgress)
}
