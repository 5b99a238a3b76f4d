package dbi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/dbgtypes/internal/testutil"
)

func TestParseStream(t *testing.T) {
	data := testutil.BuildDBI(MachineAMD64, 9, []testutil.DBIModule{
		{Name: `C:\src\main.obj`, Stream: 10, SymSize: 64},
		{Name: "* Linker *", Stream: InvalidStreamIndex},
	}, true, 12)

	s, err := ParseStream(data)
	require.NoError(t, err)

	assert.Equal(t, uint16(9), s.Header.SymRecordStreamIndex)
	assert.Equal(t, uint64(8), s.Header.AddressSize())
	assert.Equal(t, uint16(12), s.SectionHdrStreamIndex)

	require.Equal(t, 2, s.ModuleCount())
	m, err := s.GetModule(0)
	require.NoError(t, err)
	assert.Equal(t, `C:\src\main.obj`, m.ModuleName)
	assert.Equal(t, `C:\src\main.obj`, m.ObjFileName)
	assert.Equal(t, uint16(10), m.ModuleSymStreamIndex)
	assert.Equal(t, uint32(64), m.SymByteSize)
	assert.True(t, m.HasSymbols())

	m, err = s.GetModule(1)
	require.NoError(t, err)
	assert.Equal(t, "* Linker *", m.ModuleName)
	assert.False(t, m.HasSymbols())

	_, err = s.GetModule(2)
	assert.Error(t, err)
}

func TestParseStreamWithoutDebugHeader(t *testing.T) {
	s, err := ParseStream(testutil.BuildDBI(MachineI386, 9, nil, false, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), s.Header.AddressSize())
	assert.Equal(t, InvalidStreamIndex, s.SectionHdrStreamIndex)
	assert.Zero(t, s.ModuleCount())
}

func TestParseStreamErrors(t *testing.T) {
	_, err := ParseStream(make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidDBIHeader)

	data := testutil.BuildDBI(MachineAMD64, 9, nil, false, 0)
	data[0] = 0
	_, err = ParseStream(data)
	assert.ErrorIs(t, err, ErrInvalidDBIHeader)

	data = testutil.BuildDBI(MachineAMD64, 9, []testutil.DBIModule{{Name: "a", Stream: 1, SymSize: 4}}, false, 0)
	_, err = ParseStream(data[:len(data)-4])
	assert.ErrorIs(t, err, ErrTruncatedStream)
}
