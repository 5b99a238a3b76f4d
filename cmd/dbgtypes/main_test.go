package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/skdltmxn/dbgtypes/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "disabled"))
	err := cmd.Execute()
	return out.String(), err
}

func TestInfo(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)
	out, err := run(t, "info", sample.Path)
	require.NoError(t, err)
	assert.Contains(t, out, "Format: PDB/CodeView")
	assert.Contains(t, out, "Units: 1")
	assert.Contains(t, out, "Variables: 2")
}

func TestVarsYAML(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)
	out, err := run(t, "vars", sample.Path, "--output", "yaml")
	require.NoError(t, err)

	var entries []varEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, "head", entries[0].Name)
	assert.Equal(t, uint64(0x4040), entries[0].Address)
	assert.Equal(t, "Node", entries[0].Type)
	assert.Equal(t, uint64(16), entries[0].Size)
	assert.Equal(t, "list_obj", entries[0].Unit)

	assert.Equal(t, "ticks", entries[1].Name)
	assert.Equal(t, "poll", entries[1].Function)
	assert.Equal(t, "u32", entries[1].Type)
}

func TestVarsInclude(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)
	out, err := run(t, "vars", sample.Path, "--include", "tick*")
	require.NoError(t, err)
	assert.Contains(t, out, "ticks (in poll)")
	assert.NotContains(t, out, "head")
	assert.Contains(t, out, "Total: 1 variables")
}

func TestTypesByName(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)
	out, err := run(t, "types", sample.Path, "--name", "Node", "-o", "yaml")
	require.NoError(t, err)

	var entries []typeEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(sample.Def), entries[0].ID)
	assert.Equal(t, "Struct", entries[0].Kind)
	assert.Equal(t, uint64(16), entries[0].Size)
}

func TestWalk(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)
	out, err := run(t, "walk", sample.Path, "head", "-o", "yaml")
	require.NoError(t, err)

	var entries []walkEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, walkEntry{Path: "head", Address: 0x4040, Size: 16, Kind: "Struct", Type: "Node"}, entries[0])
	assert.Equal(t, "head.value", entries[1].Path)
	assert.Equal(t, uint64(0x4040), entries[1].Address)
	assert.Equal(t, "head.next", entries[2].Path)
	assert.Equal(t, uint64(0x4048), entries[2].Address)
	assert.Equal(t, "Pointer", entries[2].Kind)

	_, err = run(t, "walk", sample.Path, "missing")
	assert.Error(t, err)
}

func TestDupsAndDiag(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)
	out, err := run(t, "dups", sample.Path)
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 0 conflicting names")

	out, err = run(t, "diag", sample.Path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInvalidFlags(t *testing.T) {
	sample := testutil.WriteSamplePDB(t)
	_, err := run(t, "vars", sample.Path, "--endianness", "middle")
	assert.Error(t, err)

	_, err = run(t, "info", sample.Path+".missing")
	assert.Error(t, err)
}
