package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dbgtypes.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, ok := cfg.BigEndian()
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
endianness: big
array_style: old
include: [ctrl_*, speed]
output: yaml
log:
  level: debug
  pretty: false
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "old", cfg.ArrayStyle)
	assert.Equal(t, []string{"ctrl_*", "speed"}, cfg.Include)
	assert.Equal(t, OutputYAML, cfg.Output)
	assert.Equal(t, LogConfig{Level: "debug"}, cfg.Log)

	big, ok := cfg.BigEndian()
	assert.True(t, ok)
	assert.True(t, big)
}

func TestLoadEnvOverrides(t *testing.T) {
	p := writeConfig(t, "endianness: big\n")
	t.Setenv("DBGTYPES_ENDIANNESS", "little")
	t.Setenv("DBGTYPES_EXCLUDE", "tmp_*, scratch ,")
	t.Setenv("DBGTYPES_LOG_PRETTY", "false")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, EndianLittle, cfg.Endianness)
	assert.Equal(t, []string{"tmp_*", "scratch"}, cfg.Exclude)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "endianness: [\n"},
		{name: "bad endianness", body: "endianness: middle\n"},
		{name: "bad array style", body: "array_style: fancy\n"},
		{name: "bad output", body: "output: json\n"},
		{name: "bad pattern", body: "include: ['[']\n"},
		{name: "bad env bool", env: map[string]string{"DBGTYPES_LOG_PRETTY": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNameFilter(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		allowed []string
		denied  []string
	}{
		{
			name:    "empty allows all",
			allowed: []string{"a", "ctrl_speed"},
		},
		{
			name:    "include exact and glob",
			include: []string{"speed", "ctrl_*"},
			allowed: []string{"speed", "ctrl_gain"},
			denied:  []string{"speed2", "gain"},
		},
		{
			name:    "exclude wins",
			include: []string{"ctrl_*"},
			exclude: []string{"ctrl_tmp?"},
			allowed: []string{"ctrl_gain"},
			denied:  []string{"ctrl_tmp1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := (&Config{Include: tt.include, Exclude: tt.exclude}).Filter()
			for _, n := range tt.allowed {
				assert.True(t, f.Allows(n), n)
			}
			for _, n := range tt.denied {
				assert.False(t, f.Allows(n), n)
			}
		})
	}

	var nilFilter *NameFilter
	assert.True(t, nilFilter.Allows("x"))
}
