// Package config loads tool settings. Defaults are overridden by a YAML file,
// which is overridden by DBGTYPES_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// Byte order overrides
const (
	EndianAuto   = "auto"
	EndianLittle = "little"
	EndianBig    = "big"
)

// Output formats
const (
	OutputText = "text"
	OutputYAML = "yaml"
)

// Config holds every setting of the tool.
type Config struct {
	// Endianness overrides the container byte order for bitfield layout.
	Endianness string `yaml:"endianness" env:"DBGTYPES_ENDIANNESS"`
	// ArrayStyle selects "new" (name[i]) or "old" (name._i_) element paths.
	ArrayStyle string `yaml:"array_style" env:"DBGTYPES_ARRAY_STYLE"`

	// Include and Exclude hold variable names or path.Match patterns.
	Include []string `yaml:"include" env:"DBGTYPES_INCLUDE"`
	Exclude []string `yaml:"exclude" env:"DBGTYPES_EXCLUDE"`

	Output string    `yaml:"output" env:"DBGTYPES_OUTPUT"`
	Log    LogConfig `yaml:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"DBGTYPES_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"DBGTYPES_LOG_PRETTY"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Endianness: EndianAuto,
		ArrayStyle: "new",
		Output:     OutputText,
		Log: LogConfig{
			Level:  "warn",
			Pretty: true,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings and name patterns.
func (c *Config) Validate() error {
	var errs []error
	oneOf := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("config: invalid %s %q, want one of %v", field, value, allowed))
	}
	oneOf("endianness", c.Endianness, EndianAuto, EndianLittle, EndianBig)
	oneOf("array_style", c.ArrayStyle, "new", "old")
	oneOf("output", c.Output, OutputText, OutputYAML)
	oneOf("log level", c.Log.Level, "trace", "debug", "info", "warn", "error", "disabled")

	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if _, err := path.Match(p, ""); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid name pattern %q: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// BigEndian reports the byte order override, if any.
func (c *Config) BigEndian() (big bool, ok bool) {
	switch c.Endianness {
	case EndianBig:
		return true, true
	case EndianLittle:
		return false, true
	}
	return false, false
}
