// Package loader reads an ELF/DWARF or PDB file and builds the complete
// DebugData for it.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	mapset "github.com/deckarep/golang-set"
	"github.com/rs/zerolog"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/config"
	"github.com/skdltmxn/dbgtypes/internal/logging"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
	"github.com/skdltmxn/dbgtypes/msf"
)

// Format identifies the container of a debug-info file.
type Format int

const (
	FormatUnknown Format = iota
	FormatELF
	FormatPDB
)

func (f Format) String() string {
	switch f {
	case FormatELF:
		return "ELF/DWARF"
	case FormatPDB:
		return "PDB/CodeView"
	}
	return "unknown"
}

// ErrUnknownFormat is returned for files that are neither ELF nor MSF.
var ErrUnknownFormat = errors.New("loader: unrecognized file format")

const elfMagic = "\x7fELF"

// Detect reads the header of the file at path and reports its format.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("loader: failed to open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(msf.Magic))
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return FormatUnknown, ErrUnknownFormat
		}
		return FormatUnknown, fmt.Errorf("loader: failed to read %s: %w", path, err)
	}
	header = header[:n]

	switch {
	case len(header) >= len(elfMagic) && string(header[:len(elfMagic)]) == elfMagic:
		return FormatELF, nil
	case msf.IsMSF(header):
		return FormatPDB, nil
	}
	return FormatUnknown, ErrUnknownFormat
}

// Load builds the DebugData of the file at path. A nil cfg uses the defaults.
// Only container open and parse failures are returned as errors; problems
// with individual types become diagnostics.
func Load(path string, cfg *config.Config, logger zerolog.Logger) (*debuginfo.DebugData, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log := logging.WithComponent(logger, "loader")

	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Stringer("format", format).Msg("loading debug info")

	switch format {
	case FormatELF:
		return loadDWARF(path, cfg, log)
	default:
		return loadPDB(path, cfg, log)
	}
}

// collector resolves the type of each accepted variable and records it.
type collector struct {
	data    *debuginfo.DebugData
	builder *typegraph.Builder
	ctx     *typegraph.Context
	diag    typegraph.Diagnostics
	filter  *config.NameFilter
	skipped int
}

func newCollector(b *typegraph.Builder, filter *config.NameFilter) *collector {
	return &collector{
		data:    debuginfo.NewDebugData(),
		builder: b,
		ctx:     typegraph.NewContext(),
		filter:  filter,
	}
}

func (c *collector) add(name string, v debuginfo.VariableRecord) bool {
	if !c.filter.Allows(name) {
		c.skipped++
		return false
	}
	c.builder.Resolve(c.ctx, &c.diag, v.TypeID)
	c.data.AddVariable(name, v)
	return true
}

func (c *collector) finish(log zerolog.Logger) *debuginfo.DebugData {
	c.data.Types = c.ctx.Resolved
	c.data.TypeNames = c.ctx.Names
	c.data.Diagnostics = append(c.data.Diagnostics, c.diag...)
	dropped := filterExterns(c.data)

	log.Info().
		Int("variables", c.data.Variables.Len()).
		Int("types", len(c.data.Types)).
		Int("filtered", c.skipped).
		Int("extern_declarations", dropped).
		Int("diagnostics", len(c.data.Diagnostics)).
		Msg("debug info loaded")
	return c.data
}

// filterExterns drops, for every name with several definitions, the records
// whose type is a TypeRef. Those come from extern declarations of an
// aggregate. A name whose records are all TypeRefs is left alone. It
// returns the number of records dropped.
func filterExterns(d *debuginfo.DebugData) int {
	externs := mapset.NewSet()
	for id, t := range d.Types {
		if _, isRef := t.DataType.(debuginfo.TypeRef); isRef {
			externs.Add(id)
		}
	}
	if externs.Cardinality() == 0 {
		return 0
	}

	dropped := 0
	for pair := d.Variables.Oldest(); pair != nil; pair = pair.Next() {
		if len(pair.Value) < 2 {
			continue
		}
		kept := make([]debuginfo.VariableRecord, 0, len(pair.Value))
		for _, v := range pair.Value {
			if !externs.Contains(v.TypeID) {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 || len(kept) == len(pair.Value) {
			continue
		}
		dropped += len(pair.Value) - len(kept)
		d.Variables.Set(pair.Key, kept)
	}
	return dropped
}
