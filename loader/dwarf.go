package loader

import (
	"github.com/rs/zerolog"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/config"
	"github.com/skdltmxn/dbgtypes/internal/dwarfinfo"
	"github.com/skdltmxn/dbgtypes/internal/logging"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
)

func loadDWARF(path string, cfg *config.Config, log zerolog.Logger) (*debuginfo.DebugData, error) {
	f, err := dwarfinfo.Open(path, logging.WithComponent(log, "dwarf"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars, err := f.Variables()
	if err != nil {
		return nil, err
	}

	bigEndian, ok := cfg.BigEndian()
	if !ok {
		bigEndian = f.BigEndian()
	}
	log.Debug().
		Int("units", len(f.Units())).
		Int("candidates", len(vars)).
		Bool("big_endian", bigEndian).
		Msg("DWARF variables collected")

	build := typegraph.NewBuilder(f, f.Options(bigEndian), logging.WithComponent(log, "typegraph"))
	c := newCollector(build, cfg.Filter())
	for _, v := range vars {
		if !c.add(v.Name, v.Record) {
			continue
		}
		if v.Linkage != "" {
			c.data.DemangledNames[v.Linkage] = v.QualifiedName()
		}
	}

	c.data.UnitNames = f.UnitNames()
	c.data.Sections = f.Sections()
	return c.finish(log), nil
}
