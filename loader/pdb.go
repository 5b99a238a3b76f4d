package loader

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/codeview"
	"github.com/skdltmxn/dbgtypes/internal/config"
	"github.com/skdltmxn/dbgtypes/internal/logging"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
	"github.com/skdltmxn/dbgtypes/pdb"
)

func loadPDB(path string, cfg *config.Config, log zerolog.Logger) (*debuginfo.DebugData, error) {
	p, err := pdb.Open(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	types, err := p.Types()
	if err != nil {
		return nil, err
	}
	addrSize, err := p.AddressSize()
	if err != nil {
		return nil, err
	}
	sections, err := p.Sections()
	if errors.Is(err, pdb.ErrNoSectionHeaders) {
		log.Warn().Msg("no section headers, variables cannot be located")
		sections = &pdb.SectionHeaders{}
	} else if err != nil {
		return nil, err
	}

	src := codeview.NewSource(types, addrSize, logging.WithComponent(log, "codeview"))
	opts := src.Options()
	opts.BigEndian, _ = cfg.BigEndian()
	build := typegraph.NewBuilder(src, opts, logging.WithComponent(log, "typegraph"))
	c := newCollector(build, cfg.Filter())

	add := func(sym pdb.DataSymbol, unit int) {
		rva, ok := sections.ToRVA(sym.Segment, sym.Offset)
		if !ok {
			return
		}
		c.add(sym.Name, debuginfo.VariableRecord{
			Address:    uint64(rva),
			TypeID:     debuginfo.TypeID(sym.Type),
			Unit:       unit,
			Function:   sym.Function,
			Namespaces: sym.Namespaces,
		})
	}

	globals, err := p.GlobalData()
	if err != nil {
		return nil, err
	}
	for _, sym := range globals {
		add(sym, 0)
	}

	mods, err := p.Modules()
	if err != nil {
		return nil, err
	}
	units := []string{""}
	for _, m := range mods {
		units = append(units, m.Name())
		data, err := m.Data()
		if err != nil {
			log.Warn().Err(err).Str("module", m.Name()).Msg("module symbols skipped")
			c.data.Diagnostics = append(c.data.Diagnostics,
				fmt.Sprintf("Failed to read symbols of module %s: %v", m.Name(), err))
			continue
		}
		for _, sym := range data {
			add(sym, len(units)-1)
		}
	}
	log.Debug().
		Int("globals", len(globals)).
		Int("modules", len(mods)).
		Uint64("address_size", addrSize).
		Msg("PDB symbols collected")

	c.data.UnitNames = units
	for _, s := range sections.All() {
		c.data.Sections[s.Name] = debuginfo.Section{
			Start: uint64(s.VirtualAddress),
			End:   uint64(s.VirtualAddress) + uint64(s.VirtualSize),
		}
	}
	return c.finish(log), nil
}
