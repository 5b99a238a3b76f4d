package pdb

import (
	"fmt"

	"github.com/skdltmxn/dbgtypes/internal/dbi"
	"github.com/skdltmxn/dbgtypes/internal/symbols"
)

// Module represents a compilation unit (object file) in the PDB.
type Module struct {
	pdb   *File
	index int
	info  *dbi.ModuleInfo
}

// Index returns the module index.
func (m *Module) Index() int {
	return m.index
}

// Name returns the module name (typically the object file path).
func (m *Module) Name() string {
	return m.info.ModuleName
}

// ObjectFileName returns the original object file name.
func (m *Module) ObjectFileName() string {
	return m.info.ObjFileName
}

// Data returns the named static data symbols of the module, each with the
// procedure that encloses it.
func (m *Module) Data() ([]DataSymbol, error) {
	if !m.info.HasSymbols() {
		return nil, nil
	}
	raw, err := m.pdb.readStream(uint32(m.info.ModuleSymStreamIndex))
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to read symbols of module %q: %w", m.Name(), err)
	}

	it, err := symbols.NewModuleIterator(raw, m.info.SymByteSize)
	if err != nil {
		return nil, &ParseError{Stream: m.Name(), Message: "invalid module stream", Err: err}
	}

	var out []DataSymbol
	err = symbols.WalkData(it, func(v symbols.Variable) {
		out = append(out, DataSymbol{
			Name:     v.Name,
			Type:     v.Type,
			Segment:  v.Segment,
			Offset:   v.Offset,
			Function: v.Function,
			HasFunc:  v.HasFunc,
			Module:   m.index,
		})
	})
	if err != nil {
		return nil, &ParseError{Stream: m.Name(), Message: "invalid symbol record", Err: err}
	}
	return out, nil
}
