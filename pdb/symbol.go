package pdb

import (
	"fmt"
	"strings"

	"github.com/skdltmxn/dbgtypes/internal/dbi"
	"github.com/skdltmxn/dbgtypes/internal/symbols"
	"github.com/skdltmxn/dbgtypes/internal/tpi"
)

// NoModule is the Module of symbols from the global symbol record stream.
const NoModule = -1

// DataSymbol is a global or static data symbol.
type DataSymbol struct {
	// Name is the unqualified variable name.
	Name string
	// Namespaces is the qualifying path, outermost first.
	Namespaces []string

	Type    tpi.TypeIndex
	Segment uint16
	Offset  uint32

	Function string
	HasFunc  bool

	// Module is the index of the owning module, or NoModule.
	Module int
}

// splitQualified splits "a::b::c" into ("c", ["a", "b"]).
func splitQualified(name string) (string, []string) {
	parts := strings.Split(name, "::")
	return parts[len(parts)-1], parts[:len(parts)-1]
}

// GlobalData returns every data symbol of the global symbol record stream.
// Qualified names are split into the variable name and namespace path.
func (f *File) GlobalData() ([]DataSymbol, error) {
	dbiStream, err := f.getDBI()
	if err != nil {
		return nil, err
	}
	idx := dbiStream.Header.SymRecordStreamIndex
	if idx == dbi.InvalidStreamIndex {
		return nil, nil
	}

	raw, err := f.readStream(uint32(idx))
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to read symbol record stream: %w", err)
	}

	var out []DataSymbol
	err = symbols.WalkData(symbols.NewSymbolIterator(raw), func(v symbols.Variable) {
		name, ns := splitQualified(v.Name)
		out = append(out, DataSymbol{
			Name:       name,
			Namespaces: ns,
			Type:       v.Type,
			Segment:    v.Segment,
			Offset:     v.Offset,
			Module:     NoModule,
		})
	})
	if err != nil {
		return nil, &ParseError{Stream: "symbol records", Message: "invalid symbol record", Err: err}
	}
	return out, nil
}
