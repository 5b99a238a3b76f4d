// Package codeview adapts a PDB type stream to the typegraph entry model.
package codeview

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/tpi"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
)

// Errors returned by Source
var (
	ErrNotFieldList       = errors.New("codeview: field list index does not name an LF_FIELDLIST")
	ErrFieldListCycle     = errors.New("codeview: field list continuation cycle")
	ErrUnsupportedPointer = errors.New("codeview: unsupported builtin pointer mode")
	ErrDimArray           = errors.New("codeview: LF_DIMARRAY is not supported")
)

// Source serves type stream records as typegraph entries. Every entry
// belongs to unit 0.
type Source struct {
	types    *tpi.Stream
	addrSize uint64
	forward  *ForwardIndex
	log      zerolog.Logger
}

// NewSource wraps types and builds its forward-reference index.
func NewSource(types *tpi.Stream, addrSize uint64, logger zerolog.Logger) *Source {
	s := &Source{
		types:    types,
		addrSize: addrSize,
		forward:  NewForwardIndex(types),
		log:      logger,
	}
	s.log.Debug().
		Int("records", types.TypeCount()).
		Int("unique_names", s.forward.Len()).
		Msg("type stream indexed")
	return s
}

// Options returns the builder options for CodeView input.
func (s *Source) Options() typegraph.Options {
	return typegraph.Options{FlattenNestedArrays: true, Forward: s.forward}
}

func (s *Source) AddressSize(int) uint64 { return s.addrSize }

func (s *Source) Entry(id debuginfo.TypeID) (typegraph.Entry, error) {
	ti := tpi.TypeIndex(id)
	if ti.IsSimpleType() {
		return builtin(ti)
	}
	rec, err := s.types.Record(ti)
	if err != nil {
		return nil, err
	}
	return s.newEntry(ti, rec)
}

// fieldList returns the fields of list and every continuation it chains to.
func (s *Source) fieldList(list tpi.TypeIndex) ([]tpi.Field, error) {
	var all []tpi.Field
	seen := map[tpi.TypeIndex]bool{}
	for list != 0 {
		if seen[list] {
			return nil, fmt.Errorf("%w at %#x", ErrFieldListCycle, uint32(list))
		}
		seen[list] = true

		rec, err := s.types.Record(list)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.Kind != tpi.LF_FIELDLIST {
			return nil, fmt.Errorf("%w: %#x", ErrNotFieldList, uint32(list))
		}
		fields, err := tpi.ParseFieldList(rec.Data)
		if err != nil {
			return nil, err
		}

		list = 0
		for _, f := range fields {
			if f.Kind == tpi.LF_INDEX {
				list = f.Type
				continue
			}
			all = append(all, f)
		}
	}
	return all, nil
}
