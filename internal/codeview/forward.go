package codeview

import (
	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/tpi"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
)

type forwardKey struct {
	kind tpi.TypeRecordKind
	name string
}

// ForwardIndex maps (record kind, unique name) to the defining record.
type ForwardIndex struct {
	defs map[forwardKey]tpi.TypeIndex
}

// NewForwardIndex scans every record of types once. When a unique name is
// defined more than once the first definition wins.
func NewForwardIndex(types *tpi.Stream) *ForwardIndex {
	idx := &ForwardIndex{defs: make(map[forwardKey]tpi.TypeIndex)}
	types.Each(func(ti tpi.TypeIndex, rec *tpi.TypeRecord) {
		kind, name, forward, ok := tpi.UniqueName(rec)
		if !ok || forward {
			return
		}
		key := forwardKey{kind, name}
		if _, dup := idx.defs[key]; !dup {
			idx.defs[key] = ti
		}
	})
	return idx
}

// Len returns the number of indexed definitions.
func (f *ForwardIndex) Len() int {
	return len(f.defs)
}

// Lookup returns the definition of kind with the given unique name.
func (f *ForwardIndex) Lookup(kind tpi.TypeRecordKind, uniqueName string) (tpi.TypeIndex, bool) {
	ti, ok := f.defs[forwardKey{kind, uniqueName}]
	return ti, ok
}

func (f *ForwardIndex) ResolveForward(e typegraph.Entry) (debuginfo.TypeID, bool) {
	ce, ok := e.(*entry)
	if !ok || ce.rec == nil {
		return 0, false
	}
	kind, name, _, ok := tpi.UniqueName(ce.rec)
	if !ok {
		return 0, false
	}
	ti, ok := f.Lookup(kind, name)
	if !ok {
		return 0, false
	}
	return debuginfo.TypeID(ti), true
}
