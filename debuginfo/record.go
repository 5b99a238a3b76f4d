package debuginfo

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// maxRefChain bounds TypeRef chains followed by Deref.
const maxRefChain = 16

// TypeRecord is one resolved type. An empty Name means the type is unnamed.
type TypeRecord struct {
	ID       TypeID
	Name     string
	Unit     int
	DataType DataType
}

// Size returns the storage size of the record's data type.
func (t TypeRecord) Size() uint64 {
	if t.DataType == nil {
		return 0
	}
	return t.DataType.Size()
}

// SizeOf returns the storage size of t.
func SizeOf(t TypeRecord) uint64 {
	return t.Size()
}

// TypeTable maps type ids to resolved records.
type TypeTable map[TypeID]TypeRecord

// Deref follows TypeRef records through types. Records that are not a
// TypeRef, or whose target is missing, are returned unchanged.
func Deref(types TypeTable, t TypeRecord) TypeRecord {
	for i := 0; i < maxRefChain; i++ {
		ref, ok := t.DataType.(TypeRef)
		if !ok {
			return t
		}
		target, ok := types[ref.Target]
		if !ok {
			return t
		}
		t = target
	}
	return t
}

// VariableRecord locates one definition of a global or static variable.
type VariableRecord struct {
	Address    uint64
	TypeID     TypeID
	Unit       int
	Function   string
	Namespaces []string
}

// Section is the half-open address range [Start, End) of a loaded section.
type Section struct {
	Start uint64
	End   uint64
}

// Variables maps variable names to their definitions in discovery order.
type Variables = orderedmap.OrderedMap[string, []VariableRecord]

// NewVariables returns an empty variable map.
func NewVariables() *Variables {
	return orderedmap.New[string, []VariableRecord]()
}

// DebugData is everything extracted from one debug-info file.
type DebugData struct {
	Variables      *Variables
	Types          TypeTable
	TypeNames      map[string][]TypeID
	DemangledNames map[string]string
	// UnitNames is indexed by VariableRecord.Unit. An empty entry means the
	// unit has no name.
	UnitNames   []string
	Sections    map[string]Section
	Diagnostics []string
}

// NewDebugData returns an empty DebugData with all maps allocated.
func NewDebugData() *DebugData {
	return &DebugData{
		Variables:      NewVariables(),
		Types:          make(TypeTable),
		TypeNames:      make(map[string][]TypeID),
		DemangledNames: make(map[string]string),
		Sections:       make(map[string]Section),
	}
}

// LookupVariable returns every definition of name.
func (d *DebugData) LookupVariable(name string) ([]VariableRecord, bool) {
	return d.Variables.Get(name)
}

// LookupType returns the record stored under id.
func (d *DebugData) LookupType(id TypeID) (TypeRecord, bool) {
	t, ok := d.Types[id]
	return t, ok
}

// TypesByName returns the records indexed under name, in index order.
func (d *DebugData) TypesByName(name string) []TypeRecord {
	var out []TypeRecord
	for _, id := range d.TypeNames[name] {
		if t, ok := d.Types[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// AddVariable appends a definition of name.
func (d *DebugData) AddVariable(name string, v VariableRecord) {
	list, _ := d.Variables.Get(name)
	d.Variables.Set(name, append(list, v))
}

// SectionOf returns the name of the section containing addr.
func (d *DebugData) SectionOf(addr uint64) (string, bool) {
	for name, s := range d.Sections {
		if addr >= s.Start && addr < s.End {
			return name, true
		}
	}
	return "", false
}

// SimpleUnitName strips any directory from a unit name and replaces dots,
// so "src/ctrl.c" becomes "ctrl_c".
func (d *DebugData) SimpleUnitName(unit int) (string, bool) {
	if unit < 0 || unit >= len(d.UnitNames) || d.UnitNames[unit] == "" {
		return "", false
	}
	name := d.UnitNames[unit]
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	return strings.ReplaceAll(name, ".", "_"), true
}
