package dwarfinfo

import (
	"debug/dwarf"
	"fmt"
	"strings"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

// attrMIPSLinkageName is the pre-DWARF4 spelling of DW_AT_linkage_name.
const attrMIPSLinkageName dwarf.Attr = 0x2007

// Variable is a global or static variable with a fixed address.
type Variable struct {
	Name    string
	Linkage string
	Record  debuginfo.VariableRecord
}

// QualifiedName joins the namespace path and the name with "::".
func (v Variable) QualifiedName() string {
	if len(v.Record.Namespaces) == 0 {
		return v.Name
	}
	return strings.Join(v.Record.Namespaces, "::") + "::" + v.Name
}

type scope struct {
	tag  dwarf.Tag
	name string
}

// Variables walks every unit and returns the variables whose location is a
// static address, in file order.
func (f *File) Variables() ([]Variable, error) {
	var (
		out     []Variable
		stack   []scope
		skipped int
	)
	unit := -1
	r := f.dw.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return nil, fmt.Errorf("dwarfinfo: failed to walk entries: %w", err)
		}
		if e == nil {
			break
		}
		if e.Tag == 0 {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		if e.Tag == dwarf.TagCompileUnit || e.Tag == dwarf.TagPartialUnit {
			unit++
			stack = stack[:0]
		}

		if e.Tag == dwarf.TagVariable {
			if v, ok := f.variable(e, unit, stack); ok {
				out = append(out, v)
			} else {
				skipped++
			}
		}
		if e.Children {
			stack = append(stack, scope{tag: e.Tag, name: f.nameOf(e)})
		}
	}
	f.log.Debug().Int("variables", len(out)).Int("skipped", skipped).Msg("variables collected")
	return out, nil
}

func (f *File) variable(e *dwarf.Entry, unit int, stack []scope) (Variable, bool) {
	loc, ok := e.Val(dwarf.AttrLocation).([]byte)
	if !ok {
		return Variable{}, false
	}
	addr, ok := staticAddress(loc, int(f.AddressSize(unit)), f.ByteOrder())
	if !ok {
		return Variable{}, false
	}

	name, _ := e.Val(dwarf.AttrName).(string)
	typ, hasType := e.Val(dwarf.AttrType).(dwarf.Offset)
	linkage := linkageName(e)
	for _, ref := range []dwarf.Attr{dwarf.AttrSpecification, dwarf.AttrAbstractOrigin} {
		if name != "" && hasType && linkage != "" {
			break
		}
		off, ok := e.Val(ref).(dwarf.Offset)
		if !ok {
			continue
		}
		decl, err := f.entryAt(off)
		if err != nil {
			f.log.Debug().Err(err).Uint64("offset", uint64(e.Offset)).Msg("variable reference unreadable")
			continue
		}
		if name == "" {
			name, _ = decl.Val(dwarf.AttrName).(string)
		}
		if !hasType {
			typ, hasType = decl.Val(dwarf.AttrType).(dwarf.Offset)
		}
		if linkage == "" {
			linkage = linkageName(decl)
		}
	}
	if name == "" || !hasType {
		return Variable{}, false
	}

	rec := debuginfo.VariableRecord{
		Address: addr,
		TypeID:  debuginfo.TypeID(typ),
		Unit:    unit,
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].tag == dwarf.TagSubprogram {
			rec.Function = stack[i].name
			break
		}
	}
	for _, s := range stack {
		if s.tag == dwarf.TagNamespace && s.name != "" {
			rec.Namespaces = append(rec.Namespaces, s.name)
		}
	}
	return Variable{Name: name, Linkage: linkage, Record: rec}, true
}

// nameOf returns the name of e, following DW_AT_abstract_origin and
// DW_AT_specification for out-of-line instances.
func (f *File) nameOf(e *dwarf.Entry) string {
	if name, ok := e.Val(dwarf.AttrName).(string); ok {
		return name
	}
	for _, ref := range []dwarf.Attr{dwarf.AttrAbstractOrigin, dwarf.AttrSpecification} {
		if off, ok := e.Val(ref).(dwarf.Offset); ok {
			if decl, err := f.entryAt(off); err == nil {
				if name, ok := decl.Val(dwarf.AttrName).(string); ok {
					return name
				}
			}
		}
	}
	return ""
}

func linkageName(e *dwarf.Entry) string {
	if s, ok := e.Val(dwarf.AttrLinkageName).(string); ok {
		return s
	}
	s, _ := e.Val(attrMIPSLinkageName).(string)
	return s
}
