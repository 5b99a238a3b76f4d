package codeview

import (
	"fmt"

	"github.com/skdltmxn/dbgtypes/debuginfo"
	"github.com/skdltmxn/dbgtypes/internal/tpi"
	"github.com/skdltmxn/dbgtypes/internal/typegraph"
)

// entry is a type record, a field, or a synthetic array dimension.
type entry struct {
	id      debuginfo.TypeID
	tag     typegraph.Tag
	name    string
	hasName bool
	ref     tpi.TypeIndex
	hasRef  bool
	attrs   map[typegraph.Attr]uint64
	value   int64
	flags   map[typegraph.Attr]bool

	// children are produced lazily from the field list
	src       *Source
	fieldList tpi.TypeIndex
	children  []typegraph.Entry
	childErr  error

	// raw record, kept for unique-name lookup
	rec *tpi.TypeRecord
}

func (e *entry) ID() debuginfo.TypeID       { return e.id }
func (e *entry) Unit() int                  { return 0 }
func (e *entry) Tag() typegraph.Tag         { return e.tag }
func (e *entry) Name() (string, bool)       { return e.name, e.hasName }
func (e *entry) Flag(a typegraph.Attr) bool { return e.flags[a] }

func (e *entry) Uint(a typegraph.Attr) (uint64, bool) {
	v, ok := e.attrs[a]
	return v, ok
}

func (e *entry) Int(a typegraph.Attr) (int64, bool) {
	if a == typegraph.AttrConstValue && e.tag == typegraph.TagEnumerator {
		return e.value, true
	}
	v, ok := e.attrs[a]
	return int64(v), ok
}

func (e *entry) TypeRef() (debuginfo.TypeID, bool) {
	return debuginfo.TypeID(e.ref), e.hasRef
}

func (e *entry) Children() ([]typegraph.Entry, error) {
	if e.childErr != nil || e.fieldList == 0 {
		return e.children, e.childErr
	}
	fields, err := e.src.fieldList(e.fieldList)
	if err != nil {
		return nil, err
	}
	var out []typegraph.Entry
	for _, f := range fields {
		c := &entry{id: debuginfo.TypeID(e.fieldList), name: f.Name, hasName: true}
		switch f.Kind {
		case tpi.LF_MEMBER:
			c.tag = typegraph.TagMember
			c.ref, c.hasRef = f.Type, true
			c.attrs = map[typegraph.Attr]uint64{typegraph.AttrDataMemberLocation: f.Offset}
		case tpi.LF_BCLASS:
			c.tag = typegraph.TagInheritance
			c.hasName = false
			c.ref, c.hasRef = f.Type, true
			c.attrs = map[typegraph.Attr]uint64{typegraph.AttrDataMemberLocation: f.Offset}
		case tpi.LF_ENUMERATE:
			c.tag = typegraph.TagEnumerator
			c.value = int64(f.Value)
		default:
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Source) newEntry(ti tpi.TypeIndex, rec *tpi.TypeRecord) (*entry, error) {
	e := &entry{id: debuginfo.TypeID(ti), src: s, rec: rec, attrs: map[typegraph.Attr]uint64{}}
	switch rec.Kind {
	case tpi.LF_MODIFIER:
		m, err := tpi.ParseModifierRecord(rec.Data)
		if err != nil {
			return nil, err
		}
		e.tag = typegraph.TagModifier
		e.ref, e.hasRef = m.ModifiedType, true

	case tpi.LF_POINTER:
		p, err := tpi.ParsePointerRecord(rec.Data)
		if err != nil {
			return nil, err
		}
		e.tag = typegraph.TagPointer
		e.ref, e.hasRef = p.ReferentType, true
		if size := p.Attributes.Size(); size != 0 {
			e.attrs[typegraph.AttrByteSize] = uint64(size)
		}

	case tpi.LF_PROCEDURE, tpi.LF_MFUNCTION:
		e.tag = typegraph.TagSubroutine

	case tpi.LF_ARRAY:
		a, err := tpi.ParseArrayRecord(rec.Data)
		if err != nil {
			return nil, err
		}
		e.tag = typegraph.TagArray
		e.name, e.hasName = a.Name, a.Name != ""
		e.ref, e.hasRef = a.ElementType, true
		e.attrs[typegraph.AttrByteSize] = a.Size
		e.children = []typegraph.Entry{&entry{id: e.id, tag: typegraph.TagSubrange}}

	case tpi.LF_DIMARRAY:
		e.tag = typegraph.TagArray
		if len(rec.Data) >= 4 {
			e.ref = tpi.TypeIndex(uint32(rec.Data[0]) | uint32(rec.Data[1])<<8 | uint32(rec.Data[2])<<16 | uint32(rec.Data[3])<<24)
			e.hasRef = true
		}
		e.childErr = fmt.Errorf("%w: %#x", ErrDimArray, uint32(ti))

	case tpi.LF_CLASS, tpi.LF_STRUCTURE, tpi.LF_INTERFACE, tpi.LF_UNION:
		a, err := tpi.ParseAggregateRecord(rec.Kind, rec.Data)
		if err != nil {
			return nil, err
		}
		switch {
		case rec.Kind == tpi.LF_UNION:
			e.tag = typegraph.TagUnion
		case rec.Kind == tpi.LF_CLASS && a.FieldList != 0:
			e.tag = typegraph.TagClass
		default:
			e.tag = typegraph.TagStruct
		}
		e.name, e.hasName = a.Name, true
		e.attrs[typegraph.AttrByteSize] = a.Size
		if a.Properties.IsForwardRef() {
			e.flags = map[typegraph.Attr]bool{typegraph.AttrForwardRef: true}
		} else {
			e.fieldList = a.FieldList
		}

	case tpi.LF_ENUM:
		en, err := tpi.ParseEnumRecord(rec.Data)
		if err != nil {
			return nil, err
		}
		e.tag = typegraph.TagEnum
		e.name, e.hasName = en.Name, true
		e.ref, e.hasRef = en.UnderlyingType, true
		e.fieldList = en.FieldList

	case tpi.LF_BITFIELD:
		bf, err := tpi.ParseBitFieldRecord(rec.Data)
		if err != nil {
			return nil, err
		}
		e.tag = typegraph.TagBitfield
		e.ref, e.hasRef = bf.Type, true
		e.attrs[typegraph.AttrBitSize] = uint64(bf.Length)
		e.attrs[typegraph.AttrDataBitOffset] = uint64(bf.Position)

	default:
		e.tag = typegraph.TagUnknown
	}
	return e, nil
}
