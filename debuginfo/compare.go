package debuginfo

import (
	"reflect"
	"slices"
)

// maxCompareDepth is the nesting depth beyond which Compare only checks
// names, variants and sizes.
const maxCompareDepth = 5

// Compare reports whether a, resolved against typesA, and b, resolved
// against typesB, describe the same type. The tables may come from
// independent builds. TypeRefs and pointer targets are looked up in the
// table of their own side. Ids are only meaningful within one table, so
// equal ids short-circuit only when both sides share it.
func Compare(a TypeRecord, typesA TypeTable, b TypeRecord, typesB TypeTable) bool {
	c := comparer{a: typesA, b: typesB, shared: sameTable(typesA, typesB)}
	return c.records(a, b, 0)
}

func sameTable(a, b TypeTable) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

type comparer struct {
	a, b   TypeTable
	shared bool
}

// shallow compares only name, variant and size after dereferencing.
func (c *comparer) shallow(a, b TypeRecord) bool {
	a, b = Deref(c.a, a), Deref(c.b, b)
	return a.Name == b.Name && KindName(a.DataType) == KindName(b.DataType) && a.Size() == b.Size()
}

func (c *comparer) records(a, b TypeRecord, depth int) bool {
	a, b = Deref(c.a, a), Deref(c.b, b)
	if c.shared && a.ID == b.ID {
		return true
	}
	if a.Name != b.Name {
		return false
	}

	switch ta := a.DataType.(type) {
	case Scalar:
		tb, ok := b.DataType.(Scalar)
		return ok && ta == tb
	case Enum:
		tb, ok := b.DataType.(Enum)
		return ok && ta.ByteSize == tb.ByteSize && ta.Signed == tb.Signed && slices.Equal(ta.Enumerators, tb.Enumerators)
	case Array:
		tb, ok := b.DataType.(Array)
		return ok && ta.ByteSize == tb.ByteSize && ta.Stride == tb.Stride && slices.Equal(ta.Dims, tb.Dims) &&
			c.nested(ta.Element, tb.Element, depth)
	case Pointer:
		tb, ok := b.DataType.(Pointer)
		if !ok || ta.PointeeSize != tb.PointeeSize {
			return false
		}
		if ta.Target == 0 || tb.Target == 0 {
			return ta.Target == tb.Target
		}
		if c.shared && ta.Target == tb.Target {
			return true
		}
		da, okA := c.a[ta.Target]
		db, okB := c.b[tb.Target]
		if !okA || !okB {
			return false
		}
		if depth < maxCompareDepth {
			return c.records(da, db, depth+1)
		}
		return c.shallow(da, db)
	case Bitfield:
		tb, ok := b.DataType.(Bitfield)
		return ok && ta.BitOffset == tb.BitOffset && ta.BitSize == tb.BitSize &&
			c.nested(ta.Base, tb.Base, depth)
	case Struct:
		tb, ok := b.DataType.(Struct)
		return ok && ta.ByteSize == tb.ByteSize && c.members(ta.Members, tb.Members, depth)
	case Union:
		tb, ok := b.DataType.(Union)
		return ok && ta.ByteSize == tb.ByteSize && c.members(ta.Members, tb.Members, depth)
	case Class:
		tb, ok := b.DataType.(Class)
		return ok && ta.ByteSize == tb.ByteSize &&
			c.members(ta.Members, tb.Members, depth) &&
			c.members(ta.Inheritance, tb.Inheritance, depth)
	case TypeRef:
		// dangling on at least one side
		tb, ok := b.DataType.(TypeRef)
		return ok && ta.ByteSize == tb.ByteSize
	case FuncPtr:
		tb, ok := b.DataType.(FuncPtr)
		return ok && ta.ByteSize == tb.ByteSize
	case Other:
		tb, ok := b.DataType.(Other)
		return ok && ta.ByteSize == tb.ByteSize
	}
	return false
}

func (c *comparer) nested(a, b *TypeRecord, depth int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return c.records(*a, *b, depth+1)
}

func (c *comparer) members(a, b *Members, depth int) bool {
	if memberCount(a) != memberCount(b) {
		return false
	}
	if a == nil || b == nil {
		return true
	}
	for pair := a.Oldest(); pair != nil; pair = pair.Next() {
		other, ok := b.Get(pair.Key)
		if !ok || other.Offset != pair.Value.Offset {
			return false
		}
		if depth < maxCompareDepth {
			if !c.records(pair.Value.Type, other.Type, depth+1) {
				return false
			}
			continue
		}
		ma, mb := Deref(c.a, pair.Value.Type), Deref(c.b, other.Type)
		if ma.Name != mb.Name || KindName(ma.DataType) != KindName(mb.DataType) {
			return false
		}
	}
	return true
}
