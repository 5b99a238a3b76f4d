package typegraph

import (
	"fmt"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

func (b *Builder) aggregate(ctx *Context, diag *Diagnostics, e Entry) (debuginfo.DataType, string, error) {
	tag := e.Tag()
	size, hasSize := e.Uint(AttrByteSize)
	if e.Flag(AttrForwardRef) {
		return b.forward(ctx, diag, e, size)
	}
	if !hasSize && tag != TagClass {
		return nil, "", missing(e, "byte size")
	}

	children, err := e.Children()
	if err != nil {
		return nil, "", structural(e, err)
	}

	members := debuginfo.NewMembers()
	bases := debuginfo.NewMembers()
	for _, c := range children {
		switch c.Tag() {
		case TagMember:
			b.member(ctx, diag, c, members)
		case TagInheritance:
			if tag != TagUnion {
				b.inherit(ctx, diag, e, c, bases)
			}
		}
	}

	for base := bases.Oldest(); base != nil; base = base.Next() {
		rec := debuginfo.Deref(ctx.Resolved, base.Value.Type)
		var inherited *debuginfo.Members
		switch t := rec.DataType.(type) {
		case debuginfo.Struct:
			inherited = t.Members
		case debuginfo.Class:
			inherited = t.Members
		}
		if inherited == nil {
			continue
		}
		for m := inherited.Oldest(); m != nil; m = m.Next() {
			if _, shadowed := members.Get(m.Key); shadowed {
				continue
			}
			members.Set(m.Key, debuginfo.Member{Type: m.Value.Type, Offset: m.Value.Offset + base.Value.Offset})
		}
	}

	switch {
	case tag == TagUnion:
		return debuginfo.Union{ByteSize: size, Members: members}, "", nil
	case tag == TagClass || bases.Len() > 0:
		return debuginfo.Class{ByteSize: size, Inheritance: bases, Members: members}, "", nil
	default:
		return debuginfo.Struct{ByteSize: size, Members: members}, "", nil
	}
}

// forward resolves a forward-declared aggregate to a TypeRef at its
// definition, or to an empty aggregate of the declared size when there is
// no definition.
func (b *Builder) forward(ctx *Context, diag *Diagnostics, e Entry, size uint64) (debuginfo.DataType, string, error) {
	if b.opts.Forward != nil {
		if def, ok := b.opts.Forward.ResolveForward(e); ok && def != e.ID() {
			if idx := ctx.frameIndex(def); idx >= 0 {
				if de, err := b.src.Entry(def); err == nil {
					size, _ = de.Uint(AttrByteSize)
				}
				return debuginfo.TypeRef{Target: def, ByteSize: size}, ctx.InProgress[idx].Name, nil
			}
			rec := b.Resolve(ctx, diag, def)
			return debuginfo.TypeRef{Target: def, ByteSize: rec.Size()}, rec.Name, nil
		}
	}
	if e.Tag() == TagUnion {
		return debuginfo.Union{ByteSize: size, Members: debuginfo.NewMembers()}, "", nil
	}
	return debuginfo.Struct{ByteSize: size, Members: debuginfo.NewMembers()}, "", nil
}

func (b *Builder) member(ctx *Context, diag *Diagnostics, c Entry, members *debuginfo.Members) {
	name, hasName := c.Name()

	var rec debuginfo.TypeRecord
	tid, ok := c.TypeRef()
	if ok {
		rec = b.Resolve(ctx, diag, tid)
	} else {
		diag.add("Member %s @0x%X has no type", name, uint64(c.ID()))
		rec = debuginfo.TypeRecord{ID: c.ID(), Unit: c.Unit(), DataType: debuginfo.Other{}}
	}
	if hasName && name == "" {
		return
	}
	offset, _ := c.Uint(AttrDataMemberLocation)

	if !hasName {
		inner := debuginfo.Deref(ctx.Resolved, rec)
		nested, ok := debuginfo.MembersOf(inner.DataType)
		if !ok || nested == nil {
			return
		}
		for m := nested.Oldest(); m != nil; m = m.Next() {
			members.Set(m.Key, debuginfo.Member{Type: m.Value.Type, Offset: m.Value.Offset + offset})
		}
		return
	}

	if bitSize, ok := c.Uint(AttrBitSize); ok {
		rec, offset = b.wrapBitfield(c, rec, offset, bitSize)
	} else {
		rec = refTo(tid, rec)
	}
	members.Set(name, debuginfo.Member{Type: rec, Offset: offset})
}

// wrapBitfield normalizes the member's bit offset to count from the least
// significant bit of its base type.
func (b *Builder) wrapBitfield(c Entry, base debuginfo.TypeRecord, offset, bitSize uint64) (debuginfo.TypeRecord, uint64) {
	baseSize := base.Size()
	typeBits := baseSize * 8
	var bitOffset uint64
	if raw, ok := c.Uint(AttrBitOffset); ok {
		if raw+bitSize <= typeBits {
			bitOffset = typeBits - raw - bitSize
		}
	} else if dbo, ok := c.Uint(AttrDataBitOffset); ok {
		if typeBits > 0 && dbo >= typeBits {
			offset += (dbo / typeBits) * baseSize
			dbo %= typeBits
		}
		if b.opts.BigEndian && dbo+bitSize <= typeBits {
			dbo = typeBits - dbo - bitSize
		}
		bitOffset = dbo
	}
	return debuginfo.TypeRecord{
		ID:   c.ID(),
		Name: base.Name,
		Unit: c.Unit(),
		DataType: debuginfo.Bitfield{
			Base:      &base,
			BitOffset: uint16(bitOffset),
			BitSize:   uint16(bitSize),
		},
	}, offset
}

func (b *Builder) inherit(ctx *Context, diag *Diagnostics, parent, c Entry, bases *debuginfo.Members) {
	tid, ok := c.TypeRef()
	if !ok {
		diag.add("Base class @0x%X of %s @0x%X has no type", uint64(c.ID()), parent.Tag(), uint64(parent.ID()))
		return
	}
	loc, ok := c.Uint(AttrDataMemberLocation)
	if !ok {
		diag.add("Base class @0x%X of %s @0x%X has no data member location", uint64(c.ID()), parent.Tag(), uint64(parent.ID()))
		return
	}
	rec := b.Resolve(ctx, diag, tid)
	name := rec.Name
	if name == "" {
		name, _ = c.Name()
	}
	if name == "" {
		name = fmt.Sprintf("base@0x%X", uint64(tid))
	}
	bases.Set(name, debuginfo.Member{Type: refTo(tid, rec), Offset: loc})
}

// refTo replaces an inline aggregate with a TypeRef to its table entry.
func refTo(id debuginfo.TypeID, rec debuginfo.TypeRecord) debuginfo.TypeRecord {
	switch rec.DataType.(type) {
	case debuginfo.Struct, debuginfo.Class, debuginfo.Union:
		return debuginfo.TypeRecord{
			ID:       id,
			Name:     rec.Name,
			Unit:     rec.Unit,
			DataType: debuginfo.TypeRef{Target: id, ByteSize: rec.Size()},
		}
	}
	return rec
}
