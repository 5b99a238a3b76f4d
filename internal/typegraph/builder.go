package typegraph

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

// Frame is one entry on the in-progress stack.
type Frame struct {
	ID   debuginfo.TypeID
	Name string
	Tag  Tag
}

// Context is the mutable state of one build pass. It must not be shared
// between goroutines or reused across passes.
type Context struct {
	Resolved   debuginfo.TypeTable
	Names      map[string][]debuginfo.TypeID
	InProgress []Frame
}

// NewContext returns an empty build context.
func NewContext() *Context {
	return &Context{
		Resolved: make(debuginfo.TypeTable),
		Names:    make(map[string][]debuginfo.TypeID),
	}
}

func (c *Context) frameIndex(id debuginfo.TypeID) int {
	for i, f := range c.InProgress {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// pointerName scans forward from frame idx for the name a pointer to that
// frame should carry.
func (c *Context) pointerName(idx int) string {
	for _, f := range c.InProgress[idx:] {
		if f.Name != "" {
			return f.Name
		}
		if !f.Tag.nameTransparent() {
			break
		}
	}
	return ""
}

// Diagnostics collects human-readable reports of degraded resolutions.
type Diagnostics []string

func (d *Diagnostics) add(format string, args ...any) {
	*d = append(*d, fmt.Sprintf(format, args...))
}

// Builder resolves entries of one Source into TypeRecords.
type Builder struct {
	src  Source
	opts Options
	log  zerolog.Logger
}

// NewBuilder creates a builder over src.
func NewBuilder(src Source, opts Options, logger zerolog.Logger) *Builder {
	return &Builder{src: src, opts: opts, log: logger}
}

// Resolve returns the record for id, resolving and memoizing it and every
// type it depends on. It never fails: an entry that cannot be resolved is
// stored as Other(0) and a report is appended to diag.
func (b *Builder) Resolve(ctx *Context, diag *Diagnostics, id debuginfo.TypeID) debuginfo.TypeRecord {
	if rec, ok := ctx.Resolved[id]; ok {
		return rec
	}
	if ctx.frameIndex(id) >= 0 {
		diag.add("Type 0x%X refers to itself", uint64(id))
		return debuginfo.TypeRecord{ID: id, DataType: debuginfo.Other{}}
	}

	depth := len(ctx.InProgress)
	e, err := b.src.Entry(id)
	if err != nil {
		return b.degrade(ctx, diag, depth, id, 0, &ResolveError{
			Kind: UnresolvableReference,
			ID:   id,
			Err:  err,
		})
	}

	name, hasName := e.Name()
	if e.Flag(AttrDeclaration) {
		return debuginfo.TypeRecord{ID: id, Name: name, Unit: e.Unit(), DataType: debuginfo.Other{}}
	}

	ctx.InProgress = append(ctx.InProgress, Frame{ID: id, Name: name, Tag: e.Tag()})
	dt, inner, err := b.dispatch(ctx, diag, e)
	if err != nil {
		return b.degrade(ctx, diag, depth, id, e.Unit(), err)
	}

	display := inner
	if hasName {
		display = name
	}
	rec := debuginfo.TypeRecord{ID: id, Name: display, Unit: e.Unit(), DataType: dt}
	if _, isRef := dt.(debuginfo.TypeRef); hasName && name != "" && !(isRef && e.Flag(AttrForwardRef)) {
		ctx.Names[name] = append(ctx.Names[name], id)
	}
	ctx.InProgress = ctx.InProgress[:depth]
	ctx.Resolved[id] = rec
	return rec
}

func (b *Builder) degrade(ctx *Context, diag *Diagnostics, depth int, id debuginfo.TypeID, unit int, err error) debuginfo.TypeRecord {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Failed to read type: %v", err)
	for i, f := range ctx.InProgress {
		sb.WriteString("\n  ")
		sb.WriteString(strings.Repeat(" ", 2*i))
		sb.WriteString(f.Tag.String())
		if f.Name != "" {
			sb.WriteString(" " + f.Name)
		}
		fmt.Fprintf(&sb, " @0x%X", uint64(f.ID))
	}
	*diag = append(*diag, sb.String())
	evt := b.log.Debug().Err(err).Uint64("type_id", uint64(id)).Int("depth", depth)
	if len(ctx.InProgress) > depth {
		evt = evt.Stringer("tag", ctx.InProgress[depth].Tag)
	}
	evt.Msg("type degraded")

	ctx.InProgress = ctx.InProgress[:depth]
	var name string
	if depth > 0 {
		name = ctx.InProgress[depth-1].Name
	}
	rec := debuginfo.TypeRecord{ID: id, Name: name, Unit: unit, DataType: debuginfo.Other{}}
	ctx.Resolved[id] = rec
	return rec
}

// dispatch builds the data type of e. inner is the name to use when e has
// no name of its own.
func (b *Builder) dispatch(ctx *Context, diag *Diagnostics, e Entry) (debuginfo.DataType, string, error) {
	switch e.Tag() {
	case TagBase:
		dt, inner := b.base(e)
		return dt, inner, nil
	case TagPointer:
		return b.pointer(ctx, diag, e)
	case TagArray:
		return b.array(ctx, diag, e)
	case TagStruct, TagClass, TagUnion:
		return b.aggregate(ctx, diag, e)
	case TagEnum:
		dt, err := b.enum(ctx, diag, e)
		return dt, "", err
	case TagTypedef:
		target, ok := e.TypeRef()
		if !ok {
			return debuginfo.Other{}, "", nil
		}
		dt, _ := b.through(ctx, diag, target)
		return dt, "", nil
	case TagConst, TagVolatile, TagRestrict, TagPacked, TagAtomic, TagImmutable, TagModifier:
		target, ok := e.TypeRef()
		if !ok {
			return debuginfo.Other{ByteSize: b.src.AddressSize(e.Unit())}, "", nil
		}
		dt, inner := b.through(ctx, diag, target)
		return dt, inner, nil
	case TagBitfield:
		return b.bitfieldType(ctx, diag, e)
	case TagSubroutine:
		return debuginfo.FuncPtr{ByteSize: b.src.AddressSize(e.Unit())}, "p_function", nil
	case TagUnspecified:
		size, _ := e.Uint(AttrByteSize)
		return debuginfo.Other{ByteSize: size}, "", nil
	}
	size, _ := e.Uint(AttrByteSize)
	diag.add("Unsupported type tag %s @0x%X", e.Tag(), uint64(e.ID()))
	return debuginfo.Other{ByteSize: size}, "", nil
}

// through resolves the target of a typedef or qualifier. When the target
// is still in progress and names an aggregate, possibly through further
// typedefs and qualifiers, a TypeRef to that aggregate is returned instead.
func (b *Builder) through(ctx *Context, diag *Diagnostics, target debuginfo.TypeID) (debuginfo.DataType, string) {
	if idx := ctx.frameIndex(target); idx >= 0 {
		name := ctx.InProgress[idx].Name
	scan:
		for _, f := range ctx.InProgress[idx:] {
			if name == "" {
				name = f.Name
			}
			switch f.Tag {
			case TagTypedef, TagConst, TagVolatile, TagRestrict, TagPacked, TagAtomic, TagImmutable, TagModifier:
			case TagStruct, TagClass, TagUnion:
				var size uint64
				if fe, err := b.src.Entry(f.ID); err == nil {
					size, _ = fe.Uint(AttrByteSize)
				}
				return debuginfo.TypeRef{Target: f.ID, ByteSize: size}, name
			default:
				break scan
			}
		}
	}
	rec := b.Resolve(ctx, diag, target)
	return rec.DataType, rec.Name
}

func (b *Builder) base(e Entry) (debuginfo.DataType, string) {
	size, ok := e.Uint(AttrByteSize)
	if !ok {
		size = 1
	}
	enc, ok := e.Uint(AttrEncoding)
	if !ok {
		enc = EncodingUnsigned
	}

	switch enc {
	case EncodingAddress:
		return debuginfo.Pointer{PointeeSize: b.src.AddressSize(e.Unit())}, "unknown"
	case EncodingFloat:
		if size == 8 {
			return debuginfo.Double, "double"
		}
		return debuginfo.Float, "float"
	case EncodingSigned, EncodingSignedChar:
		switch size {
		case 1:
			return debuginfo.Sint8, "sint8"
		case 2:
			return debuginfo.Sint16, "sint16"
		case 4:
			return debuginfo.Sint32, "sint32"
		case 8:
			return debuginfo.Sint64, "sint64"
		}
	case EncodingBoolean, EncodingUnsigned, EncodingUnsignedChar:
		switch size {
		case 1:
			return debuginfo.Uint8, "uint8"
		case 2:
			return debuginfo.Uint16, "uint16"
		case 4:
			return debuginfo.Uint32, "uint32"
		case 8:
			return debuginfo.Uint64, "uint64"
		}
	}
	return debuginfo.Other{ByteSize: size}, "other"
}

func (b *Builder) pointer(ctx *Context, diag *Diagnostics, e Entry) (debuginfo.DataType, string, error) {
	size, ok := e.Uint(AttrByteSize)
	if !ok {
		size = b.src.AddressSize(e.Unit())
	}
	target, ok := e.TypeRef()
	if !ok {
		return debuginfo.Pointer{PointeeSize: size}, "void", nil
	}
	if idx := ctx.frameIndex(target); idx >= 0 {
		return debuginfo.Pointer{PointeeSize: size, Target: target}, ctx.pointerName(idx), nil
	}
	rec := b.Resolve(ctx, diag, target)
	return debuginfo.Pointer{PointeeSize: size, Target: target}, rec.Name, nil
}

func (b *Builder) bitfieldType(ctx *Context, diag *Diagnostics, e Entry) (debuginfo.DataType, string, error) {
	target, ok := e.TypeRef()
	if !ok {
		return nil, "", missing(e, "underlying type")
	}
	bitSize, ok := e.Uint(AttrBitSize)
	if !ok {
		return nil, "", missing(e, "bit size")
	}
	bitOffset, _ := e.Uint(AttrDataBitOffset)
	base := b.Resolve(ctx, diag, target)
	if typeBits := base.Size() * 8; b.opts.BigEndian && bitOffset+bitSize <= typeBits {
		bitOffset = typeBits - bitOffset - bitSize
	}
	return debuginfo.Bitfield{Base: &base, BitOffset: uint16(bitOffset), BitSize: uint16(bitSize)}, base.Name, nil
}

func (b *Builder) enum(ctx *Context, diag *Diagnostics, e Entry) (debuginfo.DataType, error) {
	size, hasSize := e.Uint(AttrByteSize)
	var signed bool
	if target, ok := e.TypeRef(); ok {
		under := b.Resolve(ctx, diag, target)
		if !hasSize {
			size, hasSize = under.Size(), true
		}
		if s, ok := under.DataType.(debuginfo.Scalar); ok {
			signed = s.IsSigned()
		}
	}
	if !hasSize {
		return nil, missing(e, "byte size")
	}

	children, err := e.Children()
	if err != nil {
		return nil, structural(e, err)
	}
	var enumerators []debuginfo.Enumerator
	for _, c := range children {
		if c.Tag() != TagEnumerator {
			continue
		}
		name, ok := c.Name()
		if !ok {
			return nil, missing(c, "enumerator name")
		}
		v, ok := c.Int(AttrConstValue)
		if !ok {
			return nil, missing(c, "enumerator value")
		}
		if signed && size > 0 && size < 8 {
			// fixed-size constant forms arrive zero-extended
			shift := 64 - 8*size
			v = v << shift >> shift
		}
		enumerators = append(enumerators, debuginfo.Enumerator{Name: name, Value: v})
	}
	return debuginfo.Enum{ByteSize: size, Signed: signed, Enumerators: enumerators}, nil
}
