package typegraph

import (
	"math"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

func (b *Builder) array(ctx *Context, diag *Diagnostics, e Entry) (debuginfo.DataType, string, error) {
	tid, ok := e.TypeRef()
	if !ok {
		return nil, "", missing(e, "element type")
	}
	elem := b.Resolve(ctx, diag, tid)

	stride, ok := e.Uint(AttrByteStride)
	if !ok {
		stride = elem.Size()
	}
	stride = max(stride, 1)

	children, err := e.Children()
	if err != nil {
		return nil, "", structural(e, err)
	}
	var dims []uint64
	for _, c := range children {
		switch c.Tag() {
		case TagSubrange:
			dims = append(dims, subrangeCount(c))
		case TagEnum:
			enumerators, err := c.Children()
			if err != nil {
				return nil, "", structural(c, err)
			}
			var n uint64
			for _, en := range enumerators {
				if en.Tag() == TagEnumerator {
					n++
				}
			}
			dims = append(dims, n)
		}
	}

	size, hasSize := e.Uint(AttrByteSize)
	if len(dims) == 1 && dims[0] == 0 && hasSize {
		dims[0] = size / stride
	}

	if b.opts.FlattenNestedArrays {
		if len(dims) > 1 {
			return nil, "", &ResolveError{
				Kind:   StructuralError,
				Tag:    e.Tag(),
				ID:     e.ID(),
				Detail: "more than one dimension in a single array entry",
			}
		}
		if inner, ok := elem.DataType.(debuginfo.Array); ok && len(dims) == 1 && inner.Element != nil {
			dims = append([]uint64{dims[0]}, inner.Dims...)
			elem = *inner.Element
			stride = inner.Stride
		}
	}

	if !hasSize {
		size = stride
		for _, d := range dims {
			size *= d
		}
	}
	return debuginfo.Array{ByteSize: size, Dims: dims, Stride: stride, Element: &elem}, elem.Name, nil
}

// subrangeCount returns the element count of one dimension, or 0 when the
// bound is unknown.
func subrangeCount(c Entry) uint64 {
	if upper, ok := c.Uint(AttrUpperBound); ok {
		if upper == math.MaxUint32 || upper == math.MaxUint64 {
			return 0
		}
		lower, _ := c.Uint(AttrLowerBound)
		return upper - lower + 1
	}
	if n, ok := c.Uint(AttrCount); ok {
		return n
	}
	return 0
}
