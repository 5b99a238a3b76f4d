package debuginfo

import (
	"errors"
	"fmt"
	"strings"
)

// ArrayStyle selects how array element paths are spelled.
type ArrayStyle int

const (
	// ArrayStyleNew spells elements as name[i][j].
	ArrayStyleNew ArrayStyle = iota
	// ArrayStyleOld spells elements as name._i_._j_.
	ArrayStyleOld
)

// SkipChildren may be returned by a WalkFunc to skip the children of the
// current element.
var SkipChildren = errors.New("debuginfo: skip children")

// WalkFunc is called for each element reached by Walk. path is the full
// element name, offset its byte offset from the start of the root.
type WalkFunc func(path string, t TypeRecord, offset uint64) error

// Walk visits every member and array element below root, depth first in
// declaration order. The root itself is not visited. TypeRefs are followed
// through types.
func Walk(types TypeTable, root TypeRecord, name string, style ArrayStyle, fn WalkFunc) error {
	return walk(types, Deref(types, root), name, 0, style, fn)
}

func walk(types TypeTable, t TypeRecord, prefix string, base uint64, style ArrayStyle, fn WalkFunc) error {
	visit := func(path string, child TypeRecord, offset uint64) error {
		child = Deref(types, child)
		err := fn(path, child, offset)
		if errors.Is(err, SkipChildren) {
			return nil
		}
		if err != nil {
			return err
		}
		return walk(types, child, path, offset, style, fn)
	}

	if members, ok := MembersOf(t.DataType); ok {
		if members == nil {
			return nil
		}
		for pair := members.Oldest(); pair != nil; pair = pair.Next() {
			if err := visit(prefix+"."+pair.Key, pair.Value.Type, base+pair.Value.Offset); err != nil {
				return err
			}
		}
		return nil
	}

	arr, ok := t.DataType.(Array)
	if !ok || arr.Stride == 0 || arr.Element == nil || len(arr.Dims) == 0 {
		return nil
	}
	total := arr.ByteSize / arr.Stride
	indices := make([]uint64, len(arr.Dims))
	for pos := uint64(0); pos < total; pos++ {
		rem := pos
		for i := len(arr.Dims) - 1; i >= 0; i-- {
			if arr.Dims[i] == 0 {
				indices[i] = 0
				continue
			}
			indices[i] = rem % arr.Dims[i]
			rem /= arr.Dims[i]
		}
		if err := visit(elementPath(prefix, indices, style), *arr.Element, base+arr.Stride*pos); err != nil {
			return err
		}
	}
	return nil
}

func elementPath(prefix string, indices []uint64, style ArrayStyle) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, idx := range indices {
		if style == ArrayStyleOld {
			fmt.Fprintf(&sb, "._%d_", idx)
		} else {
			fmt.Fprintf(&sb, "[%d]", idx)
		}
	}
	return sb.String()
}

// ParseArrayStyle maps "new" and "old" to an ArrayStyle.
func ParseArrayStyle(s string) (ArrayStyle, error) {
	switch s {
	case "", "new":
		return ArrayStyleNew, nil
	case "old":
		return ArrayStyleOld, nil
	}
	return ArrayStyleNew, fmt.Errorf("debuginfo: unknown array style %q", s)
}
