package debuginfo

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes the structure of t: variant, size and layout down to
// the same depth Compare inspects. Ids do not contribute, so identical
// definitions from different units hash equally.
func Fingerprint(types TypeTable, t TypeRecord) uint64 {
	var sb strings.Builder
	writeShape(&sb, types, t, 0)
	return xxh3.HashString(sb.String())
}

func writeShape(sb *strings.Builder, types TypeTable, t TypeRecord, depth int) {
	t = Deref(types, t)
	fmt.Fprintf(sb, "%s|%s|%d", t.Name, KindName(t.DataType), t.Size())
	if depth >= maxCompareDepth {
		return
	}

	switch dt := t.DataType.(type) {
	case Enum:
		fmt.Fprintf(sb, "|s%t", dt.Signed)
		for _, e := range dt.Enumerators {
			fmt.Fprintf(sb, "|%s=%d", e.Name, e.Value)
		}
	case Array:
		fmt.Fprintf(sb, "|%v/%d[", dt.Dims, dt.Stride)
		if dt.Element != nil {
			writeShape(sb, types, *dt.Element, depth+1)
		}
		sb.WriteString("]")
	case Bitfield:
		fmt.Fprintf(sb, "|%d:%d[", dt.BitOffset, dt.BitSize)
		if dt.Base != nil {
			writeShape(sb, types, *dt.Base, depth+1)
		}
		sb.WriteString("]")
	case Pointer:
		if target, ok := types[dt.Target]; ok {
			sb.WriteString("->")
			target = Deref(types, target)
			fmt.Fprintf(sb, "%s|%s", target.Name, KindName(target.DataType))
		}
	case Class:
		writeMembers(sb, types, dt.Inheritance, depth)
		writeMembers(sb, types, dt.Members, depth)
	case Struct:
		writeMembers(sb, types, dt.Members, depth)
	case Union:
		writeMembers(sb, types, dt.Members, depth)
	}
}

func writeMembers(sb *strings.Builder, types TypeTable, m *Members, depth int) {
	sb.WriteString("{")
	if m != nil {
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(sb, "%s@%d:", pair.Key, pair.Value.Offset)
			writeShape(sb, types, pair.Value.Type, depth+1)
			sb.WriteString(";")
		}
	}
	sb.WriteString("}")
}
