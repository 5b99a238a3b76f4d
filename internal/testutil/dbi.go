package testutil

// DBIModule describes one module record for BuildDBI.
type DBIModule struct {
	Name    string
	Stream  uint16
	SymSize uint32
}

// BuildDBI encodes a DBI stream with the given modules. When withDbgHeader
// is set, an optional debug header naming sectionHdr is appended.
func BuildDBI(machine, symRecords uint16, mods []DBIModule, withDbgHeader bool, sectionHdr uint16) []byte {
	mi := NewLeaf()
	for _, m := range mods {
		mi.U32(0).Raw(make([]byte, 28)).
			U16(0).U16(m.Stream).U32(m.SymSize).U32(0).U32(0).
			U16(1).U16(0).U32(0).U32(0).U32(0).
			Str(m.Name).Str(m.Name)
		for len(mi.Bytes())%4 != 0 {
			mi.U8(0)
		}
	}

	var dbg []byte
	if withDbgHeader {
		dbg = NewLeaf().
			U16(0xFFFF).U16(0xFFFF).U16(0xFFFF).U16(0xFFFF).U16(0xFFFF).U16(sectionHdr).
			Bytes()
	}

	h := NewLeaf().
		U32(0xFFFFFFFF).U32(19990903).U32(1).
		U16(0xFFFF).U16(0x8e00).U16(0xFFFF).U16(0).U16(symRecords).U16(0).
		U32(uint32(len(mi.Bytes()))).U32(0).U32(0).U32(0).U32(0).U32(0).
		U32(uint32(len(dbg))).U32(0).
		U16(0).U16(machine).U32(0)
	return append(append(h.Bytes(), mi.Bytes()...), dbg...)
}

// SymRecord encodes one CodeView symbol record.
func SymRecord(kind uint16, body []byte) []byte {
	return NewLeaf().U16(uint16(len(body) + 2)).U16(kind).Raw(body).Bytes()
}

// DataSym encodes an S_GDATA32 or S_LDATA32 style record body.
func DataSym(kind uint16, ti, off uint32, seg uint16, name string) []byte {
	return SymRecord(kind, NewLeaf().U32(ti).U32(off).U16(seg).Str(name).Bytes())
}

// SectionHeader encodes a 40-byte IMAGE_SECTION_HEADER.
func SectionHeader(name string, vsize, va uint32) []byte {
	n := make([]byte, 8)
	copy(n, name)
	return NewLeaf().Raw(n).U32(vsize).U32(va).Raw(make([]byte, 24)).Bytes()
}
