// Package symbols reads CodeView symbol records from the global symbol
// record stream and from module symbol streams.
package symbols

import "github.com/skdltmxn/dbgtypes/internal/tpi"

// SymbolRecordKind identifies the type of a symbol record.
type SymbolRecordKind uint16

// Symbol record kinds (S_*)
const (
	S_END            SymbolRecordKind = 0x0006
	S_LDATA32_ST     SymbolRecordKind = 0x1007
	S_GDATA32_ST     SymbolRecordKind = 0x1008
	S_LPROC32_ST     SymbolRecordKind = 0x100a
	S_GPROC32_ST     SymbolRecordKind = 0x100b
	S_LMANDATA_ST    SymbolRecordKind = 0x1020
	S_GMANDATA_ST    SymbolRecordKind = 0x1021
	S_THUNK32        SymbolRecordKind = 0x1102
	S_BLOCK32        SymbolRecordKind = 0x1103
	S_WITH32         SymbolRecordKind = 0x1104
	S_LDATA32        SymbolRecordKind = 0x110c
	S_GDATA32        SymbolRecordKind = 0x110d
	S_PUB32          SymbolRecordKind = 0x110e
	S_LPROC32        SymbolRecordKind = 0x110f
	S_GPROC32        SymbolRecordKind = 0x1110
	S_LTHREAD32      SymbolRecordKind = 0x1112
	S_GTHREAD32      SymbolRecordKind = 0x1113
	S_LPROCMIPS      SymbolRecordKind = 0x1114
	S_GPROCMIPS      SymbolRecordKind = 0x1115
	S_LPROCIA64      SymbolRecordKind = 0x1118
	S_GPROCIA64      SymbolRecordKind = 0x1119
	S_LMANDATA       SymbolRecordKind = 0x111c
	S_GMANDATA       SymbolRecordKind = 0x111d
	S_SEPCODE        SymbolRecordKind = 0x1132
	S_LPROC32_ID     SymbolRecordKind = 0x1146
	S_GPROC32_ID     SymbolRecordKind = 0x1147
	S_LPROCMIPS_ID   SymbolRecordKind = 0x1148
	S_GPROCMIPS_ID   SymbolRecordKind = 0x1149
	S_LPROCIA64_ID   SymbolRecordKind = 0x114a
	S_GPROCIA64_ID   SymbolRecordKind = 0x114b
	S_INLINESITE     SymbolRecordKind = 0x114d
	S_INLINESITE_END SymbolRecordKind = 0x114e
	S_PROC_ID_END    SymbolRecordKind = 0x114f
	S_INLINESITE2    SymbolRecordKind = 0x115d
)

// IsProc returns true if this symbol kind represents a procedure.
func (k SymbolRecordKind) IsProc() bool {
	switch k {
	case S_GPROC32, S_LPROC32, S_GPROC32_ID, S_LPROC32_ID,
		S_GPROC32_ST, S_LPROC32_ST,
		S_GPROCIA64, S_LPROCIA64, S_GPROCIA64_ID, S_LPROCIA64_ID,
		S_GPROCMIPS, S_LPROCMIPS, S_GPROCMIPS_ID, S_LPROCMIPS_ID:
		return true
	}
	return false
}

// IsData returns true for static data records. Thread-local storage is
// not included since it has no fixed address.
func (k SymbolRecordKind) IsData() bool {
	switch k {
	case S_GDATA32, S_LDATA32, S_GMANDATA, S_LMANDATA,
		S_GDATA32_ST, S_LDATA32_ST, S_GMANDATA_ST, S_LMANDATA_ST:
		return true
	}
	return false
}

// StartsScope reports whether a matching end record closes this record.
func (k SymbolRecordKind) StartsScope() bool {
	switch k {
	case S_BLOCK32, S_THUNK32, S_WITH32, S_SEPCODE, S_INLINESITE, S_INLINESITE2:
		return true
	}
	return k.IsProc()
}

// EndsScope reports whether the record closes the innermost scope.
func (k SymbolRecordKind) EndsScope() bool {
	return k == S_END || k == S_PROC_ID_END || k == S_INLINESITE_END
}

// pascalNames reports whether names in the record are length-prefixed.
func (k SymbolRecordKind) pascalNames() bool {
	return k >= 0x1000 && k < 0x1100
}

// SymbolRecord represents a generic symbol record.
type SymbolRecord struct {
	Kind SymbolRecordKind
	Data []byte

	// Offset of the record within its stream
	Offset int
}

// DataSym represents S_GDATA32, S_LDATA32 and their managed variants.
type DataSym struct {
	Type    tpi.TypeIndex
	Offset  uint32
	Segment uint16
	Name    string
}

// ProcSym represents S_GPROC32, S_LPROC32, and related procedure symbols.
type ProcSym struct {
	PtrParent    uint32
	PtrEnd       uint32
	PtrNext      uint32
	CodeSize     uint32
	DbgStart     uint32
	DbgEnd       uint32
	FunctionType tpi.TypeIndex
	CodeOffset   uint32
	Segment      uint16
	Flags        uint8
	Name         string
}

// BlockSym represents S_BLOCK32.
type BlockSym struct {
	PtrParent uint32
	PtrEnd    uint32
	CodeSize  uint32
	Offset    uint32
	Segment   uint16
	Name      string
}
