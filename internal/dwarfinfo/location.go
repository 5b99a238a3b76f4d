package dwarfinfo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-delve/delve/pkg/dwarf/leb128"
	"github.com/go-delve/delve/pkg/dwarf/op"
)

var errLocation = errors.New("dwarfinfo: unsupported member location expression")

// memberLocation evaluates DW_AT_data_member_location. ok is false when the
// attribute is absent.
func memberLocation(v any) (offset uint64, ok bool, err error) {
	switch loc := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return uint64(loc), true, nil
	case uint64:
		return loc, true, nil
	case []byte:
		if len(loc) == 0 {
			return 0, true, nil
		}
		buf := bytes.NewBuffer(loc)
		opcode, _ := buf.ReadByte()
		if !terminated(buf.Bytes()) {
			return 0, false, fmt.Errorf("%w: truncated operand", errLocation)
		}
		switch op.Opcode(opcode) {
		case op.DW_OP_plus_uconst:
			offset, _ = leb128.DecodeUnsigned(buf)
		case op.DW_OP_consts:
			n, _ := leb128.DecodeSigned(buf)
			offset = uint64(n)
			next, err := buf.ReadByte()
			if err != nil || op.Opcode(next) != op.DW_OP_plus {
				return 0, false, fmt.Errorf("%w: missing DW_OP_plus after DW_OP_consts", errLocation)
			}
		default:
			return 0, false, fmt.Errorf("%w: opcode %#x", errLocation, opcode)
		}
		if buf.Len() != 0 {
			return 0, false, fmt.Errorf("%w: %d trailing bytes", errLocation, buf.Len())
		}
		return offset, true, nil
	}
	return 0, false, fmt.Errorf("%w: %T", errLocation, v)
}

// terminated reports whether b starts with a complete LEB128 number.
// leb128 panics on truncated input.
func terminated(b []byte) bool {
	for _, c := range b {
		if c&0x80 == 0 {
			return true
		}
	}
	return false
}

// staticAddress returns the address of a location expression that starts
// with DW_OP_addr. Trailing operations are run on delve's stack machine.
func staticAddress(loc []byte, ptrSize int, order binary.ByteOrder) (uint64, bool) {
	if len(loc) < 1+ptrSize || op.Opcode(loc[0]) != op.DW_OP_addr {
		return 0, false
	}
	var addr uint64
	switch ptrSize {
	case 4:
		addr = uint64(order.Uint32(loc[1:]))
	case 8:
		addr = order.Uint64(loc[1:])
	default:
		return 0, false
	}
	if len(loc) == 1+ptrSize {
		return addr, true
	}

	// the stack machine reads operands little-endian
	prog := make([]byte, len(loc))
	copy(prog, loc)
	if ptrSize == 4 {
		binary.LittleEndian.PutUint32(prog[1:], uint32(addr))
	} else {
		binary.LittleEndian.PutUint64(prog[1:], addr)
	}
	v, pieces, err := op.ExecuteStackProgram(op.DwarfRegisters{}, prog, ptrSize, nil)
	if err != nil || len(pieces) != 0 {
		return 0, false
	}
	return uint64(v), true
}
