// Package dwarfinfo reads types and static variables from the DWARF
// sections of an ELF object.
package dwarfinfo

import (
	"debug/dwarf"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/skdltmxn/dbgtypes/debuginfo"
)

// Errors returned by File
var (
	ErrNoDWARF      = errors.New("dwarfinfo: object has no DWARF data")
	ErrNoUnits      = errors.New("dwarfinfo: no compilation units")
	ErrEntryMissing = errors.New("dwarfinfo: no entry at offset")
)

// Unit is one compilation or partial unit.
type Unit struct {
	Offset   dwarf.Offset
	Name     string
	AddrSize int
}

// File is an opened ELF object and its DWARF data.
type File struct {
	elf   *elf.File
	dw    *dwarf.Data
	units []Unit
	log   zerolog.Logger

	closeELF bool
}

// Open opens the ELF object at path.
func Open(path string, logger zerolog.Logger) (*File, error) {
	ef, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dwarfinfo: failed to open %s: %w", path, err)
	}
	f, err := NewFile(ef, logger)
	if err != nil {
		ef.Close()
		return nil, err
	}
	f.closeELF = true
	return f, nil
}

// NewFile reads the DWARF data of an already opened ELF object. The caller
// keeps ownership of ef.
func NewFile(ef *elf.File, logger zerolog.Logger) (*File, error) {
	dw, err := ef.DWARF()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDWARF, err)
	}
	f := &File{elf: ef, dw: dw, log: logger}
	if err := f.readUnits(); err != nil {
		return nil, err
	}
	f.log.Debug().Int("units", len(f.units)).Str("byte_order", ef.ByteOrder.String()).Msg("dwarf loaded")
	return f, nil
}

// Close releases the ELF file if it was opened by Open.
func (f *File) Close() error {
	if f.closeELF {
		return f.elf.Close()
	}
	return nil
}

func (f *File) readUnits() error {
	r := f.dw.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return fmt.Errorf("dwarfinfo: failed to read unit headers: %w", err)
		}
		if e == nil {
			break
		}
		if e.Tag == dwarf.TagCompileUnit || e.Tag == dwarf.TagPartialUnit {
			name, _ := e.Val(dwarf.AttrName).(string)
			f.units = append(f.units, Unit{Offset: e.Offset, Name: name, AddrSize: r.AddressSize()})
		}
		r.SkipChildren()
	}
	if len(f.units) == 0 {
		return ErrNoUnits
	}
	return nil
}

// Units returns the compilation units in file order.
func (f *File) Units() []Unit {
	return f.units
}

// UnitNames returns the name of every unit, indexed like VariableRecord.Unit.
func (f *File) UnitNames() []string {
	names := make([]string, len(f.units))
	for i, u := range f.units {
		names[i] = u.Name
	}
	return names
}

// unitOf returns the index of the unit containing off.
func (f *File) unitOf(off dwarf.Offset) int {
	i := sort.Search(len(f.units), func(i int) bool { return f.units[i].Offset > off })
	return max(i-1, 0)
}

// ByteOrder returns the target byte order.
func (f *File) ByteOrder() binary.ByteOrder {
	return f.elf.ByteOrder
}

// BigEndian reports whether the target is big-endian.
func (f *File) BigEndian() bool {
	return f.elf.ByteOrder == binary.BigEndian
}

// Sections returns every allocated section with a nonzero address and size.
func (f *File) Sections() map[string]debuginfo.Section {
	out := make(map[string]debuginfo.Section)
	for _, s := range f.elf.Sections {
		if s.Addr != 0 && s.Size != 0 {
			out[s.Name] = debuginfo.Section{Start: s.Addr, End: s.Addr + s.Size}
		}
	}
	return out
}

// entryAt reads the single entry at off, without children.
func (f *File) entryAt(off dwarf.Offset) (*dwarf.Entry, error) {
	r := f.dw.Reader()
	r.Seek(off)
	e, err := r.Next()
	if err != nil {
		return nil, err
	}
	if e == nil || e.Offset != off {
		return nil, fmt.Errorf("%w %#x", ErrEntryMissing, uint64(off))
	}
	return e, nil
}
