// Package dbi parses the parts of the DBI stream needed to locate symbols:
// the module list and the optional debug stream indices.
package dbi

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/dbgtypes/internal/stream"
)

// DBIHeaderSize is the encoded size of Header.
const DBIHeaderSize = 64

// Machine types
const (
	MachineUnknown uint16 = 0x0000
	MachineI386    uint16 = 0x014c
	MachineARM     uint16 = 0x01c0
	MachineARMNT   uint16 = 0x01c4
	MachineIA64    uint16 = 0x0200
	MachineAMD64   uint16 = 0x8664
	MachineARM64   uint16 = 0xaa64
)

// InvalidStreamIndex marks an absent stream.
const InvalidStreamIndex uint16 = 0xFFFF

// Errors
var (
	ErrInvalidDBIHeader = errors.New("dbi: invalid DBI header")
	ErrTruncatedStream  = errors.New("dbi: truncated stream")
)

// Header is the fixed prefix of the DBI stream.
type Header struct {
	VersionSignature int32
	VersionHeader    uint32
	Age              uint32

	GlobalStreamIndex    uint16
	BuildNumber          uint16
	PublicStreamIndex    uint16
	PDBDllVersion        uint16
	SymRecordStreamIndex uint16
	PDBDllRbld           uint16

	ModInfoSize             uint32
	SectionContributionSize uint32
	SectionMapSize          uint32
	SourceInfoSize          uint32
	TypeServerMapSize       uint32
	MFCTypeServerIndex      uint32
	OptionalDbgHeaderSize   uint32
	ECSubstreamSize         uint32

	Flags   uint16
	Machine uint16
}

// AddressSize returns the pointer width implied by Machine.
func (h *Header) AddressSize() uint64 {
	switch h.Machine {
	case MachineAMD64, MachineARM64, MachineIA64:
		return 8
	}
	return 4
}

// Stream is a parsed DBI stream.
type Stream struct {
	Header  Header
	Modules []ModuleInfo

	// SectionHdrStreamIndex is the stream holding the PE section headers,
	// or InvalidStreamIndex.
	SectionHdrStreamIndex uint16
}

// ModuleInfo describes one compilation unit.
type ModuleInfo struct {
	Flags                uint16
	ModuleSymStreamIndex uint16
	SymByteSize          uint32
	C11ByteSize          uint32
	C13ByteSize          uint32
	SourceFileCount      uint16
	ModuleName           string
	ObjFileName          string
}

// HasSymbols reports whether the module has a symbol stream.
func (m *ModuleInfo) HasSymbols() bool {
	return m.ModuleSymStreamIndex != InvalidStreamIndex && m.SymByteSize > 0
}

// optional debug header slot of the section header stream
const sectionHdrSlot = 5

// moduleFixedSize is the size of a module record before its names.
const moduleFixedSize = 64

// ParseStream parses a DBI stream.
func ParseStream(data []byte) (*Stream, error) {
	if len(data) < DBIHeaderSize {
		return nil, ErrInvalidDBIHeader
	}
	s := &Stream{SectionHdrStreamIndex: InvalidStreamIndex}
	if err := s.parseHeader(stream.NewReader(data)); err != nil {
		return nil, err
	}

	h := &s.Header
	substreams := []struct {
		size  uint32
		parse func([]byte) error
		what  string
	}{
		{h.ModInfoSize, s.parseModuleInfo, "module info"},
		{h.SectionContributionSize, nil, "section contributions"},
		{h.SectionMapSize, nil, "section map"},
		{h.SourceInfoSize, nil, "source info"},
		{h.TypeServerMapSize, nil, "type server map"},
		{h.ECSubstreamSize, nil, "EC substream"},
		{h.OptionalDbgHeaderSize, s.parseOptionalDbgHeader, "optional debug header"},
	}
	offset := DBIHeaderSize
	for _, sub := range substreams {
		end := offset + int(sub.size)
		if end > len(data) {
			return nil, fmt.Errorf("%w: %s", ErrTruncatedStream, sub.what)
		}
		if sub.parse != nil && sub.size > 0 {
			if err := sub.parse(data[offset:end]); err != nil {
				return nil, fmt.Errorf("dbi: failed to parse %s: %w", sub.what, err)
			}
		}
		offset = end
	}
	return s, nil
}

func (s *Stream) parseHeader(r *stream.Reader) error {
	h := &s.Header
	sig, err := r.ReadI32()
	if err != nil {
		return err
	}
	if sig != -1 {
		return ErrInvalidDBIHeader
	}
	h.VersionSignature = sig

	for _, dst := range []*uint32{&h.VersionHeader, &h.Age} {
		if *dst, err = r.ReadU32(); err != nil {
			return err
		}
	}
	for _, dst := range []*uint16{
		&h.GlobalStreamIndex, &h.BuildNumber, &h.PublicStreamIndex,
		&h.PDBDllVersion, &h.SymRecordStreamIndex, &h.PDBDllRbld,
	} {
		if *dst, err = r.ReadU16(); err != nil {
			return err
		}
	}
	for _, dst := range []*uint32{
		&h.ModInfoSize, &h.SectionContributionSize, &h.SectionMapSize,
		&h.SourceInfoSize, &h.TypeServerMapSize, &h.MFCTypeServerIndex,
		&h.OptionalDbgHeaderSize, &h.ECSubstreamSize,
	} {
		if *dst, err = r.ReadU32(); err != nil {
			return err
		}
	}
	for _, dst := range []*uint16{&h.Flags, &h.Machine} {
		if *dst, err = r.ReadU16(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stream) parseModuleInfo(data []byte) error {
	r := stream.NewReader(data)
	for r.Remaining() >= moduleFixedSize {
		fixed, err := r.SubReader(moduleFixedSize)
		if err != nil {
			return err
		}
		// opened flag and the embedded section contribution
		if err := fixed.Skip(4 + 28); err != nil {
			return err
		}

		var mod ModuleInfo
		if mod.Flags, err = fixed.ReadU16(); err != nil {
			return err
		}
		if mod.ModuleSymStreamIndex, err = fixed.ReadU16(); err != nil {
			return err
		}
		for _, dst := range []*uint32{&mod.SymByteSize, &mod.C11ByteSize, &mod.C13ByteSize} {
			if *dst, err = fixed.ReadU32(); err != nil {
				return err
			}
		}
		if mod.SourceFileCount, err = fixed.ReadU16(); err != nil {
			return err
		}

		if mod.ModuleName, err = r.ReadCString(); err != nil {
			return err
		}
		if mod.ObjFileName, err = r.ReadCString(); err != nil {
			return err
		}
		r.Align(4)
		s.Modules = append(s.Modules, mod)
	}
	return nil
}

func (s *Stream) parseOptionalDbgHeader(data []byte) error {
	r := stream.NewReader(data)
	if r.Remaining() < 2*(sectionHdrSlot+1) {
		return nil
	}
	if err := r.Skip(2 * sectionHdrSlot); err != nil {
		return err
	}
	idx, err := r.ReadU16()
	if err != nil {
		return err
	}
	s.SectionHdrStreamIndex = idx
	return nil
}

// ModuleCount returns the number of modules.
func (s *Stream) ModuleCount() int {
	return len(s.Modules)
}

// GetModule returns module info by index.
func (s *Stream) GetModule(index int) (*ModuleInfo, error) {
	if index < 0 || index >= len(s.Modules) {
		return nil, fmt.Errorf("dbi: module index out of range: %d", index)
	}
	return &s.Modules[index], nil
}
