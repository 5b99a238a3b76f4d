package pdb

import (
	"fmt"

	"github.com/skdltmxn/dbgtypes/internal/dbi"
	"github.com/skdltmxn/dbgtypes/internal/stream"
)

// SectionHeader is the part of a PE IMAGE_SECTION_HEADER that locates
// the section in memory.
type SectionHeader struct {
	Name           string
	VirtualSize    uint32
	VirtualAddress uint32 // RVA of the section
}

// SectionHeaders provides access to PE section headers stored in PDB.
type SectionHeaders struct {
	sections []SectionHeader
}

// Count returns the number of sections.
func (sh *SectionHeaders) Count() int {
	return len(sh.sections)
}

// All returns all section headers.
func (sh *SectionHeaders) All() []SectionHeader {
	return sh.sections
}

// ToRVA converts a section:offset pair to an RVA.
// Section numbers are 1-based (as used in PDB symbols).
func (sh *SectionHeaders) ToRVA(section uint16, offset uint32) (uint32, bool) {
	if section == 0 || int(section) > len(sh.sections) {
		return 0, false
	}
	return sh.sections[section-1].VirtualAddress + offset, true
}

// Section header size in bytes
const sectionHeaderSize = 40

func parseSectionHeaders(data []byte) (*SectionHeaders, error) {
	r := stream.NewReader(data)
	sections := make([]SectionHeader, 0, len(data)/sectionHeaderSize)

	for r.Remaining() >= sectionHeaderSize {
		rec, err := r.SubReader(sectionHeaderSize)
		if err != nil {
			return nil, err
		}
		var sec SectionHeader
		if sec.Name, err = rec.ReadFixedString(8); err != nil {
			return nil, err
		}
		if sec.VirtualSize, err = rec.ReadU32(); err != nil {
			return nil, err
		}
		if sec.VirtualAddress, err = rec.ReadU32(); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}

	return &SectionHeaders{sections: sections}, nil
}

// Sections returns the PE section headers.
func (f *File) Sections() (*SectionHeaders, error) {
	f.sectionHeadersOnce.Do(func() {
		f.sectionHeaders, f.sectionHeadersErr = f.loadSectionHeaders()
	})

	if f.sectionHeadersErr != nil {
		return nil, f.sectionHeadersErr
	}
	return f.sectionHeaders, nil
}

func (f *File) loadSectionHeaders() (*SectionHeaders, error) {
	dbiStream, err := f.getDBI()
	if err != nil {
		return nil, err
	}

	streamIndex := dbiStream.SectionHdrStreamIndex
	if streamIndex == dbi.InvalidStreamIndex {
		return nil, ErrNoSectionHeaders
	}

	data, err := f.readStream(uint32(streamIndex))
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to read section header stream: %w", err)
	}

	return parseSectionHeaders(data)
}
