package pdb

import (
	"fmt"
	"io"
	"sync"

	"github.com/skdltmxn/dbgtypes/internal/dbi"
	"github.com/skdltmxn/dbgtypes/internal/tpi"
	"github.com/skdltmxn/dbgtypes/msf"
)

// File represents an opened PDB file.
// It is safe for concurrent read access after opening.
type File struct {
	msf    *msf.File
	closed bool
	mu     sync.RWMutex

	tpiStream     *tpi.Stream
	tpiStreamOnce sync.Once
	tpiStreamErr  error

	dbiStream     *dbi.Stream
	dbiStreamOnce sync.Once
	dbiStreamErr  error

	sectionHeaders     *SectionHeaders
	sectionHeadersOnce sync.Once
	sectionHeadersErr  error
}

// Open opens a PDB file from the given path.
func Open(path string) (*File, error) {
	msfFile, err := msf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to open file: %w", err)
	}

	return &File{msf: msfFile}, nil
}

// OpenReader opens a PDB from an io.ReaderAt.
func OpenReader(r io.ReaderAt, size int64) (*File, error) {
	msfFile, err := msf.NewFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to open file: %w", err)
	}

	return &File{msf: msfFile}, nil
}

// Close releases resources associated with the PDB file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true
	return f.msf.Close()
}

func (f *File) readStream(index uint32) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrFileClosed
	}
	return f.msf.ReadStream(index)
}

// Types returns the parsed TPI stream.
func (f *File) Types() (*tpi.Stream, error) {
	f.tpiStreamOnce.Do(func() {
		data, err := f.readStream(msf.StreamTPI)
		if err != nil {
			f.tpiStreamErr = fmt.Errorf("pdb: failed to read TPI stream: %w", err)
			return
		}

		f.tpiStream, err = tpi.ParseStream(data)
		if err != nil {
			f.tpiStreamErr = &ParseError{Stream: "TPI", Message: "invalid type stream", Err: err}
		}
	})

	if f.tpiStreamErr != nil {
		return nil, f.tpiStreamErr
	}
	return f.tpiStream, nil
}

func (f *File) getDBI() (*dbi.Stream, error) {
	f.dbiStreamOnce.Do(func() {
		data, err := f.readStream(msf.StreamDBI)
		if err != nil {
			f.dbiStreamErr = fmt.Errorf("pdb: failed to read DBI stream: %w", err)
			return
		}

		f.dbiStream, err = dbi.ParseStream(data)
		if err != nil {
			f.dbiStreamErr = &ParseError{Stream: "DBI", Message: "invalid debug info stream", Err: err}
		}
	})

	if f.dbiStreamErr != nil {
		return nil, f.dbiStreamErr
	}
	return f.dbiStream, nil
}

// AddressSize returns the pointer width of the target machine.
func (f *File) AddressSize() (uint64, error) {
	d, err := f.getDBI()
	if err != nil {
		return 0, err
	}
	return d.Header.AddressSize(), nil
}

// Modules returns all modules (compilands) in the PDB.
func (f *File) Modules() ([]*Module, error) {
	dbiStream, err := f.getDBI()
	if err != nil {
		return nil, err
	}

	modules := make([]*Module, len(dbiStream.Modules))
	for i := range dbiStream.Modules {
		modules[i] = &Module{
			pdb:   f,
			index: i,
			info:  &dbiStream.Modules[i],
		}
	}

	return modules, nil
}

// Module returns the module at index.
func (f *File) Module(index int) (*Module, error) {
	dbiStream, err := f.getDBI()
	if err != nil {
		return nil, err
	}
	info, err := dbiStream.GetModule(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrModuleNotFound, index)
	}
	return &Module{pdb: f, index: index, info: info}, nil
}
