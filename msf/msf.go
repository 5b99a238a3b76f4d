package msf

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/skdltmxn/dbgtypes/internal/stream"
)

// File is an opened MSF container. Streams are read on demand and the
// directory is loaded once.
type File struct {
	data       io.ReaderAt
	closer     io.Closer
	size       int64
	superBlock *SuperBlock

	dirOnce   sync.Once
	directory *Directory
	dirErr    error
}

// Open opens the MSF file at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("msf: failed to open file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("msf: failed to stat file: %w", err)
	}
	m, err := NewFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	m.closer = f
	return m, nil
}

// NewFile reads an MSF container from r. The caller keeps ownership of r.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	header := make([]byte, SuperBlockSize)
	if size < SuperBlockSize {
		return nil, ErrTruncatedFile
	}
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("msf: failed to read superblock: %w", err)
	}
	sb, err := ParseSuperBlock(header)
	if err != nil {
		return nil, err
	}
	if size < sb.FileSize() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrTruncatedFile, size, sb.FileSize())
	}
	return &File{data: r, size: size, superBlock: sb}, nil
}

// Close releases the underlying file when Open created it.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// SuperBlock returns the parsed superblock.
func (f *File) SuperBlock() *SuperBlock {
	return f.superBlock
}

// Directory returns the stream directory, loading it on first use.
func (f *File) Directory() (*Directory, error) {
	f.dirOnce.Do(func() {
		f.directory, f.dirErr = f.loadDirectory()
	})
	return f.directory, f.dirErr
}

// loadDirectory follows BlockMapAddr to the block list of the directory.
func (f *File) loadDirectory() (*Directory, error) {
	sb := f.superBlock
	dirBlocks := sb.blocksFor(sb.NumDirectoryBytes)
	mapBlocks := make([]uint32, sb.blocksFor(dirBlocks*4))
	for i := range mapBlocks {
		mapBlocks[i] = sb.BlockMapAddr + uint32(i)
	}
	raw, err := readBlocks(f.data, mapBlocks, sb.BlockSize, dirBlocks*4)
	if err != nil {
		return nil, fmt.Errorf("msf: failed to read block map: %w", err)
	}

	r := stream.NewReader(raw)
	blocks := make([]uint32, dirBlocks)
	for i := range blocks {
		blocks[i], _ = r.ReadU32()
		if blocks[i] >= sb.NumBlocks {
			return nil, fmt.Errorf("%w: directory block %d", ErrInvalidBlockIndex, blocks[i])
		}
	}

	data, err := readBlocks(f.data, blocks, sb.BlockSize, sb.NumDirectoryBytes)
	if err != nil {
		return nil, fmt.Errorf("msf: failed to read directory: %w", err)
	}
	return ParseDirectory(data, sb)
}

// StreamExists reports whether the stream is present and non-empty.
func (f *File) StreamExists(index uint32) (bool, error) {
	dir, err := f.Directory()
	if err != nil {
		return false, err
	}
	return dir.Exists(index), nil
}

// ReadStream reads a whole stream into memory.
func (f *File) ReadStream(index uint32) ([]byte, error) {
	dir, err := f.Directory()
	if err != nil {
		return nil, err
	}
	if index >= dir.NumStreams() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStreamIndex, index)
	}
	size := dir.Sizes[index]
	if size == NilStreamSize {
		return nil, fmt.Errorf("msf: stream %d is nil", index)
	}
	return readBlocks(f.data, dir.Blocks[index], f.superBlock.BlockSize, size)
}
