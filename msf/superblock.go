// Package msf reads the Multi-Stream File container that wraps PDB data.
package msf

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/dbgtypes/internal/stream"
)

// Magic is the PDB 7.0 (BigMsf) signature found at offset 0.
const Magic = "Microsoft C/C++ MSF 7.00\r\n\x1a\x44\x53\x00\x00\x00"

const (
	// SuperBlockSize is the encoded size of the superblock.
	SuperBlockSize = 56

	// NilStreamSize marks a deleted stream in the directory.
	NilStreamSize = 0xFFFFFFFF

	minBlockSize = 512
	maxBlockSize = 65536
)

// Well-known stream indices.
const (
	StreamPDBInfo = 1
	StreamTPI     = 2
	StreamDBI     = 3
	StreamIPI     = 4
)

var (
	ErrInvalidMagic       = errors.New("msf: invalid magic signature, not a valid PDB file")
	ErrInvalidBlockSize   = errors.New("msf: invalid block size")
	ErrInvalidFPMBlock    = errors.New("msf: invalid free block map block index")
	ErrTruncatedFile      = errors.New("msf: file is truncated")
	ErrTruncatedDirectory = errors.New("msf: truncated stream directory")
	ErrInvalidStreamIndex = errors.New("msf: invalid stream index")
	ErrInvalidBlockIndex  = errors.New("msf: invalid block index")
)

// SuperBlock describes the block layout and where the stream directory lives.
type SuperBlock struct {
	BlockSize         uint32
	FreeBlockMapBlock uint32
	NumBlocks         uint32
	NumDirectoryBytes uint32
	BlockMapAddr      uint32
}

// IsMSF reports whether header starts with the MSF signature.
func IsMSF(header []byte) bool {
	return len(header) >= len(Magic) && string(header[:len(Magic)]) == Magic
}

// ParseSuperBlock decodes and validates the first SuperBlockSize bytes.
func ParseSuperBlock(data []byte) (*SuperBlock, error) {
	if len(data) < SuperBlockSize {
		return nil, ErrTruncatedFile
	}
	if !IsMSF(data) {
		return nil, ErrInvalidMagic
	}

	r := stream.NewReader(data[32:SuperBlockSize])
	var sb SuperBlock
	var unknown uint32
	for _, dst := range []*uint32{
		&sb.BlockSize, &sb.FreeBlockMapBlock, &sb.NumBlocks,
		&sb.NumDirectoryBytes, &unknown, &sb.BlockMapAddr,
	} {
		v, err := r.ReadU32()
		if err != nil {
			return nil, ErrTruncatedFile
		}
		*dst = v
	}

	if sb.BlockSize < minBlockSize || sb.BlockSize > maxBlockSize || sb.BlockSize&(sb.BlockSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, sb.BlockSize)
	}
	if sb.FreeBlockMapBlock != 1 && sb.FreeBlockMapBlock != 2 {
		return nil, ErrInvalidFPMBlock
	}
	return &sb, nil
}

// blocksFor returns how many blocks hold n bytes.
func (sb *SuperBlock) blocksFor(n uint32) uint32 {
	return (n + sb.BlockSize - 1) / sb.BlockSize
}

// FileSize is the size implied by NumBlocks.
func (sb *SuperBlock) FileSize() int64 {
	return int64(sb.NumBlocks) * int64(sb.BlockSize)
}

// Directory lists every stream's size and block list.
type Directory struct {
	Sizes  []uint32
	Blocks [][]uint32
}

// ParseDirectory decodes concatenated directory bytes.
func ParseDirectory(data []byte, sb *SuperBlock) (*Directory, error) {
	r := stream.NewReader(data)
	count, err := r.ReadU32()
	if err != nil {
		return nil, ErrTruncatedDirectory
	}
	if uint64(count)*4 > uint64(r.Remaining()) {
		return nil, ErrTruncatedDirectory
	}

	dir := &Directory{
		Sizes:  make([]uint32, count),
		Blocks: make([][]uint32, count),
	}
	for i := range dir.Sizes {
		dir.Sizes[i], _ = r.ReadU32()
	}
	for i, size := range dir.Sizes {
		if size == NilStreamSize || size == 0 {
			continue
		}
		blocks := make([]uint32, sb.blocksFor(size))
		for j := range blocks {
			if blocks[j], err = r.ReadU32(); err != nil {
				return nil, ErrTruncatedDirectory
			}
			if blocks[j] >= sb.NumBlocks {
				return nil, fmt.Errorf("%w: stream %d references block %d", ErrInvalidBlockIndex, i, blocks[j])
			}
		}
		dir.Blocks[i] = blocks
	}
	return dir, nil
}

// NumStreams returns the directory's stream count.
func (d *Directory) NumStreams() uint32 {
	return uint32(len(d.Sizes))
}

// Exists reports whether index names a present, non-empty stream.
func (d *Directory) Exists(index uint32) bool {
	return index < d.NumStreams() && d.Sizes[index] != NilStreamSize && d.Sizes[index] > 0
}
