package testutil

import (
	"bytes"
	"encoding/binary"
)

const msfMagic = "Microsoft C/C++ MSF 7.00\r\n\x1a\x44\x53\x00\x00\x00"

// BuildMSF lays streams out in a minimal MSF 7.00 image with 512-byte blocks.
// A nil entry becomes a nil stream.
func BuildMSF(streams [][]byte) []byte {
	const blockSize = 512
	blocks := [][]byte{nil, nil, nil} // superblock, two free block maps

	alloc := func(data []byte) []uint32 {
		var ids []uint32
		for off := 0; off < len(data); off += blockSize {
			end := min(off+blockSize, len(data))
			ids = append(ids, uint32(len(blocks)))
			blocks = append(blocks, data[off:end])
		}
		return ids
	}

	var dir bytes.Buffer
	le := func(v uint32) { _ = binary.Write(&dir, binary.LittleEndian, v) }
	le(uint32(len(streams)))
	for _, s := range streams {
		if s == nil {
			le(0xFFFFFFFF)
		} else {
			le(uint32(len(s)))
		}
	}
	for _, s := range streams {
		for _, id := range alloc(s) {
			le(id)
		}
	}

	dirBlocks := alloc(dir.Bytes())
	var blockMap bytes.Buffer
	for _, id := range dirBlocks {
		_ = binary.Write(&blockMap, binary.LittleEndian, id)
	}
	mapAddr := uint32(len(blocks))
	alloc(blockMap.Bytes())

	var sb bytes.Buffer
	sb.WriteString(msfMagic)
	for _, v := range []uint32{blockSize, 1, uint32(len(blocks)), uint32(dir.Len()), 0, mapAddr} {
		_ = binary.Write(&sb, binary.LittleEndian, v)
	}
	blocks[0] = sb.Bytes()

	out := make([]byte, len(blocks)*blockSize)
	for i, b := range blocks {
		copy(out[i*blockSize:], b)
	}
	return out
}
