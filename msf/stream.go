package msf

import (
	"fmt"
	"io"
)

// readBlocks assembles size bytes scattered over blocks of a ReaderAt.
func readBlocks(src io.ReaderAt, blocks []uint32, blockSize, size uint32) ([]byte, error) {
	out := make([]byte, size)
	var done uint32
	for _, block := range blocks {
		if done >= size {
			break
		}
		n := min(blockSize, size-done)
		off := int64(block) * int64(blockSize)
		if _, err := src.ReadAt(out[done:done+n], off); err != nil && err != io.EOF {
			return nil, fmt.Errorf("msf: failed to read block %d: %w", block, err)
		}
		done += n
	}
	if done < size {
		return nil, fmt.Errorf("%w: stream needs %d bytes, blocks cover %d", ErrTruncatedFile, size, done)
	}
	return out, nil
}
