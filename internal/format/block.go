package format

import (
	"fmt"

	"github.com/joshuapare/buflib/internal/buf"
)

// Block is a decoded block header.
type Block struct {
	Index  int  // First cell of the block
	Cells  int  // Total length in cells, header included
	Free   bool // True when the length cell is negative
	Handle int  // Owning handle; zero for free blocks
	Ops    int  // Callback-set index; zero for free blocks or no callbacks
	Pins   int  // Pin count; zero for free blocks
}

// PayloadOffset returns the byte offset of the block's payload.
func (b Block) PayloadOffset() int {
	return Bytes(b.Index + HeaderCells)
}

// PayloadSize returns the payload size in bytes. Zero for free blocks.
func (b Block) PayloadSize() int {
	if b.Free {
		return 0
	}
	return Bytes(b.Cells - HeaderCells)
}

// NextBlock decodes the block starting at cell idx and returns it together with
// the index of the following block. end is the first cell past the block region;
// a block may not extend beyond it.
func NextBlock(b []byte, idx, end int) (Block, int, error) {
	if idx < 0 || idx >= end {
		return Block{}, 0, fmt.Errorf("block at cell %d: %w", idx, ErrTruncated)
	}
	if _, err := buf.CheckRange(len(b), 0, end, CellSize); err != nil {
		return Block{}, 0, fmt.Errorf("block region of %d cells: %w: %v", end, ErrTruncated, err)
	}
	raw := ReadCell(b, idx)
	if raw == 0 {
		return Block{}, 0, fmt.Errorf("block at cell %d: %w", idx, ErrZeroLength)
	}
	blk := Block{Index: idx, Free: raw < 0}
	n := raw
	if blk.Free {
		n = -n
	}
	if n > int64(end-idx) {
		return Block{}, 0, fmt.Errorf("block at cell %d, length %d: %w", idx, n, ErrTruncated)
	}
	blk.Cells = int(n)
	if !blk.Free {
		if blk.Cells < HeaderCells {
			return Block{}, 0, fmt.Errorf("block at cell %d, length %d: %w", idx, n, ErrShortBlock)
		}
		blk.Handle = int(ReadCell(b, idx+FieldHandle))
		blk.Ops = int(ReadCell(b, idx+FieldOps))
		blk.Pins = int(ReadCell(b, idx+FieldPin))
	}
	return blk, idx + blk.Cells, nil
}
