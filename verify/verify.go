package verify

import (
	"fmt"

	"github.com/joshuapare/buflib/internal/buf"
	"github.com/joshuapare/buflib/internal/format"
)

// Geometry holds the region boundaries that are not stored in the buffer
// itself. All values are cell indexes.
type Geometry struct {
	Cells      int // Total cells in the buffer
	AllocEnd   int // First cell past the last block
	LastHandle int // Lowest cell of the handle table
	FirstFree  int // First free handle slot, 0 when the free list is empty
}

// TableSize returns the number of handle slots.
func (g Geometry) TableSize() int {
	return g.Cells - g.LastHandle
}

// ValidationError describes one invariant violation.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates all pool invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte, g Geometry) error {
	if err := Bounds(data, g); err != nil {
		return err
	}
	if err := Blocks(data, g); err != nil {
		return err
	}
	if err := HandleTable(data, g); err != nil {
		return err
	}
	return FreeList(data, g)
}

// Bounds checks that the regions are ordered and fit the buffer:
// 0 <= AllocEnd <= LastHandle <= Cells.
func Bounds(data []byte, g Geometry) error {
	if g.Cells < 0 || !buf.Has(data, 0, format.Bytes(g.Cells)) {
		return &ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("buffer too small: %d bytes for %d cells", len(data), g.Cells),
			Offset:  -1,
		}
	}
	if g.AllocEnd < 0 || g.AllocEnd > g.LastHandle || g.LastHandle > g.Cells {
		return &ValidationError{
			Type:    "Bounds",
			Message: fmt.Sprintf("regions out of order: alloc_end=%d last_handle=%d cells=%d", g.AllocEnd, g.LastHandle, g.Cells),
			Offset:  -1,
			Details: map[string]interface{}{
				"alloc_end":   g.AllocEnd,
				"last_handle": g.LastHandle,
				"cells":       g.Cells,
			},
		}
	}
	return nil
}

// Blocks walks the block region and checks that blocks tile [0, AllocEnd)
// exactly, that no two free blocks are adjacent, that the last block is not
// free, and that every allocated block is referenced by its own handle slot.
// Together with Bounds, exact tiling accounts for every cell of the buffer:
// blocks, tail and table add up to Cells.
func Blocks(data []byte, g Geometry) error {
	prevFree := false
	for idx := 0; idx < g.AllocEnd; {
		blk, next, err := format.NextBlock(data, idx, g.AllocEnd)
		if err != nil {
			return &ValidationError{Type: "Blocks", Message: err.Error(), Offset: format.Bytes(idx)}
		}
		if blk.Free {
			if next == g.AllocEnd {
				return &ValidationError{
					Type:    "Blocks",
					Message: "free block adjacent to the tail",
					Offset:  format.Bytes(idx),
				}
			}
			if prevFree {
				return &ValidationError{
					Type:    "Blocks",
					Message: "adjacent free blocks not coalesced",
					Offset:  format.Bytes(idx),
				}
			}
		} else if err := checkAllocated(data, g, blk); err != nil {
			return err
		}
		prevFree = blk.Free
		idx = next
	}
	return nil
}

func checkAllocated(data []byte, g Geometry, blk format.Block) error {
	off := format.Bytes(blk.Index)
	if blk.Handle <= 0 || blk.Handle > g.TableSize() {
		return &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("handle %d outside table of %d slots", blk.Handle, g.TableSize()),
			Offset:  off,
		}
	}
	if blk.Pins < 0 || blk.Ops < 0 {
		return &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("negative header field: pins=%d ops=%d", blk.Pins, blk.Ops),
			Offset:  off,
		}
	}
	if slot := format.ReadCell(data, g.Cells-blk.Handle); slot != int64(blk.Index) {
		return &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("handle %d slot points to cell %d, block is at cell %d", blk.Handle, slot, blk.Index),
			Offset:  off,
			Details: map[string]interface{}{"handle": blk.Handle, "slot": slot},
		}
	}
	return nil
}

// HandleTable checks that every occupied slot points to the start of an
// allocated block owned by that handle, and that the boundary slot is
// occupied whenever the table is not empty.
func HandleTable(data []byte, g Geometry) error {
	starts := make(map[int]int)
	for idx := 0; idx < g.AllocEnd; {
		blk, next, err := format.NextBlock(data, idx, g.AllocEnd)
		if err != nil {
			return &ValidationError{Type: "HandleTable", Message: err.Error(), Offset: format.Bytes(idx)}
		}
		if !blk.Free {
			starts[blk.Index] = blk.Handle
		}
		idx = next
	}

	live := 0
	for h := 1; h <= g.TableSize(); h++ {
		cell := g.Cells - h
		v := format.ReadCell(data, cell)
		if !format.SlotOccupied(v) {
			continue
		}
		live++
		owner, ok := starts[int(v)]
		if !ok {
			return &ValidationError{
				Type:    "HandleTable",
				Message: fmt.Sprintf("handle %d points to cell %d, which is not an allocated block", h, v),
				Offset:  format.Bytes(cell),
			}
		}
		if owner != h {
			return &ValidationError{
				Type:    "HandleTable",
				Message: fmt.Sprintf("handle %d points to block owned by handle %d", h, owner),
				Offset:  format.Bytes(cell),
			}
		}
	}
	if live != len(starts) {
		return &ValidationError{
			Type:    "HandleTable",
			Message: fmt.Sprintf("%d live handles for %d allocated blocks", live, len(starts)),
			Offset:  -1,
		}
	}
	if g.TableSize() > 0 && !format.SlotOccupied(format.ReadCell(data, g.LastHandle)) {
		return &ValidationError{
			Type:    "HandleTable",
			Message: "boundary slot is free",
			Offset:  format.Bytes(g.LastHandle),
		}
	}
	return nil
}

// FreeList follows the free-slot list from FirstFree and checks that it
// visits every free slot exactly once and nothing else.
func FreeList(data []byte, g Geometry) error {
	free := 0
	for h := 1; h <= g.TableSize(); h++ {
		if !format.SlotOccupied(format.ReadCell(data, g.Cells-h)) {
			free++
		}
	}

	seen := make(map[int]bool, free)
	for h := g.FirstFree; h != format.EndOfList; {
		if h < 0 || h > g.TableSize() {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("free list reaches handle %d outside table of %d slots", h, g.TableSize()),
				Offset:  -1,
			}
		}
		if seen[h] {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("free list cycles at handle %d", h),
				Offset:  format.Bytes(g.Cells - h),
			}
		}
		seen[h] = true
		v := format.ReadCell(data, g.Cells-h)
		if format.SlotOccupied(v) {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("free list contains occupied handle %d", h),
				Offset:  format.Bytes(g.Cells - h),
			}
		}
		h = format.SlotNext(v)
	}
	if len(seen) != free {
		return &ValidationError{
			Type:    "FreeList",
			Message: fmt.Sprintf("free list holds %d slots, table has %d free", len(seen), free),
			Offset:  -1,
		}
	}
	return nil
}
