package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/buflib/internal/format"
)

// layout builds a 32-cell buffer:
//
//	cell 0: handle 1, 6 cells
//	cell 6: free, 4 cells
//	cell 10: handle 3, 5 cells, pinned
//	tail: cells 15..28
//	table: handle 3, 2 (free, end of list), 1 at cells 29..31
func layout(t *testing.T) ([]byte, Geometry) {
	t.Helper()
	const cells = 32
	data := make([]byte, format.Bytes(cells))

	putBlock(data, 0, 6, 1, 0, 0)
	format.PutCell(data, 6, -4)
	putBlock(data, 10, 5, 3, 1, 1)

	format.PutCell(data, cells-1, 0)
	format.PutCell(data, cells-2, format.FreeSlot(format.EndOfList))
	format.PutCell(data, cells-3, 10)

	return data, Geometry{Cells: cells, AllocEnd: 15, LastHandle: cells - 3, FirstFree: 2}
}

func putBlock(data []byte, idx, n, h, ops, pins int) {
	format.PutCell(data, idx+format.FieldLen, int64(n))
	format.PutCell(data, idx+format.FieldHandle, int64(h))
	format.PutCell(data, idx+format.FieldOps, int64(ops))
	format.PutCell(data, idx+format.FieldPin, int64(pins))
}

func requireViolation(t *testing.T, err error, typ, contains string) {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)
	require.Equal(t, typ, verr.Type)
	require.Contains(t, verr.Message, contains)
}

func TestAllInvariants_Valid(t *testing.T) {
	data, g := layout(t)
	require.NoError(t, AllInvariants(data, g))
}

func TestAllInvariants_EmptyPool(t *testing.T) {
	data := make([]byte, format.Bytes(8))
	require.NoError(t, AllInvariants(data, Geometry{Cells: 8, AllocEnd: 0, LastHandle: 8}))
}

func TestBounds(t *testing.T) {
	data, g := layout(t)

	bad := g
	bad.AllocEnd = g.LastHandle + 1
	requireViolation(t, Bounds(data, bad), "Bounds", "out of order")

	bad = g
	bad.Cells = 64
	requireViolation(t, Bounds(data, bad), "Bounds", "buffer too small")
}

func TestBlocks_AdjacentFree(t *testing.T) {
	data, g := layout(t)
	// Split the free block in two.
	format.PutCell(data, 6, -2)
	format.PutCell(data, 8, -2)
	requireViolation(t, Blocks(data, g), "Blocks", "not coalesced")
}

func TestBlocks_FreeBeforeTail(t *testing.T) {
	data, g := layout(t)
	format.PutCell(data, 10, -5)
	requireViolation(t, Blocks(data, g), "Blocks", "adjacent to the tail")
}

func TestBlocks_ZeroLength(t *testing.T) {
	data, g := layout(t)
	format.PutCell(data, 6, 0)
	requireViolation(t, Blocks(data, g), "Blocks", "zero")
}

func TestBlocks_Overrun(t *testing.T) {
	data, g := layout(t)
	format.PutCell(data, 10, 6)
	requireViolation(t, Blocks(data, g), "Blocks", "truncated")
}

func TestBlocks_SlotMismatch(t *testing.T) {
	data, g := layout(t)
	format.PutCell(data, g.Cells-1, 10)
	requireViolation(t, Blocks(data, g), "Blocks", "slot points to cell 10")
}

func TestBlocks_HandleOutsideTable(t *testing.T) {
	data, g := layout(t)
	format.PutCell(data, 10+format.FieldHandle, 9)
	requireViolation(t, Blocks(data, g), "Blocks", "outside table")
}

func TestHandleTable_DanglingSlot(t *testing.T) {
	data, g := layout(t)
	// Handle 2 claims the free block.
	format.PutCell(data, g.Cells-2, 6)
	g.FirstFree = format.EndOfList
	requireViolation(t, HandleTable(data, g), "HandleTable", "not an allocated block")
}

func TestHandleTable_BoundaryFree(t *testing.T) {
	data, g := layout(t)
	// Grow the table by one free slot without linking a block to it.
	g.LastHandle--
	format.PutCell(data, g.LastHandle, format.FreeSlot(2))
	g.FirstFree = 4
	requireViolation(t, HandleTable(data, g), "HandleTable", "boundary slot is free")
}

func TestFreeList(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		data, g := layout(t)
		require.NoError(t, FreeList(data, g))
	})

	t.Run("unlinked slot", func(t *testing.T) {
		data, g := layout(t)
		g.FirstFree = format.EndOfList
		requireViolation(t, FreeList(data, g), "FreeList", "holds 0 slots")
	})

	t.Run("occupied slot", func(t *testing.T) {
		data, g := layout(t)
		g.FirstFree = 1
		requireViolation(t, FreeList(data, g), "FreeList", "occupied handle 1")
	})

	t.Run("cycle", func(t *testing.T) {
		data, g := layout(t)
		format.PutCell(data, g.Cells-2, format.FreeSlot(2))
		requireViolation(t, FreeList(data, g), "FreeList", "cycles")
	})

	t.Run("out of range", func(t *testing.T) {
		data, g := layout(t)
		format.PutCell(data, g.Cells-2, format.FreeSlot(7))
		requireViolation(t, FreeList(data, g), "FreeList", "outside table")
	})
}

func TestValidationError_Format(t *testing.T) {
	err := &ValidationError{Type: "Blocks", Message: "boom", Offset: 0x40}
	require.Equal(t, "Blocks at offset 0x40: boom", err.Error())

	err = &ValidationError{Type: "FreeList", Message: "boom", Offset: -1}
	require.Equal(t, "FreeList: boom", err.Error())
}
