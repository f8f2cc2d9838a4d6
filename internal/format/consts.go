// Package format houses the low-level cell layout of a buflib pool buffer.
// The pool and the verifier both decode the same raw bytes, so the layout is
// kept here, independent from the public API.
//
// The buffer is a run of cells. Blocks grow from cell 0 upward, the handle
// table grows from the last cell downward:
//
//	cell 0                        allocEnd      lastHandle          cells
//	| block | block | free | block |  .. tail .. | slot | slot | slot |
//
// Every block starts with a header:
//
//	Cell  Field
//	0     Signed length in cells, header included. Negative => free.
//	1     Owning handle (allocated blocks only).
//	2     Callback-set index, 0 = none.
//	3     Pin count.
//	4..   Payload.
//
// A free block only uses cell 0.
package format

const (
	// CellSize is the size of one cell in bytes.
	CellSize = 8

	// CellMask is the bitmask used for aligning to cell boundaries (CellSize - 1).
	CellMask = CellSize - 1

	// Block header field indexes, relative to the block's first cell.
	FieldLen    = 0
	FieldHandle = 1
	FieldOps    = 2
	FieldPin    = 3

	// HeaderCells is the number of cells in an allocated block's header.
	HeaderCells = 4

	// HeaderSize is the per-allocation overhead in bytes.
	HeaderSize = HeaderCells * CellSize

	// FreeHeaderCells is the number of cells a free block needs to describe itself.
	FreeHeaderCells = 1

	// NoOps marks a block without a callback set.
	NoOps = 0

	// EndOfList terminates the free-slot list.
	EndOfList = 0
)
