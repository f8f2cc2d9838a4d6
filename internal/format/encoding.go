package format

import "github.com/joshuapare/buflib/internal/buf"

// ReadCell reads cell idx of b.
func ReadCell(b []byte, idx int) int64 {
	return buf.I64LE(b[idx*CellSize : idx*CellSize+CellSize])
}

// PutCell writes v to cell idx of b.
func PutCell(b []byte, idx int, v int64) {
	buf.PutI64LE(b[idx*CellSize:idx*CellSize+CellSize], v)
}

// FreeSlot encodes a free handle-table slot linking to next (EndOfList terminates).
func FreeSlot(next int) int64 {
	return -int64(next) - 1
}

// SlotNext decodes the next handle from a free slot value.
func SlotNext(v int64) int {
	return int(-v - 1)
}

// SlotOccupied reports whether a slot value refers to a block.
func SlotOccupied(v int64) bool {
	return v >= 0
}
