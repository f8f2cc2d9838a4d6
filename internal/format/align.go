package format

// Cells returns the number of cells needed to hold n bytes.
//
// Example:
//
//	Cells(0)  = 0
//	Cells(1)  = 1
//	Cells(8)  = 1
//	Cells(9)  = 2
func Cells(n int) int {
	return (n + CellMask) / CellSize
}

// AlignCell returns n aligned up to the next cell boundary.
func AlignCell(n int) int {
	return (n + CellMask) &^ CellMask
}

// AlignCellDown returns n aligned down to a cell boundary.
// Used to truncate caller-supplied buffers to whole cells.
func AlignCellDown(n int) int {
	return n &^ CellMask
}

// Bytes returns the byte length of n cells.
func Bytes(cells int) int {
	return cells * CellSize
}
