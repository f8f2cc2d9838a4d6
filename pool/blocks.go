package pool

import (
	"fmt"

	"github.com/joshuapare/buflib/internal/buf"
	"github.com/joshuapare/buflib/internal/format"
)

func (c *Context) cell(idx int) int64 {
	return format.ReadCell(c.buf, idx)
}

func (c *Context) setCell(idx int, v int64) {
	format.PutCell(c.buf, idx, v)
}

// blockLen returns the length in cells of the block at idx, free or not.
func (c *Context) blockLen(idx int) int {
	n := c.cell(idx + format.FieldLen)
	if n < 0 {
		n = -n
	}
	if n == 0 {
		c.corrupt("zero-length block at cell %d", idx)
	}
	return int(n)
}

func (c *Context) isFree(idx int) bool {
	return c.cell(idx+format.FieldLen) < 0
}

// setLen writes a block length; negative marks the block free.
func (c *Context) setLen(idx, n int) {
	c.setCell(idx+format.FieldLen, int64(n))
}

func (c *Context) payload(idx int) []byte {
	start := format.Bytes(idx + format.HeaderCells)
	p, ok := buf.Slice(c.buf, start, format.Bytes(c.blockLen(idx)-format.HeaderCells))
	if !ok {
		c.corrupt("block at cell %d runs past the buffer", idx)
	}
	return p
}

// tail returns the number of unused cells between the arena and the table.
func (c *Context) tail() int {
	return c.lastHandle - c.allocEnd
}

// findFree returns the first free run of at least need cells, scanning free
// blocks from the start of the arena and then the tail.
func (c *Context) findFree(need int) (int, bool) {
	for idx := 0; idx < c.allocEnd; {
		n := c.cell(idx + format.FieldLen)
		if n < 0 && int(-n) >= need {
			return idx, true
		}
		idx += c.blockLen(idx)
	}
	if c.tail() >= need {
		return c.allocEnd, true
	}
	return 0, false
}

// blockBefore returns the block that ends at idx, or -1 when idx is the
// first block.
func (c *Context) blockBefore(idx int) int {
	prev := -1
	for cur := 0; cur < idx; {
		prev = cur
		cur += c.blockLen(cur)
	}
	return prev
}

// freeBlock marks the allocated block at idx free and merges it with free
// neighbours. A free run reaching allocEnd is returned to the tail.
func (c *Context) freeBlock(idx int) {
	n := c.blockLen(idx)
	c.setCell(idx+format.FieldHandle, 0)
	c.setCell(idx+format.FieldOps, 0)
	c.setCell(idx+format.FieldPin, 0)

	start := idx
	if prev := c.blockBefore(idx); prev >= 0 && c.isFree(prev) {
		start = prev
		n += c.blockLen(prev)
		c.stats.Coalesces++
	}
	c.freeRange(start, n)
}

// freeRange turns n cells at start into free space. The cells before start
// must not be free; the block after them is merged if free.
func (c *Context) freeRange(start, n int) {
	c.compacted = false
	next := start + n
	if next == c.allocEnd {
		c.allocEnd = start
		return
	}
	if c.isFree(next) {
		n += c.blockLen(next)
		c.stats.Coalesces++
		if start+n == c.allocEnd {
			c.allocEnd = start
			return
		}
	}
	c.setLen(start, -n)
}

// truncate shortens the allocated block at idx to newLen cells and frees the
// trailing cells.
func (c *Context) truncate(idx, newLen int) {
	old := c.blockLen(idx)
	if newLen >= old {
		return
	}
	c.setLen(idx, newLen)
	c.freeRange(idx+newLen, old-newLen)
}

// Shrink truncates the allocation behind h to newSize bytes in place. The
// trailing cells become free space. newSize may not exceed the current size.
func (c *Context) Shrink(h Handle, newSize int) error {
	return c.ShrinkFront(h, 0, newSize)
}

// ShrinkFront drops skip leading bytes of the allocation behind h and keeps
// the following newSize bytes, in place. skip must be a multiple of the
// cell size. The payload now starts where the kept bytes already are; both
// the vacated front and the trailing cells become free space.
func (c *Context) ShrinkFront(h Handle, skip, newSize int) error {
	if c.compacting {
		return fmt.Errorf("shrink: %w", ErrReentrant)
	}
	idx, err := c.blockOf(h)
	if err != nil {
		return fmt.Errorf("shrink: %w", err)
	}
	size := format.Bytes(c.blockLen(idx) - format.HeaderCells)
	if skip < 0 || newSize < 0 || format.AlignCell(skip) != skip || skip > size || newSize > size-skip {
		return fmt.Errorf("shrink handle %d to [%d:+%d] of %d bytes: %w", h, skip, newSize, size, ErrInvalidSize)
	}
	c.stats.ShrinkCalls++

	oldLen := c.blockLen(idx)
	newLen := format.HeaderCells + format.Cells(newSize)
	c.truncate(idx, format.HeaderCells+format.Cells(skip)+format.Cells(newSize))

	if front := format.Cells(skip); front > 0 {
		newIdx := idx + front
		// Headers overlap when front < HeaderCells; read before writing.
		var hdr [format.HeaderCells]int64
		for f := range hdr {
			hdr[f] = c.cell(idx + f)
		}
		hdr[format.FieldLen] = int64(newLen)
		for f, v := range hdr {
			c.setCell(newIdx+f, v)
		}
		c.setSlot(h, newIdx)

		start, n := idx, front
		if prev := c.blockBefore(idx); prev >= 0 && c.isFree(prev) {
			start = prev
			n += c.blockLen(prev)
			c.stats.Coalesces++
		}
		c.setLen(start, -n)
		c.compacted = false
	}
	c.log.Debug("shrink", "handle", h, "skip", skip, "size", newSize, "cells_before", oldLen, "cells_after", newLen)
	c.checkInvariants("shrink")
	return nil
}
