package pool

import (
	"math"

	"github.com/joshuapare/buflib/internal/format"
)

// reservedSlot marks a slot handed out by reserveHandle whose block is not
// placed yet. It reads as occupied so a table retreat never walks past it.
const reservedSlot int64 = math.MaxInt64

// slotCell returns the table cell of handle h.
func (c *Context) slotCell(h Handle) int {
	return c.cells - int(h)
}

func (c *Context) slot(h Handle) int64 {
	return c.cell(c.slotCell(h))
}

func (c *Context) setSlot(h Handle, idx int) {
	c.setCell(c.slotCell(h), int64(idx))
}

// maxHandle is the largest handle the table currently covers.
func (c *Context) maxHandle() Handle {
	return Handle(c.cells - c.lastHandle)
}

// blockOf validates h and returns the first cell of its block.
func (c *Context) blockOf(h Handle) (int, error) {
	if h <= Invalid || h > c.maxHandle() {
		return 0, ErrInvalidHandle
	}
	v := c.slot(h)
	if !format.SlotOccupied(v) || v == reservedSlot {
		return 0, ErrInvalidHandle
	}
	return int(v), nil
}

// reserveHandle takes a slot from the free list, or grows the table into the
// tail. When the tail is empty it compacts to make room for one cell.
func (c *Context) reserveHandle() (Handle, bool) {
	h, ok := c.takeHandle()
	if !ok && c.compactFor(1, true) {
		h, ok = c.takeHandle()
	}
	if !ok {
		return Invalid, false
	}
	c.setCell(c.slotCell(h), reservedSlot)
	return h, true
}

func (c *Context) takeHandle() (Handle, bool) {
	if c.firstFree != format.EndOfList {
		h := Handle(c.firstFree)
		c.firstFree = format.SlotNext(c.slot(h))
		return h, true
	}
	if c.lastHandle-1 < c.allocEnd {
		return Invalid, false
	}
	c.lastHandle--
	c.stats.TableGrowths++
	return c.maxHandle(), true
}

// releaseHandle returns h to the table. The boundary slot retreats, together
// with any free slots it exposes; other slots go onto the free list.
func (c *Context) releaseHandle(h Handle) {
	idx := c.slotCell(h)
	if idx != c.lastHandle {
		c.setCell(idx, format.FreeSlot(c.firstFree))
		c.firstFree = int(h)
		return
	}
	c.lastHandle++
	for c.lastHandle < c.cells {
		v := c.cell(c.lastHandle)
		if format.SlotOccupied(v) {
			break
		}
		c.unlinkFree(c.maxHandle())
		c.lastHandle++
	}
}

// unlinkFree removes h from the free-slot list.
func (c *Context) unlinkFree(h Handle) {
	next := format.SlotNext(c.slot(h))
	if c.firstFree == int(h) {
		c.firstFree = next
		return
	}
	for cur := c.firstFree; cur != format.EndOfList; {
		v := c.slot(Handle(cur))
		n := format.SlotNext(v)
		if n == int(h) {
			c.setCell(c.slotCell(Handle(cur)), format.FreeSlot(next))
			return
		}
		cur = n
	}
	c.corrupt("free slot %d missing from free list", h)
}

// HandleCount returns the number of live handles.
func (c *Context) HandleCount() int {
	n := 0
	for idx := c.lastHandle; idx < c.cells; idx++ {
		if format.SlotOccupied(c.cell(idx)) {
			n++
		}
	}
	return n
}

// TableCells returns the number of cells the handle table occupies, free
// slots included.
func (c *Context) TableCells() int {
	return c.cells - c.lastHandle
}
