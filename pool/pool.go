package pool

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/buflib/internal/buf"
	"github.com/joshuapare/buflib/internal/format"
	"github.com/joshuapare/buflib/verify"
)

// Context is one allocator instance over one buffer. Independent contexts
// over disjoint buffers do not share any state.
type Context struct {
	buf   []byte
	cells int

	allocEnd   int // first cell past the last block
	lastHandle int // lowest table cell in use; == cells when the table is empty
	firstFree  int // head of the free-slot list, format.EndOfList when empty

	compacting bool
	compacted  bool // last full pass was idle; nothing to gain until a free or unpin

	ops   opsRegistry
	opts  Options
	log   *slog.Logger
	stats Stats
}

// New creates a Context that owns exactly b. The buffer is truncated to a
// whole number of cells; its previous contents are ignored.
func New(b []byte, opts *Options) (*Context, error) {
	o := DefaultOptions
	if opts != nil {
		o = *opts
	}
	o = o.withDefaults()

	n := format.AlignCellDown(len(b))
	if n < MinBufferSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrBufferTooSmall, len(b), MinBufferSize)
	}
	cells := n / format.CellSize

	c := &Context{
		buf:        b[:n:n],
		cells:      cells,
		allocEnd:   0,
		lastHandle: cells,
		firstFree:  format.EndOfList,
		ops:        newOpsRegistry(),
		opts:       o,
		log:        o.Logger,
	}
	c.log.Debug("pool init", "bytes", n, "cells", cells)
	return c, nil
}

// Alloc allocates size bytes and returns the handle. ops may be nil for an
// allocation that must never move or shrink.
//
// If no free run is large enough, Alloc compacts the pool. It returns
// ErrOutOfMemory when that still does not produce enough contiguous space;
// it never retries on its own.
func (c *Context) Alloc(size int, ops *Ops) (Handle, error) {
	if c.compacting {
		return Invalid, fmt.Errorf("alloc: %w", ErrReentrant)
	}
	need, err := blockCells(size)
	if err != nil {
		return Invalid, fmt.Errorf("alloc %d bytes: %w", size, err)
	}
	c.stats.AllocCalls++

	h, ok := c.reserveHandle()
	if !ok {
		c.stats.AllocFailures++
		c.log.Debug("alloc failed: handle table full", "size", size)
		return Invalid, fmt.Errorf("alloc %d bytes: no handle slot: %w", size, ErrOutOfMemory)
	}

	idx, ok := c.findFree(need)
	if !ok && c.compactFor(need, false) {
		idx, ok = c.findFree(need)
	}
	if !ok {
		c.releaseHandle(h)
		c.stats.AllocFailures++
		c.log.Debug("alloc failed", "size", size, "cells", need, "available", c.Available())
		c.checkInvariants("alloc")
		return Invalid, fmt.Errorf("alloc %d bytes: %w", size, ErrOutOfMemory)
	}

	c.place(idx, need, h, c.ops.acquire(ops))
	c.checkInvariants("alloc")
	return h, nil
}

// Free releases the allocation behind h. Freeing a handle twice, or one the
// Context never issued, returns ErrInvalidHandle and changes nothing.
func (c *Context) Free(h Handle) error {
	if c.compacting {
		return fmt.Errorf("free: %w", ErrReentrant)
	}
	idx, err := c.blockOf(h)
	if err != nil {
		return fmt.Errorf("free: %w", err)
	}
	c.stats.FreeCalls++
	c.release(idx, h)
	c.checkInvariants("free")
	return nil
}

// Get resolves h to its payload. The slice is capped at the allocation and
// is invalidated by the next call that may compact, unless h is pinned.
func (c *Context) Get(h Handle) ([]byte, error) {
	idx, err := c.blockOf(h)
	if err != nil {
		return nil, err
	}
	return c.payload(idx), nil
}

// Size returns the payload size of h in bytes. It may exceed the size passed
// to Alloc because of cell rounding and absorbed split remainders.
func (c *Context) Size(h Handle) (int, error) {
	idx, err := c.blockOf(h)
	if err != nil {
		return 0, err
	}
	return format.Bytes(c.blockLen(idx) - format.HeaderCells), nil
}

// Bytes returns the whole backing buffer, header cells and handle table
// included. Meant for inspection and verification.
func (c *Context) Bytes() []byte {
	return c.buf
}

// Geometry returns the region boundaries needed to decode Bytes.
func (c *Context) Geometry() verify.Geometry {
	return verify.Geometry{
		Cells:      c.cells,
		AllocEnd:   c.allocEnd,
		LastHandle: c.lastHandle,
		FirstFree:  c.firstFree,
	}
}

// blockCells converts a payload size to a block length in cells.
func blockCells(size int) (int, error) {
	if size < 0 {
		return 0, ErrInvalidSize
	}
	n, ok := buf.AddOverflowSafe(size, format.HeaderSize+format.CellMask)
	if !ok {
		return 0, ErrInvalidSize
	}
	return n / format.CellSize, nil
}

// place turns the free run at idx (a free block or the tail) into an
// allocated block of need cells owned by h.
func (c *Context) place(idx, need int, h Handle, opsIdx int) {
	if idx == c.allocEnd {
		c.allocEnd += need
	} else {
		have := c.blockLen(idx)
		if rem := have - need; rem > 0 {
			if rem >= c.opts.SplitThreshold {
				c.setLen(idx+need, -rem)
				c.stats.Splits++
			} else {
				need = have
			}
		}
	}
	c.setCell(idx+format.FieldLen, int64(need))
	c.setCell(idx+format.FieldHandle, int64(h))
	c.setCell(idx+format.FieldOps, int64(opsIdx))
	c.setCell(idx+format.FieldPin, 0)
	c.setSlot(h, idx)
}

// release frees the allocated block at idx and its handle h.
func (c *Context) release(idx int, h Handle) {
	c.ops.release(int(c.cell(idx + format.FieldOps)))
	c.releaseHandle(h)
	c.freeBlock(idx)
}
