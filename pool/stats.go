package pool

import (
	"fmt"

	"github.com/joshuapare/buflib/internal/format"
)

// Stats counts allocator activity since New.
type Stats struct {
	AllocCalls    uint64 // Alloc and AllocMaximum calls
	AllocFailures uint64 // Calls that returned ErrOutOfMemory
	FreeCalls     uint64
	ShrinkCalls   uint64 // Shrink and ShrinkFront calls

	Splits       uint64 // Free blocks split by an allocation
	Coalesces    uint64 // Merges of adjacent free runs
	TableGrowths uint64 // Handle-table extensions into the tail

	CompactPasses   uint64
	Moves           uint64 // Blocks relocated by compaction
	ShrinkCallbacks uint64 // Ops.Shrink invocations
	Releases        uint64 // Allocations released by Ops.Shrink returning 0
}

// Stats returns a snapshot of the counters.
func (c *Context) Stats() Stats {
	return c.stats
}

// Available returns the number of free bytes: all free blocks plus the tail,
// less HandleReserve cells for handle-table growth and one allocation
// header. The space may be fragmented; see Allocatable.
func (c *Context) Available() int {
	free := 0
	for idx := 0; idx < c.allocEnd; idx += c.blockLen(idx) {
		if c.isFree(idx) {
			free += c.blockLen(idx)
		}
	}
	free += max(c.tail()-c.opts.HandleReserve, 0)
	return format.Bytes(max(free-format.HeaderCells, 0))
}

// Allocatable runs a move-only compaction pass and returns the largest payload
// a single Alloc could then obtain without shrinking anybody. HandleReserve
// tail cells are kept back.
func (c *Context) Allocatable() (int, error) {
	if c.compacting {
		return 0, fmt.Errorf("allocatable: %w", ErrReentrant)
	}
	c.pass(0, true, passMove)
	c.checkInvariants("allocatable")
	return c.largestPayload(c.opts.HandleReserve), nil
}

// AllocMaximum compacts and shrinks until a pass makes no further progress,
// bounded by MaxCompactRounds, then allocates the largest contiguous payload
// left. It returns the handle and the payload size.
//
// Every shrinkable allocation is asked to shrink, movable ones included.
func (c *Context) AllocMaximum(ops *Ops) (Handle, int, error) {
	if c.compacting {
		return Invalid, 0, fmt.Errorf("alloc maximum: %w", ErrReentrant)
	}
	for range c.opts.MaxCompactRounds {
		if !c.pass(c.cells, true, passAggressive) {
			break
		}
	}
	size := c.largestPayload(0)
	if size <= 0 {
		c.stats.AllocCalls++
		c.stats.AllocFailures++
		c.checkInvariants("alloc maximum")
		return Invalid, 0, fmt.Errorf("alloc maximum: %w", ErrOutOfMemory)
	}
	h, err := c.Alloc(size, ops)
	if err != nil {
		return Invalid, 0, fmt.Errorf("alloc maximum %d bytes: %w", size, err)
	}
	got, _ := c.Size(h)
	c.log.Debug("alloc maximum", "handle", h, "size", got)
	return h, got, nil
}

// largestPayload returns the payload of the largest run an allocation could
// use right now, keeping reserve tail cells back.
func (c *Context) largestPayload(reserve int) int {
	best := 0
	for idx := 0; idx < c.allocEnd; idx += c.blockLen(idx) {
		if c.isFree(idx) {
			best = max(best, c.blockLen(idx))
		}
	}
	tail := c.tail() - reserve
	if c.firstFree == format.EndOfList {
		// A new handle takes one tail cell.
		if c.tail() < 1 {
			return 0
		}
		tail--
	}
	best = max(best, tail)
	return format.Bytes(max(best-format.HeaderCells, 0))
}

// Walk calls fn for every block from the lowest cell up, free blocks
// included, until fn returns false. fn must not mutate the Context.
func (c *Context) Walk(fn func(BlockInfo) bool) {
	for idx := 0; idx < c.allocEnd; {
		info, next := c.blockInfo(idx)
		if !fn(info) {
			return
		}
		idx = next
	}
}

// NumBlocks returns the number of allocated blocks.
func (c *Context) NumBlocks() int {
	n := 0
	for idx := 0; idx < c.allocEnd; idx += c.blockLen(idx) {
		if !c.isFree(idx) {
			n++
		}
	}
	return n
}

func (c *Context) blockInfo(idx int) (BlockInfo, int) {
	blk, next, err := format.NextBlock(c.buf, idx, c.allocEnd)
	if err != nil {
		c.corrupt("walk: %v", err)
	}
	if blk.Free {
		return BlockInfo{Cell: idx, Cells: blk.Cells, Free: true}, next
	}
	ops := c.ops.get(blk.Ops)
	return BlockInfo{
		Cell:       idx,
		Cells:      blk.Cells,
		Handle:     Handle(blk.Handle),
		Offset:     blk.PayloadOffset(),
		Size:       blk.PayloadSize(),
		Pins:       blk.Pins,
		Movable:    ops.movable(),
		Shrinkable: ops.shrinkable(),
	}, next
}
