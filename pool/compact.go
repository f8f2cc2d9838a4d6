package pool

import (
	"fmt"

	"github.com/joshuapare/buflib/internal/format"
)

// passMode selects what a compaction pass may do to an allocation.
type passMode int

const (
	// passMove only relocates movable blocks.
	passMove passMode = iota
	// passShrink also asks blocks that cannot move to shrink.
	passShrink
	// passAggressive asks every shrinkable block to shrink, movable or not.
	passAggressive
)

func (m passMode) String() string {
	switch m {
	case passMove:
		return "move"
	case passShrink:
		return "shrink"
	case passAggressive:
		return "aggressive"
	default:
		return fmt.Sprintf("passMode(%d)", int(m))
	}
}

// Compact runs one move-only compaction pass over the whole arena and
// reports whether it gained anything. Alloc compacts on its own; calling
// Compact is only useful to defragment ahead of time.
func (c *Context) Compact() (bool, error) {
	if c.compacting {
		return false, fmt.Errorf("compact: %w", ErrReentrant)
	}
	progress := c.pass(0, true, passMove)
	c.checkInvariants("compact")
	return progress, nil
}

// satisfied reports whether a run of want cells exists, in the tail when
// atEnd is set, anywhere otherwise.
func (c *Context) satisfied(want int, atEnd bool) bool {
	if atEnd {
		return c.tail() >= want
	}
	_, ok := c.findFree(want)
	return ok
}

// compactFor runs at most two passes to produce a free run of want cells:
// a regular pass, then an aggressive one if the first fell short.
func (c *Context) compactFor(want int, atEnd bool) bool {
	for _, mode := range []passMode{passShrink, passAggressive} {
		c.pass(want, atEnd, mode)
		if c.satisfied(want, atEnd) {
			return true
		}
	}
	return false
}

// pass walks the arena once from the lowest cell. Free blocks add to shift,
// the free run ending at the current block. Movable blocks fill the tracked
// hole if they fit, otherwise slide down by shift. Blocks that stay put turn
// the run before them into the hole. Unless atEnd is set, the pass stops as
// soon as the run or the hole reaches want cells. It reports whether any
// block moved, shrank or was released.
func (c *Context) pass(want int, atEnd bool, mode passMode) bool {
	if mode == passMove && c.compacted {
		return false
	}
	c.compacting = true
	defer func() { c.compacting = false }()
	c.stats.CompactPasses++

	var (
		shift    int
		hole     = -1
		holeLen  int
		progress bool
		moved    int
		shrunk   int
	)

	idx := 0
	for idx < c.allocEnd {
		raw := c.cell(idx + format.FieldLen)
		if raw == 0 {
			c.corrupt("zero-length block at cell %d", idx)
		}
		if raw < 0 {
			shift += int(-raw)
			idx += int(-raw)
			continue
		}
		if !atEnd && want > 0 && (shift >= want || holeLen >= want) {
			break
		}

		n := int(raw)
		h := Handle(c.cell(idx + format.FieldHandle))
		ops := c.ops.get(int(c.cell(idx + format.FieldOps)))
		pinned := c.cell(idx+format.FieldPin) > 0

		trailing := 0
		// An empty payload has nothing to give; a 0 answer would read as release.
		if !pinned && n > format.HeaderCells && ops.shrinkable() &&
			(mode == passAggressive || (mode == passShrink && !ops.movable())) {
			missing := want - max(shift, holeLen)
			newLen, released := c.askShrink(idx, n, h, ops, max(missing, 1))
			if released {
				shift += n
				idx += n
				progress = true
				shrunk++
				continue
			}
			if newLen < n {
				c.setLen(idx, newLen)
				trailing = n - newLen
				n = newLen
				progress = true
				shrunk++
			}
		}
		movable := !pinned && ops.movable()

		switch {
		case movable && hole >= 0 && holeLen >= n:
			c.moveBlock(idx, hole, n, h, ops)
			shift += n
			hole += n
			holeLen -= n
			if holeLen > 0 {
				c.setLen(hole, -holeLen)
			} else {
				hole = -1
			}
			progress = true
			moved++
		case shift > 0 && movable:
			c.moveBlock(idx, idx-shift, n, h, ops)
			progress = true
			moved++
		case shift > 0:
			hole, holeLen = idx-shift, shift
			c.setLen(hole, -holeLen)
			shift = 0
		}
		shift += trailing
		idx += n + trailing
	}

	if idx >= c.allocEnd {
		c.allocEnd -= shift
		c.compacted = !progress
	} else if shift > 0 {
		c.setLen(idx-shift, -shift)
	}

	c.log.Debug("compact pass",
		"mode", mode,
		"want", want,
		"moved", moved,
		"shrunk", shrunk,
		"tail", c.tail(),
		"stopped_at", idx,
	)
	return progress
}

// moveBlock copies the n-cell block at from down to to, retargets its handle
// and tells the owner.
func (c *Context) moveBlock(from, to, n int, h Handle, ops *Ops) {
	if ops.Sync != nil {
		ops.Sync(h, true)
	}
	copy(c.buf[format.Bytes(to):format.Bytes(to+n)], c.buf[format.Bytes(from):format.Bytes(from+n)])
	c.setSlot(h, to)
	c.stats.Moves++
	ops.Move(h, c.payload(to))
	if ops.Sync != nil {
		ops.Sync(h, false)
	}
}

// askShrink offers the owner of the n-cell block at idx the chance to give up
// space. It returns the new block length, or released when the owner gave up
// the whole allocation, in which case the block and its handle are freed but
// not yet merged: the caller accounts for the cells.
func (c *Context) askShrink(idx, n int, h Handle, ops *Ops, wantCells int) (int, bool) {
	data := c.payload(idx)
	c.stats.ShrinkCallbacks++
	keep := ops.Shrink(h, data, min(format.Bytes(wantCells), len(data)))
	if keep < 0 || keep > len(data) {
		panic(fmt.Errorf("%w: Shrink for handle %d returned %d, payload is %d bytes", ErrCallbackContract, h, keep, len(data)))
	}
	if keep == 0 {
		c.ops.release(int(c.cell(idx + format.FieldOps)))
		c.releaseHandle(h)
		c.setLen(idx, -n)
		c.setCell(idx+format.FieldHandle, 0)
		c.setCell(idx+format.FieldOps, 0)
		c.stats.Releases++
		c.log.Debug("shrink released allocation", "handle", h, "cells", n)
		return 0, true
	}
	return format.HeaderCells + format.Cells(keep), false
}
