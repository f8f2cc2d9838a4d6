package pool

import (
	"fmt"
	"io"

	"github.com/joshuapare/buflib/internal/format"
	"github.com/joshuapare/buflib/verify"
)

// CheckValid verifies every structural invariant of the buffer and that each
// block header names a registered callback set. It returns the first
// violation as a *verify.ValidationError.
func (c *Context) CheckValid() error {
	if err := verify.AllInvariants(c.buf, c.Geometry()); err != nil {
		return err
	}
	for idx := 0; idx < c.allocEnd; idx += c.blockLen(idx) {
		if c.isFree(idx) {
			continue
		}
		if ops := int(c.cell(idx + format.FieldOps)); !c.ops.valid(ops) {
			return &verify.ValidationError{
				Type:    "Ops",
				Message: fmt.Sprintf("block references unknown callback set %d", ops),
				Offset:  format.Bytes(idx),
			}
		}
	}
	return nil
}

// checkInvariants panics with ErrCorrupt when CheckInvariants is enabled and
// the buffer fails validation after op.
func (c *Context) checkInvariants(op string) {
	if !c.opts.CheckInvariants {
		return
	}
	if err := c.CheckValid(); err != nil {
		panic(fmt.Errorf("%w after %s: %w", ErrCorrupt, op, err))
	}
}

func (c *Context) corrupt(msg string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(msg, args...)))
}

// Dump writes a human-readable listing of the geometry, every block and the
// handle table to w.
func (c *Context) Dump(w io.Writer) {
	fmt.Fprintf(w, "pool: %d cells (%d bytes), alloc_end=%d last_handle=%d first_free=%d tail=%d\n",
		c.cells, len(c.buf), c.allocEnd, c.lastHandle, c.firstFree, c.tail())
	c.Walk(func(b BlockInfo) bool {
		if b.Free {
			fmt.Fprintf(w, "  %6d  free   %6d cells\n", b.Cell, b.Cells)
			return true
		}
		flags := []byte("--")
		if b.Movable {
			flags[0] = 'm'
		}
		if b.Shrinkable {
			flags[1] = 's'
		}
		fmt.Fprintf(w, "  %6d  h=%-4d %6d cells  payload %d@0x%X  pins=%d %s\n",
			b.Cell, b.Handle, b.Cells, b.Size, b.Offset, b.Pins, flags)
		return true
	})
	fmt.Fprintf(w, "  table: %d slots, %d live\n", c.TableCells(), c.HandleCount())
}
