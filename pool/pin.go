package pool

import (
	"fmt"

	"github.com/joshuapare/buflib/internal/format"
)

// Pin increments the pin count of h. A pinned allocation is never moved or
// shrunk by compaction, so slices returned by Get stay valid until the
// matching Unpin. Pins nest.
func (c *Context) Pin(h Handle) error {
	if c.compacting {
		return fmt.Errorf("pin: %w", ErrReentrant)
	}
	idx, err := c.blockOf(h)
	if err != nil {
		return fmt.Errorf("pin: %w", err)
	}
	c.setCell(idx+format.FieldPin, c.cell(idx+format.FieldPin)+1)
	return nil
}

// Unpin decrements the pin count of h. It returns ErrNotPinned when the count
// is already zero.
func (c *Context) Unpin(h Handle) error {
	if c.compacting {
		return fmt.Errorf("unpin: %w", ErrReentrant)
	}
	idx, err := c.blockOf(h)
	if err != nil {
		return fmt.Errorf("unpin: %w", err)
	}
	n := c.cell(idx + format.FieldPin)
	if n <= 0 {
		return fmt.Errorf("unpin handle %d: %w", h, ErrNotPinned)
	}
	c.setCell(idx+format.FieldPin, n-1)
	if n == 1 {
		c.compacted = false
	}
	return nil
}

// PinCount returns the current pin count of h.
func (c *Context) PinCount(h Handle) (int, error) {
	idx, err := c.blockOf(h)
	if err != nil {
		return 0, err
	}
	return int(c.cell(idx + format.FieldPin)), nil
}
