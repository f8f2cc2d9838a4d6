package pool

import "github.com/joshuapare/buflib/internal/format"

// Handle identifies an allocation within the Context that issued it.
// Valid handles are positive.
type Handle int32

// Invalid is never returned for a successful allocation.
const Invalid Handle = 0

const (
	// AllocOverhead is the fixed per-allocation header size in bytes.
	AllocOverhead = format.HeaderSize

	// MinBufferSize is the smallest buffer New accepts: one empty allocation
	// plus its handle slot.
	MinBufferSize = (format.HeaderCells + 1) * format.CellSize
)

// Ops is the callback set an owner supplies for relocatable data. A nil *Ops,
// or one with neither Move nor Shrink, makes the allocation immovable and
// non-shrinkable.
//
// Callbacks run synchronously from inside Alloc (and the other calls that
// compact). They may call Get, Size and PinCount; every mutating call returns
// ErrReentrant.
type Ops struct {
	// Move is called after the allocation was copied to data, its new
	// location. The handle already resolves to data. Move cannot refuse.
	Move func(h Handle, data []byte)

	// Shrink asks the owner to give up need bytes from the end of payload.
	// It returns the payload size to keep: len(payload) refuses, 0 releases
	// the allocation and its handle. Returning more than len(payload) panics
	// with ErrCallbackContract. Allocations with an empty payload are never
	// asked.
	Shrink func(h Handle, payload []byte, need int) int

	// Sync, when set, brackets every Move with begin=true and begin=false.
	Sync func(h Handle, begin bool)
}

func (o *Ops) movable() bool    { return o != nil && o.Move != nil }
func (o *Ops) shrinkable() bool { return o != nil && o.Shrink != nil }

// BlockInfo describes one block as reported by Walk.
type BlockInfo struct {
	Cell       int    // First cell of the block
	Cells      int    // Length in cells, header included
	Free       bool   // Unallocated block
	Handle     Handle // Owning handle; Invalid for free blocks
	Offset     int    // Byte offset of the payload within the buffer
	Size       int    // Payload size in bytes
	Pins       int    // Pin count
	Movable    bool   // Has a Move callback
	Shrinkable bool   // Has a Shrink callback
}
