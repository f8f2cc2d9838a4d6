package pool

import "errors"

var (
	// ErrOutOfMemory indicates that no contiguous run large enough could be
	// found or produced by compaction.
	ErrOutOfMemory = errors.New("pool: out of memory")

	// ErrInvalidHandle indicates a handle that is zero, negative, outside the
	// handle table, or refers to a free slot.
	ErrInvalidHandle = errors.New("pool: invalid handle")

	// ErrReentrant indicates a mutating call made from a callback while a
	// compaction pass is running.
	ErrReentrant = errors.New("pool: call during compaction")

	// ErrInvalidSize indicates a negative size, a size that overflows, or a
	// shrink that would grow the allocation.
	ErrInvalidSize = errors.New("pool: invalid size")

	// ErrNotPinned indicates Unpin on an allocation whose pin count is zero.
	ErrNotPinned = errors.New("pool: allocation not pinned")

	// ErrBufferTooSmall indicates New was given a buffer below MinBufferSize.
	ErrBufferTooSmall = errors.New("pool: buffer too small")

	// ErrCallbackContract is the panic value (wrapped) when an owner callback
	// breaks its contract, e.g. Shrink returning more than it was given.
	ErrCallbackContract = errors.New("pool: callback contract violated")

	// ErrCorrupt is the panic value (wrapped) when invariant checking is
	// enabled and a mutation left the buffer inconsistent.
	ErrCorrupt = errors.New("pool: corrupted")
)
