// Package pool implements buflib, a relocatable, handle-based memory pool.
//
// # Overview
//
// A Context manages one caller-supplied byte buffer and never allocates memory
// beyond it. Allocations are identified by a Handle rather than an address, so
// the pool may move or shrink the bytes behind a handle to defragment the
// buffer, provided the allocation's owner registered callbacks for it.
//
// The buffer holds two regions sharing the same cells:
//
//	low addresses                                            high addresses
//	| block | block | free | block | ...... tail ...... | slot | slot | slot |
//	 \________ block arena, grows up ________/            \__ handle table __/
//
// Each block starts with a four-cell header (length, owning handle,
// callback-set, pin count). Each occupied table slot stores the index of its
// block, so moving a block means copying it and rewriting one slot.
//
// # Usage Example
//
//	p, err := pool.New(make([]byte, 64<<10), nil)
//	if err != nil {
//	    return err
//	}
//
//	h, err := p.Alloc(512, &pool.Ops{
//	    Move: func(h pool.Handle, data []byte) { cache.rebase(data) },
//	})
//	if errors.Is(err, pool.ErrOutOfMemory) {
//	    // evict something and retry
//	}
//
//	data, _ := p.Get(h) // resolve again after every call that may compact
//	copy(data, payload)
//
//	_ = p.Free(h)
//
// # Compaction
//
// When Alloc cannot find a large enough free run it compacts: movable blocks
// (Ops.Move set) slide towards the start of the buffer, blocks that cannot move
// but can shrink (Ops.Shrink set) are asked to give up space. Pinned blocks and
// blocks without callbacks never change. Compaction is bounded: every pass
// visits each block at most once.
//
// While a pass runs, every mutating method returns ErrReentrant, so callbacks
// may only resolve handles, never allocate or free.
//
// # Thread Safety
//
// A Context is not thread-safe and holds no lock. Callers sharing one across
// goroutines must serialize every call. A slice returned by Get is valid until
// the next mutating call; Pin is the only way to keep it valid across one.
//
// # Related Packages
//
//   - github.com/joshuapare/buflib/verify: Invariant checks over the raw buffer
//   - github.com/joshuapare/buflib/arena: Backing buffers (heap, anonymous mmap)
//   - github.com/joshuapare/buflib/sim: Randomized workload driver
package pool
