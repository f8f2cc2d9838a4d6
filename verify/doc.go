// Package verify provides validation functions for buflib pool buffers.
//
// # Overview
//
// A pool buffer is self-describing except for four boundaries, which the
// caller passes as a Geometry (pool.Context.Geometry returns it). The checks
// here decode the raw bytes and are used in tests and by
// pool.Context.CheckValid to make sure every mutation keeps the pool
// consistent.
//
// Validation categories:
//   - Bounds: region ordering, buffer size
//   - Blocks: exact tiling (so blocks + tail + table == whole buffer),
//     coalescing, header sanity
//   - HandleTable: slots point at blocks owned by the same handle
//   - FreeList: every free slot is linked exactly once
//
// # Quick Start
//
//	if err := verify.AllInvariants(p.Bytes(), p.Geometry()); err != nil {
//	    t.Fatalf("pool invalid: %v", err)
//	}
//
// # ValidationError
//
// All validation functions return *ValidationError on failure. Offset is the
// byte offset of the offending cell, or -1 when the error is not tied to one
// location.
//
//	var verr *verify.ValidationError
//	if errors.As(err, &verr) {
//	    fmt.Printf("%s at 0x%X: %s\n", verr.Type, verr.Offset, verr.Message)
//	}
//
// # Limitations
//
// The verify package does NOT check:
//   - Payload contents
//   - That callback-set indexes name registered sets (pool.Context.CheckValid does)
//   - Anything about a buffer in the middle of a compaction pass
//
// # Related Packages
//
//   - github.com/joshuapare/buflib/pool: the allocator
//   - github.com/joshuapare/buflib/internal/format: cell layout constants
package verify
