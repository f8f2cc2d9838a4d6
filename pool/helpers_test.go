package pool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/buflib/internal/format"
	"github.com/joshuapare/buflib/verify"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestPool creates a pool of the given number of cells with invariant
// checking enabled after every mutation.
func newTestPool(t testing.TB, cells int) *Context {
	t.Helper()
	return newTestPoolWith(t, cells, Options{CheckInvariants: true})
}

func newTestPoolWith(t testing.TB, cells int, opts Options) *Context {
	t.Helper()
	p, err := New(make([]byte, format.Bytes(cells)), &opts)
	require.NoError(t, err)
	return p
}

// payloadFor returns the payload size in bytes of a block of n cells.
func payloadFor(n int) int {
	return format.Bytes(n - format.HeaderCells)
}

// mustAlloc allocates a block of exactly n cells.
func mustAlloc(t testing.TB, p *Context, n int, ops *Ops) Handle {
	t.Helper()
	h, err := p.Alloc(payloadFor(n), ops)
	require.NoError(t, err, "alloc %d cells", n)
	require.NotEqual(t, Invalid, h)
	return h
}

// cellOf returns the first cell of the block behind h, or -1.
func cellOf(p *Context, h Handle) int {
	found := -1
	p.Walk(func(b BlockInfo) bool {
		if !b.Free && b.Handle == h {
			found = b.Cell
			return false
		}
		return true
	})
	return found
}

// fill writes a pattern derived from h and seed into the payload of h.
func fill(t testing.TB, p *Context, h Handle, seed byte) {
	t.Helper()
	data, err := p.Get(h)
	require.NoError(t, err)
	for i := range data {
		data[i] = pattern(h, seed, i)
	}
}

// requireContent checks the first n payload bytes of h against fill's pattern.
func requireContent(t testing.TB, p *Context, h Handle, seed byte, n int) {
	t.Helper()
	data, err := p.Get(h)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), n)
	for i := 0; i < n; i++ {
		if data[i] != pattern(h, seed, i) {
			t.Fatalf("handle %d: byte %d = %#x, want %#x", h, i, data[i], pattern(h, seed, i))
		}
	}
}

func pattern(h Handle, seed byte, i int) byte {
	return byte(int(h)*31+i*7) ^ seed
}

// requireValid runs the full verifier.
func requireValid(t testing.TB, p *Context) {
	t.Helper()
	require.NoError(t, verify.AllInvariants(p.Bytes(), p.Geometry()))
	require.NoError(t, p.CheckValid())
}

// requirePanicIs runs fn and requires it to panic with an error matching target.
func requirePanicIs(t testing.TB, target error, fn func()) {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	require.NotNil(t, got, "expected panic")
	err, ok := got.(error)
	require.True(t, ok, "panic value %v is not an error", got)
	require.True(t, errors.Is(err, target), "panic %v is not %v", err, target)
}

// recorder collects callback activity for one set of Ops.
type recorder struct {
	moves   map[Handle][][]byte
	shrinks map[Handle]int
	syncs   []string
	keep    func(h Handle, payload []byte, need int) int
}

func newRecorder() *recorder {
	return &recorder{
		moves:   make(map[Handle][][]byte),
		shrinks: make(map[Handle]int),
	}
}

// movable returns Ops that only record moves.
func (r *recorder) movable() *Ops {
	return &Ops{
		Move: func(h Handle, data []byte) { r.moves[h] = append(r.moves[h], data) },
		Sync: func(h Handle, begin bool) { r.syncs = append(r.syncs, fmt.Sprintf("%d:%t", h, begin)) },
	}
}

// shrinkable returns Ops with Shrink only, answering with r.keep.
func (r *recorder) shrinkable() *Ops {
	return &Ops{Shrink: r.shrink}
}

// both returns Ops with Move and Shrink.
func (r *recorder) both() *Ops {
	return &Ops{
		Move:   func(h Handle, data []byte) { r.moves[h] = append(r.moves[h], data) },
		Shrink: r.shrink,
	}
}

func (r *recorder) shrink(h Handle, payload []byte, need int) int {
	r.shrinks[h]++
	if r.keep == nil {
		return len(payload)
	}
	return r.keep(h, payload, need)
}
