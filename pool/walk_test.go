package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk(t *testing.T) {
	p := newTestPool(t, 128)
	rec := newRecorder()

	a := mustAlloc(t, p, 10, rec.movable())
	b := mustAlloc(t, p, 8, rec.shrinkable())
	c := mustAlloc(t, p, 6, nil)
	require.NoError(t, p.Free(b))
	require.NoError(t, p.Pin(c))

	var got []BlockInfo
	p.Walk(func(bi BlockInfo) bool {
		got = append(got, bi)
		return true
	})
	want := []BlockInfo{
		{Cell: 0, Cells: 10, Handle: a, Offset: 32, Size: 48, Movable: true},
		{Cell: 10, Cells: 8, Free: true},
		{Cell: 18, Cells: 6, Handle: c, Offset: 176, Size: 16, Pins: 1},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 2, p.NumBlocks())

	// Early stop.
	n := 0
	p.Walk(func(BlockInfo) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}

func TestDump(t *testing.T) {
	p := newTestPool(t, 64)
	rec := newRecorder()

	a := mustAlloc(t, p, 5, nil)
	mustAlloc(t, p, 6, rec.both())
	require.NoError(t, p.Free(a))

	var out bytes.Buffer
	p.Dump(&out)
	s := out.String()
	assert.Contains(t, s, "pool: 64 cells (512 bytes)")
	assert.Contains(t, s, "free")
	assert.Contains(t, s, "h=2")
	assert.Contains(t, s, "ms")
	assert.Contains(t, s, "table: 2 slots, 1 live")
}

func TestStats(t *testing.T) {
	p := newTestPool(t, 64)

	h1 := mustAlloc(t, p, 10, nil)
	mustAlloc(t, p, 5, nil)
	require.NoError(t, p.Free(h1))
	mustAlloc(t, p, 6, nil)
	_, err := p.Alloc(payloadFor(64), nil)
	require.Error(t, err)

	st := p.Stats()
	assert.Equal(t, uint64(4), st.AllocCalls)
	assert.Equal(t, uint64(1), st.AllocFailures)
	assert.Equal(t, uint64(1), st.FreeCalls)
	assert.Equal(t, uint64(1), st.Splits)
	assert.Equal(t, uint64(3), st.TableGrowths)
	assert.Equal(t, uint64(2), st.CompactPasses)
}
