package pool

import (
	"testing"

	"github.com/joshuapare/buflib/internal/format"
)

func BenchmarkAllocFree(b *testing.B) {
	p, err := New(make([]byte, 64<<10), nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, err := p.Alloc(128, nil)
		if err != nil {
			b.Fatal(err)
		}
		if err := p.Free(h); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGet(b *testing.B) {
	p, err := New(make([]byte, 64<<10), nil)
	if err != nil {
		b.Fatal(err)
	}
	h, err := p.Alloc(128, nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Get(h); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCompaction frees every other movable block and then asks for one
// large block, forcing a full slide-down.
func BenchmarkCompaction(b *testing.B) {
	ops := &Ops{Move: func(Handle, []byte) {}}
	const blocks = 256
	size := format.Bytes(12)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		p, err := New(make([]byte, blocks*format.Bytes(17)), nil)
		if err != nil {
			b.Fatal(err)
		}
		hs := make([]Handle, 0, blocks)
		for j := 0; j < blocks; j++ {
			h, err := p.Alloc(size, ops)
			if err != nil {
				break
			}
			hs = append(hs, h)
		}
		for j := 0; j < len(hs); j += 2 {
			_ = p.Free(hs[j])
		}
		b.StartTimer()
		if _, err := p.Alloc(size*blocks/4, nil); err != nil {
			b.Fatal(err)
		}
	}
}
