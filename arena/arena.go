// Package arena provides backing buffers for pool contexts: plain heap
// memory, or an anonymous private mapping outside the Go heap on unix
// systems.
package arena

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSize is returned for a non-positive buffer size.
var ErrInvalidSize = errors.New("arena: invalid size")

// Kind selects where a Buffer's memory comes from.
type Kind int

const (
	// KindHeap allocates from the Go heap without zeroing.
	KindHeap Kind = iota
	// KindMapped maps anonymous memory; falls back to KindHeap where mmap
	// is not available.
	KindMapped
)

func (k Kind) String() string {
	switch k {
	case KindHeap:
		return "heap"
	case KindMapped:
		return "mmap"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses "heap" or "mmap".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heap":
		return KindHeap, nil
	case "mmap", "mapped":
		return KindMapped, nil
	default:
		return 0, fmt.Errorf("arena: unknown backing %q (want heap or mmap)", s)
	}
}

// Buffer is a fixed-size block of memory handed to pool.New. Close releases
// it; the bytes must not be used afterwards.
type Buffer struct {
	data    []byte
	kind    Kind
	release func([]byte) error
}

// Bytes returns the memory. nil after Close.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the size in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Kind reports where the memory came from.
func (b *Buffer) Kind() Kind { return b.kind }

// Close releases the memory. Calling Close twice is a no-op.
func (b *Buffer) Close() error {
	if b.data == nil {
		return nil
	}
	data := b.data
	b.data = nil
	if b.release == nil {
		return nil
	}
	return b.release(data)
}

// New returns a Buffer of size bytes of the given kind.
func New(kind Kind, size int) (*Buffer, error) {
	switch kind {
	case KindHeap:
		return Heap(size)
	case KindMapped:
		return Mapped(size)
	default:
		return nil, fmt.Errorf("arena: %v", kind)
	}
}
