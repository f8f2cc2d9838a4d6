package arena

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// Heap returns size bytes from the Go heap. The memory is not zeroed; the
// pool never reads a cell before writing it.
func Heap(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Buffer{data: dirtmake.Bytes(size, size), kind: KindHeap}, nil
}
