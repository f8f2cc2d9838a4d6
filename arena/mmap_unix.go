//go:build unix

package arena

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Mapped returns size bytes of anonymous private memory, rounded up to whole
// pages by the kernel but reported at the requested size.
func Mapped(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", size, err)
	}
	return &Buffer{data: data, kind: KindMapped, release: unmap}, nil
}

func unmap(data []byte) error {
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
