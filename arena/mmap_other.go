//go:build !unix

package arena

// Mapped falls back to heap memory when mmap is not available.
func Mapped(size int) (*Buffer, error) {
	return Heap(size)
}
