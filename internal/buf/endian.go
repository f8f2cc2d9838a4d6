// Package buf contains overflow-safe arithmetic and endian-safe primitives.
package buf

import "encoding/binary"

// I64LE reads a little-endian int64 from b. Returns 0 when b is too short.
func I64LE(b []byte) int64 {
	if len(b) < 8 {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// PutI64LE writes v to b in little-endian order. It panics when b is too short,
// like the encoding/binary helpers it wraps.
func PutI64LE(b []byte, v int64) {
	binary.LittleEndian.PutUint64(b, uint64(v))
}
