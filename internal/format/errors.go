package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the cells required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrZeroLength indicates a block header declared a length of zero.
	ErrZeroLength = errors.New("format: zero block length")
	// ErrShortBlock indicates an allocated block smaller than its header.
	ErrShortBlock = errors.New("format: block shorter than header")
)
