package codec

import "errors"

var (
	// ErrValueOutOfRange indicates a value or delta whose magnitude does not fit in 15 bits.
	ErrValueOutOfRange = errors.New("codec: value magnitude exceeds 0x7FFF")
	// ErrNegativeCount indicates a negative line length prefix.
	ErrNegativeCount = errors.New("codec: negative value count")
	// ErrCorruptLength indicates a length prefix that runs past the end of the payload.
	ErrCorruptLength = errors.New("codec: length prefix exceeds payload")
	// ErrTruncated indicates a vbyte value cut off by the end of the payload.
	ErrTruncated = errors.New("codec: truncated variable-byte value")
)
