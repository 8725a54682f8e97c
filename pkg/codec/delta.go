package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	signBit      = 0x8000
	maxMagnitude = 0x7FFF
)

// EncodeDelta writes each line as a big-endian int32 count followed by big-endian int16
// sign-magnitude values. The first value is absolute and the rest are deltas from their
// predecessor.
func EncodeDelta(w io.Writer, lines [][]int) error {
	bw := bufio.NewWriter(w)
	var buf [4]byte
	for i, line := range lines {
		binary.BigEndian.PutUint32(buf[:], uint32(int32(len(line))))
		if _, err := bw.Write(buf[:4]); err != nil {
			return err
		}
		prev := 0
		for j, v := range line {
			d := v
			if j > 0 {
				d = v - prev
			}
			word, err := signMagnitude(d)
			if err != nil {
				return fmt.Errorf("line %d value %d: %w", i, j, err)
			}
			binary.BigEndian.PutUint16(buf[:2], word)
			if _, err := bw.Write(buf[:2]); err != nil {
				return err
			}
			prev = v
		}
	}
	return bw.Flush()
}

func signMagnitude(d int) (uint16, error) {
	if d < 0 {
		if -d > maxMagnitude {
			return 0, fmt.Errorf("%w: %d", ErrValueOutOfRange, d)
		}
		return signBit | uint16(-d), nil
	}
	if d > maxMagnitude {
		return 0, fmt.Errorf("%w: %d", ErrValueOutOfRange, d)
	}
	return uint16(d), nil
}

func fromSignMagnitude(word uint16) int {
	mag := int(word & maxMagnitude)
	if word&signBit != 0 {
		return -mag
	}
	return mag
}

// DecodeDelta reads lines written by EncodeDelta until the end of r. Trailing bytes too short
// to hold a count are reported as a warning rather than an error.
func DecodeDelta(r io.Reader) ([][]int, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	var lines [][]int
	var warnings []string
	pos := 0
	for pos < len(data) {
		if len(data)-pos < 4 {
			warnings = append(warnings, fmt.Sprintf("ignoring %d trailing bytes at offset %d", len(data)-pos, pos))
			break
		}
		count := int32(binary.BigEndian.Uint32(data[pos:]))
		if count < 0 {
			return lines, warnings, fmt.Errorf("line %d at offset %d: %w: %d", len(lines), pos, ErrNegativeCount, count)
		}
		pos += 4
		if int64(count)*2 > int64(len(data)-pos) {
			return lines, warnings, fmt.Errorf("line %d at offset %d: %w: need %d values, have %d bytes",
				len(lines), pos-4, ErrCorruptLength, count, len(data)-pos)
		}

		line := make([]int, count)
		prev := 0
		for j := range line {
			d := fromSignMagnitude(binary.BigEndian.Uint16(data[pos:]))
			pos += 2
			if j == 0 {
				line[j] = d
			} else {
				line[j] = prev + d
			}
			prev = line[j]
		}
		lines = append(lines, line)
	}
	return lines, warnings, nil
}
