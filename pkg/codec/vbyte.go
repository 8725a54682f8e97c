package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Sentinel separates sections in the legacy variable-byte form.
const Sentinel uint64 = 0xDEADBEEFCAFEBABE

var sentinelBytes = func() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, Sentinel)
	return b
}()

// EncodeVByte writes each line as variable-byte values followed by the sentinel. Values are
// taken as uint32, seven bits per byte with the low group first and the high bit set on every
// byte but the last.
func EncodeVByte(w io.Writer, lines [][]int) error {
	bw := bufio.NewWriter(w)
	var buf [5]byte
	for _, line := range lines {
		for _, v := range line {
			if _, err := bw.Write(appendVByte(buf[:0], uint32(int32(v)))); err != nil {
				return err
			}
		}
		if _, err := bw.Write(sentinelBytes); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func appendVByte(b []byte, u uint32) []byte {
	for u >= 0x80 {
		b = append(b, byte(u)|0x80)
		u >>= 7
	}
	return append(b, byte(u))
}

// DecodeVByte splits data on the sentinel and decodes each section. The sentinel is only
// recognised where a value would start. A final section without a sentinel is kept.
func DecodeVByte(data []byte) ([][]int, error) {
	var lines [][]int
	line := []int{}
	pos := 0
	for pos < len(data) {
		if bytes.HasPrefix(data[pos:], sentinelBytes) {
			lines = append(lines, line)
			line = []int{}
			pos += len(sentinelBytes)
			continue
		}
		var u uint32
		shift := 0
		for {
			if pos >= len(data) || shift > 28 {
				return lines, fmt.Errorf("section %d at offset %d: %w", len(lines), pos, ErrTruncated)
			}
			b := data[pos]
			pos++
			u |= uint32(b&0x7F) << shift
			if b&0x80 == 0 {
				break
			}
			shift += 7
		}
		line = append(line, int(int32(u)))
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines, nil
}
