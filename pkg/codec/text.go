// Package codec encodes logical lines of integers in the text, delta binary and legacy
// variable-byte forms of the CSRRG graph format.
package codec

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Separator joins values within a text line.
const Separator = ";"

// EncodeText writes each line as ;-separated integers terminated by a newline.
func EncodeText(w io.Writer, lines [][]int) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		for i, v := range line {
			if i > 0 {
				if _, err := bw.WriteString(Separator); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.Itoa(v)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeTextLine parses one text line. Tokens that are not integers are returned in skipped
// and left out of values. Empty tokens are ignored.
func DecodeTextLine(s string) (values []int, skipped []string) {
	s = strings.TrimRight(s, "\r\n")
	values = []int{}
	if strings.TrimSpace(s) == "" {
		return values, nil
	}
	for _, tok := range strings.Split(s, Separator) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			skipped = append(skipped, tok)
			continue
		}
		values = append(values, v)
	}
	return values, skipped
}
