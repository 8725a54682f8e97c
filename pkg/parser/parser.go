// Package parser reads CSRRG graph files in text, delta binary and legacy variable-byte form.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partitioning-service/pkg/codec"
)

// Format names an on-disk encoding.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatText   Format = "text"
	FormatBinary Format = "binary"
	FormatLegacy Format = "legacy"
)

// ErrInvalidHeader indicates a first line that is not a single integer.
var ErrInvalidHeader = errors.New("parser: first line must be an integer")

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "text", "txt":
		return FormatText, nil
	case "binary", "bin", "delta":
		return FormatBinary, nil
	case "legacy", "vbyte", "vbin":
		return FormatLegacy, nil
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// DetectFormat picks a format from the file extension: .bin is binary, .vbin is legacy and
// anything else is text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return FormatBinary
	case ".vbin":
		return FormatLegacy
	}
	return FormatText
}

// Warning is a recoverable problem found while parsing or loading.
type Warning struct {
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// ParsedData holds the logical lines of a CSRRG file.
type ParsedData struct {
	Line1 int
	Line2 []int
	Line3 []int

	// CSR layout
	Edges       []int
	RowPointers []int

	// Partitioned layout
	PartitionData []int
	OffsetLines   [][]int

	NumberOfPartitions int
}

// Partitioned reports whether the file carries more than one partition.
func (d *ParsedData) Partitioned() bool { return d.NumberOfPartitions > 1 }

// Reader parses graph files and collects warnings.
type Reader struct {
	logger   zerolog.Logger
	warnings []Warning
}

// NewReader creates a reader that logs warnings to logger.
func NewReader(logger zerolog.Logger) *Reader {
	return &Reader{logger: logger}
}

// Warnings returns every warning collected so far.
func (r *Reader) Warnings() []Warning { return r.warnings }

func (r *Reader) warn(line int, format string, args ...interface{}) {
	w := Warning{Line: line, Message: fmt.Sprintf(format, args...)}
	r.warnings = append(r.warnings, w)
	ev := r.logger.Warn()
	if line > 0 {
		ev = ev.Int("line", line)
	}
	ev.Msg(w.Message)
}

// ParseFile parses path in the given format, detecting it from the extension for FormatAuto.
func (r *Reader) ParseFile(path string, format Format) (*ParsedData, error) {
	if format == FormatAuto || format == "" {
		format = DetectFormat(path)
	}
	switch format {
	case FormatText:
		return r.ParseTextFile(path)
	case FormatBinary:
		return r.ParseBinaryFile(path)
	case FormatLegacy:
		return r.ParseLegacyFile(path)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// ParseTextFile parses a ;-separated text file.
func (r *Reader) ParseTextFile(path string) (*ParsedData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer file.Close()
	return r.ParseText(file)
}

// ParseText parses ;-separated text lines. Non-integer tokens after the first line are skipped
// with a warning.
func (r *Reader) ParseText(in io.Reader) (*ParsedData, error) {
	br := bufio.NewReader(in)
	var lines [][]int
	lineNum := 0
	for {
		raw, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read line %d: %w", lineNum+1, err)
		}
		if raw == "" && err == io.EOF {
			break
		}
		lineNum++

		values, skipped := codec.DecodeTextLine(raw)
		if lineNum == 1 && (len(skipped) > 0 || len(values) != 1) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, strings.TrimSpace(raw))
		}
		for _, tok := range skipped {
			r.warn(lineNum, "skipping non-integer token %q", tok)
		}
		lines = append(lines, values)

		if err == io.EOF {
			break
		}
	}
	return r.FromLines(lines)
}

// ParseBinaryFile parses a delta binary file.
func (r *Reader) ParseBinaryFile(path string) (*ParsedData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer file.Close()
	return r.ParseBinary(file)
}

// ParseBinary parses the int32 count, int16 sign-magnitude delta form.
func (r *Reader) ParseBinary(in io.Reader) (*ParsedData, error) {
	lines, warnings, err := codec.DecodeDelta(in)
	if err != nil {
		return nil, fmt.Errorf("failed to decode binary graph: %w", err)
	}
	for _, w := range warnings {
		r.warn(0, "%s", w)
	}
	return r.FromLines(lines)
}

// ParseLegacyFile parses a legacy variable-byte file.
func (r *Reader) ParseLegacyFile(path string) (*ParsedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return r.ParseLegacy(bytes.NewReader(data))
}

// ParseLegacy parses the sentinel separated variable-byte form.
func (r *Reader) ParseLegacy(in io.Reader) (*ParsedData, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	lines, err := codec.DecodeVByte(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode legacy graph: %w", err)
	}
	return r.FromLines(lines)
}

// FromLines assigns logical lines to their roles. With at least four lines there are
// len(lines)-4 partitions, at least one; more than one selects the partitioned layout.
func (r *Reader) FromLines(lines [][]int) (*ParsedData, error) {
	if len(lines) == 0 || len(lines[0]) != 1 {
		return nil, ErrInvalidHeader
	}
	data := &ParsedData{Line1: lines[0][0], NumberOfPartitions: 1}
	if len(lines) > 1 {
		data.Line2 = lines[1]
	}
	if len(lines) > 2 {
		data.Line3 = lines[2]
	}
	if len(lines) < 4 {
		r.warn(0, "file has %d lines, expected at least 4", len(lines))
		return data, nil
	}

	data.NumberOfPartitions = max(len(lines)-4, 1)
	if !data.Partitioned() {
		data.Edges = lines[3]
		if len(lines) > 4 {
			data.RowPointers = lines[4]
		}
		return data, nil
	}

	data.PartitionData = lines[3]
	data.OffsetLines = lines[4:]
	return data, nil
}

// ConvertBinaryToText rewrites a binary or legacy file as text without interpreting it.
func (r *Reader) ConvertBinaryToText(inPath, outPath string, format Format) error {
	if format == FormatAuto || format == "" {
		format = DetectFormat(inPath)
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inPath, err)
	}

	var lines [][]int
	switch format {
	case FormatBinary:
		var warnings []string
		lines, warnings, err = codec.DecodeDelta(bytes.NewReader(raw))
		for _, w := range warnings {
			r.warn(0, "%s", w)
		}
	case FormatLegacy:
		lines, err = codec.DecodeVByte(raw)
	default:
		return fmt.Errorf("%s is not a binary format", format)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", inPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer out.Close()
	if err := codec.EncodeText(out, lines); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	r.logger.Info().
		Str("input", inPath).
		Str("output", outPath).
		Int("lines", len(lines)).
		Msg("Converted binary graph to text")
	return nil
}
