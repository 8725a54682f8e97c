// Package output writes partitioned graphs and run reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/graph-partitioning-service/pkg/codec"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
	"github.com/gilchrisn/graph-partitioning-service/pkg/parser"
)

// OutputWriter interface for flexible output generation
type OutputWriter interface {
	WritePartitioned(w io.Writer, g *models.Graph, pd *models.PartitionData, format parser.Format) error
	WriteFile(path string, g *models.Graph, pd *models.PartitionData, format parser.Format) error
	WriteMapping(path string, pd *models.PartitionData) error
	WriteReport(path string, report interface{}) error
}

// FileWriter implements OutputWriter for file-based output
type FileWriter struct{}

// NewFileWriter creates a new file-based output writer
func NewFileWriter() OutputWriter {
	return &FileWriter{}
}

// LogicalLines lays out a partitioned graph: the three layout lines, the group line, then one
// offset line per partition.
//
// The group line lists each partition's members ascending, each followed by its ascending
// intra-partition neighbours. Offset line p starts at the position where partition p-1 ended
// and adds one entry per member, advancing by the member's neighbour count plus one.
func LogicalLines(g *models.Graph, pd *models.PartitionData) [][]int {
	layout := g.Layout()
	lines := [][]int{
		{layout.Dimension},
		append([]int{}, layout.ColumnPositions...),
		append([]int{}, layout.RowOffsets...),
	}

	groups := []int{}
	offsets := make([][]int, 0, pd.PartsCount())
	pos := 0
	for _, part := range pd.Partitions() {
		offs := []int{pos}
		for _, v := range part.Members() {
			groups = append(groups, v)
			var nbs []int
			for _, nb := range g.Neighbours(v) {
				if g.PartOf(nb) == part.ID() {
					nbs = append(nbs, nb)
				}
			}
			sort.Ints(nbs)
			groups = append(groups, nbs...)
			pos += len(nbs) + 1
			offs = append(offs, pos)
		}
		offsets = append(offsets, offs)
	}

	lines = append(lines, groups)
	return append(lines, offsets...)
}

// WritePartitioned encodes the partitioned layout in format. FormatAuto means text.
func (fw *FileWriter) WritePartitioned(w io.Writer, g *models.Graph, pd *models.PartitionData, format parser.Format) error {
	lines := LogicalLines(g, pd)
	switch format {
	case parser.FormatText, parser.FormatAuto, "":
		return codec.EncodeText(w, lines)
	case parser.FormatBinary:
		return codec.EncodeDelta(w, lines)
	case parser.FormatLegacy:
		return codec.EncodeVByte(w, lines)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// WriteFile writes the partitioned layout to path, detecting the format from the extension
// for FormatAuto.
func (fw *FileWriter) WriteFile(path string, g *models.Graph, pd *models.PartitionData, format parser.Format) error {
	if format == parser.FormatAuto || format == "" {
		format = parser.DetectFormat(path)
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fw.WritePartitioned(file, g, pd, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to write partitioned graph: %w", err)
	}
	return file.Close()
}

// WriteMapping writes each partition id, its member count and its members, one per line.
func (fw *FileWriter) WriteMapping(path string, pd *models.PartitionData) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, part := range pd.Partitions() {
		members := part.Members()
		fmt.Fprintf(file, "p%d\n", part.ID())
		fmt.Fprintf(file, "%d\n", len(members))
		for _, v := range members {
			fmt.Fprintf(file, "%d\n", v)
		}
	}
	return nil
}

// WriteReport writes report as YAML for .yaml and .yml paths and as indented JSON otherwise.
func (fw *FileWriter) WriteReport(path string, report interface{}) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(file)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
