package parser

import (
	"fmt"

	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// LoadGraph builds a graph from parsed lines. Bad references are skipped with warnings; a
// vertex count that cannot be determined while data is present is fatal.
func (r *Reader) LoadGraph(data *ParsedData) (*models.Graph, error) {
	if data == nil {
		return nil, fmt.Errorf("no parsed data")
	}

	n, err := r.vertexCount(data)
	if err != nil {
		return nil, err
	}
	g := models.NewGraph(n)
	if data.Line1 > 0 || len(data.Line2) > 0 || len(data.Line3) > 0 {
		g.SetLayout(&models.Layout{
			Dimension:       data.Line1,
			ColumnPositions: data.Line2,
			RowOffsets:      data.Line3,
		})
	}

	if data.Partitioned() {
		err = r.loadPartitioned(g, data)
	} else {
		err = r.loadCSR(g, data)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Int("vertices", g.Vertices()).
		Int("edges", g.Edges()).
		Int("partitions", g.Partitions()).
		Int("warnings", len(r.warnings)).
		Msg("Graph loaded")
	return g, nil
}

// vertexCount takes line 1 when positive, then the column positions, then the row pointers,
// and raises the result to cover every referenced id.
func (r *Reader) vertexCount(data *ParsedData) (int, error) {
	n := data.Line1
	switch {
	case n > 0:
	case len(data.Line2) > 0:
		n = len(data.Line2)
	case len(data.RowPointers) > 1:
		n = len(data.RowPointers) - 1
	default:
		n = 0
	}

	maxID := -1
	for _, v := range data.Edges {
		maxID = max(maxID, v)
	}
	for _, v := range data.PartitionData {
		maxID = max(maxID, v)
	}
	if maxID+1 > n {
		if n > 0 {
			r.warn(0, "vertex count %d raised to %d to cover referenced ids", n, maxID+1)
		}
		n = maxID + 1
	}

	if n <= 0 && (len(data.Edges) > 0 || len(data.PartitionData) > 0) {
		return 0, fmt.Errorf("cannot determine vertex count: %w", models.ErrVertexOutOfRange)
	}
	return n, nil
}

func (r *Reader) loadCSR(g *models.Graph, data *ParsedData) error {
	n := g.Vertices()
	rows := len(data.RowPointers) - 1
	if len(data.RowPointers) == 0 {
		rows = 0
		if len(data.Edges) > 0 {
			r.warn(5, "adjacency present without row pointers")
		}
	} else if rows != n {
		r.warn(5, "row pointer count %d does not match %d vertices", rows, n)
	}

	for v := 0; v < min(rows, n); v++ {
		start, end := data.RowPointers[v], data.RowPointers[v+1]
		if start < 0 || end < start {
			r.warn(5, "invalid row range [%d, %d) for vertex %d", start, end, v)
			continue
		}
		for i := start; i < end; i++ {
			if i >= len(data.Edges) {
				r.warn(4, "row %d points past the adjacency array at %d", v, i)
				break
			}
			nb := data.Edges[i]
			if nb < 0 || nb >= n {
				r.warn(4, "skipping edge %d-%d: neighbour out of range", v, nb)
				continue
			}
			if _, err := g.AddEdge(v, nb); err != nil {
				return err
			}
		}
	}

	if err := g.SetPartitions(1); err != nil {
		return err
	}
	for _, node := range g.Nodes() {
		node.SetPartID(0)
	}
	return nil
}

// loadPartitioned reads offset line p as group boundaries into the group line. The first value
// of each group is a member of partition p and the rest are its neighbours.
func (r *Reader) loadPartitioned(g *models.Graph, data *ParsedData) error {
	n := g.Vertices()
	if err := g.SetPartitions(data.NumberOfPartitions); err != nil {
		return err
	}

	for p, offsets := range data.OffsetLines {
		lineNum := p + 5
		if len(offsets) < 2 {
			r.warn(lineNum, "partition %d has no groups", p)
			continue
		}
		for i := 0; i+1 < len(offsets); i++ {
			start, end := offsets[i], offsets[i+1]
			if start < 0 || end <= start || end > len(data.PartitionData) {
				r.warn(lineNum, "skipping group [%d, %d) of partition %d", start, end, p)
				continue
			}
			leader := data.PartitionData[start]
			if leader < 0 || leader >= n {
				r.warn(lineNum, "skipping group led by out of range vertex %d", leader)
				continue
			}
			node := g.Nodes()[leader]
			if prev := node.PartID(); prev != models.Unassigned && prev != p {
				r.warn(lineNum, "vertex %d listed in partitions %d and %d, keeping %d", leader, prev, p, prev)
			} else {
				node.SetPartID(p)
			}
			for j := start + 1; j < end; j++ {
				nb := data.PartitionData[j]
				if nb < 0 || nb >= n {
					r.warn(4, "skipping edge %d-%d: neighbour out of range", leader, nb)
					continue
				}
				if _, err := g.AddEdge(leader, nb); err != nil {
					return err
				}
			}
		}
	}

	unassigned := 0
	for _, node := range g.Nodes() {
		if node.PartID() == models.Unassigned {
			unassigned++
		}
	}
	if unassigned > 0 {
		r.warn(0, "%d vertices are not assigned to any partition", unassigned)
	}
	return nil
}
