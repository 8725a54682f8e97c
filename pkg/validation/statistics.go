package validation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/graph-partitioning-service/pkg/connectivity"
	"github.com/gilchrisn/graph-partitioning-service/pkg/fm"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// Statistics summarises a partitioned graph.
type Statistics struct {
	Vertices               int     `json:"vertices" yaml:"vertices"`
	Edges                  int     `json:"edges" yaml:"edges"`
	Partitions             int     `json:"partitions" yaml:"partitions"`
	Sizes                  []int   `json:"sizes" yaml:"sizes"`
	MeanSize               float64 `json:"mean_size" yaml:"mean_size"`
	StdDevSize             float64 `json:"stddev_size" yaml:"stddev_size"`
	Imbalance              float64 `json:"imbalance" yaml:"imbalance"`
	CutEdges               int     `json:"cut_edges" yaml:"cut_edges"`
	CutRatio               float64 `json:"cut_ratio" yaml:"cut_ratio"`
	BoundaryVertices       int     `json:"boundary_vertices" yaml:"boundary_vertices"`
	DisconnectedPartitions []int   `json:"disconnected_partitions,omitempty" yaml:"disconnected_partitions,omitempty"`
}

// ComputeStatistics derives sizes from node assignments so it does not depend on PartitionData.
// Imbalance is the largest size over the mean; 1.0 is perfect balance.
func ComputeStatistics(g *models.Graph) Statistics {
	s := Statistics{
		Vertices:   g.Vertices(),
		Edges:      g.Edges(),
		Partitions: g.Partitions(),
		Sizes:      make([]int, g.Partitions()),
	}
	for _, node := range g.Nodes() {
		if p := node.PartID(); p >= 0 && p < len(s.Sizes) {
			s.Sizes[p]++
		}
	}

	if len(s.Sizes) > 0 {
		sizes := make([]float64, len(s.Sizes))
		for i, size := range s.Sizes {
			sizes[i] = float64(size)
		}
		s.MeanSize = stat.Mean(sizes, nil)
		if len(sizes) > 1 {
			s.StdDevSize = stat.StdDev(sizes, nil)
		}
		if s.MeanSize > 0 {
			s.Imbalance = floats.Max(sizes) / s.MeanSize
		}
	}

	s.CutEdges = fm.CutSize(g)
	if s.Edges > 0 {
		s.CutRatio = float64(s.CutEdges) / float64(s.Edges)
	}
	s.BoundaryVertices = len(fm.BoundaryVertices(g))
	s.DisconnectedPartitions = connectivity.DisconnectedPartitions(g)
	return s
}
