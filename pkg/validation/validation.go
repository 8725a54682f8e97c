// Package validation checks partitioning invariants after a run and summarises the result.
package validation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/gilchrisn/graph-partitioning-service/pkg/connectivity"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// FieldBalance marks advisory balance violations in ValidationErrors.
const FieldBalance = "balance"

// ValidatePartitioning performs comprehensive validation of a partitioned graph
func ValidatePartitioning(g *models.Graph, pd *models.PartitionData) error {
	var errs models.ValidationErrors

	if err := validateAdjacency(g); err != nil {
		errs = append(errs, asValidationErrors(err)...)
	}
	if err := pd.Verify(g); err != nil {
		errs = append(errs, asValidationErrors(err)...)
	}
	if err := validateAssignment(g); err != nil {
		errs = append(errs, asValidationErrors(err)...)
	}
	if err := validateBalance(g, pd); err != nil {
		errs = append(errs, asValidationErrors(err)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// OnlyBalance reports whether err holds nothing but balance violations.
func OnlyBalance(err error) bool {
	var errs models.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		if e.Field != FieldBalance {
			return false
		}
	}
	return true
}

func asValidationErrors(err error) models.ValidationErrors {
	var errs models.ValidationErrors
	if errors.As(err, &errs) {
		return errs
	}
	var single models.ValidationError
	if errors.As(err, &single) {
		return models.ValidationErrors{single}
	}
	return models.ValidationErrors{{Field: "graph", Message: err.Error(), Err: err}}
}

// validateAdjacency checks u ∈ N(v) ⇔ v ∈ N(u).
func validateAdjacency(g *models.Graph) error {
	var errs models.ValidationErrors
	for _, node := range g.Nodes() {
		for _, nb := range node.Neighbours() {
			if nb < 0 || nb >= g.Vertices() {
				errs = append(errs, models.ValidationError{
					Field:   "adjacency",
					Message: fmt.Sprintf("vertex %d has out of range neighbour %d", node.ID(), nb),
					Err:     models.ErrVertexOutOfRange,
				})
				continue
			}
			if !g.Nodes()[nb].HasNeighbour(node.ID()) {
				errs = append(errs, models.ValidationError{
					Field:   "adjacency",
					Message: fmt.Sprintf("edge %d-%d is not symmetric", node.ID(), nb),
				})
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateAssignment(g *models.Graph) error {
	var errs models.ValidationErrors
	for _, node := range g.Nodes() {
		if p := node.PartID(); p < 0 || p >= g.Partitions() {
			errs = append(errs, models.ValidationError{
				Field:   "assignment",
				Message: fmt.Sprintf("vertex %d has partition %d", node.ID(), p),
				Value:   fmt.Sprint(p),
				Err:     models.ErrPartitionOutOfRange,
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateBalance(g *models.Graph, pd *models.PartitionData) error {
	if g.MaxCount() == 0 {
		return nil
	}
	var errs models.ValidationErrors
	for p, size := range pd.Sizes() {
		if size < g.MinCount() || size > g.MaxCount() {
			errs = append(errs, models.ValidationError{
				Field:   FieldBalance,
				Message: fmt.Sprintf("partition %d has %d vertices, bounds are [%d, %d]", p, size, g.MinCount(), g.MaxCount()),
				Value:   fmt.Sprint(size),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// InducedSubgraph converts partition p to a gonum undirected graph keyed by vertex id.
func InducedSubgraph(g *models.Graph, p int) *simple.UndirectedGraph {
	sub := simple.NewUndirectedGraph()
	for _, node := range g.Nodes() {
		if node.PartID() == p {
			sub.AddNode(simple.Node(int64(node.ID())))
		}
	}
	for _, node := range g.Nodes() {
		if node.PartID() != p {
			continue
		}
		for _, nb := range node.Neighbours() {
			if nb <= node.ID() || g.PartOf(nb) != p {
				continue
			}
			sub.SetEdge(sub.NewEdge(simple.Node(int64(node.ID())), simple.Node(int64(nb))))
		}
	}
	return sub
}

// CrossCheckConnectivity recomputes every partition's connectivity with gonum and compares it
// with the BFS oracle. It returns the disconnected partitions and an error on disagreement.
func CrossCheckConnectivity(g *models.Graph) ([]int, error) {
	var disconnected []int
	for p := 0; p < g.Partitions(); p++ {
		components := topo.ConnectedComponents(InducedSubgraph(g, p))
		gonumConnected := len(components) <= 1
		if gonumConnected != connectivity.IsPartitionConnected(g, p) {
			return disconnected, fmt.Errorf("partition %d: gonum reports %d components but BFS disagrees", p, len(components))
		}
		if !gonumConnected {
			disconnected = append(disconnected, p)
		}
	}
	return disconnected, nil
}
