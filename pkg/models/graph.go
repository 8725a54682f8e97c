package models

import (
	"fmt"
	"math"
)

// Unassigned is the partId of a node that belongs to no partition.
const Unassigned = -1

// boundsTolerance absorbs float noise in avg*(1±accuracy) before rounding.
const boundsTolerance = 1e-9

// Node is a vertex of the graph: a stable id, a deduplicated neighbour set and a partition assignment.
type Node struct {
	id         int
	neighbours []int
	partID     int
}

func newNode(id int) *Node {
	return &Node{id: id, partID: Unassigned}
}

// ID returns the stable index of the node in its graph.
func (n *Node) ID() int { return n.id }

// Neighbours returns the neighbour ids in insertion order. The slice must not be modified.
func (n *Node) Neighbours() []int { return n.neighbours }

// NeighbourCount returns the number of distinct neighbours.
func (n *Node) NeighbourCount() int { return len(n.neighbours) }

// PartID returns the partition the node belongs to, or Unassigned.
func (n *Node) PartID() int { return n.partID }

// SetPartID changes the assignment of the node only. Callers that also hold a PartitionData
// must use PartitionData.Assign so membership and partId stay in step.
func (n *Node) SetPartID(partID int) { n.partID = partID }

// HasNeighbour reports whether id is adjacent to the node.
func (n *Node) HasNeighbour(id int) bool {
	for _, nb := range n.neighbours {
		if nb == id {
			return true
		}
	}
	return false
}

func (n *Node) addNeighbour(id int) bool {
	if n.HasNeighbour(id) {
		return false
	}
	n.neighbours = append(n.neighbours, id)
	return true
}

// Layout holds the CSRRG layout metadata (lines 1-3) carried through a run untouched.
type Layout struct {
	Dimension       int   `json:"dimension"`
	ColumnPositions []int `json:"column_positions"`
	RowOffsets      []int `json:"row_offsets"`
}

// DefaultLayout places vertex i at column i of row i.
func DefaultLayout(vertices int) *Layout {
	cols := make([]int, vertices)
	rows := make([]int, vertices+1)
	for i := 0; i < vertices; i++ {
		cols[i] = i
		rows[i+1] = i + 1
	}
	return &Layout{Dimension: vertices, ColumnPositions: cols, RowOffsets: rows}
}

// Graph is an undirected graph with a fixed vertex count and per-partition size bounds.
type Graph struct {
	vertices   int
	edges      int
	partitions int
	minCount   int
	maxCount   int
	accuracy   float64
	nodes      []*Node
	layout     *Layout
}

// NewGraph creates a graph with vertices unassigned, isolated nodes.
func NewGraph(vertices int) *Graph {
	if vertices < 0 {
		vertices = 0
	}
	g := &Graph{
		vertices: vertices,
		nodes:    make([]*Node, vertices),
	}
	for i := 0; i < vertices; i++ {
		g.nodes[i] = newNode(i)
	}
	return g
}

// Vertices returns the vertex count.
func (g *Graph) Vertices() int { return g.vertices }

// Edges returns the undirected edge count as of the last mutation.
func (g *Graph) Edges() int { return g.edges }

// Partitions returns the target partition count k.
func (g *Graph) Partitions() int { return g.partitions }

// MinCount returns the minimum partition size.
func (g *Graph) MinCount() int { return g.minCount }

// MaxCount returns the maximum partition size.
func (g *Graph) MaxCount() int { return g.maxCount }

// Accuracy returns the accuracy last passed to SetMinCount, SetMaxCount or SetBalance.
func (g *Graph) Accuracy() float64 { return g.accuracy }

// Nodes returns every node indexed by id. The slice must not be modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Layout returns the layout metadata, falling back to the diagonal layout.
func (g *Graph) Layout() *Layout {
	if g.layout == nil {
		return DefaultLayout(g.vertices)
	}
	return g.layout
}

// SetLayout attaches layout metadata read from an input file.
func (g *Graph) SetLayout(layout *Layout) { g.layout = layout }

// Node returns the node with the given id.
func (g *Graph) Node(id int) (*Node, error) {
	if id < 0 || id >= g.vertices {
		return nil, fmt.Errorf("%w: %d (vertices=%d)", ErrVertexOutOfRange, id, g.vertices)
	}
	return g.nodes[id], nil
}

// PartOf returns the partition of v without bounds checking.
func (g *Graph) PartOf(v int) int { return g.nodes[v].partID }

// Neighbours returns the neighbours of v without bounds checking.
func (g *Graph) Neighbours(v int) []int { return g.nodes[v].neighbours }

// AddEdge links u and v in both directions. It reports whether the edge is new.
// Duplicate edges and self-loops are no-ops.
func (g *Graph) AddEdge(u, v int) (bool, error) {
	if u < 0 || u >= g.vertices || v < 0 || v >= g.vertices {
		return false, fmt.Errorf("%w: u=%d, v=%d, vertices=%d", ErrVertexOutOfRange, u, v, g.vertices)
	}
	if u == v {
		return false, nil
	}
	if !g.nodes[u].addNeighbour(v) {
		return false, nil
	}
	g.nodes[v].addNeighbour(u)
	g.edges++
	return true, nil
}

// AddNeighbour is AddEdge under its historical name.
func (g *Graph) AddNeighbour(u, v int) (bool, error) {
	return g.AddEdge(u, v)
}

// RecountEdges recomputes the edge count from adjacency and returns it.
func (g *Graph) RecountEdges() int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.neighbours)
	}
	g.edges = total / 2
	return g.edges
}

// SetPartitions sets the target partition count.
func (g *Graph) SetPartitions(partitions int) error {
	if partitions < 0 {
		return ValidationError{Field: "partitions", Message: "must not be negative",
			Value: fmt.Sprint(partitions), Err: ErrInvalidPartitionCount}
	}
	g.partitions = partitions
	return nil
}

// SetMinCount derives the minimum partition size from accuracy.
func (g *Graph) SetMinCount(accuracy float64) error {
	minCount, _, err := BalanceBounds(g.vertices, g.partitions, accuracy)
	if err != nil {
		return err
	}
	g.minCount = minCount
	g.accuracy = accuracy
	return nil
}

// SetMaxCount derives the maximum partition size from accuracy.
func (g *Graph) SetMaxCount(accuracy float64) error {
	_, maxCount, err := BalanceBounds(g.vertices, g.partitions, accuracy)
	if err != nil {
		return err
	}
	g.maxCount = maxCount
	g.accuracy = accuracy
	return nil
}

// SetBalance sets both bounds from accuracy.
func (g *Graph) SetBalance(accuracy float64) error {
	if err := g.SetMinCount(accuracy); err != nil {
		return err
	}
	return g.SetMaxCount(accuracy)
}

// Average returns the ideal partition size vertices/partitions, or 0 without partitions.
func (g *Graph) Average() float64 {
	if g.partitions <= 0 {
		return 0
	}
	return float64(g.vertices) / float64(g.partitions)
}

// BalanceBounds computes [minCount, maxCount] for the given accuracy.
//
// minCount = max(1, ceil(avg*(1-accuracy))) and maxCount = max(1, floor(avg*(1+accuracy))).
// When rounding inverts the window the bounds widen to [floor(avg), ceil(avg)].
func BalanceBounds(vertices, partitions int, accuracy float64) (int, int, error) {
	if math.IsNaN(accuracy) || accuracy < 0.0 || accuracy > 1.0 {
		return 0, 0, ValidationError{Field: "accuracy", Message: "must be between 0.0 and 1.0",
			Value: fmt.Sprint(accuracy), Err: ErrInvalidAccuracy}
	}
	if partitions <= 0 {
		return 0, 0, ValidationError{Field: "partitions", Message: "must be greater than 0",
			Value: fmt.Sprint(partitions), Err: ErrInvalidPartitionCount}
	}

	avg := float64(vertices) / float64(partitions)
	minCount := max(1, int(math.Ceil(avg*(1.0-accuracy)-boundsTolerance)))
	maxCount := max(1, int(math.Floor(avg*(1.0+accuracy)+boundsTolerance)))
	if minCount > maxCount {
		minCount = max(1, int(math.Floor(avg+boundsTolerance)))
		maxCount = max(minCount, int(math.Ceil(avg-boundsTolerance)))
	}
	return minCount, maxCount, nil
}

// ResetAssignments marks every node unassigned.
func (g *Graph) ResetAssignments() {
	for _, n := range g.nodes {
		n.partID = Unassigned
	}
}

// Assignment returns a copy of every node's partId indexed by vertex.
func (g *Graph) Assignment() []int {
	parts := make([]int, g.vertices)
	for i, n := range g.nodes {
		parts[i] = n.partID
	}
	return parts
}
