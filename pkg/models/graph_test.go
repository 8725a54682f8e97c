package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraphNodesUnassigned(t *testing.T) {
	g := NewGraph(4)
	require.Equal(t, 4, g.Vertices())
	require.Len(t, g.Nodes(), 4)
	for i, n := range g.Nodes() {
		assert.Equal(t, i, n.ID())
		assert.Equal(t, Unassigned, n.PartID())
		assert.Zero(t, n.NeighbourCount())
	}
}

func TestAddEdgeSymmetricAndIdempotent(t *testing.T) {
	g := NewGraph(3)

	added, err := g.AddEdge(0, 1)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = g.AddEdge(1, 0)
	require.NoError(t, err)
	assert.False(t, added, "reverse duplicate must be a no-op")

	added, err = g.AddNeighbour(0, 1)
	require.NoError(t, err)
	assert.False(t, added)

	n0, _ := g.Node(0)
	n1, _ := g.Node(1)
	assert.Equal(t, 1, n0.NeighbourCount())
	assert.Equal(t, 1, n1.NeighbourCount())
	assert.True(t, n1.HasNeighbour(0))
	assert.Equal(t, 1, g.Edges())
}

func TestAddEdgeSelfLoopIgnored(t *testing.T) {
	g := NewGraph(2)
	added, err := g.AddEdge(1, 1)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, g.Neighbours(1))
	assert.Zero(t, g.Edges())
}

func TestAddEdgeOutOfRange(t *testing.T) {
	g := NewGraph(2)
	_, err := g.AddEdge(0, 2)
	require.ErrorIs(t, err, ErrVertexOutOfRange)
	_, err = g.AddEdge(-1, 0)
	require.ErrorIs(t, err, ErrVertexOutOfRange)
}

func TestNodeBoundsChecked(t *testing.T) {
	g := NewGraph(2)
	_, err := g.Node(2)
	require.ErrorIs(t, err, ErrVertexOutOfRange)
	n, err := g.Node(1)
	require.NoError(t, err)
	assert.Equal(t, 1, n.ID())
}

func TestRecountEdges(t *testing.T) {
	g := NewGraph(4)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {0, 1}} {
		_, err := g.AddEdge(e[0], e[1])
		require.NoError(t, err)
	}
	assert.Equal(t, 4, g.RecountEdges())
}

func TestBalanceBounds(t *testing.T) {
	tests := []struct {
		name       string
		vertices   int
		partitions int
		accuracy   float64
		wantMin    int
		wantMax    int
	}{
		{"ten vertices two parts", 10, 2, 0.2, 4, 6},
		{"exact split zero accuracy", 12, 3, 0.0, 4, 4},
		{"full accuracy", 10, 2, 1.0, 1, 10},
		{"inverted window widens", 10, 4, 0.0, 2, 3},
		{"tiny graph clamps to one", 1, 1, 0.5, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minCount, maxCount, err := BalanceBounds(tt.vertices, tt.partitions, tt.accuracy)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, minCount)
			assert.Equal(t, tt.wantMax, maxCount)
			assert.LessOrEqual(t, minCount, maxCount)
		})
	}
}

func TestSetBalanceValidation(t *testing.T) {
	g := NewGraph(10)

	err := g.SetMinCount(0.2)
	require.ErrorIs(t, err, ErrInvalidPartitionCount, "partitions must be set first")

	require.NoError(t, g.SetPartitions(2))
	require.ErrorIs(t, g.SetMaxCount(1.5), ErrInvalidAccuracy)
	require.ErrorIs(t, g.SetMinCount(-0.1), ErrInvalidAccuracy)

	var ve ValidationError
	require.True(t, errors.As(g.SetMaxCount(2), &ve))
	assert.Equal(t, "accuracy", ve.Field)

	require.NoError(t, g.SetBalance(0.2))
	assert.Equal(t, 4, g.MinCount())
	assert.Equal(t, 6, g.MaxCount())
	assert.InDelta(t, 0.2, g.Accuracy(), 1e-12)
	assert.InDelta(t, 5.0, g.Average(), 1e-12)
}

func TestSetPartitionsRejectsNegative(t *testing.T) {
	g := NewGraph(3)
	require.ErrorIs(t, g.SetPartitions(-1), ErrInvalidPartitionCount)
	require.NoError(t, g.SetPartitions(0))
}

func TestDefaultLayout(t *testing.T) {
	g := NewGraph(3)
	layout := g.Layout()
	assert.Equal(t, 3, layout.Dimension)
	assert.Equal(t, []int{0, 1, 2}, layout.ColumnPositions)
	assert.Equal(t, []int{0, 1, 2, 3}, layout.RowOffsets)

	custom := &Layout{Dimension: 5, ColumnPositions: []int{4, 4, 4}, RowOffsets: []int{0, 3}}
	g.SetLayout(custom)
	assert.Same(t, custom, g.Layout())
}

func TestAssignmentCopy(t *testing.T) {
	g := NewGraph(3)
	g.Nodes()[1].SetPartID(2)
	parts := g.Assignment()
	assert.Equal(t, []int{Unassigned, 2, Unassigned}, parts)
	parts[1] = 0
	assert.Equal(t, 2, g.PartOf(1))

	g.ResetAssignments()
	assert.Equal(t, Unassigned, g.PartOf(1))
}
