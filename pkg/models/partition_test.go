package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionAddNodeIdempotent(t *testing.T) {
	p := NewPartition(0)
	assert.True(t, p.AddNode(3))
	assert.False(t, p.AddNode(3))
	assert.True(t, p.AddNode(1))
	assert.Equal(t, 2, p.VertexCount())
	assert.Equal(t, []int{1, 3}, p.Members())

	assert.True(t, p.RemoveNode(3))
	assert.False(t, p.RemoveNode(3))
	assert.Equal(t, 1, p.VertexCount())
}

func TestPartitionDataReset(t *testing.T) {
	pd := NewPartitionData(2)
	require.NoError(t, pd.AddVertexToPartition(1, 4))
	first := pd.Partitions()[0]

	pd.Reset(2)
	assert.Same(t, first, pd.Partitions()[0], "same count reuses partitions")
	assert.Zero(t, pd.Size(1))

	pd.Reset(3)
	assert.Equal(t, 3, pd.PartsCount())
	for i, p := range pd.Partitions() {
		assert.Equal(t, i, p.ID())
	}
}

func TestPartitionDataBoundsChecked(t *testing.T) {
	pd := NewPartitionData(2)
	_, err := pd.Partition(2)
	require.ErrorIs(t, err, ErrPartitionOutOfRange)
	require.ErrorIs(t, pd.AddVertexToPartition(-1, 0), ErrPartitionOutOfRange)
}

func TestAssignKeepsMembershipAndPartIDInStep(t *testing.T) {
	g := NewGraph(3)
	pd := NewPartitionData(2)

	require.NoError(t, pd.Assign(g, 0, 0))
	require.NoError(t, pd.Assign(g, 1, 0))
	require.NoError(t, pd.Assign(g, 2, 1))
	assert.Equal(t, []int{2, 1}, pd.Sizes())

	require.NoError(t, pd.Assign(g, 1, 1))
	assert.Equal(t, []int{1, 2}, pd.Sizes())
	assert.Equal(t, 1, g.PartOf(1))
	assert.False(t, pd.Partitions()[0].Contains(1))
	require.NoError(t, pd.Verify(g))

	require.NoError(t, pd.Unassign(g, 2))
	assert.Equal(t, Unassigned, g.PartOf(2))
	assert.Equal(t, []int{1, 1}, pd.Sizes())
	require.NoError(t, pd.Verify(g))

	require.ErrorIs(t, pd.Assign(g, 5, 0), ErrVertexOutOfRange)
	require.ErrorIs(t, pd.Assign(g, 0, 7), ErrPartitionOutOfRange)
}

func TestVerifyDetectsMismatch(t *testing.T) {
	g := NewGraph(3)
	pd := NewPartitionData(2)
	require.NoError(t, pd.Assign(g, 0, 0))
	require.NoError(t, pd.Assign(g, 1, 1))

	g.Nodes()[1].SetPartID(0)
	g.Nodes()[2].SetPartID(1)

	err := pd.Verify(g)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInconsistentPartition)

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve, 2)
	assert.Equal(t, []string{"membership"}, ve.Fields())
}

func TestNewPartitionDataFromGraph(t *testing.T) {
	g := NewGraph(4)
	require.NoError(t, g.SetPartitions(2))
	for v, p := range []int{1, 0, 1, Unassigned} {
		g.Nodes()[v].SetPartID(p)
	}

	pd := NewPartitionDataFromGraph(g)
	require.Equal(t, 2, pd.PartsCount())
	assert.Equal(t, []int{1}, pd.Partitions()[0].Members())
	assert.Equal(t, []int{0, 2}, pd.Partitions()[1].Members())
	require.NoError(t, pd.Verify(g))
}
