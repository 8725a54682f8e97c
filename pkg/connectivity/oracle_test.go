package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// pathGraph builds 0-1-2-...-(n-1) with the given assignment.
func pathGraph(t *testing.T, parts []int) *models.Graph {
	t.Helper()
	g := models.NewGraph(len(parts))
	for i := 0; i+1 < len(parts); i++ {
		_, err := g.AddEdge(i, i+1)
		require.NoError(t, err)
	}
	k := 0
	for v, p := range parts {
		g.Nodes()[v].SetPartID(p)
		if p+1 > k {
			k = p + 1
		}
	}
	require.NoError(t, g.SetPartitions(k))
	return g
}

func TestIsPartitionConnected(t *testing.T) {
	tests := []struct {
		name  string
		parts []int
		query int
		want  bool
	}{
		{"contiguous block", []int{0, 0, 0, 1, 1}, 0, true},
		{"split by other part", []int{0, 1, 0}, 0, false},
		{"single vertex", []int{0, 1, 1}, 0, true},
		{"empty partition", []int{0, 0, 0}, 1, true},
		{"whole graph", []int{0, 0, 0, 0}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := pathGraph(t, tt.parts)
			assert.Equal(t, tt.want, IsPartitionConnected(g, tt.query))
		})
	}
}

func TestWouldStayConnectedIfRemoved(t *testing.T) {
	g := pathGraph(t, []int{0, 0, 0, 0, 1})

	assert.True(t, WouldStayConnectedIfRemoved(g, 0), "endpoint removal keeps the path")
	assert.False(t, WouldStayConnectedIfRemoved(g, 1), "interior vertex is a cut vertex")
	assert.True(t, WouldStayConnectedIfRemoved(g, 3))
	assert.True(t, WouldStayConnectedIfRemoved(g, 4), "partition becomes empty")
	assert.False(t, WouldStayConnectedIfRemoved(g, 9))

	// graph state is untouched by the query
	assert.True(t, IsPartitionConnected(g, 0))
	assert.Equal(t, 0, g.PartOf(1))
}

func TestComponentsAndLargest(t *testing.T) {
	// 0-1-2-3-4 | 5 | 6-7, partition 0 = {0..4, 6, 7}, partition 1 = {5}
	g := pathGraph(t, []int{0, 0, 0, 0, 0, 1, 0, 0})

	comps := Components(g, 0)
	require.Len(t, comps, 2)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, comps[0])
	assert.ElementsMatch(t, []int{6, 7}, comps[1])
	assert.Equal(t, 0, Largest(comps))

	assert.Equal(t, -1, Largest(nil))
	assert.Equal(t, 0, Largest([][]int{{1}, {2}}), "ties keep the earliest")
}

func TestDisconnectedPartitions(t *testing.T) {
	g := pathGraph(t, []int{0, 1, 0, 1, 2, 2})
	assert.Equal(t, []int{0, 1}, DisconnectedPartitions(g))
	assert.False(t, AllConnected(g))

	g = pathGraph(t, []int{0, 0, 1, 1, 2, 2})
	assert.Empty(t, DisconnectedPartitions(g))
	assert.True(t, AllConnected(g))
}

func TestTrackerBrokenBy(t *testing.T) {
	g := pathGraph(t, []int{0, 0, 0, 1, 1})
	tr := NewTracker(g)
	assert.True(t, tr.Connected(0))
	assert.True(t, tr.Connected(1))
	assert.Empty(t, tr.Disconnected())

	// moving the middle of partition 0 splits it
	g.Nodes()[1].SetPartID(1)
	assert.True(t, tr.BrokenBy(0, 1))
	assert.True(t, tr.Connected(0), "BrokenBy must not refresh the cache")

	g.Nodes()[1].SetPartID(0)
	g.Nodes()[2].SetPartID(1)
	assert.False(t, tr.BrokenBy(0, 1))
	tr.Refresh(0, 1)
	assert.True(t, tr.Connected(0))
	assert.True(t, tr.Connected(7), "unknown partitions read as connected")
}
