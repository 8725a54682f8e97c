package regiongrowing

import (
	"context"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-partitioning-service/pkg/connectivity"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

func testConfig(seed int64) *Config {
	cfg := NewConfig()
	cfg.Set("algorithm.random_seed", seed)
	cfg.SetLogger(zerolog.Nop())
	return cfg
}

func gridGraph(t *testing.T, rows, cols int) *models.Graph {
	t.Helper()
	g := models.NewGraph(rows * cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := r*cols + c
			if c+1 < cols {
				_, err := g.AddEdge(v, v+1)
				require.NoError(t, err)
			}
			if r+1 < rows {
				_, err := g.AddEdge(v, v+cols)
				require.NoError(t, err)
			}
		}
	}
	return g
}

func TestGenerateSeedsDistinct(t *testing.T) {
	g := gridGraph(t, 5, 5)
	for _, k := range []int{1, 2, 5, 10, 25} {
		rng := rand.New(rand.NewSource(int64(k)))
		seeds := GenerateSeeds(g, k, rng, 0)
		require.Len(t, seeds, k)

		seen := make(map[int]bool)
		for _, s := range seeds {
			assert.False(t, seen[s], "seed %d repeated for k=%d", s, k)
			assert.True(t, s >= 0 && s < g.Vertices())
			seen[s] = true
		}
	}
}

func TestGenerateSeedsFewerVerticesThanParts(t *testing.T) {
	g := models.NewGraph(3)
	seeds := GenerateSeeds(g, 5, rand.New(rand.NewSource(1)), 0)
	assert.Equal(t, []int{0, 1, 2}, seeds)
	assert.Nil(t, GenerateSeeds(models.NewGraph(0), 2, rand.New(rand.NewSource(1)), 0))
}

func TestGenerateSeedsDeterministic(t *testing.T) {
	g := gridGraph(t, 6, 6)
	a := GenerateSeeds(g, 4, rand.New(rand.NewSource(7)), 0)
	b := GenerateSeeds(g, 4, rand.New(rand.NewSource(7)), 0)
	assert.Equal(t, a, b)
}

func TestRunAssignsEveryVertex(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		cols     int
		parts    int
		accuracy float64
	}{
		{"grid 6x6 into 4", 6, 6, 4, 0.2},
		{"grid 4x8 into 2", 4, 8, 2, 0.1},
		{"single partition", 3, 3, 1, 0.0},
		{"one vertex per partition", 2, 2, 4, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gridGraph(t, tt.rows, tt.cols)
			pd := models.NewPartitionData(0)

			result, err := Run(context.Background(), g, tt.parts, pd, tt.accuracy, testConfig(42))
			require.NoError(t, err)

			assert.Equal(t, tt.parts, pd.PartsCount())
			assert.Equal(t, tt.parts, g.Partitions())
			require.NoError(t, pd.Verify(g))

			total := 0
			for p, size := range result.Sizes {
				assert.Positive(t, size, "partition %d is empty", p)
				total += size
			}
			assert.Equal(t, g.Vertices(), total)
			for v := 0; v < g.Vertices(); v++ {
				assert.NotEqual(t, models.Unassigned, g.PartOf(v))
			}
			assert.Len(t, result.Seeds, tt.parts)
		})
	}
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	g1 := gridGraph(t, 7, 7)
	g2 := gridGraph(t, 7, 7)

	_, err := Run(context.Background(), g1, 3, models.NewPartitionData(0), 0.3, testConfig(99))
	require.NoError(t, err)
	_, err = Run(context.Background(), g2, 3, models.NewPartitionData(0), 0.3, testConfig(99))
	require.NoError(t, err)

	assert.Equal(t, g1.Assignment(), g2.Assignment())
}

func TestRunBalancedOnGrid(t *testing.T) {
	g := gridGraph(t, 8, 8)
	pd := models.NewPartitionData(0)

	result, err := Run(context.Background(), g, 2, pd, 0.5, testConfig(3))
	require.NoError(t, err)
	assert.Equal(t, 16, g.MinCount())
	assert.Equal(t, 48, g.MaxCount())
	for _, size := range result.Sizes {
		assert.LessOrEqual(t, size, g.MaxCount())
	}
	assert.True(t, result.Balanced)
}

func TestRunDisconnectedGraph(t *testing.T) {
	// two triangles with no edge between them
	g := models.NewGraph(6)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}} {
		_, err := g.AddEdge(e[0], e[1])
		require.NoError(t, err)
	}
	pd := models.NewPartitionData(0)

	result, err := Run(context.Background(), g, 2, pd, 0.0, testConfig(5))
	require.NoError(t, err)
	require.NoError(t, pd.Verify(g))
	assert.Equal(t, 6, result.Sizes[0]+result.Sizes[1])
}

func TestRunRejectsBadInput(t *testing.T) {
	g := gridGraph(t, 2, 2)
	pd := models.NewPartitionData(0)
	ctx := context.Background()

	_, err := Run(ctx, g, 0, pd, 0.1, testConfig(1))
	assert.ErrorIs(t, err, models.ErrInvalidPartitionCount)

	_, err = Run(ctx, g, 5, pd, 0.1, testConfig(1))
	assert.ErrorIs(t, err, models.ErrTooManyPartitions)

	_, err = Run(ctx, g, 2, pd, 1.5, testConfig(1))
	assert.ErrorIs(t, err, models.ErrInvalidAccuracy)
}

func TestRunEmptyGraph(t *testing.T) {
	pd := models.NewPartitionData(0)
	result, err := Run(context.Background(), models.NewGraph(0), 3, pd, 0.1, testConfig(1))
	require.NoError(t, err)
	assert.True(t, result.Balanced)
	assert.Equal(t, []int{0, 0, 0}, result.Sizes)
}

func TestRepairMovesSmallerComponent(t *testing.T) {
	// partition 0: path 0-1-2-3-4 plus the pair 5-6; partition 1: 7-8.
	// 6 touches 7 and 4 touches 7, so both parts of partition 0 border partition 1.
	g := models.NewGraph(9)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {5, 6}, {6, 7}, {7, 8}, {4, 7}} {
		_, err := g.AddEdge(e[0], e[1])
		require.NoError(t, err)
	}
	require.NoError(t, g.SetPartitions(2))
	pd := models.NewPartitionData(2)
	for v := 0; v <= 6; v++ {
		require.NoError(t, pd.Assign(g, v, 0))
	}
	require.NoError(t, pd.Assign(g, 7, 1))
	require.NoError(t, pd.Assign(g, 8, 1))
	require.False(t, connectivity.IsPartitionConnected(g, 0))

	s := &state{graph: g, pd: pd, parts: 2, logger: zerolog.Nop()}
	moved, err := s.repair()
	require.NoError(t, err)

	assert.Equal(t, 2, moved)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, pd.Partitions()[0].Members())
	assert.Equal(t, []int{5, 6, 7, 8}, pd.Partitions()[1].Members())
	assert.True(t, connectivity.AllConnected(g))
	require.NoError(t, pd.Verify(g))
}

func TestFrontierFIFO(t *testing.T) {
	var f frontier
	assert.True(t, f.empty())
	for i := 0; i < 200; i++ {
		f.push(i)
	}
	for i := 0; i < 150; i++ {
		v, ok := f.pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	assert.Equal(t, 50, f.len())
	f.push(500)
	v, _ := f.pop()
	assert.Equal(t, 150, v)
}
