package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/graph-partitioning-service/pkg/generator"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
	"github.com/gilchrisn/graph-partitioning-service/pkg/parser"
)

func testConfig() *Config {
	cfg := NewConfig()
	cfg.SetLogger(zerolog.Nop())
	cfg.Set("region_growing.random_seed", 11)
	return cfg
}

// writeCSR writes g as an unpartitioned text file.
func writeCSR(t *testing.T, path string, g *models.Graph) {
	t.Helper()
	n := g.Vertices()
	join := func(vals []int) string {
		s := make([]string, len(vals))
		for i, v := range vals {
			s[i] = fmt.Sprint(v)
		}
		return strings.Join(s, ";")
	}

	ids := make([]int, n)
	offsets := make([]int, n+1)
	rows := []int{0}
	var edges []int
	for v := 0; v < n; v++ {
		ids[v] = v
		offsets[v+1] = v + 1
		edges = append(edges, g.Neighbours(v)...)
		rows = append(rows, len(edges))
	}
	content := strings.Join([]string{fmt.Sprint(n), join(ids), join(offsets), join(edges), join(rows)}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParamsValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
		want  error
	}{
		{"zero parts", "partition.parts", 0, models.ErrInvalidPartitionCount},
		{"accuracy above one", "partition.accuracy", 1.5, models.ErrInvalidAccuracy},
		{"negative accuracy", "partition.accuracy", -0.1, models.ErrInvalidAccuracy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Set(tt.key, tt.value)
			_, err := New(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		cfg := testConfig()
		cfg.Set("output.format", "xml")
		_, err := cfg.Params()
		var verrs models.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, []string{"outputformat"}, verrs.Fields())
	})

	t.Run("defaults are valid", func(t *testing.T) {
		p, err := testConfig().Params()
		require.NoError(t, err)
		assert.Equal(t, 2, p.Parts)
		assert.InDelta(t, 0.1, p.Accuracy, 1e-12)
	})
}

func TestRunGraphOnGrid(t *testing.T) {
	g, err := generator.Grid(6, 6)
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Set("partition.parts", 3)
	cfg.Set("partition.accuracy", 0.3)
	p, err := New(cfg)
	require.NoError(t, err)

	result, pd, err := p.RunGraph(context.Background(), g, false)
	require.NoError(t, err)
	require.NoError(t, pd.Verify(g))

	assert.NotEmpty(t, result.RunID)
	require.NotNil(t, result.RegionGrowing)
	require.NotNil(t, result.Refinement)
	assert.Equal(t, result.Refinement.FinalCut, result.Statistics.CutEdges)
	assert.LessOrEqual(t, result.Refinement.FinalCut, result.Refinement.InitialCut)
	assert.Equal(t, 36, result.Statistics.Sizes[0]+result.Statistics.Sizes[1]+result.Statistics.Sizes[2])
	assert.Equal(t, 3.0, testutil.ToFloat64(p.Metrics().StageRuns.WithLabelValues(StageRefinement, "success"))+
		testutil.ToFloat64(p.Metrics().StageRuns.WithLabelValues(StageRegionGrowing, "success"))+
		testutil.ToFloat64(p.Metrics().StageRuns.WithLabelValues(StageValidation, "success")))
}

func TestRunGraphTooManyParts(t *testing.T) {
	g, err := generator.Path(3)
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Set("partition.parts", 5)
	p, err := New(cfg)
	require.NoError(t, err)

	_, _, err = p.RunGraph(context.Background(), g, false)
	assert.ErrorIs(t, err, models.ErrTooManyPartitions)
}

func TestRunGraphCancelled(t *testing.T) {
	g, err := generator.Grid(4, 4)
	require.NoError(t, err)
	p, err := New(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = p.RunGraph(ctx, g, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "grid.txt")
	out := filepath.Join(dir, "out", "grid.bin")
	report := filepath.Join(dir, "report.yaml")
	mapping := filepath.Join(dir, "mapping.txt")
	prom := filepath.Join(dir, "run.prom")

	g, err := generator.Grid(4, 4)
	require.NoError(t, err)
	writeCSR(t, in, g)

	cfg := testConfig()
	cfg.Set("partition.accuracy", 0.25)
	cfg.Set("output.report_file", report)
	cfg.Set("output.mapping_file", mapping)
	cfg.Set("metrics.textfile", prom)
	p, err := New(cfg)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, in, result.Input)
	assert.Equal(t, out, result.Output)
	assert.Empty(t, result.Warnings)

	// the binary output keeps intra-partition edges only
	reader := parser.NewReader(zerolog.Nop())
	data, err := reader.ParseFile(out, parser.FormatAuto)
	require.NoError(t, err)
	back, err := reader.LoadGraph(data)
	require.NoError(t, err)
	assert.Equal(t, 16, back.Vertices())
	assert.Equal(t, 24-result.Statistics.CutEdges, back.Edges())
	assert.Equal(t, 2, back.Partitions())

	raw, err := os.ReadFile(report)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Equal(t, result.RunID, decoded["run_id"])
	assert.Contains(t, decoded, "statistics")

	raw, err = os.ReadFile(mapping)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "p0\n"))

	raw, err = os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "partitioner_stage_runs_total")
}

func TestRunRefineOnly(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "grid.txt")
	partitioned := filepath.Join(dir, "partitioned.txt")

	g, err := generator.Grid(5, 4)
	require.NoError(t, err)
	writeCSR(t, in, g)

	first, err := New(testConfig())
	require.NoError(t, err)
	_, err = first.Run(context.Background(), in, partitioned)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Set("partition.refine_only", true)
	// ignored: the input already carries its partition count
	cfg.Set("partition.parts", 4)
	second, err := New(cfg)
	require.NoError(t, err)

	result, err := second.Run(context.Background(), partitioned, "")
	require.NoError(t, err)
	assert.True(t, result.RefinedOnly)
	assert.Nil(t, result.RegionGrowing)
	assert.Equal(t, 2, result.Parts)
	assert.Equal(t, 20, result.Statistics.Vertices)
	assert.Empty(t, result.Output)
}

func TestRunMissingInput(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	_, err = p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), "")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().StageRuns.WithLabelValues(StageParse, "error")))
}
