// Package metrics exposes Prometheus collectors for partitioning runs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for partitioning runs
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Stage metrics
	StageRuns     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Refinement metrics
	Moves    *prometheus.CounterVec
	CutEdges *prometheus.GaugeVec

	// Partition metrics
	PartitionSize          *prometheus.GaugeVec
	DisconnectedPartitions prometheus.Gauge
	ParseWarnings          prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	stageRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_runs_total",
			Help:      "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"},
	)

	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	moves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fm_moves_total",
			Help:      "Total number of FM moves by outcome",
		},
		[]string{"kind"},
	)

	cutEdges := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cut_edges",
			Help:      "Edges crossing partition boundaries",
		},
		[]string{"phase"},
	)

	partitionSize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "partition_size",
			Help:      "Vertices per partition after the last run",
		},
		[]string{"partition"},
	)

	disconnected := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disconnected_partitions",
			Help:      "Partitions whose induced subgraph is disconnected",
		},
	)

	parseWarnings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_warnings_total",
			Help:      "Total number of recoverable input warnings",
		},
	)

	registry.MustRegister(
		stageRuns,
		stageDuration,
		moves,
		cutEdges,
		partitionSize,
		disconnected,
		parseWarnings,
	)

	return &Collector{
		registry:               registry,
		StageRuns:              stageRuns,
		StageDuration:          stageDuration,
		Moves:                  moves,
		CutEdges:               cutEdges,
		PartitionSize:          partitionSize,
		DisconnectedPartitions: disconnected,
		ParseWarnings:          parseWarnings,
	}
}

// Registry returns the private registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordStage records one stage execution.
func (c *Collector) RecordStage(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.StageRuns.WithLabelValues(stage, status).Inc()
	c.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRefinement records FM cut values and move counts.
func (c *Collector) RecordRefinement(initialCut, finalCut, moves, rolledBack int) {
	c.CutEdges.WithLabelValues("initial").Set(float64(initialCut))
	c.CutEdges.WithLabelValues("final").Set(float64(finalCut))
	c.Moves.WithLabelValues("committed").Add(float64(moves))
	c.Moves.WithLabelValues("rolled_back").Add(float64(rolledBack))
}

// RecordPartitions replaces the per-partition size series.
func (c *Collector) RecordPartitions(sizes []int, disconnected int) {
	c.PartitionSize.Reset()
	for p, size := range sizes {
		c.PartitionSize.WithLabelValues(strconv.Itoa(p)).Set(float64(size))
	}
	c.DisconnectedPartitions.Set(float64(disconnected))
}

// RecordWarnings adds n parse warnings.
func (c *Collector) RecordWarnings(n int) {
	c.ParseWarnings.Add(float64(n))
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
