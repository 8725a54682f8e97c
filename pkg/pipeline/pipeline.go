// Package pipeline runs parse, region growing, FM refinement, validation and output as one job.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partitioning-service/pkg/fm"
	"github.com/gilchrisn/graph-partitioning-service/pkg/metrics"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
	"github.com/gilchrisn/graph-partitioning-service/pkg/output"
	"github.com/gilchrisn/graph-partitioning-service/pkg/parser"
	"github.com/gilchrisn/graph-partitioning-service/pkg/regiongrowing"
	"github.com/gilchrisn/graph-partitioning-service/pkg/validation"
)

// Stage names used in logs and metrics.
const (
	StageParse         = "parse"
	StageRegionGrowing = "region_growing"
	StageRefinement    = "fm"
	StageValidation    = "validation"
	StageOutput        = "output"
)

// Pipeline runs partitioning jobs with one configuration.
type Pipeline struct {
	config  *Config
	params  Params
	logger  zerolog.Logger
	metrics *metrics.Collector
	writer  output.OutputWriter
}

// Result contains the complete pipeline output
type Result struct {
	RunID          string                `json:"run_id" yaml:"run_id"`
	Input          string                `json:"input,omitempty" yaml:"input,omitempty"`
	Output         string                `json:"output,omitempty" yaml:"output,omitempty"`
	Parts          int                   `json:"parts" yaml:"parts"`
	Accuracy       float64               `json:"accuracy" yaml:"accuracy"`
	RefinedOnly    bool                  `json:"refined_only" yaml:"refined_only"`
	RegionGrowing  *regiongrowing.Result `json:"region_growing,omitempty" yaml:"region_growing,omitempty"`
	Refinement     *fm.Result            `json:"refinement,omitempty" yaml:"refinement,omitempty"`
	Statistics     validation.Statistics `json:"statistics" yaml:"statistics"`
	Balanced       bool                  `json:"balanced" yaml:"balanced"`
	Issues         []string              `json:"issues,omitempty" yaml:"issues,omitempty"`
	Warnings       []parser.Warning      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	TotalRuntimeMS int64                 `json:"total_runtime_ms" yaml:"total_runtime_ms"`
}

// New validates config and creates a pipeline.
func New(config *Config) (*Pipeline, error) {
	if config == nil {
		config = NewConfig()
	}
	params, err := config.Params()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Pipeline{
		config:  config,
		params:  params,
		logger:  config.Logger(),
		metrics: metrics.NewCollector(config.MetricsNamespace()),
		writer:  output.NewFileWriter(),
	}, nil
}

// Metrics returns the collector updated by every run.
func (p *Pipeline) Metrics() *metrics.Collector { return p.metrics }

// Run partitions the graph at inPath and writes it to outPath when outPath is not empty.
func (p *Pipeline) Run(ctx context.Context, inPath, outPath string) (*Result, error) {
	startTime := time.Now()

	inFormat, err := parser.ParseFormat(p.params.InputFormat)
	if err != nil {
		return nil, err
	}
	reader := parser.NewReader(p.logger.With().Str("stage", StageParse).Logger())

	stageStart := time.Now()
	data, err := reader.ParseFile(inPath, inFormat)
	var g *models.Graph
	if err == nil {
		g, err = reader.LoadGraph(data)
	}
	p.metrics.RecordStage(StageParse, time.Since(stageStart), err)
	p.metrics.RecordWarnings(len(reader.Warnings()))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", inPath, err)
	}

	result, pd, err := p.RunGraph(ctx, g, data.Partitioned())
	if result != nil {
		result.Input = inPath
		result.Warnings = reader.Warnings()
	}
	if err != nil {
		return result, err
	}

	if err := p.writeOutputs(result, g, pd, outPath); err != nil {
		return result, err
	}

	result.TotalRuntimeMS = time.Since(startTime).Milliseconds()
	return result, nil
}

// RunGraph partitions g in place. With refine_only set and a pre-partitioned graph the existing
// assignment is refined and region growing is skipped.
func (p *Pipeline) RunGraph(ctx context.Context, g *models.Graph, prePartitioned bool) (*Result, *models.PartitionData, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()

	result := &Result{
		RunID:    runID,
		Parts:    p.params.Parts,
		Accuracy: p.params.Accuracy,
	}

	refineOnly := p.config.RefineOnly() && prePartitioned
	if refineOnly {
		result.Parts = g.Partitions()
	}
	if result.Parts > g.Vertices() {
		return result, nil, models.ValidationError{
			Field:   "parts",
			Message: fmt.Sprintf("cannot split %d vertices into %d partitions", g.Vertices(), result.Parts),
			Value:   fmt.Sprint(result.Parts),
			Err:     models.ErrTooManyPartitions,
		}
	}

	logger.Info().
		Int("vertices", g.Vertices()).
		Int("edges", g.Edges()).
		Int("parts", result.Parts).
		Float64("accuracy", result.Accuracy).
		Bool("refine_only", refineOnly).
		Msg("Starting partitioning run")

	var pd *models.PartitionData
	if refineOnly {
		if err := g.SetBalance(result.Accuracy); err != nil {
			return result, nil, err
		}
		pd = models.NewPartitionDataFromGraph(g)
		result.RefinedOnly = true
	} else {
		pd = models.NewPartitionData(result.Parts)
		stageStart := time.Now()
		rg, err := regiongrowing.Run(ctx, g, result.Parts, pd, result.Accuracy, p.config.RegionGrowingConfig())
		p.metrics.RecordStage(StageRegionGrowing, time.Since(stageStart), err)
		if err != nil {
			return result, nil, fmt.Errorf("region growing failed: %w", err)
		}
		result.RegionGrowing = rg
	}

	stageStart := time.Now()
	refinement, err := fm.Run(ctx, g, pd, p.config.FMConfig())
	p.metrics.RecordStage(StageRefinement, time.Since(stageStart), err)
	result.Refinement = refinement
	if err != nil {
		return result, pd, fmt.Errorf("refinement failed: %w", err)
	}
	p.metrics.RecordRefinement(refinement.InitialCut, refinement.FinalCut, refinement.Moves, refinement.RolledBack)

	stageStart = time.Now()
	err = p.validate(result, g, pd)
	p.metrics.RecordStage(StageValidation, time.Since(stageStart), err)
	if err != nil {
		return result, pd, err
	}
	p.metrics.RecordPartitions(result.Statistics.Sizes, len(result.Statistics.DisconnectedPartitions))

	result.TotalRuntimeMS = time.Since(startTime).Milliseconds()
	logger.Info().
		Int("cut", result.Statistics.CutEdges).
		Ints("sizes", result.Statistics.Sizes).
		Bool("balanced", result.Balanced).
		Int("disconnected", len(result.Statistics.DisconnectedPartitions)).
		Int64("runtime_ms", result.TotalRuntimeMS).
		Msg("Partitioning run completed")
	return result, pd, nil
}

// validate fails on broken invariants and records balance and connectivity shortfalls as issues.
func (p *Pipeline) validate(result *Result, g *models.Graph, pd *models.PartitionData) error {
	result.Balanced = true
	if err := validation.ValidatePartitioning(g, pd); err != nil {
		if !validation.OnlyBalance(err) {
			return fmt.Errorf("partition invariants violated: %w", err)
		}
		result.Balanced = false
		result.Issues = append(result.Issues, err.Error())
	}

	disconnected, err := validation.CrossCheckConnectivity(g)
	if err != nil {
		return fmt.Errorf("connectivity cross-check failed: %w", err)
	}
	if len(disconnected) > 0 {
		result.Issues = append(result.Issues, fmt.Sprintf("disconnected partitions: %v", disconnected))
	}

	result.Statistics = validation.ComputeStatistics(g)
	return nil
}

func (p *Pipeline) writeOutputs(result *Result, g *models.Graph, pd *models.PartitionData, outPath string) error {
	stageStart := time.Now()
	err := p.write(result, g, pd, outPath)
	p.metrics.RecordStage(StageOutput, time.Since(stageStart), err)
	if err != nil {
		return fmt.Errorf("output generation failed: %w", err)
	}

	if path := p.config.MetricsTextfile(); path != "" {
		if err := p.metrics.WriteTextfile(path); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) write(result *Result, g *models.Graph, pd *models.PartitionData, outPath string) error {
	if outPath != "" {
		outFormat, err := parser.ParseFormat(p.params.OutputFormat)
		if err != nil {
			return err
		}
		if err := p.writer.WriteFile(outPath, g, pd, outFormat); err != nil {
			return err
		}
		result.Output = outPath
	}
	if path := p.config.MappingFile(); path != "" {
		if err := p.writer.WriteMapping(path, pd); err != nil {
			return fmt.Errorf("failed to write mapping: %w", err)
		}
	}
	if path := p.config.ReportFile(); path != "" {
		if err := p.writer.WriteReport(path, result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
