package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partitioning-service/pkg/generator"
	"github.com/gilchrisn/graph-partitioning-service/pkg/output"
	"github.com/gilchrisn/graph-partitioning-service/pkg/parser"
	"github.com/gilchrisn/graph-partitioning-service/pkg/pipeline"
)

func main() {
	var (
		configFile = flag.String("config", "", "YAML/JSON config file loaded before flags are applied")

		// Partitioning flags
		parts      = flag.Int("parts", 2, "Number of partitions")
		accuracy   = flag.Float64("accuracy", 0.1, "Allowed deviation from the average partition size, 0.0-1.0")
		passes     = flag.Int("passes", 100, "Maximum FM passes")
		seed       = flag.Int64("seed", 0, "Random seed for region growing (0 = config default)")
		cutOnly    = flag.Bool("cut-only", false, "Let FM break partition connectivity to lower the cut")
		refineOnly = flag.Bool("refine-only", false, "Refine a pre-partitioned input instead of growing regions")
		noRepair   = flag.Bool("no-repair", false, "Skip the connectivity repair after region growing")

		// I/O flags
		inFormat  = flag.String("format", "auto", "Input format: auto, text, binary, legacy")
		outFormat = flag.String("out-format", "auto", "Output format: auto, text, binary, legacy")
		generate  = flag.String("generate", "", "Generate the input instead of reading it, e.g. grid:8x8, random:100:300")
		convert   = flag.Bool("convert", false, "Only convert a binary input to text")
		report    = flag.String("report", "", "Write a run report (.yaml or .json)")
		mapping   = flag.String("mapping", "", "Write the partition membership listing")
		metrics   = flag.String("metrics", "", "Write Prometheus metrics in textfile format")
		moves     = flag.String("moves", "", "Record every FM move as JSON lines")
		logLevel  = flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input_file> [output_file]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [flags] -generate <kind:args> [output_file]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s -parts=4 -accuracy=0.05 graph.txt graph.part.bin\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -refine-only -passes=20 graph.part.txt refined.txt\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -generate=grid:32x32 -parts=8 -report=run.yaml grid.txt\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -convert graph.bin graph.txt\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generators: path:N, cycle:N, grid:RxC, complete:N, random:N:M\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()

	var inPath, outPath string
	switch {
	case *generate != "" && len(args) <= 1:
		if len(args) == 1 {
			outPath = args[0]
		}
	case *generate == "" && (len(args) == 1 || len(args) == 2):
		inPath = args[0]
		if len(args) == 2 {
			outPath = args[1]
		}
	default:
		flag.Usage()
		os.Exit(1)
	}

	config := pipeline.NewConfig()
	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			log.Fatalf("Failed to load config %s: %v", *configFile, err)
		}
	}

	// explicitly passed flags override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "parts":
			config.Set("partition.parts", *parts)
		case "accuracy":
			config.Set("partition.accuracy", *accuracy)
		case "refine-only":
			config.Set("partition.refine_only", *refineOnly)
		case "passes":
			config.Set("fm.max_passes", *passes)
		case "seed":
			config.Set("region_growing.random_seed", *seed)
		case "cut-only":
			config.Set("fm.preserve_connectivity", !*cutOnly)
		case "no-repair":
			config.Set("region_growing.repair", !*noRepair)
		case "format":
			config.Set("input.format", *inFormat)
		case "out-format":
			config.Set("output.format", *outFormat)
		case "report":
			config.Set("output.report_file", *report)
		case "mapping":
			config.Set("output.mapping_file", *mapping)
		case "metrics":
			config.Set("metrics.textfile", *metrics)
		case "moves":
			config.Set("fm.track_moves", true)
			config.Set("fm.moves_file", *moves)
		case "log-level":
			config.Set("logging.level", *logLevel)
		}
	})
	logger := config.CreateLogger()
	config.SetLogger(logger)

	if *convert {
		if outPath == "" {
			log.Fatalf("-convert needs an output file")
		}
		format, err := parser.ParseFormat(config.InputFormat())
		if err != nil {
			log.Fatalf("Invalid input format: %v", err)
		}
		if err := parser.NewReader(logger).ConvertBinaryToText(inPath, outPath, format); err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}
		fmt.Printf("Converted %s -> %s\n", inPath, outPath)
		return
	}

	p, err := pipeline.New(config)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *pipeline.Result
	if *generate != "" {
		result, err = runGenerated(ctx, p, config, logger, *generate, outPath)
	} else {
		result, err = p.Run(ctx, inPath, outPath)
	}
	if err != nil {
		log.Fatalf("Partitioning failed: %v", err)
	}

	displayResults(result)
}

// runGenerated partitions a synthetic graph and writes it the way Pipeline.Run does for files.
func runGenerated(ctx context.Context, p *pipeline.Pipeline, config *pipeline.Config, logger zerolog.Logger, spec, outPath string) (*pipeline.Result, error) {
	g, err := generator.Parse(spec, config.RegionGrowingConfig().RandomSeed())
	if err != nil {
		return nil, err
	}
	logger.Info().Str("generator", spec).Int("vertices", g.Vertices()).Int("edges", g.Edges()).Msg("Generated graph")

	result, pd, err := p.RunGraph(ctx, g, false)
	if err != nil {
		return result, err
	}
	result.Input = spec

	writer := output.NewFileWriter()
	if outPath != "" {
		format, err := parser.ParseFormat(config.OutputFormat())
		if err != nil {
			return result, err
		}
		if err := writer.WriteFile(outPath, g, pd, format); err != nil {
			return result, fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		result.Output = outPath
	}
	if path := config.MappingFile(); path != "" {
		if err := writer.WriteMapping(path, pd); err != nil {
			return result, err
		}
	}
	if path := config.ReportFile(); path != "" {
		if err := writer.WriteReport(path, result); err != nil {
			return result, err
		}
	}
	if path := config.MetricsTextfile(); path != "" {
		if err := p.Metrics().WriteTextfile(path); err != nil {
			return result, err
		}
	}
	return result, nil
}

func displayResults(result *pipeline.Result) {
	fmt.Println("\n=== Results ===")
	fmt.Printf("Run: %s\n", result.RunID)
	if result.Input != "" {
		fmt.Printf("Input: %s\n", filepath.Base(result.Input))
	}
	stats := result.Statistics
	fmt.Printf("Vertices: %d, edges: %d, partitions: %d\n", stats.Vertices, stats.Edges, stats.Partitions)
	if rg := result.RegionGrowing; rg != nil {
		fmt.Printf("Region growing: %d iterations, %d stragglers, %d forced, %d repaired\n",
			rg.Iterations, rg.Stragglers, rg.Forced, rg.Repaired)
	}
	if fm := result.Refinement; fm != nil {
		fmt.Printf("FM: cut %d -> %d in %d passes (%d moves, %d rolled back)\n",
			fm.InitialCut, fm.FinalCut, fm.Passes, fm.Moves, fm.RolledBack)
	}
	fmt.Printf("Cut edges: %d (%.2f%%)\n", stats.CutEdges, stats.CutRatio*100)
	fmt.Printf("Sizes: %v (imbalance %.3f)\n", stats.Sizes, stats.Imbalance)
	fmt.Printf("Balanced: %t\n", result.Balanced)
	for _, issue := range result.Issues {
		fmt.Printf("  ! %s\n", issue)
	}
	if result.Output != "" {
		fmt.Printf("Output: %s\n", result.Output)
	}
	fmt.Printf("Runtime: %d ms\n", result.TotalRuntimeMS)
}
