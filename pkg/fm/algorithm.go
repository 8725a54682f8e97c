// Package fm refines a k-way partition with Fiduccia-Mattheyses style local search.
package fm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partitioning-service/pkg/connectivity"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
	"github.com/gilchrisn/graph-partitioning-service/pkg/utils"
)

// ErrBoundsUnset indicates the graph's balance bounds were never configured.
var ErrBoundsUnset = errors.New("fm: balance bounds not configured")

// Result represents the refinement output
type Result struct {
	InitialCut int          `json:"initial_cut" yaml:"initial_cut"`
	FinalCut   int          `json:"final_cut" yaml:"final_cut"`
	Passes     int          `json:"passes" yaml:"passes"`
	Moves      int          `json:"moves" yaml:"moves"`
	RolledBack int          `json:"rolled_back" yaml:"rolled_back"`
	Unmovable  []int        `json:"unmovable,omitempty" yaml:"unmovable,omitempty"`
	CutTrace   []int        `json:"cut_trace" yaml:"cut_trace"`
	PassCuts   []int        `json:"pass_cuts" yaml:"pass_cuts"`
	Analysis   MoveAnalysis `json:"analysis" yaml:"analysis"`
	RuntimeMS  int64        `json:"runtime_ms" yaml:"runtime_ms"`
}

type move struct {
	vertex int
	from   int
	to     int
	gain   int
}

type refiner struct {
	graph     *models.Graph
	pd        *models.PartitionData
	preserve  bool
	maxMoves  int
	tracker   *connectivity.Tracker
	locked    []bool
	unmovable []bool
	moves     *utils.MoveTracker
	logger    zerolog.Logger
	result    *Result
}

// Run improves the cut of an already partitioned graph in place.
//
// The graph must carry a complete assignment consistent with pd and configured balance bounds.
// Cancellation is honoured between passes; the graph then holds the best assignment found and
// the partial result is returned with the wrapped context error.
func Run(ctx context.Context, graph *models.Graph, pd *models.PartitionData, config *Config) (*Result, error) {
	startTime := time.Now()
	if config == nil {
		config = NewConfig()
	}
	if err := checkInput(graph, pd); err != nil {
		return nil, err
	}
	logger := config.Logger()

	initialCut := CutSize(graph)
	result := &Result{
		InitialCut: initialCut,
		FinalCut:   initialCut,
		CutTrace:   []int{},
		PassCuts:   []int{},
	}
	result.Analysis = AnalyzeMoves(graph, pd.Sizes())
	logPartitionStats(logger, graph, pd)
	logger.Debug().
		Int("boundary_vertices", result.Analysis.BoundaryVertices).
		Int("total_moves", result.Analysis.TotalMoves).
		Int("feasible_moves", result.Analysis.FeasibleMoves).
		Int("balance_violations", result.Analysis.BalanceViolations).
		Int("positive_gain_moves", result.Analysis.PositiveGainMoves).
		Msg("Move analysis")

	if initialCut == 0 || pd.PartsCount() <= 1 {
		logger.Info().Int("cut", initialCut).Msg("Nothing to refine")
		result.RuntimeMS = time.Since(startTime).Milliseconds()
		return result, nil
	}

	maxPasses := config.MaxPasses()
	if maxPasses <= 0 {
		logger.Warn().Int("max_passes", maxPasses).Int("fallback", defaultMaxPasses).Msg("Invalid pass limit")
		maxPasses = defaultMaxPasses
	}
	maxMoves := config.MaxMovesPerPass()
	if maxMoves <= 0 {
		maxMoves = graph.Vertices()
	}

	r := &refiner{
		graph:     graph,
		pd:        pd,
		preserve:  config.PreserveConnectivity(),
		maxMoves:  maxMoves,
		locked:    make([]bool, graph.Vertices()),
		unmovable: make([]bool, graph.Vertices()),
		logger:    logger,
		result:    result,
	}
	if r.preserve {
		r.tracker = connectivity.NewTracker(graph)
	}
	if config.TrackMoves() {
		mt, err := utils.NewMoveTracker(config.MoveOutputFile())
		if err != nil {
			return nil, fmt.Errorf("failed to create move tracker: %w", err)
		}
		defer mt.Close()
		r.moves = mt
	}

	logger.Info().
		Int("vertices", graph.Vertices()).
		Int("parts", pd.PartsCount()).
		Int("initial_cut", initialCut).
		Int("max_passes", maxPasses).
		Bool("preserve_connectivity", r.preserve).
		Msg("Starting FM refinement")

	bestCut := initialCut
	for pass := 1; pass <= maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			r.finish(bestCut, startTime)
			return result, fmt.Errorf("fm refinement cancelled before pass %d: %w", pass, err)
		}

		log, passCut := r.runPass(pass, bestCut)

		if passCut >= bestCut {
			// no improvement: unwind to the global best and stop
			r.undo(pass, log, passCut)
			logger.Debug().Int("pass", pass).Msg("Pass did not improve the cut")
			break
		}

		bestCut = passCut
		result.Passes++
		result.PassCuts = append(result.PassCuts, passCut)
		logger.Debug().
			Int("pass", pass).
			Int("cut", passCut).
			Int("moves", len(log)).
			Msg("Pass improved the cut")

		if bestCut == 0 {
			break
		}
	}

	r.finish(bestCut, startTime)
	logger.Info().
		Int("initial_cut", result.InitialCut).
		Int("final_cut", result.FinalCut).
		Int("passes", result.Passes).
		Int("moves", result.Moves).
		Int("rolled_back", result.RolledBack).
		Int64("runtime_ms", result.RuntimeMS).
		Msg("FM refinement completed")
	return result, nil
}

// checkInput rejects graphs FM cannot refine.
func checkInput(graph *models.Graph, pd *models.PartitionData) error {
	if graph == nil || pd == nil {
		return fmt.Errorf("fm: graph and partition data are required")
	}
	if graph.Vertices() == 0 {
		return nil
	}
	if pd.PartsCount() != graph.Partitions() {
		return models.ValidationError{
			Field:   "partitions",
			Message: fmt.Sprintf("partition data has %d parts but graph has %d", pd.PartsCount(), graph.Partitions()),
			Err:     models.ErrInconsistentPartition,
		}
	}
	if graph.MaxCount() == 0 {
		return models.ValidationError{Field: "max_count", Message: "balance bounds must be set before refinement", Err: ErrBoundsUnset}
	}
	for v := 0; v < graph.Vertices(); v++ {
		if p := graph.PartOf(v); p < 0 || p >= pd.PartsCount() {
			return models.ValidationError{
				Field:   "assignment",
				Message: fmt.Sprintf("vertex %d has partition %d", v, p),
				Value:   fmt.Sprint(p),
				Err:     models.ErrPartitionOutOfRange,
			}
		}
	}
	return pd.Verify(graph)
}

// runPass performs one FM pass starting at cut and returns its move log, already trimmed to
// the best prefix, and the cut at that prefix.
func (r *refiner) runPass(pass, cut int) ([]move, int) {
	for i := range r.locked {
		r.locked[i] = false
	}

	var log []move
	bestCut, bestLen := cut, 0
	for step := 0; step < r.maxMoves; step++ {
		m, ok := r.selectMove()
		if !ok {
			break
		}

		if err := r.pd.Assign(r.graph, m.vertex, m.to); err != nil {
			r.logger.Error().Err(err).Int("vertex", m.vertex).Msg("Move failed")
			break
		}
		if r.preserve && r.tracker.BrokenBy(m.from, m.to) {
			if err := r.pd.Assign(r.graph, m.vertex, m.from); err != nil {
				r.logger.Error().Err(err).Int("vertex", m.vertex).Msg("Rollback failed")
				break
			}
			r.unmovable[m.vertex] = true
			r.result.RolledBack++
			r.track(pass, utils.MoveRolledBack, m, cut)
			continue
		}
		if r.preserve {
			r.tracker.Refresh(m.from, m.to)
		}

		cut -= m.gain
		r.locked[m.vertex] = true
		log = append(log, m)
		r.result.Moves++
		r.result.CutTrace = append(r.result.CutTrace, cut)
		r.track(pass, utils.MoveCommitted, m, cut)

		if cut < bestCut {
			bestCut, bestLen = cut, len(log)
		}
		if cut == 0 {
			break
		}
	}

	r.undo(pass, log[bestLen:], cut)
	return log[:bestLen], bestCut
}

// selectMove finds the unlocked boundary vertex and target with the strictly highest positive
// gain among moves that satisfy balance and, when preserving, source connectivity.
// Ties keep the lowest vertex id and the first adjacent partition found.
func (r *refiner) selectMove() (move, bool) {
	g := r.graph
	best := move{gain: 0}
	found := false
	var parts []int
	for v := 0; v < g.Vertices(); v++ {
		if r.locked[v] || r.unmovable[v] || !IsBoundary(g, v) {
			continue
		}
		src := g.PartOf(v)
		removable := -1
		parts = neighbourParts(g, v, parts)
		for _, p := range parts {
			gain := Gain(g, v, p)
			if gain <= best.gain {
				continue
			}
			if r.pd.Size(src)-1 < g.MinCount() || r.pd.Size(p)+1 > g.MaxCount() {
				continue
			}
			if r.preserve {
				if removable == -1 {
					removable = 0
					if connectivity.WouldStayConnectedIfRemoved(g, v) {
						removable = 1
					}
				}
				if removable == 0 {
					break
				}
			}
			best = move{vertex: v, from: src, to: p, gain: gain}
			found = true
		}
	}
	return best, found
}

// undo reverts moves newest first, starting from cut.
func (r *refiner) undo(pass int, log []move, cut int) {
	for i := len(log) - 1; i >= 0; i-- {
		m := log[i]
		if err := r.pd.Assign(r.graph, m.vertex, m.from); err != nil {
			r.logger.Error().Err(err).Int("vertex", m.vertex).Msg("Undo failed")
			continue
		}
		if r.preserve {
			r.tracker.Refresh(m.from, m.to)
		}
		cut += m.gain
		r.track(pass, utils.MoveUndone, move{vertex: m.vertex, from: m.to, to: m.from, gain: -m.gain}, cut)
	}
}

func (r *refiner) track(pass int, kind string, m move, cut int) {
	if err := r.moves.LogMove(pass, kind, m.vertex, m.from, m.to, m.gain, cut); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to record move")
	}
}

func (r *refiner) finish(cut int, startTime time.Time) {
	r.result.FinalCut = cut
	for v, banned := range r.unmovable {
		if banned {
			r.result.Unmovable = append(r.result.Unmovable, v)
		}
	}
	r.result.RuntimeMS = time.Since(startTime).Milliseconds()
}

// logPartitionStats logs every partition's size as a percentage of the average.
func logPartitionStats(logger zerolog.Logger, graph *models.Graph, pd *models.PartitionData) {
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	avg := graph.Average()
	for p, size := range pd.Sizes() {
		pct := 0.0
		if avg > 0 {
			pct = float64(size) / avg * 100
		}
		logger.Debug().
			Int("partition", p).
			Int("size", size).
			Float64("pct_of_average", pct).
			Msg("Partition stats")
	}
}
