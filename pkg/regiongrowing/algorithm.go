// Package regiongrowing builds an initial balanced k-way partition by growing regions
// breadth-first from spread-out seeds.
package regiongrowing

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partitioning-service/pkg/connectivity"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// balanceTolerance absorbs float noise in the size-ratio check.
const balanceTolerance = 1e-9

// Result represents the region growing output
type Result struct {
	Seeds        []int `json:"seeds" yaml:"seeds"`
	Iterations   int   `json:"iterations" yaml:"iterations"`
	Grown        int   `json:"grown" yaml:"grown"`
	Stragglers   int   `json:"stragglers" yaml:"stragglers"`
	Forced       int   `json:"forced" yaml:"forced"`
	Repaired     int   `json:"repaired" yaml:"repaired"`
	Disconnected []int `json:"disconnected,omitempty" yaml:"disconnected,omitempty"`
	Sizes        []int `json:"sizes" yaml:"sizes"`
	Balanced     bool  `json:"balanced" yaml:"balanced"`
	RuntimeMS    int64 `json:"runtime_ms" yaml:"runtime_ms"`
}

// state is the mutable bookkeeping of one run.
type state struct {
	graph     *models.Graph
	pd        *models.PartitionData
	parts     int
	visited   []bool
	frontiers []frontier
	logger    zerolog.Logger
}

// Run partitions graph into parts regions and records them in pd.
//
// Node partIds and pd are reset first. The graph's partition count and balance bounds are
// set from parts and accuracy. Result.Balanced is advisory: an unbalanced result is not an error.
func Run(ctx context.Context, graph *models.Graph, parts int, pd *models.PartitionData, accuracy float64, config *Config) (*Result, error) {
	startTime := time.Now()
	if graph == nil || pd == nil {
		return nil, fmt.Errorf("region growing: graph and partition data are required")
	}
	if config == nil {
		config = NewConfig()
	}
	logger := config.Logger()

	if graph.Vertices() == 0 {
		pd.Reset(max(parts, 0))
		return &Result{Balanced: true, Sizes: pd.Sizes()}, nil
	}
	if parts <= 0 {
		return nil, models.ValidationError{Field: "parts", Message: "must be greater than 0",
			Value: fmt.Sprint(parts), Err: models.ErrInvalidPartitionCount}
	}
	if parts > graph.Vertices() {
		return nil, models.ValidationError{Field: "parts",
			Message: fmt.Sprintf("cannot split %d vertices into %d partitions", graph.Vertices(), parts),
			Value:   fmt.Sprint(parts), Err: models.ErrTooManyPartitions}
	}
	if err := graph.SetPartitions(parts); err != nil {
		return nil, err
	}
	if err := graph.SetBalance(accuracy); err != nil {
		return nil, err
	}

	graph.ResetAssignments()
	pd.Reset(parts)

	logger.Info().
		Int("vertices", graph.Vertices()).
		Int("edges", graph.Edges()).
		Int("parts", parts).
		Int("min_count", graph.MinCount()).
		Int("max_count", graph.MaxCount()).
		Msg("Starting region growing")

	s := &state{
		graph:     graph,
		pd:        pd,
		parts:     parts,
		visited:   make([]bool, graph.Vertices()),
		frontiers: make([]frontier, parts),
		logger:    logger,
	}
	result := &Result{}

	rng := rand.New(rand.NewSource(config.RandomSeed()))
	result.Seeds = GenerateSeeds(graph, parts, rng, config.SeedAttempts())
	for p, seed := range result.Seeds {
		if err := s.claim(seed, p); err != nil {
			return nil, err
		}
	}
	logger.Debug().Ints("seeds", result.Seeds).Msg("Seeds placed")

	grown, iterations, err := s.grow(config.IterationFactor())
	if err != nil {
		return nil, err
	}
	result.Grown, result.Iterations = grown, iterations

	if ctx.Err() != nil {
		return nil, fmt.Errorf("region growing cancelled after expansion: %w", ctx.Err())
	}

	stragglers, forced, err := s.assignStragglers()
	if err != nil {
		return nil, err
	}
	result.Stragglers, result.Forced = stragglers, forced
	if stragglers+forced > 0 {
		logger.Debug().
			Int("adjacent", stragglers).
			Int("forced", forced).
			Msg("Assigned vertices left over after expansion")
	}

	if config.Repair() {
		repaired, err := s.repair()
		if err != nil {
			return nil, err
		}
		result.Repaired = repaired
	}

	result.Disconnected = connectivity.DisconnectedPartitions(graph)
	if len(result.Disconnected) > 0 {
		logger.Warn().
			Ints("partitions", result.Disconnected).
			Msg("Partitions remain disconnected after repair")
	}

	result.Sizes = pd.Sizes()
	result.Balanced = isBalanced(result.Sizes, graph.Average(), accuracy)
	result.RuntimeMS = time.Since(startTime).Milliseconds()

	logger.Info().
		Ints("sizes", result.Sizes).
		Bool("balanced", result.Balanced).
		Int("iterations", result.Iterations).
		Int("repaired", result.Repaired).
		Int64("runtime_ms", result.RuntimeMS).
		Msg("Region growing completed")

	return result, nil
}

// claim assigns v to partition p, marks it visited and queues its unvisited neighbours.
func (s *state) claim(v, p int) error {
	if err := s.pd.Assign(s.graph, v, p); err != nil {
		return err
	}
	s.visited[v] = true
	for _, nb := range s.graph.Neighbours(v) {
		if !s.visited[nb] {
			s.frontiers[p].push(nb)
		}
	}
	return nil
}

// grow expands the smallest active partition one vertex at a time.
// It returns the number of vertices claimed and the iterations spent.
func (s *state) grow(iterationFactor int) (int, int, error) {
	if iterationFactor <= 0 {
		iterationFactor = 2
	}
	maxIterations := s.graph.Vertices() * s.parts * iterationFactor
	maxCount := s.graph.MaxCount()

	unassigned := s.graph.Vertices()
	active := make([]bool, s.parts)
	for p := 0; p < s.parts; p++ {
		unassigned -= s.pd.Size(p)
		active[p] = true
	}

	grown := 0
	iterations := 0
	for unassigned > 0 && iterations < maxIterations {
		best := -1
		for p := 0; p < s.parts; p++ {
			if !active[p] {
				continue
			}
			if s.frontiers[p].empty() || s.pd.Size(p) >= maxCount {
				active[p] = false
				continue
			}
			if best == -1 || s.pd.Size(p) < s.pd.Size(best) {
				best = p
			}
		}
		if best == -1 {
			break
		}

		v, ok := s.nextCandidate(best)
		if !ok {
			active[best] = false
			iterations++
			continue
		}
		if err := s.claim(v, best); err != nil {
			return grown, iterations, err
		}
		grown++
		unassigned--
		iterations++
	}

	s.logger.Debug().
		Int("grown", grown).
		Int("iterations", iterations).
		Int("unassigned", unassigned).
		Msg("Expansion finished")
	return grown, iterations, nil
}

// nextCandidate pops p's frontier until it finds an unvisited vertex adjacent to p.
func (s *state) nextCandidate(p int) (int, bool) {
	for {
		v, ok := s.frontiers[p].pop()
		if !ok {
			return 0, false
		}
		if s.visited[v] {
			continue
		}
		if s.adjacentTo(v, p) {
			return v, true
		}
	}
}

func (s *state) adjacentTo(v, p int) bool {
	for _, nb := range s.graph.Neighbours(v) {
		if s.graph.PartOf(nb) == p {
			return true
		}
	}
	return false
}

// smallestNeighbourPart returns the smallest partition among v's assigned neighbours, excluding
// exclude, or -1 if there is none. Ties go to the lowest id.
func (s *state) smallestNeighbourPart(v, exclude int) int {
	best := -1
	for _, nb := range s.graph.Neighbours(v) {
		p := s.graph.PartOf(nb)
		if p == models.Unassigned || p == exclude {
			continue
		}
		if best == -1 || s.pd.Size(p) < s.pd.Size(best) || (s.pd.Size(p) == s.pd.Size(best) && p < best) {
			best = p
		}
	}
	return best
}

// assignStragglers places vertices the expansion never reached. Rounds of adjacency-preserving
// placement run until none makes progress; anything left goes to the globally smallest partition.
func (s *state) assignStragglers() (int, int, error) {
	adjacent := 0
	for progress := true; progress; {
		progress = false
		for v := 0; v < s.graph.Vertices(); v++ {
			if s.graph.PartOf(v) != models.Unassigned {
				continue
			}
			p := s.smallestNeighbourPart(v, models.Unassigned)
			if p == -1 {
				continue
			}
			if err := s.pd.Assign(s.graph, v, p); err != nil {
				return adjacent, 0, err
			}
			s.visited[v] = true
			adjacent++
			progress = true
		}
	}

	forced := 0
	for v := 0; v < s.graph.Vertices(); v++ {
		if s.graph.PartOf(v) != models.Unassigned {
			continue
		}
		p := smallestPart(s.pd.Sizes())
		if err := s.pd.Assign(s.graph, v, p); err != nil {
			return adjacent, forced, err
		}
		s.visited[v] = true
		forced++
	}
	return adjacent, forced, nil
}

// smallestPart returns the id of the smallest partition, the lowest id on ties.
func smallestPart(sizes []int) int {
	best := 0
	for p, size := range sizes {
		if size < sizes[best] {
			best = p
		}
	}
	return best
}

// isBalanced reports whether every size/avg ratio lies within [1-accuracy, 1+accuracy].
func isBalanced(sizes []int, avg, accuracy float64) bool {
	if avg <= 0 {
		return true
	}
	for _, size := range sizes {
		ratio := float64(size) / avg
		if ratio < 1.0-accuracy-balanceTolerance || ratio > 1.0+accuracy+balanceTolerance {
			return false
		}
	}
	return true
}
