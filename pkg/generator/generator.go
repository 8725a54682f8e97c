// Package generator builds deterministic synthetic graphs for experiments and tests.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

var (
	// ErrTooFewVertices indicates a size parameter below the constructor's minimum.
	ErrTooFewVertices = errors.New("generator: parameter too small")
	// ErrTooManyEdges indicates more edges than a simple graph on n vertices can hold.
	ErrTooManyEdges = errors.New("generator: edge count exceeds n(n-1)/2")
	// ErrInvalidSpec indicates a generator description that cannot be parsed.
	ErrInvalidSpec = errors.New("generator: invalid graph spec")
)

// Path returns 0-1-...-(n-1).
func Path(n int) (*models.Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("Path: n=%d: %w", n, ErrTooFewVertices)
	}
	g := models.NewGraph(n)
	for i := 0; i+1 < n; i++ {
		mustAdd(g, i, i+1)
	}
	return g, nil
}

// Cycle returns a ring on n >= 3 vertices.
func Cycle(n int) (*models.Graph, error) {
	if n < 3 {
		return nil, fmt.Errorf("Cycle: n=%d < 3: %w", n, ErrTooFewVertices)
	}
	g, _ := Path(n)
	mustAdd(g, n-1, 0)
	return g, nil
}

// Grid returns a rows×cols 4-neighbour lattice with vertex r*cols+c at row r, column c.
func Grid(rows, cols int) (*models.Graph, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("Grid: %dx%d: %w", rows, cols, ErrTooFewVertices)
	}
	g := models.NewGraph(rows * cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := r*cols + c
			if c+1 < cols {
				mustAdd(g, v, v+1)
			}
			if r+1 < rows {
				mustAdd(g, v, v+cols)
			}
		}
	}
	return g, nil
}

// Complete returns K_n.
func Complete(n int) (*models.Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("Complete: n=%d: %w", n, ErrTooFewVertices)
	}
	g := models.NewGraph(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			mustAdd(g, i, j)
		}
	}
	return g, nil
}

// RandomSparse returns a connected graph on n vertices with exactly edges edges: a random
// spanning tree, then uniformly sampled extra edges. edges must be at least n-1.
func RandomSparse(n, edges int, rng *rand.Rand) (*models.Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("RandomSparse: n=%d: %w", n, ErrTooFewVertices)
	}
	if edges < n-1 {
		return nil, fmt.Errorf("RandomSparse: %d edges cannot connect %d vertices: %w", edges, n, ErrTooFewVertices)
	}
	if int64(edges) > int64(n)*int64(n-1)/2 {
		return nil, fmt.Errorf("RandomSparse: n=%d edges=%d: %w", n, edges, ErrTooManyEdges)
	}

	g := models.NewGraph(n)
	order := rng.Perm(n)
	for i := 1; i < n; i++ {
		mustAdd(g, order[i], order[rng.Intn(i)])
	}
	for g.Edges() < edges {
		u, v := rng.Intn(n), rng.Intn(n)
		if u == v {
			continue
		}
		mustAdd(g, u, v)
	}
	return g, nil
}

// Parse builds a graph from a description such as "path:10", "cycle:12", "grid:8x8",
// "complete:5" or "random:100:300".
func Parse(spec string, seed int64) (*models.Graph, error) {
	kind, args, _ := strings.Cut(strings.ToLower(strings.TrimSpace(spec)), ":")
	switch kind {
	case "path", "cycle", "complete":
		n, err := strconv.Atoi(args)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
		}
		switch kind {
		case "path":
			return Path(n)
		case "cycle":
			return Cycle(n)
		}
		return Complete(n)
	case "grid":
		rs, cs, ok := strings.Cut(args, "x")
		rows, err1 := strconv.Atoi(rs)
		cols, err2 := strconv.Atoi(cs)
		if !ok || err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
		}
		return Grid(rows, cols)
	case "random":
		ns, es, ok := strings.Cut(args, ":")
		n, err1 := strconv.Atoi(ns)
		edges, err2 := strconv.Atoi(es)
		if !ok || err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
		}
		return RandomSparse(n, edges, rand.New(rand.NewSource(seed)))
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, kind)
}

// mustAdd adds an edge whose endpoints the caller has already range checked.
func mustAdd(g *models.Graph, u, v int) {
	if _, err := g.AddEdge(u, v); err != nil {
		panic(err)
	}
}
