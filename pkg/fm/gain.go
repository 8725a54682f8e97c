package fm

import (
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// CutSize counts the edges (u, v), u < v, whose endpoints lie in different partitions.
func CutSize(g *models.Graph) int {
	cut := 0
	for u := 0; u < g.Vertices(); u++ {
		pu := g.PartOf(u)
		for _, v := range g.Neighbours(u) {
			if u < v && g.PartOf(v) != pu {
				cut++
			}
		}
	}
	return cut
}

// Gain is the cut reduction from moving v into partition p: neighbours in p minus
// neighbours in v's own partition.
func Gain(g *models.Graph, v, p int) int {
	own := g.PartOf(v)
	gain := 0
	for _, nb := range g.Neighbours(v) {
		switch g.PartOf(nb) {
		case p:
			gain++
		case own:
			gain--
		}
	}
	return gain
}

// IsBoundary reports whether v has a neighbour in another partition.
func IsBoundary(g *models.Graph, v int) bool {
	own := g.PartOf(v)
	for _, nb := range g.Neighbours(v) {
		if g.PartOf(nb) != own {
			return true
		}
	}
	return false
}

// BoundaryVertices returns the boundary vertices in ascending order.
func BoundaryVertices(g *models.Graph) []int {
	var boundary []int
	for v := 0; v < g.Vertices(); v++ {
		if IsBoundary(g, v) {
			boundary = append(boundary, v)
		}
	}
	return boundary
}

// neighbourParts returns the distinct partitions adjacent to v other than its own,
// in first-seen order.
func neighbourParts(g *models.Graph, v int, buf []int) []int {
	own := g.PartOf(v)
	buf = buf[:0]
	for _, nb := range g.Neighbours(v) {
		p := g.PartOf(nb)
		if p == own || p == models.Unassigned {
			continue
		}
		seen := false
		for _, q := range buf {
			if q == p {
				seen = true
				break
			}
		}
		if !seen {
			buf = append(buf, p)
		}
	}
	return buf
}

// balanceFeasible reports whether moving one vertex from src to tgt keeps both within bounds.
func balanceFeasible(sizes []int, src, tgt, minCount, maxCount int) bool {
	return sizes[src]-1 >= minCount && sizes[tgt]+1 <= maxCount
}

// MoveAnalysis summarises the single-vertex moves available from a partition state.
type MoveAnalysis struct {
	BoundaryVertices  int `json:"boundary_vertices" yaml:"boundary_vertices"`
	TotalMoves        int `json:"total_moves" yaml:"total_moves"`
	FeasibleMoves     int `json:"feasible_moves" yaml:"feasible_moves"`
	BalanceViolations int `json:"balance_violations" yaml:"balance_violations"`
	PositiveGainMoves int `json:"positive_gain_moves" yaml:"positive_gain_moves"`
	BestGain          int `json:"best_gain" yaml:"best_gain"`
}

// AnalyzeMoves enumerates every boundary vertex against each adjacent foreign partition.
func AnalyzeMoves(g *models.Graph, sizes []int) MoveAnalysis {
	var a MoveAnalysis
	var buf []int
	first := true
	for v := 0; v < g.Vertices(); v++ {
		if !IsBoundary(g, v) {
			continue
		}
		a.BoundaryVertices++
		src := g.PartOf(v)
		buf = neighbourParts(g, v, buf)
		for _, p := range buf {
			a.TotalMoves++
			if src < 0 || src >= len(sizes) || p >= len(sizes) ||
				!balanceFeasible(sizes, src, p, g.MinCount(), g.MaxCount()) {
				a.BalanceViolations++
				continue
			}
			a.FeasibleMoves++
			gain := Gain(g, v, p)
			if gain > 0 {
				a.PositiveGainMoves++
			}
			if first || gain > a.BestGain {
				a.BestGain = gain
				first = false
			}
		}
	}
	return a
}
