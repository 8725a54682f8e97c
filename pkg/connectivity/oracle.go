// Package connectivity answers BFS reachability questions about the subgraph induced by one partition.
//
// Every query is O(V+E). Callers in hot loops should prefer Tracker, which only recomputes the
// partitions a move can affect.
package connectivity

import (
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// IsPartitionConnected reports whether the vertices with partId == partID induce a connected subgraph.
// Empty and single-vertex partitions are connected.
func IsPartitionConnected(g *models.Graph, partID int) bool {
	return reachesAll(g, partID, -1)
}

// WouldStayConnectedIfRemoved reports whether v's partition stays connected once v leaves it.
func WouldStayConnectedIfRemoved(g *models.Graph, v int) bool {
	if v < 0 || v >= g.Vertices() {
		return false
	}
	return reachesAll(g, g.PartOf(v), v)
}

// reachesAll runs a BFS over the partition, never entering excluded.
func reachesAll(g *models.Graph, partID, excluded int) bool {
	members := 0
	start := -1
	for v := 0; v < g.Vertices(); v++ {
		if v != excluded && g.PartOf(v) == partID {
			if start == -1 {
				start = v
			}
			members++
		}
	}
	if members <= 1 {
		return true
	}

	visited := make([]bool, g.Vertices())
	queue := make([]int, 0, members)
	queue = append(queue, start)
	visited[start] = true
	reached := 1

	for qi := 0; qi < len(queue); qi++ {
		for _, nb := range g.Neighbours(queue[qi]) {
			if nb == excluded || visited[nb] || g.PartOf(nb) != partID {
				continue
			}
			visited[nb] = true
			queue = append(queue, nb)
			reached++
		}
	}
	return reached == members
}

// Components returns the connected components of partition partID.
// Each component lists vertices in BFS order; components are ordered by their smallest vertex.
func Components(g *models.Graph, partID int) [][]int {
	visited := make([]bool, g.Vertices())
	var comps [][]int

	for v := 0; v < g.Vertices(); v++ {
		if visited[v] || g.PartOf(v) != partID {
			continue
		}
		queue := []int{v}
		visited[v] = true
		for qi := 0; qi < len(queue); qi++ {
			for _, nb := range g.Neighbours(queue[qi]) {
				if !visited[nb] && g.PartOf(nb) == partID {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		comps = append(comps, queue)
	}
	return comps
}

// Largest returns the index of the largest component, the earliest on ties, or -1 for none.
func Largest(comps [][]int) int {
	best := -1
	for i, c := range comps {
		if best == -1 || len(c) > len(comps[best]) {
			best = i
		}
	}
	return best
}

// DisconnectedPartitions lists the partitions in [0, g.Partitions()) whose induced subgraph is disconnected.
func DisconnectedPartitions(g *models.Graph) []int {
	var out []int
	for p := 0; p < g.Partitions(); p++ {
		if !IsPartitionConnected(g, p) {
			out = append(out, p)
		}
	}
	return out
}

// AllConnected reports whether every partition of g is connected.
func AllConnected(g *models.Graph) bool {
	return len(DisconnectedPartitions(g)) == 0
}
