package connectivity

import (
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// Tracker caches the connectivity status of every partition.
//
// A single-vertex move only changes the source and target partitions, so after a move
// Refresh(src, tgt) brings the cache back in line with a full recheck.
type Tracker struct {
	graph     *models.Graph
	connected []bool
}

// NewTracker computes the status of every partition of g.
func NewTracker(g *models.Graph) *Tracker {
	t := &Tracker{graph: g, connected: make([]bool, g.Partitions())}
	for p := range t.connected {
		t.connected[p] = IsPartitionConnected(g, p)
	}
	return t
}

// Connected returns the cached status of partition p. Unknown ids read as connected.
func (t *Tracker) Connected(p int) bool {
	if p < 0 || p >= len(t.connected) {
		return true
	}
	return t.connected[p]
}

// Refresh recomputes the listed partitions.
func (t *Tracker) Refresh(parts ...int) {
	for _, p := range parts {
		if p >= 0 && p < len(t.connected) {
			t.connected[p] = IsPartitionConnected(t.graph, p)
		}
	}
}

// BrokenBy reports whether partition src or tgt was connected before a move and is not any more.
// The cache is left untouched so the caller can roll back without refreshing.
func (t *Tracker) BrokenBy(src, tgt int) bool {
	for _, p := range []int{src, tgt} {
		if t.Connected(p) && !IsPartitionConnected(t.graph, p) {
			return true
		}
	}
	return false
}

// Disconnected lists the partitions currently cached as disconnected.
func (t *Tracker) Disconnected() []int {
	var out []int
	for p, ok := range t.connected {
		if !ok {
			out = append(out, p)
		}
	}
	return out
}
