package regiongrowing

import (
	"github.com/gilchrisn/graph-partitioning-service/pkg/connectivity"
)

// repair makes one pass over the partitions. For each disconnected partition the largest
// component stays and the vertices of every smaller component move to the smallest adjacent
// partition. It returns the number of vertices moved. Partitions may still be disconnected
// afterwards; Run reports them.
func (s *state) repair() (int, error) {
	moved := 0
	for p := 0; p < s.parts; p++ {
		if connectivity.IsPartitionConnected(s.graph, p) {
			continue
		}
		comps := connectivity.Components(s.graph, p)
		keep := connectivity.Largest(comps)

		for i, comp := range comps {
			if i == keep {
				continue
			}
			n, err := s.relocate(comp, p)
			if err != nil {
				return moved, err
			}
			moved += n
			if n < len(comp) {
				s.logger.Debug().
					Int("partition", p).
					Int("component_size", len(comp)).
					Int("relocated", n).
					Msg("Component has no neighbouring partition")
			}
		}
	}
	if moved > 0 {
		s.logger.Debug().Int("moved", moved).Msg("Connectivity repair finished")
	}
	return moved, nil
}

// relocate moves the vertices of comp out of partition p. A vertex without a foreign neighbour
// waits until one of its component mates has moved, so whole components travel together.
func (s *state) relocate(comp []int, p int) (int, error) {
	pending := append([]int(nil), comp...)
	moved := 0
	for len(pending) > 0 {
		next := pending[:0]
		for _, v := range pending {
			target := s.smallestNeighbourPart(v, p)
			if target == -1 {
				next = append(next, v)
				continue
			}
			if err := s.pd.Assign(s.graph, v, target); err != nil {
				return moved, err
			}
			moved++
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return moved, nil
}
