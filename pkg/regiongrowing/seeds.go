package regiongrowing

import (
	"math/rand"

	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
)

// minSeedAttempts is the smallest candidate budget per seed.
const minSeedAttempts = 100

// GenerateSeeds picks parts distinct seed vertices that are spread apart.
//
// Seed 0 is uniform. Each later seed is the sampled candidate adjacent to the fewest
// earlier seeds, the first found on ties. attempts <= 0 means max(100, 2·V).
// With fewer vertices than parts the seeds are simply 0..V-1.
func GenerateSeeds(g *models.Graph, parts int, rng *rand.Rand, attempts int) []int {
	n := g.Vertices()
	if n == 0 || parts <= 0 {
		return nil
	}
	if n < parts {
		seeds := make([]int, n)
		for i := range seeds {
			seeds[i] = i
		}
		return seeds
	}
	if attempts <= 0 {
		attempts = max(minSeedAttempts, 2*n)
	}

	seeds := make([]int, 0, parts)
	chosen := make([]bool, n)
	seeds = append(seeds, rng.Intn(n))
	chosen[seeds[0]] = true

	for len(seeds) < parts {
		best := -1
		bestConnections := 0
		for j := 0; j < attempts; j++ {
			candidate := rng.Intn(n)
			if chosen[candidate] {
				continue
			}
			connections := seedConnections(g, candidate, seeds)
			if best == -1 || connections < bestConnections {
				best = candidate
				bestConnections = connections
				if connections == 0 {
					break
				}
			}
		}
		if best == -1 {
			best = randomUnchosen(chosen, rng)
		}
		seeds = append(seeds, best)
		chosen[best] = true
	}
	return seeds
}

// seedConnections counts the seeds adjacent to candidate.
func seedConnections(g *models.Graph, candidate int, seeds []int) int {
	connections := 0
	nbs := g.Neighbours(candidate)
	for _, s := range seeds {
		for _, nb := range nbs {
			if nb == s {
				connections++
				break
			}
		}
	}
	return connections
}

func randomUnchosen(chosen []bool, rng *rand.Rand) int {
	free := make([]int, 0)
	for v, c := range chosen {
		if !c {
			free = append(free, v)
		}
	}
	return free[rng.Intn(len(free))]
}
