package cluster

import (
	"math/rand"
	"time"

	"github.com/lattice-intel/lattice/pkg/graph"
)

const labelPropMaxRounds = 20

// labelPropStrategy is the near-linear path for large graphs: every node
// repeatedly adopts the weighted-majority label of its neighbors until the
// labels stop moving. Quality is below modularity refinement but each round
// costs only O(V+E).
type labelPropStrategy struct {
	seed int64
}

func (l *labelPropStrategy) Name() string { return AlgorithmLabelProp }

func (l *labelPropStrategy) Partition(snap *graph.Snapshot, deadline time.Time) (map[string]int, bool) {
	nodes := snap.NodeIDs()
	labels := make(map[string]int, len(nodes))
	for i, id := range nodes {
		labels[id] = i
	}
	if snap.EdgeCount() == 0 {
		return labels, false
	}

	rng := rand.New(rand.NewSource(l.seed))
	visit := make([]string, len(nodes))
	copy(visit, nodes)

	partial := false
	for round := 0; round < labelPropMaxRounds; round++ {
		if time.Now().After(deadline) {
			partial = true
			break
		}

		rng.Shuffle(len(visit), func(i, j int) {
			visit[i], visit[j] = visit[j], visit[i]
		})

		changed := 0
		for _, id := range visit {
			neighbors := snap.Neighbors(id)
			if len(neighbors) == 0 {
				continue
			}

			weight := make(map[int]float64, len(neighbors))
			for _, n := range neighbors {
				weight[labels[n.ID]] += snap.EdgeWeight(n.EdgeIndex)
			}

			best := labels[id]
			bestWeight := weight[best]
			for label, w := range weight {
				// Strict improvement only; lower label wins exact ties so the
				// sweep settles instead of oscillating
				if w > bestWeight || (w == bestWeight && label < best) {
					best = label
					bestWeight = w
				}
			}

			if best != labels[id] {
				labels[id] = best
				changed++
			}
		}

		if changed == 0 {
			break
		}
	}

	return labels, partial
}
