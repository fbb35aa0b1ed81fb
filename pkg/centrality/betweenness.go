package centrality

import (
	"fmt"
	"math/rand"

	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/graph"
)

// Betweenness ranks nodes by the fraction of shortest paths passing through
// them (Brandes accumulation over BFS trees). This is the most expensive
// ranking: above the sample cap the BFS sources are sampled with a fixed
// seed and the scores scaled back up; above the node limit it refuses to run
// so the caller can degrade gracefully.
func (e *Engine) Betweenness(snap *graph.Snapshot, limit int) ([]common.Score, error) {
	n := snap.NodeCount()
	if n == 0 {
		return []common.Score{}, nil
	}
	if n > e.cfg.BetweennessNodeLimit {
		return nil, fmt.Errorf("betweenness over %d nodes: %w", n, common.ErrGraphTooLarge)
	}

	ids := snap.NodeIDs()
	scores := make(map[string]float64, n)

	sources := ids
	scale := 1.0
	if cap := e.cfg.BetweennessSampleCap; n > cap {
		rng := rand.New(rand.NewSource(sampleSeed))
		perm := rng.Perm(n)
		sources = make([]string, cap)
		for i := 0; i < cap; i++ {
			sources[i] = ids[perm[i]]
		}
		scale = float64(n) / float64(cap)
	}

	for _, source := range sources {
		brandesAccumulate(snap, source, scores)
	}

	out := make([]common.Score, 0, n)
	for _, id := range ids {
		// Halved because each undirected path is found from both endpoints
		out = append(out, common.Score{ID: id, Score: scores[id] * scale / 2})
	}
	return rank(out, limit), nil
}

// brandesAccumulate runs one BFS from source, counting shortest paths, then
// walks the BFS order backwards accumulating each node's dependency share
// into scores.
func brandesAccumulate(snap *graph.Snapshot, source string, scores map[string]float64) {
	dist := map[string]int{source: 0}
	paths := map[string]float64{source: 1}
	pred := make(map[string][]string)

	queue := []string{source}
	order := []string{source}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		// Parallel edges (same pair, different type) must count as one hop
		visited := make(map[string]struct{})
		for _, nb := range snap.Neighbors(curr) {
			if _, dup := visited[nb.ID]; dup {
				continue
			}
			visited[nb.ID] = struct{}{}
			if _, seen := dist[nb.ID]; !seen {
				dist[nb.ID] = dist[curr] + 1
				queue = append(queue, nb.ID)
				order = append(order, nb.ID)
			}
			if dist[nb.ID] == dist[curr]+1 {
				paths[nb.ID] += paths[curr]
				pred[nb.ID] = append(pred[nb.ID], curr)
			}
		}
	}

	delta := make(map[string]float64, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		for _, v := range pred[w] {
			if paths[w] > 0 {
				delta[v] += paths[v] / paths[w] * (1 + delta[w])
			}
		}
		if w != source {
			scores[w] += delta[w]
		}
	}
}
