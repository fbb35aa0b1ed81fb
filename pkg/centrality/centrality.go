// Package centrality ranks snapshot nodes by structural importance. Three
// independent rankings are offered: raw degree, betweenness (fraction of
// shortest paths through a node) and a damped eigenvector-style importance
// score. All three tolerate disconnected graphs.
package centrality

import (
	"sort"

	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/graph"
)

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	// BetweennessSampleCap caps the number of BFS sources. Graphs above the
	// cap are sampled and the scores scaled back up.
	BetweennessSampleCap int

	// BetweennessNodeLimit is the soft node-count limit past which
	// betweenness refuses to run at all (common.ErrGraphTooLarge) so the
	// surrounding request can degrade instead of stalling.
	BetweennessNodeLimit int

	// Damping is the importance damping factor.
	Damping float64

	// MaxIterations caps the importance power iteration.
	MaxIterations int
}

const (
	defaultSampleCap     = 200
	defaultNodeLimit     = 20000
	defaultDamping       = 0.85
	defaultMaxIterations = 100
	convergenceEpsilon   = 1e-6
	sampleSeed           = 42
)

func (c Config) withDefaults() Config {
	if c.BetweennessSampleCap <= 0 {
		c.BetweennessSampleCap = defaultSampleCap
	}
	if c.BetweennessNodeLimit <= 0 {
		c.BetweennessNodeLimit = defaultNodeLimit
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		c.Damping = defaultDamping
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = defaultMaxIterations
	}
	return c
}

// Engine computes centrality rankings. Safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates a centrality engine with the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Degree ranks nodes by raw connection count. O(V+E).
func (e *Engine) Degree(snap *graph.Snapshot, limit int) []common.Score {
	scores := make([]common.Score, 0, snap.NodeCount())
	for _, id := range snap.NodeIDs() {
		scores = append(scores, common.Score{ID: id, Score: float64(snap.Degree(id))})
	}
	return rank(scores, limit)
}

// Importance computes a damped eigenvector-style score by power iteration,
// run to convergence or the iteration cap. Nodes in separate components
// never exchange score mass, so disconnected graphs are handled naturally.
func (e *Engine) Importance(snap *graph.Snapshot, limit int) []common.Score {
	n := snap.NodeCount()
	if n == 0 {
		return []common.Score{}
	}

	ids := snap.NodeIDs()
	scores := make(map[string]float64, n)
	for _, id := range ids {
		scores[id] = 1.0 / float64(n)
	}

	d := e.cfg.Damping
	for iter := 0; iter < e.cfg.MaxIterations; iter++ {
		next := make(map[string]float64, n)
		for _, id := range ids {
			sum := 0.0
			for _, nb := range snap.Neighbors(id) {
				if deg := snap.Degree(nb.ID); deg > 0 {
					sum += scores[nb.ID] / float64(deg)
				}
			}
			next[id] = (1-d)/float64(n) + d*sum
		}

		delta := 0.0
		for _, id := range ids {
			diff := next[id] - scores[id]
			if diff < 0 {
				diff = -diff
			}
			delta += diff
		}
		scores = next
		if delta < convergenceEpsilon {
			break
		}
	}

	out := make([]common.Score, 0, n)
	for _, id := range ids {
		out = append(out, common.Score{ID: id, Score: scores[id]})
	}
	return rank(out, limit)
}

// rank sorts descending by score, ids ascending on ties, and truncates to
// limit (limit <= 0 keeps everything).
func rank(scores []common.Score, limit int) []common.Score {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}
