// Package pathfind answers bounded path queries between two entities.
// Searches are always depth-bounded and result-capped; nothing here can run
// away on a dense graph.
package pathfind

import (
	"fmt"

	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/graph"
)

// Config tunes the finder. Zero values fall back to defaults.
type Config struct {
	// DefaultMaxDepth applies when a query passes maxDepth <= 0.
	DefaultMaxDepth int

	// MaxPaths caps the total number of paths an AllPaths iterator will
	// yield.
	MaxPaths int
}

const (
	defaultMaxDepth = 4
	defaultMaxPaths = 50
	hardDepthCap    = 12
)

func (c Config) withDefaults() Config {
	if c.DefaultMaxDepth <= 0 {
		c.DefaultMaxDepth = defaultMaxDepth
	}
	if c.MaxPaths <= 0 {
		c.MaxPaths = defaultMaxPaths
	}
	return c
}

// Engine finds paths in snapshots. Safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates a path finder with the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

func (e *Engine) clampDepth(maxDepth int) int {
	if maxDepth <= 0 {
		maxDepth = e.cfg.DefaultMaxDepth
	}
	if maxDepth > hardDepthCap {
		maxDepth = hardDepthCap
	}
	return maxDepth
}

func checkEndpoints(snap *graph.Snapshot, source, target string) error {
	if !snap.HasEntity(source) {
		return fmt.Errorf("source %s: %w", source, common.ErrEntityNotFound)
	}
	if !snap.HasEntity(target) {
		return fmt.Errorf("target %s: %w", target, common.ErrEntityNotFound)
	}
	return nil
}

// ShortestPath runs a breadth-first search from source bounded by maxDepth
// hops and returns the node sequence, or common.ErrPathNotFound when target
// is unreachable within the bound. Unknown endpoints return
// common.ErrEntityNotFound.
func (e *Engine) ShortestPath(snap *graph.Snapshot, source, target string, maxDepth int) ([]string, error) {
	if err := checkEndpoints(snap, source, target); err != nil {
		return nil, err
	}
	if source == target {
		return []string{source}, nil
	}
	maxDepth = e.clampDepth(maxDepth)

	parent := map[string]string{source: ""}
	depth := map[string]int{source: 0}
	queue := []string{source}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		if depth[curr] >= maxDepth {
			continue
		}

		for _, nb := range snap.Neighbors(curr) {
			if _, seen := parent[nb.ID]; seen {
				continue
			}
			parent[nb.ID] = curr
			depth[nb.ID] = depth[curr] + 1

			if nb.ID == target {
				return assemble(parent, source, target), nil
			}
			queue = append(queue, nb.ID)
		}
	}

	return nil, fmt.Errorf("%s to %s within %d hops: %w", source, target, maxDepth, common.ErrPathNotFound)
}

func assemble(parent map[string]string, source, target string) []string {
	var reversed []string
	for curr := target; curr != ""; curr = parent[curr] {
		reversed = append(reversed, curr)
	}
	path := make([]string, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}
