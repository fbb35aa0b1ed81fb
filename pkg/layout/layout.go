// Package layout computes 2D coordinates for graph snapshots with an
// iterative force simulation. Connected components are laid out
// independently and packed onto a grid of non-overlapping regions.
package layout

import (
	"time"

	"github.com/lattice-intel/lattice/pkg/graph"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// Algorithm selects the attraction model of the force simulation.
type Algorithm string

const (
	// AlgorithmForce is the default: attraction grows with the log of the
	// distance, which keeps dense communities separated instead of letting
	// everything collapse into one blob.
	AlgorithmForce Algorithm = "force"

	// AlgorithmForceLinear uses linear attraction. Cheaper, blobbier.
	AlgorithmForceLinear Algorithm = "force_linear"
)

// ParseAlgorithm maps a raw query value onto a known algorithm, defaulting
// to AlgorithmForce.
func ParseAlgorithm(raw string) Algorithm {
	if Algorithm(raw) == AlgorithmForceLinear {
		return AlgorithmForceLinear
	}
	return AlgorithmForce
}

// Point is a computed 2D node position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is a layout computed for one snapshot. Identical
// (snapshot, algorithm, seed) inputs always reproduce identical positions.
type Result struct {
	Algorithm Algorithm        `json:"algorithm"`
	Seed      int64            `json:"seed"`
	Positions map[string]Point `json:"positions"`

	// Partial is set when the time budget expired before all iterations ran.
	// The positions are still usable, just coarser.
	Partial bool `json:"partial,omitempty"`
}

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	// Iterations is the base iteration count before size scaling.
	Iterations int

	// ApproxThreshold is the node count at and above which repulsion switches
	// from exact pairwise to the quad-tree approximation.
	ApproxThreshold int

	// MaxDuration bounds one layout computation. The simulation checks the
	// clock between iterations and stops early with Partial set.
	MaxDuration time.Duration
}

const (
	defaultIterations      = 300
	defaultApproxThreshold = 500
	defaultMaxDuration     = 20 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Iterations <= 0 {
		c.Iterations = defaultIterations
	}
	if c.ApproxThreshold <= 0 {
		c.ApproxThreshold = defaultApproxThreshold
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = defaultMaxDuration
	}
	return c
}

// Engine computes layouts. Safe for concurrent use; all state lives on the
// stack of each Compute call.
type Engine struct {
	cfg Config
}

// NewEngine creates a layout engine with the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// ScaledIterations is the pure sizing function: it shrinks the base
// iteration count as the node count grows, trading layout quality for
// bounded latency.
func ScaledIterations(base, nodes int) int {
	switch {
	case nodes <= 200:
		return base
	case nodes <= 1000:
		return base / 2
	case nodes <= 5000:
		return base / 4
	default:
		return base / 8
	}
}

// UseApproximation is the pure strategy decision: exact pairwise repulsion
// below the threshold, quad-tree approximation at or above it.
func UseApproximation(nodes, threshold int) bool {
	return nodes >= threshold
}

// Compute lays out the snapshot. Degenerate snapshots (0 or 1 node) return a
// trivial layout without iterating. When iterations <= 0 the configured base
// count is used.
func (e *Engine) Compute(snap *graph.Snapshot, algorithm Algorithm, iterations int, seed int64) Result {
	start := time.Now()

	result := Result{
		Algorithm: algorithm,
		Seed:      seed,
		Positions: make(map[string]Point, snap.NodeCount()),
	}

	switch snap.NodeCount() {
	case 0:
		return result
	case 1:
		result.Positions[snap.NodeIDs()[0]] = Point{}
		return result
	}

	if iterations <= 0 {
		iterations = e.cfg.Iterations
	}
	iterations = ScaledIterations(iterations, snap.NodeCount())
	if iterations < 1 {
		iterations = 1
	}

	deadline := start.Add(e.cfg.MaxDuration)
	components := snap.Components()

	laid := make([]componentLayout, 0, len(components))
	for _, members := range components {
		sim := newSimulation(snap, members, algorithm, seed, e.cfg.ApproxThreshold)
		partial := sim.run(iterations, deadline)
		result.Partial = result.Partial || partial
		laid = append(laid, sim.layout())
	}

	packComponents(laid, result.Positions)

	logger.Debug("[Layout] Computed",
		"scope", snap.Scope,
		"nodes", snap.NodeCount(),
		"components", len(components),
		"iterations", iterations,
		"partial", result.Partial,
		"duration", time.Since(start),
	)

	return result
}
