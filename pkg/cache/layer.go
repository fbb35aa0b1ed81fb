package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/lattice-intel/lattice/pkg/cluster"
	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/graph"
	"github.com/lattice-intel/lattice/pkg/layout"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// Config tunes the layer. Zero TTLs fall back to defaults: the snapshot tier
// is the cheapest to rebuild and expires first; layout and cluster results
// are expensive and live longer.
type Config struct {
	SnapshotTTL time.Duration
	LayoutTTL   time.Duration
	ClusterTTL  time.Duration

	// LayoutSeed drives layout determinism. Fixed per process so cache
	// refreshes reproduce the same positions for an unchanged graph.
	LayoutSeed int64

	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

const (
	defaultSnapshotTTL = 60 * time.Second
	defaultLayoutTTL   = 5 * time.Minute
	defaultClusterTTL  = 5 * time.Minute
	defaultLayoutSeed  = 42
)

func (c Config) withDefaults() Config {
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = defaultSnapshotTTL
	}
	if c.LayoutTTL <= 0 {
		c.LayoutTTL = defaultLayoutTTL
	}
	if c.ClusterTTL <= 0 {
		c.ClusterTTL = defaultClusterTTL
	}
	if c.LayoutSeed == 0 {
		c.LayoutSeed = defaultLayoutSeed
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Layer is the orchestration component in front of the engines: queries
// enter here, hit a tier or trigger one bounded recomputation, and every
// mutation path invalidates through here. One Layer serves all scopes.
type Layer struct {
	builder *graph.Builder
	layout  *layout.Engine
	cluster *cluster.Engine

	cfg   Config
	tiers *tiers
}

// NewLayer wires the cache in front of the builder and engines.
func NewLayer(builder *graph.Builder, lay *layout.Engine, clu *cluster.Engine, cfg Config) *Layer {
	cfg = cfg.withDefaults()
	return &Layer{
		builder: builder,
		layout:  lay,
		cluster: clu,
		cfg:     cfg,
		tiers: newTiers(cfg.Now, map[Kind]time.Duration{
			KindSnapshot: cfg.SnapshotTTL,
			KindLayout:   cfg.LayoutTTL,
			KindCluster:  cfg.ClusterTTL,
		}),
	}
}

// Snapshot returns the scope's graph snapshot, rebuilding through the
// GraphBuilder on miss.
func (l *Layer) Snapshot(ctx context.Context, scope string) (*graph.Snapshot, error) {
	v, hit, err := l.tiers.get(tierKey{scope, KindSnapshot}, "", func() (any, error) {
		return l.builder.Load(ctx, scope)
	})
	if err != nil {
		return nil, err
	}
	if !hit {
		logger.Debug("[Cache] Snapshot rebuilt", "scope", scope)
	}
	return v.(*graph.Snapshot), nil
}

// Layout returns the scope's layout for algorithm, computing on miss. A
// cached layout for a different algorithm counts as a miss.
func (l *Layer) Layout(ctx context.Context, scope string, algorithm layout.Algorithm) (*layout.Result, error) {
	snap, err := l.Snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}
	params := string(algorithm)
	v, _, err := l.tiers.get(tierKey{scope, KindLayout}, params, func() (any, error) {
		res := l.layout.Compute(snap, algorithm, 0, l.cfg.LayoutSeed)
		return &res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*layout.Result), nil
}

// Clusters returns the scope's community partition for minSize. Centroids
// come from the cached layout when one is fresh; a cluster query never
// forces a layout computation.
func (l *Layer) Clusters(ctx context.Context, scope string, minSize int) (*cluster.Result, error) {
	snap, err := l.Snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}
	params := fmt.Sprintf("min_size=%d", minSize)
	v, _, err := l.tiers.get(tierKey{scope, KindCluster}, params, func() (any, error) {
		res := l.cluster.Detect(snap, minSize, l.peekLayout(scope))
		return &res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cluster.Result), nil
}

func (l *Layer) peekLayout(scope string) *layout.Result {
	if v, ok := l.tiers.peek(tierKey{scope, KindLayout}); ok {
		return v.(*layout.Result)
	}
	return nil
}

// NodeLinkParams selects what a node-link query materializes.
type NodeLinkParams struct {
	IncludePositions bool
	IncludeClusters  bool
	MinClusterSize   int
	Algorithm        layout.Algorithm
}

// NodeLink assembles the full node-link view for visualization clients,
// pulling each piece through its tier.
func (l *Layer) NodeLink(ctx context.Context, scope string, params NodeLinkParams) (*common.NodeLink, error) {
	snap, err := l.Snapshot(ctx, scope)
	if err != nil {
		return nil, err
	}

	var lay *layout.Result
	if params.IncludePositions {
		if lay, err = l.Layout(ctx, scope, params.Algorithm); err != nil {
			return nil, err
		}
	}
	var clu *cluster.Result
	if params.IncludeClusters {
		if clu, err = l.Clusters(ctx, scope, params.MinClusterSize); err != nil {
			return nil, err
		}
	}

	return assembleNodeLink(snap, lay, clu), nil
}

// Invalidate expires every tier of scope. Mutation paths call this
// synchronously after their store write commits.
func (l *Layer) Invalidate(scope string) {
	for _, kind := range Kinds {
		l.tiers.invalidate(tierKey{scope, kind})
	}
	logger.Debug("[Cache] Invalidated", "scope", scope)
}

// InvalidateKind expires a single tier of scope.
func (l *Layer) InvalidateKind(scope string, kind Kind) {
	l.tiers.invalidate(tierKey{scope, kind})
	logger.Debug("[Cache] Invalidated", "scope", scope, "kind", kind)
}

// Status reports age and hit/miss counts per tier for scope.
type Status struct {
	Scope string       `json:"scope"`
	Tiers []TierStatus `json:"tiers"`
}

// Status exposes the introspection surface for operational visibility.
func (l *Layer) Status(scope string) Status {
	st := Status{Scope: scope, Tiers: make([]TierStatus, 0, len(Kinds))}
	for _, kind := range Kinds {
		st.Tiers = append(st.Tiers, l.tiers.status(tierKey{scope, kind}))
	}
	return st
}

func assembleNodeLink(snap *graph.Snapshot, lay *layout.Result, clu *cluster.Result) *common.NodeLink {
	clusterOf := map[string]string{}
	if clu != nil {
		for _, c := range clu.Clusters {
			for _, id := range c.MemberIDs {
				clusterOf[id] = c.ID
			}
		}
	}

	nl := &common.NodeLink{
		Nodes: make([]common.Node, 0, snap.NodeCount()),
		Edges: make([]common.Edge, 0, snap.EdgeCount()),
	}
	for _, id := range snap.NodeIDs() {
		ent := snap.Entities[id]
		node := common.Node{ID: id, Label: ent.Name, Type: ent.Type}
		if lay != nil {
			if p, ok := lay.Positions[id]; ok {
				x, y := p.X, p.Y
				node.X, node.Y = &x, &y
			}
		}
		node.ClusterID = clusterOf[id]
		nl.Nodes = append(nl.Nodes, node)
	}
	for _, rel := range snap.Relationships {
		nl.Edges = append(nl.Edges, common.Edge{
			Source:     rel.SourceID,
			Target:     rel.TargetID,
			Type:       rel.Type,
			Weight:     rel.Weight,
			Confidence: rel.Confidence,
		})
	}
	nl.Partial = (lay != nil && lay.Partial) || (clu != nil && clu.Partial)
	return nl
}
