package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lattice-intel/lattice/pkg/cluster"
	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/graph"
	"github.com/lattice-intel/lattice/pkg/layout"
)

type countingSource struct {
	entities      []common.Entity
	relationships []common.Relationship
	loads         atomic.Int32
	err           error
}

func (s *countingSource) EntitiesByScope(ctx context.Context, scope string) ([]common.Entity, error) {
	s.loads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.entities, nil
}

func (s *countingSource) RelationshipsByScope(ctx context.Context, scope string) ([]common.Relationship, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.relationships, nil
}

func triangleSource() *countingSource {
	return &countingSource{
		entities: []common.Entity{
			{ID: "a", Scope: "s", Name: "Alice", Type: common.TypePerson},
			{ID: "b", Scope: "s", Name: "Bob", Type: common.TypePerson},
			{ID: "c", Scope: "s", Name: "Corp", Type: common.TypeOrganization},
		},
		relationships: []common.Relationship{
			{ID: "r1", Scope: "s", SourceID: "a", TargetID: "b", Type: "associated", Weight: 1},
			{ID: "r2", Scope: "s", SourceID: "b", TargetID: "c", Type: "employment", Weight: 1},
			{ID: "r3", Scope: "s", SourceID: "a", TargetID: "c", Type: "employment", Weight: 1},
		},
	}
}

func testLayer(src *countingSource, clock *fakeClock) *Layer {
	return NewLayer(
		graph.NewBuilder(src, time.Second),
		layout.NewEngine(layout.Config{Iterations: 10}),
		cluster.NewEngine(cluster.Config{}),
		Config{Now: clock.Now},
	)
}

func TestLayerSnapshotTTL(t *testing.T) {
	clock := newFakeClock()
	src := triangleSource()
	l := testLayer(src, clock)
	ctx := context.Background()

	if _, err := l.Snapshot(ctx, "s"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if n := src.loads.Load(); n != 1 {
		t.Fatalf("loads = %d after first query, want 1", n)
	}

	clock.Advance(30 * time.Second)
	if _, err := l.Snapshot(ctx, "s"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if n := src.loads.Load(); n != 1 {
		t.Errorf("loads = %d inside TTL, want 1", n)
	}

	clock.Advance(31 * time.Second)
	if _, err := l.Snapshot(ctx, "s"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if n := src.loads.Load(); n != 2 {
		t.Errorf("loads = %d past TTL, want 2", n)
	}
}

func TestLayerInvalidate(t *testing.T) {
	clock := newFakeClock()
	src := triangleSource()
	l := testLayer(src, clock)
	ctx := context.Background()

	if _, err := l.Snapshot(ctx, "s"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	l.Invalidate("s")

	clock.Advance(time.Second)
	if _, err := l.Snapshot(ctx, "s"); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if n := src.loads.Load(); n != 2 {
		t.Errorf("loads = %d after invalidation, want 2", n)
	}
}

func TestLayerScopesIndependent(t *testing.T) {
	clock := newFakeClock()
	src := triangleSource()
	l := testLayer(src, clock)
	ctx := context.Background()

	l.Snapshot(ctx, "s1")
	l.Snapshot(ctx, "s2")
	l.Invalidate("s1")

	l.Snapshot(ctx, "s2")
	if n := src.loads.Load(); n != 2 {
		t.Errorf("loads = %d, invalidating s1 must not evict s2", n)
	}
	l.Snapshot(ctx, "s1")
	if n := src.loads.Load(); n != 3 {
		t.Errorf("loads = %d, want s1 rebuilt", n)
	}
}

func TestLayerLayoutAlgorithmIsPartOfTheKey(t *testing.T) {
	clock := newFakeClock()
	l := testLayer(triangleSource(), clock)
	ctx := context.Background()

	res, err := l.Layout(ctx, "s", layout.AlgorithmForce)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if res.Algorithm != layout.AlgorithmForce {
		t.Fatalf("algorithm = %q, want force", res.Algorithm)
	}

	res, err = l.Layout(ctx, "s", layout.AlgorithmForceLinear)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if res.Algorithm != layout.AlgorithmForceLinear {
		t.Errorf("algorithm = %q, cached result for another algorithm served", res.Algorithm)
	}
}

func TestLayerClustersUseCachedLayoutOnly(t *testing.T) {
	clock := newFakeClock()
	l := testLayer(triangleSource(), clock)
	ctx := context.Background()

	res, err := l.Clusters(ctx, "s", 1)
	if err != nil {
		t.Fatalf("Clusters() error = %v", err)
	}
	for _, c := range res.Clusters {
		if c.Centroid != nil {
			t.Error("cluster query without a cached layout produced a centroid")
		}
	}

	if _, err := l.Layout(ctx, "s", layout.AlgorithmForce); err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	l.InvalidateKind("s", KindCluster)

	res, err = l.Clusters(ctx, "s", 1)
	if err != nil {
		t.Fatalf("Clusters() error = %v", err)
	}
	if len(res.Clusters) == 0 {
		t.Fatal("no clusters on a connected triangle")
	}
	for _, c := range res.Clusters {
		if c.Centroid == nil {
			t.Error("cluster missing centroid despite a cached layout")
		}
	}
}

func TestLayerNodeLink(t *testing.T) {
	clock := newFakeClock()
	l := testLayer(triangleSource(), clock)
	ctx := context.Background()

	nl, err := l.NodeLink(ctx, "s", NodeLinkParams{
		IncludePositions: true,
		IncludeClusters:  true,
		MinClusterSize:   1,
		Algorithm:        layout.AlgorithmForce,
	})
	if err != nil {
		t.Fatalf("NodeLink() error = %v", err)
	}
	if len(nl.Nodes) != 3 || len(nl.Edges) != 3 {
		t.Fatalf("node-link has %d nodes %d edges, want 3/3", len(nl.Nodes), len(nl.Edges))
	}
	for _, node := range nl.Nodes {
		if node.X == nil || node.Y == nil {
			t.Errorf("node %s missing position", node.ID)
		}
		if node.ClusterID == "" {
			t.Errorf("node %s missing cluster assignment", node.ID)
		}
	}
	if nl.Partial {
		t.Error("partial flag set on a tiny graph")
	}
}

func TestLayerNodeLinkBareView(t *testing.T) {
	clock := newFakeClock()
	src := triangleSource()
	l := testLayer(src, clock)

	nl, err := l.NodeLink(context.Background(), "s", NodeLinkParams{})
	if err != nil {
		t.Fatalf("NodeLink() error = %v", err)
	}
	for _, node := range nl.Nodes {
		if node.X != nil || node.ClusterID != "" {
			t.Errorf("node %s carries layout or cluster data nobody asked for", node.ID)
		}
	}
}

func TestLayerStoreErrorNotCached(t *testing.T) {
	clock := newFakeClock()
	src := triangleSource()
	src.err = errors.New("connection refused")
	l := testLayer(src, clock)
	ctx := context.Background()

	if _, err := l.Snapshot(ctx, "s"); !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("Snapshot() error = %v, want ErrStoreUnavailable", err)
	}

	src.err = nil
	snap, err := l.Snapshot(ctx, "s")
	if err != nil {
		t.Fatalf("Snapshot() after recovery error = %v", err)
	}
	if snap.NodeCount() != 3 {
		t.Errorf("snapshot has %d nodes, want 3", snap.NodeCount())
	}
}

func TestLayerStatus(t *testing.T) {
	clock := newFakeClock()
	l := testLayer(triangleSource(), clock)
	ctx := context.Background()

	l.Snapshot(ctx, "s")
	l.Snapshot(ctx, "s")

	st := l.Status("s")
	if st.Scope != "s" || len(st.Tiers) != len(Kinds) {
		t.Fatalf("status = %+v, want one entry per tier", st)
	}
	for _, tier := range st.Tiers {
		switch tier.Kind {
		case KindSnapshot:
			if !tier.Cached || tier.Hits != 1 || tier.Misses != 1 {
				t.Errorf("snapshot tier = %+v, want cached with 1 hit 1 miss", tier)
			}
		default:
			if tier.Cached {
				t.Errorf("%s tier cached without a query", tier.Kind)
			}
		}
	}
}
