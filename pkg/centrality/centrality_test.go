package centrality

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/graph"
)

func buildSnapshot(ids []string, edges [][2]string) *graph.Snapshot {
	ents := make([]common.Entity, 0, len(ids))
	for _, id := range ids {
		ents = append(ents, common.Entity{ID: id, Scope: "s", Name: id})
	}
	rels := make([]common.Relationship, 0, len(edges))
	for _, e := range edges {
		rels = append(rels, common.Relationship{
			Scope: "s", SourceID: e[0], TargetID: e[1], Type: "associated", Weight: 1,
		})
	}
	return graph.NewSnapshot("s", ents, rels)
}

// star: hub connected to n leaves.
func starSnapshot(n int) *graph.Snapshot {
	ids := []string{"hub"}
	var edges [][2]string
	for i := 0; i < n; i++ {
		leaf := fmt.Sprintf("leaf%02d", i)
		ids = append(ids, leaf)
		edges = append(edges, [2]string{"hub", leaf})
	}
	return buildSnapshot(ids, edges)
}

func TestDegree(t *testing.T) {
	snap := starSnapshot(4)
	scores := NewEngine(Config{}).Degree(snap, 0)

	if scores[0].ID != "hub" || scores[0].Score != 4 {
		t.Errorf("top = %+v, want hub with score 4", scores[0])
	}
	for _, s := range scores[1:] {
		if s.Score != 1 {
			t.Errorf("leaf %s score = %f, want 1", s.ID, s.Score)
		}
	}
}

func TestDegreeLimit(t *testing.T) {
	scores := NewEngine(Config{}).Degree(starSnapshot(9), 3)
	if len(scores) != 3 {
		t.Errorf("got %d scores, want 3", len(scores))
	}
}

func TestDegreeEmptyGraph(t *testing.T) {
	scores := NewEngine(Config{}).Degree(buildSnapshot(nil, nil), 10)
	if len(scores) != 0 {
		t.Errorf("got %d scores for empty graph, want 0", len(scores))
	}
}

func TestImportanceHubWins(t *testing.T) {
	snap := starSnapshot(5)
	scores := NewEngine(Config{}).Importance(snap, 0)
	if scores[0].ID != "hub" {
		t.Errorf("top importance = %s, want hub", scores[0].ID)
	}
}

func TestImportanceDisconnected(t *testing.T) {
	snap := buildSnapshot(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"c", "d"}},
	)
	scores := NewEngine(Config{}).Importance(snap, 0)
	if len(scores) != 4 {
		t.Fatalf("got %d scores, want 4", len(scores))
	}
	// All four nodes are structurally identical, so scores must match.
	for _, s := range scores[1:] {
		if s.Score != scores[0].Score {
			t.Errorf("scores differ across symmetric nodes: %v", scores)
		}
	}
}

func TestBetweennessPathGraph(t *testing.T) {
	snap := buildSnapshot(
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}},
	)
	scores, err := NewEngine(Config{}).Betweenness(snap, 0)
	if err != nil {
		t.Fatalf("Betweenness() error = %v", err)
	}

	if scores[0].ID != "c" {
		t.Errorf("top betweenness = %s, want c (middle of the path)", scores[0].ID)
	}
	byID := map[string]float64{}
	for _, s := range scores {
		byID[s.ID] = s.Score
	}
	// Endpoints lie on no shortest path between other pairs.
	if byID["a"] != 0 || byID["e"] != 0 {
		t.Errorf("endpoint betweenness = %f and %f, want 0", byID["a"], byID["e"])
	}
	// Pairs routed through c: (a,d) (a,e) (b,d) (b,e).
	if byID["c"] != 4 {
		t.Errorf("betweenness(c) = %f, want 4", byID["c"])
	}
}

func TestBetweennessParallelEdges(t *testing.T) {
	snap := buildSnapshot(
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"a", "b"}, {"b", "c"}},
	)
	scores, err := NewEngine(Config{}).Betweenness(snap, 0)
	if err != nil {
		t.Fatalf("Betweenness() error = %v", err)
	}
	byID := map[string]float64{}
	for _, s := range scores {
		byID[s.ID] = s.Score
	}
	if byID["b"] != 1 {
		t.Errorf("betweenness(b) = %f, want 1 despite the duplicate a-b edge", byID["b"])
	}
}

func TestBetweennessTooLarge(t *testing.T) {
	snap := starSnapshot(5)
	_, err := NewEngine(Config{BetweennessNodeLimit: 3}).Betweenness(snap, 0)
	if !errors.Is(err, common.ErrGraphTooLarge) {
		t.Errorf("error = %v, want ErrGraphTooLarge", err)
	}
}

func TestBetweennessSampledDeterministic(t *testing.T) {
	var ids []string
	var edges [][2]string
	for i := 0; i < 30; i++ {
		ids = append(ids, fmt.Sprintf("n%02d", i))
		if i > 0 {
			edges = append(edges, [2]string{fmt.Sprintf("n%02d", i-1), fmt.Sprintf("n%02d", i)})
		}
	}
	snap := buildSnapshot(ids, edges)
	e := NewEngine(Config{BetweennessSampleCap: 10})

	first, err := e.Betweenness(snap, 0)
	if err != nil {
		t.Fatalf("Betweenness() error = %v", err)
	}
	second, err := e.Betweenness(snap, 0)
	if err != nil {
		t.Fatalf("Betweenness() error = %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sampled betweenness differs across runs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRankTieBreak(t *testing.T) {
	scores := rank([]common.Score{
		{ID: "z", Score: 1},
		{ID: "a", Score: 1},
		{ID: "m", Score: 2},
	}, 0)
	want := []string{"m", "a", "z"}
	for i, id := range want {
		if scores[i].ID != id {
			t.Errorf("rank()[%d] = %s, want %s", i, scores[i].ID, id)
		}
	}
}
