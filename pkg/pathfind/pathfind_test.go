package pathfind

import (
	"errors"
	"reflect"
	"sort"
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

func TestShortestPath(t *testing.T) {
	// A-B-C chain
	snap := buildSnapshot(
		[]string{"A", "B", "C"},
		[][2]string{{"A", "B"}, {"B", "C"}},
	)
	e := NewEngine(Config{})

	tests := []struct {
		name     string
		source   string
		target   string
		maxDepth int
		want     []string
		wantErr  error
	}{
		{
			name:   "two hops within bound",
			source: "A", target: "C", maxDepth: 4,
			want: []string{"A", "B", "C"},
		},
		{
			name:   "bound too tight",
			source: "A", target: "C", maxDepth: 1,
			wantErr: common.ErrPathNotFound,
		},
		{
			name:   "direct neighbor at bound",
			source: "A", target: "B", maxDepth: 1,
			want: []string{"A", "B"},
		},
		{
			name:   "source equals target",
			source: "B", target: "B", maxDepth: 4,
			want: []string{"B"},
		},
		{
			name:   "unknown source",
			source: "ghost", target: "C", maxDepth: 4,
			wantErr: common.ErrEntityNotFound,
		},
		{
			name:   "unknown target",
			source: "A", target: "ghost", maxDepth: 4,
			wantErr: common.ErrEntityNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ShortestPath(snap, tt.source, tt.target, tt.maxDepth)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("path = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShortestPathDisconnected(t *testing.T) {
	snap := buildSnapshot(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"c", "d"}},
	)
	_, err := NewEngine(Config{}).ShortestPath(snap, "a", "d", 10)
	if !errors.Is(err, common.ErrPathNotFound) {
		t.Errorf("error = %v, want ErrPathNotFound", err)
	}
}

func TestShortestPathRespectsBound(t *testing.T) {
	// Chain of 8 nodes; default depth 4 cannot reach the end.
	ids := []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7"}
	var edges [][2]string
	for i := 1; i < len(ids); i++ {
		edges = append(edges, [2]string{ids[i-1], ids[i]})
	}
	snap := buildSnapshot(ids, edges)
	e := NewEngine(Config{})

	if _, err := e.ShortestPath(snap, "n0", "n7", 0); !errors.Is(err, common.ErrPathNotFound) {
		t.Errorf("default depth reached 7 hops, want ErrPathNotFound")
	}

	path, err := e.ShortestPath(snap, "n0", "n4", 0)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(path)-1 != 4 {
		t.Errorf("path has %d hops, want exactly 4", len(path)-1)
	}
}

func TestAllPathsDiamond(t *testing.T) {
	snap := buildSnapshot(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "d"}, {"a", "c"}, {"c", "d"}},
	)
	it, err := NewEngine(Config{}).AllPaths(snap, "a", "d", 4)
	if err != nil {
		t.Fatalf("AllPaths() error = %v", err)
	}

	var paths [][]string
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		paths = append(paths, p)
	}

	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2: %v", len(paths), paths)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i][1] < paths[j][1] })
	if !reflect.DeepEqual(paths[0], []string{"a", "b", "d"}) ||
		!reflect.DeepEqual(paths[1], []string{"a", "c", "d"}) {
		t.Errorf("paths = %v", paths)
	}
}

func TestAllPathsDepthBound(t *testing.T) {
	snap := buildSnapshot(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "d"}, {"a", "c"}, {"c", "d"}, {"b", "c"}},
	)
	it, err := NewEngine(Config{}).AllPaths(snap, "a", "d", 2)
	if err != nil {
		t.Fatalf("AllPaths() error = %v", err)
	}
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		if len(p)-1 > 2 {
			t.Errorf("path %v exceeds 2 hops", p)
		}
	}
}

func TestAllPathsCap(t *testing.T) {
	// Complete-ish graph with many alternate routes.
	ids := []string{"a", "b", "c", "d", "e", "f"}
	var edges [][2]string
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			edges = append(edges, [2]string{ids[i], ids[j]})
		}
	}
	snap := buildSnapshot(ids, edges)

	it, err := NewEngine(Config{MaxPaths: 5}).AllPaths(snap, "a", "f", 5)
	if err != nil {
		t.Fatalf("AllPaths() error = %v", err)
	}
	count := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		count++
	}
	if count != 5 {
		t.Errorf("yielded %d paths, want cap of 5", count)
	}
}

func TestAllPathsReset(t *testing.T) {
	snap := buildSnapshot(
		[]string{"a", "b", "d"},
		[][2]string{{"a", "b"}, {"b", "d"}},
	)
	it, err := NewEngine(Config{}).AllPaths(snap, "a", "d", 3)
	if err != nil {
		t.Fatalf("AllPaths() error = %v", err)
	}

	first, ok := it.Next()
	if !ok {
		t.Fatal("no first path")
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected exactly one path")
	}

	it.Reset()
	again, ok := it.Next()
	if !ok {
		t.Fatal("no path after Reset")
	}
	if !reflect.DeepEqual(first, again) {
		t.Errorf("Reset changed the sequence: %v vs %v", first, again)
	}
}

func TestAllPathsParallelEdges(t *testing.T) {
	// Duplicate a-b edges must not produce duplicate paths.
	snap := buildSnapshot(
		[]string{"a", "b", "d"},
		[][2]string{{"a", "b"}, {"a", "b"}, {"b", "d"}},
	)
	it, err := NewEngine(Config{}).AllPaths(snap, "a", "d", 3)
	if err != nil {
		t.Fatalf("AllPaths() error = %v", err)
	}
	count := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Errorf("yielded %d paths, want 1", count)
	}
}
