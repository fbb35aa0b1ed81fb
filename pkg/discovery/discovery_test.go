package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lattice-intel/lattice/pkg/common"
)

type edgeKey struct {
	source, target, relType string
}

type fakeStore struct {
	items []common.ContentItem
	edges map[edgeKey]common.Relationship

	failAfter int // fail the nth upsert (1-based); 0 disables
	upserts   int
}

func newFakeStore(items ...common.ContentItem) *fakeStore {
	return &fakeStore{items: items, edges: map[edgeKey]common.Relationship{}}
}

func (f *fakeStore) ContentItemsByScope(ctx context.Context, scope string, since time.Time) ([]common.ContentItem, error) {
	return f.items, nil
}

func (f *fakeStore) UpsertRelationship(ctx context.Context, rel common.Relationship) (bool, error) {
	f.upserts++
	if f.failAfter > 0 && f.upserts >= f.failAfter {
		return false, errors.New("write failed")
	}
	key := edgeKey{rel.SourceID, rel.TargetID, rel.Type}
	if existing, ok := f.edges[key]; ok {
		if rel.Confidence > existing.Confidence {
			existing.Confidence = rel.Confidence
		}
		existing.Observations++
		f.edges[key] = existing
		return false, nil
	}
	f.edges[key] = rel
	return true, nil
}

type fakeInvalidator struct {
	scopes []string
}

func (f *fakeInvalidator) Invalidate(scope string) {
	f.scopes = append(f.scopes, scope)
}

func item(id string, at time.Time, text string, entityIDs ...string) common.ContentItem {
	return common.ContentItem{ID: id, Scope: "s", EntityIDs: entityIDs, Text: text, Timestamp: at}
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDiscoverBelowThreshold(t *testing.T) {
	store := newFakeStore(item("i1", t0, "X met Y", "X", "Y"))
	d := NewDiscoverer(store, nil, Config{MinCoOccurrences: 2})

	res, err := d.Run(context.Background(), "s", time.Time{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Created != 0 || len(store.edges) != 0 {
		t.Errorf("created %d edges below threshold, want 0", len(store.edges))
	}
}

func TestDiscoverSecondItemCreatesEdge(t *testing.T) {
	store := newFakeStore(
		item("i1", t0, "X and Y attended", "X", "Y"),
		item("i2", t0.Add(time.Hour), "X and Y again", "X", "Y"),
	)
	d := NewDiscoverer(store, nil, Config{MinCoOccurrences: 2})

	res, err := d.Run(context.Background(), "s", time.Time{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Created != 1 || res.Updated != 0 {
		t.Errorf("result = %+v, want exactly one created edge", res)
	}
	if len(store.edges) != 1 {
		t.Fatalf("store holds %d edges, want 1", len(store.edges))
	}
	for _, rel := range store.edges {
		if rel.Observations != 2 {
			t.Errorf("observations = %d, want 2", rel.Observations)
		}
		want := confidenceFor(2, 0)
		if rel.Confidence != want {
			t.Errorf("confidence = %f, want %f", rel.Confidence, want)
		}
		if rel.SourceID != "X" || rel.TargetID != "Y" {
			t.Errorf("edge endpoints = %s-%s, want X-Y (canonical order)", rel.SourceID, rel.TargetID)
		}
	}
}

func TestDiscoverIdempotent(t *testing.T) {
	store := newFakeStore(
		item("i1", t0, "", "X", "Y"),
		item("i2", t0.Add(time.Hour), "", "X", "Y"),
	)
	d := NewDiscoverer(store, nil, Config{MinCoOccurrences: 2})

	first, err := d.Run(context.Background(), "s", time.Time{})
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Created != 1 {
		t.Fatalf("first run created %d, want 1", first.Created)
	}
	edgesAfterFirst := len(store.edges)

	second, err := d.Run(context.Background(), "s", time.Time{})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.Created != 0 || second.Updated != 1 {
		t.Errorf("second run = %+v, want 0 created 1 updated", second)
	}
	if len(store.edges) != edgesAfterFirst {
		t.Errorf("edge count changed on rerun: %d -> %d", edgesAfterFirst, len(store.edges))
	}
}

func TestDiscoverKeywordType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"employment keywords", "X works at Y as chief of staff", "employment"},
		{"family keywords", "X married Y", "family"},
		{"no keywords", "X something Y", RelationTypeAssociated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(
				item("i1", t0, tt.text, "X", "Y"),
				item("i2", t0.Add(time.Hour), tt.text, "X", "Y"),
			)
			d := NewDiscoverer(store, nil, Config{MinCoOccurrences: 2})
			if _, err := d.Run(context.Background(), "s", time.Time{}); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			for key := range store.edges {
				if key.relType != tt.want {
					t.Errorf("edge type = %q, want %q", key.relType, tt.want)
				}
			}
		})
	}
}

func TestDiscoverKeywordsRaiseConfidence(t *testing.T) {
	plain := newFakeStore(
		item("i1", t0, "X something Y", "X", "Y"),
		item("i2", t0.Add(time.Hour), "X something Y", "X", "Y"),
	)
	keyed := newFakeStore(
		item("i1", t0, "X married Y", "X", "Y"),
		item("i2", t0.Add(time.Hour), "X married Y", "X", "Y"),
	)
	for _, s := range []*fakeStore{plain, keyed} {
		d := NewDiscoverer(s, nil, Config{MinCoOccurrences: 2})
		if _, err := d.Run(context.Background(), "s", time.Time{}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}

	var plainConf, keyedConf float64
	for _, rel := range plain.edges {
		plainConf = rel.Confidence
	}
	for _, rel := range keyed.edges {
		keyedConf = rel.Confidence
	}
	if keyedConf <= plainConf {
		t.Errorf("keyword match confidence %f not above plain %f", keyedConf, plainConf)
	}
}

func TestDiscoverTimeWindow(t *testing.T) {
	// X and Y never share an item but appear within the window.
	items := []common.ContentItem{
		item("i1", t0, "", "X"),
		item("i2", t0.Add(10*time.Minute), "", "Y"),
		item("i3", t0.Add(20*time.Minute), "", "X"),
		item("i4", t0.Add(30*time.Minute), "", "Y"),
	}

	t.Run("window disabled", func(t *testing.T) {
		store := newFakeStore(items...)
		d := NewDiscoverer(store, nil, Config{MinCoOccurrences: 2})
		res, err := d.Run(context.Background(), "s", time.Time{})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Created != 0 {
			t.Errorf("created %d without a window, want 0", res.Created)
		}
	})

	t.Run("window enabled", func(t *testing.T) {
		store := newFakeStore(items...)
		d := NewDiscoverer(store, nil, Config{MinCoOccurrences: 2, TimeWindow: 15 * time.Minute})
		res, err := d.Run(context.Background(), "s", time.Time{})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Created != 1 {
			t.Errorf("created %d with window, want 1", res.Created)
		}
		// The seen window covers both ends of every window co-occurrence:
		// the earliest pairing starts at i1, the latest ends at i4.
		for _, rel := range store.edges {
			if !rel.FirstObserved.Equal(t0) {
				t.Errorf("first observed = %v, want %v", rel.FirstObserved, t0)
			}
			if !rel.LastObserved.Equal(t0.Add(30 * time.Minute)) {
				t.Errorf("last observed = %v, want %v", rel.LastObserved, t0.Add(30*time.Minute))
			}
		}
	})
}

func TestDiscoverPartialFailure(t *testing.T) {
	// Three qualifying pairs; the store fails on the third write.
	store := newFakeStore(
		item("i1", t0, "", "A", "B", "C"),
		item("i2", t0.Add(time.Hour), "", "A", "B", "C"),
	)
	store.failAfter = 3
	inval := &fakeInvalidator{}
	d := NewDiscoverer(store, inval, Config{MinCoOccurrences: 2})

	res, err := d.Run(context.Background(), "s", time.Time{})
	if err == nil {
		t.Fatal("Run() succeeded, want mid-run failure")
	}
	if res.Created != 2 {
		t.Errorf("reported %d created, want exactly the 2 committed", res.Created)
	}
	if len(store.edges) != 2 {
		t.Errorf("store holds %d edges, want 2", len(store.edges))
	}
	if len(inval.scopes) != 1 || inval.scopes[0] != "s" {
		t.Errorf("invalidations = %v, want exactly [s]", inval.scopes)
	}
}

func TestDiscoverNoChangesNoInvalidation(t *testing.T) {
	store := newFakeStore(item("i1", t0, "", "X", "Y"))
	inval := &fakeInvalidator{}
	d := NewDiscoverer(store, inval, Config{MinCoOccurrences: 2})

	if _, err := d.Run(context.Background(), "s", time.Time{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(inval.scopes) != 0 {
		t.Errorf("invalidated %v with nothing written", inval.scopes)
	}
}

func TestConfidenceMonotonic(t *testing.T) {
	if confidenceFor(3, 0) <= confidenceFor(2, 0) {
		t.Error("confidence not monotonic in co-occurrence count")
	}
	if confidenceFor(2, 2) <= confidenceFor(2, 0) {
		t.Error("confidence not monotonic in keyword hits")
	}
	if confidenceFor(100, 100) >= 1 {
		t.Errorf("confidence %f not saturating below 1", confidenceFor(100, 100))
	}
}
