package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/logger"
)

const (
	baseConfidence       = 0.3
	coOccurStep          = 0.1
	maxCoOccurConfidence = 0.8
	keywordStep          = 0.05
	maxKeywordBoost      = 0.15
	maxConfidence        = 0.95
)

// Store is the slice of the persistence layer discovery needs.
type Store interface {
	ContentItemsByScope(ctx context.Context, scope string, since time.Time) ([]common.ContentItem, error)
	UpsertRelationship(ctx context.Context, rel common.Relationship) (created bool, err error)
}

// Invalidator receives cache invalidations for scopes whose graph changed.
type Invalidator interface {
	Invalidate(scope string)
}

// Config bounds a discovery run.
type Config struct {
	// MinCoOccurrences is the evidence threshold below which a pair gets no
	// edge. Defaults to 2.
	MinCoOccurrences int
	// TimeWindow extends co-occurrence across items whose timestamps are
	// within the window of each other. Zero means same-item only.
	TimeWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinCoOccurrences <= 0 {
		c.MinCoOccurrences = 2
	}
	return c
}

// Result reports what a run actually committed. On a mid-run store failure
// the counts cover exactly the edges written before the failure.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	// Candidates is the number of pairs that met the evidence threshold.
	Candidates int `json:"candidates"`
}

// Discoverer infers relationships from entity co-occurrence in content
// items. Safe for concurrent use across scopes.
type Discoverer struct {
	store Store
	inval Invalidator
	cfg   Config
}

// NewDiscoverer creates a Discoverer. inval may be nil when no cache sits in
// front of the store.
func NewDiscoverer(store Store, inval Invalidator, cfg Config) *Discoverer {
	return &Discoverer{store: store, inval: inval, cfg: cfg.withDefaults()}
}

type pairKey struct {
	a, b string
}

func makePairKey(x, y string) pairKey {
	if x < y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

type pairEvidence struct {
	count    int
	hits     map[string]int
	first    time.Time
	last     time.Time
	hasTimes bool
}

// observe records one co-occurrence spanning [from, to]. Same-item
// observations pass the item timestamp for both ends; window observations
// pass both items' timestamps so the seen window covers the earlier one too.
func (ev *pairEvidence) observe(from, to time.Time, hits map[string]int) {
	ev.count++
	if ev.hits == nil {
		ev.hits = map[string]int{}
	}
	for relType, n := range hits {
		ev.hits[relType] += n
	}
	if !ev.hasTimes {
		ev.first, ev.last, ev.hasTimes = from, to, true
		return
	}
	if from.Before(ev.first) {
		ev.first = from
	}
	if to.After(ev.last) {
		ev.last = to
	}
}

// Run loads content items for scope observed at or after since, infers
// edges, and invalidates the scope's caches when anything was written. On a
// partial failure the caches still get invalidated for what did commit.
func (d *Discoverer) Run(ctx context.Context, scope string, since time.Time) (Result, error) {
	items, err := d.store.ContentItemsByScope(ctx, scope, since)
	if err != nil {
		return Result{}, fmt.Errorf("load content items: %w", err)
	}
	res, err := d.Discover(ctx, scope, items)
	if d.inval != nil && res.Created+res.Updated > 0 {
		d.inval.Invalidate(scope)
	}
	return res, err
}

// Discover counts co-occurrences over items and upserts an edge for every
// pair meeting the threshold. Idempotent: a rerun on unchanged input updates
// the existing edges instead of duplicating them. Pairs are committed in a
// fixed order so a mid-run failure leaves a well-defined prefix written, and
// the returned Result counts exactly that prefix.
func (d *Discoverer) Discover(ctx context.Context, scope string, items []common.ContentItem) (Result, error) {
	evidence := d.collect(items)

	keys := make([]pairKey, 0, len(evidence))
	for key, ev := range evidence {
		if ev.count >= d.cfg.MinCoOccurrences {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	logger.Info("[Discovery] Run",
		"scope", scope,
		"items", len(items),
		"pairs", len(evidence),
		"candidates", len(keys),
	)

	res := Result{Candidates: len(keys)}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ev := evidence[key]
		relType, hitCount := dominantCategory(ev.hits)

		id, err := gonanoid.New()
		if err != nil {
			return res, fmt.Errorf("generate relationship id: %w", err)
		}
		created, err := d.store.UpsertRelationship(ctx, common.Relationship{
			ID:            id,
			Scope:         scope,
			SourceID:      key.a,
			TargetID:      key.b,
			Type:          relType,
			Confidence:    confidenceFor(ev.count, hitCount),
			Weight:        1.0,
			Observations:  ev.count,
			FirstObserved: ev.first,
			LastObserved:  ev.last,
		})
		if err != nil {
			return res, fmt.Errorf("upsert %s-%s: %w", key.a, key.b, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	logger.Info("[Discovery] Finished",
		"scope", scope,
		"created", res.Created,
		"updated", res.Updated,
	)
	return res, nil
}

// collect tallies co-occurrence evidence per entity pair: once per shared
// content item, plus once per item pair whose timestamps fall within the
// window when one is configured.
func (d *Discoverer) collect(items []common.ContentItem) map[pairKey]*pairEvidence {
	sorted := make([]common.ContentItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	mentions := make([][]string, len(sorted))
	hits := make([]map[string]int, len(sorted))
	for i, item := range sorted {
		mentions[i] = dedupe(item.EntityIDs)
		hits[i] = map[string]int{}
		keywordHits(strings.ToLower(item.Text), hits[i])
	}

	evidence := map[pairKey]*pairEvidence{}
	record := func(key pairKey, from, to time.Time, h map[string]int) {
		ev := evidence[key]
		if ev == nil {
			ev = &pairEvidence{}
			evidence[key] = ev
		}
		ev.observe(from, to, h)
	}

	for i := range sorted {
		ids := mentions[i]
		for x := 0; x < len(ids); x++ {
			for y := x + 1; y < len(ids); y++ {
				record(makePairKey(ids[x], ids[y]), sorted[i].Timestamp, sorted[i].Timestamp, hits[i])
			}
		}

		if d.cfg.TimeWindow <= 0 {
			continue
		}
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Timestamp.Sub(sorted[i].Timestamp) > d.cfg.TimeWindow {
				break
			}
			seen := map[pairKey]bool{}
			for _, x := range mentions[i] {
				for _, y := range mentions[j] {
					if x == y {
						continue
					}
					key := makePairKey(x, y)
					if seen[key] {
						continue
					}
					seen[key] = true
					record(key, sorted[i].Timestamp, sorted[j].Timestamp, hits[i])
					for relType, n := range hits[j] {
						evidence[key].hits[relType] += n
					}
				}
			}
		}
	}
	return evidence
}

// confidenceFor is monotonic in both co-occurrence count and keyword match
// strength, saturating below 1.
func confidenceFor(count, hitCount int) float64 {
	conf := baseConfidence + coOccurStep*float64(count-1)
	if conf > maxCoOccurConfidence {
		conf = maxCoOccurConfidence
	}
	boost := keywordStep * float64(hitCount)
	if boost > maxKeywordBoost {
		boost = maxKeywordBoost
	}
	conf += boost
	if conf > maxConfidence {
		conf = maxConfidence
	}
	return conf
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
