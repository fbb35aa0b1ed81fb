// Package cache fronts the analytic engines with scoped, independently
// expiring result tiers. The lock guards only the entry lookup and epoch
// check; recomputation runs outside it, coalesced per (scope, kind) so
// concurrent misses trigger at most one compute.
package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Kind names one cache tier.
type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindLayout   Kind = "layout"
	KindCluster  Kind = "cluster"
)

// Kinds lists every tier in status order.
var Kinds = []Kind{KindSnapshot, KindLayout, KindCluster}

type tierKey struct {
	scope string
	kind  Kind
}

type tierEntry struct {
	value    any
	params   string
	loadedAt time.Time
	epoch    uint64
}

type tierStats struct {
	hits   uint64
	misses uint64
}

// tiers is the raw TTL + invalidation-epoch store behind the Layer. It knows
// nothing about graphs; it stores opaque values per (scope, kind) and
// enforces the freshness rules.
type tiers struct {
	now func() time.Time
	ttl map[Kind]time.Duration

	mu      sync.Mutex
	entries map[tierKey]*tierEntry
	epochs  map[tierKey]uint64
	stats   map[tierKey]*tierStats

	group singleflight.Group
}

func newTiers(now func() time.Time, ttl map[Kind]time.Duration) *tiers {
	return &tiers{
		now:     now,
		ttl:     ttl,
		entries: map[tierKey]*tierEntry{},
		epochs:  map[tierKey]uint64{},
		stats:   map[tierKey]*tierStats{},
	}
}

func (t *tiers) stat(k tierKey) *tierStats {
	s := t.stats[k]
	if s == nil {
		s = &tierStats{}
		t.stats[k] = s
	}
	return s
}

// lookup returns the cached value when it is present, unexpired, loaded
// after the last invalidation and computed for the same params. The second
// return is the current epoch, needed by callers that go on to compute.
func (t *tiers) lookup(k tierKey, params string) (any, uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	epoch := t.epochs[k]
	ent := t.entries[k]
	if ent != nil &&
		ent.epoch == epoch &&
		ent.params == params &&
		t.now().Sub(ent.loadedAt) <= t.ttl[k.kind] {
		t.stat(k).hits++
		return ent.value, epoch, true
	}
	t.stat(k).misses++
	return nil, epoch, false
}

// get returns the cached value or runs compute once per (scope, kind, epoch,
// params) across concurrent callers. A value computed before an invalidation
// carries the older epoch and is never served after it.
func (t *tiers) get(k tierKey, params string, compute func() (any, error)) (any, bool, error) {
	v, epoch, ok := t.lookup(k, params)
	if ok {
		return v, true, nil
	}

	flight := fmt.Sprintf("%s\x00%s\x00%d\x00%s", k.scope, k.kind, epoch, params)
	v, err, _ := t.group.Do(flight, func() (any, error) {
		// Another caller of this flight may have stored between our lookup
		// and the flight starting.
		if v, _, ok := t.lookup(k, params); ok {
			return v, nil
		}
		val, err := compute()
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.entries[k] = &tierEntry{
			value:    val,
			params:   params,
			loadedAt: t.now(),
			epoch:    epoch,
		}
		t.mu.Unlock()
		return val, nil
	})
	return v, false, err
}

// peek returns the cached value without counting a hit or miss and without
// triggering a compute.
func (t *tiers) peek(k tierKey) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	epoch := t.epochs[k]
	ent := t.entries[k]
	if ent != nil &&
		ent.epoch == epoch &&
		t.now().Sub(ent.loadedAt) <= t.ttl[k.kind] {
		return ent.value, true
	}
	return nil, false
}

// invalidate bumps the epoch so every entry loaded before the call is
// rejected regardless of remaining TTL.
func (t *tiers) invalidate(k tierKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.epochs[k]++
	delete(t.entries, k)
}

// TierStatus describes one tier of one scope for the introspection surface.
type TierStatus struct {
	Kind       Kind    `json:"kind"`
	Cached     bool    `json:"cached"`
	AgeSeconds float64 `json:"age_seconds"`
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
}

func (t *tiers) status(k tierKey) TierStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := TierStatus{Kind: k.kind}
	if s := t.stats[k]; s != nil {
		st.Hits, st.Misses = s.hits, s.misses
	}
	epoch := t.epochs[k]
	ent := t.entries[k]
	if ent != nil &&
		ent.epoch == epoch &&
		t.now().Sub(ent.loadedAt) <= t.ttl[k.kind] {
		st.Cached = true
		st.AgeSeconds = t.now().Sub(ent.loadedAt).Seconds()
	}
	return st
}
