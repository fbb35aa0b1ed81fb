package graph

import (
	"sort"
	"time"

	"github.com/lattice-intel/lattice/pkg/common"
)

// Neighbor is one adjacency entry: the entity on the other end of an edge
// and the index of that edge in the snapshot's relationship slice.
type Neighbor struct {
	ID        string
	EdgeIndex int
}

// Snapshot is an immutable point-in-time materialization of every entity and
// relationship in a scope. Analytic engines only ever read snapshots; a
// mutation produces a new snapshot on the next rebuild, never edits one.
type Snapshot struct {
	Scope         string
	TakenAt       time.Time
	Entities      map[string]common.Entity
	Relationships []common.Relationship

	adjacency map[string][]Neighbor
	order     []string
}

// NewSnapshot builds a snapshot from loaded records, indexing adjacency for
// O(1) neighbor lookup. Relationships referencing unknown entities are
// dropped rather than left dangling. Node order is fixed (sorted by id) so
// every downstream computation iterates deterministically.
func NewSnapshot(scope string, entities []common.Entity, relationships []common.Relationship) *Snapshot {
	s := &Snapshot{
		Scope:     scope,
		TakenAt:   time.Now().UTC(),
		Entities:  make(map[string]common.Entity, len(entities)),
		adjacency: make(map[string][]Neighbor, len(entities)),
	}

	for _, e := range entities {
		s.Entities[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	sort.Strings(s.order)

	s.Relationships = make([]common.Relationship, 0, len(relationships))
	for _, r := range relationships {
		if _, ok := s.Entities[r.SourceID]; !ok {
			continue
		}
		if _, ok := s.Entities[r.TargetID]; !ok {
			continue
		}
		idx := len(s.Relationships)
		s.Relationships = append(s.Relationships, r)
		s.adjacency[r.SourceID] = append(s.adjacency[r.SourceID], Neighbor{ID: r.TargetID, EdgeIndex: idx})
		if r.TargetID != r.SourceID {
			s.adjacency[r.TargetID] = append(s.adjacency[r.TargetID], Neighbor{ID: r.SourceID, EdgeIndex: idx})
		}
	}

	return s
}

// NodeCount returns the number of entities in the snapshot.
func (s *Snapshot) NodeCount() int {
	return len(s.order)
}

// EdgeCount returns the number of relationships in the snapshot.
func (s *Snapshot) EdgeCount() int {
	return len(s.Relationships)
}

// NodeIDs returns the entity ids in fixed sorted order. Callers must not
// mutate the returned slice.
func (s *Snapshot) NodeIDs() []string {
	return s.order
}

// HasEntity reports whether id exists in the snapshot.
func (s *Snapshot) HasEntity(id string) bool {
	_, ok := s.Entities[id]
	return ok
}

// Neighbors returns the adjacency list of id, treating every edge as
// undirected. Callers must not mutate the returned slice.
func (s *Snapshot) Neighbors(id string) []Neighbor {
	return s.adjacency[id]
}

// Degree returns the raw connection count of id.
func (s *Snapshot) Degree(id string) int {
	return len(s.adjacency[id])
}

// EdgeWeight returns the weight of the relationship at edge index idx,
// defaulting to 1 when the stored weight is unset.
func (s *Snapshot) EdgeWeight(idx int) float64 {
	w := s.Relationships[idx].Weight
	if w <= 0 {
		return 1.0
	}
	return w
}
