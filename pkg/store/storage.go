package store

import (
	"context"
	"time"

	"github.com/lattice-intel/lattice/pkg/common"
)

// GraphStore is the persistence boundary of the analytics core. Upstream
// collectors write entities, relationships and content items through it;
// the graph builder and discovery read through it. All operations are
// scoped: no call can see or touch another scope's records.
type GraphStore interface {
	// EntitiesByScope loads every entity in scope. An empty scope returns an
	// empty slice, not an error.
	EntitiesByScope(ctx context.Context, scope string) ([]common.Entity, error)

	// RelationshipsByScope loads every relationship in scope.
	RelationshipsByScope(ctx context.Context, scope string) ([]common.Relationship, error)

	// ContentItemsByScope loads content items in scope observed at or after
	// since, oldest first. A zero since loads everything.
	ContentItemsByScope(ctx context.Context, scope string, since time.Time) ([]common.ContentItem, error)

	// GetEntity loads one entity, or common.ErrEntityNotFound.
	GetEntity(ctx context.Context, scope, id string) (common.Entity, error)

	// CreateEntity inserts a new entity.
	CreateEntity(ctx context.Context, entity common.Entity) error

	// UpsertRelationship records one observation of a relationship. A new
	// (scope, source, target, type) tuple is inserted; re-observation
	// updates confidence, weight, observation count and last-observed in
	// place. Returns whether a new row was created. Referencing an unknown
	// entity fails with common.ErrEntityNotFound.
	UpsertRelationship(ctx context.Context, rel common.Relationship) (created bool, err error)

	// SaveContentItem stores a content item and its entity mentions.
	SaveContentItem(ctx context.Context, item common.ContentItem) error

	// MergeEntities folds loserID into winnerID: relationships are rewired
	// to the winner, duplicates collapsed, and the loser deleted. Runs in a
	// single transaction.
	MergeEntities(ctx context.Context, scope, winnerID, loserID string) error

	// DeleteEntity removes an entity and cascades its relationships and
	// mentions.
	DeleteEntity(ctx context.Context, scope, id string) error
}
