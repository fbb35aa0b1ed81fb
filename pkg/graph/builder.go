package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/logger"
)

// Source is the slice of the persistent store the builder needs: scoped,
// read-only entity and relationship loads.
type Source interface {
	EntitiesByScope(ctx context.Context, scope string) ([]common.Entity, error)
	RelationshipsByScope(ctx context.Context, scope string) ([]common.Relationship, error)
}

// Builder loads scoped graph snapshots from a persistent store. It is
// read-only and side-effect-free: concurrent loads for the same or different
// scopes are safe and idempotent.
type Builder struct {
	source      Source
	readTimeout time.Duration
}

// NewBuilder creates a Builder over source. readTimeout bounds each store
// read; zero means 10 seconds.
func NewBuilder(source Source, readTimeout time.Duration) *Builder {
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	return &Builder{source: source, readTimeout: readTimeout}
}

// Load reads every entity and relationship in scope and materializes a
// snapshot. An empty scope yields an empty snapshot, not an error. Store
// failures and timeouts surface as common.ErrStoreUnavailable.
func (b *Builder) Load(ctx context.Context, scope string) (*Snapshot, error) {
	start := time.Now()

	rctx, cancel := context.WithTimeout(ctx, b.readTimeout)
	defer cancel()

	var (
		entities      []common.Entity
		relationships []common.Relationship
	)
	g, gctx := errgroup.WithContext(rctx)
	g.Go(func() error {
		var err error
		if entities, err = b.source.EntitiesByScope(gctx, scope); err != nil {
			return storeErr("load entities", scope, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if relationships, err = b.source.RelationshipsByScope(gctx, scope); err != nil {
			return storeErr("load relationships", scope, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := NewSnapshot(scope, entities, relationships)

	logger.Debug("[Graph] Snapshot built",
		"scope", scope,
		"nodes", snap.NodeCount(),
		"edges", snap.EdgeCount(),
		"duration", time.Since(start),
	)

	return snap, nil
}

func storeErr(op, scope string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s for scope %s timed out: %w", op, scope, common.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s for scope %s: %w: %w", op, scope, common.ErrStoreUnavailable, err)
}
