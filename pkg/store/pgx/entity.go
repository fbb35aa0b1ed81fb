package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lattice-intel/lattice/pkg/common"
)

const entityColumns = `id, scope, name, type, metadata, first_seen, last_seen`

func scanEntity(row pgx.Row) (common.Entity, error) {
	var (
		ent common.Entity
		raw []byte
		typ string
	)
	err := row.Scan(&ent.ID, &ent.Scope, &ent.Name, &typ, &raw, &ent.FirstSeen, &ent.LastSeen)
	if err != nil {
		return common.Entity{}, err
	}
	ent.Type = common.ParseEntityType(typ)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ent.Metadata); err != nil {
			return common.Entity{}, fmt.Errorf("decode entity metadata: %w", err)
		}
	}
	return ent, nil
}

// EntitiesByScope loads every entity in scope, ordered by id for stable
// snapshots.
func (s *GraphDBStorage) EntitiesByScope(ctx context.Context, scope string) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE scope = $1 ORDER BY id`,
		scope,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []common.Entity{}
	for rows.Next() {
		ent, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, ent)
	}
	return entities, rows.Err()
}

func (s *GraphDBStorage) GetEntity(ctx context.Context, scope, id string) (common.Entity, error) {
	ent, err := scanEntity(s.conn.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE scope = $1 AND id = $2`,
		scope, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return common.Entity{}, common.ErrEntityNotFound
	}
	return ent, err
}

func (s *GraphDBStorage) CreateEntity(ctx context.Context, entity common.Entity) error {
	meta, err := json.Marshal(entity.Metadata)
	if err != nil {
		return fmt.Errorf("encode entity metadata: %w", err)
	}
	_, err = s.conn.Exec(ctx,
		`INSERT INTO entities (id, scope, name, type, metadata, first_seen, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entity.ID, entity.Scope, entity.Name, string(entity.Type), meta,
		entity.FirstSeen, entity.LastSeen,
	)
	return err
}

// MergeEntities folds loserID into winnerID inside one transaction. Edges of
// the loser are rewired to the winner; where the winner already has an edge
// with the same endpoint and type, the two are collapsed by summing weight
// and observations and keeping the higher confidence and widest observation
// window. Self loops produced by the rewiring are dropped.
func (s *GraphDBStorage) MergeEntities(ctx context.Context, scope, winnerID, loserID string) error {
	if winnerID == loserID {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entities WHERE scope = $1 AND id = $2)
		    AND EXISTS (SELECT 1 FROM entities WHERE scope = $1 AND id = $3)`,
		scope, winnerID, loserID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrEntityNotFound
	}

	// Edges between the pair become self loops after rewiring; drop them up
	// front so the updates below cannot hit a constraint on them.
	_, err = tx.Exec(ctx,
		`DELETE FROM relationships
		 WHERE scope = $1
		   AND ((source_id = $2 AND target_id = $3) OR (source_id = $3 AND target_id = $2))`,
		scope, winnerID, loserID,
	)
	if err != nil {
		return err
	}

	// Collapse loser edges that would collide with an existing winner edge
	// on the (source, target, type) key, then rewire the rest.
	for _, rewire := range []struct{ from, to string }{
		{"source_id", "target_id"},
		{"target_id", "source_id"},
	} {
		_, err = tx.Exec(ctx, fmt.Sprintf(
			`UPDATE relationships w
			 SET weight = w.weight + l.weight,
			     observations = w.observations + l.observations,
			     confidence = GREATEST(w.confidence, l.confidence),
			     first_observed = LEAST(w.first_observed, l.first_observed),
			     last_observed = GREATEST(w.last_observed, l.last_observed)
			 FROM relationships l
			 WHERE w.scope = $1 AND l.scope = $1
			   AND w.%[1]s = $2 AND l.%[1]s = $3
			   AND w.%[2]s = l.%[2]s AND w.type = l.type`,
			rewire.from, rewire.to),
			scope, winnerID, loserID,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, fmt.Sprintf(
			`DELETE FROM relationships l
			 WHERE l.scope = $1 AND l.%[1]s = $2
			   AND EXISTS (
			     SELECT 1 FROM relationships w
			     WHERE w.scope = $1 AND w.%[1]s = $3
			       AND w.%[2]s = l.%[2]s AND w.type = l.type)`,
			rewire.from, rewire.to),
			scope, loserID, winnerID,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, fmt.Sprintf(
			`UPDATE relationships SET %[1]s = $2 WHERE scope = $1 AND %[1]s = $3`,
			rewire.from),
			scope, winnerID, loserID,
		)
		if err != nil {
			return err
		}
	}

	// Mentions of the loser either move to the winner or, where the winner
	// is already mentioned in the same item, disappear.
	_, err = tx.Exec(ctx,
		`DELETE FROM content_mentions l
		 WHERE l.scope = $1 AND l.entity_id = $2
		   AND EXISTS (
		     SELECT 1 FROM content_mentions w
		     WHERE w.scope = $1 AND w.entity_id = $3 AND w.content_id = l.content_id)`,
		scope, loserID, winnerID,
	)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE content_mentions SET entity_id = $2 WHERE scope = $1 AND entity_id = $3`,
		scope, winnerID, loserID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE entities w
		 SET first_seen = LEAST(w.first_seen, l.first_seen),
		     last_seen = GREATEST(w.last_seen, l.last_seen)
		 FROM entities l
		 WHERE w.scope = $1 AND w.id = $2 AND l.scope = $1 AND l.id = $3`,
		scope, winnerID, loserID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM entities WHERE scope = $1 AND id = $2`,
		scope, loserID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteEntity removes an entity. Relationships and mentions cascade via the
// schema's foreign keys.
func (s *GraphDBStorage) DeleteEntity(ctx context.Context, scope, id string) error {
	tag, err := s.conn.Exec(ctx,
		`DELETE FROM entities WHERE scope = $1 AND id = $2`,
		scope, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrEntityNotFound
	}
	return nil
}
