package pgx

import (
	"context"

	"github.com/lattice-intel/lattice/pkg/common"
)

const relationshipColumns = `id, scope, source_id, target_id, type,
	confidence, weight, observations, first_observed, last_observed`

// RelationshipsByScope loads every relationship in scope, ordered by id for
// stable snapshots.
func (s *GraphDBStorage) RelationshipsByScope(ctx context.Context, scope string) ([]common.Relationship, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE scope = $1 ORDER BY id`,
		scope,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rels := []common.Relationship{}
	for rows.Next() {
		var rel common.Relationship
		err := rows.Scan(
			&rel.ID, &rel.Scope, &rel.SourceID, &rel.TargetID, &rel.Type,
			&rel.Confidence, &rel.Weight, &rel.Observations,
			&rel.FirstObserved, &rel.LastObserved,
		)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// UpsertRelationship records one observation of an edge. The first
// observation of a (scope, source, target, type) tuple inserts a row;
// later ones fold into it: weight accumulates, the observation count goes
// up by one, confidence only ever rises and last_observed advances. The
// xmax trick distinguishes insert from update without a second query.
func (s *GraphDBStorage) UpsertRelationship(ctx context.Context, rel common.Relationship) (bool, error) {
	var created bool
	err := s.conn.QueryRow(ctx,
		`INSERT INTO relationships
		   (id, scope, source_id, target_id, type,
		    confidence, weight, observations, first_observed, last_observed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (scope, source_id, target_id, type) DO UPDATE SET
		   confidence = GREATEST(relationships.confidence, EXCLUDED.confidence),
		   weight = relationships.weight + EXCLUDED.weight,
		   observations = relationships.observations + 1,
		   last_observed = GREATEST(relationships.last_observed, EXCLUDED.last_observed)
		 RETURNING (xmax = 0)`,
		rel.ID, rel.Scope, rel.SourceID, rel.TargetID, rel.Type,
		rel.Confidence, rel.Weight, rel.Observations,
		rel.FirstObserved, rel.LastObserved,
	).Scan(&created)
	if err != nil {
		return false, mapEntityRefErr(err)
	}
	return created, nil
}
