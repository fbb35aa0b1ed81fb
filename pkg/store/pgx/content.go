package pgx

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lattice-intel/lattice/pkg/common"
	"github.com/lattice-intel/lattice/pkg/store"
)

// mentionChunkSize bounds the batch size of one mention insert round trip.
const mentionChunkSize = 500

// ContentItemsByScope loads content items in scope observed at or after
// since, oldest first. Mentions are fetched in one pass and grouped in
// memory instead of row-per-mention joins per item.
func (s *GraphDBStorage) ContentItemsByScope(ctx context.Context, scope string, since time.Time) ([]common.ContentItem, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT id, scope, text, observed_at FROM content_items
		 WHERE scope = $1 AND observed_at >= $2
		 ORDER BY observed_at, id`,
		scope, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []common.ContentItem{}
	index := map[string]int{}
	for rows.Next() {
		var item common.ContentItem
		if err := rows.Scan(&item.ID, &item.Scope, &item.Text, &item.Timestamp); err != nil {
			return nil, err
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	mentionRows, err := s.conn.Query(ctx,
		`SELECT m.content_id, m.entity_id
		 FROM content_mentions m
		 JOIN content_items c ON c.scope = m.scope AND c.id = m.content_id
		 WHERE m.scope = $1 AND c.observed_at >= $2
		 ORDER BY m.content_id, m.entity_id`,
		scope, since,
	)
	if err != nil {
		return nil, err
	}
	defer mentionRows.Close()

	for mentionRows.Next() {
		var contentID, entityID string
		if err := mentionRows.Scan(&contentID, &entityID); err != nil {
			return nil, err
		}
		if idx, ok := index[contentID]; ok {
			items[idx].EntityIDs = append(items[idx].EntityIDs, entityID)
		}
	}
	return items, mentionRows.Err()
}

// SaveContentItem stores a content item and its entity mentions in one
// transaction. Mentions of entities this store has never seen fail with
// common.ErrEntityNotFound.
func (s *GraphDBStorage) SaveContentItem(ctx context.Context, item common.ContentItem) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO content_items (id, scope, text, observed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (scope, id) DO UPDATE SET
		   text = EXCLUDED.text,
		   observed_at = EXCLUDED.observed_at`,
		item.ID, item.Scope, item.Text, item.Timestamp,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM content_mentions WHERE scope = $1 AND content_id = $2`,
		item.Scope, item.ID,
	)
	if err != nil {
		return err
	}

	mentions := store.DedupeStrings(item.EntityIDs)
	err = store.ChunkRange(len(mentions), mentionChunkSize, func(start, end int) error {
		batch := &pgx.Batch{}
		for _, entityID := range mentions[start:end] {
			batch.Queue(
				`INSERT INTO content_mentions (scope, content_id, entity_id)
				 VALUES ($1, $2, $3)
				 ON CONFLICT DO NOTHING`,
				item.Scope, item.ID, entityID,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range mentions[start:end] {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return mapEntityRefErr(err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
