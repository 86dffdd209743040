package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LoadSchemaSnapshot returns the persisted schema snapshot payload, if one
// exists. A missing snapshot means a fresh install.
func (q *queries) LoadSchemaSnapshot(ctx context.Context) (payload string, found bool, err error) {
	err = q.db.QueryRowContext(ensureContext(ctx),
		`SELECT payload FROM schema_snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load schema snapshot: %w", err)
	}
	return payload, true, nil
}

// SaveSchemaSnapshot persists the schema snapshot, replacing any prior one.
func (q *queries) SaveSchemaSnapshot(ctx context.Context, version int, payload string) error {
	if _, err := q.exec(ctx,
		`INSERT INTO schema_snapshot (id, version, payload, updated_at) VALUES (1, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET version = excluded.version,
             payload = excluded.payload, updated_at = excluded.updated_at`,
		version, payload, timestamp(),
	); err != nil {
		return fmt.Errorf("save schema snapshot: %w", err)
	}
	return nil
}
