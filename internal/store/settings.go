package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SetReviewEnabled flips the per-content-type review workflows flag.
func (q *queries) SetReviewEnabled(ctx context.Context, uid string, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	if _, err := q.exec(ctx,
		`INSERT INTO content_type_settings (uid, review_enabled) VALUES (?, ?)
         ON CONFLICT (uid) DO UPDATE SET review_enabled = excluded.review_enabled`,
		uid, value,
	); err != nil {
		return fmt.Errorf("set review enabled: %w", err)
	}
	return nil
}

// ReviewEnabled reports whether review workflows are enabled for a content type.
func (q *queries) ReviewEnabled(ctx context.Context, uid string) (bool, error) {
	var value int
	err := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT review_enabled FROM content_type_settings WHERE uid = ?`, uid).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get review enabled: %w", err)
	}
	return value != 0, nil
}

// ReviewEnabledUIDs returns every content type with the review flag set.
func (q *queries) ReviewEnabledUIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT uid FROM content_type_settings WHERE review_enabled = 1 ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("review enabled uids: %w", err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}
