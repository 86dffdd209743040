package store

import (
	"context"
	"fmt"
)

// TablesMatching returns the names of persisted tables matching a SQL LIKE
// pattern (underscores must be escaped by the caller with backslash).
func (q *queries) TablesMatching(ctx context.Context, pattern string) ([]string, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ? ESCAPE '\' ORDER BY name`,
		pattern)
	if err != nil {
		return nil, fmt.Errorf("tables matching %q: %w", pattern, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TableExists reports whether a table with the exact name is persisted.
func (q *queries) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %q: %w", name, err)
	}
	return count > 0, nil
}

// TableHasRows reports whether the named table contains any data. The name is
// interpolated because identifiers cannot be bound; callers pass names read
// back from sqlite_master, never external input.
func (q *queries) TableHasRows(ctx context.Context, name string) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM (SELECT 1 FROM "`+name+`" LIMIT 1)`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count rows in %q: %w", name, err)
	}
	return count > 0, nil
}

// RenameTable renames a persisted table, preserving its data.
func (q *queries) RenameTable(ctx context.Context, oldName, newName string) error {
	if _, err := q.exec(ctx, `ALTER TABLE "`+oldName+`" RENAME TO "`+newName+`"`); err != nil {
		return fmt.Errorf("rename table %q to %q: %w", oldName, newName, err)
	}
	return nil
}

// DropTable removes a persisted table outright.
func (q *queries) DropTable(ctx context.Context, name string) error {
	if _, err := q.exec(ctx, `DROP TABLE IF EXISTS "`+name+`"`); err != nil {
		return fmt.Errorf("drop table %q: %w", name, err)
	}
	return nil
}
