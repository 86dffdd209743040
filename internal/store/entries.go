package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const entryColumns = "id, document_id, content_type, title, data, created_at, updated_at"

// CreateEntry inserts a content record of the given type with a fresh
// document id.
func (q *queries) CreateEntry(ctx context.Context, contentType, title, data string) (*Entry, error) {
	if data == "" {
		data = "{}"
	}
	now := timestamp()
	res, err := q.exec(ctx,
		`INSERT INTO entries (document_id, content_type, title, data, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), contentType, title, data, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return q.EntryByID(ctx, id)
}

// EntryByID fetches an entry by identifier, or nil when absent.
func (q *queries) EntryByID(ctx context.Context, id int64) (*Entry, error) {
	row := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// EntriesByType returns all entries of a content type ordered by id.
func (q *queries) EntriesByType(ctx context.Context, contentType string) ([]*Entry, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT `+entryColumns+` FROM entries WHERE content_type = ? ORDER BY id`, contentType)
	if err != nil {
		return nil, fmt.Errorf("entries by type: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// StageLinkFor returns the stage pointer row for an entry, or nil when the
// entry has no stage.
func (q *queries) StageLinkFor(ctx context.Context, entryType string, entryID int64) (*StageLink, error) {
	var link StageLink
	err := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, stage_id, entry_id, entry_type FROM review_stage_links
         WHERE entry_type = ? AND entry_id = ?`, entryType, entryID).
		Scan(&link.ID, &link.StageID, &link.EntryID, &link.EntryType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stage link: %w", err)
	}
	return &link, nil
}

// SetEntryStage points an entry at a stage, inserting or replacing its link row.
func (q *queries) SetEntryStage(ctx context.Context, entryType string, entryID, stageID int64) error {
	if _, err := q.exec(ctx,
		`INSERT INTO review_stage_links (stage_id, entry_id, entry_type) VALUES (?, ?, ?)
         ON CONFLICT (entry_type, entry_id) DO UPDATE SET stage_id = excluded.stage_id`,
		stageID, entryID, entryType,
	); err != nil {
		return fmt.Errorf("set entry stage: %w", err)
	}
	return nil
}

// ClearEntryStage removes an entry's stage pointer.
func (q *queries) ClearEntryStage(ctx context.Context, entryType string, entryID int64) error {
	if _, err := q.exec(ctx,
		`DELETE FROM review_stage_links WHERE entry_type = ? AND entry_id = ?`,
		entryType, entryID,
	); err != nil {
		return fmt.Errorf("clear entry stage: %w", err)
	}
	return nil
}

// LinkedEntryIDs returns one page of entry ids of the given type that carry a
// stage pointer, in ascending id order starting after afterID.
func (q *queries) LinkedEntryIDs(ctx context.Context, entryType string, afterID int64, limit int) ([]int64, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT entry_id FROM review_stage_links
         WHERE entry_type = ? AND entry_id > ? ORDER BY entry_id LIMIT ?`,
		entryType, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("linked entry ids: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

// UnlinkedEntryIDs returns one page of entry ids of the given type that have
// no stage pointer, in ascending id order starting after afterID.
func (q *queries) UnlinkedEntryIDs(ctx context.Context, entryType string, afterID int64, limit int) ([]int64, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT e.id FROM entries e
         LEFT JOIN review_stage_links l ON l.entry_type = e.content_type AND l.entry_id = e.id
         WHERE e.content_type = ? AND l.id IS NULL AND e.id > ?
         ORDER BY e.id LIMIT ?`,
		entryType, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("unlinked entry ids: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

// RepointStageLinks moves the given entries' stage pointers to stageID.
func (q *queries) RepointStageLinks(ctx context.Context, entryType string, entryIDs []int64, stageID int64) (int64, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(entryIDs)+2)
	args = append(args, stageID, entryType)
	for _, id := range entryIDs {
		args = append(args, id)
	}
	query := `UPDATE review_stage_links SET stage_id = ?
        WHERE entry_type = ? AND entry_id IN (` + makePlaceholders(len(entryIDs)) + `)`
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("repoint stage links: %w", err)
	}
	return res.RowsAffected()
}

// InsertStageLinks creates stage pointers at stageID for the given entries.
func (q *queries) InsertStageLinks(ctx context.Context, entryType string, entryIDs []int64, stageID int64) error {
	for _, entryID := range entryIDs {
		if _, err := q.exec(ctx,
			`INSERT INTO review_stage_links (stage_id, entry_id, entry_type) VALUES (?, ?, ?)`,
			stageID, entryID, entryType,
		); err != nil {
			return fmt.Errorf("insert stage link: %w", err)
		}
	}
	return nil
}

// DeleteStageLinksByType removes every stage pointer owned by a content type,
// keyed by the polymorphic owner-type column.
func (q *queries) DeleteStageLinksByType(ctx context.Context, entryType string) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM review_stage_links WHERE entry_type = ?`, entryType)
	if err != nil {
		return 0, fmt.Errorf("delete stage links by type: %w", err)
	}
	return res.RowsAffected()
}

// DeleteStageLinksByStage removes every stage pointer aimed at a stage.
func (q *queries) DeleteStageLinksByStage(ctx context.Context, stageID int64) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM review_stage_links WHERE stage_id = ?`, stageID)
	if err != nil {
		return 0, fmt.Errorf("delete stage links by stage: %w", err)
	}
	return res.RowsAffected()
}

// RepointStageLinksByStage moves every pointer on one stage to another.
func (q *queries) RepointStageLinksByStage(ctx context.Context, fromStageID, toStageID int64) (int64, error) {
	res, err := q.exec(ctx,
		`UPDATE review_stage_links SET stage_id = ? WHERE stage_id = ?`,
		toStageID, fromStageID)
	if err != nil {
		return 0, fmt.Errorf("repoint stage links by stage: %w", err)
	}
	return res.RowsAffected()
}

// CountStageLinksByStage returns the number of entries pointing at a stage.
func (q *queries) CountStageLinksByStage(ctx context.Context, stageID int64) (int, error) {
	var count int
	err := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM review_stage_links WHERE stage_id = ?`, stageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stage links: %w", err)
	}
	return count, nil
}

// AssigneeLinkFor returns the assignee pointer row for an entry, or nil.
func (q *queries) AssigneeLinkFor(ctx context.Context, entryType string, entryID int64) (*AssigneeLink, error) {
	var link AssigneeLink
	err := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, user_id, entry_id, entry_type FROM review_assignee_links
         WHERE entry_type = ? AND entry_id = ?`, entryType, entryID).
		Scan(&link.ID, &link.UserID, &link.EntryID, &link.EntryType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignee link: %w", err)
	}
	return &link, nil
}

// SetEntryAssignee points an entry at a user, inserting or replacing its link row.
func (q *queries) SetEntryAssignee(ctx context.Context, entryType string, entryID, userID int64) error {
	if _, err := q.exec(ctx,
		`INSERT INTO review_assignee_links (user_id, entry_id, entry_type) VALUES (?, ?, ?)
         ON CONFLICT (entry_type, entry_id) DO UPDATE SET user_id = excluded.user_id`,
		userID, entryID, entryType,
	); err != nil {
		return fmt.Errorf("set entry assignee: %w", err)
	}
	return nil
}

// ClearEntryAssignee removes an entry's assignee pointer.
func (q *queries) ClearEntryAssignee(ctx context.Context, entryType string, entryID int64) error {
	if _, err := q.exec(ctx,
		`DELETE FROM review_assignee_links WHERE entry_type = ? AND entry_id = ?`,
		entryType, entryID,
	); err != nil {
		return fmt.Errorf("clear entry assignee: %w", err)
	}
	return nil
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id          int64
		documentID  string
		contentType string
		title       string
		data        string
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&id, &documentID, &contentType, &title, &data, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	entry := &Entry{ID: id, DocumentID: documentID, ContentType: contentType, Title: title, Data: data}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}
