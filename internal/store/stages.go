package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const stageColumns = "id, workflow_id, name, color, created_at, updated_at"

// CreateStage inserts a stage row for a workflow. Color may be empty; the
// service layer applies the default before calling in.
func (q *queries) CreateStage(ctx context.Context, workflowID int64, name, color string) (*Stage, error) {
	now := timestamp()
	res, err := q.exec(ctx,
		`INSERT INTO stages (workflow_id, name, color, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		workflowID, name, color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert stage: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return q.StageByID(ctx, id)
}

// StageByID fetches a stage by identifier, or nil when absent.
func (q *queries) StageByID(ctx context.Context, id int64) (*Stage, error) {
	row := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+stageColumns+` FROM stages WHERE id = ?`, id)
	stage, err := scanStage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stage: %w", err)
	}
	return stage, nil
}

// StagesByWorkflow returns all stage rows belonging to the workflow keyed by
// id. Ordering lives on the workflow's StageOrder, so callers sequence the
// result themselves.
func (q *queries) StagesByWorkflow(ctx context.Context, workflowID int64) (map[int64]*Stage, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT `+stageColumns+` FROM stages WHERE workflow_id = ?`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("stages by workflow: %w", err)
	}
	defer rows.Close()

	stages := make(map[int64]*Stage)
	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages[stage.ID] = stage
	}
	return stages, rows.Err()
}

// AllStages returns every stage row ordered by identifier.
func (q *queries) AllStages(ctx context.Context) ([]*Stage, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT `+stageColumns+` FROM stages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var stages []*Stage
	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// UpdateStage persists name and color changes to a stage.
func (q *queries) UpdateStage(ctx context.Context, id int64, name, color string) error {
	if _, err := q.exec(ctx,
		`UPDATE stages SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, color, timestamp(), id,
	); err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

// BackfillStageColor sets color on every stage that has none.
func (q *queries) BackfillStageColor(ctx context.Context, color string) (int64, error) {
	res, err := q.exec(ctx,
		`UPDATE stages SET color = ?, updated_at = ? WHERE color = '' OR color IS NULL`,
		color, timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("backfill stage color: %w", err)
	}
	return res.RowsAffected()
}

// DeleteStage removes a stage row. Permission rows cascade; stage link rows
// must be repointed by the caller first.
func (q *queries) DeleteStage(ctx context.Context, id int64) (bool, error) {
	res, err := q.exec(ctx, `DELETE FROM stages WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanStage(scanner interface{ Scan(dest ...any) error }) (*Stage, error) {
	var (
		id         int64
		workflowID int64
		name       string
		color      string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &workflowID, &name, &color, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	stage := &Stage{ID: id, WorkflowID: workflowID, Name: name, Color: color}
	if created, err := parseTimeString(createdRaw); err == nil {
		stage.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		stage.UpdatedAt = updated
	}
	return stage, nil
}
