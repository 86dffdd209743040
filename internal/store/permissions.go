package store

import (
	"context"
	"fmt"
)

// InsertStagePermissions creates one permission row per grant and returns the
// stored rows with assigned ids, in input order.
func (q *queries) InsertStagePermissions(ctx context.Context, grants []StagePermission) ([]StagePermission, error) {
	created := make([]StagePermission, 0, len(grants))
	for _, grant := range grants {
		res, err := q.exec(ctx,
			`INSERT INTO stage_permissions (action, role_id, stage_id) VALUES (?, ?, ?)`,
			grant.Action, grant.RoleID, grant.StageID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert stage permission: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		grant.ID = id
		created = append(created, grant)
	}
	return created, nil
}

// DeleteStagePermissions removes permission rows by id.
func (q *queries) DeleteStagePermissions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `DELETE FROM stage_permissions WHERE id IN (` + makePlaceholders(len(ids)) + `)`
	if _, err := q.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete stage permissions: %w", err)
	}
	return nil
}

// DeletePermissionsByStage removes every grant on a stage.
func (q *queries) DeletePermissionsByStage(ctx context.Context, stageID int64) error {
	if _, err := q.exec(ctx, `DELETE FROM stage_permissions WHERE stage_id = ?`, stageID); err != nil {
		return fmt.Errorf("delete permissions by stage: %w", err)
	}
	return nil
}

// PermissionsByStage returns every grant on a stage ordered by id.
func (q *queries) PermissionsByStage(ctx context.Context, stageID int64) ([]StagePermission, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT id, action, role_id, stage_id FROM stage_permissions WHERE stage_id = ? ORDER BY id`, stageID)
	if err != nil {
		return nil, fmt.Errorf("permissions by stage: %w", err)
	}
	defer rows.Close()

	var grants []StagePermission
	for rows.Next() {
		var grant StagePermission
		if err := rows.Scan(&grant.ID, &grant.Action, &grant.RoleID, &grant.StageID); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// HasStagePermission reports whether any of the roles hold a grant for the
// action out of the stage.
func (q *queries) HasStagePermission(ctx context.Context, roleIDs []int64, action string, stageID int64) (bool, error) {
	if len(roleIDs) == 0 {
		return false, nil
	}
	args := make([]any, 0, len(roleIDs)+2)
	args = append(args, action, stageID)
	for _, roleID := range roleIDs {
		args = append(args, roleID)
	}
	query := `SELECT COUNT(1) FROM stage_permissions
        WHERE action = ? AND stage_id = ? AND role_id IN (` + makePlaceholders(len(roleIDs)) + `)`

	var count int
	if err := q.db.QueryRowContext(ensureContext(ctx), query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check stage permission: %w", err)
	}
	return count > 0, nil
}

// CountStagePermissions returns the total number of permission rows.
func (q *queries) CountStagePermissions(ctx context.Context) (int, error) {
	var count int
	err := q.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM stage_permissions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stage permissions: %w", err)
	}
	return count, nil
}
