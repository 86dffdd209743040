package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const workflowColumns = "id, name, stage_order, content_types, created_at, updated_at"

// CreateWorkflow inserts a workflow row with an empty stage order and
// assignment list; the reconciler fills the order in once stages exist.
func (q *queries) CreateWorkflow(ctx context.Context, name string) (*Workflow, error) {
	now := timestamp()
	res, err := q.exec(ctx,
		`INSERT INTO workflows (name, stage_order, content_types, created_at, updated_at)
         VALUES (?, '[]', '[]', ?, ?)`,
		name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert workflow: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return q.WorkflowByID(ctx, id)
}

// WorkflowByID fetches a workflow by identifier, or nil when absent.
func (q *queries) WorkflowByID(ctx context.Context, id int64) (*Workflow, error) {
	row := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+workflowColumns+` FROM workflows WHERE id = ?`, id)
	workflow, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return workflow, nil
}

// WorkflowByName fetches a workflow by its unique name, or nil when absent.
func (q *queries) WorkflowByName(ctx context.Context, name string) (*Workflow, error) {
	row := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+workflowColumns+` FROM workflows WHERE name = ?`, name)
	workflow, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow by name: %w", err)
	}
	return workflow, nil
}

// Workflows returns all workflows ordered by identifier.
func (q *queries) Workflows(ctx context.Context) ([]*Workflow, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT `+workflowColumns+` FROM workflows ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()
	return collectWorkflows(rows)
}

// WorkflowsContaining returns workflows whose assignment list contains the
// content-type uid, ordered by identifier. content_types holds a JSON array,
// so containment matches the quoted uid, not the bare string.
func (q *queries) WorkflowsContaining(ctx context.Context, uid string) ([]*Workflow, error) {
	pattern := `%"` + uid + `"%`
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT `+workflowColumns+` FROM workflows WHERE content_types LIKE ? ORDER BY id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("workflows containing %s: %w", uid, err)
	}
	defer rows.Close()

	workflows, err := collectWorkflows(rows)
	if err != nil {
		return nil, err
	}
	// The LIKE match is a coarse filter; confirm true membership.
	matched := workflows[:0]
	for _, workflow := range workflows {
		if workflow.HasContentType(uid) {
			matched = append(matched, workflow)
		}
	}
	return matched, nil
}

// CountWorkflows returns the total number of workflows.
func (q *queries) CountWorkflows(ctx context.Context) (int, error) {
	var count int
	err := q.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM workflows`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count workflows: %w", err)
	}
	return count, nil
}

// RenameWorkflow updates the workflow's name.
func (q *queries) RenameWorkflow(ctx context.Context, id int64, name string) error {
	if _, err := q.exec(ctx,
		`UPDATE workflows SET name = ?, updated_at = ? WHERE id = ?`,
		name, timestamp(), id,
	); err != nil {
		return fmt.Errorf("rename workflow: %w", err)
	}
	return nil
}

// SetWorkflowStageOrder replaces the ordered stage-id list.
func (q *queries) SetWorkflowStageOrder(ctx context.Context, id int64, order []int64) error {
	encoded, err := encodeIDList(order)
	if err != nil {
		return err
	}
	if _, err := q.exec(ctx,
		`UPDATE workflows SET stage_order = ?, updated_at = ? WHERE id = ?`,
		encoded, timestamp(), id,
	); err != nil {
		return fmt.Errorf("set stage order: %w", err)
	}
	return nil
}

// SetWorkflowContentTypes replaces the content-type assignment list.
func (q *queries) SetWorkflowContentTypes(ctx context.Context, id int64, uids []string) error {
	encoded, err := encodeStringList(uids)
	if err != nil {
		return err
	}
	if _, err := q.exec(ctx,
		`UPDATE workflows SET content_types = ?, updated_at = ? WHERE id = ?`,
		encoded, timestamp(), id,
	); err != nil {
		return fmt.Errorf("set content types: %w", err)
	}
	return nil
}

// DeleteWorkflow removes a workflow row. Stage rows cascade.
func (q *queries) DeleteWorkflow(ctx context.Context, id int64) (bool, error) {
	res, err := q.exec(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete workflow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func collectWorkflows(rows *sql.Rows) ([]*Workflow, error) {
	var workflows []*Workflow
	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, workflow)
	}
	return workflows, rows.Err()
}

func scanWorkflow(scanner interface{ Scan(dest ...any) error }) (*Workflow, error) {
	var (
		id           int64
		name         string
		stageOrder   string
		contentTypes string
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(&id, &name, &stageOrder, &contentTypes, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	workflow := &Workflow{ID: id, Name: name}
	var err error
	if workflow.StageOrder, err = decodeIDList(stageOrder); err != nil {
		return nil, fmt.Errorf("workflow %d stage order: %w", id, err)
	}
	if workflow.ContentTypes, err = decodeStringList(contentTypes); err != nil {
		return nil, fmt.Errorf("workflow %d content types: %w", id, err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		workflow.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		workflow.UpdatedAt = updated
	}
	return workflow, nil
}

func encodeIDList(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode id list: %w", err)
	}
	return string(data), nil
}

func decodeIDList(encoded string) ([]int64, error) {
	if encoded == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(encoded), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func encodeStringList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(data), nil
}

func decodeStringList(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil, err
	}
	return values, nil
}
