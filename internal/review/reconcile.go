package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"redline/internal/store"
)

// StageInput is one requested stage in a replacement list. A zero ID means
// the stage is new; a non-zero ID must reference an existing stage of the
// workflow being updated.
type StageInput struct {
	ID    int64
	Name  string
	Color string
}

type stageDiff struct {
	created []int // indexes into the requested list
	updated []StageInput
	deleted []*store.Stage
}

// reconcileStages diffs the workflow's current stage list against the
// requested one, applies creates, updates, and deletes inside the caller's
// transaction, and returns the final ordered stage-id list, which it also
// persists on the workflow.
//
// The diff classifies by identity first, then by name: a requested stage
// with an unknown or missing id is created, one whose name changed is
// updated, and current stages absent from the request are deleted. Color is
// deliberately not part of the change detection; a color-only edit goes
// through the single-stage update path instead.
func (s *Service) reconcileStages(ctx context.Context, tx *store.Tx, workflow *store.Workflow, requested []StageInput) ([]int64, error) {
	if len(requested) == 0 {
		return nil, Wrap(ErrApplication, "reconcile stages", "a workflow must have at least one stage", nil)
	}
	if len(requested) > s.cfg.Limits.MaxStagesPerWorkflow {
		return nil, Wrap(ErrValidation, "reconcile stages",
			fmt.Sprintf("stage count %d exceeds limit %d", len(requested), s.cfg.Limits.MaxStagesPerWorkflow), nil)
	}

	current, err := tx.StagesByWorkflow(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}

	diff, err := diffStages(workflow, current, requested)
	if err != nil {
		return nil, err
	}

	order := make([]int64, len(requested))
	for i, input := range requested {
		if input.ID != 0 {
			order[i] = input.ID
		}
	}

	for _, idx := range diff.created {
		input := requested[idx]
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, Wrap(ErrValidation, "reconcile stages", "stage name is required", nil)
		}
		stage, err := tx.CreateStage(ctx, workflow.ID, name, s.stageColor(input.Color))
		if err != nil {
			return nil, err
		}
		order[idx] = stage.ID
	}

	for _, input := range diff.updated {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, Wrap(ErrValidation, "reconcile stages", "stage name is required", nil)
		}
		if err := tx.UpdateStage(ctx, input.ID, name, current[input.ID].Color); err != nil {
			return nil, err
		}
	}

	for _, stage := range diff.deleted {
		// Records still pointing at a removed stage move to the first
		// surviving stage so the pointer invariant holds.
		moved, err := tx.RepointStageLinksByStage(ctx, stage.ID, order[0])
		if err != nil {
			return nil, err
		}
		if moved > 0 {
			s.logger.Info("repointed records off deleted stage",
				slog.Int64("stage_id", stage.ID),
				slog.Int64("target_stage_id", order[0]),
				slog.Int64("records", moved))
		}
		if _, err := tx.DeleteStage(ctx, stage.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.SetWorkflowStageOrder(ctx, workflow.ID, order); err != nil {
		return nil, err
	}

	s.logger.Debug("stages reconciled",
		slog.Int64("workflow_id", workflow.ID),
		slog.Int("created", len(diff.created)),
		slog.Int("updated", len(diff.updated)),
		slog.Int("deleted", len(diff.deleted)))
	return order, nil
}

func diffStages(workflow *store.Workflow, current map[int64]*store.Stage, requested []StageInput) (stageDiff, error) {
	var diff stageDiff
	keep := make(map[int64]bool, len(requested))
	for idx, input := range requested {
		if input.ID == 0 {
			diff.created = append(diff.created, idx)
			continue
		}
		existing, ok := current[input.ID]
		if !ok {
			return stageDiff{}, Wrap(ErrApplication, "reconcile stages",
				fmt.Sprintf("stage does not belong to workflow %s", workflow.Name), nil)
		}
		keep[input.ID] = true
		if strings.TrimSpace(input.Name) != existing.Name {
			diff.updated = append(diff.updated, input)
		}
	}
	for id, stage := range current {
		if !keep[id] {
			diff.deleted = append(diff.deleted, stage)
		}
	}
	return diff, nil
}
