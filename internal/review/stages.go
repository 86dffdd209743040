package review

import (
	"context"
	"fmt"
	"strings"

	"redline/internal/store"
)

// Stages returns the workflow's stages in their stored order.
func (s *Service) Stages(ctx context.Context, workflowID int64) ([]*store.Stage, error) {
	workflow, err := s.FindByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	byID, err := s.store.StagesByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return orderStages(workflow.StageOrder, byID), nil
}

// WorkflowStage fetches one stage and verifies it belongs to the workflow.
func (s *Service) WorkflowStage(ctx context.Context, workflowID, stageID int64) (*store.Stage, error) {
	stage, err := s.store.StageByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage == nil || stage.WorkflowID != workflowID {
		return nil, Wrap(ErrNotFound, "find stage",
			fmt.Sprintf("stage %d in workflow %d", stageID, workflowID), nil)
	}
	return stage, nil
}

// ReplaceStages is the bulk reconciliation entry point: the requested list
// replaces the workflow's stage list wholesale and the resulting ordered
// stages are returned.
func (s *Service) ReplaceStages(ctx context.Context, workflowID int64, requested []StageInput) ([]*store.Stage, error) {
	workflow, err := s.FindByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		_, err := s.reconcileStages(ctx, tx, workflow, requested)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Stages(ctx, workflowID)
}

// CreateStage appends one stage to the workflow, subject to the per-workflow
// stage limit.
func (s *Service) CreateStage(ctx context.Context, workflowID int64, name, color string) (*store.Stage, error) {
	workflow, err := s.FindByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Wrap(ErrValidation, "create stage", "stage name is required", nil)
	}
	if len(workflow.StageOrder)+1 > s.cfg.Limits.MaxStagesPerWorkflow {
		return nil, Wrap(ErrValidation, "create stage",
			fmt.Sprintf("stage count %d exceeds limit %d", len(workflow.StageOrder)+1, s.cfg.Limits.MaxStagesPerWorkflow), nil)
	}

	var stageID int64
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		stage, err := tx.CreateStage(ctx, workflowID, name, s.stageColor(color))
		if err != nil {
			return err
		}
		stageID = stage.ID
		return tx.SetWorkflowStageOrder(ctx, workflowID, append(workflow.StageOrder, stage.ID))
	})
	if err != nil {
		return nil, err
	}
	return s.store.StageByID(ctx, stageID)
}

// UpdateStage changes one stage's name and color directly, outside the diff.
// This is the only path that persists a color-only change; an empty color
// keeps the current one.
func (s *Service) UpdateStage(ctx context.Context, workflowID, stageID int64, name, color string) (*store.Stage, error) {
	stage, err := s.WorkflowStage(ctx, workflowID, stageID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = stage.Name
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = stage.Color
	}
	if err := s.store.UpdateStage(ctx, stageID, name, color); err != nil {
		return nil, err
	}
	return s.store.StageByID(ctx, stageID)
}

func orderStages(order []int64, byID map[int64]*store.Stage) []*store.Stage {
	stages := make([]*store.Stage, 0, len(byID))
	seen := make(map[int64]bool, len(order))
	for _, id := range order {
		if stage, ok := byID[id]; ok {
			stages = append(stages, stage)
			seen[id] = true
		}
	}
	// Stages missing from the order list trail at the end rather than vanish.
	for id, stage := range byID {
		if !seen[id] {
			stages = append(stages, stage)
		}
	}
	return stages
}
