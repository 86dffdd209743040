package review

import (
	"context"
	"fmt"

	"redline/internal/rbac"
	"redline/internal/store"
)

// AvailableStages lists the stages an entry could transition to: every stage
// of its assigned workflow except the one it is on. A denied actor gets an
// empty list, not an error, so callers cannot distinguish "rejected" from
// "nothing available".
func (s *Service) AvailableStages(ctx context.Context, entryType string, entryID int64) ([]*store.Stage, error) {
	if _, err := s.requireEntry(ctx, entryType, entryID); err != nil {
		return nil, err
	}
	workflow, err := s.GetAssignedWorkflow(ctx, entryType)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, Wrap(ErrApplication, "list available stages",
			fmt.Sprintf("content type %s has no assigned workflow", entryType), nil)
	}
	link, err := s.store.StageLinkFor(ctx, entryType, entryID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		// Review never initialized for this record; nothing to move from.
		return []*store.Stage{}, nil
	}

	allowed, err := s.gate.Can(ctx, rbac.ActionStageTransition, link.StageID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return []*store.Stage{}, nil
	}

	stages, err := s.Stages(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}
	available := make([]*store.Stage, 0, len(stages))
	for _, stage := range stages {
		if stage.ID != link.StageID {
			available = append(available, stage)
		}
	}
	return available, nil
}

// UpdateEntryStage transitions an entry to another stage of its assigned
// workflow, subject to the permission gate on the stage it leaves.
func (s *Service) UpdateEntryStage(ctx context.Context, entryType string, entryID, stageID int64) (*store.Stage, error) {
	if _, err := s.requireEntry(ctx, entryType, entryID); err != nil {
		return nil, err
	}
	workflow, err := s.GetAssignedWorkflow(ctx, entryType)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, Wrap(ErrApplication, "update entry stage",
			fmt.Sprintf("content type %s has no assigned workflow", entryType), nil)
	}
	target, err := s.store.StageByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.WorkflowID != workflow.ID {
		return nil, Wrap(ErrApplication, "update entry stage",
			fmt.Sprintf("stage %d does not belong to workflow %s", stageID, workflow.Name), nil)
	}

	// With no current stage there is no grant to match, so only the
	// super-admin bypass can set the first pointer by hand.
	var fromStageID int64
	link, err := s.store.StageLinkFor(ctx, entryType, entryID)
	if err != nil {
		return nil, err
	}
	if link != nil {
		fromStageID = link.StageID
	}
	allowed, err := s.gate.Can(ctx, rbac.ActionStageTransition, fromStageID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, Wrap(ErrApplication, "update entry stage", "unauthorized transition", nil)
	}

	if err := s.store.SetEntryStage(ctx, entryType, entryID, stageID); err != nil {
		return nil, err
	}
	return target, nil
}

// UpdateEntryAssignee points an entry at a user, or clears the pointer when
// userID is nil.
func (s *Service) UpdateEntryAssignee(ctx context.Context, entryType string, entryID int64, userID *int64) error {
	if _, err := s.requireEntry(ctx, entryType, entryID); err != nil {
		return err
	}
	if userID == nil {
		return s.store.ClearEntryAssignee(ctx, entryType, entryID)
	}
	user, err := s.store.UserByID(ctx, *userID)
	if err != nil {
		return err
	}
	if user == nil {
		return Wrap(ErrValidation, "update entry assignee",
			fmt.Sprintf("user %d does not exist", *userID), nil)
	}
	return s.store.SetEntryAssignee(ctx, entryType, entryID, *userID)
}

func (s *Service) requireEntry(ctx context.Context, entryType string, entryID int64) (*store.Entry, error) {
	entry, err := s.store.EntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.ContentType != entryType {
		return nil, Wrap(ErrNotFound, "find entry",
			fmt.Sprintf("%s entry %d", entryType, entryID), nil)
	}
	return entry, nil
}
