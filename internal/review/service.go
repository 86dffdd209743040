package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"redline/internal/config"
	"redline/internal/logging"
	"redline/internal/rbac"
	"redline/internal/schema"
	"redline/internal/store"
)

// Service is the workflow store: it owns workflow CRUD, orchestrates the
// stage reconciler and the assignment migrator inside transactions, and
// enforces the configured plan limits.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	registry *schema.Registry
	gate     *rbac.Gate
	logger   *slog.Logger
}

// NewService wires the workflow service. The limits and engine knobs come
// from cfg and are immutable for the life of the service.
func NewService(cfg *config.Config, st *store.Store, registry *schema.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:      cfg,
		store:    st,
		registry: registry,
		gate:     rbac.NewGate(st),
		logger:   logger.With(slog.String("component", "review")),
	}
}

// Gate exposes the stage permission gate built over the service's store.
func (s *Service) Gate() *rbac.Gate {
	return s.gate
}

// Create builds a new workflow with its initial stages and, when contentTypes
// is non-empty, assigns those content types to it, pointing their records at
// the first stage. The whole operation runs in one transaction.
func (s *Service) Create(ctx context.Context, name string, stages []StageInput, contentTypes []string) (*store.Workflow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Wrap(ErrValidation, "create workflow", "workflow name is required", nil)
	}
	if len(stages) == 0 {
		return nil, Wrap(ErrValidation, "create workflow", "workflow without stages", nil)
	}
	if len(stages) > s.cfg.Limits.MaxStagesPerWorkflow {
		return nil, Wrap(ErrValidation, "create workflow",
			fmt.Sprintf("stage count %d exceeds limit %d", len(stages), s.cfg.Limits.MaxStagesPerWorkflow), nil)
	}
	count, err := s.store.CountWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	if count+1 > s.cfg.Limits.MaxWorkflows {
		return nil, Wrap(ErrValidation, "create workflow",
			fmt.Sprintf("workflow limit %d reached", s.cfg.Limits.MaxWorkflows), nil)
	}
	if err := s.checkEligibility(contentTypes); err != nil {
		return nil, err
	}

	var workflowID int64
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		workflow, err := tx.CreateWorkflow(ctx, name)
		if err != nil {
			return err
		}
		workflowID = workflow.ID

		order := make([]int64, 0, len(stages))
		for _, input := range stages {
			stageName := strings.TrimSpace(input.Name)
			if stageName == "" {
				return Wrap(ErrValidation, "create workflow", "stage name is required", nil)
			}
			stage, err := tx.CreateStage(ctx, workflow.ID, stageName, s.stageColor(input.Color))
			if err != nil {
				return err
			}
			order = append(order, stage.ID)
		}
		if err := tx.SetWorkflowStageOrder(ctx, workflow.ID, order); err != nil {
			return err
		}

		if len(contentTypes) > 0 {
			if err := s.migrateAssignments(ctx, tx, nil, contentTypes, order[0]); err != nil {
				return err
			}
			if err := tx.SetWorkflowContentTypes(ctx, workflow.ID, contentTypes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workflow created",
		slog.Int64("workflow_id", workflowID),
		slog.String("name", name),
		slog.Int("stages", len(stages)),
		slog.Int("content_types", len(contentTypes)))
	return s.store.WorkflowByID(ctx, workflowID)
}

// UpdateInput carries the optional field changes for a workflow update. Nil
// slices leave the corresponding aspect untouched; an empty non-nil
// ContentTypes slice unassigns everything.
type UpdateInput struct {
	Name         *string
	Stages       []StageInput
	ContentTypes []string
}

// Update applies name, stage-list, and content-type changes to a workflow in
// one transaction. Stage-list changes go through the reconciler; content-type
// changes go through the assignment migrator with the (possibly just-updated)
// first stage as the destination for newly assigned types.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*store.Workflow, error) {
	workflow, err := s.store.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, Wrap(ErrNotFound, "update workflow", fmt.Sprintf("workflow %d", id), nil)
	}
	if input.ContentTypes != nil {
		if err := s.checkEligibility(input.ContentTypes); err != nil {
			return nil, err
		}
	}

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return Wrap(ErrValidation, "update workflow", "workflow name is required", nil)
			}
			if err := tx.RenameWorkflow(ctx, workflow.ID, name); err != nil {
				return err
			}
		}

		order := workflow.StageOrder
		if input.Stages != nil {
			order, err = s.reconcileStages(ctx, tx, workflow, input.Stages)
			if err != nil {
				return err
			}
		}

		if input.ContentTypes != nil {
			if len(order) == 0 {
				return Wrap(ErrApplication, "update workflow", "a workflow must have at least one stage", nil)
			}
			if err := s.migrateAssignments(ctx, tx, workflow.ContentTypes, input.ContentTypes, order[0]); err != nil {
				return err
			}
			if err := tx.SetWorkflowContentTypes(ctx, workflow.ID, input.ContentTypes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workflow updated", slog.Int64("workflow_id", workflow.ID))
	return s.store.WorkflowByID(ctx, workflow.ID)
}

// Delete removes a workflow, unassigning all of its content types and
// deleting its stages. At least one workflow must remain afterwards.
func (s *Service) Delete(ctx context.Context, id int64) (*store.Workflow, error) {
	workflow, err := s.store.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, Wrap(ErrNotFound, "delete workflow", fmt.Sprintf("workflow %d", id), nil)
	}
	count, err := s.store.CountWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	if count <= 1 {
		return nil, Wrap(ErrApplication, "delete workflow", "can not delete the last workflow", nil)
	}

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if len(workflow.ContentTypes) > 0 {
			if err := s.migrateAssignments(ctx, tx, workflow.ContentTypes, nil, 0); err != nil {
				return err
			}
			if err := tx.SetWorkflowContentTypes(ctx, workflow.ID, nil); err != nil {
				return err
			}
		}
		// Stray pointers at this workflow's stages would block the cascade
		// from workflows to stages, so clear them before the row goes.
		for _, stageID := range workflow.StageOrder {
			if _, err := tx.DeleteStageLinksByStage(ctx, stageID); err != nil {
				return err
			}
		}
		_, err := tx.DeleteWorkflow(ctx, workflow.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workflow deleted",
		slog.Int64("workflow_id", workflow.ID),
		slog.String("name", workflow.Name))
	return workflow, nil
}

// Find lists workflows, optionally filtered to those whose assignment list
// contains the given content-type uid.
func (s *Service) Find(ctx context.Context, containsUID string) ([]*store.Workflow, error) {
	if containsUID != "" {
		return s.store.WorkflowsContaining(ctx, containsUID)
	}
	return s.store.Workflows(ctx)
}

// FindByID fetches one workflow.
func (s *Service) FindByID(ctx context.Context, id int64) (*store.Workflow, error) {
	workflow, err := s.store.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, Wrap(ErrNotFound, "find workflow", fmt.Sprintf("workflow %d", id), nil)
	}
	return workflow, nil
}

// Count returns the number of workflows.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountWorkflows(ctx)
}

// GetAssignedWorkflow returns the workflow claiming the content type, or nil
// when none does. At most one workflow should claim a type; if several do,
// the first by id wins.
func (s *Service) GetAssignedWorkflow(ctx context.Context, uid string) (*store.Workflow, error) {
	workflows, err := s.store.WorkflowsContaining(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(workflows) == 0 {
		return nil, nil
	}
	if len(workflows) > 1 {
		s.logger.Warn("content type claimed by multiple workflows",
			slog.String("uid", uid),
			slog.Int("claimers", len(workflows)))
	}
	return workflows[0], nil
}

func (s *Service) checkEligibility(uids []string) error {
	for _, uid := range uids {
		if !s.registry.IsWorkflowEligible(uid) {
			return Wrap(ErrValidation, "assign content type",
				fmt.Sprintf("content type %s is not workflow eligible", uid), nil)
		}
	}
	return nil
}

func (s *Service) stageColor(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return s.cfg.Engine.DefaultStageColor
	}
	return color
}
