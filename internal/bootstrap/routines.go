package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	"redline/internal/rbac"
	"redline/internal/review"
	"redline/internal/schema"
	"redline/internal/store"
)

// backfillWorkflowContentTypes initializes the workflow assignment list the
// first time the attribute exists: content types that already had the review
// flag set are attached to the first pre-existing workflow.
func (r *Runner) backfillWorkflowContentTypes(ctx context.Context, previous schema.Snapshot) error {
	prev, ok := previous.Model(schema.WorkflowModelUID)
	if ok && prev.HasAttribute(schema.AttrContentTypes) {
		return nil
	}

	workflows, err := r.store.Workflows(ctx)
	if err != nil {
		return err
	}
	if len(workflows) == 0 {
		return nil
	}
	target := workflows[0]
	if len(target.ContentTypes) > 0 {
		return nil
	}

	enabled, err := r.store.ReviewEnabledUIDs(ctx)
	if err != nil {
		return err
	}
	assigned := make([]string, 0, len(enabled))
	for _, uid := range enabled {
		if r.registry.IsWorkflowEligible(uid) {
			assigned = append(assigned, uid)
		}
	}
	if len(assigned) == 0 {
		return nil
	}
	if err := r.store.SetWorkflowContentTypes(ctx, target.ID, assigned); err != nil {
		return err
	}
	r.logger.Info("backfilled workflow content types",
		slog.Int64("workflow_id", target.ID),
		slog.Int("content_types", len(assigned)))
	return nil
}

// backfillStageColor sets the default accent on every stage that predates
// the color attribute.
func (r *Runner) backfillStageColor(ctx context.Context, previous schema.Snapshot) error {
	prev, ok := previous.Model(schema.StageModelUID)
	if ok && prev.HasAttribute(schema.AttrColor) {
		return nil
	}
	updated, err := r.store.BackfillStageColor(ctx, r.cfg.Engine.DefaultStageColor)
	if err != nil {
		return err
	}
	if updated > 0 {
		r.logger.Info("backfilled stage colors", slog.Int64("stages", updated))
	}
	return nil
}

// backfillStagePermissions grants every current role the transition action on
// every current stage the first time stage permissions exist.
func (r *Runner) backfillStagePermissions(ctx context.Context, previous schema.Snapshot) error {
	prev, ok := previous.Model(schema.StageModelUID)
	if ok && prev.HasAttribute(schema.AttrPermissions) {
		return nil
	}

	roles, err := r.store.Roles(ctx)
	if err != nil {
		return err
	}
	stages, err := r.store.AllStages(ctx)
	if err != nil {
		return err
	}
	if len(roles) == 0 || len(stages) == 0 {
		return nil
	}

	grants := make([]rbac.Grant, 0, len(roles)*len(stages))
	for _, role := range roles {
		for _, stage := range stages {
			grants = append(grants, rbac.Grant{
				Action:  rbac.ActionStageTransition,
				RoleID:  role.ID,
				StageID: stage.ID,
			})
		}
	}
	err = r.store.WithTx(ctx, func(tx *store.Tx) error {
		_, err := rbac.NewGate(tx).RegisterMany(ctx, grants)
		return err
	})
	if err != nil {
		return err
	}
	r.logger.Info("backfilled stage permissions", slog.Int("grants", len(grants)))
	return nil
}

// renameLinkTables migrates the historical workflow_*_links table names to
// the review_*_links pattern, preserving their data. Failures here are
// logged and swallowed: historical data-shape quirks must not block boot.
func (r *Runner) renameLinkTables(ctx context.Context, previous schema.Snapshot) error {
	if previous.Version >= schema.Version {
		return nil
	}

	names, err := r.store.TablesMatching(ctx, `workflow\_%\_links`)
	if err != nil {
		return err
	}
	for _, oldName := range names {
		newName := "review_" + strings.TrimPrefix(oldName, "workflow_")
		exists, err := r.store.TableExists(ctx, newName)
		if err != nil {
			return err
		}
		if exists {
			hasRows, err := r.store.TableHasRows(ctx, newName)
			if err != nil {
				return err
			}
			if hasRows {
				r.logger.Warn("link table rename skipped, target already holds data",
					slog.String("old", oldName),
					slog.String("new", newName))
				continue
			}
			if err := r.store.DropTable(ctx, newName); err != nil {
				r.logger.Warn("link table rename failed",
					slog.String("old", oldName),
					slog.String("new", newName),
					slog.String("error", err.Error()))
				continue
			}
		}
		if err := r.store.RenameTable(ctx, oldName, newName); err != nil {
			r.logger.Warn("link table rename failed",
				slog.String("old", oldName),
				slog.String("new", newName),
				slog.String("error", err.Error()))
			continue
		}
		r.logger.Info("renamed link table",
			slog.String("old", oldName),
			slog.String("new", newName))
	}
	return nil
}

// pruneDisabledLinks deletes the stage pointers of content types whose
// workflow eligibility flipped off between versions. The admin user model is
// excluded here because it is unassigned through the migrator instead.
func (r *Runner) pruneDisabledLinks(ctx context.Context, previous schema.Snapshot) error {
	for uid, prev := range previous.Models {
		if !prev.WorkflowEligible || uid == schema.AdminUserUID {
			continue
		}
		if r.registry.IsWorkflowEligible(uid) {
			continue
		}
		removed, err := r.store.DeleteStageLinksByType(ctx, uid)
		if err != nil {
			return err
		}
		if removed > 0 {
			r.logger.Info("pruned stage links of disabled content type",
				slog.String("uid", uid),
				slog.Int64("records", removed))
		}
	}
	return nil
}

// excludeUsersModel retroactively unassigns the admin user model from any
// workflow it was bound to. The unassignment runs through the migrator so
// the owning workflow's assignment list stays consistent.
func (r *Runner) excludeUsersModel(ctx context.Context, previous schema.Snapshot) error {
	prev, ok := previous.Model(schema.AdminUserUID)
	if !ok || !prev.WorkflowEligible {
		return nil
	}
	if r.registry.IsWorkflowEligible(schema.AdminUserUID) {
		return nil
	}

	workflow, err := r.service.GetAssignedWorkflow(ctx, schema.AdminUserUID)
	if err != nil {
		return err
	}
	if workflow == nil {
		return nil
	}
	remaining := make([]string, 0, len(workflow.ContentTypes))
	for _, uid := range workflow.ContentTypes {
		if uid != schema.AdminUserUID {
			remaining = append(remaining, uid)
		}
	}
	if _, err := r.service.Update(ctx, workflow.ID, review.UpdateInput{ContentTypes: remaining}); err != nil {
		return err
	}
	r.logger.Info("unassigned admin users model from workflow",
		slog.Int64("workflow_id", workflow.ID))
	return nil
}
