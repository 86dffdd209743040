package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"redline/internal/config"
	"redline/internal/logging"
	"redline/internal/review"
	"redline/internal/schema"
	"redline/internal/store"
)

// Runner executes the ordered set of one-time repair routines during
// startup. Each routine fires only when its structural precondition changed
// between the persisted schema snapshot and the freshly loaded registry, so
// running the set is idempotent.
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	registry *schema.Registry
	service  *review.Service
	logger   *slog.Logger
}

// NewRunner wires the bootstrap runner.
func NewRunner(cfg *config.Config, st *store.Store, registry *schema.Registry, service *review.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		store:    st,
		registry: registry,
		service:  service,
		logger:   logger.With(slog.String("component", "bootstrap")),
	}
}

type routine struct {
	name string
	run  func(ctx context.Context, previous schema.Snapshot) error
}

// Run compares the persisted schema snapshot against the loaded registry,
// executes every triggered routine in order, and persists the new snapshot.
// On a fresh install (no prior snapshot) every routine is skipped.
func (r *Runner) Run(ctx context.Context) error {
	current := r.registry.Snapshot()
	payload, err := schema.EncodeSnapshot(current)
	if err != nil {
		return err
	}

	stored, found, err := r.store.LoadSchemaSnapshot(ctx)
	if err != nil {
		return err
	}
	if !found {
		r.logger.Info("fresh install, skipping bootstrap migrations")
		return r.store.SaveSchemaSnapshot(ctx, current.Version, payload)
	}

	previous, err := schema.DecodeSnapshot(stored)
	if err != nil {
		return fmt.Errorf("previous schema snapshot: %w", err)
	}

	routines := []routine{
		{"workflow-content-types", r.backfillWorkflowContentTypes},
		{"stage-color", r.backfillStageColor},
		{"stage-permissions", r.backfillStagePermissions},
		{"rename-link-tables", r.renameLinkTables},
		{"prune-disabled-links", r.pruneDisabledLinks},
		{"exclude-users-model", r.excludeUsersModel},
	}
	for _, routine := range routines {
		if err := routine.run(ctx, previous); err != nil {
			return fmt.Errorf("bootstrap migration %s: %w", routine.name, err)
		}
	}

	return r.store.SaveSchemaSnapshot(ctx, current.Version, payload)
}
