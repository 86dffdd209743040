package review

import (
	"context"
	"log/slog"

	"redline/internal/store"
)

// migrateAssignments moves content types between workflows inside the
// caller's transaction. source is the destination workflow's assignment list
// before the change, destination the requested one; destStageID is the stage
// newly assigned types' records end up on.
//
// Content types are processed one at a time: a migration may rewrite another
// workflow's assignment list, and interleaving two of those loses updates.
func (s *Service) migrateAssignments(ctx context.Context, tx *store.Tx, source, destination []string, destStageID int64) error {
	created, deleted := diffStrings(source, destination)

	for _, uid := range created {
		claimers, err := tx.WorkflowsContaining(ctx, uid)
		if err != nil {
			return err
		}
		if len(claimers) > 0 {
			if err := s.transferContentType(ctx, tx, uid, claimers, destStageID); err != nil {
				return err
			}
		} else {
			if err := s.initializeContentType(ctx, tx, uid, destStageID); err != nil {
				return err
			}
		}
		if err := tx.SetReviewEnabled(ctx, uid, true); err != nil {
			return err
		}
	}

	for _, uid := range deleted {
		if err := tx.SetReviewEnabled(ctx, uid, false); err != nil {
			return err
		}
		removed, err := tx.DeleteStageLinksByType(ctx, uid)
		if err != nil {
			return err
		}
		s.logger.Info("content type unassigned",
			slog.String("uid", uid),
			slog.Int64("cleared_records", removed))
	}
	return nil
}

// transferContentType moves a content type already owned by another workflow:
// every record with a stage pointer is repointed at destStageID, then the uid
// is struck from each old owner's assignment list.
func (s *Service) transferContentType(ctx context.Context, tx *store.Tx, uid string, claimers []*store.Workflow, destStageID int64) error {
	var moved int64
	afterID := int64(0)
	for {
		ids, err := tx.LinkedEntryIDs(ctx, uid, afterID, s.cfg.Engine.BulkPageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		n, err := tx.RepointStageLinks(ctx, uid, ids, destStageID)
		if err != nil {
			return err
		}
		moved += n
		afterID = ids[len(ids)-1]
	}

	for _, claimer := range claimers {
		remaining := make([]string, 0, len(claimer.ContentTypes))
		for _, ct := range claimer.ContentTypes {
			if ct != uid {
				remaining = append(remaining, ct)
			}
		}
		if err := tx.SetWorkflowContentTypes(ctx, claimer.ID, remaining); err != nil {
			return err
		}
	}

	s.logger.Info("content type transferred",
		slog.String("uid", uid),
		slog.Int64("stage_id", destStageID),
		slog.Int64("moved_records", moved))
	return nil
}

// initializeContentType activates review workflows for a content type for the
// first time: every record without a stage pointer gets one at destStageID.
func (s *Service) initializeContentType(ctx context.Context, tx *store.Tx, uid string, destStageID int64) error {
	var linked int64
	afterID := int64(0)
	for {
		ids, err := tx.UnlinkedEntryIDs(ctx, uid, afterID, s.cfg.Engine.BulkPageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		if err := tx.InsertStageLinks(ctx, uid, ids, destStageID); err != nil {
			return err
		}
		linked += int64(len(ids))
		afterID = ids[len(ids)-1]
	}

	s.logger.Info("content type initialized",
		slog.String("uid", uid),
		slog.Int64("stage_id", destStageID),
		slog.Int64("linked_records", linked))
	return nil
}

// diffStrings returns destination−source and source−destination while
// preserving input order.
func diffStrings(source, destination []string) (created, deleted []string) {
	inSource := make(map[string]bool, len(source))
	for _, v := range source {
		inSource[v] = true
	}
	inDestination := make(map[string]bool, len(destination))
	for _, v := range destination {
		inDestination[v] = true
	}
	for _, v := range destination {
		if !inSource[v] {
			created = append(created, v)
		}
	}
	for _, v := range source {
		if !inDestination[v] {
			deleted = append(deleted, v)
		}
	}
	return created, deleted
}
