package review_test

import (
	"context"
	"errors"
	"testing"

	"redline/internal/rbac"
	"redline/internal/review"
	"redline/internal/testsupport"
)

func TestAvailableStagesExcludesCurrent(t *testing.T) {
	_, st, service := newService(t)

	entries := testsupport.NewEntries(t, st, "api.article", 1)
	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft", "Review", "Done"), []string{"api.article"})

	available, err := service.AvailableStages(superCtx(), "api.article", entries[0].ID)
	if err != nil {
		t.Fatalf("AvailableStages failed: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(available))
	}
	for _, stage := range available {
		if stage.ID == workflow.StageOrder[0] {
			t.Fatal("current stage must not be listed")
		}
	}
}

func TestAvailableStagesEmptyWhenDenied(t *testing.T) {
	_, st, service := newService(t)

	entries := testsupport.NewEntries(t, st, "api.article", 1)
	mustCreate(t, service, "Editorial", stagesInput("Draft", "Done"), []string{"api.article"})

	// No actor in context, so the gate denies.
	available, err := service.AvailableStages(context.Background(), "api.article", entries[0].ID)
	if err != nil {
		t.Fatalf("AvailableStages failed: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("expected empty list for denied actor, got %d stages", len(available))
	}
}

func TestAvailableStagesEmptyWithoutLink(t *testing.T) {
	_, st, service := newService(t)

	mustCreate(t, service, "Editorial", stagesInput("Draft", "Done"), []string{"api.article"})
	// Created after assignment, so no stage pointer exists yet.
	entries := testsupport.NewEntries(t, st, "api.article", 1)

	available, err := service.AvailableStages(superCtx(), "api.article", entries[0].ID)
	if err != nil {
		t.Fatalf("AvailableStages failed: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("expected empty list for unlinked entry, got %d stages", len(available))
	}
}

func TestAvailableStagesRequiresAssignedWorkflow(t *testing.T) {
	_, st, service := newService(t)

	entries := testsupport.NewEntries(t, st, "api.page", 1)
	mustCreate(t, service, "Editorial", stagesInput("Draft"), []string{"api.article"})

	_, err := service.AvailableStages(superCtx(), "api.page", entries[0].ID)
	if !errors.Is(err, review.ErrApplication) {
		t.Fatalf("expected ErrApplication for unassigned content type, got %v", err)
	}
}

func TestUpdateEntryStageWithGrant(t *testing.T) {
	_, st, service := newService(t)
	ctx := context.Background()

	entries := testsupport.NewEntries(t, st, "api.article", 1)
	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft", "Done"), []string{"api.article"})

	editor := testsupport.NewRole(t, st, "editor", "Editor")
	if _, err := service.Gate().RegisterMany(ctx, []rbac.Grant{
		{Action: rbac.ActionStageTransition, RoleID: editor.ID, StageID: workflow.StageOrder[0]},
	}); err != nil {
		t.Fatalf("RegisterMany failed: %v", err)
	}

	actorCtx := rbac.WithActor(ctx, rbac.Actor{UserID: 1, RoleIDs: []int64{editor.ID}})
	stage, err := service.UpdateEntryStage(actorCtx, "api.article", entries[0].ID, workflow.StageOrder[1])
	if err != nil {
		t.Fatalf("UpdateEntryStage failed: %v", err)
	}
	if stage.ID != workflow.StageOrder[1] {
		t.Fatalf("expected target stage returned, got %#v", stage)
	}

	link, err := st.StageLinkFor(ctx, "api.article", entries[0].ID)
	if err != nil {
		t.Fatalf("StageLinkFor failed: %v", err)
	}
	if link == nil || link.StageID != workflow.StageOrder[1] {
		t.Fatalf("expected pointer moved, got %#v", link)
	}

	// The grant covers Draft only, so the way back from Done is closed.
	_, err = service.UpdateEntryStage(actorCtx, "api.article", entries[0].ID, workflow.StageOrder[0])
	if !errors.Is(err, review.ErrApplication) {
		t.Fatalf("expected ErrApplication for transition without grant, got %v", err)
	}
}

func TestUpdateEntryStageRejectsForeignStage(t *testing.T) {
	_, st, service := newService(t)

	entries := testsupport.NewEntries(t, st, "api.article", 1)
	mustCreate(t, service, "Editorial", stagesInput("Draft"), []string{"api.article"})
	other := mustCreate(t, service, "Other", stagesInput("Triage"), nil)

	_, err := service.UpdateEntryStage(superCtx(), "api.article", entries[0].ID, other.StageOrder[0])
	if !errors.Is(err, review.ErrApplication) {
		t.Fatalf("expected ErrApplication for stage of another workflow, got %v", err)
	}
}

func TestUpdateEntryStageRequiresAssignedWorkflow(t *testing.T) {
	_, st, service := newService(t)

	entries := testsupport.NewEntries(t, st, "api.page", 1)
	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft"), []string{"api.article"})

	_, err := service.UpdateEntryStage(superCtx(), "api.page", entries[0].ID, workflow.StageOrder[0])
	if !errors.Is(err, review.ErrApplication) {
		t.Fatalf("expected ErrApplication for unassigned content type, got %v", err)
	}
}

func TestUpdateEntryStageInitialPointerNeedsSuperAdmin(t *testing.T) {
	_, st, service := newService(t)
	ctx := context.Background()

	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft", "Done"), []string{"api.article"})
	// Created after assignment, so the entry has no stage pointer.
	entries := testsupport.NewEntries(t, st, "api.article", 1)

	editor := testsupport.NewRole(t, st, "editor", "Editor")
	if _, err := service.Gate().RegisterMany(ctx, []rbac.Grant{
		{Action: rbac.ActionStageTransition, RoleID: editor.ID, StageID: workflow.StageOrder[0]},
	}); err != nil {
		t.Fatalf("RegisterMany failed: %v", err)
	}

	actorCtx := rbac.WithActor(ctx, rbac.Actor{UserID: 1, RoleIDs: []int64{editor.ID}})
	_, err := service.UpdateEntryStage(actorCtx, "api.article", entries[0].ID, workflow.StageOrder[0])
	if !errors.Is(err, review.ErrApplication) {
		t.Fatalf("expected ErrApplication without an existing pointer, got %v", err)
	}

	if _, err := service.UpdateEntryStage(superCtx(), "api.article", entries[0].ID, workflow.StageOrder[0]); err != nil {
		t.Fatalf("expected super-admin to set the first pointer: %v", err)
	}
}

func TestUpdateEntryStageUnknownEntry(t *testing.T) {
	_, _, service := newService(t)

	mustCreate(t, service, "Editorial", stagesInput("Draft"), []string{"api.article"})
	_, err := service.UpdateEntryStage(superCtx(), "api.article", 9999, 1)
	if !errors.Is(err, review.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing entry, got %v", err)
	}
}

func TestUpdateEntryAssignee(t *testing.T) {
	_, st, service := newService(t)
	ctx := context.Background()

	entries := testsupport.NewEntries(t, st, "api.article", 1)
	reviewer := testsupport.NewUser(t, st, "reviewer@example.com")

	if err := service.UpdateEntryAssignee(ctx, "api.article", entries[0].ID, &reviewer.ID); err != nil {
		t.Fatalf("UpdateEntryAssignee failed: %v", err)
	}
	link, err := st.AssigneeLinkFor(ctx, "api.article", entries[0].ID)
	if err != nil {
		t.Fatalf("AssigneeLinkFor failed: %v", err)
	}
	if link == nil || link.UserID != reviewer.ID {
		t.Fatalf("expected assignee set, got %#v", link)
	}

	if err := service.UpdateEntryAssignee(ctx, "api.article", entries[0].ID, nil); err != nil {
		t.Fatalf("clearing assignee failed: %v", err)
	}
	link, err = st.AssigneeLinkFor(ctx, "api.article", entries[0].ID)
	if err != nil {
		t.Fatalf("AssigneeLinkFor failed: %v", err)
	}
	if link != nil {
		t.Fatalf("expected assignee cleared, got %#v", link)
	}

	missing := int64(9999)
	err = service.UpdateEntryAssignee(ctx, "api.article", entries[0].ID, &missing)
	if !errors.Is(err, review.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown user, got %v", err)
	}
}

func TestEntryTypeMismatchIsNotFound(t *testing.T) {
	_, st, service := newService(t)

	entries := testsupport.NewEntries(t, st, "api.article", 1)
	mustCreate(t, service, "Editorial", stagesInput("Draft"), []string{"api.article", "api.page"})

	_, err := service.AvailableStages(superCtx(), "api.page", entries[0].ID)
	if !errors.Is(err, review.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for content-type mismatch, got %v", err)
	}
}
