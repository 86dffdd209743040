package rbac_test

import (
	"context"
	"errors"
	"testing"

	"redline/internal/rbac"
	"redline/internal/testsupport"
)

func TestCanDeniesWithoutActor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	gate := rbac.NewGate(st)

	allowed, err := gate.Can(context.Background(), rbac.ActionStageTransition, 1)
	if err != nil {
		t.Fatalf("Can failed: %v", err)
	}
	if allowed {
		t.Fatal("expected denial without actor context")
	}
}

func TestCanAllowsSuperAdmin(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	gate := rbac.NewGate(st)

	ctx := rbac.WithActor(context.Background(), rbac.Actor{UserID: 1, SuperAdmin: true})
	allowed, err := gate.Can(ctx, rbac.ActionStageTransition, 42)
	if err != nil {
		t.Fatalf("Can failed: %v", err)
	}
	if !allowed {
		t.Fatal("expected super-admin bypass")
	}
}

func TestCanMatchesGrants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	gate := rbac.NewGate(st)
	ctx := context.Background()

	editor := testsupport.NewRole(t, st, "editor", "Editor")
	workflow, err := st.CreateWorkflow(ctx, "Editorial")
	if err != nil {
		t.Fatalf("CreateWorkflow failed: %v", err)
	}
	draft, err := st.CreateStage(ctx, workflow.ID, "Draft", "#4945ff")
	if err != nil {
		t.Fatalf("CreateStage failed: %v", err)
	}
	done, err := st.CreateStage(ctx, workflow.ID, "Done", "#4945ff")
	if err != nil {
		t.Fatalf("CreateStage failed: %v", err)
	}

	if _, err := gate.RegisterMany(ctx, []rbac.Grant{
		{Action: rbac.ActionStageTransition, RoleID: editor.ID, StageID: draft.ID},
	}); err != nil {
		t.Fatalf("RegisterMany failed: %v", err)
	}

	actorCtx := rbac.WithActor(ctx, rbac.Actor{UserID: 1, RoleIDs: []int64{editor.ID}})

	allowed, err := gate.Can(actorCtx, rbac.ActionStageTransition, draft.ID)
	if err != nil {
		t.Fatalf("Can failed: %v", err)
	}
	if !allowed {
		t.Fatal("expected grant to authorize transition out of Draft")
	}

	allowed, err = gate.Can(actorCtx, rbac.ActionStageTransition, done.ID)
	if err != nil {
		t.Fatalf("Can failed: %v", err)
	}
	if allowed {
		t.Fatal("expected denial for stage without grant")
	}
}

func TestRegisterManyRejectsUnknownAction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	gate := rbac.NewGate(st)

	_, err := gate.RegisterMany(context.Background(), []rbac.Grant{
		{Action: "review.stage.delete", RoleID: 1, StageID: 1},
	})
	if !errors.Is(err, rbac.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestUnregisterRemovesGrants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	gate := rbac.NewGate(st)
	ctx := context.Background()

	editor := testsupport.NewRole(t, st, "editor", "Editor")
	workflow, err := st.CreateWorkflow(ctx, "Editorial")
	if err != nil {
		t.Fatalf("CreateWorkflow failed: %v", err)
	}
	draft, err := st.CreateStage(ctx, workflow.ID, "Draft", "#4945ff")
	if err != nil {
		t.Fatalf("CreateStage failed: %v", err)
	}

	rows, err := gate.RegisterMany(ctx, []rbac.Grant{
		{Action: rbac.ActionStageTransition, RoleID: editor.ID, StageID: draft.ID},
	})
	if err != nil {
		t.Fatalf("RegisterMany failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID == 0 {
		t.Fatalf("expected one persisted grant with id, got %#v", rows)
	}

	if err := gate.Unregister(ctx, []int64{rows[0].ID}); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	remaining, err := gate.PermissionsByStage(ctx, draft.ID)
	if err != nil {
		t.Fatalf("PermissionsByStage failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no grants left, got %d", len(remaining))
	}
}

func TestActorForUserResolvesSuperAdmin(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	gate := rbac.NewGate(st)
	ctx := context.Background()

	admin := testsupport.NewRole(t, st, rbac.SuperAdminRoleCode, "Super Admin")
	editor := testsupport.NewRole(t, st, "editor", "Editor")

	boss := testsupport.NewUser(t, st, "boss@example.com", admin.ID)
	worker := testsupport.NewUser(t, st, "worker@example.com", editor.ID)

	actor, err := gate.ActorForUser(ctx, boss.ID)
	if err != nil {
		t.Fatalf("ActorForUser failed: %v", err)
	}
	if !actor.SuperAdmin {
		t.Fatal("expected super-admin actor")
	}

	actor, err = gate.ActorForUser(ctx, worker.ID)
	if err != nil {
		t.Fatalf("ActorForUser failed: %v", err)
	}
	if actor.SuperAdmin {
		t.Fatal("expected regular actor")
	}
	if len(actor.RoleIDs) != 1 || actor.RoleIDs[0] != editor.ID {
		t.Fatalf("unexpected roles: %v", actor.RoleIDs)
	}
}
