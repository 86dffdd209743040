package review_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"redline/internal/review"
	"redline/internal/testsupport"
)

func TestReplaceStagesCreateUpdateDelete(t *testing.T) {
	_, _, service := newService(t)
	ctx := context.Background()

	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft", "Review", "Done"), nil)
	current, err := service.Stages(ctx, workflow.ID)
	if err != nil {
		t.Fatalf("Stages failed: %v", err)
	}

	requested := []review.StageInput{
		{ID: current[0].ID, Name: current[0].Name},
		{ID: current[1].ID, Name: "new_name"},
		{Name: "new stage"},
	}
	result, err := service.ReplaceStages(ctx, workflow.ID, requested)
	if err != nil {
		t.Fatalf("ReplaceStages failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(result))
	}

	if result[0].ID != current[0].ID || result[0].Name != "Draft" {
		t.Fatalf("expected first stage unchanged, got %#v", result[0])
	}
	if result[1].ID != current[1].ID || result[1].Name != "new_name" {
		t.Fatalf("expected second stage renamed, got %#v", result[1])
	}
	if result[2].ID == current[2].ID || result[2].Name != "new stage" {
		t.Fatalf("expected a freshly created third stage, got %#v", result[2])
	}

	reloaded, err := service.FindByID(ctx, workflow.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	for i, stage := range result {
		if reloaded.StageOrder[i] != stage.ID {
			t.Fatalf("stage order mismatch at %d: %v vs %v", i, reloaded.StageOrder, result)
		}
	}
}

func TestReplaceStagesRoundTripPreservesNames(t *testing.T) {
	_, _, service := newService(t)
	ctx := context.Background()

	original := []string{"Draft", "Review", "Done"}
	workflow := mustCreate(t, service, "Editorial", stagesInput(original...), nil)

	if _, err := service.ReplaceStages(ctx, workflow.ID, stagesInput("Triage", "Ship")); err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	back, err := service.ReplaceStages(ctx, workflow.ID, stagesInput(original...))
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}

	got := stageNames(back)
	want := append([]string(nil), original...)
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("stage count mismatch: %v vs %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage names differ after round trip: %v vs %v", got, want)
		}
	}
}

func TestReplaceStagesRejectsEmptyList(t *testing.T) {
	_, _, service := newService(t)
	ctx := context.Background()

	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft", "Done"), nil)

	_, err := service.ReplaceStages(ctx, workflow.ID, nil)
	if !errors.Is(err, review.ErrApplication) {
		t.Fatalf("expected ErrApplication for empty stage list, got %v", err)
	}

	stages, err := service.Stages(ctx, workflow.ID)
	if err != nil {
		t.Fatalf("Stages failed: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("expected stored stages untouched, got %d", len(stages))
	}
}

func TestReplaceStagesEnforcesLimitWithoutPersisting(t *testing.T) {
	_, _, service := newService(t, testsupport.WithLimits(200, 200))
	ctx := context.Background()

	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft"), nil)

	over := make([]review.StageInput, 0, 201)
	for i := 0; i < 201; i++ {
		over = append(over, review.StageInput{Name: stageName(i)})
	}
	_, err := service.ReplaceStages(ctx, workflow.ID, over)
	if !errors.Is(err, review.ErrValidation) {
		t.Fatalf("expected ErrValidation for 201 stages against a limit of 200, got %v", err)
	}

	stages, err := service.Stages(ctx, workflow.ID)
	if err != nil {
		t.Fatalf("Stages failed: %v", err)
	}
	if len(stages) != 1 || stages[0].Name != "Draft" {
		t.Fatalf("expected stored stage list unchanged, got %v", stageNames(stages))
	}
}

func TestReplaceStagesRejectsForeignStageID(t *testing.T) {
	_, _, service := newService(t)
	ctx := context.Background()

	first := mustCreate(t, service, "First", stagesInput("Draft"), nil)
	second := mustCreate(t, service, "Second", stagesInput("Triage"), nil)

	_, err := service.ReplaceStages(ctx, first.ID, []review.StageInput{
		{ID: second.StageOrder[0], Name: "Triage"},
	})
	if !errors.Is(err, review.ErrApplication) {
		t.Fatalf("expected ErrApplication for foreign stage id, got %v", err)
	}
}

func TestReplaceStagesRepointsRecordsOffDeletedStage(t *testing.T) {
	_, st, service := newService(t)
	ctx := context.Background()

	entries := testsupport.NewEntries(t, st, "api.article", 2)
	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft", "Done"), []string{"api.article"})

	stages, err := service.Stages(ctx, workflow.ID)
	if err != nil {
		t.Fatalf("Stages failed: %v", err)
	}
	// Move one record onto the stage about to be deleted.
	if err := st.SetEntryStage(ctx, "api.article", entries[0].ID, stages[1].ID); err != nil {
		t.Fatalf("SetEntryStage failed: %v", err)
	}

	result, err := service.ReplaceStages(ctx, workflow.ID, []review.StageInput{
		{ID: stages[0].ID, Name: stages[0].Name},
	})
	if err != nil {
		t.Fatalf("ReplaceStages failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected one remaining stage, got %d", len(result))
	}

	for _, entry := range entries {
		link, err := st.StageLinkFor(ctx, "api.article", entry.ID)
		if err != nil {
			t.Fatalf("StageLinkFor failed: %v", err)
		}
		if link == nil || link.StageID != stages[0].ID {
			t.Fatalf("expected entry %d repointed to surviving stage, got %#v", entry.ID, link)
		}
	}
}

func TestSingleStageUpdatePersistsColor(t *testing.T) {
	_, _, service := newService(t)
	ctx := context.Background()

	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft"), nil)
	stageID := workflow.StageOrder[0]

	updated, err := service.UpdateStage(ctx, workflow.ID, stageID, "", "#ff0000")
	if err != nil {
		t.Fatalf("UpdateStage failed: %v", err)
	}
	if updated.Color != "#ff0000" {
		t.Fatalf("expected color persisted, got %q", updated.Color)
	}
	if updated.Name != "Draft" {
		t.Fatalf("expected name kept, got %q", updated.Name)
	}
}

func TestCreateStageAppendsToOrder(t *testing.T) {
	_, _, service := newService(t)
	ctx := context.Background()

	workflow := mustCreate(t, service, "Editorial", stagesInput("Draft"), nil)
	stage, err := service.CreateStage(ctx, workflow.ID, "Done", "")
	if err != nil {
		t.Fatalf("CreateStage failed: %v", err)
	}

	reloaded, err := service.FindByID(ctx, workflow.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(reloaded.StageOrder) != 2 || reloaded.StageOrder[1] != stage.ID {
		t.Fatalf("expected stage appended to order, got %v", reloaded.StageOrder)
	}
}

func stageName(i int) string {
	return "stage-" + string(rune('a'+i%26)) + "-" + string(rune('0'+i/26%10)) + string(rune('0'+i/260))
}
