package review_test

import (
	"context"
	"testing"

	"redline/internal/config"
	"redline/internal/logging"
	"redline/internal/rbac"
	"redline/internal/review"
	"redline/internal/store"
	"redline/internal/testsupport"
)

func newService(t testing.TB, opts ...testsupport.ConfigOption) (*config.Config, *store.Store, *review.Service) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	registry := testsupport.NewRegistry(t, "api.article", "api.page", "api.post")
	service := review.NewService(cfg, st, registry, logging.NewNop())
	return cfg, st, service
}

func superCtx() context.Context {
	return rbac.WithActor(context.Background(), rbac.Actor{UserID: 1, SuperAdmin: true})
}

func stageNames(stages []*store.Stage) []string {
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, stage.Name)
	}
	return names
}

func mustCreate(t testing.TB, service *review.Service, name string, stages []review.StageInput, contentTypes []string) *store.Workflow {
	t.Helper()

	workflow, err := service.Create(context.Background(), name, stages, contentTypes)
	if err != nil {
		t.Fatalf("Create %s failed: %v", name, err)
	}
	return workflow
}

func stagesInput(names ...string) []review.StageInput {
	inputs := make([]review.StageInput, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, review.StageInput{Name: name})
	}
	return inputs
}
