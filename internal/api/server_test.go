package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"redline/internal/logging"
	"redline/internal/rbac"
	"redline/internal/review"
	"redline/internal/store"
	"redline/internal/testsupport"
)

func newTestServer(t *testing.T, token string) (*httptest.Server, *store.Store, *review.Service) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.API.Token = token
	st := testsupport.MustOpenStore(t, cfg)
	registry := testsupport.NewRegistry(t, "api.article")
	service := review.NewService(cfg, st, registry, logging.NewNop())

	srv, err := NewServer(cfg, service, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if srv == nil {
		t.Fatal("expected server enabled")
	}

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return ts, st, service
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func TestCreateAndListWorkflows(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/workflows", CreateWorkflowRequest{
		Name:   "Editorial",
		Stages: []StageRequest{{Name: "Draft"}, {Name: "Done"}},
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, data)
	}
	var created WorkflowPayload
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode workflow: %v", err)
	}
	if created.Name != "Editorial" || len(created.StageOrder) != 2 {
		t.Fatalf("unexpected payload: %+v", created)
	}

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/workflows", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	var listed WorkflowListResponse
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Workflows) != 1 || listed.Workflows[0].ID != created.ID {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	ts, _, _ := newTestServer(t, "secret")

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/workflows", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/workflows", nil, map[string]string{
		"Authorization": "Bearer wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/workflows", nil, map[string]string{
		"Authorization": "Bearer secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestErrorKindMapping(t *testing.T) {
	ts, _, service := newTestServer(t, "")
	ctx := context.Background()

	workflow, err := service.Create(ctx, "Only", []review.StageInput{{Name: "Draft"}}, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Validation: empty stage list on create.
	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/workflows", CreateWorkflowRequest{Name: "Bad"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation error, got %d: %s", resp.StatusCode, data)
	}
	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Kind != "validation" {
		t.Fatalf("expected validation kind, got %q", errResp.Kind)
	}

	// Not found: unknown workflow id.
	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/workflows/9999", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, data)
	}

	// Application: deleting the last workflow.
	resp, data = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/workflows/%d", ts.URL, workflow.ID), nil, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Kind != "application" {
		t.Fatalf("expected application kind, got %q", errResp.Kind)
	}
}

func TestBodyRequired(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/workflows", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing body, got %d: %s", resp.StatusCode, data)
	}
}

func TestInvalidPathID(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/workflows/abc", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}
}

func TestActorHeaderResolvesSuperAdmin(t *testing.T) {
	ts, st, service := newTestServer(t, "")
	ctx := context.Background()

	admin := testsupport.NewRole(t, st, rbac.SuperAdminRoleCode, "Super Admin")
	boss := testsupport.NewUser(t, st, "boss@example.com", admin.ID)

	entries := testsupport.NewEntries(t, st, "api.article", 1)
	workflow, err := service.Create(ctx, "Editorial",
		[]review.StageInput{{Name: "Draft"}, {Name: "Done"}}, []string{"api.article"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	url := fmt.Sprintf("%s/api/entries/api.article/%d/stage", ts.URL, entries[0].ID)
	headers := map[string]string{"X-Actor-ID": fmt.Sprintf("%d", boss.ID)}

	resp, data := doJSON(t, http.MethodPut, url, UpdateEntryStageRequest{StageID: workflow.StageOrder[1]}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for super-admin transition, got %d: %s", resp.StatusCode, data)
	}
	var stage StagePayload
	if err := json.Unmarshal(data, &stage); err != nil {
		t.Fatalf("decode stage: %v", err)
	}
	if stage.ID != workflow.StageOrder[1] {
		t.Fatalf("expected target stage, got %+v", stage)
	}

	// Without an actor the gate stays closed.
	resp, data = doJSON(t, http.MethodPut, url, UpdateEntryStageRequest{StageID: workflow.StageOrder[0]}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without actor, got %d: %s", resp.StatusCode, data)
	}

	resp, _ = doJSON(t, http.MethodGet, url+"s", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 listing available stages, got %d", resp.StatusCode)
	}
}

func TestMalformedActorHeader(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/workflows", nil, map[string]string{
		"X-Actor-ID": "not-a-number",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed actor header, got %d", resp.StatusCode)
	}
}
