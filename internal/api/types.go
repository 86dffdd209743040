package api

import (
	"time"

	"redline/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WorkflowPayload is the wire shape of a workflow.
type WorkflowPayload struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	StageOrder   []int64   `json:"stageOrder"`
	ContentTypes []string  `json:"contentTypes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StagePayload is the wire shape of a stage.
type StagePayload struct {
	ID         int64  `json:"id"`
	WorkflowID int64  `json:"workflowId"`
	Name       string `json:"name"`
	Color      string `json:"color"`
}

// StageRequest is one stage in a create or replace request.
type StageRequest struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// CreateWorkflowRequest creates a workflow with its initial stages.
type CreateWorkflowRequest struct {
	Name         string         `json:"name"`
	Stages       []StageRequest `json:"stages"`
	ContentTypes []string       `json:"contentTypes,omitempty"`
}

// UpdateWorkflowRequest carries optional workflow changes. Omitted fields
// are left untouched.
type UpdateWorkflowRequest struct {
	Name         *string        `json:"name,omitempty"`
	Stages       []StageRequest `json:"stages,omitempty"`
	ContentTypes []string       `json:"contentTypes,omitempty"`
}

// ReplaceStagesRequest replaces a workflow's stage list wholesale.
type ReplaceStagesRequest struct {
	Stages []StageRequest `json:"stages"`
}

// UpdateEntryStageRequest transitions an entry to another stage.
type UpdateEntryStageRequest struct {
	StageID int64 `json:"stageId"`
}

// UpdateEntryAssigneeRequest points an entry at a user; null clears it.
type UpdateEntryAssigneeRequest struct {
	UserID *int64 `json:"userId"`
}

// WorkflowListResponse wraps a workflow listing.
type WorkflowListResponse struct {
	Workflows []WorkflowPayload `json:"workflows"`
}

// StageListResponse wraps a stage listing.
type StageListResponse struct {
	Stages []StagePayload `json:"stages"`
}

func fromWorkflow(workflow *store.Workflow) WorkflowPayload {
	contentTypes := workflow.ContentTypes
	if contentTypes == nil {
		contentTypes = []string{}
	}
	stageOrder := workflow.StageOrder
	if stageOrder == nil {
		stageOrder = []int64{}
	}
	return WorkflowPayload{
		ID:           workflow.ID,
		Name:         workflow.Name,
		StageOrder:   stageOrder,
		ContentTypes: contentTypes,
		CreatedAt:    workflow.CreatedAt,
		UpdatedAt:    workflow.UpdatedAt,
	}
}

func fromWorkflows(workflows []*store.Workflow) []WorkflowPayload {
	out := make([]WorkflowPayload, 0, len(workflows))
	for _, workflow := range workflows {
		out = append(out, fromWorkflow(workflow))
	}
	return out
}

func fromStage(stage *store.Stage) StagePayload {
	return StagePayload{
		ID:         stage.ID,
		WorkflowID: stage.WorkflowID,
		Name:       stage.Name,
		Color:      stage.Color,
	}
}

func fromStages(stages []*store.Stage) []StagePayload {
	out := make([]StagePayload, 0, len(stages))
	for _, stage := range stages {
		out = append(out, fromStage(stage))
	}
	return out
}
