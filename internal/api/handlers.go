package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"redline/internal/review"
)

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	contains := r.URL.Query().Get("contains")
	workflows, err := s.service.Find(r.Context(), contains)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, WorkflowListResponse{Workflows: fromWorkflows(workflows)})
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	workflow, err := s.service.Create(r.Context(), req.Name, toStageInputs(req.Stages), req.ContentTypes)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, fromWorkflow(workflow))
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	workflow, err := s.service.FindByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromWorkflow(workflow))
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateWorkflowRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input := review.UpdateInput{Name: req.Name, ContentTypes: req.ContentTypes}
	if req.Stages != nil {
		input.Stages = toStageInputs(req.Stages)
	}
	workflow, err := s.service.Update(r.Context(), id, input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromWorkflow(workflow))
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	workflow, err := s.service.Delete(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromWorkflow(workflow))
}

func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	stages, err := s.service.Stages(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StageListResponse{Stages: fromStages(stages)})
}

func (s *Server) handleReplaceStages(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req ReplaceStagesRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stages, err := s.service.ReplaceStages(r.Context(), id, toStageInputs(req.Stages))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StageListResponse{Stages: fromStages(stages)})
}

func (s *Server) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req StageRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stage, err := s.service.CreateStage(r.Context(), id, req.Name, req.Color)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, fromStage(stage))
}

func (s *Server) handleGetStage(w http.ResponseWriter, r *http.Request) {
	workflowID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	stageID, ok := s.pathID(w, r, "stageID")
	if !ok {
		return
	}
	stage, err := s.service.WorkflowStage(r.Context(), workflowID, stageID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromStage(stage))
}

func (s *Server) handleUpdateStage(w http.ResponseWriter, r *http.Request) {
	workflowID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	stageID, ok := s.pathID(w, r, "stageID")
	if !ok {
		return
	}
	var req StageRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stage, err := s.service.UpdateStage(r.Context(), workflowID, stageID, req.Name, req.Color)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromStage(stage))
}

func (s *Server) handleAvailableStages(w http.ResponseWriter, r *http.Request) {
	entryType := r.PathValue("type")
	entryID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	stages, err := s.service.AvailableStages(r.Context(), entryType, entryID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StageListResponse{Stages: fromStages(stages)})
}

func (s *Server) handleUpdateEntryStage(w http.ResponseWriter, r *http.Request) {
	entryType := r.PathValue("type")
	entryID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateEntryStageRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stage, err := s.service.UpdateEntryStage(r.Context(), entryType, entryID, req.StageID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromStage(stage))
}

func (s *Server) handleUpdateEntryAssignee(w http.ResponseWriter, r *http.Request) {
	entryType := r.PathValue("type")
	entryID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateEntryAssigneeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.service.UpdateEntryAssignee(r.Context(), entryType, entryID, req.UserID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func decodeBody(r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	return nil
}

func toStageInputs(stages []StageRequest) []review.StageInput {
	inputs := make([]review.StageInput, 0, len(stages))
	for _, stage := range stages {
		inputs = append(inputs, review.StageInput{ID: stage.ID, Name: stage.Name, Color: stage.Color})
	}
	return inputs
}
