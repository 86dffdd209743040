package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"redline/internal/config"
	"redline/internal/logging"
	"redline/internal/rbac"
	"redline/internal/review"
)

// Server exposes the administrative HTTP surface of the engine.
type Server struct {
	bind    string
	token   string
	logger  *slog.Logger
	service *review.Service

	listener net.Listener
	server   *http.Server
}

// NewServer builds the HTTP server over the review service. A nil config or
// empty bind address disables the server entirely.
func NewServer(cfg *config.Config, service *review.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil || service == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, nil
	}

	srv := &Server{
		bind:    bind,
		token:   strings.TrimSpace(cfg.API.Token),
		logger:  logger,
		service: service,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/workflows", srv.auth(srv.handleListWorkflows))
	mux.HandleFunc("POST /api/workflows", srv.auth(srv.handleCreateWorkflow))
	mux.HandleFunc("GET /api/workflows/{id}", srv.auth(srv.handleGetWorkflow))
	mux.HandleFunc("PATCH /api/workflows/{id}", srv.auth(srv.handleUpdateWorkflow))
	mux.HandleFunc("DELETE /api/workflows/{id}", srv.auth(srv.handleDeleteWorkflow))
	mux.HandleFunc("GET /api/workflows/{id}/stages", srv.auth(srv.handleListStages))
	mux.HandleFunc("PUT /api/workflows/{id}/stages", srv.auth(srv.handleReplaceStages))
	mux.HandleFunc("POST /api/workflows/{id}/stages", srv.auth(srv.handleCreateStage))
	mux.HandleFunc("GET /api/workflows/{id}/stages/{stageID}", srv.auth(srv.handleGetStage))
	mux.HandleFunc("PATCH /api/workflows/{id}/stages/{stageID}", srv.auth(srv.handleUpdateStage))
	mux.HandleFunc("GET /api/entries/{type}/{id}/stages", srv.auth(srv.handleAvailableStages))
	mux.HandleFunc("PUT /api/entries/{type}/{id}/stage", srv.auth(srv.handleUpdateEntryStage))
	mux.HandleFunc("PUT /api/entries/{type}/{id}/assignee", srv.auth(srv.handleUpdateEntryAssignee))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Start begins serving requests. The server shuts down when ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listen address, useful when binding port 0 in tests.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// auth validates the bearer token when one is configured and resolves the
// acting user from the X-Actor-ID header into the request context. Requests
// without an actor still pass; the permission gate denies them downstream.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != s.token {
				s.writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		ctx, err := s.resolveActor(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) resolveActor(r *http.Request) (context.Context, error) {
	raw := strings.TrimSpace(r.Header.Get("X-Actor-ID"))
	if raw == "" {
		return r.Context(), nil
	}
	var userID int64
	if _, err := fmt.Sscanf(raw, "%d", &userID); err != nil {
		return nil, fmt.Errorf("invalid actor id %q", raw)
	}
	actor, err := s.service.Gate().ActorForUser(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	return rbac.WithActor(r.Context(), actor), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps the engine's error taxonomy onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch review.Kind(err) {
	case "validation":
		status = http.StatusBadRequest
	case "not_found":
		status = http.StatusNotFound
	case "application":
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: review.Kind(err)})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(slog.String("component", "api-server"))
	}
	return logging.NewNop()
}
