// Package server exposes the orchestrator over HTTP: registry listings,
// discovery introspection, and workflow execution.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/palletlabs/pallet/pkg/discovery"
	"github.com/palletlabs/pallet/pkg/orchestrator"
	"github.com/palletlabs/pallet/pkg/registry"
	"github.com/palletlabs/pallet/pkg/workflow"
)

// Runner executes workflows by id. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	RunWorkflowByID(ctx context.Context, workflowID string, input map[string]any, version string) (*orchestrator.Result, error)
}

// Lister serves the discovery listings. *discovery.Registry satisfies it.
type Lister interface {
	Agents(ctx context.Context) (map[string]discovery.Agent, error)
	Skills(ctx context.Context) ([]discovery.SkillInfo, error)
}

// Server is the HTTP facade.
type Server struct {
	runner   Runner
	lister   Lister
	registry *registry.Client
	logger   *slog.Logger

	httpServer *http.Server
}

// Options configures a Server.
type Options struct {
	Host string
	Port int

	Runner   Runner
	Lister   Lister
	Registry *registry.Client
	Logger   *slog.Logger
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		runner:   opts.Runner,
		lister:   opts.Lister,
		registry: opts.Registry,
		logger:   opts.Logger,
	}
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(opts.Host, fmt.Sprintf("%d", opts.Port)),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/workflows", s.handleListWorkflows)
		r.Get("/agents", s.handleListAgents)
		r.Get("/skills", s.handleListSkills)
		r.Post("/workflows/{id}/execute", s.handleExecute)
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "healthy"}
	if s.registry != nil {
		status["registry"] = s.registry.Ping(r.Context())
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("registry not configured"))
		return
	}
	repos, err := s.registry.Catalog(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	var workflows []string
	for _, repo := range repos {
		if strings.HasPrefix(repo, registry.WorkflowRepoPrefix) {
			workflows = append(workflows, strings.TrimPrefix(repo, registry.WorkflowRepoPrefix))
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"workflows": workflows})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	if s.lister == nil {
		s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("discovery not configured"))
		return
	}
	agents, err := s.lister.Agents(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	if s.lister == nil {
		s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("discovery not configured"))
		return
	}
	skills, err := s.lister.Skills(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"skills": skills})
}

type executeRequest struct {
	Input   map[string]any `json:"input"`
	Version string         `json:"version"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "id")

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := s.runner.RunWorkflowByID(r.Context(), workflowID, req.Input, req.Version)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// statusForError maps the engine error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var (
		configErr   *workflow.ConfigurationError
		notFoundErr *workflow.SkillNotFoundError
		timeoutErr  *workflow.StepTimeoutError
		remoteErr   *workflow.RemoteSkillError
		callErr     *workflow.RemoteCallFailedError
	)
	switch {
	case errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &remoteErr), errors.As(err, &callErr):
		return http.StatusBadGateway
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}
