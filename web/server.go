// ABOUTME: The flyout HTTP server: submit workflows, list/fetch results, render run reports.
// ABOUTME: chi router with request logging and panic recovery; workflow runs are synchronous.

package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/flyout/report"
	"github.com/2389-research/flyout/store"
	"github.com/2389-research/flyout/workflow"
)

// Runner executes one workflow. Both the sandbox runner and a plain pipeline
// closure satisfy it.
type Runner interface {
	Run(ctx context.Context, p workflow.Params) *workflow.Result
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, p workflow.Params) *workflow.Result

func (f RunnerFunc) Run(ctx context.Context, p workflow.Params) *workflow.Result {
	return f(ctx, p)
}

// ResultStore is the persistence surface the server needs.
type ResultStore interface {
	Save(result *workflow.Result) error
	Get(workflowID string) (*workflow.Result, error)
	List() ([]store.Summary, error)
}

// Server is the flyout HTTP server.
type Server struct {
	runner Runner
	store  ResultStore
	router chi.Router
	addr   string
}

// ServerConfig holds the configuration for the web server.
type ServerConfig struct {
	Addr   string // listen address (default: "127.0.0.1:8089")
	Runner Runner
	Store  ResultStore
}

// NewServer creates a Server and sets up routing.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8089"
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("Runner must not be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("Store must not be nil")
	}

	s := &Server{runner: cfg.Runner, store: cfg.Store, addr: cfg.Addr}
	s.router = s.buildRouter()
	return s, nil
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured address with
// timeouts sized for synchronous workflow runs.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	log.Printf("web server listening addr=%s", s.addr)
	return srv.ListenAndServe()
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/workflows", func(r chi.Router) {
		r.Post("/", s.handleWorkflowSubmit)
		r.Get("/", s.handleWorkflowList)
		r.Get("/{workflowID}", s.handleWorkflowGet)
	})

	r.Get("/workflows/{workflowID}/report", s.handleWorkflowReport)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWorkflowSubmit accepts workflow parameters, runs the workflow to
// completion, persists the result, and returns it. Step failures do not
// change the HTTP status; the response is 200 whenever the run itself
// completed.
func (s *Server) handleWorkflowSubmit(w http.ResponseWriter, r *http.Request) {
	var p workflow.Params
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := p.Normalize(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.runner.Run(r.Context(), p)

	if err := s.store.Save(result); err != nil {
		log.Printf("web save workflow failed id=%s error=%v", result.WorkflowID, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to persist workflow result")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWorkflowList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list workflows")
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleWorkflowGet(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadWorkflow(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWorkflowReport(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadWorkflow(w, r)
	if !ok {
		return
	}
	html, err := report.HTML(result)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (s *Server) loadWorkflow(w http.ResponseWriter, r *http.Request) (*workflow.Result, bool) {
	workflowID := chi.URLParam(r, "workflowID")
	result, err := s.store.Get(workflowID)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, http.StatusNotFound, "workflow not found")
		return nil, false
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load workflow")
		return nil, false
	}
	return result, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web encode response failed: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
