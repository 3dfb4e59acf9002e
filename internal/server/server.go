// Package server provides the HTTP REST API for resumes and job descriptions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/saadk408/victry/internal/config"
	"github.com/saadk408/victry/internal/metrics"
	"github.com/saadk408/victry/internal/server/middleware"
	"github.com/saadk408/victry/internal/server/ratelimit"
	"github.com/saadk408/victry/internal/types"
	"golang.org/x/sync/errgroup"
)

// maxBodyBytes bounds request bodies. Job postings are the largest payloads.
const maxBodyBytes = 1 << 20

// ResumeService is the resume aggregate API used by the handlers.
type ResumeService interface {
	Create(ctx context.Context, caller uuid.UUID, r *types.Resume) (*types.Resume, error)
	Get(ctx context.Context, caller, id uuid.UUID) (*types.Resume, error)
	List(ctx context.Context, caller uuid.UUID) ([]types.ResumeSummary, error)
	Update(ctx context.Context, caller, id uuid.UUID, patch *types.ResumePatch) (*types.Resume, error)
	UpsertSection(ctx context.Context, caller, id uuid.UUID, section types.Section, payload []byte) (*types.Resume, error)
	DeleteSectionItem(ctx context.Context, caller, id uuid.UUID, section types.Section, itemID uuid.UUID) error
	Delete(ctx context.Context, caller, id uuid.UUID) error
	Duplicate(ctx context.Context, caller, id uuid.UUID, title *string) (*types.Resume, error)
	Tailor(ctx context.Context, caller, id, jobDescriptionID uuid.UUID) (*types.TailorResult, error)
}

// JobService is the job description API used by the handlers.
type JobService interface {
	Create(ctx context.Context, caller uuid.UUID, in *types.JobDescriptionInput) (*types.JobDescription, error)
	Get(ctx context.Context, caller, id uuid.UUID) (*types.JobDescription, error)
	List(ctx context.Context, caller uuid.UUID) ([]types.JobDescription, error)
	Update(ctx context.Context, caller, id uuid.UUID, p *types.JobDescriptionPatch) (*types.JobDescription, error)
	Delete(ctx context.Context, caller, id uuid.UUID) error
	ImportFromURL(ctx context.Context, caller uuid.UUID, rawURL string) (*types.JobDescription, error)
	Analyze(ctx context.Context, caller, id uuid.UUID) (*types.JobAnalysis, error)
	GetAnalysis(ctx context.Context, caller, id uuid.UUID) (*types.JobAnalysis, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Deps are the collaborators of a Server.
type Deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Resumes ResumeService
	Jobs    JobService
	Auth    middleware.TokenValidator
	Metrics *metrics.Metrics
	// Health is optional; when set /health also checks the database.
	Health HealthChecker
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	config      *config.Config
	logger      *slog.Logger
	resumes     ResumeService
	jobs        JobService
	metrics     *metrics.Metrics
	health      HealthChecker
	rateLimiter *ratelimit.Limiter
	requireAuth func(http.Handler) http.Handler
}

// New creates a new server instance
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := d.Metrics
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		config:      d.Config,
		logger:      logger,
		resumes:     d.Resumes,
		jobs:        d.Jobs,
		metrics:     m,
		health:      d.Health,
		rateLimiter: ratelimit.NewLimiter(ratelimit.NewConfig(d.Config.Limits)),
		requireAuth: middleware.AuthMiddleware(d.Auth, d.Config.Auth.SessionCookie),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Resumes
	s.route(mux, "GET /api/resumes", s.handleListResumes)
	s.route(mux, "POST /api/resumes", s.handleCreateResume)
	s.route(mux, "GET /api/resumes/{id}", s.handleGetResume)
	s.route(mux, "PATCH /api/resumes/{id}", s.handleUpdateResume)
	s.route(mux, "DELETE /api/resumes/{id}", s.handleDeleteResume)
	s.route(mux, "POST /api/resumes/{id}/duplicate", s.handleDuplicateResume)
	s.route(mux, "POST /api/resumes/{id}/tailor", s.handleTailorResume)
	s.route(mux, "PUT /api/resumes/{id}/sections/{section}", s.handleUpsertSection)
	s.route(mux, "DELETE /api/resumes/{id}/sections/{section}/{itemId}", s.handleDeleteSectionItem)

	// Job descriptions
	s.route(mux, "GET /api/job-descriptions", s.handleListJobDescriptions)
	s.route(mux, "POST /api/job-descriptions", s.handleCreateJobDescription)
	s.route(mux, "POST /api/job-descriptions/import", s.handleImportJobDescription)
	s.route(mux, "GET /api/job-descriptions/{id}", s.handleGetJobDescription)
	s.route(mux, "PATCH /api/job-descriptions/{id}", s.handleUpdateJobDescription)
	s.route(mux, "DELETE /api/job-descriptions/{id}", s.handleDeleteJobDescription)
	s.route(mux, "POST /api/job-descriptions/{id}/analyze", s.handleAnalyzeJobDescription)
	s.route(mux, "GET /api/job-descriptions/{id}/analysis", s.handleGetJobAnalysis)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", d.Config.Port),
		Handler:           s.withRecovery(s.withLogging(s.metrics.Middleware(s.withCORS(s.withRateLimit(mux))))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      d.Config.LLM.Timeout + 30*time.Second, // Tailoring waits on the model
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// route registers an authenticated handler.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.requireAuth(h))
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer s.rateLimiter.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", "error", err)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, code, message string) {
	s.jsonResponse(w, status, errorBody{Error: message, Code: code})
}

// writeError maps a service error onto a response. Server side failures are
// logged with the request id and described generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	body := errorBody{Error: errorMessage(status, err), Code: code}

	var validation *types.ValidationError
	if errors.As(err, &validation) {
		body.Field = validation.Field
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
	}
	s.jsonResponse(w, status, body)
}

// caller returns the authenticated user. Routes are registered through
// route, so a missing user is a wiring error.
func (s *Server) caller(r *http.Request) (uuid.UUID, error) {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return id, nil
}

// pathID parses a UUID path parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, types.NewValidationError(name, "must be a UUID")
	}
	return id, nil
}

// readBody returns the request body, bounded by maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, types.NewValidationError("body", "could not read request body")
	}
	return body, nil
}

// decodeJSON decodes the request body into dst. An empty body is accepted
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		if allowEmpty {
			return nil
		}
		return types.NewValidationError("body", "request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var validation *types.ValidationError
		if errors.As(err, &validation) {
			return validation
		}
		return types.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}
