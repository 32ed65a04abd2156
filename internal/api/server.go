// Package api provides the HTTP API for listing and running workflows.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
	"github.com/hugo-lorenzo-mato/taskflow/internal/events"
	"github.com/hugo-lorenzo-mato/taskflow/internal/logging"
)

// Server provides HTTP endpoints over a workflow engine.
type Server struct {
	router   chi.Router
	engine   *engine.Engine
	eventBus *events.EventBus
	history  *RunHistory
	logger   *logging.Logger

	cors           bool
	requestTimeout time.Duration
	contextFor     func(workflow string) map[string]any
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCORS enables or disables permissive CORS headers.
func WithCORS(enabled bool) ServerOption {
	return func(s *Server) {
		s.cors = enabled
	}
}

// WithRunHistory sets how many runs are kept in memory.
func WithRunHistory(size int) ServerOption {
	return func(s *Server) {
		s.history = NewRunHistory(size)
	}
}

// WithRequestTimeout bounds non-streaming requests, including runs.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// WithDefaultContext supplies the initial run context of a workflow. Values
// in the request body override it.
func WithDefaultContext(fn func(workflow string) map[string]any) ServerOption {
	return func(s *Server) {
		s.contextFor = fn
	}
}

// NewServer creates a new API server. eventBus may be nil, in which case
// run history only records runs started through the API.
func NewServer(eng *engine.Engine, eventBus *events.EventBus, opts ...ServerOption) *Server {
	s := &Server{
		engine:         eng,
		eventBus:       eventBus,
		history:        NewRunHistory(DefaultRunHistory),
		logger:         logging.NewNop(),
		cors:           true,
		requestTimeout: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// History returns the run history.
func (s *Server) History() *RunHistory {
	return s.history
}

// setupRouter configures Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	if s.cors {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
			AllowCredentials: false,
			MaxAge:           300,
		})
		r.Use(corsHandler.Handler)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))

			r.Route("/workflows", func(r chi.Router) {
				r.Get("/", s.handleListWorkflows)
				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", s.handleGetWorkflow)
					r.Post("/runs", s.handleRunWorkflow)
					r.Get("/run", s.handleRunStatus)
					r.Post("/pause", s.handleControl(s.engine.Pause))
					r.Post("/resume", s.handleControl(s.engine.Resume))
					r.Post("/cancel", s.handleControl(s.engine.Cancel))
				})
			})

			r.Route("/runs", func(r chi.Router) {
				r.Get("/", s.handleListRuns)
				r.Get("/{runID}", s.handleGetRun)
			})
		})

		// Streaming, so outside the request timeout.
		r.Get("/events", s.handleSSE)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"time":      time.Now().UTC().Format(time.RFC3339),
		"workflows": len(s.engine.Workflows()),
	})
}

// ListenAndServe records run history from the event bus and serves until
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if s.eventBus != nil {
		go s.history.Listen(ctx, s.eventBus)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
