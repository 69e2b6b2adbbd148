package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/deskpanel/internal/actions"
	dplog "github.com/mattjoyce/deskpanel/internal/log"
	"github.com/mattjoyce/deskpanel/internal/render"
	"github.com/mattjoyce/deskpanel/internal/sidebar"
)

// Server represents the webhook HTTP server.
type Server struct {
	config  Config
	sidebar SidebarHandler
	actions ActionSubmitter
	metrics *Metrics
	limiter *ipLimiter
	fixture bool
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new webhook server instance. actions may be nil, in which case
// the action endpoint is not served.
func New(config Config, sb SidebarHandler, act ActionSubmitter, logger *slog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.SidebarPath == "" {
		config.SidebarPath = DefaultSidebarPath
	}
	if config.ActionPath == "" {
		config.ActionPath = DefaultActionPath
	}
	if config.SignatureHeader == "" {
		config.SignatureHeader = DefaultSignatureHeader
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  config,
		sidebar: sb,
		actions: act,
		metrics: NewMetrics(),
		logger:  logger,
	}
	s.limiter = newIPLimiter(config.RateLimit, s.metrics.rateLimited.Inc)
	if f, ok := sb.(fixtureReporter); ok {
		s.fixture = f.FixtureMode()
	}
	return s
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.limiter != nil {
		go s.limiter.run(ctx)
	}

	s.logger.Info("webhook server starting",
		"listen", s.config.Listen,
		"sidebar_path", s.config.SidebarPath,
		"action_path", s.config.ActionPath,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(s.rejectSidebar))
		}
		r.Post(s.config.SidebarPath, s.handleSidebar)
	})

	if s.actions != nil {
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware(rejectTooMany))
			}
			r.Get(s.config.ActionPath, s.handleAction)
		})
	}

	return r
}

// loggingMiddleware logs HTTP requests. Bodies, signatures and query strings
// are never logged.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		dplog.WithRequest(s.logger, middleware.GetReqID(r.Context())).Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleSidebar answers the helpdesk. Every outcome, including rejected
// requests, is a 200 with an {"html": ...} body.
func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := dplog.WithRequest(s.logger, middleware.GetReqID(r.Context()))

	html, outcome := s.buildSidebar(r, logger)

	s.metrics.sidebarRequests.WithLabelValues(outcome).Inc()
	s.metrics.sidebarDuration.Observe(time.Since(start).Seconds())

	if err := render.Respond(w, html, http.StatusOK); err != nil {
		logger.Error("failed to write sidebar response", "error", err)
	}
}

// rejectSidebar keeps the sidebar contract for throttled helpdesk calls.
func (s *Server) rejectSidebar(w http.ResponseWriter, r *http.Request) {
	s.metrics.sidebarRequests.WithLabelValues("rate_limited").Inc()
	if err := render.Respond(w, MessageRateLimited, http.StatusOK); err != nil {
		dplog.WithRequest(s.logger, middleware.GetReqID(r.Context())).Error("failed to write sidebar response", "error", err)
	}
}

func (s *Server) buildSidebar(r *http.Request, logger *slog.Logger) (string, string) {
	var body []byte
	if !s.fixture {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
		if err != nil {
			logger.Error("failed to read sidebar body", "error", err)
			return sidebar.MessageRender, "read_error"
		}
		if int64(len(body)) > s.config.MaxBodySize {
			logger.Warn("sidebar body too large", "limit", s.config.MaxBodySize)
			return MessageTooLarge, "too_large"
		}
	}

	html, err := s.sidebar.Handle(r.Context(), body, r.Header.Get(s.config.SignatureHeader))
	outcome := sidebar.Outcome(err)
	switch {
	case err == nil:
		return html, outcome
	case errors.Is(err, sidebar.ErrRender):
		logger.Error("sidebar render failed", "error", err)
	default:
		logger.Warn("sidebar request rejected", "outcome", outcome)
	}
	return sidebar.Message(err), outcome
}

// handleAction verifies and queues a signed action link.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	logger := dplog.WithRequest(s.logger, middleware.GetReqID(r.Context()))

	id, err := s.actions.Submit(r.Context(), r.URL.Query(), r.RemoteAddr)
	switch {
	case err == nil:
		s.metrics.actionRequests.WithLabelValues("queued").Inc()
		respondJSON(w, http.StatusAccepted, ActionResponse{ActionID: id})
	case errors.Is(err, actions.ErrForbidden):
		s.metrics.actionRequests.WithLabelValues("forbidden").Inc()
		logger.Warn("action signature verification failed")
		respondJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, actions.ErrUnknownAction), errors.Is(err, actions.ErrMissingParam):
		s.metrics.actionRequests.WithLabelValues("invalid").Inc()
		logger.Warn("action rejected", "error", err)
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		s.metrics.actionRequests.WithLabelValues("error").Inc()
		logger.Error("failed to queue action", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to queue action"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
