// Package server exposes citation parsing, formatting, validation, statute
// resolution and search as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/coolbeans/lexref/pkg/docstore"
	"github.com/coolbeans/lexref/pkg/validate"
)

const (
	// MaxSearchLimit caps the limit query parameter of /v1/search.
	MaxSearchLimit = 100

	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API over a document store.
type Server struct {
	store     docstore.Store
	validator *validate.Validator
	logger    *zap.Logger
	metrics   *Metrics
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Server and its routes.
func New(store docstore.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		logger:  zap.NewNop(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = validate.New(store, validate.WithLogger(s.logger))
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(instrument(s.metrics))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/citations/parse", s.handleParse)
		r.Get("/citations/format", s.handleFormat)
		r.Get("/citations/validate", s.handleValidate)
		r.Get("/statutes/resolve", s.handleResolve)
		r.Get("/search", s.handleSearch)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
