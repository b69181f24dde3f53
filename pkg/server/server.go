// Package server exposes layout computation over HTTP.
//
// Routes:
//
//	GET  /healthz          liveness probe
//	GET  /version          build information
//	POST /v1/layout        layout result for a tree and focus
//	POST /v1/layout/debug  layout result plus per-stage snapshots
//	POST /v1/dot           union graph as DOT, SVG, PNG or PDF
//	POST /v1/invalidate    drop every cached layout of a tree
//
// Request bodies carry the tree inline or name one in the configured
// stores. Errors use the envelope {"errors":[{"code","status","detail"}]}.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/store"
)

// Defaults for Options.
const (
	DefaultAddr         = ":8080"
	DefaultTimeout      = 60 * time.Second
	DefaultMaxBodyBytes = 8 << 20
)

// Options configures the HTTP service.
type Options struct {
	Addr         string
	Timeout      time.Duration // per-request deadline
	MaxBodyBytes int64
	Logger       *log.Logger

	// Stores resolves treeRef in request bodies. Without it requests must
	// carry the tree inline.
	Stores *store.Registry
}

func (o *Options) setDefaults() {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Server serves layout requests from a pipeline runner.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds the router. The runner's cache and keyer are shared by every
// request.
func New(runner *pipeline.Runner, opts Options) *Server {
	opts.setDefaults()
	s := &Server{runner: runner, opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteAPIError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/layout/debug", s.handleDebug)
		r.Post("/dot", s.handleDOT)
		r.Post("/invalidate", s.handleInvalidate)
	})

	return r
}

// Handler returns the service's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.opts.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("server listening", "addr", s.opts.Addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
