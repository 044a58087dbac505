// Package server exposes extraction over HTTP.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gitlab.com/tozd/go/errors"

	"github.com/example/intentspec/internal/generator"
)

type Options struct {
	// MaxBodyBytes caps request bodies; larger requests get 413.
	MaxBodyBytes int64
	Mode         generator.ParseMode
}

// Server is the HTTP API for intent extraction.
type Server struct {
	router chi.Router
	gen    *generator.Generator
	log    *slog.Logger
	opts   Options
}

// New creates and configures the HTTP server.
func New(log *slog.Logger, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		gen:  generator.New(generator.Options{Mode: opts.Mode}),
		log:  log,
		opts: opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/api/extract", s.handleExtract)
	r.Post("/api/selector", s.handleSelector)

	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. It returns once in-flight requests have drained.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns once in-flight requests have drained.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopped := make(chan struct{})
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		s.log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown failed", "error", err)
		}
	}()

	s.log.Info("starting intentspec server", "addr", ln.Addr().String())
	err := httpServer.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		close(stopped)
		<-shutdownDone
		return errors.Errorf("server error: %w", err)
	}

	<-shutdownDone
	return nil
}
