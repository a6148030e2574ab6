package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/xco2-etl/internal/pipeline"
)

// Ingestion is the running pipeline the server reports on.
type Ingestion interface {
	sharedobs.ReadinessChecker
	Progress() pipeline.Progress
}

// Server exposes health, readiness, progress and metrics endpoints while an
// ingestion runs.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
}

// NewServer creates an HTTP server with /healthz, /readyz, /status and
// /metrics routes. /readyz reports ready once the pipeline has committed its
// first record.
func NewServer(addr string, ing Ingestion, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		addr:   addr,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ing))
	mux.HandleFunc("GET /status", s.handleStatus(ing))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

func (s *Server) handleStatus(ing Ingestion) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ing.Progress()); err != nil {
			s.logger.Warn("write status response", "error", err)
		}
	}
}

// Serve listens on the configured address and serves in the background. The
// returned stop function drains connections within shutdownTimeout and waits
// for the server goroutine to exit.
func (s *Server) Serve(shutdownTimeout time.Duration) (stop func(), err error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, fmt.Errorf("http listen %s: %w", s.httpServer.Addr, err)
	}
	s.addr = ln.Addr().String()
	s.logger.Info("http server starting", "addr", s.addr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
		<-done
	}, nil
}

// Addr returns the listening address once Serve has started, or the
// configured address before that.
func (s *Server) Addr() string { return s.addr }

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
