package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firestige.xyz/gb28181registrar/internal/log"
)

// Server exposes the Prometheus exposition endpoint and a liveness probe.
type Server struct {
	addr   string
	path   string
	server *http.Server
}

// NewServer creates a metrics server bound to addr, serving the registry
// at path (defaults to /metrics).
func NewServer(addr, path string) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{addr: addr, path: path}
}

// Start begins serving in the background. It returns once the listener
// goroutine has been launched; a failure surfaces via a logged error, not
// a returned one, matching the fire-and-forget shape callers expect from
// a sidecar HTTP server.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger := log.GetLogger()
	logger.WithField("addr", s.addr).WithField("path", s.path).Info("metrics: starting server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics: server error")
		}
	}()

	return nil
}

// Stop gracefully shuts the server down, bounding the wait at 5s.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics: server shutdown: %w", err)
	}
	return nil
}
