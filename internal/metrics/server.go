package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Server exposes the Prometheus exposition endpoint over HTTP. It binds to
// the loopback interface only: the endpoint is a local diagnostic surface,
// not something other devices should reach.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a metrics Server serving provider's handler at /metrics.
func NewServer(port int, logger *slog.Logger, provider *Provider) *Server {
	mux := http.NewServeMux()
	if provider != nil {
		mux.Handle("/metrics", provider.Handler())
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the http.Handler for testing purposes.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the metrics HTTP server and blocks until it is shut down.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting metrics server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}
