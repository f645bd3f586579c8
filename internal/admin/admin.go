// Package admin exposes a small HTTP surface for monitoring: liveness,
// Prometheus metrics, and a JSON status snapshot. It binds to loopback by
// default and has no write endpoints.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the JSON snapshot served at /api/status.
type Status struct {
	Number        string `json:"number"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Processed     int64  `json:"processed"`
	Handlers      int    `json:"handlers"`
}

// StatusFunc supplies the current status snapshot. The uptime field is
// filled in by the server.
type StatusFunc func() Status

// Server is the admin HTTP server.
type Server struct {
	bind      string
	logger    *slog.Logger
	registry  *prometheus.Registry
	status    StatusFunc
	server    *http.Server
	startedAt time.Time
}

// New creates an admin server listening on bind. registry backs the /metrics
// endpoint; status backs /api/status and may be nil.
func New(bind string, logger *slog.Logger, registry *prometheus.Registry, status StatusFunc) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bind:     bind,
		logger:   logger,
		registry: registry,
		status:   status,
	}
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth())
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/api/status", s.handleStatus())

	return r
}

// Start begins serving. It returns once the listener is bound, so a bad bind
// address fails fast instead of inside the serve goroutine.
func (s *Server) Start() error {
	s.startedAt = time.Now()

	s.server = &http.Server{
		Addr:         s.bind,
		Handler:      s.buildRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.bind)
	if err != nil {
		return errors.New("admin: listen failed: " + err.Error())
	}

	go func() {
		s.logger.Info("admin server listening", "addr", s.bind)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("admin server shutting down")
	return s.server.Shutdown(shutdownCtx)
}
