package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Server is an HTTP server exposing the metrics of a [prometheus.Gatherer]
// at /metrics.
type Server struct {
	server       *http.Server
	shutdownOnce sync.Once
}

// NewServer returns a pointer to a new [Server] listening on addr once
// started.
func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the [http.Handler] of the [Server].
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is done, then shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("(metrics-start) failed to listen: %w", err)
	}

	slog.Info("Serving metrics:", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		s.Stop() //nolint:errcheck
	}()

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("(metrics-start) %w", err)
	}

	return nil
}

// Stop shuts the server down. It is safe to call more than once.
func (s *Server) Stop() error {
	var err error

	s.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err = s.server.Shutdown(ctx)
	})

	if err != nil {
		return fmt.Errorf("(metrics-stop) %w", err)
	}

	return nil
}
