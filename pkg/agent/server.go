/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: server.go
Description: Small HTTP server exposing the agent's prometheus registry on /metrics
and a liveness probe on /healthz.
*/

package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kleascm/agent-demo/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves agent metrics over HTTP
type MetricsServer struct {
	addr     string
	logger   *logging.Logger
	server   *http.Server
	listener net.Listener
	done     chan error
}

// NewMetricsServer creates a server for reg. Use ":0" to pick a free port.
func NewMetricsServer(addr string, reg *prometheus.Registry, logger *logging.Logger) *MetricsServer {
	return &MetricsServer{
		addr:   addr,
		logger: logger,
		server: &http.Server{
			Handler:           NewMetricsRouter(reg),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// NewMetricsRouter builds the route table
func NewMetricsRouter(reg *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	return r
}

// Start binds the listener and serves in the background
func (s *MetricsServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.done = make(chan error, 1)

	go func() {
		err := s.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	s.logger.Info("Metrics server listening", map[string]interface{}{"addr": ln.Addr().String()})
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *MetricsServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server and waits for the serve loop to exit
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return <-s.done
}
