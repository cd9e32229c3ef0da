// Package server provides the HTTP API for evidence capture and audit review.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"veritas-hq/quaestor/pkg/config"
	"veritas-hq/quaestor/pkg/evidence/integrity"
	"veritas-hq/quaestor/pkg/evidence/service"
	"veritas-hq/quaestor/pkg/telemetry/metrics"
)

// Server is the evidence capture and audit API server.
type Server struct {
	config       *config.ServerConfig
	metricsCfg   *config.MetricsConfig
	service      *service.Service
	monitor      *integrity.Monitor
	collector    *metrics.Collector
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	logger       *slog.Logger

	mu        sync.RWMutex
	isRunning bool
}

// NewServer creates a new API server. The monitor may be nil, in which case
// on-demand verification runs directly against the service's ledger without
// recording checkpoints. The collector may be nil when metrics are disabled.
func NewServer(cfg *config.ServerConfig, metricsCfg *config.MetricsConfig, svc *service.Service, monitor *integrity.Monitor, collector *metrics.Collector) *Server {
	return &Server{
		config:       cfg,
		metricsCfg:   metricsCfg,
		service:      svc,
		monitor:      monitor,
		collector:    collector,
		shutdownChan: make(chan struct{}),
		logger:       slog.Default().With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting evidence API server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("evidence API server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the fully configured HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /evidence/capture", s.handleCapture)
	mux.HandleFunc("GET /evidence/{evidence_id}", s.handleGetEvidence)
	mux.HandleFunc("GET /evidence", s.handleListEvidence)
	mux.HandleFunc("GET /audit/trail", s.handleAuditTrail)
	mux.HandleFunc("GET /audit/verify", s.handleAuditVerify)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.metricsCfg != nil && s.metricsCfg.Enabled && s.collector != nil {
		mux.Handle("GET "+s.metricsCfg.Path, s.collector.Handler())
	}

	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(handler)
	return handler
}
