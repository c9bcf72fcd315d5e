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
	"time"

	"outpost-hq/gridfront/pkg/config"
	"outpost-hq/gridfront/pkg/proxy/middleware"
	"outpost-hq/gridfront/pkg/traffic"
)

// Server is the proxy front: the main listener plus the optional admin
// listener, sharing one traffic store and one shutdown path.
type Server struct {
	cfg     *config.Config
	handler http.Handler
	store   *traffic.Store
	metrics http.Handler

	httpServer   *http.Server
	adminServer  *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server. handler is the compiled route dispatcher; metrics
// may be nil when metrics are disabled.
func New(cfg *config.Config, handler http.Handler, store *traffic.Store, metrics http.Handler) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		store:   store,
		metrics: metrics,
	}
}

// Start starts both listeners and blocks until shutdown. Shutdown is
// triggered by ctx cancellation, SIGINT/SIGTERM, the store's shutdown flag,
// or a listener error.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.ListenAddress,
		Handler: s.Handler(),
	}

	errChan := make(chan error, 2)
	go func() {
		slog.Info("starting proxy server",
			"address", s.cfg.Server.ListenAddress,
			"upstream", s.cfg.Upstream.Host,
			"grid_layout", s.cfg.Routing.GridLayout,
			"transparent", s.cfg.Routing.Transparent,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("proxy server error: %w", err)
		}
	}()

	if s.cfg.Admin.Enabled {
		s.adminServer = &http.Server{
			Addr:    s.cfg.Admin.ListenAddress,
			Handler: s.adminHandler(),
		}
		go func() {
			slog.Info("starting admin server", "address", s.cfg.Admin.ListenAddress)
			if err := s.adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("admin server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case <-s.store.Done():
		slog.Info("shutdown requested via admin endpoint")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	}
}

// Shutdown gracefully drains both listeners. In-flight HTTP requests get
// until the configured timeout; WebSocket bridges end when their sockets
// close.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		slog.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during proxy server shutdown", "error", err)
				shutdownErr = fmt.Errorf("proxy server shutdown error: %w", err)
			}
		}
		if s.adminServer != nil {
			if err := s.adminServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during admin server shutdown", "error", err)
				if shutdownErr == nil {
					shutdownErr = fmt.Errorf("admin server shutdown error: %w", err)
				}
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("server stopped",
			"http_bytes", s.store.HTTPTotal(),
			"websocket_bytes", s.store.WebSocketTotal(),
		)
	})

	return shutdownErr
}

// Handler returns the proxy handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	handler := s.handler
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Recovery(handler)
	return handler
}

// IsRunning reports whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
