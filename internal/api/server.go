package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arm-control/acc/internal/auth"
)

// Server represents the HTTP API server.
type Server struct {
	httpServer     *http.Server
	manager        ManagerPort
	commands       CommandPort
	telemetryHub   TelemetryPort
	auditLogger    AuditPort
	authMiddleware *auth.Middleware
	startTime      time.Time
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

// NewServer creates a new API server.
func NewServer(mgr ManagerPort, commands CommandPort, telemetryHub TelemetryPort, readTimeout, writeTimeout, idleTimeout time.Duration) *Server {
	return &Server{
		manager:      mgr,
		commands:     commands,
		telemetryHub: telemetryHub,
		startTime:    time.Now(),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		idleTimeout:  idleTimeout,
	}
}

// SetAuthMiddleware enables token verification on the protected routes.
// Must be called before Start.
func (s *Server) SetAuthMiddleware(m *auth.Middleware) {
	s.authMiddleware = m
}

// SetAuditLogger wires the audit sink for command ingress.
func (s *Server) SetAuditLogger(logger AuditPort) {
	s.auditLogger = logger
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	// Register all routes
	s.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
