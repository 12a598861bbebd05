// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/api/alerts"
	"github.com/quiet-rooms/noisewatch/internal/api/health"
	"github.com/quiet-rooms/noisewatch/internal/monitor"
	"github.com/quiet-rooms/noisewatch/internal/storage"
	"github.com/quiet-rooms/noisewatch/internal/view"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address           string
	CORSOrigins       []string      // Allowed origins for the browser frontend
	QueryTimeout      time.Duration // Timeout for storage-backed API calls
	StreamMaxDuration time.Duration // Max lifetime for SSE connections
	StreamKeepalive   time.Duration // Keepalive comment interval for SSE
	// IngestRatePerMinute caps sample submissions per client IP. A sensor on
	// the default 3s cadence produces 20/min; the cap leaves slack for several
	// devices behind one NAT.
	IngestRatePerMinute int
	Verbose             bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 10 * time.Second
	}
	if c.StreamMaxDuration == 0 {
		c.StreamMaxDuration = 30 * time.Minute
	}
	if c.StreamKeepalive == 0 {
		c.StreamKeepalive = 15 * time.Second
	}
	if c.IngestRatePerMinute == 0 {
		c.IngestRatePerMinute = 300
	}
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	storage       storage.Storage
	monitor       *monitor.Monitor
	coordinator   *view.Coordinator
	hub           *alerts.Hub
	server        *http.Server
	healthHandler *health.Handler
}

// New creates a new API server. The hub carries live alert and level events
// to SSE subscribers; pass the one wired to the poller.
func New(cfg *Config, store storage.Storage, mon *monitor.Monitor, coord *view.Coordinator, hub *alerts.Hub) (*Server, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("config is required")
	case store == nil:
		return nil, fmt.Errorf("storage is required")
	case mon == nil:
		return nil, fmt.Errorf("monitor is required")
	case coord == nil:
		return nil, fmt.Errorf("coordinator is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		storage:       store,
		monitor:       mon,
		coordinator:   coord,
		hub:           hub,
		healthHandler: health.NewHandler(),
	}

	s.server = &http.Server{
		Addr:        cfg.Address,
		Handler:     s.setupRouter(),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays 0 (disabled) because the alert stream holds SSE
		// connections open for up to StreamMaxDuration. Non-streaming handlers
		// bound their own time via context deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("[api] listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("[api] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}
