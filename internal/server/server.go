package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"gameroom-server/internal/config"
	"gameroom-server/internal/engine"
	"gameroom-server/internal/history"
)

type Server struct {
	engine            *engine.Engine
	history           history.Store
	connectionManager *ConnectionManager
	rateLimiter       *RateLimiter
	connectionHealth  *ConnectionHealth
	logger            zerolog.Logger

	version        string
	allowedOrigins []string
	idleTimeout    time.Duration

	stopCleanup context.CancelFunc
	shutdown    sync.Once
}

// NewServer builds the engine and the HTTP server around it. tune adjusts the
// engine options derived from cfg.
func NewServer(cfg *config.Config, version string, store history.Store, logger zerolog.Logger, tune ...func(*engine.Options)) (*Server, *http.Server) {
	opts := engine.Options{
		Recorder:          store,
		Logger:            logger,
		MatchTimeout:      cfg.MatchTimeout,
		InactivityTimeout: cfg.InactivityTimeout,
		SweepInterval:     cfg.SweepInterval,
		AutoStartDelay:    cfg.AutoStartDelay,
		MonitorDelay:      cfg.MonitorDelay,
	}
	for _, f := range tune {
		f(&opts)
	}

	logger = logger.With().Str("component", "server").Logger()
	connections := NewConnectionManager(logger)
	opts.Dispatcher = connections

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		engine:            engine.New(opts),
		history:           store,
		connectionManager: connections,
		rateLimiter:       NewRateLimiter(cfg.RateLimit, time.Second),
		connectionHealth:  NewConnectionHealth(),
		logger:            logger,
		version:           version,
		allowedOrigins:    cfg.AllowedOrigins,
		idleTimeout:       cfg.IdleTimeout,
		stopCleanup:       cancel,
	}

	go s.cleanupTask(ctx)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, server
}

// Shutdown closes every socket and stops the engine. The history store is
// left to its owner.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Do(func() {
		s.stopCleanup()
		s.connectionManager.CloseAll("server shutting down")
		s.engine.Stop()
	})
	return ctx.Err()
}

// cleanupTask closes connections that have been silent for idleTimeout and
// trims rate limiter state.
func (s *Server) cleanupTask(ctx context.Context) {
	interval := s.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.sweepIdle()
		s.rateLimiter.Cleanup()
	}
}

// sweepIdle kicks connections silent for longer than the idle timeout. A
// connection that spoke after the scan is left alone.
func (s *Server) sweepIdle() int {
	kicked := 0
	for _, connID := range s.connectionHealth.GetInactiveConnections(s.idleTimeout) {
		if !s.connectionHealth.IsInactive(connID, s.idleTimeout) {
			continue
		}
		if s.connectionManager.Kick(connID, websocket.StatusPolicyViolation, "idle timeout") {
			s.logger.Info().Str("connection", connID).Msg("Closing idle connection")
			kicked++
		}
	}
	return kicked
}
