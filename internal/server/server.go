// Package server exposes the engine over HTTP: the WebSocket endpoint,
// health and diagnostics routes, and the Prometheus metrics handler.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Sri-Express/Backend-sub004/internal/auth"
	"github.com/Sri-Express/Backend-sub004/internal/config"
	"github.com/Sri-Express/Backend-sub004/internal/engine"
	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

// storeHealthChecker is the minimal store surface readiness needs.
type storeHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	echo     *echo.Echo
	config   *config.Config
	clock    clockwork.Clock
	gate     *auth.Gate
	registry *engine.Registry
	router   *engine.Router
	snapshot *engine.SnapshotProvider
	limits   *ConnectionLimits
	store    storeHealthChecker
	redis    *goredis.Client
	metrics  *metrics.EngineMetrics
	promReg  *prometheus.Registry
}

func NewServer(
	cfg *config.Config,
	clock clockwork.Clock,
	gate *auth.Gate,
	registry *engine.Registry,
	router *engine.Router,
	snapshot *engine.SnapshotProvider,
	store storeHealthChecker,
	redis *goredis.Client,
	engineMetrics *metrics.EngineMetrics,
	promReg *prometheus.Registry,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	srv := &Server{
		echo:     e,
		config:   cfg,
		clock:    clock,
		gate:     gate,
		registry: registry,
		router:   router,
		snapshot: snapshot,
		limits:   NewConnectionLimits(cfg.MaxConnections, cfg.MaxConnectionsPerIP, cfg.ConnectRate, cfg.ConnectBurst),
		store:    store,
		redis:    redis,
		metrics:  engineMetrics,
		promReg:  promReg,
	}

	srv.registerRoutes()
	return srv
}

// Start begins serving. Failure to bind the listener is the engine's only
// fatal condition and is reported to the caller.
func (s *Server) Start() error {
	slog.Info("Server starting", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

// Shutdown stops accepting new connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// CloseAllConnections unregisters every live connection and closes its
// transport with a shutdown reason. Called during graceful shutdown.
func (s *Server) CloseAllConnections() {
	conns := s.registry.All()
	for _, conn := range conns {
		if removed, ok := s.registry.Unregister(conn.ID); ok {
			removed.Close("server shutting down")
			removed.Transition(engine.StateClosed)
		}
	}
	slog.Info("All connections closed", "count", len(conns))
}
