package server

import (
	"github.com/labstack/echo/v4"

	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.promReg)))

	// Diagnostic boundary consumed by the operational HTTP layer
	s.echo.GET("/diagnostics/online", s.handleOnlineCount)
	s.echo.GET("/diagnostics/connections", s.handleListConnections)

	// Realtime endpoint: credential carried in the handshake
	s.echo.GET("/ws", s.handleWebSocket)
}
