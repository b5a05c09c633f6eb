package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type connectionInfo struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Role          string    `json:"role"`
	DisplayName   string    `json:"displayName"`
	EstablishedAt time.Time `json:"establishedAt"`
	LastSeenAt    time.Time `json:"lastSeenAt"`
}

// handleOnlineCount serves the synchronous onlineCount diagnostic query.
func (s *Server) handleOnlineCount(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{
		"onlineUsers": s.registry.OnlineCount(),
		"connections": s.registry.ConnectionCount(),
	})
}

// handleListConnections serves the listConnections diagnostic query with a
// point-in-time snapshot of every live connection.
func (s *Server) handleListConnections(c echo.Context) error {
	conns := s.registry.All()

	infos := make([]connectionInfo, 0, len(conns))
	for _, conn := range conns {
		infos = append(infos, connectionInfo{
			ID:            conn.ID.String(),
			UserID:        conn.UserID,
			Role:          string(conn.Role),
			DisplayName:   conn.DisplayName,
			EstablishedAt: conn.EstablishedAt,
			LastSeenAt:    conn.LastSeen(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"count":       len(infos),
		"connections": infos,
	})
}
