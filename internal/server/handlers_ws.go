package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
	"github.com/Sri-Express/Backend-sub004/internal/engine"
)

const maxMessageSize = 4 * 1024

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards and mobile clients connect from separate origins.
		return true
	},
}

// handleWebSocket runs the full connection lifecycle: admission limits,
// upgrade, authentication, registration, snapshot delivery, then the read
// loop until the transport closes.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	ok, limitReason := s.limits.Acquire(ip)
	if !ok {
		s.metrics.RejectedConnects.WithLabelValues(string(limitReason)).Inc()
		slog.Warn("Connection rejected by admission limits", "ip", ip, "reason", limitReason)
		if limitReason == LimitReasonGlobal {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusTooManyRequests)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.limits.Release(ip)
		return err
	}
	defer s.limits.Release(ip)

	// Authenticate before any registry mutation. On failure the transport
	// closes with a reason and no presence entry ever exists.
	credential := extractCredential(c)
	identity, err := s.gate.Validate(c.Request().Context(), credential)
	if err != nil {
		reason := domain.CloseReason(err)
		s.metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
		slog.Warn("Connection rejected", "ip", ip, "reason", reason)

		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
		_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = conn.Close()
		return nil
	}

	writer := newClientWriter(conn, s.clock)
	connection := engine.NewConnection(identity, writer, s.clock.Now())

	s.registry.Register(connection, engine.ChannelsForRole(identity.Role))
	defer func() {
		if removed, ok := s.registry.Unregister(connection.ID); ok {
			removed.Close("connection closed")
			removed.Transition(engine.StateClosed)
		}
	}()

	if err := connection.Send(domain.Event{Type: domain.EventConnected, Data: domain.ConnectedPayload{
		UserID:     identity.ID,
		Name:       identity.Name,
		Role:       identity.Role,
		ServerTime: s.clock.Now(),
	}}); err != nil {
		return nil
	}

	// Exactly one status event, after connected, to this connection only.
	s.snapshot.OnAdmitted(c.Request().Context(), connection)
	connection.Transition(engine.StateActive)

	s.readLoop(conn, writer, connection)
	return nil
}

// extractCredential reads the bearer credential from the handshake: the
// token query parameter, or an Authorization header as fallback.
func extractCredential(c echo.Context) string {
	if token := c.QueryParam("token"); token != "" {
		return token
	}
	header := c.Request().Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}

// readLoop consumes client messages until the transport dies. Malformed
// frames are ignored; the loop only ends on a read error.
func (s *Server) readLoop(conn *websocket.Conn, writer *clientWriter, connection *engine.Connection) {
	conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("Connection read failed",
					"connection_id", connection.ID.String(),
					"error", err,
				)
			}
			return
		}

		connection.Touch(s.clock.Now())
		writer.updateReadDeadline()

		var msg domain.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("Malformed client message ignored",
				"connection_id", connection.ID.String(),
				"error", err,
			)
			continue
		}

		s.handleClientMessage(connection, msg)
	}
}

func (s *Server) handleClientMessage(connection *engine.Connection, msg domain.ClientMessage) {
	switch msg.Type {
	case domain.MessageSubscribeAlert:
		if msg.AlertID != "" {
			s.router.JoinAlertChannel(connection.ID, msg.AlertID)
		}
	case domain.MessageUnsubscribeAlert:
		if msg.AlertID != "" {
			s.router.LeaveAlertChannel(connection.ID, msg.AlertID)
		}
	case domain.MessagePing:
		_ = connection.Send(domain.Event{Type: domain.EventPong, Data: domain.PongPayload{
			ServerTime: s.clock.Now(),
		}})
	case domain.MessageAction:
		s.handleAction(connection, msg)
	default:
		slog.Debug("Unknown client message type ignored",
			"connection_id", connection.ID.String(),
			"type", msg.Type,
		)
	}
}

// handleAction processes client action requests. Unknown kinds are
// acknowledged as no-ops, never errors.
func (s *Server) handleAction(connection *engine.Connection, msg domain.ClientMessage) {
	switch msg.Kind {
	case "get_details":
		var detail any
		if len(msg.Payload) > 0 {
			detail = json.RawMessage(msg.Payload)
		}
		_ = connection.Send(domain.Event{Type: domain.EventAck, Data: domain.AckPayload{
			Action: msg.Kind,
			Status: "ok",
			Data:   detail,
		}})
	case "request_stats":
		_ = connection.Send(domain.Event{Type: domain.EventAck, Data: domain.AckPayload{
			Action: msg.Kind,
			Status: "ok",
			Data: map[string]any{
				"onlineCount":     s.registry.OnlineCount(),
				"connectionCount": s.registry.ConnectionCount(),
				"joinedChannels":  s.registry.ChannelCount(connection.ID),
			},
		}})
	case "mark_read":
		_ = connection.Send(domain.Event{Type: domain.EventAck, Data: domain.AckPayload{
			Action: msg.Kind,
			Status: "ok",
		}})
	default:
		_ = connection.Send(domain.Event{Type: domain.EventAck, Data: domain.AckPayload{
			Action: msg.Kind,
			Status: "ignored",
		}})
	}
}
