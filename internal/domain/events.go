package domain

import (
	"encoding/json"
	"time"
)

// Server event types.
const (
	EventConnected   = "connected"
	EventStatus      = "status"
	EventAlert       = "alert"
	EventHeartbeat   = "heartbeat"
	EventPong        = "pong"
	EventPushRequest = "push_request"
	EventAck         = "ack"
)

// Client message types.
const (
	MessageSubscribeAlert   = "subscribe_alert"
	MessageUnsubscribeAlert = "unsubscribe_alert"
	MessageAction           = "action"
	MessagePing             = "ping"
)

// Event is the envelope for every server-to-client message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ClientMessage is the envelope for every client-to-server message.
type ClientMessage struct {
	Type    string          `json:"type"`
	AlertID string          `json:"alertId,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConnectedPayload struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	ServerTime time.Time `json:"serverTime"`
}

type StatusPayload struct {
	ActiveCount   int           `json:"activeCount"`
	CriticalCount int           `json:"criticalCount"`
	ActiveList    []AlertRecord `json:"activeList"`
	CriticalList  []AlertRecord `json:"criticalList"`
	Timestamp     time.Time     `json:"timestamp"`
}

type AlertPayload struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Message       string          `json:"message"`
	Priority      Priority        `json:"priority"`
	DomainPayload json.RawMessage `json:"domainPayload,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Recipients    []string        `json:"recipients"`
	OnlineCount   int             `json:"onlineCount"`
}

type HeartbeatPayload struct {
	Timestamp   time.Time `json:"timestamp"`
	OnlineCount int       `json:"onlineCount"`
}

type PongPayload struct {
	ServerTime time.Time `json:"serverTime"`
}

// PushRequestPayload is the condensed escalation payload delivered to
// every connection when a critical alert dispatches.
type PushRequestPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon"`
	Tag   string         `json:"tag"`
	Meta  map[string]any `json:"meta,omitempty"`
}

type AckPayload struct {
	Action string `json:"action"`
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// NewAlertEvent builds the routed delivery event for a notification.
func NewAlertEvent(n AlertNotification, onlineCount int) Event {
	return Event{Type: EventAlert, Data: AlertPayload{
		ID:            n.ID,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		Priority:      n.Priority,
		DomainPayload: n.DomainPayload,
		Timestamp:     n.Timestamp,
		Recipients:    n.Recipients,
		OnlineCount:   onlineCount,
	}}
}

// NewPushRequestEvent builds the escalation event for a critical
// notification. Meta keeps just enough for a client-side push prompt.
func NewPushRequestEvent(n AlertNotification) Event {
	return Event{Type: EventPushRequest, Data: PushRequestPayload{
		Title: n.Title,
		Body:  n.Message,
		Icon:  "/icons/alert-critical.png",
		Tag:   n.ID,
		Meta: map[string]any{
			"alertId":  n.ID,
			"type":     n.Type,
			"priority": n.Priority,
		},
	}}
}
