package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Priority orders alerts by urgency. Critical triggers escalation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// AlertNotification is an ephemeral fan-out payload. It exists only for
// the duration of a single dispatch; the engine never persists it.
type AlertNotification struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Message       string          `json:"message"`
	Priority      Priority        `json:"priority"`
	DomainPayload json.RawMessage `json:"domainPayload,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Recipients    []string        `json:"recipients"`
}

// AlertRecord is the bounded view of a stored alert returned by the
// external domain store for connect-time snapshots.
type AlertRecord struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Priority  Priority  `json:"priority"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// AlertStore queries the external domain store. Both queries are
// bounded and most-recent-first.
type AlertStore interface {
	ActiveAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	CriticalAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}
