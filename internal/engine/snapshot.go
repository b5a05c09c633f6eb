package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

const snapshotQueryTimeout = 3 * time.Second

// SnapshotProvider pushes a one-time status event to a newly admitted
// connection, derived from the external domain store. Store failures are
// non-fatal: the connection stays admitted and the event is omitted.
//
// Concurrent admissions share one store round trip via singleflight, and a
// circuit breaker keeps a down store from stalling the admission path.
type SnapshotProvider struct {
	store   domain.AlertStore
	breaker *gobreaker.CircuitBreaker
	group   singleflight.Group
	limit   int
	clock   clockwork.Clock
	metrics *metrics.EngineMetrics
}

type snapshotData struct {
	active   []domain.AlertRecord
	critical []domain.AlertRecord
}

func NewSnapshotProvider(store domain.AlertStore, limit int, clock clockwork.Clock, m *metrics.EngineMetrics) *SnapshotProvider {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "alert-snapshot",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Snapshot circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &SnapshotProvider{
		store:   store,
		breaker: breaker,
		limit:   limit,
		clock:   clock,
		metrics: m,
	}
}

// OnAdmitted queries current active and critical alerts and emits a single
// status event to the given connection only.
func (p *SnapshotProvider) OnAdmitted(ctx context.Context, conn *Connection) {
	v, err, shared := p.group.Do("alerts", func() (any, error) {
		return p.breaker.Execute(func() (any, error) {
			return p.query(ctx)
		})
	})
	if err != nil {
		p.metrics.SnapshotFailures.Inc()
		slog.Warn("Snapshot query failed, status event omitted",
			"connection_id", conn.ID.String(),
			"error", err,
		)
		return
	}

	data := v.(snapshotData)
	event := domain.Event{Type: domain.EventStatus, Data: domain.StatusPayload{
		ActiveCount:   len(data.active),
		CriticalCount: len(data.critical),
		ActiveList:    data.active,
		CriticalList:  data.critical,
		Timestamp:     p.clock.Now(),
	}}

	if err := conn.Send(event); err != nil {
		slog.Debug("Status event send failed",
			"connection_id", conn.ID.String(),
			"shared_query", shared,
			"error", err,
		)
	}
}

func (p *SnapshotProvider) query(ctx context.Context) (snapshotData, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotQueryTimeout)
	defer cancel()

	active, err := p.store.ActiveAlerts(ctx, p.limit)
	if err != nil {
		return snapshotData{}, err
	}
	critical, err := p.store.CriticalAlerts(ctx, p.limit)
	if err != nil {
		return snapshotData{}, err
	}
	return snapshotData{active: active, critical: critical}, nil
}
