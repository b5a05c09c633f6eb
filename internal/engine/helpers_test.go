package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

// fakeSender records events in memory and can be flipped to fail sends.
type fakeSender struct {
	mu          sync.Mutex
	events      []domain.Event
	failing     bool
	closed      bool
	closeReason string
}

var errSendFailed = errors.New("send failed")

func (f *fakeSender) Send(event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errSendFailed
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSender) Close(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeReason = reason
}

func (f *fakeSender) eventsOfType(eventType string) []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.Event
	for _, e := range f.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func (f *fakeSender) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func testMetrics() *metrics.EngineMetrics {
	return metrics.NewEngineMetrics(prometheus.NewRegistry())
}

func newTestConnection(t *testing.T, userID string, role domain.Role) (*Connection, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	identity := domain.Identity{ID: userID, Name: "Test " + userID, Role: role}
	return NewConnection(identity, sender, time.Now()), sender
}

// admit registers a connection with its role channel set, the way the
// server handler does on admission.
func admit(t *testing.T, r *Registry, userID string, role domain.Role) (*Connection, *fakeSender) {
	t.Helper()
	conn, sender := newTestConnection(t, userID, role)
	r.Register(conn, ChannelsForRole(role))
	conn.Transition(StateActive)
	return conn, sender
}
