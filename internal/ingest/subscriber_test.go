package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

type fakeDispatcher struct {
	dispatched []domain.AlertNotification
}

func (f *fakeDispatcher) Dispatch(n domain.AlertNotification) {
	f.dispatched = append(f.dispatched, n)
}

func testSubscriber() (*Subscriber, *fakeDispatcher) {
	d := &fakeDispatcher{}
	m := metrics.NewEngineMetrics(prometheus.NewRegistry())
	return NewSubscriber(nil, d, m), d
}

func TestSubscriber_HandleMessage(t *testing.T) {
	s, d := testSubscriber()

	n := domain.AlertNotification{
		ID:         "notif-1",
		Type:       "emergency_created",
		Title:      "Fleet incident",
		Message:    "Bus 42 breakdown",
		Priority:   domain.PriorityHigh,
		Timestamp:  time.Now(),
		Recipients: []string{"all"},
	}
	data, err := json.Marshal(n)
	require.NoError(t, err)

	s.handleMessage(string(data))

	require.Len(t, d.dispatched, 1)
	assert.Equal(t, "notif-1", d.dispatched[0].ID)
	assert.Equal(t, domain.PriorityHigh, d.dispatched[0].Priority)
}

func TestSubscriber_HandleMessage_Malformed(t *testing.T) {
	s, d := testSubscriber()

	s.handleMessage("{not json")
	s.handleMessage(`{"type":"emergency_created"}`) // missing id

	assert.Empty(t, d.dispatched)
}

func TestSubscriber_HandleMessage_ProducerWireFormat(t *testing.T) {
	s, d := testSubscriber()

	// The document shape external producers publish on the channel.
	s.handleMessage(`{
		"id": "notif-3",
		"type": "emergency_created",
		"title": "Fleet incident",
		"message": "Bus 42 breakdown",
		"priority": "critical",
		"domainPayload": {"vehicleId": "bus-42"},
		"timestamp": "2026-08-28T10:00:00Z",
		"recipients": ["system_admins", "alert:alert-7"]
	}`)

	require.Len(t, d.dispatched, 1)
	n := d.dispatched[0]
	assert.Equal(t, "notif-3", n.ID)
	assert.Equal(t, domain.PriorityCritical, n.Priority)
	assert.Equal(t, []string{"system_admins", "alert:alert-7"}, n.Recipients)
	assert.JSONEq(t, `{"vehicleId": "bus-42"}`, string(n.DomainPayload))
	assert.Equal(t, time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC), n.Timestamp)
}

func TestSubscriber_HandleMessage_FillsZeroTimestamp(t *testing.T) {
	s, d := testSubscriber()

	s.handleMessage(`{"id":"notif-2","type":"broadcast","priority":"low","recipients":["all"]}`)

	require.Len(t, d.dispatched, 1)
	assert.False(t, d.dispatched[0].Timestamp.IsZero())
}
