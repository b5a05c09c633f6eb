package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
)

func testNotification(priority domain.Priority, recipients ...string) domain.AlertNotification {
	return domain.AlertNotification{
		ID:         "notif-1",
		Type:       "emergency_created",
		Title:      "Route 5 incident",
		Message:    "Vehicle breakdown reported on route 5",
		Priority:   priority,
		Timestamp:  time.Now(),
		Recipients: recipients,
	}
}

func TestDispatcher_ResolveTargets(t *testing.T) {
	d := NewDispatcher(NewRegistry(testMetrics()), testMetrics(), 4)

	tests := []struct {
		name       string
		recipients []string
		want       []string
	}{
		{"all", []string{"all"}, []string{ChannelAll}},
		{"named group", []string{"system_admins"}, []string{ChannelSystemAdmins}},
		{"role passthrough", []string{"role:route_admin"}, []string{"role:route_admin"}},
		{"alert passthrough", []string{"alert:alert-9"}, []string{"alert:alert-9"}},
		{"unknown dropped", []string{"nobody_home"}, nil},
		{"unknown among known", []string{"admins", "nobody_home", "users"}, []string{ChannelAdmins, ChannelUsers}},
		{"duplicates collapsed", []string{"all", "all", "admins", "admins"}, []string{ChannelAll, ChannelAdmins}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.ResolveTargets(tt.recipients))
		})
	}
}

func TestDispatcher_DispatchAllReachesEveryConnection(t *testing.T) {
	registry := NewRegistry(testMetrics())
	d := NewDispatcher(registry, testMetrics(), 4)

	_, s1 := admit(t, registry, "user-1", domain.RoleClient)
	_, s2 := admit(t, registry, "user-2", domain.RoleSystemAdmin)
	_, s3 := admit(t, registry, "user-3", domain.RoleCustomerService)

	d.Dispatch(testNotification(domain.PriorityMedium, "all"))

	for _, s := range []*fakeSender{s1, s2, s3} {
		alerts := s.eventsOfType(domain.EventAlert)
		require.Len(t, alerts, 1)
		payload := alerts[0].Data.(domain.AlertPayload)
		assert.Equal(t, "notif-1", payload.ID)
		assert.Equal(t, 3, payload.OnlineCount)
	}
}

func TestDispatcher_RoleTargeting(t *testing.T) {
	registry := NewRegistry(testMetrics())
	d := NewDispatcher(registry, testMetrics(), 4)

	_, adminSender := admit(t, registry, "admin-1", domain.RoleSystemAdmin)
	_, clientSender := admit(t, registry, "client-1", domain.RoleClient)

	d.Dispatch(testNotification(domain.PriorityHigh, "system_admins"))

	assert.Len(t, adminSender.eventsOfType(domain.EventAlert), 1)
	assert.Empty(t, clientSender.eventsOfType(domain.EventAlert))
}

func TestDispatcher_CriticalEscalatesToEveryone(t *testing.T) {
	registry := NewRegistry(testMetrics())
	d := NewDispatcher(registry, testMetrics(), 4)

	senders := make([]*fakeSender, 0, 3)
	for _, user := range []string{"user-1", "user-2", "user-3"} {
		_, s := admit(t, registry, user, domain.RoleClient)
		senders = append(senders, s)
	}

	d.Dispatch(testNotification(domain.PriorityCritical, "all"))

	for _, s := range senders {
		assert.Len(t, s.eventsOfType(domain.EventAlert), 1)
		pushes := s.eventsOfType(domain.EventPushRequest)
		require.Len(t, pushes, 1)
		payload := pushes[0].Data.(domain.PushRequestPayload)
		assert.Equal(t, "Route 5 incident", payload.Title)
		assert.Equal(t, "notif-1", payload.Tag)
	}
}

func TestDispatcher_EscalationIgnoresRecipients(t *testing.T) {
	registry := NewRegistry(testMetrics())
	d := NewDispatcher(registry, testMetrics(), 4)

	_, adminSender := admit(t, registry, "admin-1", domain.RoleSystemAdmin)
	_, clientSender := admit(t, registry, "client-1", domain.RoleClient)

	// Routed delivery targets admins only, but critical escalation still
	// reaches every connection.
	d.Dispatch(testNotification(domain.PriorityCritical, "system_admins"))

	assert.Len(t, adminSender.eventsOfType(domain.EventAlert), 1)
	assert.Empty(t, clientSender.eventsOfType(domain.EventAlert))
	assert.Len(t, adminSender.eventsOfType(domain.EventPushRequest), 1)
	assert.Len(t, clientSender.eventsOfType(domain.EventPushRequest), 1)
}

func TestDispatcher_NonCriticalNeverEscalates(t *testing.T) {
	registry := NewRegistry(testMetrics())
	d := NewDispatcher(registry, testMetrics(), 4)

	for _, priority := range []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh} {
		_, s := admit(t, registry, "user-"+string(priority), domain.RoleClient)
		d.Dispatch(testNotification(priority, "all"))
		assert.Empty(t, s.eventsOfType(domain.EventPushRequest), "priority %s must not escalate", priority)
	}
}

func TestDispatcher_FailingConnectionIsIsolated(t *testing.T) {
	registry := NewRegistry(testMetrics())
	d := NewDispatcher(registry, testMetrics(), 4)

	_, good1 := admit(t, registry, "user-1", domain.RoleClient)
	broken, brokenSender := admit(t, registry, "user-2", domain.RoleClient)
	_, good2 := admit(t, registry, "user-3", domain.RoleClient)
	brokenSender.failing = true

	d.Dispatch(testNotification(domain.PriorityMedium, "all"))

	// Healthy connections still receive the alert.
	assert.Len(t, good1.eventsOfType(domain.EventAlert), 1)
	assert.Len(t, good2.eventsOfType(domain.EventAlert), 1)

	// The failing connection is evicted best-effort and its transport closed.
	assert.False(t, registry.IsUserOnline("user-2"))
	assert.True(t, brokenSender.isClosed())
	assert.Equal(t, StateClosed, broken.State())
}

func TestDispatcher_EscalationFailureIsSwallowed(t *testing.T) {
	registry := NewRegistry(testMetrics())
	d := NewDispatcher(registry, testMetrics(), 4)

	_, adminSender := admit(t, registry, "admin-1", domain.RoleSystemAdmin)
	broken, brokenSender := admit(t, registry, "client-1", domain.RoleClient)
	_, healthySender := admit(t, registry, "client-2", domain.RoleClient)
	brokenSender.failing = true

	// Routed delivery targets admins only, so the failing client is reached
	// by the escalation fan-out alone.
	d.Dispatch(testNotification(domain.PriorityCritical, "system_admins"))

	assert.Len(t, adminSender.eventsOfType(domain.EventPushRequest), 1)
	assert.Len(t, healthySender.eventsOfType(domain.EventPushRequest), 1)

	// Escalation failures are swallowed: the connection is not evicted and
	// its transport stays open. Only routed delivery failures evict.
	assert.True(t, registry.IsUserOnline("client-1"))
	assert.False(t, brokenSender.isClosed())
	assert.Equal(t, StateActive, broken.State())
}

func TestDispatcher_DuplicateDeliveryAcrossChannels(t *testing.T) {
	registry := NewRegistry(testMetrics())
	d := NewDispatcher(registry, testMetrics(), 4)

	// A system_admin is a member of both system_admins and admins; this
	// layer does not protect against duplicate delivery.
	_, s := admit(t, registry, "admin-1", domain.RoleSystemAdmin)

	d.Dispatch(testNotification(domain.PriorityMedium, "system_admins", "admins"))

	assert.Len(t, s.eventsOfType(domain.EventAlert), 2)
}

func TestDispatcher_AlertChannelDelivery(t *testing.T) {
	registry := NewRegistry(testMetrics())
	router := NewRouter(registry)
	d := NewDispatcher(registry, testMetrics(), 4)

	subscribed, subSender := admit(t, registry, "user-1", domain.RoleClient)
	_, otherSender := admit(t, registry, "user-2", domain.RoleClient)
	router.JoinAlertChannel(subscribed.ID, "alert-42")

	d.Dispatch(testNotification(domain.PriorityMedium, "alert:alert-42"))

	assert.Len(t, subSender.eventsOfType(domain.EventAlert), 1)
	assert.Empty(t, otherSender.eventsOfType(domain.EventAlert))
}
