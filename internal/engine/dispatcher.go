package engine

import (
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

// groupChannels maps symbolic recipient tags to channel keys. Unrecognized
// tags are dropped with a warning, never an error.
var groupChannels = map[string]string{
	"all":                  ChannelAll,
	ChannelSystemAdmins:    ChannelSystemAdmins,
	ChannelAdmins:          ChannelAdmins,
	ChannelFleetManagers:   ChannelFleetManagers,
	ChannelRouteAdmins:     ChannelRouteAdmins,
	ChannelCustomerService: ChannelCustomerService,
	ChannelUsers:           ChannelUsers,
}

// Dispatcher fans notifications out to the member connections of resolved
// target channels. Membership is enumerated at send time; a connection
// reachable via more than one selected channel may receive duplicates, and
// consumers de-duplicate by notification id.
type Dispatcher struct {
	registry    *Registry
	metrics     *metrics.EngineMetrics
	concurrency int
}

func NewDispatcher(registry *Registry, m *metrics.EngineMetrics, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 64
	}
	return &Dispatcher{registry: registry, metrics: m, concurrency: concurrency}
}

// ResolveTargets maps recipient tags to a deduplicated channel set,
// preserving first-seen order. "all" selects all_connections; known group
// tags select their channel; role:- and alert:-prefixed tags pass through.
func (d *Dispatcher) ResolveTargets(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	var channels []string

	add := func(ch string) {
		if _, dup := seen[ch]; dup {
			return
		}
		seen[ch] = struct{}{}
		channels = append(channels, ch)
	}

	for _, tag := range recipients {
		switch {
		case tag == "all":
			add(ChannelAll)
		case strings.HasPrefix(tag, "role:"), strings.HasPrefix(tag, "alert:"):
			add(tag)
		default:
			if ch, ok := groupChannels[tag]; ok {
				add(ch)
				continue
			}
			d.metrics.DroppedTagsTotal.Inc()
			slog.Warn("Unrecognized recipient tag dropped", "tag", tag)
		}
	}
	return channels
}

// Dispatch delivers a notification to every member of its resolved target
// channels and escalates critical priority. Per-connection failures evict
// that connection only; the batch always runs to completion. There are no
// ordering guarantees and delivery is at-least-once, best-effort.
func (d *Dispatcher) Dispatch(n domain.AlertNotification) {
	start := time.Now()
	defer func() {
		d.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	channels := d.ResolveTargets(n.Recipients)
	event := domain.NewAlertEvent(n, d.registry.OnlineCount())

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)

	delivered := 0
	for _, channel := range channels {
		members := d.registry.MembersOf(channel)
		delivered += len(members)
		for _, conn := range members {
			g.Go(func() error {
				d.metrics.DeliveriesTotal.Inc()
				if err := conn.Send(event); err != nil {
					d.handleDeliveryFailure(conn, err)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	slog.Info("Notification dispatched",
		"notification_id", n.ID,
		"priority", n.Priority,
		"channels", len(channels),
		"deliveries", delivered,
	)

	if n.Priority == domain.PriorityCritical {
		d.Escalate(n)
	}
}

// Escalate sends a condensed push-style payload to literally every
// registered connection, independent of channel membership. Failures are
// swallowed entirely.
func (d *Dispatcher) Escalate(n domain.AlertNotification) {
	d.metrics.EscalationsTotal.Inc()

	event := domain.NewPushRequestEvent(n)
	conns := d.registry.All()

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for _, conn := range conns {
		g.Go(func() error {
			if err := conn.Send(event); err != nil {
				slog.Warn("Escalation delivery failed",
					"connection_id", conn.ID.String(),
					"notification_id", n.ID,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Critical notification escalated",
		"notification_id", n.ID,
		"connections", len(conns),
	)
}

// handleDeliveryFailure isolates a single failed send: the connection is
// removed best-effort and its transport closed. The enclosing broadcast is
// never aborted.
func (d *Dispatcher) handleDeliveryFailure(conn *Connection, err error) {
	d.metrics.DeliveryFailures.Inc()
	slog.Warn("Alert delivery failed, evicting connection",
		"connection_id", conn.ID.String(),
		"user_id", conn.UserID,
		"error", err,
	)
	if removed, ok := d.registry.Unregister(conn.ID); ok {
		removed.Close("delivery failure")
		removed.Transition(StateClosed)
	}
}
