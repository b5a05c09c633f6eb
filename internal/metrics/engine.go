package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics holds Prometheus metrics for the realtime engine.
type EngineMetrics struct {
	ActiveConnections   prometheus.Gauge
	OnlineUsers         prometheus.Gauge
	ConnectionsTotal    prometheus.Counter
	AuthFailuresTotal   *prometheus.CounterVec
	DeliveriesTotal     prometheus.Counter
	DeliveryFailures    prometheus.Counter
	EscalationsTotal    prometheus.Counter
	DroppedTagsTotal    prometheus.Counter
	HeartbeatsTotal     prometheus.Counter
	SnapshotFailures    prometheus.Counter
	DispatchDuration    prometheus.Histogram
	RejectedConnects    *prometheus.CounterVec
	IngestMessagesTotal prometheus.Counter
}

// NewEngineMetrics creates and registers engine metrics on the given registry.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "active_connections",
			Help:      "Number of currently registered WebSocket connections.",
		}),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "online_users",
			Help:      "Number of users with at least one active connection.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "connections_total",
			Help:      "Total number of admitted connections.",
		}),
		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "auth_failures_total",
			Help:      "Total number of rejected connection attempts by reason.",
		}, []string{"reason"}),
		DeliveriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "deliveries_total",
			Help:      "Total number of per-connection alert deliveries attempted.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "delivery_failures_total",
			Help:      "Total number of per-connection delivery failures.",
		}),
		EscalationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "escalations_total",
			Help:      "Total number of critical-priority escalation fan-outs.",
		}),
		DroppedTagsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "dropped_recipient_tags_total",
			Help:      "Total number of unrecognized recipient tags dropped during target resolution.",
		}),
		HeartbeatsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "heartbeats_total",
			Help:      "Total number of heartbeat ticks emitted.",
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "snapshot_failures_total",
			Help:      "Total number of failed connect-time snapshot queries.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a full notification dispatch.",
			Buckets:   prometheus.DefBuckets,
		}),
		RejectedConnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rejected_connects_total",
			Help:      "Total number of connection attempts rejected by admission limits.",
		}, []string{"reason"}),
		IngestMessagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ingest_messages_total",
			Help:      "Total number of notifications received on the Redis ingest channel.",
		}),
	}

	reg.MustRegister(
		m.ActiveConnections, m.OnlineUsers, m.ConnectionsTotal,
		m.AuthFailuresTotal, m.DeliveriesTotal, m.DeliveryFailures,
		m.EscalationsTotal, m.DroppedTagsTotal, m.HeartbeatsTotal,
		m.SnapshotFailures, m.DispatchDuration, m.RejectedConnects,
		m.IngestMessagesTotal,
	)
	return m
}
