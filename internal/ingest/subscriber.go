// Package ingest bridges external notification producers into the engine.
//
// Producers (the emergency-management service, operational tooling) publish
// AlertNotification JSON on a Redis channel; the subscriber feeds each
// message to the dispatcher. The bridge is optional: without Redis the
// engine only delivers what it is handed directly.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

// DispatchChannel is the Redis channel external producers publish to.
const DispatchChannel = "notifications:dispatch"

// Dispatcher is the engine-side consumer of ingested notifications.
type Dispatcher interface {
	Dispatch(n domain.AlertNotification)
}

// NewClient creates a Redis client from a URL and verifies connectivity.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Subscriber listens for published notifications and hands them to the
// dispatcher.
type Subscriber struct {
	redis      *redis.Client
	dispatcher Dispatcher
	metrics    *metrics.EngineMetrics
}

func NewSubscriber(client *redis.Client, dispatcher Dispatcher, m *metrics.EngineMetrics) *Subscriber {
	return &Subscriber{redis: client, dispatcher: dispatcher, metrics: m}
}

// Start begins listening for published notifications. Blocks until ctx is
// cancelled; malformed messages are logged and skipped.
func (s *Subscriber) Start(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, DispatchChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			if msg == nil {
				return
			}
			s.handleMessage(msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Subscriber) handleMessage(payload string) {
	s.metrics.IngestMessagesTotal.Inc()

	var n domain.AlertNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		slog.Warn("Malformed notification on ingest channel", "error", err)
		return
	}
	if n.ID == "" {
		slog.Warn("Notification without id on ingest channel, skipping")
		return
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	s.dispatcher.Dispatch(n)
}
