package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

// Heartbeat periodically emits a liveness event to every connection so
// clients can detect silent transport death and operators can watch
// connection-count drift. It runs until Stop and is independent of any
// request.
type Heartbeat struct {
	registry *Registry
	clock    clockwork.Clock
	interval time.Duration
	metrics  *metrics.EngineMetrics

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewHeartbeat(registry *Registry, clock clockwork.Clock, interval time.Duration, m *metrics.EngineMetrics) *Heartbeat {
	return &Heartbeat{
		registry: registry,
		clock:    clock,
		interval: interval,
		metrics:  m,
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop.
func (h *Heartbeat) Start() {
	h.wg.Add(1)
	go h.run()
}

func (h *Heartbeat) run() {
	defer h.wg.Done()

	ticker := h.clock.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			h.emit()
		case <-h.done:
			return
		}
	}
}

func (h *Heartbeat) emit() {
	h.metrics.HeartbeatsTotal.Inc()

	event := domain.Event{Type: domain.EventHeartbeat, Data: domain.HeartbeatPayload{
		Timestamp:   h.clock.Now(),
		OnlineCount: h.registry.OnlineCount(),
	}}

	for _, conn := range h.registry.All() {
		if err := conn.Send(event); err != nil {
			// The read loop reaps dead connections; a failed heartbeat
			// send is not its own eviction path.
			slog.Debug("Heartbeat send failed",
				"connection_id", conn.ID.String(),
				"error", err,
			)
		}
	}
}

// Stop terminates the tick loop and waits for it to exit.
func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	h.wg.Wait()
}
