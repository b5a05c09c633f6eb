package engine

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Sri-Express/Backend-sub004/internal/metrics"
)

// Registry tracks live connections, the per-user presence index, and each
// connection's joined channel set. All mutations are serialized by a single
// lock; reads hand out point-in-time snapshots that may be stale by the time
// the caller acts on them. That race is accepted: dispatch enumeration may
// skip a connection admitted mid-flight, and a connection removed during
// enumeration fails only its own send.
type Registry struct {
	mu       sync.RWMutex
	conns    map[uuid.UUID]*Connection
	presence map[string]map[uuid.UUID]struct{}
	channels map[uuid.UUID]map[string]struct{}
	metrics  *metrics.EngineMetrics
}

func NewRegistry(m *metrics.EngineMetrics) *Registry {
	return &Registry{
		conns:    make(map[uuid.UUID]*Connection),
		presence: make(map[string]map[uuid.UUID]struct{}),
		channels: make(map[uuid.UUID]map[string]struct{}),
		metrics:  m,
	}
}

// Register inserts a connection with its initial channel set and appends it
// to the owning user's presence entry. The caller transitions the
// connection to Active once admission work (snapshot delivery) finishes.
func (r *Registry) Register(c *Connection, channels []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[c.ID] = c

	set, ok := r.presence[c.UserID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		r.presence[c.UserID] = set
	}
	set[c.ID] = struct{}{}

	joined := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		joined[ch] = struct{}{}
	}
	r.channels[c.ID] = joined

	r.metrics.ConnectionsTotal.Inc()
	r.metrics.ActiveConnections.Set(float64(len(r.conns)))
	r.metrics.OnlineUsers.Set(float64(len(r.presence)))

	slog.Debug("Connection registered",
		"connection_id", c.ID.String(),
		"user_id", c.UserID,
		"role", c.Role,
		"user_connections", len(set),
	)
}

// Unregister removes a connection and prunes the user's presence entry when
// it becomes empty. Returns the removed connection, or false if the id is
// unknown (already removed by a concurrent path).
func (r *Registry) Unregister(id uuid.UUID) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return nil, false
	}

	delete(r.conns, id)
	delete(r.channels, id)

	if set, ok := r.presence[c.UserID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.presence, c.UserID)
		}
	}

	c.Transition(StateClosing)

	r.metrics.ActiveConnections.Set(float64(len(r.conns)))
	r.metrics.OnlineUsers.Set(float64(len(r.presence)))

	slog.Debug("Connection unregistered",
		"connection_id", id.String(),
		"user_id", c.UserID,
	)
	return c, true
}

// ConnectionsForUser returns a snapshot of the user's connection ids.
func (r *Registry) ConnectionsForUser(userID string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.presence[userID]
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) IsUserOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.presence[userID]
	return ok
}

// All returns a snapshot of every live connection.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// OnlineCount returns the number of distinct users currently online.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.presence)
}

// ConnectionCount returns the number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Join adds the connection to a channel. Joining an already-joined channel
// is a no-op, as is joining for an unknown connection id.
func (r *Registry) Join(id uuid.UUID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined, ok := r.channels[id]
	if !ok {
		return
	}
	joined[channel] = struct{}{}
}

// Leave removes the connection from a channel. Leaving an unjoined channel
// is a no-op.
func (r *Registry) Leave(id uuid.UUID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined, ok := r.channels[id]
	if !ok {
		return
	}
	delete(joined, channel)
}

// MembersOf returns a snapshot of the connections joined to a channel,
// evaluated at call time.
func (r *Registry) MembersOf(channel string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var members []*Connection
	for id, joined := range r.channels {
		if _, ok := joined[channel]; ok {
			if c, live := r.conns[id]; live {
				members = append(members, c)
			}
		}
	}
	return members
}

// ChannelCount returns how many channels the connection has joined.
// Used by the request_stats action.
func (r *Registry) ChannelCount(id uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[id])
}
