package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
)

// State tracks a connection through its lifecycle. Transitions only move
// forward; Closed is terminal and ids are never reused.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sender delivers events to a single transport session. Send must be safe
// for concurrent callers and must not block on a slow client; Close tears
// the transport down with a close reason.
type Sender interface {
	Send(event domain.Event) error
	Close(reason string)
}

// Connection is one live transport session. Identity fields are immutable
// after construction; state and lastSeen are guarded by mu.
type Connection struct {
	ID            uuid.UUID
	UserID        string
	Role          domain.Role
	DisplayName   string
	EstablishedAt time.Time

	sender Sender

	mu       sync.Mutex
	state    State
	lastSeen time.Time
}

// NewConnection creates a connection in the Authenticated state. A fresh id
// is minted on every connect, including reconnects of the same user.
func NewConnection(identity domain.Identity, sender Sender, now time.Time) *Connection {
	return &Connection{
		ID:            uuid.New(),
		UserID:        identity.ID,
		Role:          identity.Role,
		DisplayName:   identity.Name,
		EstablishedAt: now,
		sender:        sender,
		state:         StateAuthenticated,
		lastSeen:      now,
	}
}

// Send delivers an event over the connection's transport.
func (c *Connection) Send(event domain.Event) error {
	return c.sender.Send(event)
}

// Close tears down the transport with the given close reason.
func (c *Connection) Close(reason string) {
	c.sender.Close(reason)
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transition advances the state machine. Backward transitions are ignored,
// so concurrent close paths cannot resurrect a connection.
func (c *Connection) Transition(next State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if next > c.state {
		c.state = next
	}
}

// Touch records client activity for diagnostics.
func (c *Connection) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = now
}

func (c *Connection) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}
