package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 25 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 32
)

var (
	errWriterClosed   = errors.New("connection writer closed")
	errSendBufferFull = errors.New("send buffer full")
)

// clientWriter owns all writes to one WebSocket connection. Events queue on
// a bounded channel drained by a single goroutine, so a slow client fills
// its own buffer and fails its own sends without blocking anyone else.
// Protocol-level pings refresh the read deadline via the pong handler and
// reap silently dead transports.
type clientWriter struct {
	connection *websocket.Conn
	clock      clockwork.Clock
	sendCh     chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func newClientWriter(connection *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		connection: connection,
		clock:      clock,
		sendCh:     make(chan []byte, messageBufferSize),
		done:       make(chan struct{}),
	}
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

// Send queues an event for delivery. Returns an error when the writer is
// stopped or the client is too slow to drain its buffer; the caller decides
// whether that evicts the connection.
func (cw *clientWriter) Send(event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case <-cw.done:
		return errWriterClosed
	default:
	}

	select {
	case cw.sendCh <- data:
		return nil
	case <-cw.done:
		return errWriterClosed
	default:
		return errSendBufferFull
	}
}

// Close sends a close frame with the given reason and tears down the
// transport. Safe to call more than once.
func (cw *clientWriter) Close(reason string) {
	cw.stopOnce.Do(func() {
		close(cw.done)

		// Wait for the run goroutine to exit before writing the close
		// frame; the websocket connection allows one writer at a time.
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case data, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) configurePongHandler() {
	cw.updateReadDeadline()
	cw.connection.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
}

func (cw *clientWriter) updateWriteDeadline() {
	_ = cw.connection.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}

func (cw *clientWriter) updateReadDeadline() {
	_ = cw.connection.SetReadDeadline(cw.clock.Now().Add(pongDeadline))
}
