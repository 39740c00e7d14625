// Package stream pushes tracker events to connected websocket clients.
//
// A single goroutine owns the client set and serves register, unregister,
// broadcast and stop commands. Each client gets its own writer goroutine
// with a small buffer; a client whose buffer is full is disconnected
// rather than allowed to stall the others.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	maxClients   = 100
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

var (
	// ErrTooManyClients is returned by Register when the hub is full.
	ErrTooManyClients = errors.New("too many stream clients")
	// ErrHubStopped is returned by Register after Stop.
	ErrHubStopped = errors.New("stream hub stopped")
)

// Event is one message pushed to stream clients.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	data []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdClientCount struct {
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg := <-cw.sendCh:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := cw.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

// stop ends the writer. Close waits for the peer's close frame, so it
// runs off the hub goroutine.
func (cw *clientWriter) stop(code websocket.StatusCode, reason string) {
	close(cw.done)
	go cw.conn.Close(code, reason)
}

// Hub fans tracker events out to websocket clients.
type Hub struct {
	cmdCh   chan hubCmd
	stopped chan struct{}
	clients map[*websocket.Conn]*clientWriter
	clock   clockwork.Clock
	log     zerolog.Logger
}

// NewHub creates a hub and starts its command loop.
func NewHub(clock clockwork.Clock, log zerolog.Logger) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		stopped: make(chan struct{}),
		clients: make(map[*websocket.Conn]*clientWriter),
		clock:   clock,
		log:     log.With().Str("component", "stream_hub").Logger(),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.conn, websocket.StatusNormalClosure, "")
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdClientCount:
			c.replyCh <- len(h.clients)
		case cmdStop:
			h.handleStop()
			close(h.stopped)
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if len(h.clients) >= maxClients {
		h.log.Warn().Int("max", maxClients).Msg("Rejecting stream client")
		c.errCh <- ErrTooManyClients
		return
	}
	h.clients[c.conn] = newClientWriter(c.conn)
	h.log.Debug().Int("clients", len(h.clients)).Msg("Stream client registered")
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	cw, ok := h.clients[conn]
	if !ok {
		return
	}
	cw.stop(code, reason)
	delete(h.clients, conn)
	h.log.Debug().Int("clients", len(h.clients)).Msg("Stream client unregistered")
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		select {
		case cw.sendCh <- c.data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		h.log.Warn().Msg("Disconnecting slow stream client")
		h.handleUnregister(conn, websocket.StatusPolicyViolation, "client too slow")
	}
}

func (h *Hub) handleStop() {
	for conn, cw := range h.clients {
		cw.stop(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
}

// send queues cmd unless the hub has stopped.
func (h *Hub) send(cmd hubCmd) bool {
	select {
	case <-h.stopped:
		return false
	case h.cmdCh <- cmd:
		return true
	}
}

// Register adds conn to the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	if !h.send(cmdRegister{conn: conn, errCh: errCh}) {
		return ErrHubStopped
	}
	select {
	case err := <-errCh:
		return err
	case <-h.stopped:
		return ErrHubStopped
	}
}

// Unregister removes conn and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.send(cmdUnregister{conn: conn})
}

// Publish broadcasts an event of eventType to every client.
func (h *Hub) Publish(eventType string, data interface{}) {
	msg, err := json.Marshal(h.NewEvent(eventType, data))
	if err != nil {
		h.log.Error().Err(err).Str("type", eventType).Msg("Failed to marshal stream event")
		return
	}
	h.send(cmdBroadcast{data: msg})
}

// NewEvent stamps data with the hub clock.
func (h *Hub) NewEvent(eventType string, data interface{}) Event {
	return Event{Type: eventType, Timestamp: h.clock.Now().UTC(), Data: data}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	if !h.send(cmdClientCount{replyCh: replyCh}) {
		return 0
	}
	select {
	case n := <-replyCh:
		return n
	case <-h.stopped:
		return 0
	}
}

// Stop closes every client and ends the command loop. Safe to call twice.
func (h *Hub) Stop() {
	h.send(cmdStop{})
	<-h.stopped
}
