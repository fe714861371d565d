// internal/server/hub.go
package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/game"
	"github.com/sirupsen/logrus"
)

// sendBuffer is the per-client outbound queue length. A client that falls
// this far behind loses messages rather than stalling the table.
const sendBuffer = 64

// client is one WebSocket connection's outbound side.
type client struct {
	playerID uuid.UUID
	mu       sync.Mutex
	send     chan []byte
	closed   bool
}

func newClient(playerID uuid.UUID) *client {
	return &client{playerID: playerID, send: make(chan []byte, sendBuffer)}
}

// enqueue queues msg without blocking. Returns false if it was dropped.
func (c *client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// hub fans table events out to the sockets of one table. Its callbacks run
// under the table lock, so they only queue.
type hub struct {
	tableID uuid.UUID
	log     logrus.FieldLogger

	mu      sync.RWMutex
	clients map[uuid.UUID]*client
}

func newHub(tbl *game.Table, log logrus.FieldLogger) *hub {
	h := &hub{
		tableID: tbl.ID,
		log:     log.WithField("table", tbl.ID),
		clients: make(map[uuid.UUID]*client),
	}
	tbl.SetBroadcasters(h.broadcast, h.sendTo)
	return h
}

// register attaches c, replacing and closing any earlier socket of the same player.
func (h *hub) register(c *client) {
	h.mu.Lock()
	old := h.clients[c.playerID]
	h.clients[c.playerID] = c
	h.mu.Unlock()
	if old != nil {
		old.close()
	}
}

// unregister detaches c if it is still the player's current socket.
// Reports whether it was.
func (h *hub) unregister(c *client) bool {
	h.mu.Lock()
	current := h.clients[c.playerID] == c
	if current {
		delete(h.clients, c.playerID)
	}
	h.mu.Unlock()
	c.close()
	return current
}

func (h *hub) broadcast(ev game.GameEvent) {
	msg, err := encode(string(ev.Type), ev)
	if err != nil {
		h.log.WithError(err).WithField("event", ev.Type).Error("encoding event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if !c.enqueue(msg) {
			h.log.WithFields(logrus.Fields{"player": id, "event": ev.Type}).Warn("client queue full, event dropped")
		}
	}
}

func (h *hub) sendTo(playerID uuid.UUID, ev game.GameEvent) {
	msg, err := encode(string(ev.Type), ev)
	if err != nil {
		h.log.WithError(err).WithField("event", ev.Type).Error("encoding event")
		return
	}
	h.mu.RLock()
	c := h.clients[playerID]
	h.mu.RUnlock()
	if c != nil && !c.enqueue(msg) {
		h.log.WithFields(logrus.Fields{"player": playerID, "event": ev.Type}).Warn("client queue full, event dropped")
	}
}
