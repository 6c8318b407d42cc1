package ws

import (
	"sync"

	"github.com/SAMIHZS/mafia-game/internal/game"
	"github.com/rs/zerolog/log"
)

// conn is the part of socketio.Conn the hub needs.
type conn interface {
	ID() string
	Emit(event string, v ...interface{})
}

// grouper is implemented by socketio.Conn; the hub mirrors group changes into
// Socket.IO rooms when the connection supports them.
type grouper interface {
	Join(room string)
	Leave(room string)
}

// Hub tracks live connections and room membership. It implements
// game.Channel and never calls back into a session.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]conn
	members map[string]map[string]conn // roomCode -> socketID -> conn
}

func NewHub() *Hub {
	return &Hub{
		conns:   make(map[string]conn),
		members: make(map[string]map[string]conn),
	}
}

var _ game.Channel = (*Hub)(nil)

func (h *Hub) register(c conn) {
	h.mu.Lock()
	h.conns[c.ID()] = c
	h.mu.Unlock()
}

// unregister drops the connection from every room it was in.
func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
	for code, m := range h.members {
		delete(m, id)
		if len(m) == 0 {
			delete(h.members, code)
		}
	}
}

func (h *Hub) Send(connID string, msg game.Message) {
	h.mu.RLock()
	c := h.conns[connID]
	h.mu.RUnlock()
	if c == nil {
		log.Debug().Str("sid", connID).Str("event", msg.Event()).Msg("send to unknown connection")
		return
	}
	c.Emit(msg.Event(), msg)
}

func (h *Hub) Broadcast(room string, msg game.Message, except ...string) {
	h.mu.RLock()
	targets := make([]conn, 0, len(h.members[room]))
	for id, c := range h.members[room] {
		if !contains(except, id) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.Emit(msg.Event(), msg)
	}
}

func (h *Hub) JoinGroup(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.conns[connID]
	if c == nil {
		return
	}
	if h.members[room] == nil {
		h.members[room] = make(map[string]conn)
	}
	h.members[room][connID] = c
	if g, ok := c.(grouper); ok {
		g.Join(room)
	}
}

func (h *Hub) LeaveGroup(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.members[room]
	if m == nil {
		return
	}
	if c := m[connID]; c != nil {
		if g, ok := c.(grouper); ok {
			g.Leave(room)
		}
	}
	delete(m, connID)
	if len(m) == 0 {
		delete(h.members, room)
	}
}

// Members returns the connection IDs in room.
func (h *Hub) Members(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.members[room]))
	for id := range h.members[room] {
		ids = append(ids, id)
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
