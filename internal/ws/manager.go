package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

const sendBuffer = 64

// client is the outbound half of one socket. Frames are written in order by a
// single writer goroutine draining send.
type client struct {
	id     string
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func newClient(id string) *client {
	return &client{id: id, send: make(chan []byte, sendBuffer)}
}

// enqueue reports false once the client is closed or too slow to keep up.
func (c *client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.closed = true
		close(c.send)
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

// Manager tracks live sockets and which rooms they listen to. It is the hub's
// Broadcaster.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*client
	rooms map[string]map[string]struct{}
	log   *zap.Logger
}

func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		conns: make(map[string]*client),
		rooms: make(map[string]map[string]struct{}),
		log:   log,
	}
}

func (m *Manager) register(c *client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c.id] = c
}

func (m *Manager) unregister(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conns[connID]; ok {
		c.close()
		delete(m.conns, connID)
	}
	for code, members := range m.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(m.rooms, code)
		}
	}
}

// Len returns the number of live connections.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

func (m *Manager) Subscribe(room, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conns[connID]; !ok {
		return
	}
	if m.rooms[room] == nil {
		m.rooms[room] = make(map[string]struct{})
	}
	m.rooms[room][connID] = struct{}{}
}

func (m *Manager) Broadcast(room, event string, payload any) {
	frame, err := json.Marshal(types.ServerMessage{Event: event, Data: payload})
	if err != nil {
		m.log.Error("marshal broadcast", zap.String("room", room), zap.String("event", event), zap.Error(err))
		return
	}

	m.mu.RLock()
	targets := make([]*client, 0, len(m.rooms[room]))
	for id := range m.rooms[room] {
		if c, ok := m.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range targets {
		m.deliver(c, event, frame)
	}
}

func (m *Manager) Send(connID, event string, payload any) {
	m.sendMessage(connID, types.ServerMessage{Event: event, Data: payload})
}

func (m *Manager) sendMessage(connID string, msg types.ServerMessage) {
	m.mu.RLock()
	c, ok := m.conns[connID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		m.log.Error("marshal message", zap.String("conn", connID), zap.String("event", msg.Event), zap.Error(err))
		return
	}
	m.deliver(c, msg.Event, frame)
}

func (m *Manager) deliver(c *client, event string, frame []byte) {
	if !c.enqueue(frame) {
		m.log.Warn("dropping slow client", zap.String("conn", c.id), zap.String("event", event))
	}
}
