package timers

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	kind  string
	seq   uint64
	timer clockwork.Timer
}

// Manager keeps at most one pending timer per room. Arming a new one stops
// whatever the room had pending.
type Manager struct {
	clock clockwork.Clock

	mu      sync.Mutex
	seq     uint64
	pending map[string]entry
}

func NewManager(clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{clock: clock, pending: make(map[string]entry)}
}

func (m *Manager) Arm(room, kind string, d time.Duration, fire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.pending[room]; ok {
		existing.timer.Stop()
	}
	m.seq++
	seq := m.seq
	t := m.clock.AfterFunc(d, func() {
		if !m.release(room, seq) {
			return
		}
		fire()
	})
	m.pending[room] = entry{kind: kind, seq: seq, timer: t}
}

// release drops the entry if it is still the one identified by seq.
func (m *Manager) release(room string, seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pending[room]
	if !ok || e.seq != seq {
		return false
	}
	delete(m.pending, room)
	return true
}

func (m *Manager) Cancel(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.pending[room]; ok {
		e.timer.Stop()
		delete(m.pending, room)
	}
}

func (m *Manager) Pending(room string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pending[room]
	return e.kind, ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for room, e := range m.pending {
		e.timer.Stop()
		delete(m.pending, room)
	}
}
