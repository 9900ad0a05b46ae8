package lobby

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

var ErrRoomNotFound = errors.New("room not found")
var ErrInvalidName = errors.New("name is required")
var ErrInvalidCode = errors.New("lobby code is required")
var ErrNotInRoom = errors.New("not in room")
var ErrNeedPlayers = errors.New("need at least 1 player")
var ErrNotAllReady = errors.New("all players must be ready")

type State string

const (
	StateWaiting     State = "waiting"
	StateTopic       State = "topic"
	StateGenerating  State = "generating"
	StateQuestion    State = "question"
	StateLeaderboard State = "leaderboard"
	StateOver        State = "over"
)

// Player records are never deleted; a disconnect only clears Connected.
type Player struct {
	ID        string
	Name      string
	Seat      int
	Ready     bool
	Score     int
	Connected bool
}

func newPlayer(id, name string, seat int) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	return &Player{ID: id, Name: name, Seat: seat, Connected: true}, nil
}

type Room struct {
	Code       string
	Order      []string // connection ids in seat order
	HostIndex  int
	Players    map[string]*Player
	State      State
	LastActive time.Time
}

func (rm *Room) Host() *Player {
	if rm.HostIndex < 0 || rm.HostIndex >= len(rm.Order) {
		return nil
	}
	return rm.Players[rm.Order[rm.HostIndex]]
}

func (rm *Room) Has(connID string) bool {
	_, ok := rm.Players[connID]
	return ok
}

// EnsureConnectedHost walks the seats circularly from the current host and
// hands the host pointer to the first connected player.
func (rm *Room) EnsureConnectedHost() {
	n := len(rm.Order)
	if n == 0 {
		return
	}
	for i := 0; i < n; i++ {
		idx := (rm.HostIndex + i) % n
		if p := rm.Players[rm.Order[idx]]; p != nil && p.Connected {
			rm.HostIndex = idx
			return
		}
	}
}

func (rm *Room) ConnectedIDs() []string {
	out := make([]string, 0, len(rm.Order))
	for _, id := range rm.Order {
		if p := rm.Players[id]; p != nil && p.Connected {
			out = append(out, id)
		}
	}
	return out
}

func (rm *Room) Names() map[string]string {
	out := make(map[string]string, len(rm.Players))
	for id, p := range rm.Players {
		out[id] = p.Name
	}
	return out
}

func (rm *Room) Snapshot() []types.PlayerView {
	host := rm.Host()
	out := make([]types.PlayerView, 0, len(rm.Players))
	for _, p := range rm.Players {
		out = append(out, types.PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			IsHost:    host != nil && host.ID == p.ID,
			IsReady:   p.Ready,
			Score:     p.Score,
			Connected: p.Connected,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}

func (rm *Room) anyConnected() bool {
	for _, p := range rm.Players {
		if p.Connected {
			return true
		}
	}
	return false
}

// Registry owns every live room. It is not safe for concurrent use; the hub
// goroutine is its only caller.
type Registry struct {
	clock   clockwork.Clock
	rooms   map[string]*Room
	newCode func() (string, error)
}

func NewRegistry(clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		clock:   clock,
		rooms:   make(map[string]*Room),
		newCode: newJoinCode,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create opens a room and seats the creator as host.
func (r *Registry) Create(name, connID string) (*Room, error) {
	host, err := newPlayer(connID, name, 1)
	if err != nil {
		return nil, err
	}
	code, err := r.uniqueCode()
	if err != nil {
		return nil, err
	}
	rm := &Room{
		Code:       code,
		Order:      []string{connID},
		Players:    map[string]*Player{connID: host},
		State:      StateWaiting,
		LastActive: r.clock.Now(),
	}
	r.rooms[code] = rm
	return rm, nil
}

func (r *Registry) uniqueCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := r.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (r *Registry) Get(code string) (*Room, bool) {
	rm, ok := r.rooms[normalizeCode(code)]
	return rm, ok
}

func (r *Registry) Len() int { return len(r.rooms) }

// Join seats connID, or refreshes the existing seat on reconnect.
func (r *Registry) Join(code, name, connID string) (*Room, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}
	rm, ok := r.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	if p, ok := rm.Players[connID]; ok {
		p.Name = strings.TrimSpace(name)
		p.Connected = true
	} else {
		p, err := newPlayer(connID, name, len(rm.Order)+1)
		if err != nil {
			return nil, err
		}
		rm.Players[connID] = p
		rm.Order = append(rm.Order, connID)
	}
	rm.EnsureConnectedHost()
	rm.LastActive = r.clock.Now()
	return rm, nil
}

func (r *Registry) ToggleReady(code, connID string) (bool, error) {
	rm, ok := r.Get(code)
	if !ok {
		return false, ErrRoomNotFound
	}
	p, ok := rm.Players[connID]
	if !ok {
		return false, ErrNotInRoom
	}
	p.Ready = !p.Ready
	rm.LastActive = r.clock.Now()
	return p.Ready, nil
}

// StartGame moves the room to the topic phase and returns the host.
func (r *Registry) StartGame(code string) (*Player, error) {
	rm, ok := r.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !rm.anyConnected() {
		return nil, ErrNeedPlayers
	}
	for _, p := range rm.Players {
		if !p.Ready {
			return nil, ErrNotAllReady
		}
	}
	rm.State = StateTopic
	rm.EnsureConnectedHost()
	rm.LastActive = r.clock.Now()
	return rm.Host(), nil
}

// Disconnect marks connID disconnected everywhere and returns the affected room codes.
func (r *Registry) Disconnect(connID string) []string {
	var codes []string
	for code, rm := range r.rooms {
		p, ok := rm.Players[connID]
		if !ok {
			continue
		}
		p.Connected = false
		rm.EnsureConnectedHost()
		rm.LastActive = r.clock.Now()
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (r *Registry) SetState(code string, st State) {
	if rm, ok := r.Get(code); ok {
		rm.State = st
		rm.LastActive = r.clock.Now()
	}
}

func (r *Registry) SetScores(code string, totals map[string]int) {
	rm, ok := r.Get(code)
	if !ok {
		return
	}
	for id, total := range totals {
		if p := rm.Players[id]; p != nil {
			p.Score = total
		}
	}
}

// Sweep evicts rooms with nobody connected that have been idle for at least ttl.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) []string {
	var evicted []string
	for code, rm := range r.rooms {
		if rm.anyConnected() || now.Sub(rm.LastActive) < ttl {
			continue
		}
		delete(r.rooms, code)
		evicted = append(evicted, code)
	}
	sort.Strings(evicted)
	return evicted
}
