package hub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
	"github.com/DoyleJ11/trivia-rooms/internal/lobby"
	"github.com/DoyleJ11/trivia-rooms/internal/publish"
	"github.com/DoyleJ11/trivia-rooms/internal/questions"
	"github.com/DoyleJ11/trivia-rooms/internal/timers"
	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

const ackInvalidState = "invalid_state"

// Broadcaster delivers events to connections. Subscribe puts a connection in a
// room's audience.
type Broadcaster interface {
	Subscribe(room, connID string)
	Broadcast(room, event string, payload any)
	Send(connID, event string, payload any)
}

type Options struct {
	Clock             clockwork.Clock
	Source            questions.Source
	Out               Broadcaster
	Publisher         publish.Publisher
	Logger            *zap.Logger
	Settings          engine.Settings
	GenerationTimeout time.Duration
	RoomTTL           time.Duration
	SweepInterval     time.Duration // zero disables eviction
}

type pendingPick struct {
	epoch int
	reply chan<- types.Ack
}

// Hub is the single owner of every room and game session. All state changes
// happen on its loop goroutine.
type Hub struct {
	inbox    chan HubMsg
	rooms    *lobby.Registry
	sessions map[string]engine.Session
	pending  map[string]pendingPick
	timers   *timers.Manager
	// highest generation epoch issued to any session; new sessions start above it
	epoch    int

	clock      clockwork.Clock
	source     questions.Source
	out        Broadcaster
	pub        publish.Publisher
	log        *zap.Logger
	settings   engine.Settings
	genTimeout time.Duration
	roomTTL    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Publisher == nil {
		opts.Publisher = publish.Nop{}
	}
	if opts.Settings.RoundQuestions <= 0 {
		opts.Settings = engine.DefaultSettings()
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 45 * time.Second
	}
	if opts.Source == nil {
		opts.Source = questions.SourceFunc(func(context.Context, questions.Request) ([]engine.Descriptor, error) {
			return nil, questions.ErrNoSource
		})
	}

	h := &Hub{
		inbox:      make(chan HubMsg, 64),
		rooms:      lobby.NewRegistry(opts.Clock),
		sessions:   make(map[string]engine.Session),
		pending:    make(map[string]pendingPick),
		timers:     timers.NewManager(opts.Clock),
		clock:      opts.Clock,
		source:     opts.Source,
		out:        opts.Out,
		pub:        opts.Publisher,
		log:        opts.Logger,
		settings:   opts.Settings,
		genTimeout: opts.GenerationTimeout,
		roomTTL:    opts.RoomTTL,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go h.loop()
	if opts.SweepInterval > 0 && opts.RoomTTL > 0 {
		go h.sweeper(opts.SweepInterval)
	}
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the loop has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

// post delivers an internal message unless the hub is shutting down.
func (h *Hub) post(m HubMsg) {
	select {
	case h.inbox <- m:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			h.handle(m)
		}
	}
}

func (h *Hub) sweeper(every time.Duration) {
	ticker := h.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.Chan():
			h.post(sweep{})
		}
	}
}

func (h *Hub) shutdown() {
	h.timers.Stop()
	for code, p := range h.pending {
		reply(p.reply, types.Ack{Error: ackInvalidState})
		delete(h.pending, code)
	}
}

func (h *Hub) handle(m HubMsg) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("hub message panicked",
				zap.String("msg", fmt.Sprintf("%T", m)),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	switch msg := m.(type) {
	case CreateLobby:
		rm, err := h.rooms.Create(msg.Name, msg.ConnID)
		if err != nil {
			h.log.Info("create-lobby rejected", zap.String("conn", msg.ConnID), zap.Error(err))
			reply(msg.Reply, types.Ack{Error: err.Error()})
			break
		}
		h.log.Info("lobby created", zap.String("room", rm.Code), zap.String("conn", msg.ConnID))
		h.subscribe(rm.Code, msg.ConnID)
		h.broadcastLobby(rm.Code)
		reply(msg.Reply, types.Ack{OK: true, LobbyCode: rm.Code})

	case JoinLobby:
		rm, err := h.rooms.Join(msg.Code, msg.Name, msg.ConnID)
		if err != nil {
			h.log.Info("join-lobby rejected", zap.String("room", msg.Code), zap.String("conn", msg.ConnID), zap.Error(err))
			reply(msg.Reply, types.Ack{Error: err.Error()})
			break
		}
		h.log.Info("joined lobby", zap.String("room", rm.Code), zap.String("conn", msg.ConnID), zap.Int("players", len(rm.Order)))
		h.subscribe(rm.Code, msg.ConnID)
		h.broadcastLobby(rm.Code)
		reply(msg.Reply, types.Ack{OK: true, LobbyCode: rm.Code})

	case SyncLobby:
		rm, ok := h.rooms.Get(msg.Code)
		if !ok {
			h.log.Warn("sync-lobby for unknown room", zap.String("room", msg.Code))
			break
		}
		h.subscribe(rm.Code, msg.ConnID)
		h.broadcastLobby(rm.Code)

	case ToggleReady:
		ready, err := h.rooms.ToggleReady(msg.Code, msg.ConnID)
		if err != nil {
			reply(msg.Reply, types.Ack{Error: err.Error()})
			break
		}
		h.broadcastLobby(msg.Code)
		reply(msg.Reply, types.Ack{OK: true, IsReady: &ready})

	case StartGame:
		h.startGame(msg)

	case PickTopic:
		h.pickTopic(msg)

	case SubmitAnswer:
		h.submitAnswer(msg)

	case SyncGame:
		code := normalize(msg.Code)
		sess, ok := h.sessions[code]
		if !ok {
			break
		}
		h.subscribe(code, msg.ConnID)
		effects, _, _ := engine.Apply(sess, engine.Sync{ConnID: msg.ConnID}, h.clock.Now())
		h.exec(code, effects)

	case Disconnect:
		h.disconnect(msg.ConnID)

	case timerFired:
		h.apply(msg.Code, engine.TimerFired{Kind: msg.Kind, Token: msg.Token})

	case questionsReady:
		h.questionsReady(msg)

	case sweep:
		h.evictIdle()

	case GetRoom:
		msg.Reply <- h.snapshot(msg.Code) // May be nil

	case ShutdownHub:
		h.cancel()
	}
}

func (h *Hub) startGame(msg StartGame) {
	rm, ok := h.rooms.Get(msg.Code)
	if !ok {
		reply(msg.Reply, types.Ack{Error: lobby.ErrRoomNotFound.Error()})
		return
	}
	if !rm.Has(msg.ConnID) {
		reply(msg.Reply, types.Ack{Error: lobby.ErrNotInRoom.Error()})
		return
	}
	host, err := h.rooms.StartGame(rm.Code)
	if err != nil {
		h.log.Info("start-game rejected", zap.String("room", rm.Code), zap.Error(err))
		reply(msg.Reply, types.Ack{Error: err.Error()})
		return
	}

	// A restart replaces the previous session outright.
	h.timers.Cancel(rm.Code)
	if p, ok := h.pending[rm.Code]; ok {
		reply(p.reply, types.Ack{Error: ackInvalidState})
		delete(h.pending, rm.Code)
	}

	sess, effects, err := engine.Start(rm.Code, rm.ConnectedIDs(), host.ID, rm.Names(), h.settings)
	if err != nil {
		reply(msg.Reply, types.Ack{Error: err.Error()})
		return
	}
	sess.Epoch = h.epoch
	h.sessions[rm.Code] = sess
	h.log.Info("game started",
		zap.String("room", rm.Code),
		zap.Int("host_seat", host.Seat),
		zap.Strings("picker_order", sess.PickerOrder))

	h.exec(rm.Code, effects)
	h.syncRoom(rm.Code)
	h.broadcastLobby(rm.Code)
	reply(msg.Reply, types.Ack{OK: true, RoomCode: rm.Code})
}

func (h *Hub) pickTopic(msg PickTopic) {
	code := normalize(msg.Req.LobbyCode)
	sess, ok := h.sessions[code]
	rm, roomOK := h.rooms.Get(code)
	if !ok || !roomOK {
		reply(msg.Reply, types.Ack{Error: ackInvalidState})
		return
	}

	cmd := engine.PickTopic{
		ConnID:          msg.ConnID,
		Topic:           msg.Req.Topic,
		Difficulty:      msg.Req.Difficulty,
		Force:           msg.Req.ForceGenerate,
		SpeedMs:         msg.Req.SpeedMs,
		PickerConnected: isConnected(rm, sess.Picker()),
	}
	if host := rm.Host(); host != nil {
		cmd.HostID = host.ID
	}

	effects, next, err := engine.Apply(sess, cmd, h.clock.Now())
	if err != nil {
		h.log.Info("pick-topic rejected", zap.String("room", code), zap.String("conn", msg.ConnID), zap.Error(err))
		reply(msg.Reply, types.Ack{Error: err.Error()})
		return
	}
	h.sessions[code] = next
	if next.Epoch > h.epoch {
		h.epoch = next.Epoch
	}
	// Acked once the round is built or has failed.
	h.pending[code] = pendingPick{epoch: next.Epoch, reply: msg.Reply}
	h.log.Info("topic picked",
		zap.String("room", code),
		zap.String("topic", next.Topic),
		zap.String("difficulty", next.Difficulty),
		zap.Bool("force", msg.Req.ForceGenerate))

	h.exec(code, effects)
	h.syncRoom(code)
}

func (h *Hub) questionsReady(msg questionsReady) {
	sess, ok := h.sessions[msg.Code]
	if !ok {
		return
	}
	effects, next, err := engine.Apply(sess, engine.QuestionsReady{
		Epoch:       msg.Epoch,
		Descriptors: msg.Descriptors,
		Err:         msg.Err,
	}, h.clock.Now())
	if errors.Is(err, engine.ErrStaleResult) {
		h.log.Debug("dropping stale question result", zap.String("room", msg.Code), zap.Int("epoch", msg.Epoch))
		return
	}
	h.sessions[msg.Code] = next
	h.exec(msg.Code, effects)
	h.syncRoom(msg.Code)

	ack := types.Ack{OK: true}
	if err != nil {
		h.log.Warn("question round failed",
			zap.String("room", msg.Code),
			zap.Int("received", len(msg.Descriptors)),
			zap.NamedError("source_error", msg.Err),
			zap.Error(err))
		ack = types.Ack{Error: engine.ErrQuestionBuild.Error()}
	}
	if p, ok := h.pending[msg.Code]; ok && p.epoch == msg.Epoch {
		reply(p.reply, ack)
		delete(h.pending, msg.Code)
	}
}

func (h *Hub) submitAnswer(msg SubmitAnswer) {
	code := normalize(msg.Req.LobbyCode)
	sess, ok := h.sessions[code]
	rm, roomOK := h.rooms.Get(code)
	if !ok || !roomOK || !rm.Has(msg.ConnID) {
		reply(msg.Reply, types.Ack{Error: ackInvalidState})
		return
	}
	if msg.Req.ChoiceIndex == nil {
		reply(msg.Reply, types.Ack{Error: ackInvalidState})
		return
	}
	effects, next, err := engine.Apply(sess, engine.SubmitAnswer{
		ConnID:      msg.ConnID,
		QID:         msg.Req.QID,
		ChoiceIndex: *msg.Req.ChoiceIndex,
		Connected:   rm.ConnectedIDs(),
	}, h.clock.Now())
	if err != nil {
		h.log.Debug("submit-answer rejected", zap.String("room", code), zap.String("conn", msg.ConnID), zap.Error(err))
		reply(msg.Reply, types.Ack{Error: ackInvalidState})
		return
	}
	h.sessions[code] = next
	h.exec(code, effects)
	h.syncRoom(code)
	reply(msg.Reply, types.Ack{OK: true})
}

func (h *Hub) disconnect(connID string) {
	for _, code := range h.rooms.Disconnect(connID) {
		h.log.Info("player disconnected", zap.String("room", code), zap.String("conn", connID))
		h.broadcastLobby(code)
		if _, ok := h.sessions[code]; !ok {
			continue
		}
		rm, _ := h.rooms.Get(code)
		h.apply(code, engine.Recount{Connected: rm.ConnectedIDs()})
	}
}

// apply runs a session command whose errors only mean "nothing to do".
func (h *Hub) apply(code string, cmd engine.Command) {
	sess, ok := h.sessions[code]
	if !ok {
		return
	}
	effects, next, err := engine.Apply(sess, cmd, h.clock.Now())
	if err != nil {
		h.log.Debug("command ignored", zap.String("room", code), zap.String("cmd", fmt.Sprintf("%T", cmd)), zap.Error(err))
		return
	}
	h.sessions[code] = next
	h.exec(code, effects)
	h.syncRoom(code)
	if next.Phase == engine.PhaseOver && sess.Phase != engine.PhaseOver {
		h.log.Info("game over", zap.String("room", code), zap.Int("rounds", next.Round))
	}
}

func (h *Hub) exec(code string, effects []engine.Effect) {
	for _, e := range effects {
		switch eff := e.(type) {
		case engine.Broadcast:
			h.broadcast(code, eff.Event, eff.Payload)

		case engine.SendTo:
			if h.out != nil {
				h.out.Send(eff.ConnID, eff.Event, eff.Payload)
			}

		case engine.ArmTimer:
			kind, token := eff.Kind, eff.Token
			h.timers.Arm(code, string(kind), eff.After, func() {
				h.post(timerFired{Code: code, Kind: kind, Token: token})
			})

		case engine.CancelTimers:
			h.timers.Cancel(code)

		case engine.RequestQuestions:
			h.requestQuestions(code, eff)
		}
	}
}

// requestQuestions calls the source off the loop and posts the result back.
func (h *Hub) requestQuestions(code string, req engine.RequestQuestions) {
	ctx, cancel := context.WithTimeout(h.ctx, h.genTimeout)
	go func() {
		defer cancel()
		var (
			qs  []engine.Descriptor
			err error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("question source panicked: %v", r)
				}
			}()
			qs, err = h.source.Generate(ctx, questions.Request{
				Topic:      req.Topic,
				Difficulty: req.Difficulty,
				Force:      req.Force,
				Count:      req.Count,
			})
		}()
		h.post(questionsReady{Code: code, Epoch: req.Epoch, Descriptors: qs, Err: err})
	}()
}

func (h *Hub) evictIdle() {
	for _, code := range h.rooms.Sweep(h.clock.Now(), h.roomTTL) {
		h.timers.Cancel(code)
		delete(h.sessions, code)
		if p, ok := h.pending[code]; ok {
			reply(p.reply, types.Ack{Error: ackInvalidState})
			delete(h.pending, code)
		}
		h.log.Info("evicted idle room", zap.String("room", code))
	}
}

func (h *Hub) syncRoom(code string) {
	sess, ok := h.sessions[code]
	if !ok {
		return
	}
	h.rooms.SetState(code, lobby.State(sess.Phase))
	h.rooms.SetScores(code, sess.Totals.Totals())
}

func (h *Hub) subscribe(code, connID string) {
	if h.out != nil {
		h.out.Subscribe(code, connID)
	}
}

func (h *Hub) broadcastLobby(code string) {
	rm, ok := h.rooms.Get(code)
	if !ok {
		return
	}
	h.broadcast(rm.Code, types.EvtLobbyUpdate, rm.Snapshot())
}

func (h *Hub) broadcast(code, event string, payload any) {
	if h.out != nil {
		h.out.Broadcast(code, event, payload)
	}
	if err := h.pub.Publish(code, event, payload); err != nil {
		h.log.Warn("event mirror failed", zap.String("room", code), zap.String("event", event), zap.Error(err))
	}
}

func (h *Hub) snapshot(code string) *types.RoomSnapshot {
	rm, ok := h.rooms.Get(code)
	if !ok {
		return nil
	}
	snap := &types.RoomSnapshot{
		Code:    rm.Code,
		State:   string(rm.State),
		Players: rm.Snapshot(),
	}
	if sess, ok := h.sessions[rm.Code]; ok {
		snap.Phase = string(sess.Phase)
		snap.PickerID = sess.Picker()
		snap.Round = sess.Round
		snap.Turn = sess.Turn
		for id := range sess.Visited {
			snap.Visited = append(snap.Visited, id)
		}
		sort.Strings(snap.Visited)
	}
	if kind, ok := h.timers.Pending(rm.Code); ok {
		snap.PendingTimer = kind
	}
	return snap
}

func isConnected(rm *lobby.Room, connID string) bool {
	p, ok := rm.Players[connID]
	return ok && p.Connected
}

// reply never blocks the loop; callers pass a buffered channel.
func reply(ch chan<- types.Ack, ack types.Ack) {
	if ch == nil {
		return
	}
	select {
	case ch <- ack:
	default:
	}
}
