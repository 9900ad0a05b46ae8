package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
	"github.com/DoyleJ11/trivia-rooms/internal/questions"
	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

const within = 2 * time.Second

type recorded struct {
	To      string // room code for broadcasts, connection id for sends
	Room    bool
	Event   string
	Payload any
}

type recorder struct {
	mu     sync.Mutex
	subs   map[string]map[string]bool
	events chan recorded
}

func newRecorder() *recorder {
	return &recorder{subs: map[string]map[string]bool{}, events: make(chan recorded, 1024)}
}

func (r *recorder) Subscribe(room, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[room] == nil {
		r.subs[room] = map[string]bool{}
	}
	r.subs[room][connID] = true
}

func (r *recorder) subscribed(room, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[room][connID]
}

func (r *recorder) Broadcast(room, event string, payload any) {
	r.events <- recorded{To: room, Room: true, Event: event, Payload: payload}
}

func (r *recorder) Send(connID, event string, payload any) {
	r.events <- recorded{To: connID, Event: event, Payload: payload}
}

type mirror struct {
	mu     sync.Mutex
	events []string
}

func (m *mirror) Publish(room, event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, room+"/"+event)
	return nil
}

func (m *mirror) Close() {}

func (m *mirror) seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func descriptors(n int) []engine.Descriptor {
	out := make([]engine.Descriptor, n)
	for i := range out {
		out[i] = engine.Descriptor{
			Question:      fmt.Sprintf("Question %d?", i+1),
			Choices:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "B",
		}
	}
	return out
}

func fixedSource(n int) questions.Source {
	return questions.SourceFunc(func(ctx context.Context, req questions.Request) ([]engine.Descriptor, error) {
		return descriptors(n), nil
	})
}

type harness struct {
	h     *Hub
	rec   *recorder
	clock *clockwork.FakeClock
}

func newHarness(t *testing.T, src questions.Source, tweak ...func(*Options)) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	opts := Options{
		Clock:             clock,
		Source:            src,
		Out:               rec,
		Logger:            zaptest.NewLogger(t),
		Settings:          engine.DefaultSettings(),
		GenerationTimeout: time.Second,
	}
	for _, f := range tweak {
		f(&opts)
	}
	h := NewHub(context.Background(), opts)
	t.Cleanup(func() {
		h.Inbox() <- ShutdownHub{}
		<-h.Done()
	})
	return &harness{h: h, rec: rec, clock: clock}
}

func (hs *harness) ask(t *testing.T, build func(chan<- types.Ack) HubMsg) types.Ack {
	t.Helper()
	ch := make(chan types.Ack, 1)
	hs.h.Inbox() <- build(ch)
	select {
	case ack := <-ch:
		return ack
	case <-time.After(within):
		t.Fatalf("timed out waiting for ack")
		return types.Ack{}
	}
}

func (hs *harness) room(t *testing.T, code string) *types.RoomSnapshot {
	t.Helper()
	ch := make(chan *types.RoomSnapshot, 1)
	hs.h.Inbox() <- GetRoom{Code: code, Reply: ch}
	select {
	case snap := <-ch:
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for room")
		return nil
	}
}

// expect skips events until one named event arrives.
func (hs *harness) expect(t *testing.T, event string) recorded {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case ev := <-hs.rec.events:
			if ev.Event == event {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", event)
			return recorded{}
		}
	}
}

func (hs *harness) expectNone(t *testing.T, event string, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case ev := <-hs.rec.events:
			if ev.Event == event {
				t.Fatalf("expected no %s, got %+v", event, ev.Payload)
			}
		case <-deadline:
			return
		}
	}
}

func (hs *harness) create(t *testing.T, connID, name string) string {
	t.Helper()
	ack := hs.ask(t, func(ch chan<- types.Ack) HubMsg { return CreateLobby{ConnID: connID, Name: name, Reply: ch} })
	require.True(t, ack.OK, ack.Error)
	return ack.LobbyCode
}

func (hs *harness) join(t *testing.T, code, connID, name string) {
	t.Helper()
	ack := hs.ask(t, func(ch chan<- types.Ack) HubMsg { return JoinLobby{ConnID: connID, Code: code, Name: name, Reply: ch} })
	require.True(t, ack.OK, ack.Error)
}

func (hs *harness) ready(t *testing.T, code, connID string) {
	t.Helper()
	ack := hs.ask(t, func(ch chan<- types.Ack) HubMsg { return ToggleReady{ConnID: connID, Code: code, Reply: ch} })
	require.NotNil(t, ack.IsReady, ack.Error)
	require.True(t, *ack.IsReady)
}

func (hs *harness) start(t *testing.T, code, connID string) types.Ack {
	t.Helper()
	return hs.ask(t, func(ch chan<- types.Ack) HubMsg { return StartGame{ConnID: connID, Code: code, Reply: ch} })
}

func (hs *harness) pick(t *testing.T, code, connID, topic string) types.Ack {
	t.Helper()
	return hs.ask(t, func(ch chan<- types.Ack) HubMsg {
		return PickTopic{ConnID: connID, Req: types.PickTopicRequest{LobbyCode: code, Topic: topic}, Reply: ch}
	})
}

func (hs *harness) submit(t *testing.T, code, connID, qid string, choice int) types.Ack {
	t.Helper()
	return hs.ask(t, func(ch chan<- types.Ack) HubMsg {
		return SubmitAnswer{ConnID: connID, Req: types.SubmitAnswerRequest{LobbyCode: code, QID: qid, ChoiceIndex: &choice}, Reply: ch}
	})
}

// readyRoom seats A (host) and B, both ready.
func (hs *harness) readyRoom(t *testing.T) string {
	t.Helper()
	code := hs.create(t, "A", "Ann")
	hs.join(t, code, "B", "Bo")
	hs.ready(t, code, "A")
	hs.ready(t, code, "B")
	return code
}

func (hs *harness) startedRoom(t *testing.T) string {
	t.Helper()
	code := hs.readyRoom(t)
	ack := hs.start(t, code, "A")
	require.True(t, ack.OK, ack.Error)
	hs.expect(t, types.EvtRequestTopics)
	// start-game ends with a lobby-update carrying the new state
	hs.expect(t, types.EvtLobbyUpdate)
	return code
}

func TestFullGame_TwoPlayers(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	code := hs.readyRoom(t)

	// start-game: game-started, then phase{topic, A}, then A alone is asked for topics
	ack := hs.start(t, code, "A")
	require.True(t, ack.OK, ack.Error)
	assert.Equal(t, code, ack.RoomCode)

	started := hs.expect(t, types.EvtGameStarted)
	assert.True(t, started.Room)
	assert.Equal(t, code, started.To)
	phase := hs.expect(t, types.EvtPhase).Payload.(types.PhaseUpdate)
	assert.Equal(t, "topic", phase.Phase)
	assert.Equal(t, "A", phase.PickerID)
	topics := hs.expect(t, types.EvtRequestTopics)
	assert.False(t, topics.Room)
	assert.Equal(t, "A", topics.To)

	// pick-topic: generating, then a five question round starting at turn 1
	ack = hs.pick(t, code, "A", "Science")
	require.True(t, ack.OK, ack.Error)
	phase = hs.expect(t, types.EvtPhase).Payload.(types.PhaseUpdate)
	assert.Equal(t, "generating", phase.Phase)

	for turn := 1; turn <= 5; turn++ {
		nq := hs.expect(t, types.EvtNewQuestion).Payload.(types.NewQuestion)
		assert.Equal(t, turn, nq.Question.Turn)
		assert.Len(t, nq.Question.Choices, 4)
		qid := nq.Question.QID

		// both answer before the timeout: finishes at once
		require.True(t, hs.submit(t, code, "A", qid, 1).OK)
		require.True(t, hs.submit(t, code, "B", qid, 0).OK)
		score := hs.expect(t, types.EvtScoreUpdate).Payload.(types.ScoreUpdate)
		assert.Equal(t, 1, score.CorrectIndex)
		assert.Equal(t, qid, score.QID)
		assert.Equal(t, turn, score.Leaderboard[0].Total)

		hs.clock.Advance(1500 * time.Millisecond)
	}

	over := hs.expect(t, types.EvtRoundOver).Payload.(types.RoundOver)
	assert.Equal(t, "B", over.NextPickerID)
	snap := hs.room(t, code)
	assert.Equal(t, "leaderboard", snap.Phase)
	assert.Equal(t, 5, snap.Players[0].Score, "scores mirror into the lobby view")

	hs.clock.Advance(3500 * time.Millisecond)
	phase = hs.expect(t, types.EvtPhase).Payload.(types.PhaseUpdate)
	assert.Equal(t, "topic", phase.Phase)
	assert.Equal(t, "B", phase.PickerID)
	assert.Equal(t, "B", hs.expect(t, types.EvtRequestTopics).To)

	// second round resolves by timeout only
	require.True(t, hs.pick(t, code, "B", "Movies").OK)
	for turn := 1; turn <= 5; turn++ {
		hs.expect(t, types.EvtNewQuestion)
		hs.clock.Advance(22 * time.Second)
		hs.expect(t, types.EvtScoreUpdate)
		hs.clock.Advance(1500 * time.Millisecond)
	}

	final := hs.expect(t, types.EvtGameOver).Payload.(types.GameOver)
	assert.Equal(t, []types.LeaderboardEntry{
		{ID: "A", Name: "Ann", Total: 5},
		{ID: "B", Name: "Bo", Total: 0},
	}, final.Final)
	phase = hs.expect(t, types.EvtPhase).Payload.(types.PhaseUpdate)
	assert.Equal(t, "over", phase.Phase)

	hs.clock.Advance(time.Minute)
	hs.expectNone(t, types.EvtPhase, 50*time.Millisecond)
	snap = hs.room(t, code)
	assert.Equal(t, "over", snap.State)
	assert.Empty(t, snap.PendingTimer)
	assert.Equal(t, []string{"A", "B"}, snap.Visited)
}

func TestStartGame_Rejections(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	code := hs.create(t, "A", "Ann")
	hs.join(t, code, "B", "Bo")
	hs.ready(t, code, "A")

	ack := hs.start(t, code, "A")
	assert.False(t, ack.OK)
	assert.Equal(t, "all players must be ready", ack.Error)

	ack = hs.start(t, code, "stranger")
	assert.Equal(t, "not in room", ack.Error)

	ack = hs.start(t, "NOPE", "A")
	assert.Equal(t, "room not found", ack.Error)
}

func TestCreateAndJoin_Rejections(t *testing.T) {
	hs := newHarness(t, fixedSource(5))

	ack := hs.ask(t, func(ch chan<- types.Ack) HubMsg { return CreateLobby{ConnID: "A", Name: " ", Reply: ch} })
	assert.Equal(t, "name is required", ack.Error)

	ack = hs.ask(t, func(ch chan<- types.Ack) HubMsg { return JoinLobby{ConnID: "B", Code: "ZZZZ", Name: "Bo", Reply: ch} })
	assert.Equal(t, "room not found", ack.Error)
}

func TestJoin_BroadcastsLobbyAndSubscribes(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	code := hs.create(t, "A", "Ann")
	hs.expect(t, types.EvtLobbyUpdate)

	hs.join(t, code, "B", "Bo")
	ev := hs.expect(t, types.EvtLobbyUpdate)
	players := ev.Payload.([]types.PlayerView)
	require.Len(t, players, 2)
	assert.Equal(t, 2, players[1].Seat)
	assert.True(t, players[0].IsHost)
	assert.True(t, hs.rec.subscribed(code, "B"))

	hs.h.Inbox() <- SyncLobby{ConnID: "C", Code: code}
	hs.expect(t, types.EvtLobbyUpdate)
	assert.True(t, hs.rec.subscribed(code, "C"))
}

func TestPickTopic_GenerationFailureRevertsAndRetries(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	src := questions.SourceFunc(func(ctx context.Context, req questions.Request) ([]engine.Descriptor, error) {
		if fail.Load() {
			return nil, errors.New("generator down")
		}
		return descriptors(req.Count), nil
	})
	hs := newHarness(t, src)
	code := hs.startedRoom(t)

	ack := hs.pick(t, code, "A", "Science")
	assert.False(t, ack.OK)
	assert.Equal(t, "question_build_failed", ack.Error)

	assert.Equal(t, "generating", hs.expect(t, types.EvtPhase).Payload.(types.PhaseUpdate).Phase)
	reverted := hs.expect(t, types.EvtPhase).Payload.(types.PhaseUpdate)
	assert.Equal(t, "topic", reverted.Phase)
	assert.Equal(t, "A", reverted.PickerID)
	assert.Equal(t, "question_build_failed", reverted.Error)

	fail.Store(false)
	require.True(t, hs.pick(t, code, "A", "Science").OK)
	hs.expect(t, types.EvtNewQuestion)
}

func TestPickTopic_MalformedRoundFails(t *testing.T) {
	src := questions.SourceFunc(func(ctx context.Context, req questions.Request) ([]engine.Descriptor, error) {
		qs := descriptors(5)
		qs[3].CorrectAnswer = "not a choice"
		return qs, nil
	})
	hs := newHarness(t, src)
	code := hs.startedRoom(t)

	ack := hs.pick(t, code, "A", "Science")
	assert.Equal(t, "question_build_failed", ack.Error)
	assert.Equal(t, "topic", hs.room(t, code).Phase)
}

func TestPickTopic_SourcePanicIsContained(t *testing.T) {
	src := questions.SourceFunc(func(ctx context.Context, req questions.Request) ([]engine.Descriptor, error) {
		panic("boom")
	})
	hs := newHarness(t, src)
	code := hs.startedRoom(t)

	ack := hs.pick(t, code, "A", "Science")
	assert.Equal(t, "question_build_failed", ack.Error)
}

func TestPickTopic_GenerationTimeout(t *testing.T) {
	src := questions.SourceFunc(func(ctx context.Context, req questions.Request) ([]engine.Descriptor, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	hs := newHarness(t, src, func(o *Options) { o.GenerationTimeout = 20 * time.Millisecond })
	code := hs.startedRoom(t)

	ack := hs.pick(t, code, "A", "Science")
	assert.Equal(t, "question_build_failed", ack.Error)
}

func TestPickTopic_Rejections(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	code := hs.readyRoom(t)

	assert.Equal(t, "invalid_state", hs.pick(t, code, "A", "Science").Error, "no game yet")

	require.True(t, hs.start(t, code, "A").OK)
	assert.Equal(t, "not the current picker", hs.pick(t, code, "B", "Science").Error)
	assert.Equal(t, "topic is required", hs.pick(t, code, "A", " ").Error)
}

func TestSubmitAnswer_Rejections(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	code := hs.startedRoom(t)

	assert.Equal(t, "invalid_state", hs.submit(t, code, "A", "nope", 0).Error, "no live question")

	require.True(t, hs.pick(t, code, "A", "Science").OK)
	qid := hs.expect(t, types.EvtNewQuestion).Payload.(types.NewQuestion).Question.QID

	assert.Equal(t, "invalid_state", hs.submit(t, code, "A", "stale", 0).Error)
	assert.Equal(t, "invalid_state", hs.submit(t, code, "stranger", qid, 0).Error)
	missing := hs.ask(t, func(ch chan<- types.Ack) HubMsg {
		return SubmitAnswer{ConnID: "A", Req: types.SubmitAnswerRequest{LobbyCode: code, QID: qid}, Reply: ch}
	})
	assert.Equal(t, "invalid_state", missing.Error, "choiceIndex omitted")

	// a repeat submission is acked but counts once
	require.True(t, hs.submit(t, code, "A", qid, 1).OK)
	require.True(t, hs.submit(t, code, "A", qid, 1).OK)
	hs.expectNone(t, types.EvtScoreUpdate, 30*time.Millisecond)

	hs.clock.Advance(22 * time.Second)
	score := hs.expect(t, types.EvtScoreUpdate).Payload.(types.ScoreUpdate)
	require.Len(t, score.Leaderboard, 1)
	assert.Equal(t, 1, score.Leaderboard[0].Total)

	assert.Equal(t, "invalid_state", hs.submit(t, code, "B", qid, 1).Error, "closed after reveal")
}

func TestDisconnect_RecountFinishesQuestion(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	code := hs.startedRoom(t)
	require.True(t, hs.pick(t, code, "A", "Science").OK)
	qid := hs.expect(t, types.EvtNewQuestion).Payload.(types.NewQuestion).Question.QID

	require.True(t, hs.submit(t, code, "A", qid, 1).OK)
	hs.h.Inbox() <- Disconnect{ConnID: "B"}

	players := hs.expect(t, types.EvtLobbyUpdate).Payload.([]types.PlayerView)
	assert.False(t, players[1].Connected)
	score := hs.expect(t, types.EvtScoreUpdate).Payload.(types.ScoreUpdate)
	assert.Equal(t, qid, score.QID)
}

func TestDisconnectedPicker_HostStandsIn(t *testing.T) {
	hs := newHarness(t, fixedSource(1), func(o *Options) { o.Settings.RoundQuestions = 1 })
	code := hs.startedRoom(t)

	require.True(t, hs.pick(t, code, "A", "Science").OK)
	hs.expect(t, types.EvtNewQuestion)
	hs.clock.Advance(22 * time.Second)
	hs.expect(t, types.EvtScoreUpdate)
	hs.clock.Advance(1500 * time.Millisecond)
	hs.expect(t, types.EvtRoundOver)
	hs.clock.Advance(3500 * time.Millisecond)
	assert.Equal(t, "B", hs.expect(t, types.EvtPhase).Payload.(types.PhaseUpdate).PickerID)

	hs.h.Inbox() <- Disconnect{ConnID: "B"}
	require.True(t, hs.pick(t, code, "A", "History").OK)
	hs.expect(t, types.EvtNewQuestion)
	hs.clock.Advance(22 * time.Second)
	hs.expect(t, types.EvtScoreUpdate)
	hs.clock.Advance(1500 * time.Millisecond)

	hs.expect(t, types.EvtGameOver)
	assert.Equal(t, []string{"A", "B"}, hs.room(t, code).Visited)
}

func TestSyncGame_RedeliversLiveQuestion(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	code := hs.startedRoom(t)
	require.True(t, hs.pick(t, code, "A", "Science").OK)
	qid := hs.expect(t, types.EvtNewQuestion).Payload.(types.NewQuestion).Question.QID

	hs.h.Inbox() <- SyncGame{ConnID: "C", Code: code}
	phase := hs.expect(t, types.EvtPhase)
	assert.Equal(t, "C", phase.To)
	assert.Equal(t, "question", phase.Payload.(types.PhaseUpdate).Phase)
	nq := hs.expect(t, types.EvtNewQuestion)
	assert.Equal(t, "C", nq.To)
	assert.Equal(t, qid, nq.Payload.(types.NewQuestion).Question.QID)
	assert.True(t, hs.rec.subscribed(code, "C"))
}

func TestStartGame_RestartReplacesSession(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	code := hs.startedRoom(t)
	require.True(t, hs.pick(t, code, "A", "Science").OK)
	hs.expect(t, types.EvtNewQuestion)

	require.True(t, hs.start(t, code, "B").OK)
	snap := hs.room(t, code)
	assert.Equal(t, "topic", snap.Phase)
	assert.Equal(t, 0, snap.Round)
	assert.Empty(t, snap.PendingTimer, "old question timer cancelled")

	hs.clock.Advance(22 * time.Second)
	hs.expectNone(t, types.EvtScoreUpdate, 30*time.Millisecond)
}

func TestStartGame_RestartDropsInFlightGeneration(t *testing.T) {
	release := map[string]chan struct{}{"Old": make(chan struct{}), "New": make(chan struct{})}
	src := questions.SourceFunc(func(ctx context.Context, req questions.Request) ([]engine.Descriptor, error) {
		select {
		case <-release[req.Topic]:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		qs := descriptors(req.Count)
		for i := range qs {
			qs[i].Question = req.Topic + " question"
		}
		return qs, nil
	})
	hs := newHarness(t, src, func(o *Options) { o.GenerationTimeout = 10 * time.Second })
	code := hs.startedRoom(t)

	oldAck := make(chan types.Ack, 1)
	hs.h.Inbox() <- PickTopic{ConnID: "A", Req: types.PickTopicRequest{LobbyCode: code, Topic: "Old"}, Reply: oldAck}
	hs.expect(t, types.EvtPhase)

	require.True(t, hs.start(t, code, "A").OK)
	assert.Equal(t, "invalid_state", (<-oldAck).Error, "pending pick answered by the restart")
	hs.expect(t, types.EvtRequestTopics)
	hs.expect(t, types.EvtLobbyUpdate)

	newAck := make(chan types.Ack, 1)
	hs.h.Inbox() <- PickTopic{ConnID: "A", Req: types.PickTopicRequest{LobbyCode: code, Topic: "New"}, Reply: newAck}
	hs.expect(t, types.EvtPhase)

	// the abandoned round finishes first and must not land in the new game
	close(release["Old"])
	hs.expectNone(t, types.EvtNewQuestion, 50*time.Millisecond)
	assert.Equal(t, "generating", hs.room(t, code).Phase)
	select {
	case ack := <-newAck:
		t.Fatalf("new pick acked by the old round: %+v", ack)
	default:
	}

	close(release["New"])
	nq := hs.expect(t, types.EvtNewQuestion).Payload.(types.NewQuestion)
	assert.Equal(t, "New question", nq.Question.Text)
	select {
	case ack := <-newAck:
		assert.True(t, ack.OK, ack.Error)
	case <-time.After(within):
		t.Fatal("timed out waiting for pick ack")
	}
}

func TestBroadcastsAreMirrored(t *testing.T) {
	m := &mirror{}
	hs := newHarness(t, fixedSource(5), func(o *Options) { o.Publisher = m })
	code := hs.startedRoom(t)

	assert.Contains(t, m.seen(), code+"/"+types.EvtGameStarted)
	assert.Contains(t, m.seen(), code+"/"+types.EvtLobbyUpdate)
	assert.NotContains(t, m.seen(), code+"/"+types.EvtRequestTopics, "direct sends stay private")
}

func TestSweep_EvictsIdleRooms(t *testing.T) {
	hs := newHarness(t, fixedSource(5), func(o *Options) {
		o.RoomTTL = 30 * time.Minute
		o.SweepInterval = time.Minute
	})
	code := hs.create(t, "A", "Ann")
	hs.h.Inbox() <- Disconnect{ConnID: "A"}
	require.NotNil(t, hs.room(t, code))

	ctx, cancel := context.WithTimeout(context.Background(), within)
	defer cancel()
	require.NoError(t, hs.clock.BlockUntilContext(ctx, 1))

	start := hs.clock.Now()
	deadline := time.Now().Add(within)
	for hs.room(t, code) != nil {
		require.True(t, time.Now().Before(deadline), "room was not evicted")
		hs.clock.Advance(time.Minute)
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, hs.clock.Since(start), 30*time.Minute, "evicted only after the TTL")
}

func TestGetRoom_Unknown(t *testing.T) {
	hs := newHarness(t, fixedSource(5))
	assert.Nil(t, hs.room(t, "NOPE"))
}
