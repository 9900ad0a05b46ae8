package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DoyleJ11/trivia-rooms/internal/scoring"
	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

var ErrWrongPhase = errors.New("invalid_state")
var ErrStaleQuestion = errors.New("stale question")
var ErrNotPicker = errors.New("not the current picker")
var ErrInvalidTopic = errors.New("topic is required")
var ErrInvalidChoice = errors.New("choice out of range")
var ErrNoPlayers = errors.New("no connected players")
var ErrQuestionBuild = errors.New("question_build_failed")
var ErrStaleResult = errors.New("stale generation result")
var ErrStaleTimer = errors.New("stale timer")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseTopic       Phase = "topic"
	PhaseGenerating  Phase = "generating"
	PhaseQuestion    Phase = "question"
	PhaseLeaderboard Phase = "leaderboard"
	PhaseOver        Phase = "over"
)

type TimerKind string

const (
	TimerQuestion    TimerKind = "question"
	TimerReveal      TimerKind = "reveal"
	TimerLeaderboard TimerKind = "leaderboard"
)

const DefaultDifficulty = "medium"

// speedMs values at or below this are ignored.
const minSpeedOverride = 3000 * time.Millisecond

type Settings struct {
	QuestionTime     time.Duration
	RevealDelay      time.Duration
	LeaderboardDelay time.Duration
	RoundQuestions   int
	Topics           []string
}

type Submission struct {
	ChoiceIndex int
	At          time.Time
}

type Session struct {
	RoomCode     string
	Phase        Phase
	PickerOrder  []string
	PickerCursor int
	Visited      map[string]bool
	Question     *Question
	Questions    []Question
	Turn         int
	Round        int
	Revealed     bool
	Submissions  map[string]Submission
	SubmitOrder  []string
	Totals       *scoring.Scoreboard
	Names        map[string]string
	Settings     Settings
	Topic        string
	Difficulty   string
	Epoch        int
	TimerToken   int
}

/*
	PickTopic      -> Broadcast phase{generating} -> RequestQuestions
	QuestionsReady -> start-question: ArmTimer{question} -> Broadcast newQuestion
	               or Broadcast phase{topic, error}
	SubmitAnswer   -> (everyone answered) finish-question
	Recount        -> (everyone still connected answered) finish-question
	TimerFired     -> question: finish-question -> ArmTimer{reveal} -> Broadcast scoreUpdate
	               -> reveal: next question, or roundOver/ArmTimer{leaderboard}, or gameOver
	               -> leaderboard: rotate -> Broadcast phase{topic} -> SendTo requestTopics
	Sync           -> SendTo phase (+ newQuestion while live)
*/

type Command interface{ isCommand() }

type PickTopic struct {
	ConnID          string
	Topic           string
	Difficulty      string
	Force           bool
	SpeedMs         int
	PickerConnected bool
	HostID          string
}

type QuestionsReady struct {
	Epoch       int
	Descriptors []Descriptor
	Err         error
}

type SubmitAnswer struct {
	ConnID      string
	QID         string
	ChoiceIndex int
	Connected   []string
}

type Recount struct {
	Connected []string
}

type TimerFired struct {
	Kind  TimerKind
	Token int
}

type Sync struct {
	ConnID string
}

func (PickTopic) isCommand()      {}
func (QuestionsReady) isCommand() {}
func (SubmitAnswer) isCommand()   {}
func (Recount) isCommand()        {}
func (TimerFired) isCommand()     {}
func (Sync) isCommand()           {}

type Effect interface{ isEffect() }

type Broadcast struct {
	Event   string
	Payload any
}

type SendTo struct {
	ConnID  string
	Event   string
	Payload any
}

// ArmTimer replaces whatever timer the room has pending.
type ArmTimer struct {
	Kind  TimerKind
	After time.Duration
	Token int
}

type CancelTimers struct{}

type RequestQuestions struct {
	Epoch      int
	Topic      string
	Difficulty string
	Force      bool
	Count      int
}

func (Broadcast) isEffect()        {}
func (SendTo) isEffect()           {}
func (ArmTimer) isEffect()         {}
func (CancelTimers) isEffect()     {}
func (RequestQuestions) isEffect() {}

// Start snapshots the connected seat order and hands the first pick to the host.
func Start(code string, order []string, hostID string, names map[string]string, settings Settings) (Session, []Effect, error) {
	if len(order) == 0 {
		return Session{}, nil, ErrNoPlayers
	}
	cursor := 0
	for i, id := range order {
		if id == hostID {
			cursor = i
			break
		}
	}
	s := Session{
		RoomCode:     code,
		Phase:        PhaseTopic,
		PickerOrder:  append([]string(nil), order...),
		PickerCursor: cursor,
		Visited:      map[string]bool{},
		Submissions:  map[string]Submission{},
		Totals:       scoring.NewScoreboard(),
		Names:        copyNames(names),
		Settings:     settings,
	}
	effects := []Effect{
		Broadcast{Event: types.EvtGameStarted, Payload: types.GameStarted{RoomCode: code}},
	}
	effects = append(effects, topicEffects(s, "")...)
	return s, effects, nil
}

func Apply(s Session, cmd Command, now time.Time) ([]Effect, Session, error) {
	if s.Phase == PhaseOver {
		if sync, ok := cmd.(Sync); ok {
			return syncEffects(s, sync.ConnID), s, nil
		}
		return nil, s, ErrWrongPhase
	}

	newState := s.clone()

	switch c := cmd.(type) {
	case PickTopic:
		if s.Phase != PhaseTopic {
			return nil, s, ErrWrongPhase
		}
		topic := strings.TrimSpace(c.Topic)
		if topic == "" {
			return nil, s, ErrInvalidTopic
		}
		picker := s.Picker()
		if c.ConnID != picker {
			// The host may stand in for a picker who dropped.
			if c.PickerConnected || c.HostID == "" || c.ConnID != c.HostID {
				return nil, s, ErrNotPicker
			}
		}

		difficulty := strings.TrimSpace(c.Difficulty)
		if difficulty == "" {
			difficulty = DefaultDifficulty
		}
		if speed := time.Duration(c.SpeedMs) * time.Millisecond; speed > minSpeedOverride {
			newState.Settings.QuestionTime = speed
		}

		newState.Phase = PhaseGenerating
		newState.Topic = topic
		newState.Difficulty = difficulty
		newState.Epoch++

		return []Effect{
			Broadcast{Event: types.EvtPhase, Payload: types.PhaseUpdate{RoomCode: s.RoomCode, Phase: string(PhaseGenerating), PickerID: picker}},
			RequestQuestions{Epoch: newState.Epoch, Topic: topic, Difficulty: difficulty, Force: c.Force, Count: s.Settings.RoundQuestions},
		}, newState, nil

	case QuestionsReady:
		if s.Phase != PhaseGenerating || c.Epoch != s.Epoch {
			return nil, s, ErrStaleResult
		}
		qs, err := buildRound(c, newState.Round+1, s.Settings.RoundQuestions)
		if err != nil {
			newState.Phase = PhaseTopic
			return topicEffects(newState, ErrQuestionBuild.Error()), newState, ErrQuestionBuild
		}
		newState.Round++
		newState.Questions = qs
		newState.Turn = 0
		return startQuestion(&newState, now), newState, nil

	case SubmitAnswer:
		if s.Phase != PhaseQuestion || s.Question == nil || s.Revealed {
			return nil, s, ErrWrongPhase
		}
		if c.QID != s.Question.ID {
			return nil, s, ErrStaleQuestion
		}
		if c.ChoiceIndex < 0 || c.ChoiceIndex >= ChoiceCount {
			return nil, s, ErrInvalidChoice
		}
		if _, dup := s.Submissions[c.ConnID]; dup {
			return nil, s, nil
		}
		newState.Submissions[c.ConnID] = Submission{ChoiceIndex: c.ChoiceIndex, At: now}
		newState.SubmitOrder = append(newState.SubmitOrder, c.ConnID)

		if everyoneAnswered(newState, c.Connected) {
			return finishQuestion(&newState), newState, nil
		}
		return nil, newState, nil

	case Recount:
		if s.Phase != PhaseQuestion || s.Revealed {
			return nil, s, nil
		}
		if everyoneAnswered(newState, c.Connected) {
			return finishQuestion(&newState), newState, nil
		}
		return nil, s, nil

	case TimerFired:
		if c.Token != s.TimerToken {
			return nil, s, ErrStaleTimer
		}
		switch {
		case c.Kind == TimerQuestion && s.Phase == PhaseQuestion && !s.Revealed:
			return finishQuestion(&newState), newState, nil
		case c.Kind == TimerReveal && s.Phase == PhaseQuestion && s.Revealed:
			return advanceAfterReveal(&newState, now), newState, nil
		case c.Kind == TimerLeaderboard && s.Phase == PhaseLeaderboard:
			return rotate(&newState), newState, nil
		default:
			return nil, s, ErrStaleTimer
		}

	case Sync:
		return syncEffects(s, c.ConnID), s, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func startQuestion(s *Session, now time.Time) []Effect {
	q := s.Questions[s.Turn]
	q.ExpiresAt = now.Add(s.Settings.QuestionTime)
	s.Question = &q
	s.Phase = PhaseQuestion
	s.Revealed = false
	s.Submissions = map[string]Submission{}
	s.SubmitOrder = nil
	s.TimerToken++

	return []Effect{
		ArmTimer{Kind: TimerQuestion, After: s.Settings.QuestionTime, Token: s.TimerToken},
		Broadcast{Event: types.EvtNewQuestion, Payload: types.NewQuestion{RoomCode: s.RoomCode, Question: q.Redacted()}},
	}
}

func finishQuestion(s *Session) []Effect {
	if s.Revealed || s.Question == nil {
		return nil
	}
	s.Revealed = true

	for _, id := range s.SubmitOrder {
		pts := 0
		if s.Submissions[id].ChoiceIndex == s.Question.CorrectIndex {
			pts = 1
		}
		_ = s.Totals.Add(id, pts)
	}
	s.TimerToken++

	return []Effect{
		ArmTimer{Kind: TimerReveal, After: s.Settings.RevealDelay, Token: s.TimerToken},
		Broadcast{Event: types.EvtScoreUpdate, Payload: types.ScoreUpdate{
			RoomCode:     s.RoomCode,
			Leaderboard:  s.Totals.Leaderboard(s.Names),
			CorrectIndex: s.Question.CorrectIndex,
			QID:          s.Question.ID,
		}},
	}
}

func advanceAfterReveal(s *Session, now time.Time) []Effect {
	if s.Turn < len(s.Questions)-1 {
		s.Turn++
		return startQuestion(s, now)
	}

	leaderboard := s.Totals.Leaderboard(s.Names)
	s.Visited[s.Picker()] = true

	if len(s.Visited) >= len(s.PickerOrder) {
		s.Phase = PhaseOver
		s.Question = nil
		s.TimerToken++
		return []Effect{
			CancelTimers{},
			Broadcast{Event: types.EvtGameOver, Payload: types.GameOver{RoomCode: s.RoomCode, Final: leaderboard}},
			Broadcast{Event: types.EvtPhase, Payload: types.PhaseUpdate{RoomCode: s.RoomCode, Phase: string(PhaseOver)}},
		}
	}

	s.Phase = PhaseLeaderboard
	s.Question = nil
	s.TimerToken++
	return []Effect{
		ArmTimer{Kind: TimerLeaderboard, After: s.Settings.LeaderboardDelay, Token: s.TimerToken},
		Broadcast{Event: types.EvtRoundOver, Payload: types.RoundOver{
			RoomCode:     s.RoomCode,
			Leaderboard:  leaderboard,
			NextPickerID: s.PickerOrder[nextPickerIndex(*s)],
		}},
	}
}

func rotate(s *Session) []Effect {
	s.Questions = nil
	s.Turn = 0
	s.Submissions = map[string]Submission{}
	s.SubmitOrder = nil
	s.PickerCursor = nextPickerIndex(*s)
	s.Phase = PhaseTopic
	return topicEffects(*s, "")
}

func topicEffects(s Session, errFlag string) []Effect {
	picker := s.Picker()
	return []Effect{
		Broadcast{Event: types.EvtPhase, Payload: types.PhaseUpdate{RoomCode: s.RoomCode, Phase: string(PhaseTopic), PickerID: picker, Error: errFlag}},
		SendTo{ConnID: picker, Event: types.EvtRequestTopics, Payload: types.RequestTopics{
			RoomCode: s.RoomCode,
			PickerID: picker,
			Topics:   append([]string(nil), s.Settings.Topics...),
		}},
	}
}

func syncEffects(s Session, connID string) []Effect {
	out := []Effect{
		SendTo{ConnID: connID, Event: types.EvtPhase, Payload: types.PhaseUpdate{RoomCode: s.RoomCode, Phase: string(s.Phase), PickerID: s.Picker()}},
	}
	if s.Phase == PhaseQuestion && s.Question != nil {
		out = append(out, SendTo{ConnID: connID, Event: types.EvtNewQuestion, Payload: types.NewQuestion{RoomCode: s.RoomCode, Question: s.Question.Redacted()}})
	}
	return out
}

func buildRound(c QuestionsReady, round, want int) ([]Question, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if len(c.Descriptors) == 0 || len(c.Descriptors) < want {
		return nil, ErrTooFewQuestions
	}
	qs := make([]Question, 0, want)
	for i, d := range c.Descriptors[:want] {
		q, err := NewQuestion(uuid.NewString(), d, round, i+1)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, nil
}
