package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

const ChoiceCount = 4

var ErrTooFewQuestions = errors.New("not enough questions")
var ErrMalformedQuestion = errors.New("malformed question")

var DefaultTopics = []string{"Science", "Movies", "History"}

func DefaultSettings() Settings {
	return Settings{
		QuestionTime:     22 * time.Second,
		RevealDelay:      1500 * time.Millisecond,
		LeaderboardDelay: 3500 * time.Millisecond,
		RoundQuestions:   5,
		Topics:           append([]string(nil), DefaultTopics...),
	}
}

// Descriptor is a question as a generator hands it over.
type Descriptor struct {
	Question      string   `json:"question" yaml:"question"`
	Choices       []string `json:"choices" yaml:"choices"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
}

type Question struct {
	ID           string
	Text         string
	Choices      []string
	CorrectIndex int
	Round        int
	Turn         int
	ExpiresAt    time.Time
}

// NewQuestion requires exactly four choices with the correct answer among them, verbatim.
func NewQuestion(id string, d Descriptor, round, turn int) (Question, error) {
	text := strings.TrimSpace(d.Question)
	if text == "" || len(d.Choices) != ChoiceCount {
		return Question{}, ErrMalformedQuestion
	}
	idx := -1
	for i, c := range d.Choices {
		if c == d.CorrectAnswer {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Question{}, ErrMalformedQuestion
	}
	return Question{
		ID:           id,
		Text:         text,
		Choices:      append([]string(nil), d.Choices...),
		CorrectIndex: idx,
		Round:        round,
		Turn:         turn,
	}, nil
}

func (q Question) Redacted() types.QuestionView {
	return types.QuestionView{
		QID:       q.ID,
		Text:      q.Text,
		Choices:   append([]string(nil), q.Choices...),
		ExpiresAt: q.ExpiresAt,
		Round:     q.Round,
		Turn:      q.Turn,
	}
}

func (s Session) clone() Session {
	c := s
	c.PickerOrder = append([]string(nil), s.PickerOrder...)
	c.Visited = make(map[string]bool, len(s.Visited))
	for id := range s.Visited {
		c.Visited[id] = true
	}
	if s.Question != nil {
		q := *s.Question
		c.Question = &q
	}
	c.Questions = append([]Question(nil), s.Questions...)
	c.Submissions = make(map[string]Submission, len(s.Submissions))
	for id, sub := range s.Submissions {
		c.Submissions[id] = sub
	}
	c.SubmitOrder = append([]string(nil), s.SubmitOrder...)
	c.Totals = s.Totals.Clone()
	c.Names = copyNames(s.Names)
	c.Settings.Topics = append([]string(nil), s.Settings.Topics...)
	return c
}

func copyNames(names map[string]string) map[string]string {
	out := make(map[string]string, len(names))
	for id, n := range names {
		out[id] = n
	}
	return out
}

// everyoneAnswered is false for an empty connected set; the question timer resolves that case.
func everyoneAnswered(s Session, connected []string) bool {
	if len(connected) == 0 {
		return false
	}
	for _, id := range connected {
		if _, ok := s.Submissions[id]; !ok {
			return false
		}
	}
	return true
}

func ContainsEffect[T Effect](effects []Effect) bool {
	for _, e := range effects {
		if _, ok := e.(T); ok {
			return true
		}
	}
	return false
}
