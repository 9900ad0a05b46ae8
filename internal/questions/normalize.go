package questions

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
)

var ErrUnknownShape = errors.New("unknown question shape")

// rawQuestion is the union of every shape generators have been seen to return.
type rawQuestion struct {
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	CorrectAnswer *string  `json:"correctAnswer"`
	AnswerIndex   *int     `json:"answerIndex"`
	Answer        *string  `json:"answer"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	Correct       *string  `json:"correct"`
	Prompt        string   `json:"prompt"`
	Answers       []string `json:"answers"`
}

// Normalize reduces a generator payload to {question, choices, correctAnswer}.
func Normalize(data json.RawMessage) (engine.Descriptor, error) {
	var q rawQuestion
	if err := json.Unmarshal(data, &q); err != nil {
		return engine.Descriptor{}, fmt.Errorf("decode question: %w", err)
	}

	switch {
	case q.Question != "" && q.Choices != nil && q.CorrectAnswer != nil:
		return engine.Descriptor{Question: q.Question, Choices: q.Choices, CorrectAnswer: *q.CorrectAnswer}, nil
	case q.Text != "" && q.Options != nil && q.Correct != nil:
		return engine.Descriptor{Question: q.Text, Choices: q.Options, CorrectAnswer: *q.Correct}, nil
	case q.Question != "" && q.Options != nil && q.Answer != nil:
		return engine.Descriptor{Question: q.Question, Choices: q.Options, CorrectAnswer: *q.Answer}, nil
	case q.Question != "" && q.Choices != nil && q.AnswerIndex != nil:
		idx := *q.AnswerIndex
		if idx < 0 || idx >= len(q.Choices) {
			return engine.Descriptor{}, fmt.Errorf("answerIndex %d out of range", idx)
		}
		return engine.Descriptor{Question: q.Question, Choices: q.Choices, CorrectAnswer: q.Choices[idx]}, nil
	case q.Prompt != "" && q.Answers != nil && q.Correct != nil:
		return engine.Descriptor{Question: q.Prompt, Choices: q.Answers, CorrectAnswer: *q.Correct}, nil
	}
	return engine.Descriptor{}, ErrUnknownShape
}

func NormalizeAll(items []json.RawMessage) ([]engine.Descriptor, error) {
	out := make([]engine.Descriptor, 0, len(items))
	for i, item := range items {
		d, err := Normalize(item)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}
