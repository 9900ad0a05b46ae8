package questions

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
)

// Bank serves questions from a static YAML file:
//
//	topics:
//	  Science:
//	    - question: "..."
//	      choices: [a, b, c, d]
//	      correctAnswer: b
type Bank struct {
	topics map[string][]engine.Descriptor // keyed by lowercased topic
}

type bankFile struct {
	Topics map[string][]engine.Descriptor `yaml:"topics"`
}

func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	return ParseBank(data)
}

func ParseBank(data []byte) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	b := &Bank{topics: make(map[string][]engine.Descriptor, len(f.Topics))}
	for topic, qs := range f.Topics {
		key := topicKey(topic)
		b.topics[key] = append(b.topics[key], qs...)
	}
	return b, nil
}

func (b *Bank) Topics() []string {
	out := make([]string, 0, len(b.topics))
	for t := range b.topics {
		out = append(out, t)
	}
	return out
}

// Generate returns up to req.Count questions for the topic in random order.
func (b *Bank) Generate(ctx context.Context, req Request) ([]engine.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pool := b.topics[topicKey(req.Topic)]
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, req.Topic)
	}
	out := append([]engine.Descriptor(nil), pool...)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if req.Count > 0 && len(out) > req.Count {
		out = out[:req.Count]
	}
	return out, nil
}

func topicKey(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
