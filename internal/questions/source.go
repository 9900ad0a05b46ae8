package questions

import (
	"context"
	"errors"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
)

var ErrUnknownTopic = errors.New("no questions for topic")
var ErrNoSource = errors.New("no question source configured")

type Request struct {
	Topic      string
	Difficulty string
	Force      bool
	Count      int
}

// Source produces question descriptors for a topic. Implementations may block
// on network or disk and must honor ctx.
type Source interface {
	Generate(ctx context.Context, req Request) ([]engine.Descriptor, error)
}

type SourceFunc func(ctx context.Context, req Request) ([]engine.Descriptor, error)

func (f SourceFunc) Generate(ctx context.Context, req Request) ([]engine.Descriptor, error) {
	return f(ctx, req)
}
