package questions

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
)

// Cache is the slice of Store the caching source needs.
type Cache interface {
	Count(ctx context.Context, topic string) (int64, error)
	Random(ctx context.Context, topic string, limit int) ([]StoredQuestion, error)
	MarkUsed(ctx context.Context, ids []uint) error
	Save(ctx context.Context, topic, difficulty string, qs []engine.Descriptor) ([]uint, error)
}

// CachingSource serves cached questions when the topic has enough of them,
// otherwise generates fresh ones and stores them. Fallback is used when
// generation fails or no generator is configured.
type CachingSource struct {
	Cache     Cache
	Generator Source
	Fallback  Source
	Logger    *zap.Logger
}

func (c *CachingSource) Generate(ctx context.Context, req Request) ([]engine.Descriptor, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("topic", req.Topic), zap.Bool("force", req.Force))

	if c.Cache != nil && !req.Force {
		qs, ids, err := c.fromCache(ctx, req)
		if err == nil && len(qs) > 0 {
			if err := c.Cache.MarkUsed(ctx, ids); err != nil {
				log.Warn("failed to mark cached questions used", zap.Error(err))
			}
			log.Debug("serving cached questions", zap.Int("count", len(qs)))
			return qs, nil
		}
		if err != nil {
			log.Warn("question cache unavailable", zap.Error(err))
		}
	}

	var genErr error
	if c.Generator != nil {
		qs, err := c.Generator.Generate(ctx, req)
		if err == nil {
			if c.Cache != nil {
				if _, err := c.Cache.Save(ctx, req.Topic, req.Difficulty, qs); err != nil {
					log.Warn("failed to cache generated questions", zap.Error(err))
				}
			}
			return qs, nil
		}
		genErr = err
		log.Warn("question generation failed", zap.Error(err))
	}

	if c.Fallback != nil {
		return c.Fallback.Generate(ctx, req)
	}
	if genErr != nil {
		return nil, genErr
	}
	return nil, ErrNoSource
}

func (c *CachingSource) fromCache(ctx context.Context, req Request) ([]engine.Descriptor, []uint, error) {
	n, err := c.Cache.Count(ctx, req.Topic)
	if err != nil {
		return nil, nil, err
	}
	if n == 0 || n < int64(req.Count) {
		return nil, nil, nil
	}
	rows, err := c.Cache.Random(ctx, req.Topic, req.Count)
	if err != nil {
		return nil, nil, err
	}
	out := make([]engine.Descriptor, 0, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		d, err := row.Descriptor()
		if err != nil {
			return nil, nil, err
		}
		out = append(out, d)
		ids = append(ids, row.ID)
	}
	return out, ids, nil
}
