package worker

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HashStore is the subset of the Redis client used for shared partials
type HashStore interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// PartialStore keeps the base engine's partials in sync with a Redis hash
// mapping partial names to template text
type PartialStore struct {
	client HashStore
	key    string
	engine *template.Engine
	logger *zap.Logger
}

// NewPartialStore creates a partial store backed by the hash at key
func NewPartialStore(client HashStore, key string, engine *template.Engine, logger *zap.Logger) *PartialStore {
	return &PartialStore{
		client: client,
		key:    key,
		engine: engine,
		logger: logger,
	}
}

// Refresh loads every partial from Redis into the engine. Partials removed
// from the hash stay registered until the worker restarts.
func (p *PartialStore) Refresh(ctx context.Context) (int, error) {
	partials, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to load partials: %w", err)
	}

	for name, text := range partials {
		p.engine.RegisterPartial(name, text)
	}

	p.logger.Debug("partials loaded",
		zap.String("key", p.key),
		zap.Int("count", len(partials)),
	)
	return len(partials), nil
}

// Put stores a partial in Redis and registers it on the engine
func (p *PartialStore) Put(ctx context.Context, name, text string) error {
	if name == "" {
		return fmt.Errorf("partial name is required")
	}
	if err := p.client.HSet(ctx, p.key, name, text).Err(); err != nil {
		return fmt.Errorf("failed to store partial: %w", err)
	}
	p.engine.RegisterPartial(name, text)
	return nil
}

// Count returns the number of partials registered on the engine
func (p *PartialStore) Count() int {
	return p.engine.Partials().Len()
}
