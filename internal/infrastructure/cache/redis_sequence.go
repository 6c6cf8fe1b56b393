package cache

import (
	"context"
	"fmt"
	"time"

	"emergency-fund/internal/config"
	"emergency-fund/internal/core/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// sequenceTTL outlives the minute an identifier base covers
const sequenceTTL = 2 * time.Minute

const sequenceKeyPrefix = "fund:idseq:"

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	zap.L().Info("redis connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}

// RedisSequence hands out per-minute identifier counters with INCR. When
// Redis fails it falls back to the store count.
type RedisSequence struct {
	client   redis.Cmdable
	fallback services.IDSequence
}

// NewRedisSequence creates a Redis backed identifier sequence
func NewRedisSequence(client redis.Cmdable, fallback services.IDSequence) *RedisSequence {
	return &RedisSequence{client: client, fallback: fallback}
}

var _ services.IDSequence = (*RedisSequence)(nil)

// Next increments the counter of base, starting at 1
func (s *RedisSequence) Next(ctx context.Context, base string) (int, error) {
	key := sequenceKeyPrefix + base

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, sequenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		if s.fallback == nil {
			return 0, err
		}
		zap.L().Warn("redis sequence unavailable, using store count", zap.String("base", base), zap.Error(err))
		return s.fallback.Next(ctx, base)
	}
	return int(incr.Val()), nil
}
