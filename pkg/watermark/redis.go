package watermark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/sujan-004/etl-pipeline-project/pkg/redis"
)

const redisKeyPrefix = "fern:watermark:"

// KV is the subset of the Redis client the store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// RedisStore keeps the watermark as an RFC 3339 string without expiry.
type RedisStore struct {
	client KV
	key    string
	logger ectologger.Logger
}

func NewRedisStore(client KV, pipeline string, logger ectologger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		key:    RedisKey(pipeline),
		logger: logger,
	}
}

// RedisKey is the key holding pipeline's watermark.
func RedisKey(pipeline string) string {
	return redisKeyPrefix + pipeline
}

func (s *RedisStore) Load(ctx context.Context) (*time.Time, error) {
	raw, err := s.client.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		s.logger.WithContext(ctx).WithError(err).WithField("key", s.key).Error("Failed to read watermark from redis")
		return nil, fmt.Errorf("failed to read watermark %s: %w", s.key, err)
	}

	wm, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid watermark %q at %s: %w", raw, s.key, err)
	}
	wm = wm.UTC()
	return &wm, nil
}

// Save is a read-compare-write; a single orchestrator owns the key.
func (s *RedisStore) Save(ctx context.Context, wm time.Time) error {
	current, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if current != nil && !wm.After(*current) {
		return nil
	}

	if err := s.client.Set(ctx, s.key, wm.UTC().Format(time.RFC3339Nano), 0); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("key", s.key).Error("Failed to store watermark in redis")
		return fmt.Errorf("failed to store watermark %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Name() string {
	return BackendRedis
}
