package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/sf-bulk-report/pkg/auth"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used when none is configured.
const DefaultRedisKey = "sf-bulk-report:oauth_response"

// RedisStore keeps the authorization result under a single Redis key.
type RedisStore struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewRedisStore creates a RedisStore. An empty key uses DefaultRedisKey;
// ttl of zero stores the result without expiry.
func NewRedisStore(redisClient *redis.Client, key string, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		redis: redisClient,
		key:   key,
		ttl:   ttl,
	}
}

// Key returns the Redis key holding the result.
func (s *RedisStore) Key() string {
	return s.key
}

// Load reads the stored result.
func (s *RedisStore) Load(ctx context.Context) (*auth.AuthorizationResult, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues("redis").Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("redis", "load").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	result, err := decode("redis key "+s.key, data)
	if err != nil {
		CacheErrors.WithLabelValues("redis", "load").Inc()
		return nil, err
	}

	CacheHits.WithLabelValues("redis").Inc()
	return result, nil
}

// Save stores result, replacing any previous value.
func (s *RedisStore) Save(ctx context.Context, result *auth.AuthorizationResult) error {
	data, err := encode(result)
	if err != nil {
		CacheErrors.WithLabelValues("redis", "save").Inc()
		return err
	}

	if err := s.redis.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("redis", "save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Clear deletes the key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		CacheErrors.WithLabelValues("redis", "clear").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
