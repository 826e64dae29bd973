package cache

import (
	"context"
	"time"

	"github.com/cargoport/core/internal/pkg/redis"
)

// RedisStore backs the cache with the shared redis connection. Expiry and
// memory pressure are redis's problem; prefix invalidation uses a SCAN walk.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an established redis connection.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.GetBytes(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key)
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := s.client.DelPrefix(ctx, prefix)
	return err
}
