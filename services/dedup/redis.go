package dedup

import (
	"context"

	"github.com/redis/go-redis/v9"

	apperrors "sjsage522/pricewatcher/pkg/errors"
)

// saveBatch bounds the members sent per SADD
const saveBatch = 500

// RedisBackend stores the seen set as a Redis set
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend creates a backend on an existing client
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	return &RedisBackend{
		client: client,
		key:    key,
	}
}

// Name returns the backend name
func (r *RedisBackend) Name() string {
	return "redis:" + r.key
}

// Load returns the set members
func (r *RedisBackend) Load(ctx context.Context) ([]string, error) {
	keys, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, apperrors.NewPersistence(r.Name(), "failed to load seen set", err)
	}
	return keys, nil
}

// Save adds every key to the set. Members are never removed so a partial
// failure loses nothing already stored.
func (r *RedisBackend) Save(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for start := 0; start < len(keys); start += saveBatch {
		end := min(start+saveBatch, len(keys))
		members := make([]interface{}, 0, end-start)
		for _, k := range keys[start:end] {
			members = append(members, k)
		}
		pipe.SAdd(ctx, r.key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewPersistence(r.Name(), "failed to save seen set", err)
	}
	return nil
}

// Clear deletes the set
func (r *RedisBackend) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return apperrors.NewPersistence(r.Name(), "failed to clear seen set", err)
	}
	return nil
}
