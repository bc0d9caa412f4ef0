package persist

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store over a Redis instance, for deployments where
// the client runs headless and local disk is not durable.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps the provided Redis client. Keys are namespaced
// under "adaboards:".
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "adaboards:"}
}

func (r *RedisStore) key(key string) string { return r.prefix + key }

func (r *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return data, err
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
