package recordstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the record store with a Redis instance for deployments
// where the shared document must outlive the process host.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisStore dials Redis and verifies connectivity before returning.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("recordstore: redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("recordstore: redis ping: %w", err)
	}

	return &RedisStore{client: client, prefix: strings.TrimSpace(opts.KeyPrefix)}, nil
}

// Read returns the serialized value stored for key, or ErrKeyNotFound.
func (s *RedisStore) Read(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.namespaced(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("recordstore: read %q: %w", key, err)
	}
	return value, nil
}

// Write replaces the value stored for key. Entries do not expire; the record
// store models durable documents, not a cache.
func (s *RedisStore) Write(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("recordstore: write %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) namespaced(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
