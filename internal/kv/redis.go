package kv

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBackend persists through a direct Redis connection. Redis only
// stores strings, so values are serialized to JSON text on Set and
// validated back on Get.
type redisBackend struct {
	client *redis.Client
}

func newRedisBackend(redisURL string) (*redisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &redisBackend{client: redis.NewClient(opts)}, nil
}

func (b *redisBackend) Name() string { return "redis" }

func (b *redisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *redisBackend) Get(ctx context.Context, key string) (json.RawMessage, error) {
	raw, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !json.Valid([]byte(raw)) {
		log.Printf("⚠️  [KV] Corrupt value at key %q, treating as missing", key)
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

func (b *redisBackend) Set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, key, string(encoded), 0).Err()
}

func (b *redisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

func (b *redisBackend) Close() error {
	return b.client.Close()
}
