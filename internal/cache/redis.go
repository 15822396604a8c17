package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiva/tripweaver/config"
)

// NewRedisClient creates a Redis client with connection pooling and verifies
// connectivity before returning.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return client, nil
}

// HealthCheck pings the Redis client and returns nil if healthy.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(pingCtx).Err()
}

// Redis is the L2 distributed cache tier shared across engine instances,
// consulted on a local TTLCache miss and mirrored to on a local set.
//
// Values are JSON-marshaled, so Redis can back any TTLCache[V] as long as V
// round-trips through encoding/json.
type Redis[V any] struct {
	client    *redis.Client
	keyPrefix string
	timeout   time.Duration
}

// NewRedis wraps an existing *redis.Client as a Distributed[V] tier. keyPrefix
// namespaces keys per cache (e.g. "geo:" vs "transit:") so they don't collide
// when sharing one Redis instance.
func NewRedis[V any](client *redis.Client, keyPrefix string) *Redis[V] {
	return &Redis[V]{client: client, keyPrefix: keyPrefix, timeout: 500 * time.Millisecond}
}

func (r *Redis[V]) Get(key string) (V, bool) {
	var zero V
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	return v, true
}

func (r *Redis[V]) Set(key string, value V, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	// Best-effort: a failed mirror to L2 does not fail the caller's Set.
	_ = r.client.Set(ctx, r.keyPrefix+key, raw, ttl).Err()
}
