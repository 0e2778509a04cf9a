package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores values in Redis, encoded with a Marshaler (JSON by default).
type Redis[V any] struct {
	client    redis.UniversalClient
	opts      *remoteOptions
	marshaler Marshaler[V]
}

// NewRedis creates a Redis-backed cache on a client from pkg/redis.Open.
// A nil Marshaler selects JSON.
//
//	sessions := cache.NewRedis[session.Record](client, nil,
//	    cache.WithPrefix("sess"),
//	    cache.WithTTL(2 * time.Hour),
//	)
func NewRedis[V any](client redis.UniversalClient, m Marshaler[V], opts ...RemoteOption) *Redis[V] {
	o := defaultRemoteOptions()
	for _, opt := range opts {
		opt(o)
	}
	if m == nil {
		m = jsonMarshaler[V]{}
	}
	return &Redis[V]{client: client, opts: o, marshaler: m}
}

// Get returns the value for key or ErrNotFound.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := r.client.Get(ctx, r.opts.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return r.marshaler.Unmarshal(data)
}

// Set stores value. A negative TTL maps to Redis' "no expiration".
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.marshaler.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.opts.key(key), data, max(r.opts.ttl(ttl), 0)).Err()
}

// Delete removes key.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.opts.key(key)).Err()
}

// Has reports whether key exists.
func (r *Redis[V]) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.opts.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Incr atomically adds delta to the counter at key. The TTL is applied only
// when the counter is created.
func (r *Redis[V]) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	k := r.opts.key(key)
	n, err := r.client.IncrBy(ctx, k, delta).Result()
	if err != nil {
		return 0, err
	}
	if n == delta {
		if exp := r.opts.ttl(ttl); exp > 0 {
			if err := r.client.Expire(ctx, k, exp).Err(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Clear removes the prefixed keys with SCAN, or flushes the database when no
// prefix is configured.
func (r *Redis[V]) Clear(ctx context.Context) error {
	if r.opts.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.opts.prefix+":*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if cursor = next; cursor == 0 {
			return nil
		}
	}
}

// Close is a no-op; the client is closed through pkg/redis.Shutdown.
func (r *Redis[V]) Close() error {
	return nil
}

var (
	_ Cache[any]  = (*Redis[any])(nil)
	_ Incrementer = (*Redis[any])(nil)
)
