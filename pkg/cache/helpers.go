package cache

import (
	"context"
	"errors"
	"time"
)

// GetMany returns the live entries among keys. Missing keys are absent from
// the result; any other backend error aborts the lookup.
func GetMany[V any](ctx context.Context, c Cache[V], keys ...string) (map[string]V, error) {
	out := make(map[string]V, len(keys))
	for _, k := range keys {
		v, err := c.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// SetMany stores every entry of values with the same TTL.
func SetMany[V any](ctx context.Context, c Cache[V], values map[string]V, ttl time.Duration) error {
	for k, v := range values {
		if err := c.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Pull returns the value for key and removes it.
func Pull[V any](ctx context.Context, c Cache[V], key string) (V, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := c.Delete(ctx, key); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}

// Increment adds delta to the counter at key and returns the new value.
// A missing counter starts at zero and receives ttl. Backends implementing
// [Incrementer] do this atomically; for the others the read-modify-write is
// not atomic across processes.
func Increment(ctx context.Context, c Cache[int64], key string, delta int64, ttl time.Duration) (int64, error) {
	if inc, ok := c.(Incrementer); ok {
		return inc.Incr(ctx, key, delta, ttl)
	}

	n, err := c.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	n += delta
	if err := c.Set(ctx, key, n, ttl); err != nil {
		return 0, err
	}
	return n, nil
}
