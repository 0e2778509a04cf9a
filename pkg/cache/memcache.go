package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// memcached refuses keys longer than 250 bytes or containing whitespace and
// control characters.
const maxMemcacheKey = 250

// memcached reads expirations above 30 days as absolute unix timestamps.
const maxRelativeExpiry = 30 * 24 * time.Hour

// Memcache stores values in memcached, encoded with a Marshaler (JSON by
// default).
type Memcache[V any] struct {
	client    *memcache.Client
	opts      *remoteOptions
	marshaler Marshaler[V]
}

// NewMemcache creates a memcached-backed cache. A nil Marshaler selects JSON.
func NewMemcache[V any](client *memcache.Client, m Marshaler[V], opts ...RemoteOption) *Memcache[V] {
	o := defaultRemoteOptions()
	for _, opt := range opts {
		opt(o)
	}
	if m == nil {
		m = jsonMarshaler[V]{}
	}
	return &Memcache[V]{client: client, opts: o, marshaler: m}
}

// Get returns the value for key or ErrNotFound.
func (c *Memcache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V

	item, err := c.client.Get(c.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return c.marshaler.Unmarshal(item.Value)
}

// Set stores value under key.
func (c *Memcache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	data, err := c.marshaler.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      data,
		Expiration: memcacheExpiration(time.Now(), c.opts.ttl(ttl)),
	})
}

// Delete removes key. Missing keys are not an error.
func (c *Memcache[V]) Delete(_ context.Context, key string) error {
	err := c.client.Delete(c.key(key))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return err
	}
	return nil
}

// Has reports whether key exists.
func (c *Memcache[V]) Has(_ context.Context, key string) (bool, error) {
	_, err := c.client.Get(c.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Incr adds delta to the counter at key, creating it with ttl when missing.
// memcached counters are unsigned; a negative delta decrements and stops
// at zero.
func (c *Memcache[V]) Incr(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	k := c.key(key)
	n, err := c.step(k, delta)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, memcache.ErrCacheMiss) {
		return 0, err
	}

	initial := max(delta, 0)
	err = c.client.Add(&memcache.Item{
		Key:        k,
		Value:      []byte(strconv.FormatInt(initial, 10)),
		Expiration: memcacheExpiration(time.Now(), c.opts.ttl(ttl)),
	})
	if errors.Is(err, memcache.ErrNotStored) {
		// Lost the race with another writer; the counter exists now.
		return c.step(k, delta)
	}
	if err != nil {
		return 0, err
	}
	return initial, nil
}

func (c *Memcache[V]) step(key string, delta int64) (int64, error) {
	var (
		n   uint64
		err error
	)
	if delta >= 0 {
		n, err = c.client.Increment(key, uint64(delta))
	} else {
		n, err = c.client.Decrement(key, uint64(-delta))
	}
	return int64(n), err
}

// Clear flushes every server. memcached has no prefix scan, so the prefix
// does not narrow the flush.
func (c *Memcache[V]) Clear(_ context.Context) error {
	return c.client.DeleteAll()
}

// Close releases idle connections.
func (c *Memcache[V]) Close() error {
	return c.client.Close()
}

func (c *Memcache[V]) key(key string) string {
	k := c.opts.key(key)
	if validMemcacheKey(k) {
		return k
	}
	sum := sha256.Sum256([]byte(k))
	return "h:" + hex.EncodeToString(sum[:])
}

func validMemcacheKey(k string) bool {
	if len(k) == 0 || len(k) > maxMemcacheKey {
		return false
	}
	for i := 0; i < len(k); i++ {
		if k[i] <= ' ' || k[i] == 0x7f {
			return false
		}
	}
	return true
}

// memcacheExpiration converts a TTL into memcached's expiration field.
// A negative TTL never expires. Sub-second TTLs round up to one second since
// zero means "never" to the server.
func memcacheExpiration(now time.Time, ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl > maxRelativeExpiry {
		return int32(now.Add(ttl).Unix())
	}
	secs := int32((ttl + time.Second - 1) / time.Second)
	return max(secs, 1)
}

var (
	_ Cache[any]  = (*Memcache[any])(nil)
	_ Incrementer = (*Memcache[any])(nil)
)
