package cache

import "time"

const defaultTTL = time.Hour

// MemoryOption configures the in-memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	maxEntries      int
}

func defaultMemoryOptions() *memoryOptions {
	return &memoryOptions{
		defaultTTL:      defaultTTL,
		cleanupInterval: time.Minute,
	}
}

// WithDefaultTTL sets the expiry used when Set receives a zero TTL.
// Default: 1 hour.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.defaultTTL = d }
}

// WithCleanupInterval sets how often the janitor collects expired entries.
// Zero disables the janitor. Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.cleanupInterval = d }
}

// WithMaxEntries caps the entry count; the least recently used entry is
// evicted when the cap is hit. Zero means unlimited.
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) { o.maxEntries = n }
}

// RemoteOption configures the Redis, Memcached and file backends.
type RemoteOption func(*remoteOptions)

type remoteOptions struct {
	prefix     string
	defaultTTL time.Duration
}

func defaultRemoteOptions() *remoteOptions {
	return &remoteOptions{defaultTTL: defaultTTL}
}

// WithPrefix namespaces keys as "{prefix}:{key}" so several caches can share
// one server.
func WithPrefix(prefix string) RemoteOption {
	return func(o *remoteOptions) { o.prefix = prefix }
}

// WithTTL sets the expiry used when Set receives a zero TTL.
// Default: 1 hour.
func WithTTL(d time.Duration) RemoteOption {
	return func(o *remoteOptions) { o.defaultTTL = d }
}

func (o *remoteOptions) key(k string) string {
	if o.prefix == "" {
		return k
	}
	return o.prefix + ":" + k
}

func (o *remoteOptions) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return o.defaultTTL
	}
	return ttl
}
