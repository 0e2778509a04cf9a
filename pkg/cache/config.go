package cache

import (
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
)

// Driver names accepted by CACHE_DRIVER and SESSION_DRIVER.
const (
	DriverMemory    = "memory"
	DriverFile      = "file"
	DriverRedis     = "redis"
	DriverMemcached = "memcached"
)

// Config holds cache configuration.
type Config struct {
	Driver           string        `env:"CACHE_DRIVER" envDefault:"memory"`
	Path             string        `env:"CACHE_PATH" envDefault:"storage/cache"`
	Prefix           string        `env:"CACHE_PREFIX" envDefault:"cineverse"`
	MemcachedServers []string      `env:"MEMCACHED_SERVERS" envDefault:"127.0.0.1:11211" envSeparator:","`
	TTL              time.Duration `env:"CACHE_TTL" envDefault:"1h"`
}

// Clients carries the shared remote clients a driver may need.
// Memcache is created from Config.MemcachedServers when nil.
type Clients struct {
	Redis    redis.UniversalClient
	Memcache *memcache.Client
}

// Open builds the cache selected by driver. namespace is appended to the
// configured prefix so independent caches (sessions, throttling, listings)
// never share keys; file caches get a subdirectory of that name.
//
//	listings, err := cache.Open[[]catalog.Movie](cfg, cfg.Driver, "movies", clients)
func Open[V any](cfg Config, driver, namespace string, clients Clients) (Cache[V], error) {
	prefix := cfg.Prefix
	if namespace != "" {
		if prefix != "" {
			prefix += ":"
		}
		prefix += namespace
	}

	switch driver {
	case DriverMemory, "":
		return NewMemory[V](WithDefaultTTL(cfg.TTL)), nil
	case DriverFile:
		dir := cfg.Path
		if namespace != "" {
			dir = dir + "/" + namespace
		}
		return NewFile[V](dir, WithTTL(cfg.TTL))
	case DriverRedis:
		if clients.Redis == nil {
			return nil, fmt.Errorf("%w: redis", ErrClientRequired)
		}
		return NewRedis[V](clients.Redis, nil, WithPrefix(prefix), WithTTL(cfg.TTL)), nil
	case DriverMemcached:
		client := clients.Memcache
		if client == nil {
			if len(cfg.MemcachedServers) == 0 {
				return nil, fmt.Errorf("%w: memcached", ErrClientRequired)
			}
			client = memcache.New(cfg.MemcachedServers...)
		}
		return NewMemcache[V](client, nil, WithPrefix(prefix), WithTTL(cfg.TTL)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
