// Package cache provides a generic Cache interface with in-memory, file,
// Redis and Memcached implementations.
//
// All backends share the [Cache] interface, so the driver can be chosen by
// configuration: memory for tests and single-process deployments, file for
// hosts without a cache server, Redis or Memcached when several processes
// share state.
//
// TTL semantics for Set:
//   - Positive duration: item expires after this duration
//   - Zero: use the cache's configured default TTL (1 hour by default)
//   - Negative: item never expires
//
// # Configuration
//
//	CACHE_DRIVER      - memory, file, redis or memcached (default: memory)
//	CACHE_PATH        - Directory of the file driver (default: storage/cache)
//	CACHE_PREFIX      - Key prefix for remote drivers (default: cineverse)
//	CACHE_TTL         - Default TTL (default: 1h)
//	MEMCACHED_SERVERS - Comma separated host:port list
//
// [Open] builds the configured backend for one namespace:
//
//	movies, err := cache.Open[[]catalog.Movie](cfg.Cache, cfg.Cache.Driver, "movies", clients)
//
// # In-Memory Cache
//
// [NewMemory] keeps entries in a map with an LRU list for eviction once
// [WithMaxEntries] is reached. A janitor goroutine collects expired entries:
//
//	c := cache.NewMemory[string](
//	    cache.WithDefaultTTL(5 * time.Minute),
//	    cache.WithMaxEntries(10000),
//	)
//	defer c.Close()
//
// [Memory.SetEvictCallback] runs on eviction, expiry, deletion and Clear.
//
// # File Cache
//
// [NewFile] stores one file per key named after the MD5 of the key. Each
// file holds a JSON envelope of the value and its expiry. Expired files are
// deleted when read and by [File.GC].
//
// # Redis and Memcached
//
// [NewRedis] and [NewMemcache] encode values with a [Marshaler] (JSON when
// nil) and namespace keys with [WithPrefix]. Memcached keys that are too
// long or contain whitespace are hashed.
//
// # Helpers
//
// [GetOrSet] computes a missing value once for concurrent callers:
//
//	val, err := cache.GetOrSet(ctx, c, "movies:trending", func(ctx context.Context) ([]Movie, time.Duration, error) {
//	    movies, err := repo.Trending(ctx)
//	    return movies, 10 * time.Minute, err
//	})
//
// [GetMany], [SetMany], [Pull] and [Increment] work over any backend;
// Increment is atomic on backends implementing [Incrementer].
//
// # Error Handling
//
//   - [ErrNotFound] - key does not exist or has expired
//   - [ErrClosed] - operation on a closed cache
//   - [ErrMarshal], [ErrUnmarshal] - value encoding failed
//   - [ErrUnknownDriver], [ErrClientRequired] - returned by [Open]
package cache
