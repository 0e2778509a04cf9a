// Package redis opens the shared go-redis client used by the Redis cache and
// session drivers.
//
// Settings come from the environment:
//
//	REDIS_URL            - redis:// or rediss:// URL; empty disables Redis
//	REDIS_POOL_SIZE      - Maximum pool size (default: 10)
//	REDIS_MIN_IDLE_CONNS - Idle connections kept open (default: 2)
//	REDIS_TIMEOUT        - Dial, read and write timeout (default: 3s)
//	REDIS_RETRY_ATTEMPTS - Ping attempts before giving up (default: 3)
//
// Usage:
//
//	client, err := redis.Open(ctx, cfg.Redis, log)
//	if err != nil {
//		return err
//	}
//	sessions := cache.NewRedis[session.Record](client, nil, cache.WithPrefix("sessions"))
//
// [Healthcheck] and [Shutdown] plug into the readiness probe and the
// application's shutdown hooks.
package redis
