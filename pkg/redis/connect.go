package redis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings. An empty URL means Redis is not
// configured and callers should fall back to another driver.
type Config struct {
	URL           string        `env:"REDIS_URL"`
	PoolSize      int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns  int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxIdleTime   time.Duration `env:"REDIS_MAX_IDLE_TIME" envDefault:"10m"`
	MaxActiveTime time.Duration `env:"REDIS_MAX_ACTIVE_TIME" envDefault:"30m"`
	Timeout       time.Duration `env:"REDIS_TIMEOUT" envDefault:"3s"`
	RetryAttempts int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
}

// Enabled reports whether a Redis URL is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// Options converts the config into go-redis client options.
// Supports both redis:// and rediss:// (TLS) URL schemes.
func (c Config) Options() (*redis.Options, error) {
	if c.URL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(c.URL, "redis://") && !strings.HasPrefix(c.URL, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	opts.MinIdleConns = c.MinIdleConns
	opts.ConnMaxIdleTime = c.MaxIdleTime
	opts.ConnMaxLifetime = c.MaxActiveTime
	if c.Timeout > 0 {
		opts.ReadTimeout = c.Timeout
		opts.WriteTimeout = c.Timeout
		opts.DialTimeout = c.Timeout
	}
	return opts, nil
}

// Open creates a Redis client and pings it, retrying with linear backoff.
//
//	client, err := redis.Open(ctx, cfg.Redis, log)
func Open(ctx context.Context, cfg Config, log *slog.Logger) (redis.UniversalClient, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return connect(ctx, opts, max(cfg.RetryAttempts, 1), cfg.RetryInterval, log)
}

// OpenURL is a shortcut for Open with default pool settings.
func OpenURL(ctx context.Context, url string) (redis.UniversalClient, error) {
	return Open(ctx, Config{URL: url, RetryAttempts: 1}, nil)
}

func connect(ctx context.Context, opts *redis.Options, attempts int, interval time.Duration, log *slog.Logger) (redis.UniversalClient, error) {
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)

		err := client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		_ = client.Close()
		lastErr = err

		if i == attempts-1 {
			break
		}
		log.WarnContext(ctx, "redis not reachable, retrying",
			slog.String("addr", opts.Addr),
			slog.Int("attempt", i+1),
			slog.Any("error", err),
		)
		if waitErr := wait(ctx, time.Duration(i+1)*interval); waitErr != nil {
			return nil, errors.Join(ErrConnectionFailed, waitErr)
		}
	}
	return nil, errors.Join(ErrConnectionFailed, lastErr)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
