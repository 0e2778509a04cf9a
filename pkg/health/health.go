package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	DefaultTimeout = 5 * time.Second
)

// ErrCheckFailed wraps the first failing check returned by Run.
var ErrCheckFailed = errors.New("health: check failed")

// CheckFunc reports a dependency as unavailable by returning an error.
type CheckFunc func(ctx context.Context) error

// Checks maps check names, such as "database" or "redis", to their probes.
type Checks map[string]CheckFunc

// Report is the readiness result.
type Report struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool { return r.Status == StatusHealthy }

// Check is the outcome of a single probe.
type Check struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures readiness probes.
type Option func(*config)

// WithTimeout bounds the whole readiness run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failing checks at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Run executes checks concurrently. It returns the report and, if any check
// failed, an error wrapping ErrCheckFailed.
func Run(ctx context.Context, checks Checks, opts ...Option) (*Report, error) {
	cfg := newConfig(opts...)
	report := &Report{Status: StatusHealthy}
	if len(checks) == 0 {
		return report, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		first error
	)
	report.Checks = make(map[string]Check, len(checks))

	// Checks never cancel each other, so the group is used only to wait.
	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			err := check(ctx)
			res := Check{Status: StatusHealthy, Duration: time.Since(start).Round(time.Microsecond).String()}
			if err != nil {
				res.Status = StatusUnhealthy
				res.Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = res
			if err != nil {
				report.Status = StatusUnhealthy
				if first == nil {
					first = fmt.Errorf("%w: %s: %w", ErrCheckFailed, name, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return report, first
}
