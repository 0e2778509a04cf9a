package internal

import (
	"context"
	"log/slog"
	"time"
)

// RunOption configures App.Run.
type RunOption func(*runConfig)

type worker struct {
	name string
	fn   func(context.Context) error
}

type runConfig struct {
	logger          *slog.Logger
	workers         []worker
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

func buildRunConfig(opts ...RunOption) *runConfig {
	cfg := &runConfig{shutdownTimeout: defaultShutdownTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Logger overrides the app logger for server lifecycle messages.
func Logger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ShutdownTimeout bounds connection draining plus shutdown hooks.
// The default is 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// Background runs fn next to the HTTP server, e.g. the session garbage
// collector or the job queue. Its context is cancelled on shutdown. A
// worker returning a non-nil error other than context.Canceled stops the
// server.
func Background(name string, fn func(ctx context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.workers = append(c.workers, worker{name: name, fn: fn})
		}
	}
}

// ShutdownHook registers cleanup to run, in order, once the server and
// background workers have stopped.
//
//	internal.ShutdownHook(func(context.Context) error { return dbm.Close() })
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.shutdownHooks = append(c.shutdownHooks, fn)
		}
	}
}
