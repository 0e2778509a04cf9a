package internal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/cineverse/pkg/health"
	"github.com/dmitrymomot/cineverse/pkg/logger"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App is the HTTP front of the application. A chi mux serves health
// probes and static files; every other request is snapshotted and handed
// to the Router, and the buffered response is written once.
type App struct {
	mux          chi.Router
	router       *Router
	logger       *slog.Logger
	healthConfig *healthConfig
	handlers     []Handler
	middleware   map[string]Middleware
	staticRoutes []staticRoute
	maxBodySize  int64
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates a new application with the given options.
//
// Example:
//
//	app := internal.New(
//	    internal.WithLogger(log),
//	    internal.WithNamedMiddleware("auth", middlewares.Auth(authManager)),
//	    internal.WithHandlers(handlers.NewMovies(catalog)),
//	)
func New(opts ...Option) *App {
	a := &App{
		mux:         chi.NewRouter(),
		router:      NewRouter(),
		logger:      logger.NewNope(),
		middleware:  make(map[string]Middleware),
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.router.logger = a.logger

	a.setupRoutes()
	return a
}

// Router returns the dispatcher, e.g. to list routes.
func (a *App) Router() *Router {
	return a.router
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Run starts the HTTP server and blocks until ctx is cancelled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context, addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}
	return serve(ctx, a, addr, cfg)
}

func (a *App) setupRoutes() {
	for _, sr := range a.staticRoutes {
		a.mux.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		a.mux.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.mux.Get(a.healthConfig.readinessPath, health.ReadinessHandler(a.healthConfig.checks, health.WithLogger(a.logger)))
	}

	for name, mw := range a.middleware {
		a.router.Middleware(name, mw)
	}
	for _, h := range a.handlers {
		h.Routes(a.router)
	}

	a.mux.HandleFunc("/*", a.dispatch)
}

// dispatch snapshots the request, runs the router and sends the response.
func (a *App) dispatch(w http.ResponseWriter, r *http.Request) {
	req, err := NewRequestLimit(r, a.maxBodySize)
	if err != nil {
		status := http.StatusBadRequest
		if IsBodyTooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		a.logger.WarnContext(r.Context(), "request rejected",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(status), status)
		return
	}

	res := a.router.Dispatch(req)
	if err := res.Send(w); err != nil {
		a.logger.ErrorContext(r.Context(), "failed to send response", slog.Any("error", err))
	}
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check. Checks run in parallel.
//
// Example:
//
//	internal.WithReadinessCheck("db", conn.Healthcheck)
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
