package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/cineverse/pkg/cookie"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/session"
)

// Option configures the application.
type Option func(*App)

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup, in order, so the
// order of handlers is part of route priority.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithNamedMiddleware registers a middleware that routes and groups refer
// to by name.
//
// Example:
//
//	internal.New(
//	    internal.WithNamedMiddleware("auth", middlewares.Auth(authManager)),
//	    internal.WithNamedMiddleware("admin", middlewares.Admin()),
//	)
func WithNamedMiddleware(name string, mw Middleware) Option {
	return func(a *App) {
		if name != "" && mw != nil {
			a.middleware[name] = mw
		}
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled.
//
// Example:
//
//	internal.WithStaticFiles("/assets/", os.DirFS("public"), "assets")
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}

		fileServer := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(subFS))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, pattern})
	}
}

// WithErrorHandler sets the handler that renders errors returned by the
// middleware chain.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		if h != nil {
			a.router.errorHandler = h
		}
	}
}

// WithNotFoundHandler sets the handler used when no route matches.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		if h != nil {
			a.router.notFound = h
		}
	}
}

// WithHealthChecks enables the probe endpoints.
// Liveness (/health/live) always answers OK while the process runs;
// readiness (/health/ready) runs the configured checks.
//
// Example:
//
//	internal.WithHealthChecks(
//	    internal.WithReadinessCheck("db", conn.Healthcheck),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger creates a logger with a component name and optional extractors.
//
// Example:
//
//	internal.New(
//	    internal.WithLogger("web", middlewares.RequestIDExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCookieOptions configures the cookie manager.
func WithCookieOptions(opts ...cookie.Option) Option {
	return func(a *App) {
		a.router.cookies = cookie.New(opts...)
	}
}

// WithSession enables server-side sessions. Sessions load lazily and are
// saved after the middleware chain returns.
//
// Example:
//
//	internal.WithSession(store,
//	    internal.WithSessionConfig(cfg.Session),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.router.sessions = NewSessionManager(store, opts...)
	}
}

// WithSessionManager uses an existing session manager.
func WithSessionManager(sm *SessionManager) Option {
	return func(a *App) {
		a.router.sessions = sm
	}
}

// WithMaxBodySize caps the buffered request body.
func WithMaxBodySize(n int64) Option {
	return func(a *App) {
		if n > 0 {
			a.maxBodySize = n
		}
	}
}
