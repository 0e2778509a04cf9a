package cineverse

import (
	"context"
	"net/http"
	"slices"

	"github.com/dmitrymomot/cineverse/handlers"
	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/pkg/cookie"
	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/job"
	"github.com/dmitrymomot/cineverse/pkg/redis"
)

// APIPrefix is the mount point of the JSON API.
const APIPrefix = "/api/v1"

// Middleware every route runs, outermost first.
var baseMiddleware = []string{"requestid", "logging", "recover", "timeout"}

type routes func(r *internal.Router)

func (f routes) Routes(r *internal.Router) { f(r) }

func (a *App) buildHTTP() *internal.App {
	cfg := a.cfg

	api := []internal.Handler{
		handlers.NewAuth(a.auth),
		handlers.NewUser(a.auth, a.catalog, a.storage),
		handlers.NewMovies(a.catalog),
		handlers.NewPayment(a.payments),
		handlers.NewSearch(a.catalog),
		handlers.NewAnalytics(a.catalog),
		handlers.NewAdmin(a.auth, a.catalog, a.payments),
		handlers.NewPublic(a.catalog),
		handlers.NewWebhooks(a.payments),
		handlers.NewSystem(cfg.App.Env, APIPrefix),
	}
	web := handlers.NewWeb(handlers.WebConfig{
		Auth:      a.auth,
		Catalog:   a.catalog,
		Payments:  a.payments,
		Languages: a.langs,
		BaseURL:   cfg.App.URL,
	})

	cors := []middlewares.CORSOption{middlewares.WithAllowOrigins(cfg.HTTP.CORSOrigins...)}
	if len(cfg.HTTP.CORSOrigins) > 0 && !slices.Contains(cfg.HTTP.CORSOrigins, "*") {
		cors = append(cors, middlewares.WithAllowCredentials())
	}

	sm := internal.NewSessionManager(a.sessions,
		internal.WithSessionConfig(cfg.Session),
		internal.WithSessionSameSite(cookie.ParseSameSite(cfg.Cookie.SameSite)),
		internal.WithSessionLogger(a.component("session")),
	)

	return internal.New(
		internal.WithCustomLogger(a.component("http")),
		internal.WithSessionManager(sm),
		internal.WithCookieOptions(append(cfg.Cookie.Options(), cookie.WithSecret(cfg.App.Key))...),
		internal.WithMaxBodySize(cfg.HTTP.MaxBodySize),
		internal.WithErrorHandler(internal.DefaultErrorHandler(cfg.App.Debug, handlers.MapError, middlewares.HTTPError)),
		internal.WithHealthChecks(a.readinessChecks()...),

		internal.WithNamedMiddleware("requestid", middlewares.RequestID()),
		internal.WithNamedMiddleware("logging", middlewares.Logging(handlers.MapError, middlewares.HTTPError)),
		internal.WithNamedMiddleware("recover", middlewares.Recover()),
		internal.WithNamedMiddleware("timeout", middlewares.Timeout(cfg.HTTP.RequestTimeout)),
		internal.WithNamedMiddleware("cors", middlewares.CORS(cors...)),
		internal.WithNamedMiddleware("throttle", middlewares.Throttle(a.limiter, middlewares.ByClientIP)),
		internal.WithNamedMiddleware("auth", middlewares.Auth(a.auth, middlewares.WithRememberCookie(handlers.RememberCookie))),
		internal.WithNamedMiddleware("admin", middlewares.Admin()),
		internal.WithNamedMiddleware("guest", middlewares.Guest("")),
		internal.WithNamedMiddleware("csrf", middlewares.CSRF()),
		internal.WithNamedMiddleware("locale", middlewares.Locale(a.langs, a.messages)),

		internal.WithHandlers(routes(func(r *internal.Router) {
			r.Group(internal.GroupAttrs{Middleware: baseMiddleware}, func(r *internal.Router) {
				r.Group(internal.GroupAttrs{Prefix: APIPrefix, Middleware: []string{"cors", "throttle", "locale"}}, func(r *internal.Router) {
					for _, h := range api {
						h.Routes(r)
					}
					r.OPTIONS("/{path}", preflight, internal.Where("path", `.*`))
				})
				r.Group(internal.GroupAttrs{Middleware: []string{"locale"}}, web.Routes)
			})
		})),
	)
}

// preflight answers CORS preflight requests the cors middleware let through.
func preflight(c internal.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func (a *App) readinessChecks() []internal.HealthOption {
	checks := []internal.HealthOption{
		internal.WithReadinessCheck("database", db.Healthcheck(a.conn)),
	}
	if a.redis != nil {
		checks = append(checks, internal.WithReadinessCheck("redis", redis.Healthcheck(a.redis)))
	}
	if a.memcache != nil {
		mc := a.memcache
		checks = append(checks, internal.WithReadinessCheck("memcached", func(context.Context) error {
			return mc.Ping()
		}))
	}
	if a.queue != nil {
		checks = append(checks, internal.WithReadinessCheck("jobs", job.Healthcheck(a.queue)))
	}
	return checks
}
