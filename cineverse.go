package cineverse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/migrations"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/i18n"
	"github.com/dmitrymomot/cineverse/pkg/job"
	"github.com/dmitrymomot/cineverse/pkg/jwt"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/mailer"
	"github.com/dmitrymomot/cineverse/pkg/mailer/resend"
	"github.com/dmitrymomot/cineverse/pkg/payment"
	"github.com/dmitrymomot/cineverse/pkg/redis"
	"github.com/dmitrymomot/cineverse/pkg/session"
	"github.com/dmitrymomot/cineverse/pkg/storage"
)

// App owns every long-lived dependency of the backend.
type App struct {
	cfg      Config
	log      *slog.Logger
	flushLog func()

	dbm      *db.Manager
	conn     *db.Conn
	redis    goredis.UniversalClient
	memcache *memcache.Client
	pool     *pgxpool.Pool
	queue    *job.Queue

	sessions session.Store
	auth     *auth.Manager
	catalog  *catalog.Service
	payments *payment.Service
	storage  storage.Storage
	mailer   *mailer.Mailer
	langs    *i18n.Languages
	messages *i18n.I18n
	limiter  *middlewares.Limiter
	gc       *gcTask

	http   *internal.App
	closed bool
}

// Option configures New.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	logOutput io.Writer
	sender    mailer.Sender
	storage   storage.Storage
	providers []payment.Provider
}

// WithLogger replaces the logger built from Config.Log.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLogOutput sets where the configured logger writes. The default is
// stdout.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithMailSender replaces the Resend or log sender.
func WithMailSender(s mailer.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithStorage replaces the S3 or in-memory object storage.
func WithStorage(s storage.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithPaymentProvider registers a provider in addition to, or instead of,
// the built-in sandbox for the same method.
func WithPaymentProvider(p payment.Provider) Option {
	return func(o *options) { o.providers = append(o.providers, p) }
}

// New connects to every configured backend and wires the HTTP application.
// On error, everything opened so far is closed.
func New(ctx context.Context, cfg Config, opts ...Option) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{cfg: cfg, flushLog: func() {}}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.openLogger(o); err != nil {
		return nil, err
	}
	if err := a.openConnections(ctx); err != nil {
		return nil, err
	}
	if err := a.buildServices(ctx, o); err != nil {
		return nil, err
	}
	a.http = a.buildHTTP()

	return a, nil
}

func (a *App) openLogger(o *options) error {
	if o.logger != nil {
		a.log = o.logger
		return nil
	}
	log, flush, err := logger.Open(a.cfg.Log, o.logOutput,
		middlewares.RequestIDExtractor(),
		middlewares.UserIDExtractor(),
	)
	if err != nil {
		return err
	}
	a.log, a.flushLog = log.With("app", a.cfg.App.Name, "env", a.cfg.App.Env), flush
	return nil
}

func (a *App) openConnections(ctx context.Context) error {
	a.dbm = db.NewManager(a.cfg.DB.Connections(), db.WithLogger(a.component("db")))
	conn, err := a.dbm.Default(ctx)
	if err != nil {
		return err
	}
	a.conn = conn

	if a.cfg.Redis.Enabled() {
		if a.redis, err = redis.Open(ctx, a.cfg.Redis, a.component("redis")); err != nil {
			return err
		}
	}
	if a.cfg.needsMemcache() {
		a.memcache = memcache.New(a.cfg.Cache.MemcachedServers...)
	}
	return nil
}

func (a *App) clients() cache.Clients {
	return cache.Clients{Redis: a.redis, Memcache: a.memcache}
}

func (a *App) buildServices(ctx context.Context, o *options) error {
	var err error
	cfg := a.cfg

	if a.langs, err = i18n.NewLanguages(cfg.App.Languages, cfg.App.Language); err != nil {
		return err
	}
	msgOpts := []i18n.Option{i18n.WithDefaultLanguage(a.langs.Default()), i18n.WithDefaults()}
	if cfg.App.Translations != "" {
		msgOpts = append(msgOpts, i18n.WithDir(os.DirFS(cfg.App.Translations)))
	}
	if a.messages, err = i18n.New(msgOpts...); err != nil {
		return err
	}

	if a.sessions, err = session.Open(cfg.Session, a.conn, cfg.Cache, a.clients()); err != nil {
		return err
	}

	tokens, err := jwt.New(cfg.JWT)
	if err != nil {
		return err
	}
	revoked, err := cache.Open[string](cfg.Cache, cfg.Cache.Driver, "revoked_tokens", a.clients())
	if err != nil {
		return err
	}
	listings, err := cache.Open[[]catalog.Movie](cfg.Cache, cfg.Cache.Driver, "movies", a.clients())
	if err != nil {
		return err
	}

	sender := o.sender
	switch {
	case sender != nil:
	case cfg.Resend.Enabled():
		sender = resend.New(cfg.Resend)
	default:
		sender = mailer.LogSender{Logger: a.component("mailer")}
	}
	a.mailer = mailer.New(sender, cfg.Mail)

	a.limiter = middlewares.NewLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)

	a.gc = &gcTask{log: a.component("gc"), schedule: cfg.Session.GC}
	if col, ok := a.sessions.(session.Collector); ok {
		a.gc.collectors = append(a.gc.collectors, collector{name: "sessions", gc: col.GC})
	}
	if col, ok := revoked.(cache.Collector); ok {
		a.gc.collectors = append(a.gc.collectors, collector{name: "revoked_tokens", gc: col.GC})
	}
	if col, ok := listings.(cache.Collector); ok {
		a.gc.collectors = append(a.gc.collectors, collector{name: "movies", gc: col.GC})
	}
	a.gc.collectors = append(a.gc.collectors, collector{name: "throttle", gc: func(context.Context) (int, error) {
		return a.limiter.Sweep(), nil
	}})

	var out mailer.Deliverer = a.mailer
	if cfg.Jobs.Enabled {
		if err := a.buildQueue(ctx); err != nil {
			return err
		}
		out = &queuedMailer{queue: a.queue}
	}

	a.auth = auth.NewManager(a.conn, tokens, revoked,
		auth.WithConfig(cfg.Auth),
		auth.WithNotifier(mailer.NewNotifier(out, cfg.App.Name, cfg.App.URL)),
		auth.WithLogger(a.component("auth")),
	)
	a.catalog = catalog.NewService(a.conn, listings,
		catalog.WithConfig(cfg.Catalog),
		catalog.WithLogger(a.component("catalog")),
	)

	payOpts := []payment.Option{
		payment.WithProvider(payment.NewSandbox(payment.MethodMTN)),
		payment.WithProvider(payment.NewSandbox(payment.MethodAirtel)),
		payment.WithConfig(cfg.Payment),
		payment.WithLogger(a.component("payment")),
	}
	for _, p := range o.providers {
		payOpts = append(payOpts, payment.WithProvider(p))
	}
	a.payments = payment.NewService(a.conn, payOpts...)

	switch {
	case o.storage != nil:
		a.storage = o.storage
	case cfg.Storage.Enabled():
		if a.storage, err = storage.NewS3(cfg.Storage); err != nil {
			return err
		}
	default:
		a.log.Warn("S3 storage not configured, uploads are kept in memory")
		a.storage = storage.NewMemory(cfg.App.URL + "/media")
	}

	return nil
}

// buildQueue opens a pgx pool next to the gateway's connection and moves
// mail delivery and garbage collection onto River.
func (a *App) buildQueue(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, a.cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("cineverse: job pool: %w", err)
	}
	a.pool = pool

	q, err := job.NewQueue(pool,
		job.WithTask[mailer.Message](&sendEmailTask{mailer: a.mailer}),
		job.WithScheduledTask(a.gc),
		job.WithWorkers(a.cfg.Jobs.Workers),
		job.WithLogger(a.component("jobs")),
	)
	if err != nil {
		return err
	}
	a.queue = q
	return nil
}

func (a *App) component(name string) *slog.Logger {
	return a.log.With("component", name)
}

// Config returns the configuration the app was built with.
func (a *App) Config() Config { return a.cfg }

// Logger returns the root logger.
func (a *App) Logger() *slog.Logger { return a.log }

// Handler returns the HTTP application.
func (a *App) Handler() *internal.App { return a.http }

// Auth returns the account manager, e.g. for CLI user administration.
func (a *App) Auth() *auth.Manager { return a.auth }

// Catalog returns the movie catalog service.
func (a *App) Catalog() *catalog.Service { return a.catalog }

// Payments returns the subscription payment service.
func (a *App) Payments() *payment.Service { return a.payments }

// Mailer returns the synchronous mailer.
func (a *App) Mailer() *mailer.Mailer { return a.mailer }

// Queue returns the job queue, or nil when jobs are disabled.
func (a *App) Queue() *job.Queue { return a.queue }

// Migrate applies pending schema migrations and, with jobs enabled, the
// River schema. It returns the applied migration names.
func (a *App) Migrate(ctx context.Context) ([]string, error) {
	m, err := a.migrator()
	if err != nil {
		return nil, err
	}
	applied, err := m.Up(ctx)
	if err != nil {
		return applied, err
	}
	if a.pool != nil {
		if err := job.Migrate(ctx, a.pool); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// MigrationStatus lists every known migration with its batch.
func (a *App) MigrationStatus(ctx context.Context) ([]db.MigrationStatus, error) {
	m, err := a.migrator()
	if err != nil {
		return nil, err
	}
	return m.Status(ctx)
}

func (a *App) migrator() (*db.Migrator, error) {
	files, err := migrations.For(a.conn.Dialect().String())
	if err != nil {
		return nil, err
	}
	return db.NewMigrator(a.conn, files,
		db.WithMigrationsTable(a.cfg.DB.MigrationsTable),
		db.WithMigrationLogger(a.component("migrate")),
	), nil
}

// CollectGarbage runs one garbage collection pass.
func (a *App) CollectGarbage(ctx context.Context) error {
	return a.gc.Handle(ctx)
}

// Run serves HTTP on the configured address until ctx is cancelled or the
// process is signalled. Garbage collection runs on the job queue when it
// is enabled and on an in-process cron otherwise.
func (a *App) Run(ctx context.Context) error {
	opts := []internal.RunOption{
		internal.Logger(a.component("server")),
		internal.ShutdownTimeout(a.cfg.HTTP.ShutdownTimeout),
	}
	if a.queue != nil {
		opts = append(opts, internal.Background("jobs", runQueue(a.queue, a.cfg.HTTP.ShutdownTimeout)))
	} else {
		opts = append(opts, internal.Background("gc", a.gc.runCron))
	}
	return a.http.Run(ctx, a.cfg.App.Addr, opts...)
}

// Close releases every connection. It is safe to call more than once.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		errs = append(errs, redis.Shutdown(a.redis)(context.Background()))
	}
	if a.memcache != nil {
		errs = append(errs, a.memcache.Close())
	}
	if a.dbm != nil {
		errs = append(errs, db.Shutdown(a.dbm)(context.Background()))
	}
	a.flushLog()
	return errors.Join(errs...)
}
