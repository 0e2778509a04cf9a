package cineverse

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
	"github.com/dmitrymomot/cineverse/pkg/cookie"
	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/jwt"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/mailer"
	"github.com/dmitrymomot/cineverse/pkg/mailer/resend"
	"github.com/dmitrymomot/cineverse/pkg/payment"
	"github.com/dmitrymomot/cineverse/pkg/redis"
	"github.com/dmitrymomot/cineverse/pkg/session"
	"github.com/dmitrymomot/cineverse/pkg/storage"
)

// AppConfig holds application-wide settings.
type AppConfig struct {
	Name      string   `env:"APP_NAME" envDefault:"CineVerse"`
	Env       string   `env:"APP_ENV" envDefault:"production"`
	URL       string   `env:"APP_URL" envDefault:"http://localhost:8000"`
	Addr      string   `env:"APP_ADDR" envDefault:":8000"`
	Key       string   `env:"APP_KEY"`
	Languages []string `env:"SUPPORTED_LANGUAGES" envDefault:"en,rw,fr" envSeparator:","`
	Language  string   `env:"APP_LOCALE" envDefault:"en"`
	// Translations is a directory of {lang}/messages.yaml files layered
	// over the bundled messages.
	Translations string `env:"APP_TRANSLATIONS_DIR"`
	Debug        bool   `env:"APP_DEBUG" envDefault:"false"`
}

// HTTPConfig holds server and API protection settings.
type HTTPConfig struct {
	CORSOrigins       []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RequestTimeout    time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
	MaxBodySize       int64         `env:"HTTP_MAX_BODY_SIZE" envDefault:"10485760"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
}

// JobsConfig enables the River job queue. It needs the pgsql driver.
type JobsConfig struct {
	Workers int  `env:"JOBS_WORKERS" envDefault:"10"`
	Enabled bool `env:"JOBS_ENABLED" envDefault:"false"`
}

// Config is the complete application configuration.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Log     logger.Config
	Cookie  cookie.Config
	DB      db.Config
	Redis   redis.Config
	Cache   cache.Config
	Session session.Config
	JWT     jwt.Config
	Auth    auth.Config
	Catalog catalog.Config
	Payment payment.Config
	Storage storage.Config
	Mail    mailer.Config
	Resend  resend.Config
	Jobs    JobsConfig
}

// Configuration errors.
var (
	ErrShortAppKey     = errors.New("cineverse: APP_KEY must be at least 32 bytes")
	ErrJobsNeedPgsql   = errors.New("cineverse: JOBS_ENABLED requires DB_CONNECTION=pgsql")
	ErrRedisNotEnabled = errors.New("cineverse: driver redis requires REDIS_URL")
)

// LoadConfig parses the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("cineverse: parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	var errs []error
	if c.App.Key != "" && len(c.App.Key) < cookie.MinSecretLength {
		errs = append(errs, ErrShortAppKey)
	}
	if c.Jobs.Enabled && c.DB.Driver != "pgsql" {
		errs = append(errs, ErrJobsNeedPgsql)
	}
	if !c.Redis.Enabled() && (c.Cache.Driver == cache.DriverRedis || c.Session.Driver == cache.DriverRedis) {
		errs = append(errs, ErrRedisNotEnabled)
	}
	return errors.Join(errs...)
}

func (c Config) needsMemcache() bool {
	return c.Cache.Driver == cache.DriverMemcached || c.Session.Driver == cache.DriverMemcached
}
