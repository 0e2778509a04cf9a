package session

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/db"
)

// DriverDatabase keeps sessions in the sessions table. Every other driver
// name is a cache driver.
const DriverDatabase = "database"

// Config holds session settings.
type Config struct {
	Driver   string        `env:"SESSION_DRIVER" envDefault:"database"`
	Cookie   string        `env:"SESSION_COOKIE" envDefault:"cineverse_session"`
	Domain   string        `env:"SESSION_DOMAIN"`
	GC       string        `env:"SESSION_GC_SCHEDULE" envDefault:"@every 30m"`
	Lifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"120m"`
	Secure   bool          `env:"SESSION_SECURE" envDefault:"false"`
}

// Open builds the store selected by cfg.Driver. Cache drivers reuse the
// cache configuration with the "sessions" namespace.
func Open(cfg Config, conn *db.Conn, cacheCfg cache.Config, clients cache.Clients) (Store, error) {
	switch cfg.Driver {
	case DriverDatabase, "":
		if conn == nil {
			return nil, fmt.Errorf("%w: database driver without a connection", ErrNotConfigured)
		}
		return NewDBStore(conn), nil
	case cache.DriverMemory, cache.DriverFile, cache.DriverRedis, cache.DriverMemcached:
		records, err := cache.Open[Record](cacheCfg, cfg.Driver, "sessions", clients)
		if err != nil {
			return nil, err
		}
		refs, err := cache.Open[string](cacheCfg, cfg.Driver, "session_refs", clients)
		if err != nil {
			return nil, err
		}
		return NewCacheStore(records, refs), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
