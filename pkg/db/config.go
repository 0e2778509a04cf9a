package db

import "time"

// DefaultConnection is the name of the connection used when none is given.
const DefaultConnection = "default"

// ReadConnection is the name of the optional read replica connection.
const ReadConnection = "read"

// Config holds database settings loaded from the environment.
type Config struct {
	// Driver selects the SQL driver: pgsql (pgx), postgres (lib/pq) or sqlite.
	Driver string `env:"DB_CONNECTION" envDefault:"pgsql"`

	// Data source name of the default connection.
	DSN string `env:"DB_DSN,required"`

	// Optional replica DSN registered as the "read" connection with the same driver.
	ReadDSN string `env:"DB_READ_DSN"`

	// Name of the migrations ledger table.
	MigrationsTable string `env:"DB_MIGRATIONS_TABLE" envDefault:"migrations"`

	// Pool sizing. SQLite connections always use a single connection.
	MaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`

	// Recycle connections so failovers and poolers are picked up.
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`

	// Startup retries with linear backoff.
	RetryAttempts int           `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"DB_RETRY_INTERVAL" envDefault:"5s"`
}

// ConnectionConfig describes a single named connection.
type ConnectionConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
	RetryAttempts   int
	RetryInterval   time.Duration
}

// Connections expands the config into named connection configs.
func (c Config) Connections() map[string]ConnectionConfig {
	base := ConnectionConfig{
		Driver:          c.Driver,
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		MaxConnIdleTime: c.MaxConnIdleTime,
		MaxConnLifetime: c.MaxConnLifetime,
		RetryAttempts:   c.RetryAttempts,
		RetryInterval:   c.RetryInterval,
	}

	conns := map[string]ConnectionConfig{DefaultConnection: base}
	if c.ReadDSN != "" {
		read := base
		read.DSN = c.ReadDSN
		conns[ReadConnection] = read
	}
	return conns
}
