package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open opens a single connection pool for cfg and verifies it with a ping.
// Attempts back off linearly: RetryInterval, 2x, 3x, ...
func Open(ctx context.Context, name string, cfg ConnectionConfig) (*Conn, error) {
	dialect, driverName, err := resolveDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dialect == SQLite {
		dsn = sqliteDSN(dsn)
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
			case <-time.After(time.Duration(i) * cfg.RetryInterval):
			}
		}

		sqlDB, err := sql.Open(driverName, dsn)
		if err != nil {
			lastErr = err
			continue
		}
		configurePool(sqlDB, dialect, cfg)

		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			lastErr = err
			continue
		}

		return &Conn{name: name, dialect: dialect, db: sqlDB}, nil
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

func configurePool(sqlDB *sql.DB, dialect Dialect, cfg ConnectionConfig) {
	if dialect == SQLite {
		// One connection keeps in-memory databases alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxIdleTime(0)
		sqlDB.SetConnMaxLifetime(0)
		return
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
}

// sqliteDSN enables foreign keys and ISO timestamps unless the DSN already
// configures them.
func sqliteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
