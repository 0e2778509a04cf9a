package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrConnectionNotConfigured  = errors.New("db: connection not configured")
	ErrUnsupportedDriver        = errors.New("db: unsupported database driver")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrMissingBinding           = errors.New("db: missing value for named parameter")
	ErrManagerClosed            = errors.New("db: manager is closed")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")
	ErrReadMigrations           = errors.New("db migrator: failed to read migrations")
)

// Error wraps a driver failure with the operation and statement that caused it.
type Error struct {
	Err   error
	Op    string
	Query string
}

func (e *Error) Error() string {
	return "db: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUniqueViolation reports whether err is a unique constraint violation
// raised by any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
