// Package migrations embeds the CineVerse schema for each supported dialect.
package migrations

import (
	"embed"
	"errors"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// ErrUnknownDialect is returned for dialects without an embedded schema.
var ErrUnknownDialect = errors.New("migrations: unknown dialect")

// For returns the migration files for the dialect name ("postgres" or "sqlite").
func For(dialect string) (fs.FS, error) {
	switch dialect {
	case "postgres", "sqlite":
		return fs.Sub(files, dialect)
	default:
		return nil, errors.Join(ErrUnknownDialect, errors.New(dialect))
	}
}
