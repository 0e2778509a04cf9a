// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/migrations"
	"github.com/dmitrymomot/cineverse/pkg/db"
)

// Open returns a connection to a fresh in-memory database with the full
// schema applied. The connection is closed when the test ends.
func Open(t testing.TB) *db.Conn {
	t.Helper()

	ctx := context.Background()
	m := db.NewManager(map[string]db.ConnectionConfig{
		db.DefaultConnection: {Driver: "sqlite", DSN: ":memory:"},
	})
	t.Cleanup(func() { _ = m.Close() })

	conn, err := m.Default(ctx)
	require.NoError(t, err)

	files, err := migrations.For("sqlite")
	require.NoError(t, err)

	_, err = db.NewMigrator(conn, files).Up(ctx)
	require.NoError(t, err)

	return conn
}
