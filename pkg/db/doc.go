// Package db is the database gateway: named connections, named-parameter
// statements, transactions and a migrations ledger over database/sql.
//
// # Drivers
//
// The configured driver name selects both the database/sql driver and the
// placeholder dialect:
//
//	pgsql     - github.com/jackc/pgx/v5/stdlib ($n placeholders)
//	postgres  - github.com/lib/pq ($n placeholders)
//	sqlite    - modernc.org/sqlite (? placeholders, single connection)
//
// # Configuration
//
// All settings are loaded from environment variables:
//
//	DB_CONNECTION         - Driver name (default: pgsql)
//	DB_DSN                - Data source name of the default connection (required)
//	DB_READ_DSN           - Optional replica registered as the "read" connection
//	DB_MIGRATIONS_TABLE   - Ledger table name (default: migrations)
//	DB_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DB_MAX_IDLE_CONNS     - Maximum idle connections (default: 5)
//	DB_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DB_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DB_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DB_RETRY_INTERVAL     - Base retry interval (default: 5s)
//
// # Usage
//
//	manager := db.NewManager(cfg.Connections(), db.WithLogger(log))
//	defer manager.Close()
//
//	conn, err := manager.Default(ctx)
//	if err != nil {
//		return err
//	}
//
//	rows, err := conn.Query(ctx,
//		"SELECT id, title FROM movies WHERE status = :status",
//		map[string]any{"status": "released"},
//	)
//
// Connections are opened on first use and cached for the lifetime of the
// manager. Named parameters (:name) are rewritten to the driver's
// placeholder form; a name used twice binds the same value. A name with no
// value in the params map fails with [ErrMissingBinding] before anything is
// sent to the server.
//
// [Conn] implements [github.com/dmitrymomot/cineverse/pkg/query.Runner], so
// conn.Table("movies") starts a fluent query builder.
//
// # Transactions
//
//	err := conn.Transaction(ctx, func(tx *db.Conn) error {
//		_, err := tx.Insert(ctx, "watchlists", values)
//		return err
//	})
//
// The transaction rolls back when fn returns an error or panics. A nested
// Transaction call on tx runs inline on the same transaction.
//
// # Migrations
//
// [Migrator] applies *.sql files in filename order and records each one in a
// ledger table of (migration, batch, executed_at). All files applied by one
// Up call share a batch number one higher than the previous maximum.
//
//	files, _ := migrations.For(conn.Dialect().String())
//	applied, err := db.NewMigrator(conn, files).Up(ctx)
//
// # Error Handling
//
// Driver failures are returned as [*Error] carrying the operation and the
// statement. [IsUniqueViolation] recognises unique constraint failures from
// all three drivers.
package db
