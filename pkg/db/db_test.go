package db_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/db/dbtest"
	"github.com/dmitrymomot/cineverse/pkg/query"
)

const itemsTable = `CREATE TABLE items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	qty INTEGER NOT NULL DEFAULT 0
)`

func openItems(t *testing.T) *db.Conn {
	t.Helper()

	m := db.NewManager(map[string]db.ConnectionConfig{
		db.DefaultConnection: {Driver: "sqlite", DSN: ":memory:"},
	})
	t.Cleanup(func() { _ = m.Close() })

	conn, err := m.Default(context.Background())
	require.NoError(t, err)

	_, err = conn.Exec(context.Background(), itemsTable, nil)
	require.NoError(t, err)
	return conn
}

func countItems(t *testing.T, conn *db.Conn) int64 {
	t.Helper()

	n, err := conn.Table("items").Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestManager(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConnectionNotConfigured for unknown names", func(t *testing.T) {
		t.Parallel()

		m := db.NewManager(map[string]db.ConnectionConfig{})
		_, err := m.Connection(context.Background(), "reporting")
		require.ErrorIs(t, err, db.ErrConnectionNotConfigured)
	})

	t.Run("rejects unsupported drivers", func(t *testing.T) {
		t.Parallel()

		m := db.NewManager(map[string]db.ConnectionConfig{
			db.DefaultConnection: {Driver: "mysql", DSN: "root@/cineverse"},
		})
		_, err := m.Default(context.Background())
		require.ErrorIs(t, err, db.ErrUnsupportedDriver)
	})

	t.Run("opens each connection once", func(t *testing.T) {
		t.Parallel()

		m := db.NewManager(map[string]db.ConnectionConfig{
			db.DefaultConnection: {Driver: "sqlite", DSN: ":memory:"},
		})
		defer m.Close()

		first, err := m.Default(context.Background())
		require.NoError(t, err)
		second, err := m.Connection(context.Background(), "")
		require.NoError(t, err)

		require.Same(t, first, second)
		require.Equal(t, db.SQLite, first.Dialect())
		require.Equal(t, db.DefaultConnection, first.Name())
	})

	t.Run("fails after close", func(t *testing.T) {
		t.Parallel()

		m := db.NewManager(map[string]db.ConnectionConfig{
			db.DefaultConnection: {Driver: "sqlite", DSN: ":memory:"},
		})
		_, err := m.Default(context.Background())
		require.NoError(t, err)
		require.NoError(t, m.Close())

		_, err = m.Default(context.Background())
		require.ErrorIs(t, err, db.ErrManagerClosed)
	})

	t.Run("config expands the read replica", func(t *testing.T) {
		t.Parallel()

		cfg := db.Config{Driver: "pgsql", DSN: "postgres://primary", ReadDSN: "postgres://replica"}
		conns := cfg.Connections()

		require.Len(t, conns, 2)
		require.Equal(t, "postgres://replica", conns[db.ReadConnection].DSN)
		require.Equal(t, "pgsql", conns[db.ReadConnection].Driver)
	})
}

func TestConn_Statements(t *testing.T) {
	t.Parallel()

	t.Run("inserts and returns generated ids", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		ctx := context.Background()

		id1, err := conn.Insert(ctx, "items", map[string]any{"name": "popcorn", "qty": 3})
		require.NoError(t, err)
		id2, err := conn.Insert(ctx, "items", map[string]any{"name": "soda", "qty": 1})
		require.NoError(t, err)

		require.Equal(t, int64(1), id1)
		require.Equal(t, int64(2), id2)
	})

	t.Run("binds a repeated named parameter", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		ctx := context.Background()
		_, err := conn.Insert(ctx, "items", map[string]any{"name": "popcorn", "qty": 3})
		require.NoError(t, err)

		rows, err := conn.Query(ctx,
			"SELECT name FROM items WHERE qty = :n OR id = :n OR name = :name",
			map[string]any{"n": 3, "name": "none"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, "popcorn", rows[0].String("name"))
	})

	t.Run("leaves colons inside literals alone", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		row, err := conn.QueryRow(context.Background(), "SELECT ':not_a_param' AS s", nil)
		require.NoError(t, err)
		require.Equal(t, ":not_a_param", row.String("s"))
	})

	t.Run("reports missing bindings as database errors", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		_, err := conn.Query(context.Background(), "SELECT * FROM items WHERE id = :id", nil)

		require.ErrorIs(t, err, db.ErrMissingBinding)
		var dbErr *db.Error
		require.True(t, errors.As(err, &dbErr))
		require.Equal(t, "query", dbErr.Op)
	})

	t.Run("wraps driver failures", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		_, err := conn.Exec(context.Background(), "INSERT INTO missing_table (x) VALUES (1)", nil)

		var dbErr *db.Error
		require.True(t, errors.As(err, &dbErr))
		require.Contains(t, dbErr.Error(), "missing_table")
	})

	t.Run("detects unique violations", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		ctx := context.Background()
		_, err := conn.Insert(ctx, "items", map[string]any{"name": "popcorn"})
		require.NoError(t, err)

		_, err = conn.Insert(ctx, "items", map[string]any{"name": "popcorn"})
		require.Error(t, err)
		require.True(t, db.IsUniqueViolation(err))
		require.False(t, db.IsUniqueViolation(errors.New("boom")))
	})

	t.Run("update and delete refuse empty where clauses", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		ctx := context.Background()

		_, err := conn.Update(ctx, "items", map[string]any{"qty": 0}, "", nil)
		require.ErrorIs(t, err, query.ErrPrecondition)

		_, err = conn.Delete(ctx, "items", "  ", nil)
		require.ErrorIs(t, err, query.ErrPrecondition)
	})

	t.Run("update and delete report affected rows", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		ctx := context.Background()
		for _, name := range []string{"a", "b", "c"} {
			_, err := conn.Insert(ctx, "items", map[string]any{"name": name, "qty": 1})
			require.NoError(t, err)
		}

		n, err := conn.Update(ctx, "items", map[string]any{"qty": 5}, "name <> :name", map[string]any{"name": "a"})
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		n, err = conn.Delete(ctx, "items", "qty = :qty", map[string]any{"qty": 5})
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
		require.Equal(t, int64(1), countItems(t, conn))
	})
}

func TestConn_Transaction(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		err := conn.Transaction(context.Background(), func(tx *db.Conn) error {
			require.True(t, tx.InTransaction())
			_, err := tx.Insert(context.Background(), "items", map[string]any{"name": "popcorn"})
			return err
		})

		require.NoError(t, err)
		require.Equal(t, int64(1), countItems(t, conn))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		boom := errors.New("boom")
		err := conn.Transaction(context.Background(), func(tx *db.Conn) error {
			if _, err := tx.Insert(context.Background(), "items", map[string]any{"name": "popcorn"}); err != nil {
				return err
			}
			return boom
		})

		require.ErrorIs(t, err, boom)
		require.Equal(t, int64(0), countItems(t, conn))
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		require.PanicsWithValue(t, "boom", func() {
			_ = conn.Transaction(context.Background(), func(tx *db.Conn) error {
				_, _ = tx.Insert(context.Background(), "items", map[string]any{"name": "popcorn"})
				panic("boom")
			})
		})
		require.Equal(t, int64(0), countItems(t, conn))
	})

	t.Run("nested transactions run inline", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		err := db.WithTx(context.Background(), conn, func(tx *db.Conn) error {
			return tx.Transaction(context.Background(), func(inner *db.Conn) error {
				require.Same(t, tx, inner)
				_, err := inner.Insert(context.Background(), "items", map[string]any{"name": "nested"})
				return err
			})
		})

		require.NoError(t, err)
		require.Equal(t, int64(1), countItems(t, conn))
	})
}

func TestConn_Paginate(t *testing.T) {
	t.Parallel()

	conn := openItems(t)
	ctx := context.Background()
	for i := range 7 {
		_, err := conn.Insert(ctx, "items", map[string]any{"name": string(rune('a' + i)), "qty": i})
		require.NoError(t, err)
	}

	page, err := conn.Table("items").Where("qty", ">=", 1).OrderBy("qty", "desc").Paginate(ctx, 2, 4)
	require.NoError(t, err)

	require.Equal(t, int64(6), page.Total)
	require.Equal(t, 2, page.LastPage)
	require.Equal(t, 5, page.From)
	require.Equal(t, 6, page.To)
	require.Len(t, page.Data, 2)
	require.Equal(t, int64(2), page.Data[0].Int64("qty"))
	require.Equal(t, int64(1), page.Data[1].Int64("qty"))
}

func TestMigrator(t *testing.T) {
	t.Parallel()

	t.Run("applies pending files in batches", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		ctx := context.Background()
		files := fstest.MapFS{
			"0001_genres.sql": {Data: []byte("-- genres\nCREATE TABLE genres (id INTEGER PRIMARY KEY, name TEXT);\nINSERT INTO genres (name) VALUES ('Drama; Romance');")},
			"0002_tags.sql":   {Data: []byte("CREATE TABLE tags (id INTEGER PRIMARY KEY);")},
			"README.md":       {Data: []byte("not a migration")},
		}

		applied, err := db.NewMigrator(conn, files).Up(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"0001_genres.sql", "0002_tags.sql"}, applied)

		applied, err = db.NewMigrator(conn, files).Up(ctx)
		require.NoError(t, err)
		require.Empty(t, applied)

		files["0003_extra.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE extra (id INTEGER PRIMARY KEY);")}
		_, err = db.NewMigrator(conn, files).Up(ctx)
		require.NoError(t, err)

		status, err := db.NewMigrator(conn, files).Status(ctx)
		require.NoError(t, err)
		require.Len(t, status, 3)
		require.Equal(t, 1, status[0].Batch)
		require.Equal(t, 1, status[1].Batch)
		require.Equal(t, 2, status[2].Batch)
		for _, s := range status {
			require.True(t, s.Applied)
			require.NotNil(t, s.ExecutedAt)
		}

		row, err := conn.QueryRow(ctx, "SELECT name FROM genres", nil)
		require.NoError(t, err)
		require.Equal(t, "Drama; Romance", row.String("name"))
	})

	t.Run("rolls back a failing file and stops", func(t *testing.T) {
		t.Parallel()

		conn := openItems(t)
		files := fstest.MapFS{
			"0001_ok.sql":  {Data: []byte("CREATE TABLE ok (id INTEGER PRIMARY KEY);")},
			"0002_bad.sql": {Data: []byte("CREATE TABLE bad (id INTEGER PRIMARY KEY); INSERT INTO nowhere VALUES (1);")},
		}

		applied, err := db.NewMigrator(conn, files).Up(context.Background())
		require.ErrorIs(t, err, db.ErrApplyMigrations)
		require.Equal(t, []string{"0001_ok.sql"}, applied)

		status, err := db.NewMigrator(conn, files).Status(context.Background())
		require.NoError(t, err)
		require.True(t, status[0].Applied)
		require.False(t, status[1].Applied)
	})

	t.Run("embedded schema applies cleanly", func(t *testing.T) {
		t.Parallel()

		conn := dbtest.Open(t)
		n, err := conn.Table("genres").Count(context.Background())
		require.NoError(t, err)
		require.Positive(t, n)
	})
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	script := `-- leading comment
CREATE TABLE a (id INTEGER);
/* block; comment */
INSERT INTO a VALUES (1);
INSERT INTO a (s) VALUES ('x;y');
-- trailing comment only
`
	stmts := db.SplitStatements(script)

	require.Len(t, stmts, 3)
	require.Equal(t, "-- leading comment\nCREATE TABLE a (id INTEGER)", stmts[0])
	require.Equal(t, "/* block; comment */\nINSERT INTO a VALUES (1)", stmts[1])
	require.Equal(t, "INSERT INTO a (s) VALUES ('x;y')", stmts[2])
}
