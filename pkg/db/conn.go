package db

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrymomot/cineverse/pkg/query"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn is a named database handle. Inside Transaction it is bound to the
// open transaction; otherwise statements run on the pool.
type Conn struct {
	db      *sql.DB
	tx      *sql.Tx
	name    string
	dialect Dialect
}

var _ query.Runner = (*Conn)(nil)

// Name returns the connection name.
func (c *Conn) Name() string { return c.name }

// Dialect returns the placeholder dialect of the connection.
func (c *Conn) Dialect() Dialect { return c.dialect }

// DB exposes the underlying pool.
func (c *Conn) DB() *sql.DB { return c.db }

// InTransaction reports whether the handle is bound to a transaction.
func (c *Conn) InTransaction() bool { return c.tx != nil }

// Table starts a query builder against the table.
func (c *Conn) Table(name string) *query.Builder {
	return query.New(c, name)
}

// Query runs a row-returning statement with named parameters.
func (c *Conn) Query(ctx context.Context, stmt string, params map[string]any) ([]query.Row, error) {
	compiled, args, err := c.dialect.compile(stmt, params)
	if err != nil {
		return nil, &Error{Op: "query", Query: stmt, Err: err}
	}

	rows, err := c.q().QueryContext(ctx, compiled, args...)
	if err != nil {
		return nil, &Error{Op: "query", Query: stmt, Err: err}
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, &Error{Op: "query", Query: stmt, Err: err}
	}
	return result, nil
}

// Select is an alias of Query.
func (c *Conn) Select(ctx context.Context, stmt string, params map[string]any) ([]query.Row, error) {
	return c.Query(ctx, stmt, params)
}

// QueryRow returns the first row or query.ErrNoRows.
func (c *Conn) QueryRow(ctx context.Context, stmt string, params map[string]any) (query.Row, error) {
	rows, err := c.Query(ctx, stmt, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, query.ErrNoRows
	}
	return rows[0], nil
}

// Exec runs a statement and returns the number of affected rows.
func (c *Conn) Exec(ctx context.Context, stmt string, params map[string]any) (int64, error) {
	compiled, args, err := c.dialect.compile(stmt, params)
	if err != nil {
		return 0, &Error{Op: "exec", Query: stmt, Err: err}
	}

	res, err := c.q().ExecContext(ctx, compiled, args...)
	if err != nil {
		return 0, &Error{Op: "exec", Query: stmt, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &Error{Op: "exec", Query: stmt, Err: err}
	}
	return n, nil
}

// InsertID runs an INSERT and returns the generated id column.
func (c *Conn) InsertID(ctx context.Context, stmt string, params map[string]any) (int64, error) {
	stmt = strings.TrimRight(strings.TrimSpace(stmt), ";") + " RETURNING id"
	compiled, args, err := c.dialect.compile(stmt, params)
	if err != nil {
		return 0, &Error{Op: "insert", Query: stmt, Err: err}
	}

	var id int64
	if err := c.q().QueryRowContext(ctx, compiled, args...).Scan(&id); err != nil {
		return 0, &Error{Op: "insert", Query: stmt, Err: err}
	}
	return id, nil
}

// Insert writes one row into table and returns its id.
func (c *Conn) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	return c.Table(table).Insert(ctx, values)
}

// Update sets values on rows matching the raw where clause.
// An empty where clause is refused.
func (c *Conn) Update(ctx context.Context, table string, values map[string]any, where string, params map[string]any) (int64, error) {
	if strings.TrimSpace(where) == "" {
		return 0, &query.PreconditionError{Op: "update", Table: table}
	}
	if len(values) == 0 {
		return 0, query.ErrNoValues
	}

	bindings := maps.Clone(params)
	if bindings == nil {
		bindings = make(map[string]any, len(values))
	}
	columns := slices.Sorted(maps.Keys(values))
	sets := make([]string, len(columns))
	for i, col := range columns {
		name := "set_" + col
		if _, taken := bindings[name]; taken {
			return 0, query.ErrBindingConflict
		}
		bindings[name] = values[col]
		sets[i] = col + " = :" + name
	}

	stmt := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE " + where
	return c.Exec(ctx, stmt, bindings)
}

// Delete removes rows matching the raw where clause.
// An empty where clause is refused.
func (c *Conn) Delete(ctx context.Context, table, where string, params map[string]any) (int64, error) {
	if strings.TrimSpace(where) == "" {
		return 0, &query.PreconditionError{Op: "delete", Table: table}
	}
	return c.Exec(ctx, "DELETE FROM "+table+" WHERE "+where, params)
}

// Ping verifies the connection is alive.
func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Conn) q() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

func scanRows(rows *sql.Rows) ([]query.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []query.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(query.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Healthcheck returns a check that pings the connection.
func Healthcheck(conn *Conn) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := conn.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
