package query

import (
	"context"
	"errors"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Runner executes assembled SQL with named bindings.
// The database gateway implements it; tests may substitute a recorder.
type Runner interface {
	// Select runs a row-returning statement.
	Select(ctx context.Context, query string, params map[string]any) ([]Row, error)

	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, params map[string]any) (int64, error)

	// InsertID runs an INSERT and returns the generated identifier.
	InsertID(ctx context.Context, query string, params map[string]any) (int64, error)
}

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.([A-Za-z_][A-Za-z0-9_]*|\*))?$`)
	nonWordPattern    = regexp.MustCompile(`\W`)
)

var operators = map[string]struct{}{
	"=": {}, "!=": {}, "<>": {}, "<": {}, "<=": {}, ">": {}, ">=": {},
	"LIKE": {}, "NOT LIKE": {},
}

type condition struct {
	boolean string
	expr    string
}

// Builder accumulates the clauses of a single statement against one table.
// A Builder is not safe for concurrent use.
type Builder struct {
	runner   Runner
	err      error
	bindings map[string]any
	table    string
	columns  []string
	joins    []string
	wheres   []condition
	groups   []string
	havings  []string
	orders   []string
	limit    int
	offset   int
}

// New creates a builder for the given table.
func New(r Runner, table string) *Builder {
	return &Builder{
		runner:   r,
		table:    table,
		columns:  []string{"*"},
		bindings: make(map[string]any),
		limit:    -1,
		offset:   -1,
	}
}

// Table returns the table the builder targets.
func (b *Builder) Table() string {
	return b.table
}

// Err returns the first error recorded by a chained call.
func (b *Builder) Err() error {
	return b.err
}

// Select replaces the select list. Expressions are used verbatim.
func (b *Builder) Select(columns ...string) *Builder {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	b.columns = slices.Clone(columns)
	return b
}

// Where adds an AND condition comparing column to value.
func (b *Builder) Where(column, op string, value any) *Builder {
	return b.where("AND", column, op, value)
}

// WhereEq is shorthand for Where(column, "=", value).
func (b *Builder) WhereEq(column string, value any) *Builder {
	return b.where("AND", column, "=", value)
}

// OrWhere adds an OR condition comparing column to value.
func (b *Builder) OrWhere(column, op string, value any) *Builder {
	return b.where("OR", column, op, value)
}

// WhereIn adds "column IN (...)". An empty list matches nothing.
func (b *Builder) WhereIn(column string, values []any) *Builder {
	if !b.checkIdentifier(column) {
		return b
	}
	if len(values) == 0 {
		b.wheres = append(b.wheres, condition{boolean: "AND", expr: "1 = 0"})
		return b
	}
	base := placeholderBase(column)
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.bind(base+"_"+strconv.Itoa(i), v)
	}
	b.wheres = append(b.wheres, condition{
		boolean: "AND",
		expr:    column + " IN (" + strings.Join(placeholders, ", ") + ")",
	})
	return b
}

// WhereLike adds "column LIKE pattern". The pattern is bound, not escaped.
func (b *Builder) WhereLike(column, pattern string) *Builder {
	return b.where("AND", column, "LIKE", pattern)
}

// OrWhereLike adds "OR column LIKE pattern".
func (b *Builder) OrWhereLike(column, pattern string) *Builder {
	return b.where("OR", column, "LIKE", pattern)
}

// WhereNull adds "column IS NULL".
func (b *Builder) WhereNull(column string) *Builder {
	if b.checkIdentifier(column) {
		b.wheres = append(b.wheres, condition{boolean: "AND", expr: column + " IS NULL"})
	}
	return b
}

// WhereNotNull adds "column IS NOT NULL".
func (b *Builder) WhereNotNull(column string) *Builder {
	if b.checkIdentifier(column) {
		b.wheres = append(b.wheres, condition{boolean: "AND", expr: column + " IS NOT NULL"})
	}
	return b
}

// WhereRaw adds a verbatim AND condition with its own named parameters.
// Parameter names must not collide with bindings already on the builder.
func (b *Builder) WhereRaw(expr string, params map[string]any) *Builder {
	for name, v := range params {
		if _, taken := b.bindings[name]; taken {
			b.fail(ErrBindingConflict)
			return b
		}
		b.bindings[name] = v
	}
	b.wheres = append(b.wheres, condition{boolean: "AND", expr: "(" + expr + ")"})
	return b
}

// Join adds an INNER JOIN.
func (b *Builder) Join(table, first, op, second string) *Builder {
	return b.join("INNER JOIN", table, first, op, second)
}

// LeftJoin adds a LEFT JOIN.
func (b *Builder) LeftJoin(table, first, op, second string) *Builder {
	return b.join("LEFT JOIN", table, first, op, second)
}

// OrderBy appends an ORDER BY term. Direction is ASC unless "desc" is given.
func (b *Builder) OrderBy(column, direction string) *Builder {
	if !b.checkIdentifier(column) {
		return b
	}
	dir := "ASC"
	if strings.EqualFold(strings.TrimSpace(direction), "desc") {
		dir = "DESC"
	}
	b.orders = append(b.orders, column+" "+dir)
	return b
}

// GroupBy appends GROUP BY columns.
func (b *Builder) GroupBy(columns ...string) *Builder {
	for _, c := range columns {
		if !b.checkIdentifier(c) {
			return b
		}
	}
	b.groups = append(b.groups, columns...)
	return b
}

// Having adds a HAVING condition on an aggregate expression.
func (b *Builder) Having(expr, op string, value any) *Builder {
	op = strings.ToUpper(strings.TrimSpace(op))
	if _, ok := operators[op]; !ok {
		b.fail(ErrInvalidOperator)
		return b
	}
	b.havings = append(b.havings, expr+" "+op+" "+b.bind("having", value))
	return b
}

// Limit sets the LIMIT clause. Negative values remove it.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset sets the OFFSET clause. Negative values remove it.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

// Clone returns an independent copy of the builder state.
func (b *Builder) Clone() *Builder {
	return &Builder{
		runner:   b.runner,
		err:      b.err,
		bindings: maps.Clone(b.bindings),
		table:    b.table,
		columns:  slices.Clone(b.columns),
		joins:    slices.Clone(b.joins),
		wheres:   slices.Clone(b.wheres),
		groups:   slices.Clone(b.groups),
		havings:  slices.Clone(b.havings),
		orders:   slices.Clone(b.orders),
		limit:    b.limit,
		offset:   b.offset,
	}
}

// ToSQL returns the SELECT statement and a copy of its bindings.
func (b *Builder) ToSQL() (string, map[string]any) {
	return b.selectSQL(), maps.Clone(b.bindings)
}

// Get executes the SELECT and returns all rows.
func (b *Builder) Get(ctx context.Context) ([]Row, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	return b.runner.Select(ctx, b.selectSQL(), maps.Clone(b.bindings))
}

// First returns the first row or ErrNoRows.
func (b *Builder) First(ctx context.Context) (Row, error) {
	rows, err := b.Clone().Limit(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}

// Exists reports whether at least one row matches.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	rows, err := b.Clone().Select("1 AS found").Limit(1).Get(ctx)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Count returns the number of matching rows.
// The select list, ordering and paging are restored before Count returns.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}

	columns, orders, limit, offset := b.columns, b.orders, b.limit, b.offset
	defer func() {
		b.columns, b.orders, b.limit, b.offset = columns, orders, limit, offset
	}()

	b.orders, b.limit, b.offset = nil, -1, -1

	var stmt string
	if len(b.groups) > 0 {
		stmt = "SELECT COUNT(*) AS count FROM (" + b.selectSQL() + ") AS counted"
	} else {
		b.columns = []string{"COUNT(*) AS count"}
		stmt = b.selectSQL()
	}

	rows, err := b.runner.Select(ctx, stmt, maps.Clone(b.bindings))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int64("count"), nil
}

// Insert writes one row and returns its generated identifier.
func (b *Builder) Insert(ctx context.Context, values map[string]any) (int64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, ErrNoValues
	}

	columns := slices.Sorted(maps.Keys(values))
	placeholders := make([]string, len(columns))
	params := make(map[string]any, len(columns))
	for i, col := range columns {
		if !identifierPattern.MatchString(col) {
			return 0, errors.Join(ErrInvalidIdentifier, errors.New(col))
		}
		name := placeholderBase(col)
		placeholders[i] = ":" + name
		params[name] = values[col]
	}

	stmt := "INSERT INTO " + b.table +
		" (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	return b.runner.InsertID(ctx, stmt, params)
}

// Update sets values on matching rows and returns the affected row count.
// It fails with a *PreconditionError when no WHERE condition is present.
func (b *Builder) Update(ctx context.Context, values map[string]any) (int64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	if len(b.wheres) == 0 {
		return 0, &PreconditionError{Op: "update", Table: b.table}
	}
	if len(values) == 0 {
		return 0, ErrNoValues
	}

	q := b.Clone()
	columns := slices.Sorted(maps.Keys(values))
	sets := make([]string, len(columns))
	for i, col := range columns {
		if !identifierPattern.MatchString(col) {
			return 0, errors.Join(ErrInvalidIdentifier, errors.New(col))
		}
		sets[i] = col + " = " + q.bind("set_"+placeholderBase(col), values[col])
	}

	stmt := "UPDATE " + q.table + " SET " + strings.Join(sets, ", ") + " WHERE " + q.whereSQL()
	return q.runner.Exec(ctx, stmt, maps.Clone(q.bindings))
}

// Delete removes matching rows and returns the affected row count.
// It fails with a *PreconditionError when no WHERE condition is present.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	if len(b.wheres) == 0 {
		return 0, &PreconditionError{Op: "delete", Table: b.table}
	}

	stmt := "DELETE FROM " + b.table + " WHERE " + b.whereSQL()
	return b.runner.Exec(ctx, stmt, maps.Clone(b.bindings))
}

func (b *Builder) where(boolean, column, op string, value any) *Builder {
	if !b.checkIdentifier(column) {
		return b
	}
	op = strings.ToUpper(strings.TrimSpace(op))
	if _, ok := operators[op]; !ok {
		b.fail(ErrInvalidOperator)
		return b
	}
	placeholder := b.bind(placeholderBase(column), value)
	b.wheres = append(b.wheres, condition{boolean: boolean, expr: column + " " + op + " " + placeholder})
	return b
}

func (b *Builder) join(kind, table, first, op, second string) *Builder {
	if _, ok := operators[op]; !ok {
		b.fail(ErrInvalidOperator)
		return b
	}
	if !b.checkIdentifier(first) || !b.checkIdentifier(second) {
		return b
	}
	b.joins = append(b.joins, kind+" "+table+" ON "+first+" "+op+" "+second)
	return b
}

// bind stores value under a unique name derived from base and returns the
// placeholder text.
func (b *Builder) bind(base string, value any) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := b.bindings[name]; !taken {
			break
		}
		name = base + strconv.Itoa(i)
	}
	b.bindings[name] = value
	return ":" + name
}

func (b *Builder) selectSQL() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if len(b.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(b.whereSQL())
	}
	if len(b.groups) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groups, ", "))
	}
	if len(b.havings) > 0 {
		sb.WriteString(" HAVING ")
		sb.WriteString(strings.Join(b.havings, " AND "))
	}
	if len(b.orders) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orders, ", "))
	}
	switch {
	case b.limit >= 0:
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	case b.offset > 0:
		// SQLite rejects OFFSET without LIMIT and PostgreSQL rejects a
		// negative LIMIT; the largest BIGINT works for both.
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(math.MaxInt64, 10))
	}
	if b.offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}
	return sb.String()
}

func (b *Builder) whereSQL() string {
	var sb strings.Builder
	for i, w := range b.wheres {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(w.boolean)
			sb.WriteString(" ")
		}
		sb.WriteString(w.expr)
	}
	return sb.String()
}

func (b *Builder) checkIdentifier(name string) bool {
	if identifierPattern.MatchString(name) {
		return true
	}
	b.fail(errors.Join(ErrInvalidIdentifier, errors.New(name)))
	return false
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) ready() error {
	if b.err != nil {
		return b.err
	}
	if b.runner == nil {
		return ErrNoRunner
	}
	return nil
}

func placeholderBase(column string) string {
	return nonWordPattern.ReplaceAllString(column, "_")
}

// Values converts a typed slice for use with WhereIn.
func Values[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
