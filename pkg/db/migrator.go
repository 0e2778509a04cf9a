package db

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"
)

// MigrationStatus describes one migration file and its ledger entry.
type MigrationStatus struct {
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	Name       string     `json:"migration"`
	Batch      int        `json:"batch"`
	Applied    bool       `json:"applied"`
}

// Migrator applies *.sql files from a filesystem and records them in a
// ledger table of (migration, batch, executed_at).
type Migrator struct {
	conn   *Conn
	files  fs.FS
	logger *slog.Logger
	table  string
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithMigrationsTable overrides the ledger table name.
func WithMigrationsTable(name string) MigratorOption {
	return func(m *Migrator) {
		if name != "" {
			m.table = name
		}
	}
}

// WithMigrationLogger sets the logger for applied migrations.
func WithMigrationLogger(l *slog.Logger) MigratorOption {
	return func(m *Migrator) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMigrator creates a migrator reading migrations from the root of files.
func NewMigrator(conn *Conn, files fs.FS, opts ...MigratorOption) *Migrator {
	m := &Migrator{
		conn:   conn,
		files:  files,
		table:  "migrations",
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Migrate applies all pending migrations in one batch.
func Migrate(ctx context.Context, conn *Conn, files fs.FS, table string, log *slog.Logger) error {
	_, err := NewMigrator(conn, files, WithMigrationsTable(table), WithMigrationLogger(log)).Up(ctx)
	return err
}

// Up runs every pending migration in filename order. Each file runs in its
// own transaction and is recorded with the next batch number. It returns the
// names of the applied files.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureLedger(ctx); err != nil {
		return nil, err
	}

	names, err := m.available()
	if err != nil {
		return nil, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, name := range names {
		if _, ok := applied[name]; !ok {
			pending = append(pending, name)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	row, err := m.conn.QueryRow(ctx, "SELECT COALESCE(MAX(batch), 0) AS batch FROM "+m.table, nil)
	if err != nil {
		return nil, errors.Join(ErrApplyMigrations, err)
	}
	batch := row.Int("batch") + 1

	var done []string
	for _, name := range pending {
		body, err := fs.ReadFile(m.files, name)
		if err != nil {
			return done, errors.Join(ErrReadMigrations, err)
		}

		err = m.conn.Transaction(ctx, func(tx *Conn) error {
			for _, stmt := range SplitStatements(string(body)) {
				if _, err := tx.Exec(ctx, stmt, nil); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO "+m.table+" (migration, batch, executed_at) VALUES (:migration, :batch, :executed_at)",
				map[string]any{"migration": name, "batch": batch, "executed_at": time.Now().UTC()},
			)
			return err
		})
		if err != nil {
			return done, errors.Join(ErrApplyMigrations, errors.New(name), err)
		}

		m.logger.InfoContext(ctx, "migration applied",
			slog.String("migration", name),
			slog.Int("batch", batch),
		)
		done = append(done, name)
	}
	return done, nil
}

// Status lists every migration file with its ledger state.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureLedger(ctx); err != nil {
		return nil, err
	}

	names, err := m.available()
	if err != nil {
		return nil, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(names))
	for _, name := range names {
		st := MigrationStatus{Name: name}
		if entry, ok := applied[name]; ok {
			st = entry
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *Migrator) ensureLedger(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, "CREATE TABLE IF NOT EXISTS "+m.table+` (
		migration VARCHAR(255) PRIMARY KEY,
		batch INTEGER NOT NULL,
		executed_at TIMESTAMP NOT NULL
	)`, nil)
	if err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}
	return nil
}

func (m *Migrator) available() ([]string, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, errors.Join(ErrReadMigrations, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]MigrationStatus, error) {
	rows, err := m.conn.Query(ctx, "SELECT migration, batch, executed_at FROM "+m.table, nil)
	if err != nil {
		return nil, errors.Join(ErrApplyMigrations, err)
	}
	out := make(map[string]MigrationStatus, len(rows))
	for _, r := range rows {
		name := r.String("migration")
		out[name] = MigrationStatus{
			Name:       name,
			Batch:      r.Int("batch"),
			Applied:    true,
			ExecutedAt: r.NullTime("executed_at"),
		}
	}
	return out, nil
}

// SplitStatements splits a SQL script on semicolons that are outside
// quotes and comments. Empty statements are dropped.
func SplitStatements(script string) []string {
	var (
		out   []string
		start int
	)
	n := len(script)
	for i := 0; i < n; i++ {
		switch ch := script[i]; {
		case ch == '\'' || ch == '"':
			i = skipQuoted(script, i, ch) - 1
		case ch == '-' && i+1 < n && script[i+1] == '-':
			if end := strings.IndexByte(script[i:], '\n'); end >= 0 {
				i += end
			} else {
				i = n
			}
		case ch == '/' && i+1 < n && script[i+1] == '*':
			if end := strings.Index(script[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = n
			}
		case ch == ';':
			out = appendStatement(out, script[start:i])
			start = i + 1
		}
	}
	if start < n {
		out = appendStatement(out, script[start:])
	}
	return out
}

func appendStatement(out []string, stmt string) []string {
	if stmtIsEmpty(stmt) {
		return out
	}
	return append(out, strings.TrimSpace(stmt))
}

// stmtIsEmpty reports whether stmt holds nothing but whitespace and line comments.
func stmtIsEmpty(stmt string) bool {
	for line := range strings.SplitSeq(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
