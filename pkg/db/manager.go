package db

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Manager lazily opens named connections and keeps them for the process
// lifetime. It is safe for concurrent use.
type Manager struct {
	configs map[string]ConnectionConfig
	conns   map[string]*Conn
	logger  *slog.Logger
	mu      sync.Mutex
	closed  bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for connection lifecycle events.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a manager for the given named connection configs.
// No connection is opened until it is first requested.
func NewManager(configs map[string]ConnectionConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		configs: configs,
		conns:   make(map[string]*Conn, len(configs)),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connection returns the named connection, opening it on first use.
func (m *Manager) Connection(ctx context.Context, name string) (*Conn, error) {
	if name == "" {
		name = DefaultConnection
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if conn, ok := m.conns[name]; ok {
		return conn, nil
	}

	cfg, ok := m.configs[name]
	if !ok {
		return nil, errors.Join(ErrConnectionNotConfigured, errors.New(name))
	}

	conn, err := Open(ctx, name, cfg)
	if err != nil {
		m.logger.ErrorContext(ctx, "database connection failed",
			slog.String("connection", name),
			slog.String("driver", cfg.Driver),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	m.logger.InfoContext(ctx, "database connection opened",
		slog.String("connection", name),
		slog.String("driver", cfg.Driver),
	)
	m.conns[name] = conn
	return conn, nil
}

// Default returns the default connection.
func (m *Manager) Default(ctx context.Context) (*Conn, error) {
	return m.Connection(ctx, DefaultConnection)
}

// Names lists configured connection names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close closes every opened connection. Further lookups fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	var errs []error
	for name, conn := range m.conns {
		if err := conn.db.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(m.conns, name)
	}
	return errors.Join(errs...)
}

// Shutdown adapts Close to a server shutdown hook.
func Shutdown(m *Manager) func(context.Context) error {
	return func(context.Context) error { return m.Close() }
}
