package schema

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
)

// ErrNotConfigured is returned when no database URL is set.
var ErrNotConfigured = errors.New("database URL not configured")

// Manager owns the lazily opened default connection. It is safe for
// concurrent use and must be closed by its owner.
type Manager struct {
	url    string
	schema string

	mu sync.Mutex
	db *gorm.DB
}

// NewManager returns a Manager for url. Nothing is opened until first use.
func NewManager(url, schemaName string) *Manager {
	return &Manager{url: url, schema: schemaName}
}

// Configured reports whether a URL is set.
func (m *Manager) Configured() bool { return m.url != "" }

// SchemaName returns the configured schema name, possibly empty.
func (m *Manager) SchemaName() string { return m.schema }

// DB returns the shared connection, opening it on first use. A failed open is
// not cached so later calls retry.
func (m *Manager) DB(ctx context.Context) (*gorm.DB, error) {
	if !m.Configured() {
		return nil, ErrNotConfigured
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		return m.db, nil
	}
	db, err := Open(ctx, m.url)
	if err != nil {
		return nil, err
	}
	m.db = db
	return db, nil
}

// Inspector returns an Inspector over the shared connection.
func (m *Manager) Inspector(ctx context.Context) (*Inspector, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}
	return NewInspector(db, m.schema), nil
}

// Close closes the shared connection if it was opened.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := Close(m.db)
	m.db = nil
	return err
}
