package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"github.com/mwantia/cmdparse/data"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteBackend stores entities in a single SQLite table. Name lookups use
// the case-folded name columns, which are indexed per kind.
type SQLiteBackend struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// NewSQLiteBackend creates a new SQLite-backed entity backend.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if dbPath == ":memory:" {
		// Every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	backend := &SQLiteBackend{
		db: db,
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return backend, nil
}

// initSchema creates the database schema.
func (sb *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cmd_entities (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		folded_name TEXT NOT NULL,
		nickname TEXT,
		folded_nickname TEXT,
		attributes TEXT,
		create_time INTEGER NOT NULL,
		PRIMARY KEY (kind, id)
	);
	CREATE INDEX IF NOT EXISTS idx_cmd_entities_name ON cmd_entities(kind, folded_name);
	CREATE INDEX IF NOT EXISTS idx_cmd_entities_nickname ON cmd_entities(kind, folded_nickname);
	`

	_, err := sb.db.Exec(schema)
	return err
}

// Returns the identifier name defined for this backend
func (*SQLiteBackend) Name() string {
	return "sqlite"
}

// Open is part of the lifecycle behaviour and gets called before the backend is used.
func (sb *SQLiteBackend) Open(ctx context.Context) error {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	if sb.closed {
		return data.ErrBackendClose
	}

	// Verify database connection
	return sb.db.PingContext(ctx)
}

// Close is part of the lifecycle behaviour and releases all resources held by the backend.
func (sb *SQLiteBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.closed {
		return nil
	}

	sb.closed = true
	return sb.db.Close()
}
