package preserve

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore keeps records in a single-table SQLite database.
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (creating if needed) the database at path and
// prepares the options table. Use ":memory:" for an in-memory database.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// lives only as long as its connection.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL mode is not supported for in-memory databases.
	if path != ":memory:" {
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS options (
			name TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);
	`
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: conn, path: path}, nil
}

// Path returns the database path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// conn returns the open handle or ErrStoreClosed. Callers hold s.mu.
func (s *SQLiteStore) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	return s.db, nil
}

// Get reads the record for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.conn()
	if err != nil {
		return nil, false, err
	}

	var value []byte
	err = db.QueryRowContext(ctx, `SELECT value FROM options WHERE name = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading option %q: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the record for key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO options (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing option %q: %w", key, err)
	}
	return nil
}

// Delete removes the record for key. A missing record is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM options WHERE name = ?`, key); err != nil {
		return fmt.Errorf("deleting option %q: %w", key, err)
	}
	return nil
}

// Close closes the database. Later calls return ErrStoreClosed; closing
// twice is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
