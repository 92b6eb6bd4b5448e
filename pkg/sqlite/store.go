package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

var (
	ErrStoreClosed = errors.New("sqlite store is closed")
	ErrEmptyKey    = errors.New("empty snapshot key")
)

// Store persists backlog snapshots in a local SQLite database, one row per
// snapshot key. It suits a single process that must survive restarts
// without any external service.
type Store struct {
	db     *sql.DB
	key    string
	mu     sync.RWMutex
	closed bool
}

var _ tracking.Store = (*Store)(nil)

// Open opens or creates the database at path and returns a store for key.
// The path should be a file path (e.g., "./tracking.db") or ":memory:" for testing.
func Open(path, key string) (*Store, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracking_snapshots (
			key TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db, key: key}, nil
}

// Load returns "" when no snapshot has been saved under the key.
func (s *Store) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var snapshot string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM tracking_snapshots WHERE key = ?`, s.key,
	).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}
	return snapshot, nil
}

// Save replaces the snapshot stored under the key.
func (s *Store) Save(ctx context.Context, snapshot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracking_snapshots (key, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, s.key, snapshot, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Close releases the database. Calling it again is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
