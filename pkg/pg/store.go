package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

const (
	loadSnapshotSQL = `SELECT snapshot FROM tracking_snapshots WHERE key = $1`
	saveSnapshotSQL = `INSERT INTO tracking_snapshots (key, snapshot, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`
)

// DB is the subset of *pgxpool.Pool used by SnapshotStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SnapshotStore keeps backlog snapshots in the tracking_snapshots table,
// one row per key. Run Migrate first.
type SnapshotStore struct {
	db  DB
	key string
}

var _ tracking.Store = (*SnapshotStore)(nil)

// NewSnapshotStore returns a store for the row identified by key.
func NewSnapshotStore(db DB, key string) (*SnapshotStore, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &SnapshotStore{db: db, key: key}, nil
}

// Load returns "" when no row exists yet.
func (s *SnapshotStore) Load(ctx context.Context) (string, error) {
	var snapshot string
	err := s.db.QueryRow(ctx, loadSnapshotSQL, s.key).Scan(&snapshot)
	if IsNotFoundError(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Join(ErrLoadSnapshot, err)
	}
	return snapshot, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snapshot string) error {
	if _, err := s.db.Exec(ctx, saveSnapshotSQL, s.key, snapshot); err != nil {
		return errors.Join(ErrSaveSnapshot, err)
	}
	return nil
}
