package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// Client is the subset of redis.UniversalClient used by SnapshotStore.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// SnapshotStore keeps the backlog snapshot under a single Redis key.
type SnapshotStore struct {
	db  Client
	key string
	ttl time.Duration
}

var _ tracking.Store = (*SnapshotStore)(nil)

// NewSnapshotStore stores snapshots under key. A positive ttl expires the
// value; a lost snapshot is treated as empty on the next Load.
func NewSnapshotStore(client Client, key string, ttl time.Duration) (*SnapshotStore, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &SnapshotStore{db: client, key: key, ttl: max(ttl, 0)}, nil
}

// Load returns "" when the key does not exist.
func (s *SnapshotStore) Load(ctx context.Context) (string, error) {
	val, err := s.db.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Join(ErrLoadSnapshot, err)
	}
	return val, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snapshot string) error {
	if err := s.db.Set(ctx, s.key, snapshot, s.ttl).Err(); err != nil {
		return errors.Join(ErrSaveSnapshot, err)
	}
	return nil
}
