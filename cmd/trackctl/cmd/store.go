package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/honeytracks/pkg/file"
	"github.com/dmitrymomot/honeytracks/pkg/logger"
	"github.com/dmitrymomot/honeytracks/pkg/mongo"
	"github.com/dmitrymomot/honeytracks/pkg/pg"
	"github.com/dmitrymomot/honeytracks/pkg/redis"
	"github.com/dmitrymomot/honeytracks/pkg/sqlite"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// snapshotStore is a connected tracking.Store with its readiness probe.
type snapshotStore struct {
	tracking.Store
	kind    string
	probe   func(context.Context) error
	cleanup func()
}

// Close releases the store connections.
func (s *snapshotStore) Close() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// openStore connects the snapshot store selected by cfg.Store.
func openStore(ctx context.Context, cfg *Config, log *slog.Logger) (*snapshotStore, error) {
	key := cfg.Tracking.SnapshotKey
	if key == "" {
		key = tracking.DefaultSnapshotKey
	}
	kind := strings.ToLower(strings.TrimSpace(cfg.Store))

	log.DebugContext(ctx, "opening snapshot store", logger.Store(kind))

	switch kind {
	case StoreMemory:
		return withLoadProbe(kind, tracking.NewMemoryStore(""), nil), nil

	case StoreFile:
		s, err := file.NewLocalStore(cfg.DataDir, key+".json")
		if err != nil {
			return nil, err
		}
		return withLoadProbe(kind, s, nil), nil

	case StoreSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		s, err := sqlite.Open(filepath.Join(cfg.DataDir, "tracking.db"), key)
		if err != nil {
			return nil, err
		}
		return withLoadProbe(kind, s, closeWith(ctx, log, kind, s.Close)), nil

	case StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		s, err := redis.NewSnapshotStore(client, key, cfg.Redis.SnapshotTTL)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &snapshotStore{
			Store:   s,
			kind:    kind,
			probe:   redis.Healthcheck(client),
			cleanup: closeWith(ctx, log, kind, client.Close),
		}, nil

	case StorePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
			pool.Close()
			return nil, err
		}
		s, err := pg.NewSnapshotStore(pool, key)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &snapshotStore{Store: s, kind: kind, probe: pg.Healthcheck(pool), cleanup: pool.Close}, nil

	case StoreMongo:
		client, err := mongo.New(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		disconnect := func() error { return client.Disconnect(context.WithoutCancel(ctx)) }
		s, err := mongo.NewSnapshotStore(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection), key)
		if err != nil {
			_ = disconnect()
			return nil, err
		}
		return &snapshotStore{
			Store:   s,
			kind:    kind,
			probe:   mongo.Healthcheck(client),
			cleanup: closeWith(ctx, log, kind, disconnect),
		}, nil

	case StoreS3:
		s, err := file.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return withLoadProbe(kind, s, nil), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}

// withLoadProbe uses a snapshot read as the readiness check.
func withLoadProbe(kind string, s tracking.Store, cleanup func()) *snapshotStore {
	return &snapshotStore{
		Store: s,
		kind:  kind,
		probe: func(ctx context.Context) error {
			_, err := s.Load(ctx)
			return err
		},
		cleanup: cleanup,
	}
}

func closeWith(ctx context.Context, log *slog.Logger, kind string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.WarnContext(ctx, "failed to close snapshot store", logger.Store(kind), logger.Error(err))
		}
	}
}
