// Package pg persists the tracking backlog snapshot in PostgreSQL.
//
// Connect opens a pgx pool with retries, Migrate creates the
// tracking_snapshots table from migrations embedded in the binary, and
// SnapshotStore implements tracking.Store on top of it:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		return err
//	}
//	store, err := pg.NewSnapshotStore(pool, "htevents")
//
// Several pipelines can share the table by using different keys.
package pg
