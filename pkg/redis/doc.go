// Package redis connects to Redis and persists the tracking backlog snapshot
// in it.
//
// Connect retries until the server answers a PING:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store, err := redis.NewSnapshotStore(client, "htevents", cfg.SnapshotTTL)
//
// SnapshotStore implements tracking.Store with GET and SET on one key.
// Healthcheck returns a probe for readiness checks. Errors wrap the package
// sentinels with errors.Join.
package redis
