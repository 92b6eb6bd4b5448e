// Package mongo persists the tracking backlog snapshot in MongoDB.
//
//	coll, err := mongo.NewSnapshotCollection(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store, err := mongo.NewSnapshotStore(coll, "htevents")
//
// Each snapshot key maps to one document {_id, snapshot, updated_at}, written
// with an upsert. Healthcheck returns a ping probe for readiness checks.
package mongo
