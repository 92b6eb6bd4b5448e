// Package sqlite persists the tracking backlog snapshot in an embedded
// SQLite database using the pure Go modernc.org/sqlite driver.
//
//	store, err := sqlite.Open("./tracking.db", "htevents")
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
// The database runs in WAL mode. Several keys may share one file.
package sqlite
