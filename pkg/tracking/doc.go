// Package tracking buffers analytics events on the client and delivers them
// to a remote collector in batches.
//
// Producers record events through a Tracker obtained from a Pipeline. Events
// go into a bounded in-memory Backlog that evicts the oldest records once its
// capacity is reached, so recording never blocks and memory stays bounded.
// A single background loop takes up to BatchSize events from the head of the
// backlog and hands them to a Transport. A failed batch is put back at the
// head in its original order and the loop pauses for a flat ErrorPause before
// the next attempt.
//
// Undelivered events survive restarts through a Store, which persists the
// whole backlog as one JSON snapshot:
//
//	[{"action":"User::Login","eventData":{"Space":"Default","Timestamp":"1700000000"}}]
//
// The snapshot is written on Suspend and Shutdown and read back (then cleared)
// on Start and Resume. Records that cannot be decoded are skipped and logged.
//
// # Usage
//
//	sender := collector.NewSender(settings.Endpoint())
//	store := tracking.NewMemoryStore("")
//
//	p, err := tracking.New(sender, store,
//	    tracking.WithSettings(settings),
//	    tracking.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	defer p.Shutdown(context.Background())
//
//	p.Default().TrackLogin()
//	p.Space("eu-1").TrackLevelup(5)
//
// # Configuration
//
// Settings carries the identity reported with every event. Its validated
// fields (api key, secret key, timestamp, language, client ip) are set through
// setters that return a *ConfigError and keep the previous value on invalid
// input. Config maps the same fields and the delivery knobs to environment
// variables.
//
// # Delivery states
//
// The deliverer moves between idle, sending and cooldown. Pipeline.State
// exposes the current state and an Observer receives every change.
package tracking
