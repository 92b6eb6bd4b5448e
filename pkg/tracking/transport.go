package tracking

import "context"

// Transport delivers one batch to the collector.
// A nil error means the whole batch was accepted; any error means none of it was.
// Implementations must not modify batch.
type Transport interface {
	Send(ctx context.Context, batch []Event) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, batch []Event) error

// Send calls f(ctx, batch).
func (f TransportFunc) Send(ctx context.Context, batch []Event) error {
	return f(ctx, batch)
}
