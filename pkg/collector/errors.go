package collector

import "errors"

// Delivery errors. Every error returned by Sender.Send wraps exactly one of
// ErrPermanentFailure, ErrTemporaryFailure, ErrTimeout or ErrCircuitOpen.
// An empty batch is permanent and also wraps ErrEmptyBatch.
var (
	ErrInvalidURL           = errors.New("invalid collector URL")
	ErrInvalidConfiguration = errors.New("invalid collector configuration")
	ErrEmptyBatch           = errors.New("batch is empty")
	ErrPermanentFailure     = errors.New("collector rejected the batch")
	ErrTemporaryFailure     = errors.New("temporary collector failure")
	ErrTimeout              = errors.New("collector request timeout")
	ErrCircuitOpen          = errors.New("collector circuit breaker is open")
	ErrInvalidSignature     = errors.New("invalid batch signature")
)

// IsCircuitOpen reports whether err was caused by an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsPermanent reports whether resending the same batch is expected to fail again.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanentFailure)
}
