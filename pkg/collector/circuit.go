package collector

import (
	"sync"
	"time"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	// CircuitClosed lets every request through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests until the recovery timeout has passed.
	CircuitOpen
	// CircuitHalfOpen lets a single probe through at a time.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Circuit breaker defaults.
const (
	DefaultFailureThreshold = 5
	DefaultSuccessThreshold = 2
	DefaultRecoveryTimeout  = 30 * time.Second
)

// CircuitBreaker stops sending to a collector that keeps failing.
// Safe for concurrent use.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration
	now              func() time.Time

	state     CircuitState
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
}

// NewCircuitBreaker opens after failureThreshold consecutive failures and
// closes again after successThreshold successful probes. Non-positive
// arguments fall back to the defaults.
func NewCircuitBreaker(failureThreshold, successThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if successThreshold <= 0 {
		successThreshold = DefaultSuccessThreshold
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = DefaultRecoveryTimeout
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		recoveryTimeout:  recoveryTimeout,
		now:              time.Now,
	}
}

// Allow reports whether a request may be sent now. In the half-open state
// only one caller gets true until it records its outcome.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.recoveryTimeout {
		cb.state = CircuitHalfOpen
		cb.successes = 0
		cb.probing = false
	}

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return false
	}
}

// RecordSuccess reports a delivered request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failures = 0
	case CircuitHalfOpen:
		cb.probing = false
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = CircuitClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
}

// RecordFailure reports a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.open()
		}
	case CircuitHalfOpen:
		cb.open()
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = CircuitOpen
	cb.openedAt = cb.now()
	cb.successes = 0
	cb.probing = false
}

// State returns the state Allow would act on.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.recoveryTimeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// Reset closes the circuit and forgets all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.openedAt = time.Time{}
	cb.probing = false
}
