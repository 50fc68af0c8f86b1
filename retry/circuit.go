package retry

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by CircuitBreaker.Execute while the breaker is open.
var ErrCircuitOpen = errors.New("retry: circuit open")

// State represents the circuit breaker state.
type State int

const (
	// Closed means the circuit is healthy; requests flow normally.
	Closed State = iota
	// Open means too many failures have occurred; requests are rejected.
	Open
	// HalfOpen means the circuit is testing whether the downstream has recovered.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops hammering an unhealthy upstream by failing fast after
// a run of consecutive failures. It is safe for concurrent use, so one
// breaker can guard a transport shared by many poll chains.
type CircuitBreaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	threshold    int
	resetTimeout time.Duration
	lastFailure  time.Time
	trialing     bool
	now          func() time.Time
}

// NewCircuitBreaker creates a circuit breaker that opens after threshold
// consecutive failures and lets a trial call through after resetTimeout.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &CircuitBreaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// Allow reports whether a request is permitted. An open breaker moves to
// HalfOpen once resetTimeout has elapsed since the last failure. While
// HalfOpen only one trial request is admitted until its result is recorded.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		return true
	case HalfOpen:
		if cb.trialing {
			return false
		}
		cb.trialing = true
		return true
	case Open:
		if cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
			cb.state = HalfOpen
			cb.trialing = true
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess resets the breaker to Closed.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.trialing = false
	cb.state = Closed
}

// RecordFailure records a failed call. A failed HalfOpen trial reopens the
// breaker immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.trialing = false
	cb.lastFailure = cb.now()
	if cb.state == HalfOpen || cb.failures >= cb.threshold {
		cb.state = Open
	}
}

// CurrentState returns the current state of the circuit breaker.
func (cb *CircuitBreaker) CurrentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn if the breaker allows it and records the result.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}
