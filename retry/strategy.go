// Package retry provides the backoff engine behind the mint pollers, plus
// stateless retry strategies and a circuit breaker for transport calls.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Strategy defines a stateless retry policy.
type Strategy interface {
	// Next returns the delay before the given retry attempt (1-indexed).
	// Returns false if no more retries should be attempted.
	Next(attempt int) (delay time.Duration, ok bool)
}

// Backoff implements capped exponential backoff with optional jitter.
type Backoff struct {
	// MaxAttempts is the maximum number of retry attempts. 0 means no retries.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay. 0 means uncapped.
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay grows. Defaults to 2.
	Multiplier float64

	// Jitter spreads each delay over [1-Jitter, 1+Jitter]. Clamped to [0, 1].
	Jitter float64

	randFn func() float64
}

// Exponential creates a Backoff strategy doubling from 200ms up to 5s.
func Exponential(maxAttempts int) *Backoff {
	return &Backoff{
		MaxAttempts:  maxAttempts,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
}

// Next returns the delay for the given attempt number.
func (b *Backoff) Next(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt > b.MaxAttempts {
		return 0, false
	}

	multiplier := b.Multiplier
	if multiplier <= 1 {
		multiplier = 2
	}

	delay := float64(b.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}

	if j := math.Min(math.Max(b.Jitter, 0), 1); j > 0 {
		randFn := b.randFn
		if randFn == nil {
			randFn = rand.Float64
		}
		delay *= 1 + (randFn()*2-1)*j
	}

	return time.Duration(delay), true
}

// Do executes fn, retrying according to s while retryable reports true for
// the returned error. A nil retryable retries every error. It respects
// context cancellation between attempts.
func Do(ctx context.Context, s Strategy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	var attempt int
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}

		attempt++
		delay, ok := s.Next(attempt)
		if !ok {
			return err
		}

		if serr := sleepCtx(ctx, delay); serr != nil {
			return serr
		}
	}
}
