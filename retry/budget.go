package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrBudgetExhausted is returned once a Budget has handed out all of its
// retries. It means the caller gave up waiting, not that the operation failed.
var ErrBudgetExhausted = errors.New("retry: max retries reached")

// Config configures the geometric backoff of a Budget.
type Config struct {
	// MaxRetries is the retry ceiling per poll chain. 0 disables retries.
	MaxRetries int

	// InitialDelay is the starting delay. It is multiplied by BackoffFactor
	// before the first wait, so the first retry waits InitialDelay*BackoffFactor.
	InitialDelay time.Duration

	// BackoffFactor is the multiplicative growth per retry. Must be > 1.
	BackoffFactor float64
}

// DefaultConfig returns 20 retries starting at 1s and growing by 1.2.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    20,
		InitialDelay:  1 * time.Second,
		BackoffFactor: 1.2,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = def.BackoffFactor
	}
	return c
}

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Hook observes each scheduled retry before its wait starts.
type Hook func(retry int, delay time.Duration)

// BudgetOption customizes a Budget.
type BudgetOption func(*Budget)

// WithSleeper replaces the timer-based wait. Intended for tests.
func WithSleeper(s Sleeper) BudgetOption {
	return func(b *Budget) {
		b.sleep = s
	}
}

// WithHook registers a callback invoked for every scheduled retry.
func WithHook(h Hook) BudgetOption {
	return func(b *Budget) {
		b.hook = h
	}
}

// Budget is the retry/delay state of a single poll chain. It is not safe for
// concurrent use; each chain owns its own Budget.
type Budget struct {
	maxRetries int
	factor     float64

	retries int
	delay   float64 // nanoseconds

	sleep Sleeper
	hook  Hook
}

// NewBudget creates a fresh Budget. Zero or out-of-range InitialDelay and
// BackoffFactor fall back to DefaultConfig values.
func NewBudget(cfg Config, opts ...BudgetOption) *Budget {
	cfg = cfg.normalize()
	b := &Budget{
		maxRetries: cfg.MaxRetries,
		factor:     cfg.BackoffFactor,
		delay:      float64(cfg.InitialDelay),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Retries returns how many retries have been scheduled so far.
func (b *Budget) Retries() int {
	return b.retries
}

// MaxRetries returns the retry ceiling.
func (b *Budget) MaxRetries() int {
	return b.maxRetries
}

// Delay returns the most recent delay, or the initial delay if no retry has
// been scheduled yet.
func (b *Budget) Delay() time.Duration {
	return time.Duration(b.delay)
}

// Reserve consumes one retry and returns the delay to wait before it.
// It returns ErrBudgetExhausted without touching any state once
// MaxRetries retries have been reserved.
func (b *Budget) Reserve() (time.Duration, error) {
	if b.retries >= b.maxRetries {
		return 0, fmt.Errorf("%w (%d)", ErrBudgetExhausted, b.maxRetries)
	}
	b.retries++
	b.delay *= b.factor
	return time.Duration(b.delay), nil
}

// Schedule reserves a retry on b, waits for its delay and then runs op.
// op is never invoked when the budget is exhausted or ctx ends during the wait.
func Schedule[T any](ctx context.Context, b *Budget, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	delay, err := b.Reserve()
	if err != nil {
		return zero, err
	}
	if b.hook != nil {
		b.hook(b.retries, delay)
	}
	if err := b.sleep(ctx, delay); err != nil {
		return zero, err
	}
	return op(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
