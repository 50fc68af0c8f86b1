// Package watcher waits for a mint code to settle: first until its
// transaction is final, then until the minted token has been indexed.
//
// Both pollers check the status provider once directly and then keep
// rescheduling the check through a retry.Budget with geometric backoff.
// A poller serves a single poll chain and is not safe for concurrent use.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hedeqiang/poapmint/internal/metrics"
	"github.com/hedeqiang/poapmint/retry"
)

const (
	transactionPoller = "transaction"
	indexingPoller    = "indexing"
)

// Option configures a poller.
type Option func(*options)

type options struct {
	config  retry.Config
	budget  *retry.Budget
	logger  *slog.Logger
	sleeper retry.Sleeper
}

func newOptions(opts []Option) options {
	o := options{
		config: retry.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithConfig sets the backoff used for budgets the poller creates itself.
func WithConfig(cfg retry.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithBudget injects the budget for the poll chain. The poller then ignores
// WithConfig and WithSleeper, and the budget must not be shared.
func WithBudget(b *retry.Budget) Option {
	return func(o *options) {
		o.budget = b
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSleeper replaces the backoff timer.
func WithSleeper(s retry.Sleeper) Option {
	return func(o *options) {
		o.sleeper = s
	}
}

// budgetFor returns the injected budget or a fresh one that reports every
// scheduled retry.
func (o options) budgetFor(poller, code string) *retry.Budget {
	if o.budget != nil {
		return o.budget
	}

	bopts := []retry.BudgetOption{
		retry.WithHook(func(n int, delay time.Duration) {
			metrics.BackoffDelay.WithLabelValues(poller).Observe(delay.Seconds())
			o.logger.Debug("scheduling status check",
				"poller", poller,
				"mint_code", code,
				"attempt", n,
				"delay", delay,
			)
		}),
	}
	if o.sleeper != nil {
		bopts = append(bopts, retry.WithSleeper(o.sleeper))
	}
	return retry.NewBudget(o.config, bopts...)
}

// run drives one poll chain and records its outcome.
func run[T any](ctx context.Context, o options, poller, code string, b *retry.Budget, check func(ctx context.Context) retry.Outcome[T]) (T, error) {
	active := metrics.PollsActive.WithLabelValues(poller)
	active.Inc()
	defer active.Dec()

	attempts := metrics.PollAttempts.WithLabelValues(poller)
	v, err := retry.Poll(ctx, b, func(ctx context.Context) retry.Outcome[T] {
		attempts.Inc()
		out := check(ctx)
		if out.Kind() == retry.KindRetry && out.Err() != nil {
			o.logger.Debug("status not final", "poller", poller, "mint_code", code, "retries", b.Retries(), "reason", out.Err())
		}
		return out
	})

	var outcome string
	switch {
	case err == nil:
		outcome = metrics.OutcomeSuccess
		o.logger.Info("mint code settled", "poller", poller, "mint_code", code, "retries", b.Retries())
	case errors.Is(err, retry.ErrBudgetExhausted):
		outcome = metrics.OutcomeExhausted
		o.logger.Warn("gave up waiting for mint code", "poller", poller, "mint_code", code, "retries", b.Retries(), "error", err)
		err = fmt.Errorf("watcher: %s poll of %q: %w", poller, code, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = metrics.OutcomeCancelled
		err = fmt.Errorf("watcher: %s poll of %q: %w", poller, code, err)
	default:
		outcome = metrics.OutcomeFailure
		o.logger.Warn("mint code failed", "poller", poller, "mint_code", code, "error", err)
	}
	metrics.PollOutcomes.WithLabelValues(poller, outcome).Inc()

	return v, err
}
