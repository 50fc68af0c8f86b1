package retry

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies the result of one poll iteration.
type Kind int

const (
	// KindRetry asks for another attempt after backoff.
	KindRetry Kind = iota + 1
	// KindSuccess ends the poll with a value.
	KindSuccess
	// KindFailure ends the poll with a terminal error that is never retried.
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindRetry:
		return "retry"
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the decision a poller makes for a single status snapshot.
// The zero value is treated as a retry.
type Outcome[T any] struct {
	kind  Kind
	value T
	err   error
}

// Retry builds a retryable outcome. reason is kept for diagnostics only.
func Retry[T any](reason error) Outcome[T] {
	return Outcome[T]{kind: KindRetry, err: reason}
}

// Success builds a terminal outcome carrying v.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{kind: KindSuccess, value: v}
}

// Failure builds a terminal outcome carrying err.
func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{kind: KindFailure, err: err}
}

// Kind returns the outcome classification.
func (o Outcome[T]) Kind() Kind {
	if o.kind == 0 {
		return KindRetry
	}
	return o.kind
}

// Value returns the success value.
func (o Outcome[T]) Value() T {
	return o.value
}

// Err returns the failure error or the retry reason.
func (o Outcome[T]) Err() error {
	return o.err
}

// ExhaustedError reports that a poll chain ran out of retries. It matches
// ErrBudgetExhausted with errors.Is and unwraps to the last retry reason.
type ExhaustedError struct {
	Retries int
	Last    error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s after %d retries", ErrBudgetExhausted, e.Retries)
	}
	return fmt.Sprintf("%s after %d retries: last: %v", ErrBudgetExhausted, e.Retries, e.Last)
}

// Is reports whether target is ErrBudgetExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrBudgetExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Poll runs check once directly and keeps rescheduling it through b while it
// returns KindRetry. It stops at the first success or failure, when the
// budget runs out, or when ctx ends.
func Poll[T any](ctx context.Context, b *Budget, check func(ctx context.Context) Outcome[T]) (T, error) {
	var zero T

	wrapped := func(ctx context.Context) (Outcome[T], error) {
		return check(ctx), nil
	}

	out := check(ctx)
	for out.Kind() == KindRetry {
		next, err := Schedule(ctx, b, wrapped)
		if err != nil {
			if errors.Is(err, ErrBudgetExhausted) {
				return zero, &ExhaustedError{Retries: b.Retries(), Last: out.Err()}
			}
			return zero, err
		}
		out = next
	}

	if out.Kind() == KindFailure {
		return zero, out.Err()
	}
	return out.Value(), nil
}
