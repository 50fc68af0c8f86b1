package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestBudgetGeometricDelays(t *testing.T) {
	rec := &recorder{}
	b := NewBudget(Config{MaxRetries: 4, InitialDelay: 100 * time.Millisecond, BackoffFactor: 2}, WithSleeper(rec.sleep))

	for i := 0; i < 4; i++ {
		_, err := Schedule(context.Background(), b, func(context.Context) (int, error) { return i, nil })
		if err != nil {
			t.Fatalf("schedule %d: %v", i, err)
		}
	}

	want := []time.Duration{
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
	}
	if diff := cmp.Diff(want, rec.delays); diff != "" {
		t.Fatalf("delays (-want +got):\n%s", diff)
	}
}

func TestBudgetDelayMatchesPowerSeries(t *testing.T) {
	d0 := time.Second
	f := 1.2
	b := NewBudget(Config{MaxRetries: 10, InitialDelay: d0, BackoffFactor: f})

	for k := 1; k <= 10; k++ {
		got, err := b.Reserve()
		if err != nil {
			t.Fatalf("reserve %d: %v", k, err)
		}
		want := float64(d0) * math.Pow(f, float64(k))
		if math.Abs(float64(got)-want) > float64(time.Microsecond) {
			t.Fatalf("retry %d: want ~%v got %v", k, time.Duration(want), got)
		}
	}
}

func TestBudgetMonotonic(t *testing.T) {
	b := NewBudget(DefaultConfig())

	prev := b.Delay()
	for i := 1; i <= b.MaxRetries(); i++ {
		d, err := b.Reserve()
		if err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
		if d < prev {
			t.Fatalf("retry %d: delay shrank from %v to %v", i, prev, d)
		}
		if b.Retries() != i {
			t.Fatalf("expected %d retries got %d", i, b.Retries())
		}
		prev = d
	}
}

func TestScheduleExhaustion(t *testing.T) {
	testCases := []struct {
		max int
	}{
		// case 0
		{max: 0},
		// case 1
		{max: 1},
		// case 2
		{max: 5},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			rec := &recorder{}
			b := NewBudget(Config{MaxRetries: tc.max}, WithSleeper(rec.sleep))

			var calls int
			op := func(context.Context) (struct{}, error) {
				calls++
				return struct{}{}, nil
			}

			for j := 0; j < tc.max; j++ {
				if _, err := Schedule(context.Background(), b, op); err != nil {
					t.Fatalf("schedule %d: %v", j, err)
				}
			}

			_, err := Schedule(context.Background(), b, op)
			if !errors.Is(err, ErrBudgetExhausted) {
				t.Fatalf("expected ErrBudgetExhausted got %v", err)
			}
			if calls != tc.max {
				t.Fatalf("expected %d calls got %d", tc.max, calls)
			}
			if len(rec.delays) != tc.max {
				t.Fatalf("expected %d waits got %d", tc.max, len(rec.delays))
			}
			if b.Retries() != tc.max {
				t.Fatalf("exhaustion must not bump retries: got %d", b.Retries())
			}
		})
	}
}

func TestSchedulePropagatesOperationError(t *testing.T) {
	b := NewBudget(Config{MaxRetries: 1}, WithSleeper(func(context.Context, time.Duration) error { return nil }))
	boom := errors.New("boom")

	_, err := Schedule(context.Background(), b, func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
}

func TestScheduleHook(t *testing.T) {
	var got []int
	b := NewBudget(Config{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffFactor: 2},
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
		WithHook(func(retry int, _ time.Duration) { got = append(got, retry) }),
	)
	for i := 0; i < 3; i++ {
		_, _ = Schedule(context.Background(), b, func(context.Context) (int, error) { return 0, nil })
	}
	if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
		t.Fatalf("hook retries (-want +got):\n%s", diff)
	}
}

func TestScheduleRealTimerHonoursContext(t *testing.T) {
	b := NewBudget(Config{MaxRetries: 1, InitialDelay: time.Hour, BackoffFactor: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	var called bool
	_, err := Schedule(ctx, b, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded got %v", err)
	}
	if called {
		t.Fatalf("operation must not run after cancellation")
	}
}

func TestConfigNormalize(t *testing.T) {
	b := NewBudget(Config{MaxRetries: -3, BackoffFactor: 0.5})
	if b.MaxRetries() != 0 {
		t.Fatalf("negative max retries should clamp to 0, got %d", b.MaxRetries())
	}
	if b.Delay() != time.Second {
		t.Fatalf("expected default initial delay, got %v", b.Delay())
	}
	if b.factor != 1.2 {
		t.Fatalf("expected default factor, got %v", b.factor)
	}
}
