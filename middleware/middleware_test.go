package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
	"github.com/hedeqiang/poapmint/watcher"
)

type stubProvider struct {
	calls int
	err   error
	trace *[]string
	name  string
}

func (s *stubProvider) GetMintTransaction(context.Context, string) (*poap.Transaction, error) {
	s.calls++
	if s.trace != nil {
		*s.trace = append(*s.trace, s.name)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &poap.Transaction{Status: poap.StatusPending}, nil
}

func (s *stubProvider) GetMintCode(context.Context, string) (*provider.MintCodeResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &provider.MintCodeResponse{Claimed: true}, nil
}

func tracing(name string, trace *[]string) Middleware {
	return Func(func(next provider.StatusProvider) provider.StatusProvider {
		return &tracingProvider{StatusProvider: next, name: name, trace: trace}
	})
}

type tracingProvider struct {
	provider.StatusProvider
	name  string
	trace *[]string
}

func (p *tracingProvider) GetMintTransaction(ctx context.Context, code string) (*poap.Transaction, error) {
	*p.trace = append(*p.trace, p.name)
	return p.StatusProvider.GetMintTransaction(ctx, code)
}

func TestChainOrder(t *testing.T) {
	var trace []string
	inner := &stubProvider{trace: &trace, name: "provider"}

	p := Chain(inner, tracing("first", &trace), tracing("second", &trace))
	if _, err := p.GetMintTransaction(context.Background(), "abc"); err != nil {
		t.Fatalf("call: %v", err)
	}

	if diff := cmp.Diff([]string{"first", "second", "provider"}, trace); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := NewLogger(logger).Wrap(&stubProvider{})
	if _, err := p.GetMintTransaction(context.Background(), "abc"); err != nil {
		t.Fatalf("call: %v", err)
	}
	if !strings.Contains(buf.String(), "mint_code=abc") || !strings.Contains(buf.String(), "status=pending") {
		t.Fatalf("unexpected log output %q", buf.String())
	}

	buf.Reset()
	p = NewLogger(logger).Wrap(&stubProvider{err: errors.New("boom")})
	if _, err := p.GetMintCode(context.Background(), "abc"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "error=boom") {
		t.Fatalf("unexpected log output %q", buf.String())
	}

	// an empty snapshot is logged, then retried by the poller
	buf.Reset()
	seq := &sequenceProvider{responses: []*provider.MintCodeResponse{
		nil,
		{Claimed: true, Result: &provider.MintResult{Token: 1}},
	}}
	poller := watcher.NewIndexingPoller(
		Chain(seq, NewLogger(logger)),
		"abc",
		watcher.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	status, err := poller.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if status.PoapID == nil || *status.PoapID != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if !strings.Contains(buf.String(), "claimed=false indexed=false") || !strings.Contains(buf.String(), "claimed=true indexed=true") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}

// sequenceProvider answers GetMintCode from responses in order, repeating the last.
type sequenceProvider struct {
	stubProvider
	responses []*provider.MintCodeResponse
}

func (s *sequenceProvider) GetMintCode(context.Context, string) (*provider.MintCodeResponse, error) {
	i := min(s.calls, len(s.responses)-1)
	s.calls++
	return s.responses[i], nil
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	ok := m.Wrap(&stubProvider{})
	failing := m.Wrap(&stubProvider{err: errors.New("boom")})

	_, _ = ok.GetMintTransaction(context.Background(), "a")
	_, _ = ok.GetMintCode(context.Background(), "a")
	_, _ = failing.GetMintCode(context.Background(), "a")

	if m.Requests() != 3 || m.Failed() != 1 {
		t.Fatalf("expected 3 requests and 1 failure, got %d and %d", m.Requests(), m.Failed())
	}
}

func TestRateLimitReserve(t *testing.T) {
	now := time.Unix(0, 0)
	r := NewRateLimit(time.Second)
	r.now = func() time.Time { return now }

	testCases := []struct {
		advance time.Duration
		wait    time.Duration
	}{
		// case 0
		{advance: 0, wait: 0},
		// case 1
		{advance: 0, wait: time.Second},
		// case 2
		{advance: 500 * time.Millisecond, wait: 1500 * time.Millisecond},
		// case 3
		{advance: 5 * time.Second, wait: 0},
	}

	for i, tc := range testCases {
		now = now.Add(tc.advance)
		if _, got := r.reserve(); got != tc.wait {
			t.Fatalf("case %d: expected wait %v got %v", i, tc.wait, got)
		}
	}
}

func TestRateLimitCancelled(t *testing.T) {
	r := NewRateLimit(time.Hour)
	inner := &stubProvider{}
	p := r.Wrap(inner)

	if _, err := p.GetMintCode(context.Background(), "a"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.GetMintCode(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 provider call got %d", inner.calls)
	}
}

func TestRateLimitCancelledKeepsSlot(t *testing.T) {
	now := time.Unix(0, 0)
	r := NewRateLimit(time.Hour)
	r.now = func() time.Time { return now }
	p := r.Wrap(&stubProvider{})

	if _, err := p.GetMintCode(context.Background(), "a"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// case 0: already cancelled callers never book a slot
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, _ = p.GetMintCode(cancelled, "a")
	}

	// case 1: a caller cancelled while waiting gives its slot back
	ctx, done := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer done()
	if _, err := p.GetMintCode(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded got %v", err)
	}

	if _, got := r.reserve(); got != time.Hour {
		t.Fatalf("expected next caller to wait one interval, got %v", got)
	}
}
