package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
)

// RateLimit spaces status provider calls at least interval apart. Calls
// over the limit wait for their slot instead of being dropped, so the
// limit is shared by every poll chain using the wrapped provider.
type RateLimit struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

// NewRateLimit creates a rate-limiting middleware that allows at most one call
// per the given interval.
func NewRateLimit(interval time.Duration) *RateLimit {
	return &RateLimit{
		interval: interval,
		now:      time.Now,
	}
}

// Wrap decorates the provider with rate limiting.
func (r *RateLimit) Wrap(next provider.StatusProvider) provider.StatusProvider {
	return &rateLimitedProvider{next: next, r: r}
}

// reserve books the next free slot and returns it with how long the caller
// must wait for it.
func (r *RateLimit) reserve() (time.Time, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	slot := r.next
	if slot.Before(now) {
		slot = now
	}
	r.next = slot.Add(r.interval)
	return slot, slot.Sub(now)
}

// release hands back slot if no later caller has booked after it.
func (r *RateLimit) release(slot time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next.Equal(slot.Add(r.interval)) {
		r.next = slot
	}
}

func (r *RateLimit) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slot, d := r.reserve()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.release(slot)
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type rateLimitedProvider struct {
	next provider.StatusProvider
	r    *RateLimit
}

func (p *rateLimitedProvider) GetMintTransaction(ctx context.Context, code string) (*poap.Transaction, error) {
	if err := p.r.wait(ctx); err != nil {
		return nil, err
	}
	return p.next.GetMintTransaction(ctx, code)
}

func (p *rateLimitedProvider) GetMintCode(ctx context.Context, code string) (*provider.MintCodeResponse, error) {
	if err := p.r.wait(ctx); err != nil {
		return nil, err
	}
	return p.next.GetMintCode(ctx, code)
}
