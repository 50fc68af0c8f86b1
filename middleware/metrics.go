package middleware

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hedeqiang/poapmint/internal/metrics"
	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
)

// Metrics counts status provider calls. Counts are kept locally and
// exported to Prometheus.
type Metrics struct {
	requests atomic.Uint64
	failed   atomic.Uint64
}

// NewMetrics creates a metrics collection middleware.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Wrap decorates the provider with metrics collection.
func (m *Metrics) Wrap(next provider.StatusProvider) provider.StatusProvider {
	return &metricsProvider{next: next, m: m}
}

// Requests returns the number of provider calls made.
func (m *Metrics) Requests() uint64 {
	return m.requests.Load()
}

// Failed returns the number of provider calls that returned an error.
func (m *Metrics) Failed() uint64 {
	return m.failed.Load()
}

func (m *Metrics) observe(method string, start time.Time, err error) {
	m.requests.Add(1)
	result := "ok"
	if err != nil {
		m.failed.Add(1)
		result = "error"
	}
	metrics.ProviderRequests.WithLabelValues(method, result).Inc()
	metrics.ProviderDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

type metricsProvider struct {
	next provider.StatusProvider
	m    *Metrics
}

func (p *metricsProvider) GetMintTransaction(ctx context.Context, code string) (*poap.Transaction, error) {
	start := time.Now()
	tx, err := p.next.GetMintTransaction(ctx, code)
	p.m.observe("get_mint_transaction", start, err)
	return tx, err
}

func (p *metricsProvider) GetMintCode(ctx context.Context, code string) (*provider.MintCodeResponse, error) {
	start := time.Now()
	resp, err := p.next.GetMintCode(ctx, code)
	p.m.observe("get_mint_code", start, err)
	return resp, err
}
