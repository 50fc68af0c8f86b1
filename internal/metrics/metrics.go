// Package metrics provides Prometheus instrumentation for the mint pollers
// and the status provider.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollAttempts counts status checks made by a poller, first attempt included.
	PollAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poapmint",
		Name:      "poll_attempts_total",
		Help:      "Total number of status checks made by pollers.",
	}, []string{"poller"})

	// PollOutcomes counts terminated poll chains by result.
	PollOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poapmint",
		Name:      "poll_outcomes_total",
		Help:      "Total number of poll chains by terminal outcome.",
	}, []string{"poller", "outcome"})

	// BackoffDelay tracks the waits scheduled by the backoff engine.
	BackoffDelay = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poapmint",
		Name:      "backoff_delay_seconds",
		Help:      "Backoff delay before each retry in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"poller"})

	// PollsActive tracks poll chains currently in flight.
	PollsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "poapmint",
		Name:      "polls_active",
		Help:      "Number of poll chains in flight.",
	}, []string{"poller"})

	// ProviderRequests counts status provider calls by method and result.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poapmint",
		Name:      "provider_requests_total",
		Help:      "Total number of status provider requests.",
	}, []string{"method", "result"})

	// ProviderDuration tracks status provider latency.
	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poapmint",
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of status provider requests in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method"})
)

// Outcome labels for PollOutcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeExhausted = "exhausted"
	OutcomeCancelled = "cancelled"
)
