// Package metrics holds the Prometheus collectors shared by the engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "retroquery"

var (
	// directoryRequestsTotal counts calls to the reputation directory.
	// Labels: endpoint, outcome (ok, not_found, error)
	directoryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "directory",
		Name:      "requests_total",
		Help:      "Reputation directory calls by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	directoryLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "directory",
		Name:      "latency_seconds",
		Help:      "Reputation directory call latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	// strategyAttemptsTotal counts resolution strategy probes.
	// Labels: strategy, outcome (hit, miss)
	strategyAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolver",
		Name:      "strategy_attempts_total",
		Help:      "Resolution strategy attempts by strategy and outcome",
	}, []string{"strategy", "outcome"})

	// tierServedTotal counts which degradation tier answered a request.
	// Labels: tier (live, mock, static, none)
	tierServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fallback",
		Name:      "tier_served_total",
		Help:      "Requests served per degradation tier",
	}, []string{"tier"})

	intentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "intents_total",
		Help:      "Dispatched intents by name and success",
	}, []string{"intent", "success"})
)

// ObserveDirectoryCall records one directory round trip.
func ObserveDirectoryCall(endpoint, outcome string, elapsed time.Duration) {
	directoryRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	directoryLatencySeconds.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordStrategyAttempt records whether a resolution strategy found a user.
func RecordStrategyAttempt(strategy string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	strategyAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordTier records the tier that produced a result, or "none".
func RecordTier(tier string) {
	tierServedTotal.WithLabelValues(tier).Inc()
}

// RecordIntent records a dispatched intent.
func RecordIntent(intent string, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	intentsTotal.WithLabelValues(intent, label).Inc()
}
