package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Ranking outcomes for ranking_requests_total.
const (
	outcomeSuccess  = "success"
	outcomeFallback = "fallback"
	outcomeEmpty    = "empty"
	outcomeError    = "error"
)

// RankingMetrics holds the collectors of the ranking pipeline.
type RankingMetrics struct {
	requests         *prometheus.CounterVec
	duration         prometheus.Histogram
	upstreamFailures *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
}

// NewRankingMetrics creates and registers the ranking collectors. Collectors that are
// already registered are reused.
func NewRankingMetrics(logger *logrus.Logger) *RankingMetrics {
	m := &RankingMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ranking_requests_total",
			Help: "Ranking requests by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "End-to-end ranking latency",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_fetch_failures_total",
			Help: "Absorbed upstream fetch failures by source",
		}, []string{"source"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "place_source_breaker_state",
			Help: "Circuit breaker state per place source (0 = closed, 1 = half-open, 2 = open)",
		}, []string{"source"}),
	}

	m.requests = registerCollector(m.requests, "ranking_requests_total", logger)
	m.duration = registerCollector(m.duration, "ranking_duration_seconds", logger)
	m.upstreamFailures = registerCollector(m.upstreamFailures, "upstream_fetch_failures_total", logger)
	m.breakerState = registerCollector(m.breakerState, "place_source_breaker_state", logger)

	return m
}

func registerCollector[T prometheus.Collector](collector T, name string, logger *logrus.Logger) T {
	if err := prometheus.Register(collector); err != nil {
		var registered prometheus.AlreadyRegisteredError
		if errors.As(err, &registered) {
			if existing, ok := registered.ExistingCollector.(T); ok {
				return existing
			}
		}
		logger.WithError(err).Warnf("Failed to register %s metric", name)
	}
	return collector
}

func (m *RankingMetrics) observeRequest(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}

func (m *RankingMetrics) upstreamFailure(source string) {
	if m == nil {
		return
	}
	m.upstreamFailures.WithLabelValues(source).Inc()
}

func (m *RankingMetrics) setBreakerState(source string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(source).Set(state)
}
