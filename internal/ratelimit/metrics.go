package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for admission control decisions.
type Metrics struct {
	checks *prometheus.CounterVec
	hits   *prometheus.CounterVec
}

// NewMetrics creates the admission control collectors and registers them
// with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docgate_ratelimit_checks_total",
				Help: "Total number of rate limit checks performed",
			},
			[]string{"limiter", "result"},
		),
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docgate_ratelimit_rejections_total",
				Help: "Total number of rate limit rejections",
			},
			[]string{"limiter"},
		),
	}
	reg.MustRegister(m.checks, m.hits)
	return m
}

// RecordDecision records one admission decision for the named limiter.
func (m *Metrics) RecordDecision(limiter string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "rejected"
		m.hits.WithLabelValues(limiter).Inc()
	}
	m.checks.WithLabelValues(limiter, result).Inc()
}
