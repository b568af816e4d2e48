package proxy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for downstream forwarding.
type Metrics struct {
	forwards *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the forwarding collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		forwards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docgate_proxy_forwards_total",
				Help: "Total number of downstream forwards by route and outcome",
			},
			[]string{"route", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docgate_proxy_forward_duration_seconds",
				Help:    "Downstream forward latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	reg.MustRegister(m.forwards, m.latency)
	return m
}

// RecordForward records one downstream attempt.
func (m *Metrics) RecordForward(route, outcome string, d time.Duration) {
	m.forwards.WithLabelValues(route, outcome).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}
