// Package metrics exposes Prometheus counters for computations and narrative requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roi_advisor/pkg/core/roi"
)

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
	OutcomeCached  = "cached"
	OutcomeLimited = "rate_limited"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry          *prometheus.Registry
	computations      *prometheus.CounterVec
	undefinedMetrics  *prometheus.CounterVec
	narrativeRequests *prometheus.CounterVec
	narrativeLatency  prometheus.Histogram
}

// New registers all collectors, plus Go runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roi",
			Name:      "computations_total",
			Help:      "Scenario computations by outcome.",
		}, []string{"outcome"}),
		undefinedMetrics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roi",
			Name:      "undefined_metrics_total",
			Help:      "Metrics reported as undefined, by metric.",
		}, []string{"metric"}),
		narrativeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roi",
			Name:      "narrative_requests_total",
			Help:      "Narrative requests by outcome.",
		}, []string{"outcome"}),
		narrativeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roi",
			Name:      "narrative_duration_seconds",
			Help:      "Latency of narrative generation calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
	}
	m.registry.MustRegister(
		m.computations,
		m.undefinedMetrics,
		m.narrativeRequests,
		m.narrativeLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveComputation counts one computation and any undefined metrics in its result.
func (m *Metrics) ObserveComputation(res roi.Result, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.computations.WithLabelValues(OutcomeInvalid).Inc()
		return
	}
	m.computations.WithLabelValues(OutcomeOK).Inc()
	if !res.SimpleROI.Defined {
		m.undefinedMetrics.WithLabelValues("simple_roi").Inc()
	}
	if !res.PaybackPeriod.Defined {
		m.undefinedMetrics.WithLabelValues("payback_period").Inc()
	}
	if !res.IRR.Defined {
		m.undefinedMetrics.WithLabelValues("irr").Inc()
	}
}

// ObserveNarrative counts one narrative request. Cached and rejected requests carry no latency.
func (m *Metrics) ObserveNarrative(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.narrativeRequests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK || outcome == OutcomeError || outcome == OutcomeEmpty {
		m.narrativeLatency.Observe(elapsed.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
