// Package metrics holds the Prometheus collectors of the snapshot service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "market_snapshot"

// Metrics contains all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	DegradedInstruments prometheus.Gauge
	LastRunTimestamp    prometheus.Gauge
	FetchLatency        *prometheus.HistogramVec
	StageDuration       *prometheus.HistogramVec
	CacheRequests       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final status",
		}, []string{"status"}),

		DegradedInstruments: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "degraded_instruments",
			Help:      "Instruments without data in the most recent report",
		}),

		LastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the most recent pipeline run",
		}),

		FetchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Market data fetch latency per source and result",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"source", "result"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),

		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_cache_requests_total",
			Help:      "Series cache lookups by result",
		}, []string{"result"}),
	}
}

// RecordRun counts a finished run and publishes its degraded count.
func (m *Metrics) RecordRun(status string, degraded int, at time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.DegradedInstruments.Set(float64(degraded))
	m.LastRunTimestamp.Set(float64(at.Unix()))
}

// ObserveFetch records one fetch. result is "ok", "error", "timeout" or "panic".
func (m *Metrics) ObserveFetch(source, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchLatency.WithLabelValues(source, result).Observe(d.Seconds())
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}
