package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRun(t *testing.T) {
	m := New(prometheus.NewRegistry())
	at := time.Unix(1_741_000_000, 0)

	m.RecordRun("DEGRADED", 2, at)
	m.RecordRun("DELIVERED", 0, at)
	m.RecordRun("DELIVERED", 0, at)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("DELIVERED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("DEGRADED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DegradedInstruments))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastRunTimestamp))
}

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveFetch("yahoo", "ok", 120*time.Millisecond)
	m.ObserveStage("compose", time.Second)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRun("FAILED", 1, time.Now())
		m.ObserveFetch("mock", "error", time.Millisecond)
		m.ObserveStage("upload", time.Millisecond)
		m.CacheLookup(true)
	})
}
