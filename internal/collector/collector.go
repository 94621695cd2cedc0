package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yn6733212/Market-Snapshot/internal/calculator"
	"github.com/yn6733212/Market-Snapshot/internal/logging"
	"github.com/yn6733212/Market-Snapshot/internal/metrics"
	"github.com/yn6733212/Market-Snapshot/internal/model"
	"github.com/yn6733212/Market-Snapshot/internal/trace"
)

const (
	DefaultLookbackDays = 5
	DefaultTimeout      = 10 * time.Second
)

// Request names one instrument to collect. Key identifies the instrument in
// the report; Ticker is what the fetcher is asked for.
type Request struct {
	Key    string
	Ticker string
}

// Collector fetches many instruments concurrently and resolves each into
// facts. One instrument failing never affects another.
type Collector struct {
	Fetcher  Fetcher
	Lookback int
	Timeout  time.Duration
	Log      *logrus.Logger
	Metrics  *metrics.Metrics
}

// NewCollector creates a new Collector with default lookback and timeout.
func NewCollector(fetcher Fetcher, log *logrus.Logger) *Collector {
	if log == nil {
		log = logging.Discard()
	}
	return &Collector{
		Fetcher:  fetcher,
		Lookback: DefaultLookbackDays,
		Timeout:  DefaultTimeout,
		Log:      log,
	}
}

// CollectAll fetches every request in its own goroutine with its own timeout.
// The returned map holds one Outcome per request key.
func (c *Collector) CollectAll(ctx context.Context, reqs []Request) map[string]model.Outcome {
	results := make([]model.Outcome, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = c.collect(ctx, req)
		}(i, req)
	}
	wg.Wait()

	out := make(map[string]model.Outcome, len(results))
	for _, r := range results {
		out[r.Key] = r
	}
	return out
}

type fetchResult struct {
	series model.InstrumentSeries
	err    error
	panic  any
}

// collect resolves a single instrument. The timeout is enforced here, so a
// fetcher that ignores its context is abandoned rather than waited for.
func (c *Collector) collect(ctx context.Context, req Request) model.Outcome {
	out := model.Outcome{Key: req.Key, Ticker: req.Ticker}
	source := c.Fetcher.Name()
	log := c.Log.WithFields(logrus.Fields{"key": req.Key, "ticker": req.Ticker, "source": source})

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := trace.StartSpan(ctx, "collector.Fetch")
	span.SetAttributes(attribute.String("ticker", req.Ticker))
	defer span.End()

	start := time.Now()
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{panic: r}
			}
		}()
		series, err := c.Fetcher.FetchHistory(ctx, req.Ticker, c.lookback())
		done <- fetchResult{series: series, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		out.Err = fmt.Errorf("%w: %s: %w", model.ErrInstrumentUnavailable, req.Ticker, ctx.Err())
		log.WithError(ctx.Err()).Warn("Fetch abandoned, instrument will be reported without data")
		c.Metrics.ObserveFetch(source, "timeout", time.Since(start))
		return out
	}

	switch {
	case res.panic != nil:
		out.Err = fmt.Errorf("%w: %s: panic: %v", model.ErrInstrumentUnavailable, req.Ticker, res.panic)
		log.WithField("panic", res.panic).Error("Fetch panicked")
		c.Metrics.ObserveFetch(source, "panic", time.Since(start))
		return out
	case res.err != nil:
		out.Err = fmt.Errorf("%w: %s: %w", model.ErrInstrumentUnavailable, req.Ticker, res.err)
		log.WithError(res.err).Warn("Fetch failed, instrument will be reported without data")
		c.Metrics.ObserveFetch(source, "error", time.Since(start))
		return out
	}
	c.Metrics.ObserveFetch(source, "ok", time.Since(start))

	out.Facts = calculator.Resolve(res.series)
	if out.Facts.Empty() {
		out.Err = fmt.Errorf("%w: %s: no valid closes", model.ErrInstrumentUnavailable, req.Ticker)
		log.Warn("Series has no valid closes")
		return out
	}
	log.WithFields(logrus.Fields{
		"points": len(res.series.Points),
		"trend":  out.Facts.Trend.String(),
	}).Debug("Instrument resolved")
	return out
}

func (c *Collector) lookback() int {
	if c.Lookback <= 0 {
		return DefaultLookbackDays
	}
	return c.Lookback
}
