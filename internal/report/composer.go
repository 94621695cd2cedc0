// Package report composes the spoken Hebrew market snapshot.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yn6733212/Market-Snapshot/internal/collector"
	"github.com/yn6733212/Market-Snapshot/internal/hebrew"
	"github.com/yn6733212/Market-Snapshot/internal/logging"
	"github.com/yn6733212/Market-Snapshot/internal/model"
	"github.com/yn6733212/Market-Snapshot/internal/session"
	"github.com/yn6733212/Market-Snapshot/internal/trace"
)

// ErrClockUnavailable is returned when no valid instant was supplied.
var ErrClockUnavailable = errors.New("report: clock unavailable")

// Collector resolves a batch of instruments.
type Collector interface {
	CollectAll(ctx context.Context, reqs []collector.Request) map[string]model.Outcome
}

// Composer turns market facts into the ordered report text.
type Composer struct {
	Collector   Collector
	Sessions    *session.Classifier
	Location    *time.Location
	Instruments []Instrument
	Log         *logrus.Logger
}

// NewComposer creates a Composer over the default instrument table.
func NewComposer(c Collector, sessions *session.Classifier, loc *time.Location, log *logrus.Logger) *Composer {
	if log == nil {
		log = logging.Discard()
	}
	return &Composer{
		Collector:   c,
		Sessions:    sessions,
		Location:    loc,
		Instruments: DefaultInstruments(),
		Log:         log,
	}
}

// Compose builds the report for now. Instrument failures degrade single
// lines; only a missing clock fails the whole report.
func (c *Composer) Compose(ctx context.Context, now time.Time) (*model.Report, error) {
	if now.IsZero() {
		return nil, ErrClockUnavailable
	}
	ctx, span := trace.StartSpan(ctx, "report.Compose")
	defer span.End()

	local := now.In(c.Location)
	sessions := c.Sessions.Classify(now)
	live := session.UseLiveIndex(sessions.US)
	span.SetAttributes(
		attribute.String("session.israel", sessions.Israel.String()),
		attribute.String("session.us", sessions.US.String()),
	)

	var reqs []collector.Request
	for _, inst := range c.Instruments {
		if inst.Segment == model.SegmentIsrael && sessions.Israel == model.IsraelBeforeOpen {
			continue
		}
		reqs = append(reqs, collector.Request{Key: inst.Key, Ticker: inst.ticker(live)})
	}
	outcomes := c.Collector.CollectAll(ctx, reqs)

	r := &model.Report{
		GeneratedAt: now,
		Sessions:    sessions,
		Segments: []model.Segment{
			{Kind: model.SegmentHeader, Lines: []string{header(local)}},
			c.israel(now, sessions.Israel, outcomes),
			c.world(sessions.US, live, outcomes),
			c.plain(model.SegmentEquities, titleEquities, outcomes),
			c.plain(model.SegmentCrypto, titleCrypto, outcomes),
			c.plain(model.SegmentCommodities, titleCommodities, outcomes),
		},
	}
	for _, req := range reqs {
		if o, ok := outcomes[req.Key]; ok {
			r.Outcomes = append(r.Outcomes, o)
		} else {
			r.Outcomes = append(r.Outcomes, model.Outcome{Key: req.Key, Ticker: req.Ticker, Err: model.ErrInstrumentUnavailable})
		}
	}

	c.Log.WithFields(logrus.Fields{
		"israel":   sessions.Israel.String(),
		"us":       sessions.US.String(),
		"degraded": len(r.Degraded()),
	}).Info("Report composed")
	return r, nil
}

func (c *Composer) segment(kind model.SegmentKind) []Instrument {
	var out []Instrument
	for _, inst := range c.Instruments {
		if inst.Segment == kind {
			out = append(out, inst)
		}
	}
	return out
}

func (c *Composer) israel(now time.Time, s model.IsraelSession, outcomes map[string]model.Outcome) model.Segment {
	seg := model.Segment{Kind: model.SegmentIsrael, Lines: []string{titleIsrael}}
	switch s {
	case model.IsraelBeforeOpen:
		wait := untilPhrase(c.Sessions.UntilOpen(now))
		seg.Lines = append(seg.Lines, fmt.Sprintf(israelBeforeOpen, wait))
		return seg
	case model.IsraelAfterClose:
		seg.Lines = append(seg.Lines, israelClosed)
		for _, inst := range c.segment(model.SegmentIsrael) {
			seg.Lines = append(seg.Lines, sentence(inst, hebrew.Past, ClosedAt, inst.Unit, outcomes[inst.Key].Facts))
		}
	default:
		for _, inst := range c.segment(model.SegmentIsrael) {
			seg.Lines = append(seg.Lines, sentence(inst, inst.Table, inst.Level, inst.Unit, outcomes[inst.Key].Facts))
		}
	}
	return seg
}

func (c *Composer) world(s model.USSession, live bool, outcomes map[string]model.Outcome) model.Segment {
	seg := model.Segment{Kind: model.SegmentWorld, Lines: []string{titleWorld}}
	switch s {
	case model.USOpen:
		seg.Lines = append(seg.Lines, worldOpen)
	case model.USPreMarket:
		seg.Lines = append(seg.Lines, worldPre)
	case model.USPostMarket:
		seg.Lines = append(seg.Lines, worldPost)
	case model.USClosedWeekend:
		seg.Lines = append(seg.Lines, worldWeekend)
	}
	for _, inst := range c.segment(model.SegmentWorld) {
		facts := outcomes[inst.Key].Facts
		if s == model.USClosedWeekend {
			seg.Lines = append(seg.Lines, levelOnly(inst, ClosedAt, inst.unit(live), facts))
			continue
		}
		seg.Lines = append(seg.Lines, sentence(inst, inst.Table, inst.Level, inst.unit(live), facts))
	}
	return seg
}

func (c *Composer) plain(kind model.SegmentKind, title string, outcomes map[string]model.Outcome) model.Segment {
	seg := model.Segment{Kind: kind, Lines: []string{title}}
	for _, inst := range c.segment(kind) {
		seg.Lines = append(seg.Lines, sentence(inst, inst.Table, inst.Level, inst.Unit, outcomes[inst.Key].Facts))
	}
	return seg
}
