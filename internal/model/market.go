package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInstrumentUnavailable marks an instrument whose series could not be
// fetched or was unusable. It never aborts a report.
var ErrInstrumentUnavailable = errors.New("instrument unavailable")

// PricePoint is a single daily close. An invalid Close means the provider
// returned no price for that bar.
type PricePoint struct {
	Time  time.Time
	Close decimal.NullDecimal
}

// InstrumentSeries holds closing prices for one ticker, most recent last.
type InstrumentSeries struct {
	Ticker string
	Points []PricePoint
}

// Trend is the 3-point momentum verdict.
type Trend int

const (
	TrendNone Trend = iota
	TrendRising
	TrendFalling
)

func (t Trend) String() string {
	switch t {
	case TrendRising:
		return "rising"
	case TrendFalling:
		return "falling"
	default:
		return "none"
	}
}

// InstrumentFacts is derived once per report from an InstrumentSeries.
// PercentChange and LatestPrice are rounded to 2 decimal places.
type InstrumentFacts struct {
	PercentChange decimal.NullDecimal
	LatestPrice   decimal.NullDecimal
	Trend         Trend
}

// Empty reports whether no fact at all could be derived.
func (f InstrumentFacts) Empty() bool {
	return !f.PercentChange.Valid && !f.LatestPrice.Valid
}

// Outcome is the per-instrument result handed to the report composer.
type Outcome struct {
	Key    string
	Ticker string
	Facts  InstrumentFacts
	Err    error
}

// Degraded reports whether the instrument has no usable facts.
func (o Outcome) Degraded() bool {
	return o.Err != nil || o.Facts.Empty()
}
