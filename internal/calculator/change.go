package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/yn6733212/Market-Snapshot/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Resolve derives the latest price, the percent change against the previous
// close and the short-term trend from a daily series. Points without a close
// are dropped first. A zero previous close yields a 0% change.
func Resolve(series model.InstrumentSeries) model.InstrumentFacts {
	closes := validCloses(series.Points)
	n := len(closes)
	if n == 0 {
		return model.InstrumentFacts{}
	}

	last := closes[n-1]
	facts := model.InstrumentFacts{
		LatestPrice: decimal.NewNullDecimal(last.Round(2)),
	}
	if n < 2 {
		return facts
	}

	prev := closes[n-2]
	facts.PercentChange = decimal.NewNullDecimal(PercentChange(prev, last))
	if n < 3 {
		return facts
	}
	facts.Trend = trendOf(closes[n-3], prev, last)
	return facts
}

// PercentChange returns (to - from) / from * 100 rounded to two decimals.
func PercentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(hundred).Round(2)
}

func trendOf(a, b, c decimal.Decimal) model.Trend {
	switch {
	case c.GreaterThan(b) && b.GreaterThan(a):
		return model.TrendRising
	case c.LessThan(b) && b.LessThan(a):
		return model.TrendFalling
	default:
		return model.TrendNone
	}
}

func validCloses(points []model.PricePoint) []decimal.Decimal {
	closes := make([]decimal.Decimal, 0, len(points))
	for _, p := range points {
		if p.Close.Valid {
			closes = append(closes, p.Close.Decimal)
		}
	}
	return closes
}
