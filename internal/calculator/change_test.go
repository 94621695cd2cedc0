package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yn6733212/Market-Snapshot/internal/model"
)

func series(closes ...any) model.InstrumentSeries {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := model.InstrumentSeries{Ticker: "TEST"}
	for i, c := range closes {
		p := model.PricePoint{Time: start.AddDate(0, 0, i)}
		if v, ok := c.(float64); ok {
			p.Close = decimal.NewNullDecimal(decimal.NewFromFloat(v))
		}
		s.Points = append(s.Points, p)
	}
	return s
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestResolve_Empty(t *testing.T) {
	facts := Resolve(series())
	assert.True(t, facts.Empty())
	assert.Equal(t, model.TrendNone, facts.Trend)

	facts = Resolve(series(nil, nil))
	assert.True(t, facts.Empty())
}

func TestResolve_SinglePoint(t *testing.T) {
	facts := Resolve(series(101.237))
	assert.True(t, facts.LatestPrice.Valid)
	assert.True(t, dec(101.24).Equal(facts.LatestPrice.Decimal))
	assert.False(t, facts.PercentChange.Valid)
	assert.Equal(t, model.TrendNone, facts.Trend)
}

func TestResolve_TwoPoints(t *testing.T) {
	facts := Resolve(series(100.0, 110.0))
	assert.True(t, dec(10).Equal(facts.PercentChange.Decimal), facts.PercentChange.Decimal.String())
	assert.True(t, dec(110).Equal(facts.LatestPrice.Decimal))
	assert.Equal(t, model.TrendNone, facts.Trend)
}

func TestResolve_Trend(t *testing.T) {
	tests := []struct {
		name   string
		closes []any
		want   model.Trend
	}{
		{"rising", []any{100.0, 110.0, 120.0}, model.TrendRising},
		{"falling", []any{120.0, 110.0, 100.0}, model.TrendFalling},
		{"mixed", []any{100.0, 120.0, 110.0}, model.TrendNone},
		{"flat", []any{100.0, 100.0, 101.0}, model.TrendNone},
		{"only last three count", []any{50.0, 200.0, 100.0, 110.0, 120.0}, model.TrendRising},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(series(tt.closes...)).Trend)
		})
	}
}

func TestResolve_DropsMissingCloses(t *testing.T) {
	facts := Resolve(series(100.0, nil, 110.0, nil))
	assert.True(t, dec(10).Equal(facts.PercentChange.Decimal))
	assert.True(t, dec(110).Equal(facts.LatestPrice.Decimal))
	assert.Equal(t, model.TrendNone, facts.Trend)
}

func TestResolve_ZeroBaseline(t *testing.T) {
	facts := Resolve(series(0.0, 5.0))
	assert.True(t, facts.PercentChange.Valid)
	assert.True(t, facts.PercentChange.Decimal.IsZero())
	assert.True(t, dec(5).Equal(facts.LatestPrice.Decimal))
}

func TestPercentChange_Rounds(t *testing.T) {
	assert.Equal(t, "-33.33", PercentChange(dec(3), dec(2)).StringFixed(2))
	assert.Equal(t, "0.50", PercentChange(dec(200), dec(201)).StringFixed(2))
}
