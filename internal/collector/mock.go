package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yn6733212/Market-Snapshot/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Tickers in Errs fail, tickers in Closes return those closes, anything else
// gets a generated series around Price, or fails when Price is zero.
type MockFetcher struct {
	Price  float64
	Closes map[string][]float64
	Errs   map[string]error
	Panics map[string]bool
	Delay  time.Duration
	Now    time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ctx context.Context, ticker string, lookbackDays int) (model.InstrumentSeries, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return model.InstrumentSeries{}, ctx.Err()
		}
	}
	if m.Panics[ticker] {
		panic("mock fetcher: " + ticker)
	}
	if err, ok := m.Errs[ticker]; ok {
		return model.InstrumentSeries{}, err
	}
	if closes, ok := m.Closes[ticker]; ok {
		return SeriesOf(ticker, m.end(), closes...), nil
	}
	if m.Price == 0 {
		return model.InstrumentSeries{}, fmt.Errorf("mock: no data for %s", ticker)
	}
	return generateMockSeries(ticker, m.end(), m.Price, lookbackDays), nil
}

func (m *MockFetcher) end() time.Time {
	if m.Now.IsZero() {
		return time.Now()
	}
	return m.Now
}

// SeriesOf builds a daily series ending at end. A NaN close becomes a
// missing point.
func SeriesOf(ticker string, end time.Time, closes ...float64) model.InstrumentSeries {
	s := model.InstrumentSeries{Ticker: ticker, Points: make([]model.PricePoint, len(closes))}
	for i, c := range closes {
		p := model.PricePoint{Time: end.AddDate(0, 0, i-len(closes)+1)}
		if !math.IsNaN(c) {
			p.Close = decimal.NewNullDecimal(decimal.NewFromFloat(c))
		}
		s.Points[i] = p
	}
	return s
}

func generateMockSeries(ticker string, end time.Time, basePrice float64, count int) model.InstrumentSeries {
	if count <= 0 {
		count = 5
	}
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = basePrice * (1 + float64(i-count/2)*0.001)
	}
	return SeriesOf(ticker, end, closes...)
}
