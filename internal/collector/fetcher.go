package collector

import (
	"context"

	"github.com/yn6733212/Market-Snapshot/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns up to lookbackDays daily closes for ticker,
	// oldest first.
	FetchHistory(ctx context.Context, ticker string, lookbackDays int) (model.InstrumentSeries, error)
	Name() string
}
