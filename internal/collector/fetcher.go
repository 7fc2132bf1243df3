package collector

import (
	"context"

	"MarketDash/internal/model"
)

// Fetcher defines the interface for fetching market data and report sections.
type Fetcher interface {
	// FetchSeries returns ordered, de-duplicated bars with naive timestamps.
	FetchSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.PriceSeries, error)
	// FetchSection returns one report section. Timestamps may still carry a zone.
	FetchSection(ctx context.Context, symbol string, key model.SectionKey, opts model.ReportOptions) (model.Section, error)
	Name() string
}
