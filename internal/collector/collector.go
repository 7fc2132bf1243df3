package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"MarketDash/internal/calculator"
	"MarketDash/internal/model"
)

// NoInformation is shown for profile fields the provider does not report.
const NoInformation = "No information available"

// Summary is the headline view of a fetched series.
type Summary struct {
	AsOf      time.Time `json:"as_of"`
	Last      float64   `json:"last"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Position  float64   `json:"position"` // where Last sits within [Low, High]
	MA        float64   `json:"ma"`       // fast moving average at the last bar
	RSI       float64   `json:"rsi"`
}

// Chart is everything a chart front end needs for one symbol and timeframe.
type Chart struct {
	Series  *model.PriceSeries `json:"series"`
	Summary Summary            `json:"summary"`
}

// Profile is the in-depth scalar view of a company.
type Profile struct {
	Symbol          string `json:"symbol"`
	BusinessSummary string `json:"business_summary"`
	TrailingPE      string `json:"trailing_pe"`
	Beta            string `json:"beta"`
	DividendRate    string `json:"dividend_rate"`
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Engine  *calculator.Engine
	Logger  arbor.ILogger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, engine *calculator.Engine, logger arbor.ILogger) *Collector {
	if engine == nil {
		engine = calculator.NewEngine(calculator.DefaultConfig())
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &Collector{Fetcher: fetcher, Engine: engine, Logger: logger}
}

// Collect fetches bars for the timeframe and appends moving averages and oscillators.
func (c *Collector) Collect(ctx context.Context, symbol string, tf model.Timeframe) (*Chart, error) {
	series, err := c.Fetcher.FetchSeries(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	series, err = c.Engine.Apply(series)
	if err != nil {
		return nil, fmt.Errorf("compute indicators for %s: %w", symbol, err)
	}

	c.Logger.Debug().
		Str("symbol", symbol).
		Str("timeframe", tf.String()).
		Int("bars", series.Len()).
		Msg("series collected")

	return &Chart{Series: series, Summary: c.summarize(series)}, nil
}

func (c *Collector) summarize(s *model.PriceSeries) Summary {
	var sum Summary
	n := s.Len()
	if n == 0 {
		return sum
	}
	last := s.Bars[n-1]
	sum.AsOf = last.Time
	sum.Last = last.Close
	if n > 1 {
		prev := s.Bars[n-2].Close
		sum.Change = last.Close - prev
		if prev != 0 {
			sum.ChangePct = sum.Change / prev * 100
		}
	}

	high, low, err := calculator.PeriodRange(s.Bars, 0)
	if err != nil {
		c.Logger.Warn().Err(err).Str("symbol", s.Symbol).Msg("period range failed, using last close")
		high, low = last.Close, last.Close
	}
	sum.High, sum.Low = high, low

	if pos, err := calculator.RangePosition(last.Close, high, low); err != nil {
		c.Logger.Warn().Err(err).Str("symbol", s.Symbol).Msg("range position failed")
		sum.Position = 0.5
	} else {
		sum.Position = pos
	}

	cfg := c.Engine.Config()
	if ma, err := calculator.CalculateSMA(s.Closes(), cfg.MAFast); err != nil {
		c.Logger.Debug().Err(err).Str("symbol", s.Symbol).Msg("fast MA unavailable, using last close")
		sum.MA = last.Close
	} else {
		sum.MA = ma
	}
	if rsi, err := calculator.CalculateRSI(s.Bars, cfg.RSIWindow); err != nil {
		c.Logger.Warn().Err(err).Str("symbol", s.Symbol).Msg("RSI calculation failed, defaulting to 50")
		sum.RSI = 50
	} else {
		sum.RSI = rsi
	}
	return sum
}

// Profile fetches the company profile and keeps the fields shown in the in-depth view.
func (c *Collector) Profile(ctx context.Context, symbol string) (*Profile, error) {
	sec, err := c.Fetcher.FetchSection(ctx, symbol, model.SectionStockInfo, model.DefaultReportOptions())
	if err != nil {
		return nil, err
	}
	return &Profile{
		Symbol:          symbol,
		BusinessSummary: infoText(sec.Record, "longBusinessSummary"),
		TrailingPE:      infoText(sec.Record, "trailingPE"),
		Beta:            infoText(sec.Record, "beta"),
		DividendRate:    infoText(sec.Record, "dividendRate"),
	}, nil
}

func infoText(r model.Record, key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return NoInformation
	}
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return NoInformation
		}
		return x
	case float64:
		if model.IsUndefined(x) {
			return NoInformation
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
