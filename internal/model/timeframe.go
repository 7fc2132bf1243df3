package model

import (
	"fmt"
	"time"
)

// Period is the lookback range of a price request.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1M  Period = "1mo"
	Period3M  Period = "3mo"
	Period6M  Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	Period10Y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

// Interval is the bar granularity of a price request.
type Interval string

const (
	Interval1Min  Interval = "1m"
	Interval2Min  Interval = "2m"
	Interval5Min  Interval = "5m"
	Interval15Min Interval = "15m"
	Interval30Min Interval = "30m"
	Interval60Min Interval = "60m"
	Interval90Min Interval = "90m"
	Interval1H    Interval = "1h"
	Interval1D    Interval = "1d"
	Interval5D    Interval = "5d"
	Interval1W    Interval = "1wk"
	Interval1Mo   Interval = "1mo"
	Interval3Mo   Interval = "3mo"
)

// approximate span of each period, used only for interval compatibility checks
var periodSpan = map[Period]time.Duration{
	Period1D:  24 * time.Hour,
	Period5D:  5 * 24 * time.Hour,
	Period1M:  31 * 24 * time.Hour,
	Period3M:  92 * 24 * time.Hour,
	Period6M:  183 * 24 * time.Hour,
	Period1Y:  366 * 24 * time.Hour,
	Period2Y:  2 * 366 * 24 * time.Hour,
	Period5Y:  5 * 366 * 24 * time.Hour,
	Period10Y: 10 * 366 * 24 * time.Hour,
	PeriodYTD: 366 * 24 * time.Hour,
	PeriodMax: 100 * 366 * 24 * time.Hour,
}

var intradayLimit = map[Interval]time.Duration{
	Interval1Min:  5 * 24 * time.Hour,
	Interval2Min:  31 * 24 * time.Hour,
	Interval5Min:  31 * 24 * time.Hour,
	Interval15Min: 31 * 24 * time.Hour,
	Interval30Min: 31 * 24 * time.Hour,
	Interval60Min: 730 * 24 * time.Hour,
	Interval90Min: 31 * 24 * time.Hour,
	Interval1H:    730 * 24 * time.Hour,
}

var dailyIntervals = map[Interval]bool{
	Interval1D: true, Interval5D: true, Interval1W: true, Interval1Mo: true, Interval3Mo: true,
}

// Timeframe pairs a period with an interval.
type Timeframe struct {
	Period   Period   `json:"period"`
	Interval Interval `json:"interval"`
}

var (
	// DailyYear is one year of daily bars.
	DailyYear = Timeframe{Period: Period1Y, Interval: Interval1D}
	// IntradayDay is one session of minute bars.
	IntradayDay = Timeframe{Period: Period1D, Interval: Interval1Min}
	// HistoryMonth is the one-month history shown in the report.
	HistoryMonth = Timeframe{Period: Period1M, Interval: Interval1D}
)

// Intraday reports whether bars are finer than one day.
func (tf Timeframe) Intraday() bool {
	_, ok := intradayLimit[tf.Interval]
	return ok
}

// Validate checks that the pair is drawn from the vocabulary and servable upstream.
func (tf Timeframe) Validate() error {
	span, ok := periodSpan[tf.Period]
	if !ok {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidTimeframe, tf.Period)
	}
	if dailyIntervals[tf.Interval] {
		return nil
	}
	limit, ok := intradayLimit[tf.Interval]
	if !ok {
		return fmt.Errorf("%w: unknown interval %q", ErrInvalidTimeframe, tf.Interval)
	}
	if span > limit {
		return fmt.Errorf("%w: interval %s not available over %s", ErrInvalidTimeframe, tf.Interval, tf.Period)
	}
	return nil
}

func (tf Timeframe) String() string { return string(tf.Period) + "/" + string(tf.Interval) }
