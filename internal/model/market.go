package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// OHLCV represents a single candlestick bar. Time is naive (see Naive).
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Column is a derived per-bar value aligned with Series.Bars. NaN marks an undefined row.
type Column []float64

// IsUndefined reports whether v is the undefined marker.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// MarshalJSON writes undefined rows as null.
func (c Column) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(c)*8+2)
	buf = append(buf, '[')
	for i, v := range c {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// PriceSeries holds fetched bars plus indicator columns appended by the calculator.
// A PriceSeries is never modified in place once built; WithColumn returns a copy.
type PriceSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []OHLCV
	FetchedAt time.Time

	names   []string
	columns map[string]Column
}

// NewPriceSeries builds a series from bars that are already ordered and de-duplicated.
func NewPriceSeries(symbol string, tf Timeframe, bars []OHLCV) *PriceSeries {
	return &PriceSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Bars:      bars,
		FetchedAt: time.Now(),
		columns:   map[string]Column{},
	}
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Closes extracts the Close field of every bar.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// ColumnNames returns derived column names in the order they were appended.
func (s *PriceSeries) ColumnNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Column returns a derived column by name.
func (s *PriceSeries) Column(name string) (Column, bool) {
	c, ok := s.columns[name]
	return c, ok
}

// WithColumn returns a copy of the series with one more derived column.
// Bars and existing columns are shared, never rewritten.
func (s *PriceSeries) WithColumn(name string, values []float64) (*PriceSeries, error) {
	if len(values) != len(s.Bars) {
		return nil, fmt.Errorf("column %s: %d values for %d bars", name, len(values), len(s.Bars))
	}
	if _, exists := s.columns[name]; exists {
		return nil, fmt.Errorf("column %s already present", name)
	}
	out := *s
	out.names = append(append(make([]string, 0, len(s.names)+1), s.names...), name)
	out.columns = make(map[string]Column, len(s.columns)+1)
	for k, v := range s.columns {
		out.columns[k] = v
	}
	out.columns[name] = Column(values)
	return &out, nil
}

// MarshalJSON flattens the series into a chart-friendly payload.
func (s *PriceSeries) MarshalJSON() ([]byte, error) {
	cols := make(map[string]Column, len(s.columns))
	for k, v := range s.columns {
		cols[k] = v
	}
	return json.Marshal(struct {
		Symbol     string            `json:"symbol"`
		Period     Period            `json:"period"`
		Interval   Interval          `json:"interval"`
		Bars       []OHLCV           `json:"bars"`
		Columns    []string          `json:"columns"`
		Indicators map[string]Column `json:"indicators"`
	}{s.Symbol, s.Timeframe.Period, s.Timeframe.Interval, s.Bars, s.ColumnNames(), cols})
}

// Naive drops the zone of t while keeping its wall clock. Naive values are carried in time.UTC.
func Naive(t time.Time) time.Time {
	if t.Location() == time.UTC {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// IsNaive reports whether t carries no zone other than the naive marker.
func IsNaive(t time.Time) bool { return t.Location() == time.UTC }
