package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDash/internal/calculator"
	"MarketDash/internal/model"
)

func TestCollector_Collect(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, nil, nil)

	chart, err := c.Collect(context.Background(), "AAPL", model.DailyYear)
	require.NoError(t, err)

	s := chart.Series
	assert.Equal(t, 252, s.Len())
	assert.Equal(t, []string{"MA20", "MA50", calculator.ColumnRSI, calculator.ColumnMACD}, s.ColumnNames())
	for _, name := range s.ColumnNames() {
		col, ok := s.Column(name)
		require.True(t, ok)
		assert.Len(t, col, s.Len(), name)
	}

	last := s.Bars[s.Len()-1]
	assert.Equal(t, last.Close, chart.Summary.Last)
	assert.Equal(t, last.Time, chart.Summary.AsOf)
	assert.InDelta(t, last.Close-s.Bars[s.Len()-2].Close, chart.Summary.Change, 1e-9)
	assert.GreaterOrEqual(t, chart.Summary.High, chart.Summary.Low)
	assert.GreaterOrEqual(t, chart.Summary.Position, 0.0)
	assert.LessOrEqual(t, chart.Summary.Position, 1.0)

	ma20, _ := s.Column("MA20")
	rsi, _ := s.Column(calculator.ColumnRSI)
	assert.InDelta(t, ma20[s.Len()-1], chart.Summary.MA, 1e-9)
	assert.InDelta(t, rsi[s.Len()-1], chart.Summary.RSI, 1e-9)
}

func TestCollector_CollectIntraday(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, nil, nil)

	chart, err := c.Collect(context.Background(), "AAPL", model.IntradayDay)
	require.NoError(t, err)
	require.Equal(t, 390, chart.Series.Len())
	assert.Equal(t, time.Minute, chart.Series.Bars[1].Time.Sub(chart.Series.Bars[0].Time))
}

func TestCollector_CollectPropagatesFetchError(t *testing.T) {
	c := NewCollector(&MockFetcher{SeriesErr: model.ErrDataUnavailable}, nil, nil)

	_, err := c.Collect(context.Background(), "ZZZZ", model.DailyYear)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestCollector_Profile(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, nil, nil)

	p, err := c.Profile(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", p.Symbol)
	assert.Contains(t, p.BusinessSummary, "MSFT")
	assert.Equal(t, "28.5", p.TrailingPE)
	assert.Equal(t, "1.2", p.Beta)
	assert.Equal(t, "0.96", p.DividendRate)
}

func TestInfoText_Fallback(t *testing.T) {
	r := model.Record{
		{Key: "blank", Value: "  "},
		{Key: "null", Value: nil},
		{Key: "undefined", Value: calculator.Undefined},
	}
	for _, key := range []string{"blank", "null", "undefined", "missing"} {
		assert.Equal(t, NoInformation, infoText(r, key), key)
	}
}

func TestMockFetcher_SectionFailureInjection(t *testing.T) {
	m := &MockFetcher{SectionErrs: map[model.SectionKey]error{model.SectionShares: model.ErrProvider}}

	_, err := m.FetchSection(context.Background(), "AAPL", model.SectionShares, model.DefaultReportOptions())
	assert.ErrorIs(t, err, model.ErrProvider)

	for _, key := range model.ReportSections {
		if key == model.SectionShares {
			continue
		}
		sec, err := m.FetchSection(context.Background(), "AAPL", key, model.DefaultReportOptions())
		require.NoError(t, err, key)
		assert.Equal(t, string(key), sec.Name)
	}
}
