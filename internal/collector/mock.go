package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"MarketDash/internal/model"
)

// mockAnchor pins generated data so runs are reproducible.
var mockAnchor = time.Date(2024, 6, 28, 16, 0, 0, 0, time.UTC)

// mockZone stands in for an exchange timezone on section timestamps.
var mockZone = time.FixedZone("EST", -5*3600)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV

	SeriesErr   error
	SectionErrs map[model.SectionKey]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(_ context.Context, symbol string, tf model.Timeframe) (*model.PriceSeries, error) {
	if err := tf.Validate(); err != nil {
		return nil, &model.OpError{Op: "fetch", Symbol: symbol, Err: err}
	}
	if m.SeriesErr != nil {
		return nil, &model.OpError{Op: "fetch", Symbol: symbol, Err: m.SeriesErr}
	}
	if m.DailyData != nil {
		return model.NewPriceSeries(symbol, tf, m.DailyData), nil
	}
	return model.NewPriceSeries(symbol, tf, generateMockBars(m.basePrice(symbol), tf)), nil
}

func (m *MockFetcher) FetchSection(_ context.Context, symbol string, key model.SectionKey, opts model.ReportOptions) (model.Section, error) {
	if err, ok := m.SectionErrs[key]; ok {
		return model.Section{}, &model.OpError{Op: "fetch section", Symbol: symbol, Section: string(key), Err: err}
	}
	name := string(key)
	price := m.basePrice(symbol)

	switch key {
	case model.SectionStockInfo:
		return model.RecordSection(name, model.Record{
			{Key: "symbol", Value: symbol},
			{Key: "longBusinessSummary", Value: symbol + " designs, manufactures and sells products worldwide."},
			{Key: "trailingPE", Value: 28.5},
			{Key: "beta", Value: 1.2},
			{Key: "dividendRate", Value: 0.96},
			{Key: "currency", Value: "USD"},
			{Key: "firstTradeDate", Value: time.Date(1980, 12, 12, 9, 30, 0, 0, mockZone)},
		}), nil
	case model.SectionHistory:
		bars := generateMockBars(price, opts.History)
		t := &model.Table{Columns: []string{"Date", "Open", "High", "Low", "Close", "Volume"}}
		for _, b := range bars {
			t.Rows = append(t.Rows, []any{b.Time.In(mockZone), b.Open, b.High, b.Low, b.Close, b.Volume})
		}
		return model.TableSection(name, t), nil
	case model.SectionHistoryMetadata:
		return model.RecordSection(name, model.Record{
			{Key: "currency", Value: "USD"},
			{Key: "exchangeTimezoneName", Value: "America/New_York"},
			{Key: "regularMarketPrice", Value: price},
			{Key: "regularMarketTime", Value: mockAnchor.In(mockZone)},
			{Key: "symbol", Value: symbol},
		}), nil
	case model.SectionShares:
		t := &model.Table{Columns: []string{"Date", "Shares"}}
		start := opts.SharesStart
		if start.IsZero() {
			start = mockAnchor.AddDate(-1, 0, 0)
		}
		for d := start; d.Before(mockAnchor); d = d.AddDate(0, 3, 0) {
			t.Rows = append(t.Rows, []any{d.In(mockZone), 15.5e9})
		}
		return model.TableSection(name, t), nil
	}

	if st, ok := statementSections[key]; ok {
		cols := []string{"2023-12-31", "2022-12-31", "2021-12-31"}
		if st.frequency == "quarterly" {
			cols = []string{"2024-03-31", "2023-12-31", "2023-09-30", "2023-06-30"}
		}
		t := &model.Table{IndexName: "Breakdown", Columns: cols}
		for i, item := range st.items[:4] {
			row := make([]any, len(cols))
			for j := range cols {
				row[j] = price * 1e6 * float64(i+1) * (1 - 0.05*float64(j))
			}
			t.Index = append(t.Index, item)
			t.Rows = append(t.Rows, row)
		}
		return model.TableSection(name, t), nil
	}

	if key == model.SectionRecommendationsSummary {
		return model.RecordSection(name, model.Record{
			{Key: "recommendationKey", Value: "buy"},
			{Key: "recommendationMean", Value: 2.1},
			{Key: "numberOfAnalystOpinions", Value: 38.0},
			{Key: "currentPrice", Value: price},
		}), nil
	}
	if _, ok := summarySections[key]; ok {
		t := &model.Table{Columns: []string{"Date", "Holder", "Value"}}
		for i := 0; i < 3; i++ {
			t.Rows = append(t.Rows, []any{
				mockAnchor.AddDate(0, -i, 0).In(mockZone),
				fmt.Sprintf("%s holder %d", name, i+1),
				price * 1000 * float64(3-i),
			})
		}
		return model.TableSection(name, t), nil
	}
	return model.Section{}, &model.OpError{Op: "fetch section", Symbol: symbol, Section: name, Err: model.ErrDataUnavailable}
}

func (m *MockFetcher) basePrice(symbol string) float64 {
	if m.Price > 0 {
		return m.Price
	}
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return 50 + float64(h.Sum32()%450)
}

// generateMockBars returns a gently oscillating naive series sized to the timeframe.
func generateMockBars(basePrice float64, tf model.Timeframe) []model.OHLCV {
	count, step := mockShape(tf)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/7) + float64(i-count/2)*0.0005)
		bars[i] = model.OHLCV{
			Time:   mockAnchor.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

var mockTradingDays = map[model.Period]int{
	model.Period1D: 1, model.Period5D: 5, model.Period1M: 21, model.Period3M: 63,
	model.Period6M: 126, model.Period1Y: 252, model.Period2Y: 504, model.Period5Y: 1260,
	model.Period10Y: 2520, model.PeriodYTD: 120, model.PeriodMax: 2520,
}

var mockIntervalMinutes = map[model.Interval]int{
	model.Interval1Min: 1, model.Interval2Min: 2, model.Interval5Min: 5, model.Interval15Min: 15,
	model.Interval30Min: 30, model.Interval60Min: 60, model.Interval90Min: 90, model.Interval1H: 60,
}

func mockShape(tf model.Timeframe) (int, time.Duration) {
	days := mockTradingDays[tf.Period]
	if mins, ok := mockIntervalMinutes[tf.Interval]; ok {
		return days * 390 / mins, time.Duration(mins) * time.Minute
	}
	switch tf.Interval {
	case model.Interval5D:
		return max(days/5, 1), 5 * 24 * time.Hour
	case model.Interval1W:
		return max(days/5, 1), 7 * 24 * time.Hour
	case model.Interval1Mo:
		return max(days/21, 1), 30 * 24 * time.Hour
	case model.Interval3Mo:
		return max(days/63, 1), 91 * 24 * time.Hour
	}
	return days, 24 * time.Hour
}
