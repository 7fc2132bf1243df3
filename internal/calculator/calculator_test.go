package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDash/internal/model"
)

func seriesFromCloses(closes []float64) *model.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return model.NewPriceSeries("TEST", model.DailyYear, bars)
}

// zigzag produces a deterministic series with both gains and losses.
func zigzag(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7) - 3
	}
	return out
}

func TestRollingMean_Window3(t *testing.T) {
	got := RollingMean([]float64{10, 11, 12, 13, 14}, 3)
	require.Len(t, got, 5)
	assert.True(t, model.IsUndefined(got[0]))
	assert.True(t, model.IsUndefined(got[1]))
	assert.InDelta(t, 11, got[2], 1e-9)
	assert.InDelta(t, 12, got[3], 1e-9)
	assert.InDelta(t, 13, got[4], 1e-9)
}

func TestRollingMean_ShortInputIsUndefined(t *testing.T) {
	for _, in := range [][]float64{nil, {}, {1, 2, 3}} {
		got := RollingMean(in, 20)
		assert.Len(t, got, len(in))
		for _, v := range got {
			assert.True(t, model.IsUndefined(v))
		}
	}
}

func TestAddMovingAverages(t *testing.T) {
	closes := zigzag(120)
	s := seriesFromCloses(closes)
	out, err := NewEngine(DefaultConfig()).AddMovingAverages(s)
	require.NoError(t, err)

	ma20, ok := out.Column("MA20")
	require.True(t, ok)
	ma50, ok := out.Column("MA50")
	require.True(t, ok)
	require.Len(t, ma20, len(closes))
	require.Len(t, ma50, len(closes))

	for i := 0; i < 19; i++ {
		assert.True(t, model.IsUndefined(ma20[i]), "MA20 row %d", i)
	}
	for i := 0; i < 49; i++ {
		assert.True(t, model.IsUndefined(ma50[i]), "MA50 row %d", i)
	}
	for i := 19; i < len(closes); i++ {
		want, err := CalculateSMA(closes[:i+1], 20)
		require.NoError(t, err)
		assert.InDelta(t, want, ma20[i], 1e-9)
	}
	for i := 49; i < len(closes); i++ {
		want, err := CalculateSMA(closes[:i+1], 50)
		require.NoError(t, err)
		assert.InDelta(t, want, ma50[i], 1e-9)
	}

	// input left untouched
	assert.Empty(t, s.ColumnNames())
	assert.Equal(t, []string{"MA20", "MA50"}, out.ColumnNames())
	assert.Equal(t, s.Bars, out.Bars)
}

func TestAddMovingAverages_EmptySeries(t *testing.T) {
	out, err := NewEngine(DefaultConfig()).Apply(seriesFromCloses(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, []string{"MA20", "MA50", "RSI", "MACD"}, out.ColumnNames())
}

func TestRSI_Bounds(t *testing.T) {
	closes := zigzag(200)
	rsi := RSI(closes, 14)
	require.Len(t, rsi, len(closes))
	for i := 0; i < 13; i++ {
		assert.True(t, model.IsUndefined(rsi[i]), "row %d", i)
	}
	for i := 13; i < len(rsi); i++ {
		require.False(t, model.IsUndefined(rsi[i]), "row %d", i)
		assert.GreaterOrEqual(t, rsi[i], 0.0)
		assert.LessOrEqual(t, rsi[i], 100.0)
	}
}

func TestRSI_MonotonicSeries(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = float64(100 + i)
		down[i] = float64(100 - i)
	}
	assert.Equal(t, 100.0, RSI(up, 14)[29])
	assert.InDelta(t, 0.0, RSI(down, 14)[29], 1e-9)
}

func TestRSI_KnownValue(t *testing.T) {
	// two rows, window 2: seed 0/0 then gain 2 -> avgGain 1, avgLoss 0 -> 100
	assert.Equal(t, 100.0, RSI([]float64{1, 3}, 2)[1])
	// gain 2 then loss 1: avgGain (0.5*1+0)=0.5, avgLoss 0.5*0+0.5*1=0.5 -> 50
	got := RSI([]float64{1, 3, 2}, 2)
	assert.InDelta(t, 50.0, got[2], 1e-9)
}

func TestCalculateRSI_Insufficient(t *testing.T) {
	rsi, err := CalculateRSI(seriesFromCloses([]float64{1, 2}).Bars, 14)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rsi)
}

func TestEMA_ConstantInput(t *testing.T) {
	in := []float64{5, 5, 5, 5, 5}
	got := EMA(in, 3)
	assert.True(t, model.IsUndefined(got[0]))
	assert.True(t, model.IsUndefined(got[1]))
	for _, v := range got[2:] {
		assert.InDelta(t, 5.0, v, 1e-12)
	}
}

func TestEMA_Recursion(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, 1) // alpha 1 tracks input
	assert.Equal(t, []float64{1, 2, 3}, got)

	got = EMA([]float64{2, 4, 6}, 3) // alpha 0.5: 2 -> 3 -> 4.5
	assert.True(t, model.IsUndefined(got[1]))
	assert.InDelta(t, 4.5, got[2], 1e-12)
}

func TestMACD_DefinedAfterSlowWindow(t *testing.T) {
	closes := zigzag(80)
	m := MACD(closes, 12, 26, 9)
	require.Len(t, m.Line, len(closes))
	for i := 0; i < 25; i++ {
		assert.True(t, model.IsUndefined(m.Line[i]), "line row %d", i)
	}
	for i := 25; i < len(closes); i++ {
		assert.False(t, model.IsUndefined(m.Line[i]), "line row %d", i)
	}
	for i := 0; i < 33; i++ {
		assert.True(t, model.IsUndefined(m.Signal[i]), "signal row %d", i)
	}
	assert.False(t, model.IsUndefined(m.Signal[33]))
	assert.InDelta(t, m.Line[40]-m.Signal[40], m.Histogram[40], 1e-12)
}

func TestAddOscillators(t *testing.T) {
	s := seriesFromCloses(zigzag(60))
	out, err := NewEngine(Config{}).AddOscillators(s)
	require.NoError(t, err)
	assert.Equal(t, []string{ColumnRSI, ColumnMACD}, out.ColumnNames())

	macd, _ := out.Column(ColumnMACD)
	want := MACD(s.Closes(), 12, 26, 9).Line
	for i := range want {
		if model.IsUndefined(want[i]) {
			assert.True(t, model.IsUndefined(macd[i]))
			continue
		}
		assert.InDelta(t, want[i], macd[i], 1e-12)
	}
}

func TestEngine_ConfiguredWindows(t *testing.T) {
	e := NewEngine(Config{MAFast: 3, MASlow: 5})
	out, err := e.AddMovingAverages(seriesFromCloses([]float64{10, 11, 12, 13, 14}))
	require.NoError(t, err)
	assert.Equal(t, []string{"MA3", "MA5"}, out.ColumnNames())
	ma5, _ := out.Column("MA5")
	assert.InDelta(t, 12.0, ma5[4], 1e-9)
	assert.Equal(t, 14, e.Config().RSIWindow)
}

func TestPeriodRange(t *testing.T) {
	bars := seriesFromCloses([]float64{10, 20, 15}).Bars
	h, l, err := PeriodRange(bars, 0)
	require.NoError(t, err)
	assert.Equal(t, 21.0, h)
	assert.Equal(t, 9.0, l)

	h, l, err = PeriodRange(bars, 1)
	require.NoError(t, err)
	assert.Equal(t, 16.0, h)
	assert.Equal(t, 14.0, l)

	_, _, err = PeriodRange(nil, 0)
	assert.Error(t, err)
}

func TestRangePosition(t *testing.T) {
	pos, err := RangePosition(15, 20, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos, 1e-12)

	pos, _ = RangePosition(25, 20, 10)
	assert.Equal(t, 1.0, pos)
	pos, _ = RangePosition(7, 7, 7)
	assert.Equal(t, 0.5, pos)
	_, err = RangePosition(1, 1, 2)
	assert.Error(t, err)
}
