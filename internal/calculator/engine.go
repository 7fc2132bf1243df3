package calculator

import (
	"fmt"

	"MarketDash/internal/model"
)

// Column names appended by the engine. Moving averages are named after their window (MA20, MA50).
const (
	ColumnRSI  = "RSI"
	ColumnMACD = "MACD"
)

// MAColumn returns the column name of a moving average over window bars.
func MAColumn(window int) string { return fmt.Sprintf("MA%d", window) }

// Config holds indicator windows.
type Config struct {
	MAFast     int `yaml:"ma_fast" validate:"gte=1"`
	MASlow     int `yaml:"ma_slow" validate:"gtfield=MAFast"`
	RSIWindow  int `yaml:"rsi_window" validate:"gte=1"`
	MACDFast   int `yaml:"macd_fast" validate:"gte=1"`
	MACDSlow   int `yaml:"macd_slow" validate:"gtfield=MACDFast"`
	MACDSignal int `yaml:"macd_signal" validate:"gte=1"`
}

// DefaultConfig returns MA 20/50, RSI 14 and MACD 12/26/9.
func DefaultConfig() Config {
	return Config{MAFast: 20, MASlow: 50, RSIWindow: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9}
}

// Engine appends indicator columns to price series.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine; zero windows fall back to DefaultConfig values.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MAFast <= 0 {
		cfg.MAFast = def.MAFast
	}
	if cfg.MASlow <= 0 {
		cfg.MASlow = def.MASlow
	}
	if cfg.RSIWindow <= 0 {
		cfg.RSIWindow = def.RSIWindow
	}
	if cfg.MACDFast <= 0 {
		cfg.MACDFast = def.MACDFast
	}
	if cfg.MACDSlow <= 0 {
		cfg.MACDSlow = def.MACDSlow
	}
	if cfg.MACDSignal <= 0 {
		cfg.MACDSignal = def.MACDSignal
	}
	return &Engine{cfg: cfg}
}

// Config returns the effective windows.
func (e *Engine) Config() Config { return e.cfg }

// AddMovingAverages appends the fast and slow simple moving averages of Close.
func (e *Engine) AddMovingAverages(s *model.PriceSeries) (*model.PriceSeries, error) {
	closes := s.Closes()
	out, err := s.WithColumn(MAColumn(e.cfg.MAFast), RollingMean(closes, e.cfg.MAFast))
	if err != nil {
		return nil, fmt.Errorf("add moving averages: %w", err)
	}
	out, err = out.WithColumn(MAColumn(e.cfg.MASlow), RollingMean(closes, e.cfg.MASlow))
	if err != nil {
		return nil, fmt.Errorf("add moving averages: %w", err)
	}
	return out, nil
}

// AddOscillators appends RSI and the MACD line. The signal line is computed but not surfaced.
func (e *Engine) AddOscillators(s *model.PriceSeries) (*model.PriceSeries, error) {
	closes := s.Closes()
	out, err := s.WithColumn(ColumnRSI, RSI(closes, e.cfg.RSIWindow))
	if err != nil {
		return nil, fmt.Errorf("add oscillators: %w", err)
	}
	macd := MACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	out, err = out.WithColumn(ColumnMACD, macd.Line)
	if err != nil {
		return nil, fmt.Errorf("add oscillators: %w", err)
	}
	return out, nil
}

// Apply runs AddMovingAverages then AddOscillators.
func (e *Engine) Apply(s *model.PriceSeries) (*model.PriceSeries, error) {
	out, err := e.AddMovingAverages(s)
	if err != nil {
		return nil, err
	}
	return e.AddOscillators(out)
}
