package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"MarketDash/internal/calculator"
	"MarketDash/internal/collector"
	"MarketDash/internal/report"
)

// DefaultPath is read when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// DefaultSymbols is the catalog offered to the presentation layer.
var DefaultSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "NFLX", "INTC", "AMD",
	"V", "JPM", "JNJ", "WMT", "PG", "DIS", "MA", "HD", "PYPL", "BAC",
	"VZ", "ADBE", "CMCSA", "XOM", "CSCO", "PFE", "T", "PEP", "KO", "NKE",
	"MRK", "ABT", "ORCL", "CRM", "MCD", "LLY", "INTU", "UNH", "AVGO", "CVX",
	"COST", "ACN", "NEE", "DHR", "WFC", "TXN", "TMO", "UPS", "MS", "AMAT",
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host" validate:"required"`
		Port int    `yaml:"port" validate:"gte=1,lte=65535"`
	} `yaml:"server"`
	DataSource struct {
		QueryURL       string `yaml:"query_url" validate:"required,url"`
		CookieURL      string `yaml:"cookie_url" validate:"required,url"`
		TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1"`
		RateLimit      int    `yaml:"rate_limit" validate:"gte=1"`
		UserAgent      string `yaml:"user_agent"`
	} `yaml:"data_source"`
	Catalog struct {
		Symbols  []string `yaml:"symbols" validate:"min=1,dive,required"`
		Restrict bool     `yaml:"restrict"`
	} `yaml:"catalog"`
	Indicators calculator.Config `yaml:"indicators"`
	Report     report.Config     `yaml:"report"`
	Export     struct {
		Enabled bool     `yaml:"enabled"`
		Cron    string   `yaml:"cron" validate:"required"`
		Dir     string   `yaml:"dir" validate:"required"`
		Symbols []string `yaml:"symbols" validate:"dive,required"`
	} `yaml:"export"`
	Logging struct {
		Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file yields a config built from defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MARKETDASH_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MARKETDASH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MARKETDASH_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("EXPORT_CRON"); v != "" {
		cfg.Export.Cron = v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("REPORT_STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("REPORT_STRICT: %w", err)
		}
		cfg.Report.Strict = strict
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.DataSource.QueryURL == "" {
		c.DataSource.QueryURL = collector.DefaultQueryURL
	}
	if c.DataSource.CookieURL == "" {
		c.DataSource.CookieURL = collector.DefaultCookieURL
	}
	if c.DataSource.TimeoutSeconds == 0 {
		c.DataSource.TimeoutSeconds = int(collector.DefaultTimeout / time.Second)
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = collector.DefaultRateLimit
	}
	if len(c.Catalog.Symbols) == 0 {
		c.Catalog.Symbols = append([]string(nil), DefaultSymbols...)
	}
	def := calculator.DefaultConfig()
	if c.Indicators.MAFast == 0 {
		c.Indicators.MAFast = def.MAFast
	}
	if c.Indicators.MASlow == 0 {
		c.Indicators.MASlow = def.MASlow
	}
	if c.Indicators.RSIWindow == 0 {
		c.Indicators.RSIWindow = def.RSIWindow
	}
	if c.Indicators.MACDFast == 0 {
		c.Indicators.MACDFast = def.MACDFast
	}
	if c.Indicators.MACDSlow == 0 {
		c.Indicators.MACDSlow = def.MACDSlow
	}
	if c.Indicators.MACDSignal == 0 {
		c.Indicators.MACDSignal = def.MACDSignal
	}
	if c.Report.Concurrency == 0 {
		c.Report.Concurrency = report.DefaultConcurrency
	}
	if c.Report.SharesStart.IsZero() {
		c.Report.SharesStart = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Export.Cron == "" {
		c.Export.Cron = "0 0 18 * * 1-5"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "data/reports"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks field constraints and the export schedule.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Export.Cron); err != nil {
		return fmt.Errorf("export.cron %q: %w", c.Export.Cron, err)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Timeout returns the upstream HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}

// ExportSymbols returns the symbols the export job writes; the catalog when none are listed.
func (c *Config) ExportSymbols() []string {
	if len(c.Export.Symbols) > 0 {
		return c.Export.Symbols
	}
	return c.Catalog.Symbols
}
