package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"MarketDash/internal/calculator"
	"MarketDash/internal/collector"
	"MarketDash/internal/config"
	"MarketDash/internal/logging"
	"MarketDash/internal/report"
)

var (
	configPath string
	useMock    bool

	cfg    *config.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "marketdash",
	Short:         "Stock charts, indicators and downloadable fundamentals reports",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger = logging.New(cfg.Logging.Level)
		return nil
	},
}

func init() {
	defaultPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "Serve generated data instead of calling Yahoo Finance")

	rootCmd.AddCommand(serveCmd, exportCmd, chartCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFetcher picks the data source from flags and config.
func newFetcher() collector.Fetcher {
	if useMock {
		logger.Warn().Msg("using mock data source")
		return &collector.MockFetcher{}
	}
	return collector.NewYahooFetcher(
		collector.WithQueryURL(cfg.DataSource.QueryURL),
		collector.WithCookieURL(cfg.DataSource.CookieURL),
		collector.WithTimeout(cfg.Timeout()),
		collector.WithRateLimit(cfg.DataSource.RateLimit),
		collector.WithUserAgent(cfg.DataSource.UserAgent),
		collector.WithProxy(cfg.Proxy),
		collector.WithLogger(logger),
	)
}

func newCollector(f collector.Fetcher) *collector.Collector {
	return collector.NewCollector(f, calculator.NewEngine(cfg.Indicators), logger)
}

func newAssembler(f collector.Fetcher) *report.Assembler {
	return report.NewAssembler(f, cfg.Report, logger)
}
