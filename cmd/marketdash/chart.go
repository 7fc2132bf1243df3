package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"MarketDash/internal/model"
)

var chartCmd = &cobra.Command{
	Use:   "chart [symbol]",
	Short: "Print bars and indicators for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runChart,
}

var (
	chartPeriod   string
	chartInterval string
	chartJSON     bool
)

func init() {
	chartCmd.Flags().StringVar(&chartPeriod, "period", string(model.DailyYear.Period), "Lookback period (1d, 5d, 1mo, ... max)")
	chartCmd.Flags().StringVar(&chartInterval, "interval", string(model.DailyYear.Interval), "Bar interval (1m, 5m, 1h, 1d, 1wk, ...)")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "Print the full chart payload as JSON")
}

func runChart(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])
	tf := model.Timeframe{Period: model.Period(chartPeriod), Interval: model.Interval(chartInterval)}

	chart, err := newCollector(newFetcher()).Collect(context.Background(), symbol, tf)
	if err != nil {
		return err
	}
	if chartJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chart)
	}

	s := chart.Series
	names := s.ColumnNames()
	fmt.Printf("%-19s %10s", "Time", "Close")
	for _, n := range names {
		fmt.Printf(" %10s", n)
	}
	fmt.Println()

	from := max(s.Len()-20, 0)
	for i := from; i < s.Len(); i++ {
		fmt.Printf("%-19s %10.2f", s.Bars[i].Time.Format("2006-01-02 15:04:05"), s.Bars[i].Close)
		for _, n := range names {
			col, _ := s.Column(n)
			if model.IsUndefined(col[i]) {
				fmt.Printf(" %10s", "-")
				continue
			}
			fmt.Printf(" %10.2f", col[i])
		}
		fmt.Println()
	}

	sum := chart.Summary
	fmt.Printf("\n%s last %.2f (%+.2f, %+.2f%%)  range %.2f - %.2f  position %.0f%%\n",
		symbol, sum.Last, sum.Change, sum.ChangePct, sum.Low, sum.High, sum.Position*100)
	return nil
}
