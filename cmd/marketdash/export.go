package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"MarketDash/internal/scheduler"
)

var exportCmd = &cobra.Command{
	Use:   "export [symbol...]",
	Short: "Write report workbooks once",
	Long:  `Assembles the full report for each symbol and writes {symbol}_report.xlsx into the output directory. Without arguments the configured export symbols are used.`,
	RunE:  runExport,
}

var exportDir string

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", "", "Output directory (defaults to export.dir)")
}

func runExport(cmd *cobra.Command, args []string) error {
	symbols := args
	if len(symbols) == 0 {
		symbols = cfg.ExportSymbols()
	}
	dir := cfg.Export.Dir
	if exportDir != "" {
		dir = exportDir
	}

	ctx := context.Background()
	sched := scheduler.NewScheduler(ctx, newAssembler(newFetcher()), symbols, dir, logger)

	var failed int
	for _, res := range sched.RunExport(ctx) {
		if res.Err != nil {
			failed++
			fmt.Printf("%-6s  FAILED  %v\n", res.Symbol, res.Err)
			continue
		}
		fmt.Printf("%-6s  %s  (%d sections unavailable)\n", res.Symbol, res.Path, res.Failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d exports failed", failed, len(symbols))
	}
	return nil
}
