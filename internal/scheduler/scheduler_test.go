package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MarketDash/internal/collector"
	"MarketDash/internal/model"
	"MarketDash/internal/report"
)

func TestRunExport_WritesWorkbooks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	asm := report.NewAssembler(&collector.MockFetcher{Price: 100}, report.Config{}, nil)
	s := NewScheduler(context.Background(), asm, []string{"AAPL", "MSFT"}, dir, nil)

	results := s.RunExport(context.Background())
	require.Len(t, results, 2)
	for _, res := range results {
		require.NoError(t, res.Err, res.Symbol)
		assert.Equal(t, filepath.Join(dir, res.Symbol+"_report.xlsx"), res.Path)

		f, err := excelize.OpenFile(res.Path)
		require.NoError(t, err)
		assert.Len(t, f.GetSheetList(), len(model.ReportSections))
		f.Close()
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestRunExport_FailingSymbolDoesNotStopRun(t *testing.T) {
	errs := map[model.SectionKey]error{}
	for _, k := range model.ReportSections {
		errs[k] = model.ErrDataUnavailable
	}
	asm := report.NewAssembler(&collector.MockFetcher{SectionErrs: errs}, report.Config{}, nil)
	s := NewScheduler(context.Background(), asm, []string{"ZZZZ", "YYYY"}, t.TempDir(), nil)

	results := s.RunExport(context.Background())
	require.Len(t, results, 2)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, model.ErrDataUnavailable)
		assert.Empty(t, res.Path)
	}
}

func TestExportSymbol_CountsFailedSections(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Price:       100,
		SectionErrs: map[model.SectionKey]error{model.SectionShares: model.ErrProvider},
	}
	s := NewScheduler(context.Background(), report.NewAssembler(fetcher, report.Config{}, nil), nil, t.TempDir(), nil)

	res := s.ExportSymbol(context.Background(), "AAPL")
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Failed)
	assert.FileExists(t, res.Path)
}

func TestRunExport_CancelledContext(t *testing.T) {
	asm := report.NewAssembler(&collector.MockFetcher{Price: 100}, report.Config{}, nil)
	s := NewScheduler(context.Background(), asm, []string{"AAPL"}, t.TempDir(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := s.RunExport(ctx)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), nil, nil, t.TempDir(), nil)
	assert.NoError(t, s.Register("0 0 18 * * 1-5"))
	assert.Error(t, s.Register("not a schedule"))
	assert.Len(t, s.Cron.Entries(), 1)
}
