package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"MarketDash/internal/report"
	"MarketDash/internal/workbook"
)

// ExportResult describes one symbol written (or not) by an export run.
type ExportResult struct {
	Symbol string
	Path   string
	Failed int // sections that could not be fetched
	Err    error
}

// Scheduler manages the periodic report export.
type Scheduler struct {
	Cron      *cron.Cron
	Assembler *report.Assembler
	Symbols   []string
	Dir       string
	Logger    arbor.ILogger
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, asm *report.Assembler, symbols []string, dir string, logger arbor.ILogger) *Scheduler {
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Assembler: asm,
		Symbols:   symbols,
		Dir:       dir,
		Logger:    logger,
		Ctx:       ctx,
	}
}

// Register schedules the export task.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.exportTask); err != nil {
		return fmt.Errorf("register export task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info().Int("symbols", len(s.Symbols)).Str("dir", s.Dir).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running export to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) exportTask() {
	s.RunExport(s.Ctx)
}

// RunExport writes one workbook per symbol into Dir. A failing symbol does not stop the run.
func (s *Scheduler) RunExport(ctx context.Context) []ExportResult {
	runID := uuid.NewString()
	start := time.Now()
	s.Logger.Info().Str("run_id", runID).Int("symbols", len(s.Symbols)).Msg("running export")

	results := make([]ExportResult, 0, len(s.Symbols))
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		s.Logger.Error().Str("run_id", runID).Err(err).Msg("create export dir")
		for _, sym := range s.Symbols {
			results = append(results, ExportResult{Symbol: sym, Err: err})
		}
		return results
	}

	var failed int
	for _, sym := range s.Symbols {
		if ctx.Err() != nil {
			results = append(results, ExportResult{Symbol: sym, Err: ctx.Err()})
			failed++
			continue
		}
		res := s.ExportSymbol(ctx, sym)
		if res.Err != nil {
			failed++
			s.Logger.Error().Str("run_id", runID).Str("symbol", sym).Err(res.Err).Msg("export failed")
		}
		results = append(results, res)
	}

	s.Logger.Info().
		Str("run_id", runID).
		Int("written", len(results)-failed).
		Int("failed", failed).
		Str("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Msg("export finished")
	return results
}

// ExportSymbol assembles and writes a single symbol's workbook.
func (s *Scheduler) ExportSymbol(ctx context.Context, symbol string) ExportResult {
	res := ExportResult{Symbol: symbol}
	doc, err := s.Assembler.Assemble(ctx, symbol)
	if err != nil {
		res.Err = err
		return res
	}
	res.Failed = len(doc.Failed())

	buf, err := workbook.Serialize(doc)
	if err != nil {
		res.Err = err
		return res
	}

	path := filepath.Join(s.Dir, workbook.Filename(symbol))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", tmp, err)
		return res
	}
	if err := os.Rename(tmp, path); err != nil {
		res.Err = fmt.Errorf("rename %s: %w", tmp, err)
		return res
	}
	res.Path = path
	return res
}
