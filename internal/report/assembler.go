package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"MarketDash/internal/collector"
	"MarketDash/internal/model"
)

// DefaultConcurrency bounds simultaneous section sub-fetches.
const DefaultConcurrency = 4

// Config controls report assembly.
type Config struct {
	Strict      bool      `yaml:"strict"`
	Concurrency int       `yaml:"concurrency" validate:"gte=0,lte=32"`
	SharesStart time.Time `yaml:"shares_start"`
}

// Assembler builds a report Document from per-section sub-fetches.
type Assembler struct {
	fetcher  collector.Fetcher
	cfg      Config
	sections []model.SectionKey
	logger   arbor.ILogger
	now      func() time.Time
}

// NewAssembler creates an Assembler over the full section catalog.
func NewAssembler(fetcher collector.Fetcher, cfg Config, logger arbor.ILogger) *Assembler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &Assembler{
		fetcher:  fetcher,
		cfg:      cfg,
		sections: model.ReportSections,
		logger:   logger,
		now:      time.Now,
	}
}

func (a *Assembler) options() model.ReportOptions {
	opts := model.DefaultReportOptions()
	if !a.cfg.SharesStart.IsZero() {
		opts.SharesStart = a.cfg.SharesStart
	}
	return opts
}

// Assemble fetches every section for symbol. In strict mode the first failure aborts the
// assembly; otherwise failed sub-fetches are kept as failed sections and an error is returned
// only when no section succeeded.
func (a *Assembler) Assemble(ctx context.Context, symbol string) (*model.Document, error) {
	opts := a.options()
	results := make([]model.Section, len(a.sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, key := range a.sections {
		g.Go(func() error {
			sec, err := a.fetcher.FetchSection(gctx, symbol, key, opts)
			if err != nil {
				if a.cfg.Strict {
					return err
				}
				a.logger.Warn().Str("symbol", symbol).Str("section", string(key)).Err(err).Msg("section unavailable")
				results[i] = model.FailedSection(string(key), err)
				return nil
			}
			sec.Name = string(key)
			results[i] = normalize(sec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &model.OpError{Op: "assemble", Symbol: symbol, Err: err}
	}

	doc := &model.Document{Symbol: symbol, GeneratedAt: model.Naive(a.now()), Sections: results}
	failed := len(doc.Failed())
	if failed == len(results) {
		return nil, &model.OpError{Op: "assemble", Symbol: symbol, Err: allFailed(doc.Failed())}
	}

	a.logger.Info().
		Str("symbol", symbol).
		Int("sections", len(results)).
		Int("failed", failed).
		Msg("report assembled")
	return doc, nil
}

// allFailed classifies a report with no usable section. Any provider failure makes
// the whole report a provider error; the section causes are kept in the message.
func allFailed(sections []model.Section) error {
	kind := model.ErrDataUnavailable
	causes := make([]error, 0, len(sections))
	for _, s := range sections {
		if errors.Is(s.Err, model.ErrProvider) {
			kind = model.ErrProvider
		}
		causes = append(causes, s.Err)
	}
	return fmt.Errorf("%w: every section failed: %v", kind, errors.Join(causes...))
}
