package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDash/internal/collector"
	"MarketDash/internal/model"
)

func sectionNames() []string {
	names := make([]string, len(model.ReportSections))
	for i, k := range model.ReportSections {
		names[i] = string(k)
	}
	return names
}

func assertAllNaive(t *testing.T, doc *model.Document) {
	t.Helper()
	for _, sec := range doc.Sections {
		switch sec.Kind {
		case model.SectionTable:
			for _, row := range sec.Table.Rows {
				for _, v := range row {
					if ts, ok := v.(time.Time); ok {
						assert.True(t, model.IsNaive(ts), "%s: %v", sec.Name, ts)
					}
				}
			}
		case model.SectionRecord:
			for _, f := range sec.Record {
				if ts, ok := f.Value.(time.Time); ok {
					assert.True(t, model.IsNaive(ts), "%s.%s: %v", sec.Name, f.Key, ts)
				}
			}
		}
	}
}

func TestAssemble_KeysAndOrder(t *testing.T) {
	a := NewAssembler(&collector.MockFetcher{Price: 100}, Config{}, nil)

	doc, err := a.Assemble(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", doc.Symbol)
	assert.Equal(t, sectionNames(), doc.Keys())
	assert.Empty(t, doc.Failed())

	again, err := a.Assemble(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, doc.Keys(), again.Keys())
}

func TestAssemble_TimestampsAreNaive(t *testing.T) {
	a := NewAssembler(&collector.MockFetcher{Price: 100}, Config{}, nil)

	doc, err := a.Assemble(context.Background(), "AAPL")
	require.NoError(t, err)
	assertAllNaive(t, doc)

	// Wall clock is kept, only the zone is dropped.
	hist, ok := doc.Section(string(model.SectionHistoryMetadata))
	require.True(t, ok)
	v, _ := hist.Record.Get("regularMarketTime")
	assert.Equal(t, time.Date(2024, 6, 28, 11, 0, 0, 0, time.UTC), v)
	assert.True(t, model.IsNaive(doc.GeneratedAt))
}

func TestAssemble_BestEffortKeepsFailedSections(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Price: 100,
		SectionErrs: map[model.SectionKey]error{
			model.SectionInsiderRoster: model.ErrDataUnavailable,
			model.SectionShares:        model.ErrProvider,
		},
	}
	a := NewAssembler(fetcher, Config{}, nil)

	doc, err := a.Assemble(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, sectionNames(), doc.Keys())

	failed := doc.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, string(model.SectionShares), failed[0].Name)
	assert.ErrorIs(t, failed[0].Err, model.ErrProvider)
	assert.Equal(t, string(model.SectionInsiderRoster), failed[1].Name)
	assert.ErrorIs(t, failed[1].Err, model.ErrDataUnavailable)
}

func TestAssemble_StrictFailsFast(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Price:       100,
		SectionErrs: map[model.SectionKey]error{model.SectionCashFlow: model.ErrProvider},
	}
	a := NewAssembler(fetcher, Config{Strict: true}, nil)

	doc, err := a.Assemble(context.Background(), "AAPL")
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProvider)

	var opErr *model.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "assemble", opErr.Op)
}

func TestAssemble_AllSectionsFailed(t *testing.T) {
	errs := map[model.SectionKey]error{}
	for _, k := range model.ReportSections {
		errs[k] = model.ErrDataUnavailable
	}
	a := NewAssembler(&collector.MockFetcher{SectionErrs: errs}, Config{}, nil)

	_, err := a.Assemble(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
	assert.NotErrorIs(t, err, model.ErrProvider)
}

func TestAssemble_AllSectionsFailedUpstream(t *testing.T) {
	errs := map[model.SectionKey]error{}
	for i, k := range model.ReportSections {
		errs[k] = model.ErrDataUnavailable
		if i%2 == 0 {
			errs[k] = fmt.Errorf("%w: status 500", model.ErrProvider)
		}
	}
	a := NewAssembler(&collector.MockFetcher{SectionErrs: errs}, Config{}, nil)

	_, err := a.Assemble(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProvider)
	assert.NotErrorIs(t, err, model.ErrDataUnavailable)
	assert.Equal(t, model.ErrProvider, model.Kind(err))
	assert.Contains(t, err.Error(), "status 500")
}

func TestAssemble_UpstreamOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/test/getcrumb" {
			w.Write([]byte("crumb-123"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	fetcher := collector.NewYahooFetcher(
		collector.WithQueryURL(srv.URL),
		collector.WithCookieURL(srv.URL+"/cookie"),
		collector.WithRateLimit(1000),
	)

	_, err := NewAssembler(fetcher, Config{}, nil).Assemble(context.Background(), "AAPL")
	assert.ErrorIs(t, err, model.ErrProvider)
	assert.Equal(t, model.ErrProvider, model.Kind(err))
}

func TestAssemble_SharesStartFromConfig(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewAssembler(&collector.MockFetcher{Price: 100}, Config{SharesStart: start}, nil)

	doc, err := a.Assemble(context.Background(), "AAPL")
	require.NoError(t, err)
	shares, ok := doc.Section(string(model.SectionShares))
	require.True(t, ok)
	require.NotEmpty(t, shares.Table.Rows)
	// 2023-01-01 00:00 UTC seen from UTC-5 is 2022-12-31 19:00.
	assert.Equal(t, time.Date(2022, 12, 31, 19, 0, 0, 0, time.UTC), shares.Table.Rows[0][0])
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	zone := time.FixedZone("X", 3600)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, zone)
	in := model.TableSection("T", &model.Table{Columns: []string{"Date", "V"}, Rows: [][]any{{ts, 1.0}}})

	out := normalize(in)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), out.Table.Rows[0][0])
	assert.Equal(t, ts, in.Table.Rows[0][0])
	assert.Equal(t, 1.0, out.Table.Rows[0][1])
}
