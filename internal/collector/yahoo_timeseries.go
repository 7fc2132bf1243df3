package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"MarketDash/internal/model"
)

// statementStart is the earliest period1 Yahoo accepts for fundamentals.
const statementStart = 493590046

type statement struct {
	frequency string // "annual" or "quarterly"
	items     []string
}

var (
	incomeItems = []string{
		"TotalRevenue", "CostOfRevenue", "GrossProfit", "OperatingExpense",
		"ResearchAndDevelopment", "SellingGeneralAndAdministration", "OperatingIncome",
		"InterestExpense", "PretaxIncome", "TaxProvision", "NetIncome",
		"NetIncomeCommonStockholders", "BasicEPS", "DilutedEPS",
		"BasicAverageShares", "DilutedAverageShares", "EBIT", "EBITDA",
	}
	balanceItems = []string{
		"TotalAssets", "CurrentAssets", "CashAndCashEquivalents", "Receivables", "Inventory",
		"NetPPE", "Goodwill", "TotalLiabilitiesNetMinorityInterest", "CurrentLiabilities",
		"AccountsPayable", "LongTermDebt", "TotalDebt", "StockholdersEquity",
		"RetainedEarnings", "WorkingCapital", "ShareIssued", "OrdinarySharesNumber",
	}
	cashFlowItems = []string{
		"OperatingCashFlow", "InvestingCashFlow", "FinancingCashFlow", "FreeCashFlow",
		"CapitalExpenditure", "DepreciationAndAmortization", "StockBasedCompensation",
		"ChangeInWorkingCapital", "CashDividendsPaid", "RepurchaseOfCapitalStock",
		"IssuanceOfDebt", "RepaymentOfDebt", "EndCashPosition",
	}
)

var statementSections = map[model.SectionKey]statement{
	model.SectionIncomeStatement:          {"annual", incomeItems},
	model.SectionQuarterlyIncomeStatement: {"quarterly", incomeItems},
	model.SectionBalanceSheet:             {"annual", balanceItems},
	model.SectionQuarterlyBalanceSheet:    {"quarterly", balanceItems},
	model.SectionCashFlow:                 {"annual", cashFlowItems},
	model.SectionQuarterlyCashFlow:        {"quarterly", cashFlowItems},
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yahooError                  `json:"error"`
	} `json:"timeseries"`
}

type reportedPoint struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue struct {
		Raw *float64 `json:"raw"`
	} `json:"reportedValue"`
}

func (f *YahooFetcher) timeseries(ctx context.Context, symbol string, params url.Values) ([]map[string]json.RawMessage, error) {
	ticker := f.yahooSymbol(symbol)
	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s", f.queryURL, url.PathEscape(ticker))
	params.Set("symbol", ticker)

	var resp timeseriesResponse
	err := f.getJSON(ctx, u, params, &resp)
	if resp.Timeseries.Error != nil {
		return nil, resp.Timeseries.Error.err()
	}
	if err != nil {
		return nil, err
	}
	return resp.Timeseries.Result, nil
}

// fetchStatement builds a line-item by period-end table, newest period first.
func (f *YahooFetcher) fetchStatement(ctx context.Context, symbol string, st statement) (*model.Table, error) {
	types := make([]string, len(st.items))
	for i, item := range st.items {
		types[i] = st.frequency + item
	}
	params := url.Values{
		"type":    {strings.Join(types, ",")},
		"period1": {strconv.Itoa(statementStart)},
		"period2": {strconv.FormatInt(time.Now().Unix(), 10)},
	}
	results, err := f.timeseries(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	values := map[string]map[string]float64{} // item -> asOfDate -> value
	dates := map[string]bool{}
	for _, res := range results {
		var meta struct {
			Type []string `json:"type"`
		}
		if err := json.Unmarshal(res["meta"], &meta); err != nil || len(meta.Type) == 0 {
			continue
		}
		typ := meta.Type[0]
		var points []*reportedPoint
		if err := json.Unmarshal(res[typ], &points); err != nil {
			continue
		}
		item := strings.TrimPrefix(typ, st.frequency)
		for _, p := range points {
			if p == nil || p.ReportedValue.Raw == nil || p.AsOfDate == "" {
				continue
			}
			if values[item] == nil {
				values[item] = map[string]float64{}
			}
			values[item][p.AsOfDate] = *p.ReportedValue.Raw
			dates[p.AsOfDate] = true
		}
	}
	if len(values) == 0 {
		return nil, errors.Wrapf(model.ErrDataUnavailable, "yahoo: no %s statement data", st.frequency)
	}

	cols := make([]string, 0, len(dates))
	for d := range dates {
		cols = append(cols, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(cols)))

	t := &model.Table{IndexName: "Breakdown", Columns: cols}
	for _, item := range st.items {
		byDate, ok := values[item]
		if !ok {
			continue
		}
		row := make([]any, len(cols))
		for i, d := range cols {
			if v, ok := byDate[d]; ok {
				row[i] = v
			}
		}
		t.Index = append(t.Index, item)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// fetchShares returns the full share-count series between start and end. A zero end means now.
func (f *YahooFetcher) fetchShares(ctx context.Context, symbol string, start, end time.Time) (*model.Table, error) {
	if end.IsZero() {
		end = time.Now()
	}
	params := url.Values{
		"type":    {"sharesOut"},
		"period1": {strconv.FormatInt(start.Unix(), 10)},
		"period2": {strconv.FormatInt(end.Unix(), 10)},
	}
	results, err := f.timeseries(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	t := &model.Table{Columns: []string{"Date", "Shares"}}
	for _, res := range results {
		var stamps []int64
		var shares []*float64
		if err := json.Unmarshal(res["timestamp"], &stamps); err != nil {
			continue
		}
		if err := json.Unmarshal(res["shares_out"], &shares); err != nil {
			continue
		}
		for i, ts := range stamps {
			v := at(shares, i)
			if v == nil {
				continue
			}
			t.Rows = append(t.Rows, []any{time.Unix(ts, 0).UTC(), *v})
		}
	}
	if len(t.Rows) == 0 {
		return nil, errors.Wrap(model.ErrDataUnavailable, "yahoo: no share count data")
	}
	return t, nil
}
