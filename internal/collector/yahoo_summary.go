package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"MarketDash/internal/model"
)

type summaryModules map[string]map[string]any

type summarySection struct {
	modules []string
	build   func(name string, m summaryModules) (model.Section, error)
}

var infoModules = []string{"assetProfile", "summaryDetail", "defaultKeyStatistics", "financialData", "quoteType", "price"}

var summarySections = map[model.SectionKey]summarySection{
	model.SectionStockInfo:              {infoModules, buildStockInfo},
	model.SectionMajorHolders:           {[]string{"majorHoldersBreakdown"}, buildMajorHolders},
	model.SectionInstitutionalHolders:   {[]string{"institutionOwnership"}, ownershipBuilder("institutionOwnership")},
	model.SectionMutualFundHolders:      {[]string{"fundOwnership"}, ownershipBuilder("fundOwnership")},
	model.SectionInsiderTransactions:    {[]string{"insiderTransactions"}, buildInsiderTransactions},
	model.SectionInsiderPurchases:       {[]string{"netSharePurchaseActivity"}, buildInsiderPurchases},
	model.SectionInsiderRoster:          {[]string{"insiderHolders"}, buildInsiderRoster},
	model.SectionRecommendations:        {[]string{"recommendationTrend"}, buildRecommendations},
	model.SectionRecommendationsSummary: {[]string{"financialData"}, buildRecommendationsSummary},
	model.SectionUpgradesDowngrades:     {[]string{"upgradeDowngradeHistory"}, buildUpgradesDowngrades},
}

func (f *YahooFetcher) fetchSummary(ctx context.Context, symbol string, modules []string) (summaryModules, error) {
	crumb, err := f.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s", f.queryURL, url.PathEscape(f.yahooSymbol(symbol)))
	params := url.Values{
		"modules": {strings.Join(modules, ",")},
		"crumb":   {crumb},
	}

	var resp struct {
		QuoteSummary struct {
			Result []summaryModules `json:"result"`
			Error  *yahooError      `json:"error"`
		} `json:"quoteSummary"`
	}
	err = f.getJSON(ctx, u, params, &resp)
	if resp.QuoteSummary.Error != nil {
		return nil, resp.QuoteSummary.Error.err()
	}
	if errors.Is(err, errUnauthorized) {
		f.resetCrumb()
	}
	if err != nil {
		return nil, err
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, errors.Wrap(model.ErrDataUnavailable, "yahoo: empty quoteSummary")
	}
	return resp.QuoteSummary.Result[0], nil
}

func (m summaryModules) module(name string) (map[string]any, error) {
	mod, ok := m[name]
	if !ok || len(mod) == 0 {
		return nil, errors.Wrapf(model.ErrDataUnavailable, "yahoo: module %s missing", name)
	}
	return mod, nil
}

func (m summaryModules) list(module, field string) ([]map[string]any, error) {
	mod, err := m.module(module)
	if err != nil {
		return nil, err
	}
	raw, _ := mod[field].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(model.ErrDataUnavailable, "yahoo: %s.%s is empty", module, field)
	}
	return out, nil
}

func buildStockInfo(name string, m summaryModules) (model.Section, error) {
	seen := map[string]bool{}
	var rec model.Record
	for _, mod := range infoModules {
		for _, f := range flattenRecord(m[mod], time.UTC, nil) {
			if seen[f.Key] {
				continue
			}
			seen[f.Key] = true
			rec = append(rec, f)
		}
	}
	if len(rec) == 0 {
		return model.Section{}, errors.Wrap(model.ErrDataUnavailable, "yahoo: no profile data")
	}
	return model.RecordSection(name, rec), nil
}

var majorHolderRows = []string{"insidersPercentHeld", "institutionsPercentHeld", "institutionsFloatPercentHeld", "institutionsCount"}

func buildMajorHolders(name string, m summaryModules) (model.Section, error) {
	mod, err := m.module("majorHoldersBreakdown")
	if err != nil {
		return model.Section{}, err
	}
	t := &model.Table{IndexName: "Breakdown", Columns: []string{"Value"}}
	for _, key := range majorHolderRows {
		if v, ok := mod[key]; ok {
			t.Index = append(t.Index, key)
			t.Rows = append(t.Rows, []any{unwrapValue(v)})
		}
	}
	if len(t.Rows) == 0 {
		return model.Section{}, errors.Wrap(model.ErrDataUnavailable, "yahoo: no holder breakdown")
	}
	return model.TableSection(name, t), nil
}

func ownershipBuilder(module string) func(string, summaryModules) (model.Section, error) {
	return func(name string, m summaryModules) (model.Section, error) {
		items, err := m.list(module, "ownershipList")
		if err != nil {
			return model.Section{}, err
		}
		t := &model.Table{Columns: []string{"Date Reported", "Holder", "pctHeld", "Shares", "Value", "pctChange"}}
		for _, it := range items {
			t.Rows = append(t.Rows, []any{
				epoch(it["reportDate"]),
				unwrapValue(it["organization"]),
				unwrapValue(it["pctHeld"]),
				unwrapValue(it["position"]),
				unwrapValue(it["value"]),
				unwrapValue(it["pctChange"]),
			})
		}
		return model.TableSection(name, t), nil
	}
}

func buildInsiderTransactions(name string, m summaryModules) (model.Section, error) {
	items, err := m.list("insiderTransactions", "transactions")
	if err != nil {
		return model.Section{}, err
	}
	t := &model.Table{Columns: []string{"Shares", "Value", "URL", "Text", "Insider", "Position", "Transaction", "Start Date", "Ownership"}}
	for _, it := range items {
		t.Rows = append(t.Rows, []any{
			unwrapValue(it["shares"]),
			unwrapValue(it["value"]),
			unwrapValue(it["filerUrl"]),
			unwrapValue(it["transactionText"]),
			unwrapValue(it["filerName"]),
			unwrapValue(it["filerRelation"]),
			unwrapValue(it["moneyText"]),
			epoch(it["startDate"]),
			unwrapValue(it["ownership"]),
		})
	}
	return model.TableSection(name, t), nil
}

func buildInsiderPurchases(name string, m summaryModules) (model.Section, error) {
	mod, err := m.module("netSharePurchaseActivity")
	if err != nil {
		return model.Section{}, err
	}
	period, _ := unwrapValue(mod["period"]).(string)
	t := &model.Table{
		IndexName: strings.TrimSpace("Insider Purchases Last " + period),
		Columns:   []string{"Shares", "Trans"},
	}
	rows := []struct {
		label, shares, trans string
	}{
		{"Purchases", "buyInfoShares", "buyInfoCount"},
		{"Sales", "sellInfoShares", "sellInfoCount"},
		{"Net Shares Purchased (Sold)", "netInfoShares", "netInfoCount"},
		{"Total Insider Shares Held", "totalInsiderShares", ""},
		{"% Net Shares Purchased (Sold)", "netPercentInsiderShares", ""},
		{"% Buy Shares", "buyPercentInsiderShares", ""},
		{"% Sell Shares", "sellPercentInsiderShares", ""},
	}
	for _, r := range rows {
		var trans any
		if r.trans != "" {
			trans = unwrapValue(mod[r.trans])
		}
		t.Index = append(t.Index, r.label)
		t.Rows = append(t.Rows, []any{unwrapValue(mod[r.shares]), trans})
	}
	return model.TableSection(name, t), nil
}

func buildInsiderRoster(name string, m summaryModules) (model.Section, error) {
	items, err := m.list("insiderHolders", "holders")
	if err != nil {
		return model.Section{}, err
	}
	t := &model.Table{Columns: []string{"Name", "Position", "URL", "Most Recent Transaction", "Latest Transaction Date", "Shares Owned Directly", "Position Direct Date"}}
	for _, it := range items {
		t.Rows = append(t.Rows, []any{
			unwrapValue(it["name"]),
			unwrapValue(it["relation"]),
			unwrapValue(it["url"]),
			unwrapValue(it["transactionDescription"]),
			epoch(it["latestTransDate"]),
			unwrapValue(it["positionDirect"]),
			epoch(it["positionDirectDate"]),
		})
	}
	return model.TableSection(name, t), nil
}

func buildRecommendations(name string, m summaryModules) (model.Section, error) {
	items, err := m.list("recommendationTrend", "trend")
	if err != nil {
		return model.Section{}, err
	}
	cols := []string{"period", "strongBuy", "buy", "hold", "sell", "strongSell"}
	t := &model.Table{Columns: cols}
	for _, it := range items {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = unwrapValue(it[c])
		}
		t.Rows = append(t.Rows, row)
	}
	return model.TableSection(name, t), nil
}

var recommendationSummaryKeys = []string{
	"recommendationKey", "recommendationMean", "numberOfAnalystOpinions",
	"currentPrice", "targetHighPrice", "targetLowPrice", "targetMeanPrice", "targetMedianPrice",
}

func buildRecommendationsSummary(name string, m summaryModules) (model.Section, error) {
	mod, err := m.module("financialData")
	if err != nil {
		return model.Section{}, err
	}
	var rec model.Record
	for _, k := range recommendationSummaryKeys {
		if v, ok := mod[k]; ok {
			rec = append(rec, model.Field{Key: k, Value: unwrapValue(v)})
		}
	}
	if len(rec) == 0 {
		return model.Section{}, errors.Wrap(model.ErrDataUnavailable, "yahoo: no analyst summary")
	}
	return model.RecordSection(name, rec), nil
}

func buildUpgradesDowngrades(name string, m summaryModules) (model.Section, error) {
	items, err := m.list("upgradeDowngradeHistory", "history")
	if err != nil {
		return model.Section{}, err
	}
	t := &model.Table{Columns: []string{"GradeDate", "Firm", "ToGrade", "FromGrade", "Action"}}
	for _, it := range items {
		t.Rows = append(t.Rows, []any{
			epoch(it["epochGradeDate"]),
			unwrapValue(it["firm"]),
			unwrapValue(it["toGrade"]),
			unwrapValue(it["fromGrade"]),
			unwrapValue(it["action"]),
		})
	}
	return model.TableSection(name, t), nil
}

// flattenRecord turns a JSON object into a key-sorted Record. Keys in timeKeys holding epoch
// seconds become times in loc.
func flattenRecord(obj map[string]any, loc *time.Location, timeKeys map[string]bool) model.Record {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if k == "maxAge" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := make(model.Record, 0, len(keys))
	for _, k := range keys {
		v := unwrapValue(obj[k])
		if n, ok := v.(float64); ok && timeKeys[k] {
			v = time.Unix(int64(n), 0).In(loc)
		}
		rec = append(rec, model.Field{Key: k, Value: v})
	}
	return rec
}

// unwrapValue reduces Yahoo's {raw, fmt} wrappers to scalars. Nested structures are kept
// as compact JSON text.
func unwrapValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64:
		return x
	case map[string]any:
		if raw, ok := x["raw"]; ok {
			return raw
		}
		if len(x) == 0 {
			return nil
		}
	case []any:
		strs := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				strs = nil
				break
			}
			strs = append(strs, s)
		}
		if strs != nil {
			return strings.Join(strs, ",")
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// epoch converts epoch seconds (plain or wrapped) into a UTC time.
func epoch(v any) any {
	if n, ok := unwrapValue(v).(float64); ok {
		return time.Unix(int64(n), 0).UTC()
	}
	return nil
}
