package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"MarketDash/internal/model"
)

const (
	// DefaultQueryURL serves chart, quoteSummary and timeseries endpoints.
	DefaultQueryURL = "https://query1.finance.yahoo.com"
	// DefaultCookieURL is hit once to obtain the session cookie the crumb is bound to.
	DefaultCookieURL = "https://fc.yahoo.com"
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultRateLimit is requests per second across all endpoints.
	DefaultRateLimit = 5

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// errUnauthorized marks a 401 from Yahoo. It is a provider error; quoteSummary
// callers drop the cached crumb when they see it.
var errUnauthorized = errors.Wrap(model.ErrProvider, "yahoo: unauthorized")

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	queryURL  string
	cookieURL string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	logger    arbor.ILogger
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	crumbMu sync.Mutex
	crumb   string
}

// YahooOption configures the YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithQueryURL overrides the API host, mainly for tests.
func WithQueryURL(u string) YahooOption {
	return func(f *YahooFetcher) { f.queryURL = strings.TrimRight(u, "/") }
}

// WithCookieURL overrides the cookie bootstrap URL.
func WithCookieURL(u string) YahooOption {
	return func(f *YahooFetcher) { f.cookieURL = u }
}

// WithProxy routes requests through an HTTP proxy.
func WithProxy(proxyURL string) YahooOption {
	return func(f *YahooFetcher) {
		if proxyURL == "" {
			return
		}
		if u, err := url.Parse(proxyURL); err == nil {
			f.client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) YahooOption {
	return func(f *YahooFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(requestsPerSecond int) YahooOption {
	return func(f *YahooFetcher) {
		if requestsPerSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithUserAgent overrides the browser user agent sent upstream.
func WithUserAgent(ua string) YahooOption {
	return func(f *YahooFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) YahooOption {
	return func(f *YahooFetcher) { f.logger = logger }
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(opts ...YahooOption) *YahooFetcher {
	jar, _ := cookiejar.New(nil)
	f := &YahooFetcher{
		queryURL:  DefaultQueryURL,
		cookieURL: DefaultCookieURL,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: DefaultTimeout, Jar: jar},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// get performs a rate-limited GET and returns the body of a 200 response.
func (f *YahooFetcher) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(model.ErrProvider, "rate limiter: %v", err)
	}
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")

	if f.logger != nil {
		f.logger.Debug().Str("url", req.URL.Path).Msg("yahoo request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(model.ErrProvider, "yahoo fetch: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(model.ErrProvider, "yahoo read body: %v", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return body, errors.Wrapf(model.ErrDataUnavailable, "yahoo: status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Wrapf(model.ErrProvider, "yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// getJSON decodes a 200 response into out. A 404 body is decoded too, so callers can
// read Yahoo's own error description before reporting data-unavailable.
func (f *YahooFetcher) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	body, err := f.get(ctx, rawURL, params)
	if body != nil {
		if decErr := json.Unmarshal(body, out); decErr != nil && err == nil {
			return errors.Wrapf(model.ErrProvider, "yahoo decode: %v", decErr)
		}
	}
	return err
}

// ensureCrumb performs the cookie + crumb handshake required by quoteSummary.
// crumbMu only guards the cached value; the handshake itself runs unlocked.
func (f *YahooFetcher) ensureCrumb(ctx context.Context) (string, error) {
	f.crumbMu.Lock()
	crumb := f.crumb
	f.crumbMu.Unlock()
	if crumb != "" {
		return crumb, nil
	}

	// The cookie endpoint answers with an error status; only the Set-Cookie header matters.
	if req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cookieURL, nil); err == nil {
		req.Header.Set("User-Agent", f.userAgent)
		if resp, err := f.client.Do(req); err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	body, err := f.get(ctx, f.queryURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", errors.Wrap(err, "crumb")
	}
	crumb = strings.TrimSpace(string(body))
	if crumb == "" || strings.Contains(crumb, "<") {
		return "", errors.Wrap(model.ErrProvider, "crumb: empty or invalid response")
	}

	f.crumbMu.Lock()
	f.crumb = crumb
	f.crumbMu.Unlock()
	return crumb, nil
}

func (f *YahooFetcher) resetCrumb() {
	f.crumbMu.Lock()
	f.crumb = ""
	f.crumbMu.Unlock()
}

// FetchSeries fetches bars for the timeframe and strips their zone.
func (f *YahooFetcher) FetchSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.PriceSeries, error) {
	if err := tf.Validate(); err != nil {
		return nil, &model.OpError{Op: "fetch", Symbol: symbol, Err: err}
	}
	chart, err := f.fetchChart(ctx, symbol, tf)
	if err != nil {
		return nil, &model.OpError{Op: "fetch", Symbol: symbol, Err: err}
	}
	bars := make([]model.OHLCV, len(chart.Bars))
	for i, b := range chart.Bars {
		b.Time = model.Naive(b.Time)
		bars[i] = b
	}
	return model.NewPriceSeries(symbol, tf, bars), nil
}

// FetchSection fetches one report section.
func (f *YahooFetcher) FetchSection(ctx context.Context, symbol string, key model.SectionKey, opts model.ReportOptions) (model.Section, error) {
	sec, err := f.fetchSection(ctx, symbol, key, opts)
	if err != nil {
		return model.Section{}, &model.OpError{Op: "fetch section", Symbol: symbol, Section: string(key), Err: err}
	}
	return sec, nil
}

func (f *YahooFetcher) fetchSection(ctx context.Context, symbol string, key model.SectionKey, opts model.ReportOptions) (model.Section, error) {
	name := string(key)
	switch key {
	case model.SectionHistory:
		chart, err := f.fetchChart(ctx, symbol, opts.History)
		if err != nil {
			return model.Section{}, err
		}
		return model.TableSection(name, historyTable(chart.Bars)), nil
	case model.SectionHistoryMetadata:
		chart, err := f.fetchChart(ctx, symbol, opts.History)
		if err != nil {
			return model.Section{}, err
		}
		return model.RecordSection(name, chart.Meta), nil
	case model.SectionShares:
		t, err := f.fetchShares(ctx, symbol, opts.SharesStart, opts.SharesEnd)
		if err != nil {
			return model.Section{}, err
		}
		return model.TableSection(name, t), nil
	}
	if st, ok := statementSections[key]; ok {
		t, err := f.fetchStatement(ctx, symbol, st)
		if err != nil {
			return model.Section{}, err
		}
		return model.TableSection(name, t), nil
	}
	if sm, ok := summarySections[key]; ok {
		modules, err := f.fetchSummary(ctx, symbol, sm.modules)
		if err != nil {
			return model.Section{}, err
		}
		return sm.build(name, modules)
	}
	return model.Section{}, fmt.Errorf("unknown section %q", key)
}

// chartResult is a decoded chart response with bars still in the exchange zone.
type chartResult struct {
	Bars []model.OHLCV
	Meta model.Record
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       map[string]any `json:"meta"`
			Timestamp  []int64        `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yahooError) err() error {
	if strings.EqualFold(e.Code, "Not Found") {
		return errors.Wrapf(model.ErrDataUnavailable, "yahoo: %s", e.Description)
	}
	return errors.Wrapf(model.ErrProvider, "yahoo api error: %s: %s", e.Code, e.Description)
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, tf model.Timeframe) (*chartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s", f.queryURL, url.PathEscape(f.yahooSymbol(symbol)))
	params := url.Values{
		"range":          {string(tf.Period)},
		"interval":       {string(tf.Interval)},
		"includePrePost": {"false"},
	}

	var chart yahooChart
	err := f.getJSON(ctx, u, params, &chart)
	if chart.Chart.Error != nil {
		return nil, chart.Chart.Error.err()
	}
	if err != nil {
		return nil, err
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, errors.Wrap(model.ErrDataUnavailable, "yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, errors.Wrap(model.ErrDataUnavailable, "yahoo: no quote data")
	}
	loc := exchangeLocation(result.Meta)
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil && h == nil && l == nil && c == nil {
			continue // null bars (holidays, halted minutes)
		}
		t := time.Unix(ts, 0).In(loc)
		if !tf.Intraday() {
			// Daily and longer bars are dated at local midnight of the session.
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   deref(o),
			High:   deref(h),
			Low:    deref(l),
			Close:  deref(c),
			Volume: deref(at(quote.Volume, i)),
		})
	}
	bars = orderBars(bars)
	if len(bars) == 0 {
		return nil, errors.Wrap(model.ErrDataUnavailable, "yahoo: only null bars returned")
	}

	return &chartResult{Bars: bars, Meta: flattenRecord(result.Meta, loc, chartTimeKeys)}, nil
}

var chartTimeKeys = map[string]bool{"firstTradeDate": true, "regularMarketTime": true}

// orderBars sorts by time and keeps the last bar of any duplicated timestamp.
func orderBars(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func exchangeLocation(meta map[string]any) *time.Location {
	if name, ok := meta["exchangeTimezoneName"].(string); ok && name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if off, ok := meta["gmtoffset"].(float64); ok {
		tz, _ := meta["timezone"].(string)
		return time.FixedZone(tz, int(off))
	}
	return time.UTC
}

func historyTable(bars []model.OHLCV) *model.Table {
	t := &model.Table{Columns: []string{"Date", "Open", "High", "Low", "Close", "Volume"}}
	for _, b := range bars {
		t.Rows = append(t.Rows, []any{b.Time, b.Open, b.High, b.Low, b.Close, b.Volume})
	}
	return t
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
