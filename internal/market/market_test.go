package market

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/seenimoa/stockbrief/internal/alphavantage"
	"github.com/seenimoa/stockbrief/internal/metrics"
	"github.com/seenimoa/stockbrief/pkg/models"
)

// ── Fakes ──

type fakeSource struct {
	quote       *alphavantage.Quote
	quoteErr    error
	overview    *alphavantage.Overview
	overviewErr error
	feed        *alphavantage.NewsFeed
	feedErr     error

	newsCalls atomic.Int32
	gotLimit  int
}

func (f *fakeSource) GlobalQuote(ctx context.Context, symbol string) (*alphavantage.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeSource) Overview(ctx context.Context, symbol string) (*alphavantage.Overview, error) {
	return f.overview, f.overviewErr
}

func (f *fakeSource) NewsSentiment(ctx context.Context, ticker string, limit int) (*alphavantage.NewsFeed, error) {
	f.newsCalls.Add(1)
	f.gotLimit = limit
	return f.feed, f.feedErr
}

type recordingSaver struct {
	mu    sync.Mutex
	saved []models.Stock
	err   error
}

func (s *recordingSaver) Save(ctx context.Context, stock *models.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, *stock)
	return s.err
}

var fixedNow = time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC)

func newTestClient(apiKey string, src Source, opts ...Option) *Client {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}, opts...)
	return New(apiKey, src, opts...)
}

func quoteWithPrice(p string) *alphavantage.Quote {
	return &alphavantage.Quote{GlobalQuote: alphavantage.GlobalQuote{Price: p}}
}

// ════════════════════════════════════════════════════════════════════
// UpdateStockData
// ════════════════════════════════════════════════════════════════════

func TestUpdateStockData(t *testing.T) {
	src := &fakeSource{
		quote:    quoteWithPrice("187.4200"),
		overview: &alphavantage.Overview{MarketCapitalization: "171234000000"},
	}
	saver := &recordingSaver{}
	c := newTestClient("real-key", src, WithSaver(saver))

	stock := &models.Stock{Symbol: "IBM", CompanyName: "IBM"}
	if err := c.UpdateStockData(context.Background(), stock); err != nil {
		t.Fatalf("UpdateStockData() error: %v", err)
	}

	want := models.Stock{Symbol: "IBM", CompanyName: "IBM", CurrentPrice: 187.42, MarketCap: 171234000000, UpdatedAt: fixedNow}
	if diff := cmp.Diff(want, *stock); diff != "" {
		t.Fatalf("stock mismatch (-want +got):\n%s", diff)
	}
	if len(saver.saved) != 1 {
		t.Fatalf("saved %d times, want 1", len(saver.saved))
	}
}

func TestUpdateStockDataMissingFieldsStillSaves(t *testing.T) {
	src := &fakeSource{
		quote:    &alphavantage.Quote{},
		overview: &alphavantage.Overview{},
	}
	saver := &recordingSaver{}
	c := newTestClient("real-key", src, WithSaver(saver))

	stock := &models.Stock{Symbol: "ZZZ", CurrentPrice: 12.5, MarketCap: 99}
	if err := c.UpdateStockData(context.Background(), stock); err != nil {
		t.Fatalf("UpdateStockData() error: %v", err)
	}
	if stock.CurrentPrice != 12.5 || stock.MarketCap != 99 {
		t.Fatalf("missing fields should leave values unchanged, got %+v", stock)
	}
	if len(saver.saved) != 1 {
		t.Fatalf("saved %d times, want 1", len(saver.saved))
	}
}

func TestUpdateStockDataNoticesCountAsMissing(t *testing.T) {
	src := &fakeSource{
		quoteErr:    fmt.Errorf("%w: 5 calls per minute", alphavantage.ErrRateLimited),
		overviewErr: fmt.Errorf("%w: Invalid API call", alphavantage.ErrAPI),
	}
	saver := &recordingSaver{}
	c := newTestClient("real-key", src, WithSaver(saver))

	if err := c.UpdateStockData(context.Background(), &models.Stock{Symbol: "IBM"}); err != nil {
		t.Fatalf("notices should not fail the update: %v", err)
	}
	if len(saver.saved) != 1 {
		t.Fatalf("saved %d times, want 1", len(saver.saved))
	}
}

func TestUpdateStockDataPriceOnly(t *testing.T) {
	src := &fakeSource{
		quote:       quoteWithPrice("10"),
		overviewErr: alphavantage.ErrRateLimited,
	}
	saver := &recordingSaver{}
	c := newTestClient("real-key", src, WithSaver(saver))

	stock := &models.Stock{Symbol: "X"}
	if err := c.UpdateStockData(context.Background(), stock); err != nil {
		t.Fatal(err)
	}
	if stock.CurrentPrice != 10 || stock.MarketCap != 0 {
		t.Fatalf("unexpected stock: %+v", stock)
	}
}

func TestUpdateStockDataMalformedNumber(t *testing.T) {
	tests := []struct {
		name  string
		src   *fakeSource
		field string
	}{
		{
			name:  "price",
			src:   &fakeSource{quote: quoteWithPrice("abc"), overview: &alphavantage.Overview{}},
			field: "05. price",
		},
		{
			name:  "market cap",
			src:   &fakeSource{quote: quoteWithPrice("1.0"), overview: &alphavantage.Overview{MarketCapitalization: "None"}},
			field: "MarketCapitalization",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &recordingSaver{}
			c := newTestClient("real-key", tt.src, WithSaver(saver))

			err := c.UpdateStockData(context.Background(), &models.Stock{Symbol: "IBM"})
			var perr *FieldParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *FieldParseError, got %T: %v", err, err)
			}
			if perr.Field != tt.field || perr.Symbol != "IBM" {
				t.Errorf("unexpected parse error: %+v", perr)
			}
			if !errors.Is(err, strconv.ErrSyntax) {
				t.Errorf("expected strconv.ErrSyntax in chain")
			}
			if len(saver.saved) != 0 {
				t.Fatalf("record should not be saved on parse failure")
			}
		})
	}
}

func TestUpdateStockDataTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	saver := &recordingSaver{}
	c := newTestClient("real-key", &fakeSource{quoteErr: boom}, WithSaver(saver))

	err := c.UpdateStockData(context.Background(), &models.Stock{Symbol: "IBM"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(saver.saved) != 0 {
		t.Fatal("record should not be saved on transport failure")
	}
}

func TestUpdateStockDataSaveError(t *testing.T) {
	saver := &recordingSaver{err: errors.New("disk full")}
	c := newTestClient("real-key", &fakeSource{quote: quoteWithPrice("1"), overview: &alphavantage.Overview{}}, WithSaver(saver))

	if err := c.UpdateStockData(context.Background(), &models.Stock{Symbol: "IBM"}); err == nil {
		t.Fatal("expected save error")
	}
}

func TestUpdateStockDataAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case alphavantage.FunctionGlobalQuote:
			fmt.Fprint(w, `{"Global Quote":{"01. symbol":"MSFT","05. price":"415.10"}}`)
		case alphavantage.FunctionOverview:
			fmt.Fprint(w, `{"Symbol":"MSFT","MarketCapitalization":"3085000000000"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	av := alphavantage.NewClient("real-key", alphavantage.WithBaseURL(srv.URL))
	saver := &recordingSaver{}
	c := newTestClient("real-key", av, WithSaver(saver))

	stock := &models.Stock{Symbol: "MSFT"}
	if err := c.UpdateStockData(context.Background(), stock); err != nil {
		t.Fatal(err)
	}
	if stock.CurrentPrice != 415.10 || stock.MarketCap != 3085000000000 {
		t.Fatalf("unexpected stock: %+v", stock)
	}
}

// ════════════════════════════════════════════════════════════════════
// StockNews
// ════════════════════════════════════════════════════════════════════

func TestStockNewsDemoKeySkipsNetwork(t *testing.T) {
	for _, key := range []string{"", "demo"} {
		src := &fakeSource{}
		c := newTestClient(key, src)

		got := c.StockNews(context.Background(), "AAPL")
		if len(got) != 3 {
			t.Fatalf("key %q: expected 3 demo articles, got %d", key, len(got))
		}
		if src.newsCalls.Load() != 0 {
			t.Fatalf("key %q: demo path must not call the API", key)
		}
	}
}

func TestStockNewsLive(t *testing.T) {
	longSummary := strings.Repeat("a", 250)
	src := &fakeSource{feed: &alphavantage.NewsFeed{Feed: []alphavantage.FeedItem{
		{Title: "One", URL: "https://e.com/1", TimePublished: "20250601T120000", Summary: longSummary, Source: "Reuters", OverallSentimentScore: 0.25},
		{},
		{Title: "Three", Summary: "short", OverallSentimentScore: -0.4},
		{Title: "Four"},
	}}}
	m := metrics.New(prometheus.NewRegistry())
	c := newTestClient("real-key", src, WithMetrics(m))

	got := c.StockNews(context.Background(), "AAPL")

	want := []models.NewsArticle{
		{Title: "One", Summary: strings.Repeat("a", 200) + "...", URL: "https://e.com/1", TimePublished: "20250601T120000", Source: "Reuters", SentimentScore: 0.25},
		{Title: "No title", Summary: "No summary available...", URL: "#", TimePublished: "", Source: "Unknown", SentimentScore: 0},
		{Title: "Three", Summary: "short...", URL: "#", Source: "Unknown", SentimentScore: -0.4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("articles mismatch (-want +got):\n%s", diff)
	}
	if src.gotLimit != DefaultNewsLimit {
		t.Errorf("limit = %d, want %d", src.gotLimit, DefaultNewsLimit)
	}
	if v := testutil.ToFloat64(m.NewsFetches.WithLabelValues(metrics.NewsLive)); v != 1 {
		t.Errorf("live fetches = %v, want 1", v)
	}
}

func TestStockNewsFallbacks(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"rate limited", &fakeSource{feedErr: alphavantage.ErrRateLimited}},
		{"api error", &fakeSource{feedErr: alphavantage.ErrAPI}},
		{"http error", &fakeSource{feedErr: &alphavantage.ErrHTTP{StatusCode: 503}}},
		{"transport error", &fakeSource{feedErr: context.DeadlineExceeded}},
		{"empty feed", &fakeSource{feed: &alphavantage.NewsFeed{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			c := newTestClient("real-key", tt.src, WithMetrics(m))

			got := c.StockNews(context.Background(), "AAPL")
			if diff := cmp.Diff(FallbackNews("AAPL"), got); diff != "" {
				t.Fatalf("expected fallback news (-want +got):\n%s", diff)
			}
			if n := tt.src.newsCalls.Load(); n != 1 {
				t.Fatalf("news calls = %d, want exactly 1", n)
			}
			if v := testutil.ToFloat64(m.NewsFetches.WithLabelValues(metrics.NewsFallback)); v != 1 {
				t.Errorf("fallback fetches = %v, want 1", v)
			}
		})
	}
}

func TestStockNewsAgainstServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"Note":"Thank you for using Alpha Vantage!"}`)
	}))
	defer srv.Close()

	av := alphavantage.NewClient("real-key", alphavantage.WithBaseURL(srv.URL))
	c := newTestClient("real-key", av)

	got := c.StockNews(context.Background(), "TSLA")
	if got[0].Source != "Yahoo Finance" || got[1].URL != "https://www.marketwatch.com/investing/stock/tsla" {
		t.Fatalf("expected fallback cards, got %+v", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("server calls = %d, want 1", calls.Load())
	}
}

func TestStockNewsBlankFieldsGetDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":"2","feed":[
			{"title":"","url":"","time_published":"20250601T120000","summary":"","source":"","overall_sentiment_score":0.1},
			{"title":"   ","url":" ","summary":"\t\n","source":"  ","overall_sentiment_score":-0.2}
		]}`)
	}))
	defer srv.Close()

	av := alphavantage.NewClient("real-key", alphavantage.WithBaseURL(srv.URL))
	got := newTestClient("real-key", av).StockNews(context.Background(), "IBM")

	want := []models.NewsArticle{
		{Title: "No title", Summary: "No summary available...", URL: "#", TimePublished: "20250601T120000", Source: "Unknown", SentimentScore: 0.1},
		{Title: "No title", Summary: "No summary available...", URL: "#", Source: "Unknown", SentimentScore: -0.2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("articles mismatch (-want +got):\n%s", diff)
	}
}

// ════════════════════════════════════════════════════════════════════
// DemoNews / FallbackNews
// ════════════════════════════════════════════════════════════════════

func TestDemoNews(t *testing.T) {
	c := newTestClient("demo", &fakeSource{})
	got := c.DemoNews("NVDA")

	if len(got) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(got))
	}
	titles := map[string]bool{}
	for i, a := range got {
		if titles[a.Title] {
			t.Fatalf("duplicate headline %q", a.Title)
		}
		titles[a.Title] = true

		if a.URL != "https://finance.yahoo.com/quote/NVDA" {
			t.Errorf("item %d url = %q", i, a.URL)
		}
		if want := []string{"Reuters", "Bloomberg", "MarketWatch"}[i]; a.Source != want {
			t.Errorf("item %d source = %q, want %q", i, a.Source, want)
		}
		wantTime := fixedNow.Add(-time.Duration(i) * 2 * time.Hour).Format("20060102T150405")
		if a.TimePublished != wantTime {
			t.Errorf("item %d time = %q, want %q", i, a.TimePublished, wantTime)
		}
		if strings.Contains(a.Title, "%") || strings.Contains(a.Summary, "%!") {
			t.Errorf("item %d has unexpanded template: %+v", i, a)
		}
	}
	if got[0].TimePublished != "20250602T150405" {
		t.Errorf("first item time = %q", got[0].TimePublished)
	}
}

func TestDemoNewsTemplates(t *testing.T) {
	want := map[string]float64{
		"AMD Reports Strong Quarterly Earnings":    0.7,
		"Analysts Upgrade AMD Price Target":        0.6,
		"AMD Announces Strategic Partnership Deal": 0.5,
		"Market Volatility Affects AMD Trading":    -0.2,
	}
	seen := map[string]bool{}

	c := newTestClient("demo", &fakeSource{})
	for i := 0; i < 50; i++ {
		for _, a := range c.DemoNews("AMD") {
			score, ok := want[a.Title]
			if !ok {
				t.Fatalf("unexpected headline %q", a.Title)
			}
			if a.SentimentScore != score {
				t.Fatalf("%q score = %v, want %v", a.Title, a.SentimentScore, score)
			}
			seen[a.Title] = true
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected every template to appear over 50 draws, saw %d", len(seen))
	}
}

func TestDemoNewsConcurrent(t *testing.T) {
	c := newTestClient("demo", &fakeSource{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n := len(c.DemoNews("AAPL")); n != 3 {
				t.Errorf("got %d articles", n)
			}
		}()
	}
	wg.Wait()
}

func TestFallbackNews(t *testing.T) {
	want := []models.NewsArticle{
		{
			Title:         "📊 View AAPL Live Financial Data",
			Summary:       "Get real-time stock price, charts, financial statements, and analyst ratings for AAPL. Comprehensive market data and trading information available.",
			URL:           "https://finance.yahoo.com/quote/AAPL",
			TimePublished: "Live Data",
			Source:        "Yahoo Finance",
		},
		{
			Title:         "📈 AAPL Market Analysis & News",
			Summary:       "Latest market analysis, financial news, and expert opinions about AAPL. Includes recent earnings reports, analyst recommendations, and market trends.",
			URL:           "https://www.marketwatch.com/investing/stock/aapl",
			TimePublished: "Real-time",
			Source:        "MarketWatch",
		},
	}
	if diff := cmp.Diff(want, FallbackNews("AAPL")); diff != "" {
		t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
	}
}
