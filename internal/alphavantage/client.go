// Package alphavantage is a small client for the Alpha Vantage query API.
// It covers the three functions stockbrief uses: GLOBAL_QUOTE, OVERVIEW and
// NEWS_SENTIMENT. Every method performs exactly one HTTP request.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/phuslu/log"

	"github.com/seenimoa/stockbrief/internal/logging"
	"github.com/seenimoa/stockbrief/internal/metrics"
)

// DefaultBaseURL is the Alpha Vantage query endpoint.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// Query functions.
const (
	FunctionGlobalQuote   = "GLOBAL_QUOTE"
	FunctionOverview      = "OVERVIEW"
	FunctionNewsSentiment = "NEWS_SENTIMENT"
)

// Default per-call timeouts.
const (
	DefaultQuoteTimeout = 30 * time.Second
	DefaultNewsTimeout  = 5 * time.Second
)

// --- Sentinel errors ---

// ErrRateLimited is returned when the response body carries a "Note" or
// "Information" field, which Alpha Vantage uses for call-frequency limits.
var ErrRateLimited = errors.New("alphavantage: rate limited")

// ErrAPI is returned when the response body carries an "Error Message".
var ErrAPI = errors.New("alphavantage: API error")

// ErrHTTP wraps a non-200 response.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("alphavantage: HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Client issues Alpha Vantage requests. It is safe for concurrent use.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	quoteTimeout time.Duration
	newsTimeout  time.Duration
	limiter      *RateLimiter
	metrics      *metrics.Metrics
	logger       *log.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the query endpoint. An empty URL keeps the default.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client. A nil client keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeouts sets the quote/overview and news request timeouts.
func WithTimeouts(quote, news time.Duration) Option {
	return func(c *Client) {
		if quote > 0 {
			c.quoteTimeout = quote
		}
		if news > 0 {
			c.newsTimeout = news
		}
	}
}

// WithRateLimiter throttles every request through rl. A nil limiter disables
// throttling.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(c *Client) { c.limiter = rl }
}

// WithMetrics records every request in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates an Alpha Vantage client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{},
		quoteTimeout: DefaultQuoteTimeout,
		newsTimeout:  DefaultNewsTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// GlobalQuote fetches the latest quote for symbol.
func (c *Client) GlobalQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("function", FunctionGlobalQuote)
	params.Set("symbol", symbol)

	var q Quote
	if err := c.query(ctx, c.quoteTimeout, params, &q, &q.Notice); err != nil {
		return nil, err
	}
	return &q, nil
}

// Overview fetches company fundamentals for symbol.
func (c *Client) Overview(ctx context.Context, symbol string) (*Overview, error) {
	params := url.Values{}
	params.Set("function", FunctionOverview)
	params.Set("symbol", symbol)

	var o Overview
	if err := c.query(ctx, c.quoteTimeout, params, &o, &o.Notice); err != nil {
		return nil, err
	}
	return &o, nil
}

// NewsSentiment fetches up to limit news items mentioning ticker.
func (c *Client) NewsSentiment(ctx context.Context, ticker string, limit int) (*NewsFeed, error) {
	params := url.Values{}
	params.Set("function", FunctionNewsSentiment)
	params.Set("tickers", ticker)
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var f NewsFeed
	if err := c.query(ctx, c.newsTimeout, params, &f, &f.Notice); err != nil {
		return nil, err
	}
	return &f, nil
}

// query performs one GET, decodes the body into out and converts an embedded
// notice into ErrRateLimited/ErrAPI.
func (c *Client) query(ctx context.Context, timeout time.Duration, params url.Values, out any, notice *Notice) error {
	function := params.Get("function")
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := c.limiter.Wait(ctx)
	if err == nil {
		err = c.do(ctx, params, out)
	}
	if err == nil {
		err = notice.Err()
	}

	c.metrics.RecordUpstream(metrics.ServiceAlphaVantage, function, outcome(err), time.Since(start))
	if err != nil {
		c.logger.Debug().Str("function", function).Err(err).Msg("alpha vantage request failed")
	}
	return err
}

func (c *Client) do(ctx context.Context, params url.Values, out any) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("alphavantage: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The error text embeds the URL; keep the key out of it.
		return fmt.Errorf("alphavantage: %s request: %w", params.Get("function"), redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("alphavantage: decode %s: %w", params.Get("function"), err)
	}
	return nil
}

func outcome(err error) string {
	var httpErr *ErrHTTP
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrAPI):
		return "api_error"
	case errors.As(err, &httpErr):
		return fmt.Sprintf("http_%d", httpErr.StatusCode)
	default:
		return "error"
	}
}

// redact strips the API key from transport errors, which embed the request URL.
func redact(err error, key string) error {
	var uerr *url.Error
	if key == "" || !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: redactedURL(uerr.URL, key), Err: uerr.Err}
}

func redactedURL(raw, key string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("apikey") == key {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
