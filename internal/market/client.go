// Package market reads quotes, fundamentals and news from Alpha Vantage and
// degrades to demo or static content whenever the API cannot serve a request.
package market

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/seenimoa/stockbrief/internal/alphavantage"
	"github.com/seenimoa/stockbrief/internal/config"
	"github.com/seenimoa/stockbrief/internal/logging"
	"github.com/seenimoa/stockbrief/internal/metrics"
	"github.com/seenimoa/stockbrief/pkg/models"
)

// Source is the subset of the Alpha Vantage client used by Client.
type Source interface {
	GlobalQuote(ctx context.Context, symbol string) (*alphavantage.Quote, error)
	Overview(ctx context.Context, symbol string) (*alphavantage.Overview, error)
	NewsSentiment(ctx context.Context, ticker string, limit int) (*alphavantage.NewsFeed, error)
}

// Saver persists a stock record.
type Saver interface {
	Save(ctx context.Context, stock *models.Stock) error
}

// DefaultNewsLimit is the number of feed items requested per news call.
const DefaultNewsLimit = 15

// Client is safe for concurrent use.
type Client struct {
	source    Source
	saver     Saver
	demo      bool
	newsLimit int
	logger    *log.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures the client.
type Option func(*Client)

// WithSaver sets where UpdateStockData persists records.
func WithSaver(s Saver) Option {
	return func(c *Client) { c.saver = s }
}

// WithNewsLimit sets the limit parameter sent with NEWS_SENTIMENT.
func WithNewsLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.newsLimit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records news outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRand sets the random source used to pick demo headlines.
func WithRand(r *rand.Rand) Option {
	return func(c *Client) { c.rng = r }
}

// WithClock sets the time source for demo timestamps and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client. apiKey only decides whether news is served from
// demo templates; requests carry whatever key src was built with.
func New(apiKey string, src Source, opts ...Option) *Client {
	c := &Client{
		source:    src,
		demo:      config.IsDemoKey(apiKey),
		newsLimit: DefaultNewsLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// Demo reports whether the client serves demo news.
func (c *Client) Demo() bool { return c.demo }

// pick returns k distinct indices in [0, n).
func (c *Client) pick(n, k int) []int {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Perm(n)[:k]
}
