package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/seenimoa/stockbrief/internal/alphavantage"
	"github.com/seenimoa/stockbrief/internal/config"
	"github.com/seenimoa/stockbrief/internal/insight"
	"github.com/seenimoa/stockbrief/internal/llm"
	"github.com/seenimoa/stockbrief/internal/market"
	"github.com/seenimoa/stockbrief/internal/metrics"
	"github.com/seenimoa/stockbrief/internal/store"
)

// app holds the services shared by the subcommands.
type app struct {
	cfg        *config.Config
	logger     *log.Logger
	registry   *prometheus.Registry
	store      store.Store
	market     *market.Client
	summarizer *insight.Summarizer

	closeStore func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	st, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	hc := newHTTPClient()

	av := cfg.AlphaVantage
	source := alphavantage.NewClient(av.APIKey,
		alphavantage.WithBaseURL(av.BaseURL),
		alphavantage.WithHTTPClient(hc),
		alphavantage.WithTimeouts(av.QuoteTimeout, av.NewsTimeout),
		alphavantage.WithRateLimiter(alphavantage.PerMinute(av.RequestsPerMinute)),
		alphavantage.WithMetrics(m),
		alphavantage.WithLogger(logger),
	)
	mc := market.New(av.APIKey, source,
		market.WithSaver(st),
		market.WithNewsLimit(av.NewsLimit),
		market.WithLogger(logger),
		market.WithMetrics(m),
	)

	provider, err := llm.NewFromConfig(ctx, cfg.Gemini, m, logger, llm.WithGeminiHTTPClient(hc))
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("gemini: %w", err)
	}
	sum := insight.New(provider, insight.WithLogger(logger), insight.WithMetrics(m))

	if mc.Demo() {
		logger.Info().Msg("alpha vantage key not configured, news uses demo headlines")
	}
	if !sum.Enabled() {
		logger.Info().Msg("gemini key not configured, summaries use demo text")
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		registry:   reg,
		store:      st,
		market:     mc,
		summarizer: sum,
		closeStore: closeStore,
	}, nil
}

// newHTTPClient returns the client shared by the Alpha Vantage and Gemini
// calls. Deadlines come from each call's context.
func newHTTPClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 4
	return &http.Client{Transport: t}
}

func (a *app) Close() {
	if err := a.closeStore(); err != nil {
		a.logger.Warn().Err(err).Msg("close store")
	}
}
