// Package metrics provides Prometheus metrics for upstream API calls and
// the fallback paths the services take when those calls are unavailable.
//
// A nil *Metrics is valid and records nothing, so services can be built
// without a registry in tests and one-shot CLI runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream services.
const (
	ServiceAlphaVantage = "alpha_vantage"
	ServiceGemini       = "gemini"
)

// News sources recorded by RecordNewsFetch.
const (
	NewsLive     = "live"
	NewsDemo     = "demo"
	NewsFallback = "fallback"
)

// Summary outcomes recorded by RecordSummary.
const (
	SummaryGenerated   = "generated"
	SummaryDemo        = "demo"
	SummaryRateLimited = "rate_limited"
	SummaryQuota       = "quota"
	SummaryUnavailable = "unavailable"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	NewsFetches      *prometheus.CounterVec
	Summaries        *prometheus.CounterVec
}

// New registers the collectors with reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockbrief_upstream_requests_total",
				Help: "Total outbound API requests by service, function and outcome",
			},
			[]string{"service", "function", "outcome"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockbrief_upstream_request_duration_seconds",
				Help:    "Outbound API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "function"},
		),
		NewsFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockbrief_news_fetch_total",
				Help: "News fetches by the source of the returned articles",
			},
			[]string{"source"},
		),
		Summaries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockbrief_ai_summaries_total",
				Help: "AI summaries by kind (company, news) and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
}

// RecordUpstream records one outbound request. outcome is "success" or an
// error class such as "error", "rate_limited" or "http_503".
func (m *Metrics) RecordUpstream(service, function, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(service, function, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(service, function).Observe(d.Seconds())
}

// RecordNewsFetch records which tier served a news request.
func (m *Metrics) RecordNewsFetch(source string) {
	if m == nil {
		return
	}
	m.NewsFetches.WithLabelValues(source).Inc()
}

// RecordSummary records the outcome of an AI summary request.
func (m *Metrics) RecordSummary(kind, outcome string) {
	if m == nil {
		return
	}
	m.Summaries.WithLabelValues(kind, outcome).Inc()
}
