// Package insight turns stock records and news articles into short
// natural-language summaries. Every method returns displayable text: when
// no model is configured, or the model fails, a templated message is
// returned instead of an error.
package insight

import (
	"context"
	"strings"

	"github.com/phuslu/log"

	"github.com/seenimoa/stockbrief/internal/llm"
	"github.com/seenimoa/stockbrief/internal/logging"
	"github.com/seenimoa/stockbrief/internal/metrics"
	"github.com/seenimoa/stockbrief/pkg/models"
)

// Summary kinds recorded in metrics.
const (
	KindCompany = "company"
	KindNews    = "news"
)

// Summarizer is safe for concurrent use.
type Summarizer struct {
	provider llm.Provider
	logger   *log.Logger
	metrics  *metrics.Metrics
}

// Option configures the summarizer.
type Option func(*Summarizer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Summarizer) { s.logger = l }
}

// WithMetrics records summary outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Summarizer) { s.metrics = m }
}

// New creates a summarizer. A nil provider selects the templated demo
// responses.
func New(p llm.Provider, opts ...Option) *Summarizer {
	s := &Summarizer{provider: p}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	return s
}

// Enabled reports whether a model is configured.
func (s *Summarizer) Enabled() bool { return s.provider != nil }

// CompanySummary describes what the company does in a few words.
func (s *Summarizer) CompanySummary(ctx context.Context, stock *models.Stock) string {
	name, desc := stock.CompanyName, stock.Description
	if s.provider == nil {
		s.metrics.RecordSummary(KindCompany, metrics.SummaryDemo)
		return demoCompanySummary(name, desc)
	}

	text, err := s.generate(ctx, companyPrompt(name, desc))
	if err == nil {
		s.metrics.RecordSummary(KindCompany, metrics.SummaryGenerated)
		return text
	}

	kind := llm.Classify(err)
	s.metrics.RecordSummary(KindCompany, outcome(kind))
	s.logger.Warn().Str("symbol", stock.Symbol).Str("kind", kind.String()).Err(err).Msg("company summary failed")
	if kind.IsQuota() {
		return companyQuotaMessage(name, desc)
	}
	return companyUnavailableMessage(name, desc)
}

// NewsSummary condenses up to three articles into one investment insight.
func (s *Summarizer) NewsSummary(ctx context.Context, articles []models.NewsArticle) string {
	if len(articles) == 0 {
		return NoNewsMessage
	}
	if s.provider == nil {
		s.metrics.RecordSummary(KindNews, metrics.SummaryDemo)
		return demoNewsInsight(articles)
	}

	text, err := s.generate(ctx, newsPrompt(articles))
	if err == nil {
		s.metrics.RecordSummary(KindNews, metrics.SummaryGenerated)
		return text
	}

	kind := llm.Classify(err)
	s.metrics.RecordSummary(KindNews, outcome(kind))
	s.logger.Warn().Str("kind", kind.String()).Err(err).Msg("news summary failed")
	switch kind {
	case llm.KindRateLimited:
		return newsRateLimitedMessage
	case llm.KindQuota:
		return newsQuotaMessage
	default:
		return newsUnavailableMessage
	}
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func outcome(k llm.FailureKind) string {
	switch k {
	case llm.KindRateLimited:
		return metrics.SummaryRateLimited
	case llm.KindQuota:
		return metrics.SummaryQuota
	default:
		return metrics.SummaryUnavailable
	}
}
