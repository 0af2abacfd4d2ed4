package llm

import (
	"context"

	"github.com/phuslu/log"

	"github.com/seenimoa/stockbrief/internal/config"
	"github.com/seenimoa/stockbrief/internal/metrics"
)

// NewFromConfig builds the Gemini provider behind a circuit breaker. It
// returns a nil Provider and no error when the key is the demo sentinel.
// extra options are applied after the ones derived from cfg.
func NewFromConfig(ctx context.Context, cfg config.GeminiConfig, m *metrics.Metrics, logger *log.Logger, extra ...GeminiOption) (Provider, error) {
	if config.IsDemoKey(cfg.APIKey) {
		return nil, nil
	}

	opts := []GeminiOption{
		WithGeminiModel(cfg.Model),
		WithGeminiTimeout(cfg.Timeout),
		WithGeminiMetrics(m),
		WithGeminiLogger(logger),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithGeminiBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	gemini, err := NewGeminiProvider(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}

	settings := DefaultBreakerSettings()
	settings.Logger = logger
	return NewBreaker(gemini, settings), nil
}
