package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/sony/gobreaker"

	"github.com/seenimoa/stockbrief/internal/logging"
)

// BreakerSettings configures a Breaker.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker. Defaults to 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial request.
	// Defaults to 60s.
	OpenTimeout time.Duration
	Logger      *log.Logger
}

// DefaultBreakerSettings returns the settings used by the service.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         60 * time.Second,
	}
}

// Breaker wraps a Provider in a circuit breaker. Only outages count toward
// tripping; rate-limit and quota errors pass through unchanged. While open,
// Generate fails fast with ErrProviderDown instead of calling the provider.
type Breaker struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewBreaker wraps p.
func NewBreaker(p Provider, s BreakerSettings) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 60 * time.Second
	}
	logger := logging.OrDiscard(s.Logger)
	threshold := s.ConsecutiveFailures

	settings := gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a provider failure, and a quota
			// answer means the provider is up: its callers need the quota
			// kind, not ErrProviderDown.
			return err == nil || errors.Is(err, context.Canceled) || Classify(err).IsQuota()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("circuit", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Breaker{provider: p, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Name() string { return b.provider.Name() }

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Generate calls the wrapped provider through the breaker.
func (b *Breaker) Generate(ctx context.Context, prompt string) (*Response, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.provider.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s circuit open", ErrProviderDown, b.provider.Name())
		}
		return nil, err
	}
	return result.(*Response), nil
}
