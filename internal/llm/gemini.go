package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/phuslu/log"
	"google.golang.org/genai"

	"github.com/seenimoa/stockbrief/internal/logging"
	"github.com/seenimoa/stockbrief/internal/metrics"
)

// DefaultGeminiModel is the model used for company and news summaries.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Provider on the Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *log.Logger
}

type geminiOptions struct {
	model      string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	timeout    time.Duration
	metrics    *metrics.Metrics
	logger     *log.Logger
}

// GeminiOption configures the Gemini provider.
type GeminiOption func(*geminiOptions)

// WithGeminiModel sets the model.
func WithGeminiModel(model string) GeminiOption {
	return func(o *geminiOptions) { o.model = model }
}

// WithGeminiBaseURL points the client at a different endpoint, such as a
// proxy or a test server.
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(o *geminiOptions) { o.baseURL = baseURL }
}

// WithGeminiAPIVersion overrides the API version path segment.
func WithGeminiAPIVersion(v string) GeminiOption {
	return func(o *geminiOptions) { o.apiVersion = v }
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(o *geminiOptions) { o.httpClient = client }
}

// WithGeminiTimeout bounds each Generate call.
func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(o *geminiOptions) { o.timeout = d }
}

// WithGeminiMetrics records every call in m.
func WithGeminiMetrics(m *metrics.Metrics) GeminiOption {
	return func(o *geminiOptions) { o.metrics = m }
}

// WithGeminiLogger sets the logger.
func WithGeminiLogger(l *log.Logger) GeminiOption {
	return func(o *geminiOptions) { o.logger = l }
}

// NewGeminiProvider creates a Gemini provider. It returns ErrNoAPIKey when
// apiKey is empty; callers decide what a demo key means.
func NewGeminiProvider(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	o := geminiOptions{
		model:   DefaultGeminiModel,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cc := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(apiKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    o.baseURL,
			APIVersion: o.apiVersion,
		},
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		model:   o.model,
		timeout: o.timeout,
		metrics: o.metrics,
		logger:  logging.OrDiscard(o.logger),
	}, nil
}

func (p *GeminiProvider) Name() string  { return ProviderGemini }
func (p *GeminiProvider) Model() string { return p.model }

// Generate sends prompt as a single user turn.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		err = mapGeminiError(err)
		p.record(err, start)
		p.logger.Debug().Str("model", p.model).Err(err).Msg("gemini generate failed")
		return nil, err
	}

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		p.record(ErrEmptyResponse, start)
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	p.record(nil, start)

	out := &Response{
		Content:  content,
		Model:    p.model,
		Provider: ProviderGemini,
		Latency:  time.Since(start),
	}
	if v := strings.TrimSpace(resp.ModelVersion); v != "" {
		out.Model = v
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func (p *GeminiProvider) record(err error, start time.Time) {
	outcome := "success"
	if err != nil {
		outcome = Classify(err).String()
	}
	p.metrics.RecordUpstream(metrics.ServiceGemini, "generateContent", outcome, time.Since(start))
}

// mapGeminiError wraps SDK errors in the package sentinels while keeping the
// original error in the chain.
func mapGeminiError(err error) error {
	if apiErr, ok := asAPIError(err); ok {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
			return fmt.Errorf("gemini: %w: %w", ErrRateLimit, err)
		case strings.Contains(strings.ToLower(apiErr.Message), "quota"):
			return fmt.Errorf("gemini: %w: %w", ErrQuotaExceeded, err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("gemini: %w: %w", ErrNoAPIKey, err)
		case apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("gemini: %w: %w", ErrInvalidModel, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("gemini: %w: %w", ErrProviderDown, err)
		}
		return fmt.Errorf("gemini: %w", err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("gemini: %w: %w", ErrProviderDown, err)
	}
	return fmt.Errorf("gemini: %w", err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}
