package llm

import (
	"errors"
	"net/http"
	"strings"
)

// FailureKind groups provider errors by how they should be presented.
type FailureKind int

const (
	KindNone        FailureKind = iota // no error
	KindRateLimited                    // HTTP 429 / RESOURCE_EXHAUSTED
	KindQuota                          // quota exhausted without a rate-limit status
	KindUnavailable                    // anything else
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRateLimited:
		return "rate_limited"
	case KindQuota:
		return "quota"
	default:
		return "unavailable"
	}
}

// IsQuota reports whether k is one of the two quota kinds.
func (k FailureKind) IsQuota() bool {
	return k == KindRateLimited || k == KindQuota
}

// Classify maps err to a FailureKind. Sentinel errors and structured API
// errors are checked first; the error text is a last resort for providers
// that only surface a message.
func Classify(err error) FailureKind {
	if err == nil {
		return KindNone
	}

	switch {
	case errors.Is(err, ErrRateLimit):
		return KindRateLimited
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuota
	case errors.Is(err, ErrProviderDown):
		return KindUnavailable
	}

	if apiErr, ok := asAPIError(err); ok {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return KindRateLimited
		}
		if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
			return KindQuota
		}
		return KindUnavailable
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return KindRateLimited
	case strings.Contains(strings.ToLower(msg), "quota"):
		return KindQuota
	}
	return KindUnavailable
}
