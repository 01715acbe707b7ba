package trailcache

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the provider rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute (default: 60)
	BurstSize         int // Maximum burst size (default: same as RPM)
}

// NewRateLimiter creates a token bucket limiter from cfg.
func NewRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}

	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// RateLimitedProvider wraps a Provider with rate limiting, keeping bulk
// preloads from tripping the translation service's quota.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider creates a new rate-limited provider.
func NewRateLimitedProvider(provider Provider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
	}
}

// Translate implements Provider with rate limiting.
func (p *RateLimitedProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Retryable: false,
		}
	}

	return p.provider.Translate(ctx, req)
}

// Limiter returns the underlying rate limiter for inspection.
func (p *RateLimitedProvider) Limiter() *rate.Limiter {
	return p.limiter
}

var _ Provider = (*RateLimitedProvider)(nil)
