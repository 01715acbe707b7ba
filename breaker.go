package trailcache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig configures the provider circuit breaker.
type BreakerConfig struct {
	Name             string        // Breaker name used in logs (default: "translation-provider")
	FailureThreshold uint32        // Consecutive failures that open the circuit (default: 5)
	OpenTimeout      time.Duration // How long the circuit stays open before probing (default: 30s)
	HalfOpenRequests uint32        // Probe requests allowed while half-open (default: 1)
	Logger           *slog.Logger
}

// BreakerProvider stops calling a failing provider for a while so that a
// dead translation service does not add latency to every lookup.
// An open circuit surfaces as a ProviderError; it never changes the
// connectivity state.
type BreakerProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps provider with a circuit breaker.
func NewBreakerProvider(provider Provider, cfg BreakerConfig) *BreakerProvider {
	if cfg.Name == "" {
		cfg.Name = "translation-provider"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	threshold := cfg.FailureThreshold
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider circuit breaker changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
		// Caller cancellations say nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerProvider{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// Translate implements Provider through the circuit breaker.
func (p *BreakerProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return p.provider.Translate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &ProviderError{
			Message:   "circuit breaker " + p.cb.State().String(),
			Cause:     err,
			Retryable: false,
		}
	}
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

// State returns the breaker state ("closed", "half-open" or "open").
func (p *BreakerProvider) State() string {
	return p.cb.State().String()
}

var _ Provider = (*BreakerProvider)(nil)
