package trailcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerProvider_PassesThrough(t *testing.T) {
	inner := newMockProvider()
	p := NewBreakerProvider(inner, BreakerConfig{})

	got, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Hello"}, SourceLang: "en", TargetLang: "ne"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(got) != 1 || got[0] != "नमस्ते" {
		t.Errorf("Unexpected result: %v", got)
	}
	if p.State() != "closed" {
		t.Errorf("Breaker should be closed, got %s", p.State())
	}
}

func TestBreakerProvider_OpensAfterFailures(t *testing.T) {
	inner := newMockProvider()
	inner.err = &ProviderError{Message: "connection refused", Retryable: true}
	p := NewBreakerProvider(inner, BreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute})

	req := TranslateRequest{Texts: []string{"Hello"}, SourceLang: "en", TargetLang: "ne"}
	for i := 0; i < 3; i++ {
		if _, err := p.Translate(context.Background(), req); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	if p.State() != "open" {
		t.Fatalf("Breaker should be open after 3 failures, got %s", p.State())
	}

	_, err := p.Translate(context.Background(), req)
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("Expected ProviderError from open breaker, got %v", err)
	}
	if inner.calls() != 3 {
		t.Errorf("Open breaker should not reach the provider, got %d calls", inner.calls())
	}
}

func TestBreakerProvider_ResolverFallsBack(t *testing.T) {
	inner := newMockProvider()
	inner.err = &ProviderError{Message: "timeout", Retryable: true}
	p := NewBreakerProvider(inner, BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})
	conn := newConnectivity(true)
	r := NewResolver(p, WithConnectivity(conn))

	for _, text := range []string{"Hello", "Trail", "Thank you"} {
		if got := r.Translate(context.Background(), text, "en", "ne"); got != text {
			t.Errorf("Expected original text %q, got %q", text, got)
		}
	}

	if inner.calls() != 1 {
		t.Errorf("Only the first call should reach the provider, got %d", inner.calls())
	}
	if !conn.IsOnline() {
		t.Error("Breaker state must not change connectivity")
	}
}
