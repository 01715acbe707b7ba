package trailcache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ZaguanLabs/trailcache/cache"
)

// Provider is the interface for network translation backends.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Texts      []string
	SourceLang string
	TargetLang string
}

// VolatileCache is the per-session in-memory lookup tier.
type VolatileCache = cache.TranslationCache

// Vault is the persistent translation store.
// A miss is reported as (zero, false, nil); errors are storage failures.
type Vault interface {
	Get(ctx context.Context, key string) (TranslationRecord, bool, error)
	Add(ctx context.Context, rec TranslationRecord) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Connectivity reports whether the platform currently considers itself online.
type Connectivity interface {
	IsOnline() bool
}

// Resolver orchestrates the lookup chain volatile cache → vault → provider.
// Translate never fails: on any failure the original text comes back.
type Resolver struct {
	provider     Provider
	volatile     VolatileCache
	vault        Vault
	connectivity Connectivity
	logger       *slog.Logger
	sourceLang   string
	now          func() time.Time

	flight singleflight.Group

	mu        sync.Mutex
	persisted map[string]struct{} // keys written to the vault this session
	preloaded map[string]bool     // target languages already preloaded this session

	requests         atomic.Uint64
	volatileHits     atomic.Uint64
	vaultHits        atomic.Uint64
	misses           atomic.Uint64
	providerCalls    atomic.Uint64
	providerFailures atomic.Uint64
	offlineFallbacks atomic.Uint64
	storeFailures    atomic.Uint64
}

// ResolverOption is a functional option for configuring the Resolver.
type ResolverOption func(*Resolver)

// WithVolatileCache sets the in-memory lookup tier.
func WithVolatileCache(c VolatileCache) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.volatile = c
		}
	}
}

// WithVault sets the persistent translation store.
func WithVault(v Vault) ResolverOption {
	return func(r *Resolver) {
		r.vault = v
	}
}

// WithConnectivity sets the connectivity oracle. Without one the
// Resolver assumes it is always online.
func WithConnectivity(c Connectivity) ResolverOption {
	return func(r *Resolver) {
		r.connectivity = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSourceLang sets the language preloaded phrases are written in.
func WithSourceLang(lang string) ResolverOption {
	return func(r *Resolver) {
		if lang != "" {
			r.sourceLang = lang
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a Resolver backed by the given provider.
func NewResolver(provider Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider:   provider,
		volatile:   cache.NewInMemoryCache(),
		logger:     slog.New(slog.DiscardHandler),
		sourceLang: "en",
		now:        time.Now,
		persisted:  make(map[string]struct{}),
		preloaded:  make(map[string]bool),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.With(slog.String("component", "resolver"))
	return r
}

// Translate resolves text from one language to another.
// The lookup order is volatile cache, vault, then the network provider.
// Offline misses and provider failures return text unchanged.
func (r *Resolver) Translate(ctx context.Context, text, fromLang, toLang string) string {
	r.requests.Add(1)

	if strings.TrimSpace(text) == "" {
		return ""
	}

	key := CacheKey(fromLang, toLang, text)

	if cached, ok := r.volatile.Get(key); ok {
		r.volatileHits.Add(1)
		return cached
	}

	if r.vault != nil {
		rec, ok, err := r.vault.Get(ctx, key)
		switch {
		case err != nil:
			r.storeFailures.Add(1)
			r.logger.WarnContext(ctx, "vault read failed, continuing without it",
				slog.String("from", fromLang), slog.String("to", toLang), slog.Any("error", err))
		case ok:
			r.vaultHits.Add(1)
			_ = r.volatile.Set(key, rec.TranslatedText)
			return rec.TranslatedText
		}
	}

	r.misses.Add(1)

	if !r.isOnline() {
		r.offlineFallbacks.Add(1)
		return text
	}

	// The shared fetch outlives any single caller so its result is cached
	// even when the caller that started it gives up.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := r.flight.Do(key, func() (any, error) {
		return r.fetch(fetchCtx, key, text, fromLang, toLang)
	})
	if err != nil {
		return text
	}
	return v.(string)
}

// fetch calls the provider and writes the result through every tier.
func (r *Resolver) fetch(ctx context.Context, key, text, fromLang, toLang string) (string, error) {
	if r.provider == nil {
		return "", errors.New("no translation provider configured")
	}

	r.providerCalls.Add(1)
	results, err := r.provider.Translate(ctx, TranslateRequest{
		Texts:      []string{text},
		SourceLang: fromLang,
		TargetLang: toLang,
	})
	if err == nil && len(results) != 1 {
		err = &CountMismatchError{Expected: 1, Got: len(results)}
	}
	if err == nil && strings.TrimSpace(results[0]) == "" {
		err = &ProviderError{Message: "empty translation in response"}
	}
	if err != nil {
		r.providerFailures.Add(1)
		r.logger.WarnContext(ctx, "translation provider failed, returning original text",
			slog.String("from", fromLang), slog.String("to", toLang), slog.Any("error", err))
		return "", err
	}

	translated := results[0]
	r.persist(ctx, key, text, translated, fromLang, toLang)
	_ = r.volatile.Set(key, translated)
	return translated, nil
}

// persist writes a network result to the vault at most once per session.
// Storage failures are logged and swallowed.
func (r *Resolver) persist(ctx context.Context, key, text, translated, fromLang, toLang string) {
	if r.vault == nil {
		return
	}

	r.mu.Lock()
	if _, done := r.persisted[key]; done {
		r.mu.Unlock()
		return
	}
	r.persisted[key] = struct{}{}
	r.mu.Unlock()

	// The vault has no uniqueness constraint, so check before adding.
	_, exists, err := r.vault.Get(ctx, key)
	if err == nil && !exists {
		rec := NewTranslationRecord(text, translated, fromLang, toLang, r.now().UnixMilli())
		err = r.vault.Add(ctx, rec)
	}
	if err != nil {
		r.storeFailures.Add(1)
		r.mu.Lock()
		delete(r.persisted, key)
		r.mu.Unlock()
		r.logger.WarnContext(ctx, "vault write failed, translation kept in memory only",
			slog.String("from", fromLang), slog.String("to", toLang), slog.Any("error", err))
	}
}

func (r *Resolver) isOnline() bool {
	if r.connectivity == nil {
		return true
	}
	return r.connectivity.IsOnline()
}

// VaultSize returns the number of records in the vault.
// It reports 0 when no vault is configured or the vault cannot be read.
func (r *Resolver) VaultSize(ctx context.Context) int {
	if r.vault == nil {
		return 0
	}
	n, err := r.vault.Count(ctx)
	if err != nil {
		r.storeFailures.Add(1)
		r.logger.WarnContext(ctx, "vault count failed", slog.Any("error", err))
		return 0
	}
	return n
}

// ClearVault deletes every vault record and resets the session state.
// Used on language switch and in tests.
func (r *Resolver) ClearVault(ctx context.Context) error {
	r.ResetSession()
	if r.vault == nil {
		return nil
	}
	if err := r.vault.Clear(ctx); err != nil {
		r.storeFailures.Add(1)
		return err
	}
	r.logger.InfoContext(ctx, "vault cleared")
	return nil
}

// ResetSession drops the volatile cache, the persisted-key set and the
// preload flags. The vault is untouched.
func (r *Resolver) ResetSession() {
	r.volatile.Clear()

	r.mu.Lock()
	r.persisted = make(map[string]struct{})
	r.preloaded = make(map[string]bool)
	r.mu.Unlock()
}

// Stats returns a snapshot of the telemetry counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Requests:         r.requests.Load(),
		VolatileHits:     r.volatileHits.Load(),
		VaultHits:        r.vaultHits.Load(),
		Misses:           r.misses.Load(),
		ProviderCalls:    r.providerCalls.Load(),
		ProviderFailures: r.providerFailures.Load(),
		OfflineFallbacks: r.offlineFallbacks.Load(),
		StoreFailures:    r.storeFailures.Load(),
	}
}

// SourceLang returns the language preloaded phrases are written in.
func (r *Resolver) SourceLang() string {
	return r.sourceLang
}
