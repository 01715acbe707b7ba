package trailcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockProvider is a simple mock for testing
type mockProvider struct {
	mu           sync.Mutex
	translations map[string]string
	callCount    int
	lastRequest  TranslateRequest
	err          error
	release      chan struct{} // when set, Translate blocks until closed
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		translations: map[string]string{
			"Hello":       "नमस्ते",
			"Thank you":   "धन्यवाद",
			"Trail":       "पदमार्ग",
			"Good night":  "शुभ रात्री",
			"I need help": "मलाई मद्दत चाहिन्छ",
		},
	}
}

func (m *mockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = req
	release := m.release
	err := m.err
	m.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translation, ok := m.translations[text]; ok {
			results[i] = translation
		} else {
			results[i] = "[" + text + "]"
		}
	}
	return results, nil
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// spyVault is an in-memory vault that counts calls and can inject failures.
type spyVault struct {
	mu       sync.Mutex
	records  []TranslationRecord
	getCalls int
	addCalls int
	getErr   error
	addErr   error
}

func (v *spyVault) Get(ctx context.Context, key string) (TranslationRecord, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.getCalls++
	if v.getErr != nil {
		return TranslationRecord{}, false, v.getErr
	}
	for _, rec := range v.records {
		if rec.CacheKey == key {
			return rec, true, nil
		}
	}
	return TranslationRecord{}, false, nil
}

func (v *spyVault) Add(ctx context.Context, rec TranslationRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.addCalls++
	if v.addErr != nil {
		return v.addErr
	}
	v.records = append(v.records, rec)
	return nil
}

func (v *spyVault) Count(ctx context.Context) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.getErr != nil {
		return 0, v.getErr
	}
	return len(v.records), nil
}

func (v *spyVault) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = nil
	return nil
}

func (v *spyVault) countKey(key string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, rec := range v.records {
		if rec.CacheKey == key {
			n++
		}
	}
	return n
}

func (v *spyVault) gets() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.getCalls
}

// staticConnectivity is a switchable connectivity oracle.
type staticConnectivity struct {
	online atomic.Bool
}

func newConnectivity(online bool) *staticConnectivity {
	c := &staticConnectivity{}
	c.online.Store(online)
	return c
}

func (c *staticConnectivity) IsOnline() bool { return c.online.Load() }

func TestResolver_EmptyText(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{}
	r := NewResolver(provider, WithVault(vault))

	for _, text := range []string{"", "   ", "\n\t"} {
		if got := r.Translate(context.Background(), text, "en", "ne"); got != "" {
			t.Errorf("Translate(%q) = %q, want empty string", text, got)
		}
	}

	if provider.calls() != 0 {
		t.Errorf("Provider should not be called for empty text, was called %d times", provider.calls())
	}
	if vault.gets() != 0 || vault.addCalls != 0 {
		t.Errorf("Vault should not be touched for empty text: gets=%d adds=%d", vault.gets(), vault.addCalls)
	}
}

func TestResolver_NetworkTranslation(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{}
	r := NewResolver(provider, WithVault(vault), WithConnectivity(newConnectivity(true)))

	got := r.Translate(context.Background(), "Hello", "en", "ne")
	if got != "नमस्ते" {
		t.Errorf("Translate returned %q, want %q", got, "नमस्ते")
	}

	if provider.lastRequest.SourceLang != "en" || provider.lastRequest.TargetLang != "ne" {
		t.Errorf("Unexpected request languages: %+v", provider.lastRequest)
	}

	rec, ok, _ := vault.Get(context.Background(), CacheKey("en", "ne", "Hello"))
	if !ok {
		t.Fatal("Translation should be persisted to the vault")
	}
	if rec.OriginalText != "Hello" || rec.TranslatedText != "नमस्ते" || rec.FromLang != "en" || rec.ToLang != "ne" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.Timestamp == 0 {
		t.Error("Record timestamp should be set")
	}
}

func TestResolver_Idempotence(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{}
	r := NewResolver(provider, WithVault(vault), WithConnectivity(newConnectivity(true)))

	first := r.Translate(context.Background(), "Thank you", "en", "ne")
	second := r.Translate(context.Background(), "Thank you", "en", "ne")

	if first != second {
		t.Errorf("Repeated calls should agree: %q vs %q", first, second)
	}
	if n := vault.countKey(CacheKey("en", "ne", "Thank you")); n != 1 {
		t.Errorf("Vault should hold exactly one record for the key, got %d", n)
	}
	if provider.calls() != 1 {
		t.Errorf("Provider should be called once, was called %d times", provider.calls())
	}
}

func TestResolver_OfflineFallback(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{}
	r := NewResolver(provider, WithVault(vault), WithConnectivity(newConnectivity(false)))

	got := r.Translate(context.Background(), "Where is the trail?", "en", "ne")
	if got != "Where is the trail?" {
		t.Errorf("Offline miss should return original text, got %q", got)
	}
	if provider.calls() != 0 {
		t.Errorf("No network attempt expected while offline, got %d", provider.calls())
	}
	if vault.addCalls != 0 {
		t.Errorf("Offline fallback must not write to the vault, got %d adds", vault.addCalls)
	}

	stats := r.Stats()
	if stats.OfflineFallbacks != 1 || stats.Misses != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestResolver_OfflineVaultHit(t *testing.T) {
	vault := &spyVault{records: []TranslationRecord{
		NewTranslationRecord("Hello", "नमस्ते", "en", "ne", 1),
	}}
	r := NewResolver(newMockProvider(), WithVault(vault), WithConnectivity(newConnectivity(false)))

	if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "नमस्ते" {
		t.Errorf("Vault hit should work offline, got %q", got)
	}
}

func TestResolver_CachePromotion(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{records: []TranslationRecord{
		NewTranslationRecord("Trail", "पदमार्ग", "en", "ne", 1),
	}}
	r := NewResolver(provider, WithVault(vault))

	first := r.Translate(context.Background(), "Trail", "en", "ne")
	if first != "पदमार्ग" {
		t.Fatalf("Expected vault hit, got %q", first)
	}
	readsAfterFirst := vault.gets()

	second := r.Translate(context.Background(), "Trail", "en", "ne")
	if second != first {
		t.Errorf("Second call returned %q, want %q", second, first)
	}
	if vault.gets() != readsAfterFirst {
		t.Errorf("Second call should be served from the volatile cache, vault reads went %d -> %d",
			readsAfterFirst, vault.gets())
	}
	if provider.calls() != 0 {
		t.Errorf("Provider should not be called on vault hit, was called %d times", provider.calls())
	}

	stats := r.Stats()
	if stats.VaultHits != 1 || stats.VolatileHits != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestResolver_ProviderFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"network error", &ProviderError{Message: "dial tcp: connection refused", Retryable: true}},
		{"bad status", &ProviderError{Message: "unexpected status", StatusCode: 500}},
		{"malformed payload", &CountMismatchError{Expected: 1, Got: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newMockProvider()
			provider.err = tt.err
			vault := &spyVault{}
			r := NewResolver(provider, WithVault(vault))

			got := r.Translate(context.Background(), "I need help", "en", "ne")
			if got != "I need help" {
				t.Errorf("Provider failure should return original text, got %q", got)
			}
			if vault.addCalls != 0 {
				t.Errorf("Failures must not be persisted, got %d adds", vault.addCalls)
			}
			if r.Stats().ProviderFailures != 1 {
				t.Errorf("Expected 1 provider failure, got %d", r.Stats().ProviderFailures)
			}
		})
	}
}

// wrongCountProvider returns a malformed batch.
type wrongCountProvider struct{}

func (wrongCountProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	return []string{}, nil
}

// blankProvider returns an empty translation.
type blankProvider struct{}

func (blankProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	return []string{"  "}, nil
}

func TestResolver_MalformedResults(t *testing.T) {
	for _, p := range []Provider{wrongCountProvider{}, blankProvider{}} {
		vault := &spyVault{}
		r := NewResolver(p, WithVault(vault))

		if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "Hello" {
			t.Errorf("%T: expected original text, got %q", p, got)
		}
		if vault.addCalls != 0 {
			t.Errorf("%T: malformed results must not be persisted", p)
		}
	}
}

func TestResolver_NoProvider(t *testing.T) {
	r := NewResolver(nil)
	if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "Hello" {
		t.Errorf("Expected original text without a provider, got %q", got)
	}
}

func TestResolver_VaultReadFailure(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{getErr: errors.New("database is locked")}
	r := NewResolver(provider, WithVault(vault))

	got := r.Translate(context.Background(), "Hello", "en", "ne")
	if got != "नमस्ते" {
		t.Errorf("Vault failure should fall through to the provider, got %q", got)
	}

	// The volatile tier still serves the result.
	vault.mu.Lock()
	vault.getErr = nil
	vault.mu.Unlock()
	before := provider.calls()
	if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "नमस्ते" {
		t.Errorf("Expected volatile hit, got %q", got)
	}
	if provider.calls() != before {
		t.Error("Second call should not reach the provider")
	}
	if r.Stats().StoreFailures == 0 {
		t.Error("Store failures should be counted")
	}
}

func TestResolver_VaultWriteFailure(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{addErr: &StoreError{Op: "add", Message: "quota exceeded"}}
	r := NewResolver(provider, WithVault(vault))

	if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "नमस्ते" {
		t.Errorf("Write failure must not affect the result, got %q", got)
	}
	if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "नमस्ते" {
		t.Errorf("Volatile tier should still serve the result, got %q", got)
	}
	if provider.calls() != 1 {
		t.Errorf("Provider should be called once, was called %d times", provider.calls())
	}
}

func TestResolver_ReadCheckBeforeAdd(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{}
	r := NewResolver(provider, WithVault(vault))

	r.Translate(context.Background(), "Hello", "en", "ne")

	// A fresh session reads the record back rather than re-adding it.
	r.ResetSession()
	r.Translate(context.Background(), "Hello", "en", "ne")

	if vault.addCalls != 1 {
		t.Errorf("Expected a single add across sessions, got %d", vault.addCalls)
	}
	if provider.calls() != 1 {
		t.Errorf("Expected a single provider call across sessions, got %d", provider.calls())
	}
}

func TestResolver_SingleFlight(t *testing.T) {
	provider := newMockProvider()
	provider.release = make(chan struct{})
	vault := &spyVault{}
	r := NewResolver(provider, WithVault(vault))

	const callers = 5
	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Translate(context.Background(), "Good night", "en", "ne")
		}(i)
	}

	// Every caller has missed the vault once it has been read that many times.
	deadline := time.Now().Add(2 * time.Second)
	for vault.gets() < callers && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(provider.release)
	wg.Wait()

	for i, got := range results {
		if got != "शुभ रात्री" {
			t.Errorf("caller %d got %q", i, got)
		}
	}
	if provider.calls() != 1 {
		t.Errorf("Concurrent misses should share one provider call, got %d", provider.calls())
	}
	if n := vault.countKey(CacheKey("en", "ne", "Good night")); n != 1 {
		t.Errorf("Expected one vault record, got %d", n)
	}
}

func TestResolver_CallerCancellationStillCaches(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{}
	r := NewResolver(provider, WithVault(vault))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.Translate(ctx, "Hello", "en", "ne")

	if n := vault.countKey(CacheKey("en", "ne", "Hello")); n != 1 {
		t.Errorf("Result should be cached even for a cancelled caller, got %d records", n)
	}
}

func TestResolver_VaultSize(t *testing.T) {
	vault := &spyVault{}
	r := NewResolver(newMockProvider(), WithVault(vault))

	if r.VaultSize(context.Background()) != 0 {
		t.Error("Empty vault should report 0")
	}

	r.Translate(context.Background(), "Hello", "en", "ne")
	r.Translate(context.Background(), "Trail", "en", "ne")
	r.Translate(context.Background(), "Hello", "en", "hi")

	if got := r.VaultSize(context.Background()); got != 3 {
		t.Errorf("VaultSize = %d, want 3", got)
	}

	if NewResolver(nil).VaultSize(context.Background()) != 0 {
		t.Error("Resolver without vault should report 0")
	}

	vault.getErr = errors.New("closed")
	if r.VaultSize(context.Background()) != 0 {
		t.Error("Unreadable vault should report 0")
	}
}

func TestResolver_ClearVault(t *testing.T) {
	provider := newMockProvider()
	vault := &spyVault{}
	r := NewResolver(provider, WithVault(vault))

	r.Translate(context.Background(), "Hello", "en", "ne")
	if err := r.ClearVault(context.Background()); err != nil {
		t.Fatalf("ClearVault failed: %v", err)
	}

	if r.VaultSize(context.Background()) != 0 {
		t.Error("Vault should be empty after clear")
	}

	// Volatile tier is reset too, so the next call goes back to the network.
	r.Translate(context.Background(), "Hello", "en", "ne")
	if provider.calls() != 2 {
		t.Errorf("Expected provider to be called again after clear, got %d calls", provider.calls())
	}
}

func TestResolver_ConnectivityTransitions(t *testing.T) {
	provider := newMockProvider()
	conn := newConnectivity(false)
	r := NewResolver(provider, WithVault(&spyVault{}), WithConnectivity(conn))

	if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "Hello" {
		t.Errorf("Offline: got %q", got)
	}

	conn.online.Store(true)
	if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "नमस्ते" {
		t.Errorf("Back online: got %q", got)
	}

	conn.online.Store(false)
	if got := r.Translate(context.Background(), "Hello", "en", "ne"); got != "नमस्ते" {
		t.Errorf("Offline after sync should use cache: got %q", got)
	}
}

func TestResolver_Options(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	vault := &spyVault{}
	r := NewResolver(newMockProvider(),
		WithVault(vault),
		WithSourceLang("en_US"),
		WithClock(func() time.Time { return fixed }),
		WithLogger(nil),
		WithVolatileCache(nil),
	)

	if r.SourceLang() != "en_US" {
		t.Errorf("Expected source lang 'en_US', got %q", r.SourceLang())
	}

	r.Translate(context.Background(), "Hello", "en", "ne")
	rec, _, _ := vault.Get(context.Background(), CacheKey("en", "ne", "Hello"))
	if rec.Timestamp != fixed.UnixMilli() {
		t.Errorf("Timestamp = %d, want %d", rec.Timestamp, fixed.UnixMilli())
	}
}
