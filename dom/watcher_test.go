package dom

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// fakeTranslator answers from a fixed table and returns unknown text
// unchanged, which is what the Resolver does while offline.
type fakeTranslator struct {
	mu    sync.Mutex
	table map[string]string
	calls []string
}

func newFakeTranslator() *fakeTranslator {
	return &fakeTranslator{table: map[string]string{
		"Hello":              "नमस्ते",
		"Welcome":            "स्वागत छ",
		"Trail map":          "पदमार्ग नक्सा",
		"Day " + marker(0):   "दिन " + marker(0),
		"Hello " + marker(0): "नमस्ते",
	}}
}

func (f *fakeTranslator) Translate(ctx context.Context, text, fromLang, toLang string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if out, ok := f.table[text]; ok {
		return out
	}
	return text
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestWatcher_Observe_Basic(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	out, err := w.Observe(context.Background(), `<h1>Hello</h1><p>Welcome</p>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	want := `<h1 data-tc-lang="ne">नमस्ते</h1><p data-tc-lang="ne">स्वागत छ</p>`
	if out != want {
		t.Errorf("Observe =\n%s\nwant\n%s", out, want)
	}
}

func TestWatcher_Observe_Idempotent(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")
	ctx := context.Background()

	first, err := w.Observe(ctx, `<div><span>Hello</span> Welcome</div>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	calls := tr.callCount()

	second, err := w.Observe(ctx, first)
	if err != nil {
		t.Fatalf("second Observe failed: %v", err)
	}
	if second != first {
		t.Errorf("second pass changed markup:\n%s\n%s", first, second)
	}
	if tr.callCount() != calls {
		t.Errorf("second pass made %d extra translator calls", tr.callCount()-calls)
	}
}

func TestWatcher_Observe_SkipsProducedBareText(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")
	ctx := context.Background()

	// Bare text has no element to carry the marker.
	out, err := w.Observe(ctx, "Hello")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if out != "नमस्ते" {
		t.Fatalf("Observe = %q", out)
	}
	calls := tr.callCount()

	if _, err := w.Observe(ctx, out); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if tr.callCount() != calls {
		t.Error("text the watcher produced should not be sent again")
	}
}

func TestWatcher_Observe_IgnoredTags(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	in := `<p>Hello</p><script>Hello</script><code>Hello</code><textarea>Hello</textarea>`
	out, err := w.Observe(context.Background(), in)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	if strings.Count(out, "नमस्ते") != 1 {
		t.Errorf("only the paragraph should be translated: %s", out)
	}
	if !strings.Contains(out, "<script>Hello</script>") {
		t.Errorf("script content changed: %s", out)
	}
}

func TestWatcher_Observe_DataNoTranslate(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	out, err := w.Observe(context.Background(), `<div data-no-translate><p>Hello</p></div><p>Welcome</p>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if !strings.Contains(out, "<p>Hello</p>") {
		t.Errorf("data-no-translate subtree changed: %s", out)
	}
	if !strings.Contains(out, "स्वागत छ") {
		t.Errorf("sibling not translated: %s", out)
	}
}

func TestWatcher_Observe_WhitespacePreserved(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	out, err := w.Observe(context.Background(), "<p>\n  Hello  \n</p>")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if out != "<p data-tc-lang=\"ne\">\n  नमस्ते  \n</p>" {
		t.Errorf("Observe = %q", out)
	}
}

func TestWatcher_Observe_Shielding(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	out, err := w.Observe(context.Background(), `<li>Day 3</li>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if out != `<li data-tc-lang="ne">दिन 3</li>` {
		t.Errorf("Observe = %q", out)
	}

	tr.mu.Lock()
	sent := append([]string(nil), tr.calls...)
	tr.mu.Unlock()
	for _, s := range sent {
		if strings.Contains(s, "3") {
			t.Errorf("number leaked to translator: %q", s)
		}
	}
}

func TestWatcher_Observe_LostMarkerKeepsOriginal(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	// The table drops the marker for this phrase.
	out, err := w.Observe(context.Background(), `<p>Hello {{name}}</p>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if out != `<p>Hello {{name}}</p>` {
		t.Errorf("Observe = %q", out)
	}
}

func TestWatcher_Observe_FullyProtectedNotSent(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	out, err := w.Observe(context.Background(), `<span>https://example.com</span><span>8848</span>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if tr.callCount() != 0 {
		t.Errorf("expected no translator calls, got %d", tr.callCount())
	}
	if out != `<span>https://example.com</span><span>8848</span>` {
		t.Errorf("Observe = %q", out)
	}
}

func TestWatcher_Observe_UnchangedNotMarked(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	out, err := w.Observe(context.Background(), `<p>Unknown phrase</p>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if strings.Contains(out, LangAttr) {
		t.Errorf("untranslated text should not be marked: %s", out)
	}
}

func TestWatcher_Observe_PendingSiblingRetried(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")
	ctx := context.Background()

	first, err := w.Observe(ctx, `<p>Hello<br/>Trail</p>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if first != `<p>नमस्ते<br/>Trail</p>` {
		t.Fatalf("Observe = %q", first)
	}

	// The translation becomes available, e.g. after reconnecting.
	tr.mu.Lock()
	tr.table["Trail"] = "पदमार्ग"
	tr.mu.Unlock()

	second, err := w.Observe(ctx, first)
	if err != nil {
		t.Fatalf("second Observe failed: %v", err)
	}
	if second != `<p data-tc-lang="ne">नमस्ते<br/>पदमार्ग</p>` {
		t.Errorf("second Observe = %q", second)
	}
}

func TestWatcher_Observe_PendingDescendantKeepsAncestorUnmarked(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	out, err := w.Observe(context.Background(), `<div>Hello <a href="/x">Unknown phrase</a></div>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if strings.Contains(out, LangAttr) {
		t.Errorf("ancestor of pending text should not be marked: %s", out)
	}
}

func TestWatcher_Observe_RTLTarget(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ar")

	out, err := w.Observe(context.Background(), `<p>Hello</p>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if out != `<p data-tc-lang="ar" dir="rtl">नमस्ते</p>` {
		t.Errorf("Observe = %q", out)
	}

	// Same direction as the source: no dir attribute.
	out, err = New(tr, "en", "ne").Observe(context.Background(), `<p>Hello</p>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if strings.Contains(out, "dir=") {
		t.Errorf("unexpected dir attribute: %s", out)
	}
}

func TestWatcher_ObserveLang(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "hi")

	out, err := w.ObserveLang(context.Background(), `<p>Hello</p>`, "ne")
	if err != nil {
		t.Fatalf("ObserveLang failed: %v", err)
	}
	if !strings.Contains(out, `data-tc-lang="ne"`) {
		t.Errorf("expected ne marker: %s", out)
	}
}

func TestWatcher_Observe_Empty(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	out, err := w.Observe(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if out != "  " {
		t.Errorf("Observe = %q", out)
	}
}

func TestWatcher_Observe_Cancelled(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Observe(ctx, `<p>Hello</p>`)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWatcher_WithIgnoredTags(t *testing.T) {
	tr := newFakeTranslator()
	w := New(tr, "en", "ne", WithIgnoredTags("H1"))

	out, err := w.Observe(context.Background(), `<h1>Hello</h1><code>Welcome</code>`)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if !strings.Contains(out, "<h1>Hello</h1>") {
		t.Errorf("h1 should be ignored: %s", out)
	}
	if !strings.Contains(out, "स्वागत छ") {
		t.Errorf("code is no longer ignored and should be translated: %s", out)
	}
}

func TestPreserveWhitespace(t *testing.T) {
	tests := []struct {
		original   string
		translated string
		want       string
	}{
		{"Hello", "नमस्ते", "नमस्ते"},
		{"  Hello", "नमस्ते", "  नमस्ते"},
		{"Hello\n", "नमस्ते", "नमस्ते\n"},
		{"\t Hello \n", "नमस्ते", "\t नमस्ते \n"},
	}

	for _, tt := range tests {
		if got := preserveWhitespace(tt.original, tt.translated); got != tt.want {
			t.Errorf("preserveWhitespace(%q, %q) = %q, want %q", tt.original, tt.translated, got, tt.want)
		}
	}
}
