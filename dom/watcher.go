// Package dom translates HTML fragments as they are inserted into a page.
//
// A Watcher is a consumer of the Resolver contract. It walks each fragment,
// hands every visible text node to the translator and marks the parents it
// rewrote so that a second pass over the same markup is a no-op.
package dom

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ZaguanLabs/trailcache"
)

const (
	// LangAttr marks an element whose text the watcher has translated.
	LangAttr = "data-tc-lang"
	// NoTranslateAttr excludes an element and its subtree.
	NoTranslateAttr = "data-no-translate"
)

// Translator is the part of the Resolver the watcher needs.
type Translator interface {
	Translate(ctx context.Context, text, fromLang, toLang string) string
}

// Watcher translates text nodes of observed fragments.
type Watcher struct {
	translator  Translator
	fromLang    string
	toLang      string
	shield      *Shield
	ignoredTags map[string]bool
	logger      *slog.Logger

	mu       sync.Mutex
	produced map[string]map[string]bool // target language -> translated text
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithShield replaces the default shield.
func WithShield(s *Shield) Option {
	return func(w *Watcher) {
		if s != nil {
			w.shield = s
		}
	}
}

// WithIgnoredTags replaces the set of tags whose content is never touched.
func WithIgnoredTags(tags ...string) Option {
	return func(w *Watcher) {
		ignored := make(map[string]bool, len(tags))
		for _, tag := range tags {
			ignored[strings.ToLower(tag)] = true
		}
		w.ignoredTags = ignored
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher translating from fromLang into toLang.
func New(t Translator, fromLang, toLang string, opts ...Option) *Watcher {
	w := &Watcher{
		translator:  t,
		fromLang:    fromLang,
		toLang:      toLang,
		shield:      NewShield(),
		ignoredTags: trailcache.IgnoredTags,
		logger:      slog.New(slog.DiscardHandler),
		produced:    make(map[string]map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Observe translates fragment into the watcher's target language.
func (w *Watcher) Observe(ctx context.Context, fragment string) (string, error) {
	return w.ObserveLang(ctx, fragment, w.toLang)
}

// ObserveLang translates fragment into toLang and returns the rewritten
// markup. Text the translator leaves unchanged, for example while offline,
// is not marked and will be retried on the next observation.
func (w *Watcher) ObserveLang(ctx context.Context, fragment, toLang string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", &trailcache.ProcessorError{
			Message:     "failed to parse HTML fragment",
			Cause:       err,
			ContentType: "html",
		}
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	var texts []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n != body && w.skipElement(n) {
			return
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			texts = append(texts, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)

	// A parent is marked only when every text node beneath it settled,
	// otherwise the skip on the next pass would hide the pending ones.
	var translated []*html.Node
	pending := make(map[*html.Node]bool)
	for _, n := range texts {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		switch w.translateNode(ctx, n, toLang) {
		case nodeTranslated:
			translated = append(translated, n)
		case nodePending:
			for p := n.Parent; p != nil && p != body; p = p.Parent {
				pending[p] = true
			}
		}
	}
	for _, n := range translated {
		if parent := n.Parent; parent != nil && parent != body && parent.Type == html.ElementNode && !pending[parent] {
			w.mark(parent, toLang)
		}
	}

	out, err := goquery.NewDocumentFromNode(body).Html()
	if err != nil {
		return "", &trailcache.ProcessorError{
			Message:     "failed to serialize HTML fragment",
			Cause:       err,
			ContentType: "html",
		}
	}
	return out, nil
}

func (w *Watcher) skipElement(n *html.Node) bool {
	if w.ignoredTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == NoTranslateAttr || attr.Key == LangAttr {
			return true
		}
	}
	return false
}

type nodeResult int

const (
	nodeSettled    nodeResult = iota // nothing to do: already ours or fully protected
	nodeTranslated                   // rewritten in this pass
	nodePending                      // left as is; retry on a later pass
)

func (w *Watcher) translateNode(ctx context.Context, n *html.Node, toLang string) nodeResult {
	original := n.Data
	trimmed := strings.TrimSpace(original)

	if w.wasProduced(toLang, trimmed) {
		return nodeSettled
	}

	p := w.shield.Protect(trimmed)
	if !p.Translatable() {
		return nodeSettled
	}

	translated := w.translator.Translate(ctx, p.Text, w.fromLang, toLang)
	if translated == "" || translated == p.Text {
		return nodePending
	}

	restored, ok := w.shield.Restore(p, translated)
	if !ok {
		w.logger.WarnContext(ctx, "translation lost a protected substring, keeping original",
			slog.String("text", trimmed), slog.String("to", toLang))
		return nodePending
	}

	n.Data = preserveWhitespace(original, restored)
	w.remember(toLang, restored)
	return nodeTranslated
}

// mark records the target language on el and sets the text direction when
// it differs from the source language's.
func (w *Watcher) mark(el *html.Node, toLang string) {
	setAttr(el, LangAttr, toLang)
	if trailcache.IsRTL(toLang) != trailcache.IsRTL(w.fromLang) {
		setAttr(el, "dir", trailcache.GetDirection(toLang))
	}
}

func (w *Watcher) wasProduced(toLang, text string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.produced[toLang][text]
}

func (w *Watcher) remember(toLang, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	set, ok := w.produced[toLang]
	if !ok {
		set = make(map[string]bool)
		w.produced[toLang] = set
	}
	set[text] = true
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// preserveWhitespace keeps the original leading and trailing whitespace.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	leading := original[:leadingLen]

	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	trailing := ""
	if trailingLen > 0 {
		trailing = original[len(original)-trailingLen:]
	}

	return leading + translated + trailing
}
