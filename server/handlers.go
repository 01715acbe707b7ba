package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ZaguanLabs/trailcache/intercept"
	"github.com/ZaguanLabs/trailcache/logger"
)

type handlers struct {
	deps Deps
}

// TranslateRequest is the body of POST /api/translate. Either Text or
// Texts is set.
type TranslateRequest struct {
	Text  string   `json:"text,omitempty"`
	Texts []string `json:"texts,omitempty"`
	From  string   `json:"from,omitempty"`
	To    string   `json:"to"`
}

// TranslateResponse carries one translation per requested text.
type TranslateResponse struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	Translation  string   `json:"translation,omitempty"`
	Translations []string `json:"translations,omitempty"`
}

// PreloadRequest is the body of POST /api/preload. Phrases defaults to
// the built-in vocabulary.
type PreloadRequest struct {
	To      string   `json:"to"`
	Phrases []string `json:"phrases,omitempty"`
}

// ConnectivityRequest is the body of POST /api/connectivity.
type ConnectivityRequest struct {
	Online bool `json:"online"`
}

// MessageRequest is the body of POST /api/interceptor/message.
type MessageRequest struct {
	Type string `json:"type"`
}

// ObserveRequest is the body of POST /api/dom/observe.
type ObserveRequest struct {
	HTML string `json:"html"`
	To   string `json:"to"`
}

// InterceptorState describes the interceptor lifecycle.
type InterceptorState struct {
	Generation  string `json:"generation"`
	State       string `json:"state"`
	Controlling bool   `json:"controlling"`
	SkipWaiting bool   `json:"skip_waiting"`
}

// ResolverStats mirrors trailcache.Stats for JSON output.
type ResolverStats struct {
	Requests         uint64 `json:"requests"`
	VolatileHits     uint64 `json:"volatile_hits"`
	VaultHits        uint64 `json:"vault_hits"`
	Misses           uint64 `json:"misses"`
	ProviderCalls    uint64 `json:"provider_calls"`
	ProviderFailures uint64 `json:"provider_failures"`
	OfflineFallbacks uint64 `json:"offline_fallbacks"`
	StoreFailures    uint64 `json:"store_failures"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ALIVE"))
}

func (h *handlers) translateQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.translate(w, r, TranslateRequest{
		Text: q.Get("text"),
		From: q.Get("from"),
		To:   q.Get("to"),
	})
}

func (h *handlers) translateBody(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	}
	h.translate(w, r, req)
}

func (h *handlers) translate(w http.ResponseWriter, r *http.Request, req TranslateRequest) {
	if req.To == "" {
		writeError(w, http.StatusBadRequest, errBadRequest, "target language is required")
		return
	}
	if req.From == "" {
		req.From = h.deps.Resolver.SourceLang()
	}

	resp := TranslateResponse{From: req.From, To: req.To}
	if len(req.Texts) > 0 {
		resp.Translations = make([]string, len(req.Texts))
		for i, text := range req.Texts {
			resp.Translations[i] = h.deps.Resolver.Translate(r.Context(), text, req.From, req.To)
		}
	} else {
		resp.Translation = h.deps.Resolver.Translate(r.Context(), req.Text, req.From, req.To)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) preload(w http.ResponseWriter, r *http.Request) {
	var req PreloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, errBadRequest, "target language is required")
		return
	}
	phrases := req.Phrases
	if len(phrases) == 0 {
		phrases = h.deps.Phrases
	}

	h.deps.Resolver.PreloadCommon(r.Context(), phrases, req.To)
	writeJSON(w, http.StatusOK, map[string]any{
		"to":         req.To,
		"preloaded":  h.deps.Resolver.IsPreloaded(req.To),
		"vault_size": h.deps.Resolver.VaultSize(r.Context()),
	})
}

func (h *handlers) vaultSize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"size": h.deps.Resolver.VaultSize(r.Context())})
}

func (h *handlers) clearVault(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Resolver.ClearVault(r.Context()); err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "clearing vault failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, errUnavailable, "vault could not be cleared")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	s := h.deps.Resolver.Stats()
	out := map[string]any{
		"resolver": ResolverStats{
			Requests:         s.Requests,
			VolatileHits:     s.VolatileHits,
			VaultHits:        s.VaultHits,
			Misses:           s.Misses,
			ProviderCalls:    s.ProviderCalls,
			ProviderFailures: s.ProviderFailures,
			OfflineFallbacks: s.OfflineFallbacks,
			StoreFailures:    s.StoreFailures,
		},
	}
	if h.deps.Interceptor != nil {
		out["interceptor"] = h.deps.Interceptor.Stats()
	}
	if h.deps.Connectivity != nil {
		out["online"] = h.deps.Connectivity.IsOnline()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) connectivity(w http.ResponseWriter, r *http.Request) {
	if h.deps.Connectivity == nil {
		writeError(w, http.StatusServiceUnavailable, errUnavailable, "connectivity is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"online": h.deps.Connectivity.IsOnline()})
}

func (h *handlers) setConnectivity(w http.ResponseWriter, r *http.Request) {
	if h.deps.Connectivity == nil {
		writeError(w, http.StatusServiceUnavailable, errUnavailable, "connectivity is not configured")
		return
	}
	var req ConnectivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	}
	h.deps.Connectivity.SetOnline(req.Online)
	writeJSON(w, http.StatusOK, map[string]bool{"online": h.deps.Connectivity.IsOnline()})
}

func (h *handlers) interceptorState(w http.ResponseWriter, r *http.Request) {
	if h.deps.Interceptor == nil {
		writeError(w, http.StatusServiceUnavailable, errUnavailable, "interceptor is not configured")
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *handlers) interceptorMessage(w http.ResponseWriter, r *http.Request) {
	if h.deps.Interceptor == nil {
		writeError(w, http.StatusServiceUnavailable, errUnavailable, "interceptor is not configured")
		return
	}
	var req MessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	}

	err := h.deps.Interceptor.HandleMessage(r.Context(), intercept.Message(strings.TrimSpace(req.Type)))
	switch {
	case errors.Is(err, intercept.ErrUnknownMessage):
		writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	case err != nil:
		h.deps.Logger.ErrorContext(r.Context(), "interceptor message failed",
			slog.String("type", req.Type), logger.Error(err))
		writeError(w, http.StatusConflict, errUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *handlers) snapshot() InterceptorState {
	i := h.deps.Interceptor
	return InterceptorState{
		Generation:  i.Generation(),
		State:       i.State().String(),
		Controlling: i.Controlling(),
		SkipWaiting: i.SkipWaitingRequested(),
	}
}

func (h *handlers) observe(w http.ResponseWriter, r *http.Request) {
	if h.deps.Observer == nil {
		writeError(w, http.StatusServiceUnavailable, errUnavailable, "DOM watcher is not configured")
		return
	}
	var req ObserveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, errBadRequest, "target language is required")
		return
	}

	out, err := h.deps.Observer.ObserveLang(r.Context(), req.HTML, req.To)
	if err != nil {
		h.deps.Logger.WarnContext(r.Context(), "observe failed", logger.Error(err))
		writeError(w, http.StatusUnprocessableEntity, errBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": out, "to": req.To})
}
