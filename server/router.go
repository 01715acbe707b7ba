package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ZaguanLabs/trailcache"
	"github.com/ZaguanLabs/trailcache/intercept"
)

// Resolver is the translation surface the API needs.
type Resolver interface {
	Translate(ctx context.Context, text, fromLang, toLang string) string
	PreloadCommon(ctx context.Context, phrases []string, toLang string)
	IsPreloaded(toLang string) bool
	VaultSize(ctx context.Context) int
	ClearVault(ctx context.Context) error
	Stats() trailcache.Stats
	SourceLang() string
}

// Interceptor is the resource-caching surface the API needs.
type Interceptor interface {
	Generation() string
	State() intercept.State
	Controlling() bool
	SkipWaitingRequested() bool
	Stats() intercept.Stats
	HandleMessage(ctx context.Context, msg intercept.Message) error
	Handler() http.Handler
}

// Observer translates inserted HTML fragments.
type Observer interface {
	ObserveLang(ctx context.Context, fragment, toLang string) (string, error)
}

// Connectivity is the online flag the API reports and updates.
type Connectivity interface {
	IsOnline() bool
	SetOnline(online bool)
}

// Deps holds the components served by the router. Resolver is required;
// routes for nil components answer 503.
type Deps struct {
	Resolver     Resolver
	Interceptor  Interceptor
	Observer     Observer
	Connectivity Connectivity
	Phrases      []string
	Logger       *slog.Logger
}

// NewRouter mounts the API under /api and hands every other request to
// the interceptor's reverse proxy.
func NewRouter(d Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Phrases == nil {
		d.Phrases = trailcache.CommonPhrases
	}
	h := &handlers{deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger))

	r.Get("/healthz", h.health)

	r.Route("/api", func(api chi.Router) {
		api.Get("/translate", h.translateQuery)
		api.Post("/translate", h.translateBody)
		api.Post("/preload", h.preload)

		api.Get("/vault/size", h.vaultSize)
		api.Delete("/vault", h.clearVault)

		api.Get("/stats", h.stats)

		api.Get("/connectivity", h.connectivity)
		api.Post("/connectivity", h.setConnectivity)

		api.Get("/interceptor/state", h.interceptorState)
		api.Post("/interceptor/message", h.interceptorMessage)

		api.Post("/dom/observe", h.observe)
	})

	if d.Interceptor != nil {
		r.Handle("/*", d.Interceptor.Handler())
	}

	return r
}

func requestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.DebugContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
