// Package intercept serves resource requests cache-first so the app keeps
// working without a network.
//
// An Interceptor moves through idle → installing → activating → active.
// Install pre-caches the app shell (all or nothing) and a map-tile
// allow-list (best effort). Once active, every request is classified and
// dispatched to a strategy:
//
//	tile        cache-first, 404 placeholder when offline and uncached
//	navigation  network-first, cached shell entry as fallback
//	static      cache-first, background store, fallback image or 503
//	bypass      network only
//
// Intercept never returns an error; a failing strategy degrades to one
// unmodified network attempt and then to a placeholder.
package intercept

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZaguanLabs/trailcache"
	"github.com/ZaguanLabs/trailcache/logger"
)

// DefaultTileConcurrency bounds parallel tile fetches during install.
const DefaultTileConcurrency = 4

var errOffline = errors.New("offline")

type strategy func(req *http.Request) (*http.Response, error)

// Stats counts interceptor outcomes.
type Stats struct {
	CacheHits       uint64 `json:"cache_hits"`
	NetworkFetches  uint64 `json:"network_fetches"`
	NetworkFailures uint64 `json:"network_failures"`
	Placeholders    uint64 `json:"placeholders"`
	Recovered       uint64 `json:"recovered"`
	TilesSeeded     uint64 `json:"tiles_seeded"`
	TileFailures    uint64 `json:"tile_failures"`
}

// Interceptor implements the offline-first resource layer.
type Interceptor struct {
	manifest     Manifest
	origin       *url.URL
	generation   string
	tileHosts    map[string]bool
	store        ResourceStore
	network      http.RoundTripper
	connectivity trailcache.Connectivity
	logger       *slog.Logger
	tileLimit    int
	now          func() time.Time

	strategies map[RequestKind]strategy
	pending    sync.WaitGroup

	mu          sync.Mutex
	state       State
	skipWaiting bool
	controlling bool

	cacheHits       atomic.Uint64
	networkFetches  atomic.Uint64
	networkFailures atomic.Uint64
	placeholders    atomic.Uint64
	recovered       atomic.Uint64
	tilesSeeded     atomic.Uint64
	tileFailures    atomic.Uint64
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithStore sets the resource store. Defaults to a MemoryStore.
func WithStore(s ResourceStore) Option {
	return func(i *Interceptor) {
		if s != nil {
			i.store = s
		}
	}
}

// WithNetwork sets the transport used for real network access. It must
// not route back through the interceptor.
func WithNetwork(rt http.RoundTripper) Option {
	return func(i *Interceptor) {
		if rt != nil {
			i.network = rt
		}
	}
}

// WithConnectivity sets the connectivity oracle.
func WithConnectivity(c trailcache.Connectivity) Option {
	return func(i *Interceptor) {
		i.connectivity = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithTileConcurrency bounds parallel tile fetches during install.
func WithTileConcurrency(n int) Option {
	return func(i *Interceptor) {
		if n > 0 {
			i.tileLimit = n
		}
	}
}

// WithClock overrides the time source used for StoredAt.
func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) {
		if now != nil {
			i.now = now
		}
	}
}

// New creates an idle interceptor for the manifest's generation.
func New(m Manifest, opts ...Option) (*Interceptor, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	origin, err := m.OriginURL()
	if err != nil {
		return nil, fmt.Errorf("parsing origin: %w", err)
	}

	i := &Interceptor{
		manifest:   m,
		origin:     origin,
		generation: m.Generation,
		tileHosts:  m.TileHostSet(),
		store:      NewMemoryStore(),
		network:    http.DefaultTransport,
		logger:     slog.New(slog.DiscardHandler),
		tileLimit:  DefaultTileConcurrency,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With(logger.Component("intercept"), logger.Generation(i.generation))

	i.strategies = map[RequestKind]strategy{
		KindTile:       i.serveTile,
		KindNavigation: i.serveNavigation,
		KindStatic:     i.serveStatic,
		KindBypass:     i.serveBypass,
	}
	return i, nil
}

// Generation returns the cache generation this interceptor owns.
func (i *Interceptor) Generation() string { return i.generation }

// Manifest returns the manifest the interceptor was built from.
func (i *Interceptor) Manifest() Manifest { return i.manifest }

// State returns the current lifecycle state.
func (i *Interceptor) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Controlling reports whether activation has claimed request handling.
func (i *Interceptor) Controlling() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.controlling
}

// SkipWaitingRequested reports whether immediate activation was requested.
func (i *Interceptor) SkipWaitingRequested() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.skipWaiting
}

// Stats returns a snapshot of the counters.
func (i *Interceptor) Stats() Stats {
	return Stats{
		CacheHits:       i.cacheHits.Load(),
		NetworkFetches:  i.networkFetches.Load(),
		NetworkFailures: i.networkFailures.Load(),
		Placeholders:    i.placeholders.Load(),
		Recovered:       i.recovered.Load(),
		TilesSeeded:     i.tilesSeeded.Load(),
		TileFailures:    i.tileFailures.Load(),
	}
}

func (i *Interceptor) transition(to State) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !canTransition(i.state, to) {
		return &ErrInvalidTransition{From: i.state, To: to}
	}
	i.logger.Debug("lifecycle transition", "from", i.state.String(), "to", to.String())
	i.state = to
	return nil
}

// Start installs and then sends the skip-waiting message, leaving the
// interceptor active on success.
func (i *Interceptor) Start(ctx context.Context) error {
	if err := i.Install(ctx); err != nil {
		return err
	}
	return i.HandleMessage(ctx, MessageSkipWaiting)
}

// Install pre-caches the shell and the tile allow-list. Any shell failure
// aborts the install and returns the interceptor to idle; tile failures are
// logged and counted only.
func (i *Interceptor) Install(ctx context.Context) error {
	if err := i.transition(StateInstalling); err != nil {
		return err
	}

	if err := i.installShell(ctx); err != nil {
		i.logger.Error("install aborted", logger.Error(err))
		if terr := i.transition(StateIdle); terr != nil {
			return errors.Join(err, terr)
		}
		return err
	}

	i.seedTiles(ctx)

	i.mu.Lock()
	i.skipWaiting = true
	i.mu.Unlock()

	if err := i.transition(StateActivating); err != nil {
		return err
	}
	i.logger.Info("install complete", "tiles_seeded", i.tilesSeeded.Load(), "tile_failures", i.tileFailures.Load())
	return nil
}

func (i *Interceptor) installShell(ctx context.Context) error {
	if err := i.store.Open(ctx, i.generation); err != nil {
		return fmt.Errorf("opening generation: %w", err)
	}
	for _, asset := range i.manifest.ShellAssets {
		u, err := i.manifest.Resolve(asset)
		if err != nil {
			return fmt.Errorf("shell asset %q: %w", asset, err)
		}
		if err := i.precache(ctx, u); err != nil {
			return fmt.Errorf("shell asset %s: %w", u, err)
		}
	}
	return nil
}

func (i *Interceptor) seedTiles(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.tileLimit)
	for _, u := range i.manifest.TileURLs() {
		g.Go(func() error {
			if err := i.precache(gctx, u); err != nil {
				i.tileFailures.Add(1)
				i.logger.Warn("tile pre-cache failed", logger.URL(u), logger.Error(err))
				return nil
			}
			i.tilesSeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()
}

// precache fetches u and stores it only on a 2xx answer.
func (i *Interceptor) precache(ctx context.Context, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", trailcache.UserAgent())

	resp, err := i.fetch(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	res, err := capture(resp, i.now())
	if err != nil {
		return err
	}
	return i.store.Put(ctx, i.generation, ResourceKey(u), res)
}

// HandleMessage processes a control message. MessageSkipWaiting activates
// an installed interceptor immediately; before install it is only recorded.
func (i *Interceptor) HandleMessage(ctx context.Context, msg Message) error {
	if msg != MessageSkipWaiting {
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg)
	}

	i.mu.Lock()
	i.skipWaiting = true
	ready := i.state == StateActivating
	i.mu.Unlock()

	if !ready {
		return nil
	}
	return i.Activate(ctx)
}

// Activate deletes every cache generation other than the current one,
// claims request handling and enters the active state.
func (i *Interceptor) Activate(ctx context.Context) error {
	if state := i.State(); state != StateActivating {
		return &ErrInvalidTransition{From: state, To: StateActive}
	}

	gens, err := i.store.Generations(ctx)
	if err != nil {
		i.logger.Error("listing generations failed", logger.Error(err))
	}
	for _, g := range gens {
		if g == i.generation {
			continue
		}
		if err := i.store.DeleteGeneration(ctx, g); err != nil {
			i.logger.Error("deleting stale generation failed", logger.Generation(g), logger.Error(err))
			continue
		}
		i.logger.Info("deleted stale generation", "stale", g)
	}

	if err := i.transition(StateActive); err != nil {
		return err
	}
	i.mu.Lock()
	i.controlling = true
	i.mu.Unlock()
	i.logger.Info("interceptor active")
	return nil
}

// Wait blocks until background cache writes have finished.
func (i *Interceptor) Wait() {
	i.pending.Wait()
}

// Intercept serves req. It never returns nil and never panics.
func (i *Interceptor) Intercept(req *http.Request) (resp *http.Response) {
	kind := Classify(req, i.origin, i.tileHosts)

	if i.State() != StateActive {
		return i.passThrough(req, kind)
	}

	defer func() {
		if r := recover(); r != nil {
			i.recovered.Add(1)
			i.logger.Error("strategy panicked", "kind", kind.String(), logger.URL(req.URL.String()), "panic", r)
			resp = i.passThrough(req, kind)
		}
	}()

	resp, err := i.strategies[kind](req)
	if err != nil || resp == nil {
		i.logger.Warn("strategy failed", "kind", kind.String(), logger.URL(req.URL.String()), logger.Error(err))
		return i.passThrough(req, kind)
	}
	return resp
}

// passThrough makes one unmodified network attempt and falls back to the
// placeholder for kind.
func (i *Interceptor) passThrough(req *http.Request, kind RequestKind) *http.Response {
	resp, err := i.fetch(req)
	if err != nil {
		return i.placeholder(req, kind)
	}
	return resp
}

func (i *Interceptor) fetch(req *http.Request) (*http.Response, error) {
	if i.connectivity != nil && !i.connectivity.IsOnline() {
		return nil, errOffline
	}
	i.networkFetches.Add(1)
	resp, err := i.network.RoundTrip(req)
	if err != nil {
		i.networkFailures.Add(1)
		return nil, err
	}
	return resp, nil
}

func (i *Interceptor) lookup(req *http.Request) (CachedResource, bool, error) {
	return i.store.Get(req.Context(), i.generation, ResourceKey(req.URL.String()))
}

func (i *Interceptor) serveTile(req *http.Request) (*http.Response, error) {
	cached, ok, err := i.lookup(req)
	if err != nil {
		return nil, err
	}
	if ok {
		i.cacheHits.Add(1)
		return cached.Response(req), nil
	}

	resp, err := i.fetch(req)
	if err != nil {
		return i.placeholder(req, KindTile), nil
	}
	if !cacheable(req, resp) {
		return resp, nil
	}
	res, err := capture(resp, i.now())
	if err != nil {
		return i.placeholder(req, KindTile), nil
	}
	if err := i.store.Put(req.Context(), i.generation, ResourceKey(req.URL.String()), res); err != nil {
		i.logger.Warn("tile store failed", logger.URL(req.URL.String()), logger.Error(err))
	}
	return resp, nil
}

func (i *Interceptor) serveNavigation(req *http.Request) (*http.Response, error) {
	resp, err := i.fetch(req)
	if err == nil {
		return resp, nil
	}
	return i.placeholder(req, KindNavigation), nil
}

func (i *Interceptor) serveStatic(req *http.Request) (*http.Response, error) {
	cached, ok, err := i.lookup(req)
	if err != nil {
		return nil, err
	}
	if ok {
		i.cacheHits.Add(1)
		return cached.Response(req), nil
	}

	resp, err := i.fetch(req)
	if err != nil {
		return i.placeholder(req, KindStatic), nil
	}
	if !cacheable(req, resp) {
		return resp, nil
	}
	res, err := capture(resp, i.now())
	if err != nil {
		return i.placeholder(req, KindStatic), nil
	}

	key := ResourceKey(req.URL.String())
	ctx := context.WithoutCancel(req.Context())
	i.pending.Add(1)
	go func() {
		defer i.pending.Done()
		if err := i.store.Put(ctx, i.generation, key, res); err != nil {
			i.logger.Warn("static store failed", logger.URL(key), logger.Error(err))
		}
	}()
	return resp, nil
}

func (i *Interceptor) serveBypass(req *http.Request) (*http.Response, error) {
	return i.passThrough(req, KindBypass), nil
}

// placeholder builds the offline answer for a request kind.
func (i *Interceptor) placeholder(req *http.Request, kind RequestKind) *http.Response {
	i.placeholders.Add(1)

	switch kind {
	case KindTile:
		return syntheticResponse(req, http.StatusNotFound, nil, nil)
	case KindNavigation:
		if res, ok := i.cachedAsset(req, i.manifest.ShellEntry); ok {
			return res.Response(req)
		}
	case KindStatic:
		if isImageRequest(req) && i.manifest.FallbackImage != "" {
			if res, ok := i.cachedAsset(req, i.manifest.FallbackImage); ok {
				return res.Response(req)
			}
		}
	}
	return offlineResponse(req)
}

func (i *Interceptor) cachedAsset(req *http.Request, ref string) (res CachedResource, ok bool) {
	// Runs on the recovery path, so a misbehaving store must not escape.
	defer func() {
		if r := recover(); r != nil {
			res, ok = CachedResource{}, false
		}
	}()

	u, err := i.manifest.Resolve(ref)
	if err != nil {
		return CachedResource{}, false
	}
	res, ok, err = i.store.Get(req.Context(), i.generation, ResourceKey(u))
	if err != nil || !ok {
		return CachedResource{}, false
	}
	return res, true
}

func offlineResponse(req *http.Request) *http.Response {
	header := make(http.Header)
	header.Set(HeaderOffline, "1")
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Cache-Control", "no-store")
	return syntheticResponse(req, http.StatusServiceUnavailable, header, []byte("offline"))
}
