package intercept

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const testOrigin = "https://app.test"

func testManifest() Manifest {
	return Manifest{
		Generation:    "test-v2",
		Origin:        testOrigin,
		ShellAssets:   []string{"/index.html", "/assets/app.js", "/icons/offline.svg"},
		ShellEntry:    "/index.html",
		FallbackImage: "/icons/offline.svg",
		TileTemplate:  "https://tiles.test/{z}/{x}/{y}.png",
		TileHosts:     []string{"tiles.test"},
		Regions: []Region{
			{Name: "test", Tiles: []Tile{{Z: 10, X: 920, Y: 510}, {Z: 10, X: 921, Y: 510}}},
		},
	}
}

const tileURL = "https://tiles.test/10/920/510.png"

type fakeRoute struct {
	status      int
	body        string
	contentType string
	err         error
}

// fakeNetwork is a scripted RoundTripper that counts calls per URL.
type fakeNetwork struct {
	mu     sync.Mutex
	routes map[string]fakeRoute
	calls  map[string]int
	down   bool
	total  atomic.Int64
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		routes: make(map[string]fakeRoute),
		calls:  make(map[string]int),
	}
}

// newShellNetwork serves every asset and tile in testManifest.
func newShellNetwork() *fakeNetwork {
	n := newFakeNetwork()
	n.set(testOrigin+"/index.html", 200, "<html>shell</html>", "text/html")
	n.set(testOrigin+"/assets/app.js", 200, "console.log('app')", "text/javascript")
	n.set(testOrigin+"/icons/offline.svg", 200, "<svg/>", "image/svg+xml")
	n.set("https://tiles.test/10/920/510.png", 200, "PNG-920", "image/png")
	n.set("https://tiles.test/10/921/510.png", 200, "PNG-921", "image/png")
	return n
}

func (n *fakeNetwork) set(url string, status int, body, contentType string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes[url] = fakeRoute{status: status, body: body, contentType: contentType}
}

func (n *fakeNetwork) fail(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes[url] = fakeRoute{err: errors.New("connection reset")}
}

func (n *fakeNetwork) setDown(down bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.down = down
}

func (n *fakeNetwork) count(url string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[url]
}

func (n *fakeNetwork) RoundTrip(req *http.Request) (*http.Response, error) {
	n.total.Add(1)
	url := req.URL.String()

	n.mu.Lock()
	n.calls[url]++
	route, ok := n.routes[url]
	down := n.down
	n.mu.Unlock()

	if down {
		return nil, errors.New("network unreachable")
	}
	if !ok {
		route = fakeRoute{status: http.StatusNotFound, body: "not found"}
	}
	if route.err != nil {
		return nil, route.err
	}
	header := make(http.Header)
	if route.contentType != "" {
		header.Set("Content-Type", route.contentType)
	}
	return &http.Response{
		StatusCode: route.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(route.body)),
		Request:    req,
	}, nil
}

type staticConnectivity struct {
	online atomic.Bool
}

func newConnectivity(online bool) *staticConnectivity {
	c := &staticConnectivity{}
	c.online.Store(online)
	return c
}

func (c *staticConnectivity) IsOnline() bool { return c.online.Load() }

func newTestInterceptor(t *testing.T, network http.RoundTripper, opts ...Option) *Interceptor {
	t.Helper()
	opts = append([]Option{WithNetwork(network)}, opts...)
	i, err := New(testManifest(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return i
}

func newActiveInterceptor(t *testing.T, network *fakeNetwork, opts ...Option) *Interceptor {
	t.Helper()
	i := newTestInterceptor(t, network, opts...)
	if err := i.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return i
}

func getRequest(t *testing.T, url string, headers map[string]string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}

// panicStore panics on every lookup.
type panicStore struct{ *MemoryStore }

func (panicStore) Get(ctx context.Context, generation, key string) (CachedResource, bool, error) {
	panic("store exploded")
}

// failingStore fails every lookup after install.
type failingStore struct {
	*MemoryStore
	failGets atomic.Bool
}

func (s *failingStore) Get(ctx context.Context, generation, key string) (CachedResource, bool, error) {
	if s.failGets.Load() {
		return CachedResource{}, false, errors.New("disk I/O error")
	}
	return s.MemoryStore.Get(ctx, generation, key)
}
