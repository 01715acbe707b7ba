package intercept

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// RequestKind selects the caching strategy for a request.
type RequestKind int

const (
	// KindBypass requests go straight to the network and are never cached.
	KindBypass RequestKind = iota
	// KindTile requests target an allow-listed map tile host.
	KindTile
	// KindNavigation requests load a page.
	KindNavigation
	// KindStatic requests are same-origin assets.
	KindStatic
)

func (k RequestKind) String() string {
	switch k {
	case KindTile:
		return "tile"
	case KindNavigation:
		return "navigation"
	case KindStatic:
		return "static"
	default:
		return "bypass"
	}
}

// Classify decides how a request is served. It looks only at the request
// method, URL and fetch metadata headers.
func Classify(req *http.Request, origin *url.URL, tileHosts map[string]bool) RequestKind {
	if req.Method != http.MethodGet && req.Method != "" {
		return KindBypass
	}
	if req.URL == nil {
		return KindBypass
	}
	if tileHosts[strings.ToLower(req.URL.Hostname())] {
		return KindTile
	}
	if isNavigation(req) {
		return KindNavigation
	}
	if sameOrigin(req.URL, origin) {
		return KindStatic
	}
	return KindBypass
}

func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	if !strings.Contains(req.Header.Get("Accept"), "text/html") {
		return false
	}
	switch req.Header.Get("Sec-Fetch-Dest") {
	case "", "document", "empty":
		return true
	}
	return false
}

func sameOrigin(u, origin *url.URL) bool {
	if origin == nil {
		return false
	}
	return strings.EqualFold(u.Scheme, origin.Scheme) && strings.EqualFold(u.Host, origin.Host)
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".ico": true, ".avif": true,
}

// isImageRequest reports whether the caller expects an image back.
func isImageRequest(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Dest") == "image" {
		return true
	}
	if strings.HasPrefix(req.Header.Get("Accept"), "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(path.Ext(req.URL.Path))]
}
