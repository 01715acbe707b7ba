package intercept

import (
	"net/http"
	"net/http/httputil"
)

// Transport adapts an Interceptor to http.RoundTripper so any http.Client
// can fetch through it. RoundTrip never returns an error.
type Transport struct {
	Interceptor *Interceptor
}

// RoundTrip serves req through the interceptor.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.Interceptor.Intercept(req), nil
}

// Client returns an http.Client that routes through the interceptor.
func (i *Interceptor) Client() *http.Client {
	return &http.Client{Transport: &Transport{Interceptor: i}}
}

// Handler returns an http.Handler that reverse-proxies browser requests to
// the manifest origin through the interceptor. Network failures reach the
// browser as the interceptor's placeholders, never as a proxy 502.
func (i *Interceptor) Handler() http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(i.origin)
			pr.Out.Host = i.origin.Host
		},
		Transport: &Transport{Interceptor: i},
	}
}
