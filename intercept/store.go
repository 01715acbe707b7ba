package intercept

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// CachedResource is a stored GET response.
type CachedResource struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// ResourceStore holds cached responses grouped by cache generation.
// Put overwrites an existing entry.
type ResourceStore interface {
	Open(ctx context.Context, generation string) error
	Get(ctx context.Context, generation, key string) (CachedResource, bool, error)
	Put(ctx context.Context, generation, key string, res CachedResource) error
	Generations(ctx context.Context) ([]string, error)
	DeleteGeneration(ctx context.Context, generation string) error
}

// ResourceKey is the cache identity of a request. Only GET is cached, so
// the method is fixed.
func ResourceKey(rawURL string) string {
	return http.MethodGet + " " + rawURL
}

// HeaderSource marks responses served from the cache.
const HeaderSource = "X-Trailcache-Source"

// HeaderOffline marks synthesized offline responses.
const HeaderOffline = "X-Trailcache-Offline"

// Response rebuilds an *http.Response for req.
func (c CachedResource) Response(req *http.Request) *http.Response {
	header := c.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set(HeaderSource, "cache")
	header.Set("Content-Length", strconv.Itoa(len(c.Body)))
	return &http.Response{
		Status:        strconv.Itoa(c.Status) + " " + http.StatusText(c.Status),
		StatusCode:    c.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(c.Body)),
		ContentLength: int64(len(c.Body)),
		Request:       req,
	}
}

// capture drains resp into a CachedResource and replaces its body so the
// caller can still read it.
func capture(resp *http.Response, now time.Time) (CachedResource, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return CachedResource{}, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return CachedResource{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: now,
	}, nil
}

func syntheticResponse(req *http.Request, status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// cacheable reports whether resp may be stored under req's URL. Partial
// content would be replayed to later full requests, so it never is.
func cacheable(req *http.Request, resp *http.Response) bool {
	return isSuccess(resp.StatusCode) &&
		resp.StatusCode != http.StatusPartialContent &&
		req.Header.Get("Range") == ""
}
