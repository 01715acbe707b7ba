package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZaguanLabs/trailcache"
)

// DefaultRESTBaseURL is the public MyMemory endpoint.
const DefaultRESTBaseURL = "https://api.mymemory.translated.net"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// RESTConfig holds configuration for the REST provider.
type RESTConfig struct {
	BaseURL    string        // Service base URL (default: DefaultRESTBaseURL)
	Email      string        // Optional contact address, raises the free quota
	Timeout    time.Duration // Per-request timeout (default: 10s)
	HTTPClient *http.Client  // Overrides the default client
}

// RESTProvider talks to a MyMemory-compatible translation endpoint:
//
//	GET {base}/get?q=<text>&langpair=<from>|<to>
//
// One request is issued per text.
type RESTProvider struct {
	baseURL string
	email   string
	client  *http.Client
}

type restResponse struct {
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
	ResponseData    struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

// NewRESTProvider creates a REST provider.
func NewRESTProvider(cfg RESTConfig) *RESTProvider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultRESTBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &RESTProvider{
		baseURL: base,
		email:   cfg.Email,
		client:  client,
	}
}

// Translate translates each text in order. The first failure aborts the batch.
func (p *RESTProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	results := make([]string, 0, len(req.Texts))
	for _, text := range req.Texts {
		translated, err := p.translateOne(ctx, text, req.SourceLang, req.TargetLang)
		if err != nil {
			return nil, err
		}
		results = append(results, translated)
	}
	return results, nil
}

func (p *RESTProvider) translateOne(ctx context.Context, text, from, to string) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", trailcache.BaseLang(from)+"|"+trailcache.BaseLang(to))
	if p.email != "" {
		q.Set("de", p.email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", &trailcache.ProviderError{Message: "building request", Cause: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", trailcache.UserAgent())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &trailcache.ProviderError{
			Message:   "request failed",
			Cause:     err,
			Retryable: ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &trailcache.ProviderError{
			Message:    fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var payload restResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &trailcache.ProviderError{Message: "malformed response", Cause: err}
	}

	// The service reports quota and validation failures in-band.
	if status, err := payload.ResponseStatus.Int64(); err == nil && (status < 200 || status > 299) {
		return "", &trailcache.ProviderError{
			Message:    fmt.Sprintf("service status %d: %s", status, payload.ResponseDetails),
			StatusCode: int(status),
			Retryable:  status == http.StatusTooManyRequests || status >= 500,
		}
	}

	translated := payload.ResponseData.TranslatedText
	if strings.TrimSpace(translated) == "" {
		return "", &trailcache.ProviderError{Message: "empty translation"}
	}
	return translated, nil
}

var _ Provider = (*RESTProvider)(nil)
