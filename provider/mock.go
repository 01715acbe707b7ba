package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is an offline provider for tests and demos. Unknown texts
// come back bracketed so they are easy to spot.
type MockProvider struct {
	Translations map[string]string // Map of source text to translation
	Err          error             // Returned from every call when set

	mu          sync.Mutex
	callCount   int
	lastRequest *TranslateRequest
}

// NewMockProvider creates a new mock provider with a few Nepali phrases.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":       "नमस्ते",
			"Thank you":   "धन्यवाद",
			"Water":       "पानी",
			"Trail":       "पदमार्ग",
			"I need help": "मलाई मद्दत चाहिन्छ",
		},
	}
}

// Translate returns mock translations.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translation, ok := m.Translations[text]; ok {
			results[i] = translation
		} else {
			results[i] = fmt.Sprintf("[%s]", text)
		}
	}

	return results, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

var _ Provider = (*MockProvider)(nil)
