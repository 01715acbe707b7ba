package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ZaguanLabs/trailcache"
)

// OpenAIProvider implements Provider using an OpenAI-compatible chat API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates a batch of texts in one chat completion.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		status := statusCode(err)
		return nil, &trailcache.ProviderError{
			Message:    "OpenAI API call failed",
			Cause:      err,
			StatusCode: status,
			Retryable:  ctx.Err() == nil && (status == 0 || status == http.StatusTooManyRequests || status >= 500),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &trailcache.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content, len(req.Texts))
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}
	sourceName := trailcache.GetLanguageName(sourceLang)
	targetName := trailcache.GetLanguageName(req.TargetLang)

	return fmt.Sprintf(`# Role
You translate short user-interface strings for a trekking and travel app from %s to %s.

# Style Guide
- Keep it short and plain. Strings are buttons, labels and safety notices read on a phone on the trail.
- Use the everyday words a local guide or tea-house owner would use.
- Do NOT translate URLs, email addresses, numbers or placeholders (e.g., {{name}}, {count}, %%s).
- Preserve leading and trailing whitespace.

# Format
Return a valid JSON object with a single key "translations" containing an array of strings in the exact same order as the input.
Example: { "translations": ["translated string 1", "translated string 2"] }
- Do NOT wrap in Markdown code blocks.`, sourceName, targetName)
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	data, _ := json.Marshal(req.Texts)
	return string(data)
}

func (p *OpenAIProvider) parseResponse(content string, expectedCount int) ([]string, error) {
	var objResult map[string]interface{}
	if err := json.Unmarshal([]byte(content), &objResult); err == nil {
		if translations, ok := objResult["translations"]; ok {
			if arr, ok := translations.([]interface{}); ok {
				return toStringSlice(arr, expectedCount)
			}
		}

		// Some models pick their own key.
		for _, v := range objResult {
			if arr, ok := v.([]interface{}); ok {
				return toStringSlice(arr, expectedCount)
			}
		}
	}

	var arrResult []interface{}
	if err := json.Unmarshal([]byte(content), &arrResult); err == nil {
		return toStringSlice(arrResult, expectedCount)
	}

	return nil, &trailcache.ProviderError{
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

func toStringSlice(arr []interface{}, expectedCount int) ([]string, error) {
	if len(arr) != expectedCount {
		return nil, &trailcache.CountMismatchError{
			Expected: expectedCount,
			Got:      len(arr),
		}
	}

	result := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, &trailcache.ProviderError{
				Message: fmt.Sprintf("translation %d is %T, not a string", i, v),
			}
		}
		result[i] = s
	}
	return result, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	if strings.Contains(strings.ToLower(err.Error()), "rate limit") {
		return http.StatusTooManyRequests
	}
	return 0
}

var _ Provider = (*OpenAIProvider)(nil)
