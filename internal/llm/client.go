// Package llm provides language-model client interfaces and implementations.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable signals that no generation could be produced: the provider
// is not configured, the call failed, or it timed out. Callers absorb it by
// falling back to the deterministic responder; it is never surfaced.
var ErrUnavailable = errors.New("llm: generation unavailable")

// CompletionRequest represents a single-prompt completion request.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	TopK        int
	TopP        float64
	MaxTokens   int

	// Safety applies content-safety thresholds on providers that support
	// them (harassment, hate, sexual, dangerous at block-medium-and-above).
	Safety bool
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content   string
	Model     string
	LatencyMs int64
}

// Client is the interface for model providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of model provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewClient creates a new model client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	default:
		return NewGeminiClient(apiKey)
	}
}
