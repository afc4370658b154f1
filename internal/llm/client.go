// Package llm wraps the hosted text-generation providers behind one
// request/response shape. Every call returns raw JSON text; callers decode
// it with DecodeJSON and fall back to rule-based logic on any error.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fydbak/internal/config"
)

// ErrEmptyResponse is returned when a provider answers without text
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is a single structured-output completion
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature float64

	// SchemaName and Schema describe the expected JSON object.
	// Providers without native schema support get it appended to the system prompt.
	SchemaName string
	Schema     map[string]any
}

// Client completes a request and returns the model's JSON text
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the client for the configured provider
func New(cfg *config.AIConfig) (Client, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("llm: missing provider api key")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	case config.ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	case config.ProviderGemini:
		return newGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
