package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"

	"fydbak/internal/config"
)

const anthropicDefaultMaxTokens = 1024

type anthropicClient struct {
	client anthropic.Client
}

func newAnthropicClient(cfg *config.AIConfig) *anthropicClient {
	opts := []aoption.RequestOption{
		aoption.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		aoption.WithRequestTimeout(cfg.Timeout()),
		aoption.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, aoption.WithBaseURL(base))
	}
	return &anthropicClient{client: anthropic.NewClient(opts...)}
}

// Complete sends a single user turn; the schema rides along in the system prompt
func (c *anthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(strings.TrimSpace(req.Model)),
		MaxTokens:   anthropicDefaultMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = req.MaxTokens
	}
	if system := withSchemaHint(req); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
