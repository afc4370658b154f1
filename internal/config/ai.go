package config

import (
	"os"
	"strings"
	"time"
)

// Supported AI providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// AIModels defines which models to use for different tasks
type AIModels struct {
	// Evaluate is for per-answer clarification checks (sits on the respondent's turn, needs to be fast)
	Evaluate string `json:"evaluate" yaml:"evaluate"`

	// Summary is for post-session summarization (runs in the background)
	Summary string `json:"summary" yaml:"summary"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	Provider  string   `json:"provider" yaml:"provider"`
	APIKey    string   `json:"-" yaml:"apiKey"` // Never serialize
	BaseURL   string   `json:"baseUrl" yaml:"baseUrl"`
	Models    AIModels `json:"models" yaml:"models"`
	TimeoutMS int      `json:"timeoutMs" yaml:"timeoutMs"`
}

// DefaultAIConfig returns the AI configuration taken from the environment
func DefaultAIConfig() *AIConfig {
	cfg := overlayAIEnv(AIConfig{})
	return &cfg
}

// overlayAIEnv fills unset fields with provider defaults and lets the
// environment override everything.
func overlayAIEnv(base AIConfig) AIConfig {
	out := base
	out.Provider = strings.ToLower(getEnvOrDefault("AI_PROVIDER", out.Provider))
	if out.Provider == "" {
		out.Provider = ProviderOpenAI
	}

	out.APIKey = getEnvOrDefault("AI_API_KEY", out.APIKey)
	if out.APIKey == "" {
		out.APIKey = providerKeyFromEnv(out.Provider)
	}
	out.BaseURL = getEnvOrDefault("AI_BASE_URL", out.BaseURL)

	evalModel, summaryModel := defaultModels(out.Provider)
	if out.Models.Evaluate == "" {
		out.Models.Evaluate = evalModel
	}
	if out.Models.Summary == "" {
		out.Models.Summary = summaryModel
	}
	out.Models.Evaluate = getEnvOrDefault("AI_MODEL_EVALUATE", out.Models.Evaluate)
	out.Models.Summary = getEnvOrDefault("AI_MODEL_SUMMARY", out.Models.Summary)

	out.TimeoutMS = envInt("AI_TIMEOUT_MS", out.TimeoutMS)
	if out.TimeoutMS <= 0 {
		out.TimeoutMS = 10000 // 10 second default timeout
	}
	return out
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c != nil && c.APIKey != ""
}

// Timeout bounds a single AI call
func (c *AIConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ModelEndpoint returns the Gemini generateContent endpoint for a model
func (c *AIConfig) ModelEndpoint(model string) string {
	base := c.BaseURL
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	return strings.TrimRight(base, "/") + "/" + model + ":generateContent"
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

func defaultModels(provider string) (evaluate, summary string) {
	switch provider {
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest", "claude-sonnet-4-5"
	case ProviderGemini:
		return "gemini-2.5-flash", "gemini-2.0-flash"
	default:
		return "gpt-4o-mini", "gpt-4o"
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
