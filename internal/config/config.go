package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration
type Config struct {
	Port               string   `yaml:"port"`
	MongoURI           string   `yaml:"mongoUri"`
	MongoDB            string   `yaml:"mongoDb"`
	RedisURI           string   `yaml:"redisUri"`
	JWTSecret          string   `yaml:"jwtSecret"`
	LogLevel           string   `yaml:"logLevel"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`

	SummaryWorkers  int    `yaml:"summaryWorkers"`
	SummaryQueueKey string `yaml:"summaryQueueKey"`

	// Sessions idle for longer than this are marked abandoned by the sweeper
	SessionIdleTimeout   time.Duration `yaml:"sessionIdleTimeout"`
	AbandonSweepInterval time.Duration `yaml:"abandonSweepInterval"`

	AI AIConfig `yaml:"ai"`
}

// Load builds the config from defaults, an optional YAML file named by
// FYDBAK_CONFIG, and the environment. Environment variables win.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 "8080",
		MongoURI:             "mongodb://localhost:27017",
		MongoDB:              "fydbak",
		RedisURI:             "localhost:6379",
		JWTSecret:            "super-secret-key-change-in-production",
		LogLevel:             "info",
		CORSAllowedOrigins:   []string{"*"},
		SummaryWorkers:       2,
		SummaryQueueKey:      "queue:summaries",
		SessionIdleTimeout:   24 * time.Hour,
		AbandonSweepInterval: 5 * time.Minute,
	}

	if path := os.Getenv("FYDBAK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = envStr("PORT", cfg.Port)
	cfg.MongoURI = envStr("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = envStr("MONGO_DB", cfg.MongoDB)
	cfg.RedisURI = strings.TrimPrefix(envStr("REDIS_URI", cfg.RedisURI), "redis://")
	cfg.JWTSecret = envStr("JWT_SECRET", cfg.JWTSecret)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	cfg.SummaryWorkers = envInt("SUMMARY_WORKERS", cfg.SummaryWorkers)
	cfg.SummaryQueueKey = envStr("SUMMARY_QUEUE_KEY", cfg.SummaryQueueKey)
	cfg.SessionIdleTimeout = envDuration("SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)
	cfg.AbandonSweepInterval = envDuration("ABANDON_SWEEP_INTERVAL", cfg.AbandonSweepInterval)

	cfg.AI = overlayAIEnv(cfg.AI)

	if cfg.SummaryWorkers < 1 {
		return nil, fmt.Errorf("SUMMARY_WORKERS must be at least 1, got %d", cfg.SummaryWorkers)
	}
	switch cfg.AI.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.AI.Provider)
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
