// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	CCC      CCCConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Grading  GradingConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DataConfig points at the two dataset files.
type DataConfig struct {
	CurriculumPath string
	ContentPath    string
	Watch          bool
}

// CCCConfig holds settings for the remote content API.
type CCCConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL disables
// persistence of grading results.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// enrichment result cache.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI     ProviderConfig
	Anthropic  ProviderConfig
	DeepSeek   ProviderConfig
	OpenRouter ProviderConfig
	Ollama     OllamaConfig
}

// ProviderConfig holds a hosted provider's credentials and model.
type ProviderConfig struct {
	APIKey string
	Model  string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
	Model   string
}

// GradingConfig holds settings for question grading.
type GradingConfig struct {
	Concurrency  int
	TokenBudget  int64
	CriteriaPath string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("LEARN_SERVER_PORT", 8080),
			Host: envStr("LEARN_SERVER_HOST", "0.0.0.0"),
		},
		Data: DataConfig{
			CurriculumPath: envStr("LEARN_DATA_CURRICULUM_PATH", "./curriculum_structure.json"),
			ContentPath:    envStr("LEARN_DATA_CONTENT_PATH", "./ccc_structure.json"),
			Watch:          envBool("LEARN_DATA_WATCH", false),
		},
		CCC: CCCConfig{
			BaseURL: envStr("LEARN_CCC_BASE_URL", "https://commoncrawl.alpha1edtech.com"),
			Timeout: envDuration("LEARN_CCC_TIMEOUT", 8*time.Second),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("LEARN_CACHE_URL", ""),
			TTL: envDuration("LEARN_CACHE_TTL", 10*time.Minute),
		},
		AI: AIConfig{
			OpenAI: ProviderConfig{
				APIKey: envStr("LEARN_AI_OPENAI_API_KEY", ""),
				Model:  envStr("LEARN_AI_OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: ProviderConfig{
				APIKey: envStr("LEARN_AI_ANTHROPIC_API_KEY", ""),
				Model:  envStr("LEARN_AI_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
			},
			DeepSeek: ProviderConfig{
				APIKey: envStr("LEARN_AI_DEEPSEEK_API_KEY", ""),
				Model:  envStr("LEARN_AI_DEEPSEEK_MODEL", "deepseek-chat"),
			},
			OpenRouter: ProviderConfig{
				APIKey: envStr("LEARN_AI_OPENROUTER_API_KEY", ""),
				Model:  envStr("LEARN_AI_OPENROUTER_MODEL", "openai/gpt-4o-mini"),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("LEARN_AI_OLLAMA_ENABLED", false),
				URL:     envStr("LEARN_AI_OLLAMA_URL", "http://localhost:11434"),
				Model:   envStr("LEARN_AI_OLLAMA_MODEL", "llama3:8b"),
			},
		},
		Grading: GradingConfig{
			Concurrency:  envInt("LEARN_GRADING_CONCURRENCY", 4),
			TokenBudget:  int64(envInt("LEARN_GRADING_TOKEN_BUDGET", 0)),
			CriteriaPath: envStr("LEARN_GRADING_CRITERIA_PATH", ""),
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. No external service is
// required: the dashboard runs on the two data files alone.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("LEARN_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Data.CurriculumPath == "" || c.Data.ContentPath == "" {
		return fmt.Errorf("LEARN_DATA_CURRICULUM_PATH and LEARN_DATA_CONTENT_PATH must not be empty")
	}

	u, err := url.Parse(c.CCC.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("LEARN_CCC_BASE_URL must be an absolute URL, got %q", c.CCC.BaseURL)
	}

	if c.CCC.Timeout <= 0 {
		return fmt.Errorf("LEARN_CCC_TIMEOUT must be positive, got %s", c.CCC.Timeout)
	}

	if c.Grading.Concurrency < 1 {
		return fmt.Errorf("LEARN_GRADING_CONCURRENCY must be at least 1, got %d", c.Grading.Concurrency)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envDuration accepts Go duration strings ("8s", "10m") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
