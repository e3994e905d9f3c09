package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"lumora/internal/domain"
)

const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	DatabaseURL string `env:"DATABASE_URL"`

	LLMProvider string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey   string        `env:"LLM_API_KEY"`
	LLMBaseURL  string        `env:"LLM_BASE_URL"`
	LLMModel    string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	OfflineSeed int64         `env:"OFFLINE_SEED" envDefault:"0"`

	GenTemperature     float32 `env:"GEN_TEMPERATURE" envDefault:"0.9"`
	GenTopK            int     `env:"GEN_TOP_K" envDefault:"40"`
	GenTopP            float32 `env:"GEN_TOP_P" envDefault:"1"`
	GenMaxOutputTokens int     `env:"GEN_MAX_OUTPUT_TOKENS" envDefault:"2048"`
	GenHistoryLimit    int     `env:"GEN_HISTORY_LIMIT" envDefault:"20"`

	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	SubmitRateWindow time.Duration `env:"SUBMIT_RATE_WINDOW" envDefault:"1m"`
	SubmitRateMax    int           `env:"SUBMIT_RATE_MAX" envDefault:"20"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
		if strings.TrimSpace(c.LLMAPIKey) == "" {
			return fmt.Errorf("LLM_API_KEY is required for provider %q", c.LLMProvider)
		}
	case ProviderOffline:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout)
	}
	if c.GenTemperature < 0 || c.GenTopP < 0 || c.GenTopP > 1 || c.GenTopK < 0 || c.GenMaxOutputTokens < 0 || c.GenHistoryLimit < 0 {
		return fmt.Errorf("invalid generation config")
	}
	return nil
}

// IsDevelopment indica si se debe usar el logger de desarrollo.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "dev" || env == "development" || env == "local"
}

// GenerationConfig arma la configuracion por defecto de las sesiones.
func (c *Config) GenerationConfig() domain.GenerationConfig {
	return domain.GenerationConfig{
		Temperature:     c.GenTemperature,
		TopK:            c.GenTopK,
		TopP:            c.GenTopP,
		MaxOutputTokens: c.GenMaxOutputTokens,
	}
}
