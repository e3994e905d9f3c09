package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"lumora/internal/config"
	"lumora/internal/llm"
)

// NewLogger elige el logger de zap segun el entorno.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewLLMClient construye el generador configurado en LLM_PROVIDER.
func NewLLMClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.LLMClient, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger), nil
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	case config.ProviderOffline:
		seed := cfg.OfflineSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return llm.NewRuleBasedClient(rand.New(rand.NewSource(seed))), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
