package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"lumora/internal/domain"
)

var _ LLMClient = (*GeminiClient)(nil)

// GeminiClient implementa LLMClient con el SDK oficial de Gemini.
// Cada turno crea un chat efimero con el historial de la sesion, asi el cliente no guarda estado por sesion.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, baseURL, model string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: c, model: model}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	chat, err := g.client.Chats.Create(ctx, g.model, toGenAIConfig(req.Config), toGenAIHistory(req.History))
	if err != nil {
		return "", fmt.Errorf("gemini create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: req.Prompt})
	if err != nil {
		return "", fmt.Errorf("gemini send message: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func toGenAIConfig(cfg domain.GenerationConfig) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{}
	if cfg.Temperature > 0 {
		out.Temperature = genai.Ptr(cfg.Temperature)
	}
	if cfg.TopK > 0 {
		out.TopK = genai.Ptr(float32(cfg.TopK))
	}
	if cfg.TopP > 0 {
		out.TopP = genai.Ptr(cfg.TopP)
	}
	if cfg.MaxOutputTokens > 0 {
		out.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}
	return out
}

// Los mensajes del asistente se mapean al rol model de Gemini.
func toGenAIHistory(msgs []domain.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := string(genai.RoleUser)
		if m.Sender == domain.SenderAssistant {
			role = string(genai.RoleModel)
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Text}},
		})
	}
	return out
}
