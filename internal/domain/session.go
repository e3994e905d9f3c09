package domain

import "time"

// SessionState modela el turno de la conversacion.
type SessionState string

const (
	SessionIdle             SessionState = "idle"
	SessionAwaitingResponse SessionState = "awaiting_response"
)

// GenerationConfig se pasa tal cual al servicio de generacion.
type GenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopK            int     `json:"top_k"`
	TopP            float32 `json:"top_p"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// ChatSession es una vista de solo lectura del estado de una conversacion.
type ChatSession struct {
	ID        string           `json:"id"`
	State     SessionState     `json:"state"`
	Config    GenerationConfig `json:"config"`
	Messages  []Message        `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
}
