package domain

import "time"

// Sender identifica quien emitio un mensaje dentro de la conversacion.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message es inmutable una vez agregado al historial de una sesion.
// Las respuestas de crisis llevan el payload estructurado en Safety; Text contiene su version en texto plano.
type Message struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Sender    Sender          `json:"sender"`
	Text      string          `json:"text"`
	Safety    *SafetyResponse `json:"safety,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsSafetyResponse indica si el mensaje es la respuesta estatica de crisis.
func (m Message) IsSafetyResponse() bool {
	return m.Safety != nil
}
