package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"lumora/internal/domain"
	"lumora/internal/repository"
)

var ErrTranscriptUnavailable = errors.New("transcript archive not configured")

// TranscriptService lee el archivo de conversaciones, que sobrevive a Discard y a reinicios del proceso.
type TranscriptService struct {
	messageRepo repository.MessageRepository
}

func NewTranscriptService(messageRepo repository.MessageRepository) *TranscriptService {
	return &TranscriptService{messageRepo: messageRepo}
}

// Transcript devuelve los ultimos limit mensajes archivados en orden de conversacion. limit <= 0 devuelve todos.
func (s *TranscriptService) Transcript(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if s == nil || s.messageRepo == nil {
		return nil, ErrTranscriptUnavailable
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil
	}

	messages, err := s.messageRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return recentMessages(messages, limit), nil
}

// FormatTranscript arma una vista de texto plano, una linea por mensaje.
func FormatTranscript(messages []domain.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		role := "User"
		if m.Sender == domain.SenderAssistant {
			role = "Lumora"
		}
		text := m.Text
		if m.Safety != nil {
			text = m.Safety.Acknowledgment
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, text))
	}
	return strings.Join(lines, "\n")
}

func recentMessages(messages []domain.Message, limit int) []domain.Message {
	if limit > 0 && len(messages) > limit {
		return messages[len(messages)-limit:]
	}
	return messages
}
