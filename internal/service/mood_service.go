package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lumora/internal/domain"
	"lumora/internal/repository"
)

var (
	ErrMoodServiceNotConfigured = errors.New("mood service not configured")
	ErrMoodInvalidInput         = errors.New("mood invalid input")
)

const maxMoodNoteLength = 4000

// moodReflections se indexa por valor de animo - 1.
var moodReflections = [...]string{
	"I notice you're feeling quite low today. Remember, it's okay to have difficult days. Consider trying a breathing exercise or reaching out to someone you trust.",
	"It sounds like you're going through a tough time. Your feelings are valid. Would you like to try some grounding techniques to help you feel more centered?",
	"Thank you for sharing how you're feeling. Acknowledging your emotions is a healthy step. Let's explore some gentle ways to support your wellbeing today.",
	"It's wonderful that you're feeling positive today! These good moments are important to celebrate. What's contributing to your happiness?",
	"I'm so glad to see you're feeling great! Your positive energy is beautiful. Consider journaling about what's making you feel this way to remember for tougher days.",
}

// MoodReflection devuelve el mensaje de acompanamiento para un valor de animo, o "" si esta fuera de escala.
func MoodReflection(mood int) string {
	if !domain.ValidMood(mood) {
		return ""
	}
	return moodReflections[mood-domain.MoodMin]
}

// MoodService registra check-ins de animo y calcula rachas sobre el store externo.
type MoodService struct {
	repo   repository.MoodRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewMoodService(repo repository.MoodRepository, logger *zap.Logger) *MoodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoodService{repo: repo, logger: logger, now: time.Now}
}

// Log valida y persiste un registro de animo.
func (s *MoodService) Log(ctx context.Context, entry domain.MoodEntry) (domain.MoodEntry, error) {
	if s == nil || s.repo == nil {
		return domain.MoodEntry{}, ErrMoodServiceNotConfigured
	}

	entry.UserID = strings.TrimSpace(entry.UserID)
	entry.Note = strings.TrimSpace(entry.Note)
	if entry.UserID == "" || !domain.ValidMood(entry.Mood) || len(entry.Note) > maxMoodNoteLength {
		return domain.MoodEntry{}, ErrMoodInvalidInput
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return domain.MoodEntry{}, fmt.Errorf("create mood entry: %w", err)
	}
	return entry, nil
}

// Streak consulta los registros del usuario y calcula la racha relativa a now.
// Un error del store no se propaga: se reporta como "sin datos" (Available=false).
func (s *MoodService) Streak(ctx context.Context, userID string, now time.Time) domain.StreakResult {
	userID = strings.TrimSpace(userID)
	result := domain.StreakResult{UserID: userID}
	if s == nil || s.repo == nil || userID == "" {
		return result
	}

	entries, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Warn("mood store read failed, streak unavailable", zap.String("user_id", userID), zap.Error(err))
		return result
	}

	result.Days = ComputeStreak(entries, now)
	result.Available = true
	return result
}
