package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lumora/internal/domain"
	"lumora/internal/service"
)

// MoodHandler expone check-ins de animo, rachas y el consejo del dia.
type MoodHandler struct {
	logger *zap.Logger
	moods  *service.MoodService
	tips   *service.TipPicker
	now    func() time.Time
}

func NewMoodHandler(logger *zap.Logger, moods *service.MoodService, tips *service.TipPicker) *MoodHandler {
	return &MoodHandler{
		logger: logger,
		moods:  moods,
		tips:   tips,
		now:    time.Now,
	}
}

// LogMood maneja POST /moods.
func (h *MoodHandler) LogMood(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Mood   int    `json:"mood" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid log mood request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	entry, err := h.moods.Log(c.Request.Context(), domain.MoodEntry{
		UserID: req.UserID,
		Mood:   req.Mood,
		Note:   req.Note,
	})
	switch {
	case errors.Is(err, service.ErrMoodInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "mood must be between 1 and 5"})
		return
	case errors.Is(err, service.ErrMoodServiceNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mood tracking unavailable"})
		return
	case err != nil:
		h.logger.Error("log mood failed", zap.Error(err), zap.String("user_id", req.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save mood entry"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"entry":      entry,
		"label":      domain.MoodLabel(entry.Mood),
		"reflection": service.MoodReflection(entry.Mood),
	})
}

// GetStreak maneja GET /users/:id/streak. Un store caido se informa como available=false, nunca como error.
func (h *MoodHandler) GetStreak(c *gin.Context) {
	result := h.moods.Streak(c.Request.Context(), c.Param("id"), h.now())
	c.JSON(http.StatusOK, gin.H{"streak": result})
}

// DailyTip maneja GET /tips/daily.
func (h *MoodHandler) DailyTip(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tip": h.tips.Pick()})
}
