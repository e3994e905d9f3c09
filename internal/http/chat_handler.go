package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lumora/internal/domain"
	"lumora/internal/service"
)

// ChatHandler expone el ciclo de vida de las sesiones de chat.
type ChatHandler struct {
	logger      *zap.Logger
	sessions    *service.ChatSessionManager
	transcripts *service.TranscriptService
	limiter     service.SubmitRateLimiter
}

// NewChatHandler crea una instancia de ChatHandler. limiter puede ser nil.
func NewChatHandler(logger *zap.Logger, sessions *service.ChatSessionManager, transcripts *service.TranscriptService, limiter service.SubmitRateLimiter) *ChatHandler {
	return &ChatHandler{
		logger:      logger,
		sessions:    sessions,
		transcripts: transcripts,
		limiter:     limiter,
	}
}

// CreateSession maneja POST /sessions. El body es opcional y solo ajusta la configuracion de generacion.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req struct {
		Config *domain.GenerationConfig `json:"config"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("invalid create session request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	var session domain.ChatSession
	if req.Config != nil {
		session = h.sessions.CreateSessionWithConfig(*req.Config)
	} else {
		session = h.sessions.CreateSession()
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// GetSession maneja GET /sessions/:id.
func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.Session(c.Param("id"))
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// PostMessage maneja POST /sessions/:id/messages. La respuesta del asistente llega de forma asincrona.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sessionID := c.Param("id")
	// Solo los envios que Submit aceptaria consumen cupo del limitador.
	if strings.TrimSpace(req.Text) == "" {
		h.writeSessionError(c, service.ErrInvalidSubmit)
		return
	}
	session, err := h.sessions.Session(sessionID)
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	if session.State == domain.SessionAwaitingResponse {
		h.writeSessionError(c, service.ErrSessionBusy)
		return
	}
	if h.limiter != nil && !h.limiter.Allow(session.ID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many messages, slow down"})
		return
	}

	if _, err := h.sessions.Submit(sessionID, req.Text); err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"session_id": sessionID, "status": "accepted"})
}

// ListMessages maneja GET /sessions/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	messages, err := h.sessions.History(c.Param("id"))
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetTranscript maneja GET /sessions/:id/transcript?limit=N. Lee el archivo persistido,
// por lo que tambien responde para sesiones ya descartadas.
func (h *ChatHandler) GetTranscript(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	messages, err := h.transcripts.Transcript(c.Request.Context(), c.Param("id"), limit)
	switch {
	case errors.Is(err, service.ErrTranscriptUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcript archive unavailable"})
		return
	case err != nil:
		h.logger.Error("transcript read failed", zap.Error(err), zap.String("session_id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read transcript"})
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// ResetSession maneja POST /sessions/:id/reset.
func (h *ChatHandler) ResetSession(c *gin.Context) {
	session, err := h.sessions.Reset(c.Param("id"))
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DiscardSession maneja DELETE /sessions/:id.
func (h *ChatHandler) DiscardSession(c *gin.Context) {
	if err := h.sessions.Discard(c.Param("id")); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrInvalidSubmit):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text is required"})
	case errors.Is(err, service.ErrSessionBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "still waiting for the previous reply"})
	default:
		h.logger.Error("chat session error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
