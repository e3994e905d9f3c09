package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	chatH *ChatHandler,
	moodH *MoodHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("", jsonContentTypeMiddleware())

	sessions := api.Group("/sessions")
	sessions.POST("", chatH.CreateSession)
	sessions.GET("/:id", chatH.GetSession)
	sessions.DELETE("/:id", chatH.DiscardSession)
	sessions.POST("/:id/reset", chatH.ResetSession)
	sessions.POST("/:id/messages", chatH.PostMessage)
	sessions.GET("/:id/messages", chatH.ListMessages)
	sessions.GET("/:id/transcript", chatH.GetTranscript)

	api.POST("/moods", moodH.LogMood)
	api.GET("/users/:id/streak", moodH.GetStreak)
	api.GET("/tips/daily", moodH.DailyTip)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
// No loguea bodies: los mensajes de usuarios son sensibles.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
