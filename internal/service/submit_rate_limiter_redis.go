package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SubmitRateLimiter decide si una sesion puede enviar otro mensaje dentro de la ventana actual.
type SubmitRateLimiter interface {
	Allow(sessionID string) bool
}

const submitKeyPrefix = "lumora:submit:"

// submitWindowScript cuenta los envios de la sesion; el primer envio de la ventana fija el TTL.
const submitWindowScript = `
local sent = redis.call("INCR", KEYS[1])
if sent == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return sent
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// redisSubmitRateLimiter comparte el cupo de cada sesion entre todas las replicas del servicio.
type redisSubmitRateLimiter struct {
	client      redisEvaler
	logger      *zap.Logger
	window      time.Duration
	maxMessages int
	timeout     time.Duration
}

// NewRedisSubmitRateLimiter devuelve nil si no hay cliente; main cae entonces al limitador en memoria.
func NewRedisSubmitRateLimiter(client *redis.Client, window time.Duration, maxMessages int, logger *zap.Logger) SubmitRateLimiter {
	if client == nil {
		return nil
	}
	return newRedisSubmitRateLimiter(client, window, maxMessages, logger)
}

func newRedisSubmitRateLimiter(client redisEvaler, window time.Duration, maxMessages int, logger *zap.Logger) *redisSubmitRateLimiter {
	if window < time.Second {
		window = time.Minute
	}
	if maxMessages <= 0 {
		maxMessages = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisSubmitRateLimiter{
		client:      client,
		logger:      logger,
		window:      window,
		maxMessages: maxMessages,
		timeout:     500 * time.Millisecond,
	}
}

// Allow deja pasar el mensaje si Redis no responde; la sesion ya fue validada por el handler.
func (l *redisSubmitRateLimiter) Allow(sessionID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	ttl := int(l.window / time.Second)
	sent, err := l.client.Eval(ctx, submitWindowScript, []string{submitKeyPrefix + sessionID}, ttl).Int()
	if err != nil {
		l.logger.Warn("submit limiter unavailable, allowing message",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return true
	}
	return sent <= l.maxMessages
}
