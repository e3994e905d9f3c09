package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lumora/internal/app"
	"lumora/internal/config"
	"lumora/internal/db"
	apihttp "lumora/internal/http"
	"lumora/internal/metrics"
	"lumora/internal/repository"
	"lumora/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	metrics.MustRegister()

	var (
		moodRepo repository.MoodRepository
		recorder service.TranscriptRecorder
		archive  repository.MessageRepository
		pool     *pgxpool.Pool
	)
	pool, err = db.NewPool(ctx, cfg.DatabaseURL)
	switch {
	case errors.Is(err, db.ErrNoDatabaseURL):
		logger.Warn("database not configured, mood tracking and transcripts disabled")
	case err != nil:
		logger.Fatal("db connect", zap.Error(err))
	default:
		defer pool.Close()
		moodRepo = repository.NewPgMoodRepository(pool)
		messageRepo := repository.NewPgMessageRepository(pool)
		recorder = messageRepo
		archive = messageRepo
	}

	llmClient, err := app.NewLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("llm client", zap.Error(err))
	}

	limiter := service.NewMemorySubmitRateLimiter(cfg.SubmitRateWindow, cfg.SubmitRateMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory submit limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisSubmitRateLimiter(redisClient, cfg.SubmitRateWindow, cfg.SubmitRateMax, logger)
		}
		cancel()
	}

	sessionMgr := service.NewChatSessionManager(llmClient, recorder, logger, service.ChatSessionOptions{
		GenerationTimeout: cfg.LLMTimeout,
		GenerationConfig:  cfg.GenerationConfig(),
		HistoryLimit:      cfg.GenHistoryLimit,
	})
	transcriptSvc := service.NewTranscriptService(archive)
	moodSvc := service.NewMoodService(moodRepo, logger)
	tips := service.NewTipPicker(rand.New(rand.NewSource(time.Now().UnixNano())))

	chatHandler := apihttp.NewChatHandler(logger, sessionMgr, transcriptSvc, limiter)
	moodHandler := apihttp.NewMoodHandler(logger, moodSvc, tips)
	router := apihttp.NewRouter(logger, chatHandler, moodHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("llm_provider", cfg.LLMProvider),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
