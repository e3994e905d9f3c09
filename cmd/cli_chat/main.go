package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lumora/internal/app"
	"lumora/internal/config"
	"lumora/internal/db"
	"lumora/internal/domain"
	"lumora/internal/repository"
	"lumora/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	llmClient, err := app.NewLLMClient(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	var moodRepo repository.MoodRepository
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err == nil {
		defer pool.Close()
		moodRepo = repository.NewPgMoodRepository(pool)
	} else if !errors.Is(err, db.ErrNoDatabaseURL) {
		log.Printf("mood store no disponible: %v", err)
	}
	moodSvc := service.NewMoodService(moodRepo, logger)

	sessions := service.NewChatSessionManager(llmClient, nil, logger, service.ChatSessionOptions{
		GenerationTimeout: cfg.LLMTimeout,
		GenerationConfig:  cfg.GenerationConfig(),
		HistoryLimit:      cfg.GenHistoryLimit,
	})
	session := sessions.CreateSession()

	fmt.Println("===== Lumora =====")
	fmt.Println("Comandos: /reset, /historial, /streak <user_id>, /salir")
	for _, msg := range session.Messages {
		printMessage(msg)
	}

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "/salir":
			_ = sessions.Discard(session.ID)
			return
		case line == "/reset":
			reset, err := sessions.Reset(session.ID)
			if err != nil {
				log.Printf("reset: %v", err)
				continue
			}
			for _, msg := range reset.Messages {
				printMessage(msg)
			}
			continue
		case line == "/historial":
			history, err := sessions.History(session.ID)
			if err != nil {
				log.Printf("historial: %v", err)
				continue
			}
			fmt.Println(service.FormatTranscript(history))
			continue
		case strings.HasPrefix(line, "/streak"):
			userID := strings.TrimSpace(strings.TrimPrefix(line, "/streak"))
			printStreak(moodSvc.Streak(ctx, userID, time.Now()))
			continue
		}

		reply, err := sessions.Submit(session.ID, line)
		if err != nil {
			if errors.Is(err, service.ErrInvalidSubmit) {
				continue
			}
			fmt.Printf("(no se pudo enviar: %v)\n", err)
			continue
		}
		fmt.Println("... escribiendo")
		if msg, ok := <-reply; ok {
			printMessage(msg)
		}
	}
}

func printMessage(msg domain.Message) {
	if msg.Sender == domain.SenderUser {
		return
	}
	if msg.Safety == nil {
		fmt.Printf("Lumora: %s\n", msg.Text)
		return
	}
	fmt.Printf("Lumora: %s\n\n%s\n", msg.Safety.Acknowledgment, msg.Safety.Emergency)
	for _, res := range msg.Safety.Resources {
		fmt.Printf("  * %s - %s", res.Name, res.Contact)
		if res.Link != "" {
			fmt.Printf(" <%s>", res.Link)
		}
		fmt.Println()
	}
}

func printStreak(result domain.StreakResult) {
	if !result.Available {
		fmt.Println("(sin datos de racha)")
		return
	}
	fmt.Printf("Racha actual: %d dia(s)\n", result.Days)
}
