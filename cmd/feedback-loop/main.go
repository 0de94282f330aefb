package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"feedback-loop/internal/config"
	"feedback-loop/internal/cursor"
	"feedback-loop/internal/elevenlabs"
	"feedback-loop/internal/feedback"
	"feedback-loop/internal/llm"
	"feedback-loop/internal/scheduler"
	"feedback-loop/internal/webhook"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	deriver, err := feedback.NewDeriver(cfg, llm.NewFactory(cfg))
	if err != nil {
		log.Fatalf("failed to create prompt deriver: %v", err)
	}
	log.Printf("🧩 Using %s prompt deriver", cfg.Deriver)

	var cursorRepo cursor.Repository
	if cfg.CursorFilePath != "" {
		repo, err := cursor.NewFileRepository(cfg.CursorFilePath)
		if err != nil {
			log.Printf("failed to init cursor file, keeping it in memory: %v", err)
		} else {
			cursorRepo = repo
		}
	}

	client := elevenlabs.NewClient(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, cfg.ElevenLabsAgentID, nil)
	waiter := elevenlabs.NewWaiter(client, cursorRepo, cfg.PollInterval, cfg.PollAttempts)
	loop := feedback.NewLoop(elevenlabs.NewPlatform(client, waiter), deriver, feedback.NewCounter(1)).
		WithWaitTimeout(cfg.WaitTimeout)

	var applier feedback.PromptApplier
	if cfg.ApplyPrompt {
		applier = client
	}
	runner := feedback.NewRunner(loop, readInitialPrompt(cfg.InitialPromptPath), applier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeOnce:
		runOnce(ctx, runner)
	case config.ModeSchedule:
		runSchedule(ctx, cfg, runner)
	case config.ModeWebhook:
		runWebhook(ctx, cfg, runner)
	}
}

func runOnce(ctx context.Context, runner *feedback.Runner) {
	res, err := runner.Run(ctx, "")
	if err != nil {
		log.Fatalf("feedback loop failed: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("failed to write result: %v", err)
	}
}

func runSchedule(ctx context.Context, cfg *config.Config, runner *feedback.Runner) {
	s := scheduler.New(cfg.Schedule)
	s.SetJob(func(ctx context.Context) error {
		_, err := runner.Run(ctx, "")
		return err
	})
	if err := s.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	<-ctx.Done()
	s.Stop()
}

func runWebhook(ctx context.Context, cfg *config.Config, runner *feedback.Runner) {
	e := webhook.NewServer(runner)
	go func() {
		log.Printf("🌐 Webhook server listening on %s", cfg.WebhookAddr)
		if err := e.Start(cfg.WebhookAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("webhook server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("webhook shutdown error: %v", err)
	}
}

func readInitialPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("initial prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return strings.TrimSpace(string(data))
}
