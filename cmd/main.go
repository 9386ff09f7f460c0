package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/voxgate/server/adapters/asr"
	"github.com/voxgate/server/adapters/llm"
	"github.com/voxgate/server/domain/repositories"
	"github.com/voxgate/server/internal/api"
	"github.com/voxgate/server/internal/config"
	"github.com/voxgate/server/internal/events"
	"github.com/voxgate/server/internal/gamelog"
	"github.com/voxgate/server/internal/websocket"
	"github.com/voxgate/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env is optional; the environment wins either way
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}
	cfg := config.Load()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Transcription backend; preload the model so it is ready when the
	// first session connects
	engines := asr.NewFactory(cfg, logger)
	if err := engines.Warmup(); err != nil {
		logger.Fatal("ASR warmup failed", zap.String("provider", cfg.ASRProvider), zap.Error(err))
	}

	// Generation backend
	var completer repositories.ChatCompleter
	switch cfg.LLMProvider {
	case "gemini":
		gemini, err := llm.NewGeminiCompleter(context.Background(), cfg.GeminiAPIKey, cfg.ModelID, logger)
		if err != nil {
			logger.Fatal("failed to initialize gemini provider", zap.Error(err))
		}
		completer = gemini
	default:
		completer = llm.NewCerebrasClient(cfg.CerebrasBaseURL, cfg.CerebrasAPIKey, cfg.ModelID, logger)
	}
	generator := usecase.NewGenerator(completer, cfg.JSONEnforceStrict, logger)

	// Session log sink and event publisher, both best-effort
	gameLog, err := gamelog.New(cfg.GameLogDir, logger)
	if err != nil {
		logger.Warn("game log disabled", zap.Error(err))
		gameLog = nil
	}
	publisher := events.New(events.Config{
		Brokers:         cfg.KafkaBrokers,
		TranscriptTopic: cfg.KafkaTranscriptTopic,
		IntentTopic:     cfg.KafkaIntentTopic,
	}, logger)
	defer publisher.Close()

	// Streaming session hub
	hub := websocket.NewHub(engines, gameLog, publisher, logger)
	go hub.Run()

	api.InitRoutes(e, api.Deps{
		Hub:       hub,
		Generator: generator,
		Config:    cfg,
		GameLog:   gameLog,
		Events:    publisher,
		Logger:    logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("voxgate server started",
		zap.String("port", cfg.Port),
		zap.String("asrProvider", cfg.ASRProvider),
		zap.String("llmProvider", cfg.LLMProvider))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
