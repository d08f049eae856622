package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/app"
	"github.com/kailas-cloud/searchbot/internal/config"
	logpkg "github.com/kailas-cloud/searchbot/internal/logger"
	"github.com/kailas-cloud/searchbot/internal/metrics"
	"github.com/kailas-cloud/searchbot/internal/transport/bot"
	chatuc "github.com/kailas-cloud/searchbot/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/searchbot/internal/usecase/health"
	"github.com/kailas-cloud/searchbot/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchbot",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index", cfg.Search.IndexName),
		zap.String("search_mode", cfg.Search.Mode),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()

	searchClient, err := app.NewSearchClient(&cfg, logger)
	if err != nil {
		logger.Fatal("Invalid search configuration", zap.Error(err))
	}

	embedding, err := app.NewEmbedding(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	defer embedding.Close()

	searchSvc, err := app.NewSearchService(&cfg, searchClient, embedding, logger)
	if err != nil {
		logger.Fatal("Failed to create search service", zap.Error(err))
	}

	generator, err := app.NewGenerator(&cfg, logger)
	if err != nil {
		logger.Fatal("Invalid chat configuration", zap.Error(err))
	}
	if generator == nil {
		logger.Warn("No chat deployment configured, answering from search results only")
	}

	prompt, err := chatuc.LoadPrompt(cfg.Chat.PromptFile)
	if err != nil {
		logger.Fatal("Failed to load prompt", zap.Error(err))
	}

	chatSvc, err := chatuc.New(searchSvc, generator, chatuc.Config{
		TokenBudget: cfg.Search.TokenBudget,
		Prompt:      prompt,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create chat service", zap.Error(err))
	}

	healthSvc := buildHealth(searchClient, embedding)

	server := bot.NewServer(chatSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(bot.Recoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(bot.WideEvent(logger))
	r.Use(bot.CORS(cfg.Auth.CORSOrigins))
	r.Use(bot.BearerAuthMiddleware(cfg.Auth.AppPasswords))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildHealth wires optional components as nil interfaces when absent.
func buildHealth(search healthuc.Pinger, embedding *app.Embedding) *healthuc.Service {
	var embChecker healthuc.EmbeddingChecker
	var cache healthuc.Pinger
	if embedding != nil {
		if hc, ok := embedding.Embedder.(healthuc.EmbeddingChecker); ok {
			embChecker = hc
		}
		if embedding.Cache != nil {
			cache = embedding.Cache
		}
	}
	return healthuc.New(search, embChecker, cache)
}
