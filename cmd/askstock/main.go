package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/liliang-cn/askstock/internal/api"
	"github.com/liliang-cn/askstock/internal/api/chat"
	"github.com/liliang-cn/askstock/internal/assistant"
	"github.com/liliang-cn/askstock/internal/config"
	"github.com/liliang-cn/askstock/internal/observability"
	"github.com/liliang-cn/askstock/internal/repository"
	"github.com/liliang-cn/askstock/internal/service"
	"github.com/liliang-cn/askstock/internal/session"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database (inventory items, usage records, users)
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Session store: in-process by default, Redis when configured
	var store session.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = session.NewRedisStore(client, cfg.Session.TTL, cfg.Session.HistoryLimit)
		logger.Info("Using Redis session store", zap.String("addr", cfg.Redis.Addr))
	} else {
		store = session.NewMemoryStore(cfg.Session.TTL, cfg.Session.HistoryLimit)
	}

	// Generation client; with no API key configured every chat is answered
	// by the rule-based responder
	generator := assistant.NewClient(cfg.LLM)
	if cfg.LLM.APIKey == "" {
		logger.Warn("No LLM API key configured, all replies will use the fallback responder")
	}

	metrics := observability.NewMetrics("askstock")

	// Initialize services
	chatService := service.NewChatService(store, itemRepo, generator, logger, metrics)

	// Setup router
	chatHandler := chat.NewHandler(chatService, userRepo)
	router := api.SetupRouter(chatHandler, api.RouterConfig{
		APIKey:       cfg.Auth.APIKey,
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting AskStock server", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
