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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"portfolio-chat/internal/config"
	"portfolio-chat/internal/content"
	"portfolio-chat/internal/database"
	"portfolio-chat/internal/handlers"
	"portfolio-chat/internal/middleware"
	"portfolio-chat/internal/repository"
	"portfolio-chat/internal/router"
	"portfolio-chat/internal/services"
	"portfolio-chat/internal/web"
	"portfolio-chat/internal/websocket"
)

func runServe() error {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger, err := newLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("environment loaded", zap.String("env", cfg.Env))

	// ──── Step 2: Load Site Content ────
	profile, err := content.Load(cfg.SiteFile)
	if err != nil {
		return fmt.Errorf("site content: %w", err)
	}
	logger.Info("site content loaded", zap.String("owner", profile.Name), zap.Int("presets", len(profile.Presets)))

	// ──── Step 3: Initialize Session Store ────
	var (
		store        repository.SessionStore
		pubsubClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(context.Background(), cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisClients.Close()
		store = repository.NewRedisSessionStore(redisClients.Sessions, cfg.SessionTTL)
		pubsubClient = redisClients.PubSub
		logger.Info("redis connected, sessions shared across instances")
	} else {
		store = repository.NewMemorySessionStore(cfg.SessionTTL)
		logger.Info("sessions kept in memory", zap.Duration("ttl", cfg.SessionTTL))
	}
	defer store.Close()

	// ──── Step 4: Start WebSocket Hub ────
	wsHub := websocket.NewHub(pubsubClient, logger, cfg.BaseURL)
	defer wsHub.Close()

	// ──── Initialize Services ────
	chatService := services.NewChatService(store, wsHub, profile.Greeting, logger)
	landingService := services.NewLandingService(profile)

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	visitorAuth := middleware.NewVisitorAuth(cfg.SessionSecret, cfg.IsProduction(), logger)
	messageLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, 10*time.Minute)
	defer messageLimiter.Stop()

	// ──── Initialize Handlers ────
	pageHandler := handlers.NewPageHandler(landingService, chatService, renderer, logger)
	siteHandler := handlers.NewSiteHandler(landingService)
	chatHandler := handlers.NewChatHandler(chatService, wsHub, messageLimiter)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		logger,
		visitorAuth,
		messageLimiter,
		pageHandler,
		siteHandler,
		chatHandler,
		cfg.BaseURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("server shutdown incomplete", zap.Error(err))
		}
	}()

	logger.Info("server ready",
		zap.String("url", cfg.BaseURL),
		zap.String("api", cfg.BaseURL+"/api/v1"),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-shutdownDone
	return nil
}
