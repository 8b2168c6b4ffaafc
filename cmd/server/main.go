// Package main provides the eat-what LINE bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chiahsuan/eatwhat-linebot-go/internal/bot"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/buildinfo"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/config"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/logger"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/metrics"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/sentry"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/storage"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/webhook"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log.WithFields(map[string]any{
		"version":   buildinfo.Short(),
		"log_level": cfg.LogLevel,
	}).Info("Starting eat-what bot server")

	// Initialize Sentry (no-op when DSN is empty)
	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Short(),
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, continuing without it")
	}
	defer sentry.Flush(2 * time.Second)

	// Connect to database
	db, err := storage.New(context.Background(), cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", db.Path()).Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Create command dispatcher
	dispatcher := bot.NewDispatcher(db, log, m, bot.NewSystemRand(), bot.Config{
		SamplerMaxAttempts: cfg.Bot.SamplerMaxAttempts,
		MaxShopNameLength:  cfg.Bot.MaxShopNameLength,
		NamePreviewLength:  cfg.Bot.NamePreviewLength,
		Location:           cfg.Bot.Location(),
	})

	// Create webhook handler
	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		BotConfig:     &cfg.Bot,
		Metrics:       m,
		Logger:        log,
		Dispatcher:    dispatcher,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create webhook handler")
	}
	log.Info("Webhook handler created")

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	setupRoutes(router, webhookHandler, db, m, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Let in-flight webhook batches finish before closing the store.
	if err := webhookHandler.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Timeout waiting for webhook processing to finish")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}
