// main.go - Media Literacy Hub API server
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediahub/config"
	"mediahub/database"
	"mediahub/events"
	"mediahub/handlers"
	applog "mediahub/logger"
	"mediahub/middleware"
	"mediahub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load environment variables
	cfg, foundDotenv := config.Load()

	zl, err := applog.Init(cfg.AppEnv)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()
	if !foundDotenv {
		zl.Warn(".env file not found, using system environment variables")
	}

	// Validate critical configuration
	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", "error", err)
	}
	if cfg.IsProduction() && cfg.CORSOrigins == "http://localhost:5173" {
		zl.Warn("CORS_ORIGINS not properly configured for production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		zl.Fatal("database init failed", "error", err)
	}
	defer database.CloseDB()
	store := services.NewDatabaseStorage(database.GetDB())

	catalog, err := services.LoadCatalog()
	if err != nil {
		zl.Fatal("load catalog failed", "error", err)
	}

	provider, err := services.NewProvider(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("language model init failed", "error", err)
	}
	analyzer := services.NewAnalysisService(provider, services.NewFallbackScorer(0), catalog, cfg.MaxPromptLen, zl)

	// Progress events go through Redis when configured so every replica's sockets see them
	var bus events.Bus
	if cfg.RedisAddr != "" {
		bus, err = events.NewRedisBus(cfg.RedisAddr, cfg.RedisChannel, zl)
		if err != nil {
			zl.Fatal("redis connect failed", "addr", cfg.RedisAddr, "error", err)
		}
	}
	hub := events.NewHub(bus, zl)
	if err := hub.Start(ctx); err != nil {
		zl.Fatal("event hub start failed", "error", err)
	}
	defer hub.Close()

	progress := services.NewProgressService(store, catalog, hub, zl)

	// Initialize cleanup service
	services.InitCleanupService(store, cfg.RetentionDays, cfg.CleanupInterval, zl).Start()
	defer func() {
		if cleanupService := services.GetCleanupService(); cleanupService != nil {
			cleanupService.Stop()
		}
	}()

	handlers.Init(handlers.Deps{
		Config:   cfg,
		Store:    store,
		Analyzer: analyzer,
		Progress: progress,
		Hub:      hub,
		Log:      zl,
	})

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(cfg.IsProduction()),
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		// analysis calls wait on the language model
		WriteTimeout: cfg.LLMTimeout + 10*time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Apply rate limiting to all routes
	limiters := middleware.NewLimiters(cfg)
	limiters.StartCleanup(ctx)
	app.Use(limiters.General())

	handlers.RegisterRoutes(app, limiters)

	go func() {
		<-ctx.Done()
		zl.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			zl.Error("http shutdown failed", "error", err)
		}
	}()

	zl.Info("HTTP server starting",
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"provider", analyzer.ProviderName(),
		"redis", cfg.RedisAddr != "",
		"retentionDays", cfg.RetentionDays,
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Error("HTTP server stopped", "error", err)
	}
}
