package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"cargo-pipeline/internal/core/auth"
	"cargo-pipeline/internal/core/cache"
	"cargo-pipeline/internal/core/config"
	"cargo-pipeline/internal/core/database"
	"cargo-pipeline/internal/core/httpclient"
	"cargo-pipeline/internal/core/logger"
	"cargo-pipeline/internal/core/server"
	feedadapter "cargo-pipeline/internal/features/feed/adapters"
	feedhandler "cargo-pipeline/internal/features/feed/handler"
	feedports "cargo-pipeline/internal/features/feed/ports"
	feedservice "cargo-pipeline/internal/features/feed/service"
	labeladapter "cargo-pipeline/internal/features/labels/adapters"
	labelhandler "cargo-pipeline/internal/features/labels/handler"
	labelports "cargo-pipeline/internal/features/labels/ports"
	labelservice "cargo-pipeline/internal/features/labels/service"
	pipelineadapter "cargo-pipeline/internal/features/pipeline/adapters"
	pipelinehandler "cargo-pipeline/internal/features/pipeline/handler"
	pipelineports "cargo-pipeline/internal/features/pipeline/ports"
	pipelineservice "cargo-pipeline/internal/features/pipeline/service"
	projectionadapter "cargo-pipeline/internal/features/projections/adapters"
	projectionhandler "cargo-pipeline/internal/features/projections/handler"
	projectionports "cargo-pipeline/internal/features/projections/ports"
	projectionservice "cargo-pipeline/internal/features/projections/service"

	"go.uber.org/zap"
)

// @title Cargo Pipeline API
// @version 1.0
// @description Order, box and container lifecycle for the China to Venezuela shipping pipeline.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the actor token.
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Entity store
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		l.Fatal("Failed to open entity store", zap.Error(err))
	}

	// Redis backs the cross-instance feed and the projection cache. Without it the
	// feed stays in-process and projections are computed per request.
	var (
		broker      feedports.Broker
		summaryRepo projectionports.SummaryRepository
	)
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			l.Fatal("Invalid Redis configuration", zap.Error(err))
		}
		redisCache := cache.NewRedisAdapter(client, cfg.Redis.Namespace)
		if err := redisCache.Ping(ctx); err != nil {
			l.Fatal("Redis Health Check Failed", zap.Error(err))
		}
		defer redisCache.Close()
		l.Info("Redis connection verified")

		broker = feedadapter.NewRedisBroker(client, cfg.Feed.Channel)
		summaryRepo = projectionadapter.NewCacheSummaryRepository(redisCache, cfg.Feed.ProjectionCacheTTL())
	}

	// Change feed
	hub := feedservice.NewHub(broker)
	go func() {
		if err := hub.Run(ctx); err != nil {
			l.Error("Change feed stopped", zap.Error(err))
		}
	}()

	// Transition engine
	engine := pipelineservice.NewEngine(store, hub)
	pipelineHdl := pipelinehandler.NewPipelineHandler(engine)

	// Projections
	projectionSvc := projectionservice.NewProjectionService(engine, summaryRepo)
	stopWatch := projectionSvc.Watch(hub, cfg.Feed.Debounce())
	defer stopWatch()
	projectionHdl := projectionhandler.NewProjectionHandler(projectionSvc)

	// Labels
	var renderer labelports.Renderer
	if cfg.Labels.ServiceURL != "" {
		renderer = labeladapter.NewHTTPRenderer(httpclient.NewClient(30*time.Second), cfg.Labels.ServiceURL)
	}
	labelHdl := labelhandler.NewLabelHandler(labelservice.NewLabelService(engine, renderer))

	streamHdl := feedhandler.NewStreamHandler(hub, cfg.Feed.Debounce(), ctx.Done())

	srv := server.New(cfg, auth.NewVerifier(cfg.Auth.JWTSecret))

	// Register Routes
	pipelineHdl.Register(srv.API)
	labelHdl.Register(srv.API)
	projectionHdl.Register(srv.API)
	srv.API.Group("/feed").Get("/", streamHdl.Stream)

	go func() {
		<-ctx.Done()
		l.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("Graceful shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (pipelineports.Store, error) {
	if cfg.Driver == "memory" {
		return pipelineadapter.NewMemoryStore(), nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	store := pipelineadapter.NewGormStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
