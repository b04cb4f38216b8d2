package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedhaus/storyvec/app/adapter"
	"github.com/feedhaus/storyvec/app/api"
	"github.com/feedhaus/storyvec/app/catalog"
	"github.com/feedhaus/storyvec/app/cfg"
	"github.com/feedhaus/storyvec/app/database"
	"github.com/feedhaus/storyvec/app/embedding"
	"github.com/feedhaus/storyvec/app/enrich"
	"github.com/feedhaus/storyvec/app/ingest"
	"github.com/feedhaus/storyvec/app/metrics"
	"github.com/feedhaus/storyvec/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appConfig.Debug)
	metrics.Init("storyvec", appConfig.Version)

	slog.Info("Starting Storyvec server", "version", appConfig.Version)

	// Database connection and schema
	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	slog.Info("Database ready", "path", appConfig.DBPath, "schema_version", version, "dirty", dirty)

	// Load and register the source catalog
	loader := catalog.NewLoader(appConfig.SourcesDir)
	sourceConfigs, err := loader.LoadAll()
	if err != nil {
		log.Fatal("Failed to load source catalog:", err)
	}

	sourceRepo := database.NewSourceRepository(db)
	registeredCount := 0
	for _, sourceConfig := range sourceConfigs {
		id, err := sourceRepo.RegisterSource(sourceConfig)
		if err != nil {
			slog.Warn("Failed to register source", "slug", sourceConfig.Slug, "error", err)
			continue
		}
		slog.Debug("Registered source", "slug", sourceConfig.Slug, "adapter", sourceConfig.AdapterID, "id", id)
		registeredCount++
	}
	slog.Info("Source catalog registered", "registered", registeredCount, "loaded", len(sourceConfigs))

	// Repositories
	storyRepo := database.NewStoryRepository(db)
	cacheRepo := database.NewEmbeddingCacheRepository(db)

	// Shared HTTP client for adapters and enrichment
	httpClient := &http.Client{Timeout: 30 * time.Second}

	// Adapter registry: every adapter is registered here explicitly, so a
	// catalog entry naming an unknown adapter fails loudly, not at run time
	registry := adapter.NewRegistry(
		adapter.NewRSSAdapter(httpClient, appConfig.UserAgent),
	)

	// Core pipeline components
	enricher := enrich.NewEnricher(httpClient, appConfig.UserAgent,
		time.Duration(appConfig.EnrichTimeout)*time.Second,
		appConfig.MinContentLength, appConfig.MinFallbackLength)

	provider, err := embedding.NewOpenAIProvider(appConfig.EmbeddingHost, appConfig.EmbeddingModel, appConfig.EmbeddingAPIKey)
	if err != nil {
		log.Fatal("Failed to create embedding provider:", err)
	}

	cacheManager := embedding.NewCacheManager(cacheRepo, provider,
		time.Duration(appConfig.CacheTTLDays)*24*time.Hour, appConfig.MaxEmbedChars)

	batchProcessor := ingest.NewBatchProcessor(enricher, cacheManager, storyRepo, appConfig.MaxBatchRetries)
	dedupFilter := ingest.NewDedupFilter(storyRepo)

	orchestrator := ingest.NewOrchestrator(sourceRepo, registry, dedupFilter, batchProcessor,
		appConfig.BatchSize, appConfig.WorkerCount)

	// Background scheduler: periodic ingestion runs and cache expiry sweeps
	scheduler := tasks.NewScheduler(orchestrator, cacheRepo,
		time.Duration(appConfig.SchedulerInterval)*time.Second,
		time.Duration(appConfig.CacheSweepInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	apiHandler := api.NewHandler(orchestrator, sourceRepo, storyRepo, cacheRepo, appConfig.Version)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute, // a triggered run responds when it completes
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Storyvec server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Storyvec server shutdown complete")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
