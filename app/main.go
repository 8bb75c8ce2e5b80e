package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"postline/app/api"
	"postline/app/cache"
	"postline/app/cfg"
	"postline/app/database"
	"postline/app/dispatch"
	"postline/app/publisher"
	"postline/app/schedule"
)

func main() {
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting postline", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	var store schedule.Store = database.NewScheduleRepository(db)

	var statsCache *cache.StatsCache
	if appCfg.RedisAddr != "" {
		statsCache, err = cache.NewStatsCache(appCfg.RedisAddr, time.Duration(appCfg.RedisTTL)*time.Second)
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", appCfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer statsCache.Close()
		store = cache.NewStore(store, statsCache)
		slog.Info("Stats cache enabled", "addr", appCfg.RedisAddr, "ttl_seconds", appCfg.RedisTTL)
	}

	platformConfig, err := publisher.LoadConfig(appCfg.PlatformsFile)
	if err != nil {
		slog.Error("Failed to load platform configuration", "file", appCfg.PlatformsFile, "error", err)
		os.Exit(1)
	}
	registry := publisher.NewRegistry(platformConfig, time.Duration(appCfg.PublishTimeout)*time.Second)
	slog.Info("Publish endpoints configured", "platforms", len(registry.Platforms()))

	dispatcher := dispatch.NewDispatcher(store, registry, dispatch.Options{
		WorkerCount:    appCfg.WorkerCount,
		BatchLimit:     appCfg.DueBatchLimit,
		PublishTimeout: time.Duration(appCfg.PublishTimeout) * time.Second,
		Policy: schedule.RetryPolicy{
			MaxAttempts: appCfg.RetryMaxAttempts,
			BaseDelay:   time.Duration(appCfg.RetryBaseDelay) * time.Second,
			MaxDelay:    time.Duration(appCfg.RetryMaxDelay) * time.Second,
		},
		Clock: schedule.SystemClock(),
	})

	runner, err := dispatch.NewRunner(dispatcher, time.Duration(appCfg.DispatchInterval)*time.Second)
	if err != nil {
		slog.Error("Failed to create dispatch runner", "error", err)
		os.Exit(1)
	}
	runner.Start()
	defer runner.Stop()

	handler := api.NewHandler(store, dispatcher, runner, schedule.SystemClock())
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

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

	// Runner and connections are stopped via defer; the runner waits for
	// an in-flight dispatch cycle before returning.
	slog.Info("Shutdown complete")
}
