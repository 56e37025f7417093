package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedback-hub/backend/internal/repository"
	"feedback-hub/backend/pkg/config"
	"feedback-hub/backend/pkg/di"
	"feedback-hub/backend/pkg/health"
	"feedback-hub/backend/pkg/logger"
	"feedback-hub/backend/pkg/router"
	"feedback-hub/backend/pkg/secrets"
	"feedback-hub/backend/shared/observability"
)

const serviceName = "feedback-hub"

func main() {
	// Loads .env before reading the environment
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application",
		"version", os.Getenv("APP_VERSION"),
		"env", cfg.Server.Env,
		"ai_mode", cfg.AI.Mode,
		"queue", cfg.Pipeline.QueueBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.TracingEnabled {
		shutdownTracing, err := observability.SetupTracing(serviceName, os.Stdout)
		if err != nil {
			log.LogError(err, "Failed to initialize tracing")
			os.Exit(1)
		}
		defer shutdownTracing(context.Background())
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		var err error
		metrics, err = observability.SetupPrometheusMetrics(serviceName, cfg.Observability.MetricsAddr)
		if err != nil {
			log.LogError(err, "Failed to initialize metrics")
			os.Exit(1)
		}
		log.Info("Metrics available", "addr", cfg.Observability.MetricsAddr, "path", "/metrics")
	}

	secretManager, err := secrets.NewVaultManager(secrets.ConfigFromEnv(), log)
	if err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}
	if password := secretManager.GetSecretWithDefault(ctx, secrets.KeyDBPassword, ""); password != "" {
		cfg.Database.Password = password
	}

	db, err := config.NewDB(cfg)
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := repository.AutoMigrate(db); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	container, err := di.New(ctx, cfg, db, log, di.Options{Secrets: secretManager})
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	r := router.New(container)
	if err := r.SetupRoutes(); err != nil {
		log.LogError(err, "Failed to set up routes")
		os.Exit(1)
	}

	container.Pipeline.Start(ctx)
	container.Health.Start(ctx)
	go r.Hub.Run(ctx)

	var grpcHealth *health.GRPCServer
	if port := cfg.Observability.GRPCHealthPort; port != "" {
		grpcHealth = health.NewGRPCServer(container.Health, log)
		go func() {
			if err := grpcHealth.ListenAndServe(port); err != nil {
				log.LogError(err, "gRPC health server stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	if grpcHealth != nil {
		grpcHealth.Stop()
	}

	// Let in-flight runs finish before the queue and broker go away
	container.Pipeline.Stop()
	r.Stop()

	if err := container.Close(); err != nil {
		log.LogError(err, "Failed to release resources")
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Failed to stop metrics")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server exited gracefully")
}
