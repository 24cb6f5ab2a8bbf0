package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moneave/vulnerability-monitor/internal/cache"
	"github.com/moneave/vulnerability-monitor/internal/monitoring"
	"github.com/moneave/vulnerability-monitor/internal/pipeline"
	"github.com/moneave/vulnerability-monitor/internal/questionnaire"
	"github.com/moneave/vulnerability-monitor/internal/security"
	"github.com/moneave/vulnerability-monitor/internal/storage"
)

func main() {
	appLogger := monitoring.NewLogger()
	slog.SetDefault(appLogger.Logger)

	// Configuration from environment with defaults
	port := getEnvOrDefault("PORT", "8080")
	modelDir := getEnvOrDefault("MODEL_DIR", "./models")
	variantName := getEnvOrDefault("MODEL_VARIANT", "v1")
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	corsOrigins := strings.Split(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000"), ",")

	variant, err := pipeline.VariantByName(variantName)
	if err != nil {
		slog.Error("Unknown model variant", "error", err, "variant", variantName)
		os.Exit(1)
	}

	validator, err := questionnaire.NewValidator(variant.Name)
	if err != nil {
		slog.Error("Failed to compile questionnaire bounds schema", "error", err, "variant", variant.Name)
		os.Exit(1)
	}

	// The audit trail is best effort: without it the service still predicts.
	store, err := storage.New(dataDir)
	if err != nil {
		slog.Warn("Audit storage disabled", "error", err, "data_dir", dataDir)
		store = nil
	}
	defer store.Close()

	appMetrics := monitoring.NewMetrics()

	// A broken artifact set must not kill the process: the gateway stays up
	// answering 503 on prediction routes so operators can see what failed.
	predictor, err := pipeline.New(pipeline.Options{
		ModelDir:   modelDir,
		Variant:    variant,
		Logger:     appLogger.Logger,
		OnFallback: appMetrics.RecordFallback,
	})
	if err != nil {
		slog.Error("Pipeline unavailable, prediction routes will answer 503",
			"error", err, "model_dir", modelDir, "variant", variant.Name)
		predictor = nil
	}

	securityMiddleware := security.NewMiddleware(security.DefaultConfig())
	securityMiddleware.OnRateLimitBlock = appMetrics.IncrementRateLimitBlock

	a := &app{
		variant:     variant,
		predictor:   predictor,
		validator:   validator,
		store:       store,
		cache:       cache.New(15 * time.Minute),
		metrics:     appMetrics,
		logger:      appLogger,
		security:    securityMiddleware,
		corsOrigins: corsOrigins,
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: a.router(),
	}

	go func() {
		slog.Info("Starting server", "port", port, "variant", variant.Name, "model_dir", modelDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
