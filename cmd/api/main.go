// Package main provides the entrypoint for the SiteWatch API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitewatch/sitewatch/internal/api"
	"github.com/sitewatch/sitewatch/internal/api/middleware"
	"github.com/sitewatch/sitewatch/internal/database"
	"github.com/sitewatch/sitewatch/internal/monitor"
	"github.com/sitewatch/sitewatch/internal/notify"
	"github.com/sitewatch/sitewatch/internal/telemetry"
	"github.com/sitewatch/sitewatch/internal/website"
	"github.com/sitewatch/sitewatch/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "sitewatch-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SiteWatch API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize HTTP metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize HTTP metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	repo := website.NewPostgresRepository(pool)
	websiteService := website.NewService(repo, log)
	log.Info().Msg("website service initialized")

	// Cycle pipeline for the on-demand run endpoint
	cycleConfig := worker.ConfigFromEnv()

	checkMetrics, err := monitor.NewCheckMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize check metrics")
		os.Exit(1)
	}

	// Optional update-event publisher
	var notifier notify.Notifier
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		topicName := os.Getenv("PUBSUB_UPDATES_TOPIC")
		if topicName == "" {
			topicName = "website-updates"
		}

		pubsubNotifier, err := notify.NewPubSubNotifier(ctx, notify.PubSubConfig{
			ProjectID: projectID,
			TopicName: topicName,
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create update publisher")
		}
		defer func() {
			if closeErr := pubsubNotifier.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close update publisher")
			}
		}()
		notifier = pubsubNotifier
		log.Info().Str("topic", topicName).Msg("update publisher initialized")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - update events disabled")
	}

	executor := monitor.NewExecutor(monitor.ExecutorConfig{
		Factory:       monitor.NewChromeFactory(cycleConfig.RenderTimeout, log),
		ProbeTimeout:  cycleConfig.ProbeTimeout,
		RenderTimeout: cycleConfig.RenderTimeout,
		SettleDelay:   cycleConfig.SettleDelay,
		Logger:        log,
	})
	aggregator := monitor.NewAggregator(repo, cycleConfig.StatsWindow, log)
	orchestrator := monitor.NewOrchestrator(monitor.OrchestratorConfig{
		Executor:   executor,
		Repository: repo,
		Aggregator: aggregator,
		Notifier:   notifier,
		Metrics:    checkMetrics,
		PoolSize:   cycleConfig.PoolSize,
		Logger:     log,
	})
	runner := worker.NewRunner(orchestrator, cycleConfig.Interval, log)
	log.Info().Msg("check pipeline initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		Metrics:        httpMetrics,
		WebsiteService: websiteService,
		CycleRunner:    runner,
		DB:             pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // on-demand cycles run synchronously
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
