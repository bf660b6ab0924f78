// Package main provides the entrypoint for the SiteWatch check worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

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
	const serviceName = "sitewatch-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SiteWatch worker")

	// Worker also exposes a health endpoint for container platforms
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8081"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry
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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

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

	cycleConfig := worker.ConfigFromEnv()

	checkMetrics, err := monitor.NewCheckMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize check metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Optional update-event publisher
	var notifier notify.Notifier
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	if projectID != "" {
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

	// Interval scheduler
	go runner.Start(ctx)

	// Optional Pub/Sub trigger subscription
	if projectID != "" {
		subscriptionName := os.Getenv("PUBSUB_JOBS_SUBSCRIPTION")
		if subscriptionName == "" {
			subscriptionName = "worker-jobs"
		}

		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscriptionName,
			Runner:           runner,
			Websites:         websiteService,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create job subscriber")
		}
		defer func() {
			if closeErr := pubsubHandler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close job subscriber")
			}
		}()

		go func() {
			log.Info().Str("subscription", subscriptionName).Msg("job subscriber started")
			if err := pubsubHandler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("job subscriber stopped with error")
			}
		}()
	}

	// Health endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
