// Package api provides the HTTP API for SiteWatch.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sitewatch/sitewatch/internal/api/handler"
	"github.com/sitewatch/sitewatch/internal/api/middleware"
	"github.com/sitewatch/sitewatch/internal/website"
	"github.com/sitewatch/sitewatch/internal/worker"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	Metrics        *middleware.Metrics
	WebsiteService *website.Service
	CycleRunner    *worker.Runner
	DB             handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB)
	websitesHandler := handler.NewWebsitesHandler(cfg.WebsiteService)
	checksHandler := handler.NewChecksHandler(cfg.CycleRunner)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min
	cycleRateLimit := middleware.RateLimitByIP(middleware.CycleRateLimit)       // 10 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Website registration and dashboard listing
		r.Route("/websites", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", websitesHandler.ListWebsites)
			r.Post("/", websitesHandler.RegisterWebsite)
			r.Post("/import", websitesHandler.ImportWebsites)
			r.Get("/{websiteID}/checks", websitesHandler.ListOutcomes)
		})

		// On-demand cycle runs open real browser sessions, so they get a
		// tighter limit.
		r.Route("/checks", func(r chi.Router) {
			r.Use(cycleRateLimit)
			r.Post("/run", checksHandler.RunCycle)
		})
	})

	return r
}
