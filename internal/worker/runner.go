package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sitewatch/sitewatch/internal/monitor"
	"github.com/sitewatch/sitewatch/internal/website"
)

// CycleResult summarizes one completed cycle for observability surfaces.
type CycleResult struct {
	StartTime time.Time      `json:"start_time"`
	Duration  time.Duration  `json:"duration"`
	Processed int            `json:"processed"`
	Outcomes  []OutcomeEntry `json:"outcomes"`
}

// OutcomeEntry is the per-website line of a cycle summary.
type OutcomeEntry struct {
	WebsiteID string         `json:"website_id"`
	Status    website.Status `json:"status"`
}

// Runner executes check cycles, either once on demand or on a fixed
// interval.
type Runner struct {
	orchestrator *monitor.Orchestrator
	interval     time.Duration
	logger       zerolog.Logger
}

// NewRunner creates a cycle runner.
func NewRunner(orchestrator *monitor.Orchestrator, interval time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		orchestrator: orchestrator,
		interval:     interval,
		logger:       logger,
	}
}

// RunOnce runs a single cycle over all active websites and returns its
// summary.
func (r *Runner) RunOnce(ctx context.Context) (*CycleResult, error) {
	start := time.Now()

	outcomes, err := r.orchestrator.RunAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &CycleResult{
		StartTime: start,
		Duration:  time.Since(start),
		Processed: len(outcomes),
		Outcomes:  make([]OutcomeEntry, 0, len(outcomes)),
	}
	for _, outcome := range outcomes {
		result.Outcomes = append(result.Outcomes, OutcomeEntry{
			WebsiteID: outcome.WebsiteID,
			Status:    outcome.Status,
		})
	}
	return result, nil
}

// Start runs cycles on the configured interval until the context is
// cancelled. The first cycle runs immediately.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("cycle scheduler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if result, err := r.RunOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("scheduled cycle failed")
		} else {
			r.logger.Info().
				Int("processed", result.Processed).
				Dur("duration", result.Duration).
				Msg("scheduled cycle completed")
		}

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("cycle scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
