package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sitewatch/sitewatch/internal/notify"
	"github.com/sitewatch/sitewatch/internal/website"
)

// DefaultPoolSize caps the number of concurrently open rendering sessions.
// Sessions are heavyweight (one browser process each), so the bound protects
// against resource exhaustion rather than mere contention.
const DefaultPoolSize = 5

// CheckRunner runs one website's check. Implementations never return an
// error; failures arrive as classified outcomes.
type CheckRunner interface {
	Execute(ctx context.Context, site website.Website) website.CheckOutcome
}

// OrchestratorConfig holds configuration for the cycle orchestrator.
type OrchestratorConfig struct {
	Executor   CheckRunner
	Repository website.Repository
	Aggregator *Aggregator

	// Notifier receives a website-updated event after each persisted
	// outcome. Nil means no push surface.
	Notifier notify.Notifier

	// Metrics is optional; nil records nothing.
	Metrics *CheckMetrics

	// PoolSize caps worker concurrency. Default: 5.
	PoolSize int

	// CheckDeadline is a hard wall-clock bound per check, a safety net for
	// sessions that fail to honor their own render timeout.
	// Default: 45 seconds.
	CheckDeadline time.Duration

	Logger zerolog.Logger
}

// Orchestrator fans a batch of websites out across a bounded worker pool and
// guarantees one outcome record per website, regardless of individual
// failures. Workers share no mutable state; each outcome is persisted and
// its website's stats recomputed as soon as the check completes, so
// observers see partial progress of a long cycle.
type Orchestrator struct {
	executor      CheckRunner
	repo          website.Repository
	aggregator    *Aggregator
	notifier      notify.Notifier
	metrics       *CheckMetrics
	poolSize      int
	checkDeadline time.Duration
	logger        zerolog.Logger
}

// NewOrchestrator creates a cycle orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.CheckDeadline <= 0 {
		cfg.CheckDeadline = 45 * time.Second
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Orchestrator{
		executor:      cfg.Executor,
		repo:          cfg.Repository,
		aggregator:    cfg.Aggregator,
		notifier:      notifier,
		metrics:       cfg.Metrics,
		poolSize:      cfg.PoolSize,
		checkDeadline: cfg.CheckDeadline,
		logger:        cfg.Logger,
	}
}

// RunAll checks every active website and returns the outcomes.
func (o *Orchestrator) RunAll(ctx context.Context) ([]website.CheckOutcome, error) {
	sites, err := o.repo.ListActiveWebsites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active websites: %w", err)
	}
	return o.RunCycle(ctx, sites), nil
}

// RunCycle dispatches the given websites across the worker pool and collects
// outcomes as they complete. The result always contains exactly one outcome
// per input website, in completion order.
func (o *Orchestrator) RunCycle(ctx context.Context, sites []website.Website) []website.CheckOutcome {
	if len(sites) == 0 {
		return nil
	}

	start := time.Now()
	workers := min(len(sites), o.poolSize)

	o.logger.Info().
		Int("websites", len(sites)).
		Int("workers", workers).
		Msg("starting check cycle")

	jobs := make(chan website.Website, len(sites))
	results := make(chan website.CheckOutcome, len(sites))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for site := range jobs {
				results <- o.checkOne(ctx, site)
			}
		}()
	}

	for _, site := range sites {
		jobs <- site
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]website.CheckOutcome, 0, len(sites))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}

	duration := time.Since(start)
	o.metrics.RecordCycle(ctx, duration, len(outcomes))
	o.logger.Info().
		Dur("duration", duration).
		Int("outcomes", len(outcomes)).
		Msg("check cycle completed")

	return outcomes
}

// checkOne runs a single check under a hard deadline and converts a
// panicking worker into a connection_error outcome, so the cycle never loses
// a website.
func (o *Orchestrator) checkOne(ctx context.Context, site website.Website) (outcome website.CheckOutcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Interface("panic", r).
				Str("url", site.URL).
				Msg("check worker fault")
			outcome = website.CheckOutcome{
				ID:           uuid.NewString(),
				WebsiteID:    site.ID,
				Status:       website.StatusConnectionError,
				ErrorMessage: fmt.Sprintf("worker fault: %v", r),
				Timestamp:    time.Now().UTC(),
			}
			o.record(ctx, site, outcome)
		}
	}()

	checkCtx, cancel := context.WithTimeout(ctx, o.checkDeadline)
	defer cancel()

	outcome = o.executor.Execute(checkCtx, site)
	o.record(ctx, site, outcome)

	o.logger.Info().
		Str("url", site.URL).
		Str("status", string(outcome.Status)).
		Float64("load_time", outcome.LoadTime).
		Msg("website checked")
	return outcome
}

// record persists the outcome, recomputes the website's stats, and emits the
// update event. Persistence and stats failures are logged but never retract
// the outcome or fail the cycle; stats stay eventually consistent with
// outcomes.
func (o *Orchestrator) record(ctx context.Context, site website.Website, outcome website.CheckOutcome) {
	if err := o.repo.AppendOutcome(ctx, &outcome); err != nil {
		o.logger.Error().Err(err).Str("url", site.URL).Msg("failed to persist check outcome")
		return
	}

	if err := o.aggregator.Recompute(ctx, site.ID); err != nil {
		o.logger.Error().Err(err).Str("url", site.URL).Msg("failed to recompute website stats")
	}

	o.metrics.RecordOutcome(ctx, outcome)
	o.publishUpdate(ctx, site, outcome)
}

func (o *Orchestrator) publishUpdate(ctx context.Context, site website.Website, outcome website.CheckOutcome) {
	stats, err := o.repo.GetStats(ctx, site.ID)
	if err != nil {
		o.logger.Warn().Err(err).Str("url", site.URL).Msg("skipping update event, stats unavailable")
		return
	}

	snapshot := website.Snapshot{
		Website:       site,
		Stats:         *stats,
		LatestOutcome: &outcome,
	}
	if err := o.notifier.WebsiteUpdated(ctx, snapshot); err != nil {
		o.logger.Warn().Err(err).Str("url", site.URL).Msg("failed to publish website update")
	}
}
