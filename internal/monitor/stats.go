package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sitewatch/sitewatch/internal/website"
)

// DefaultStatsWindow is the number of most recent outcomes considered when
// recomputing a website's rolling stats.
const DefaultStatsWindow = 100

// Aggregator recomputes rolling per-website statistics from the most recent
// outcome window. Every recomputation reads the window and rebuilds the
// stats record from scratch rather than merging incrementally, so the record
// is self-correcting. Recomputation is a pure function of the window and
// therefore idempotent; a per-website lock serializes concurrent calls so a
// stale computation cannot clobber a newer write.
type Aggregator struct {
	repo   website.Repository
	window int
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAggregator creates a stats aggregator over the given window size.
// A non-positive window falls back to DefaultStatsWindow.
func NewAggregator(repo website.Repository, window int, logger zerolog.Logger) *Aggregator {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	return &Aggregator{
		repo:   repo,
		window: window,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Recompute rebuilds the stats record for a website from its most recent
// outcomes and upserts it. With zero outcomes the stats row is left at its
// zero state.
func (a *Aggregator) Recompute(ctx context.Context, websiteID string) error {
	lock := a.lockFor(websiteID)
	lock.Lock()
	defer lock.Unlock()

	outcomes, err := a.repo.LatestOutcomes(ctx, websiteID, a.window)
	if err != nil {
		return fmt.Errorf("read outcome window: %w", err)
	}
	if len(outcomes) == 0 {
		return nil
	}

	stats := computeStats(websiteID, outcomes)
	if err := a.repo.UpsertStats(ctx, stats); err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}

	a.logger.Debug().
		Str("website_id", websiteID).
		Int("total_checks", stats.TotalChecks).
		Float64("uptime_percentage", stats.UptimePercentage).
		Msg("website stats recomputed")
	return nil
}

func (a *Aggregator) lockFor(websiteID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.locks[websiteID]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[websiteID] = lock
	}
	return lock
}

// computeStats derives a stats record from a newest-first outcome window.
// Averages cover successful checks only.
func computeStats(websiteID string, outcomes []website.CheckOutcome) *website.Stats {
	stats := &website.Stats{
		WebsiteID:   websiteID,
		TotalChecks: len(outcomes),
	}

	var responseSum, loadSum float64
	for _, outcome := range outcomes {
		if outcome.Status == website.StatusSuccess {
			stats.SuccessfulChecks++
			responseSum += outcome.ResponseTime
			loadSum += outcome.LoadTime
		} else {
			stats.FailedChecks++
		}
	}

	if stats.SuccessfulChecks > 0 {
		stats.AverageResponseTime = responseSum / float64(stats.SuccessfulChecks)
		stats.AverageLoadTime = loadSum / float64(stats.SuccessfulChecks)
	}
	stats.UptimePercentage = float64(stats.SuccessfulChecks) / float64(stats.TotalChecks) * 100

	last := outcomes[0].Timestamp
	stats.LastCheck = &last
	return stats
}
