package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewatch/sitewatch/internal/monitor"
	"github.com/sitewatch/sitewatch/internal/website"
)

func seedOutcomes(t *testing.T, repo *website.InMemoryRepository, websiteID string, outcomes []website.CheckOutcome) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.CreateWebsite(ctx, &website.Website{ID: websiteID, URL: "https://" + websiteID + ".example.com"}))
	for i := range outcomes {
		outcomes[i].WebsiteID = websiteID
		require.NoError(t, repo.AppendOutcome(ctx, &outcomes[i]))
	}
}

func TestAggregator_Recompute(t *testing.T) {
	repo := website.NewInMemoryRepository()
	base := time.Now().UTC()

	seedOutcomes(t, repo, "w1", []website.CheckOutcome{
		{ID: "a", Status: website.StatusSuccess, ResponseTime: 0.2, LoadTime: 1.0, Timestamp: base},
		{ID: "b", Status: website.StatusSuccess, ResponseTime: 0.4, LoadTime: 3.0, Timestamp: base.Add(time.Minute)},
		{ID: "c", Status: website.StatusTimeout, ResponseTime: 9.9, LoadTime: 30.0, Timestamp: base.Add(2 * time.Minute)},
		{ID: "d", Status: website.StatusError, Timestamp: base.Add(3 * time.Minute)},
	})

	agg := monitor.NewAggregator(repo, 100, zerolog.Nop())
	require.NoError(t, agg.Recompute(context.Background(), "w1"))

	stats, err := repo.GetStats(context.Background(), "w1")
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalChecks)
	assert.Equal(t, 2, stats.SuccessfulChecks)
	assert.Equal(t, 2, stats.FailedChecks)

	// Averages cover successful checks only
	assert.InDelta(t, 0.3, stats.AverageResponseTime, 1e-9)
	assert.InDelta(t, 2.0, stats.AverageLoadTime, 1e-9)
	assert.InDelta(t, 50.0, stats.UptimePercentage, 1e-9)

	require.NotNil(t, stats.LastCheck)
	assert.Equal(t, base.Add(3*time.Minute), *stats.LastCheck)
}

func TestAggregator_Recompute_WindowBound(t *testing.T) {
	repo := website.NewInMemoryRepository()
	base := time.Now().UTC()

	// Oldest outcome is a failure that must fall outside the window
	outcomes := []website.CheckOutcome{
		{ID: "old", Status: website.StatusError, Timestamp: base},
	}
	for i := 0; i < 3; i++ {
		outcomes = append(outcomes, website.CheckOutcome{
			ID:           string(rune('a' + i)),
			Status:       website.StatusSuccess,
			ResponseTime: 0.1,
			LoadTime:     1.0,
			Timestamp:    base.Add(time.Duration(i+1) * time.Minute),
		})
	}
	seedOutcomes(t, repo, "w1", outcomes)

	agg := monitor.NewAggregator(repo, 3, zerolog.Nop())
	require.NoError(t, agg.Recompute(context.Background(), "w1"))

	stats, err := repo.GetStats(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChecks)
	assert.Equal(t, 0, stats.FailedChecks)
	assert.InDelta(t, 100.0, stats.UptimePercentage, 1e-9)
}

func TestAggregator_Recompute_Idempotent(t *testing.T) {
	repo := website.NewInMemoryRepository()
	base := time.Now().UTC()

	seedOutcomes(t, repo, "w1", []website.CheckOutcome{
		{ID: "a", Status: website.StatusSuccess, ResponseTime: 0.25, LoadTime: 1.5, Timestamp: base},
		{ID: "b", Status: website.StatusError, Timestamp: base.Add(time.Minute)},
	})

	agg := monitor.NewAggregator(repo, 100, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, agg.Recompute(ctx, "w1"))
	first, err := repo.GetStats(ctx, "w1")
	require.NoError(t, err)

	require.NoError(t, agg.Recompute(ctx, "w1"))
	second, err := repo.GetStats(ctx, "w1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregator_Recompute_NoOutcomes(t *testing.T) {
	repo := website.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateWebsite(ctx, &website.Website{ID: "w1", URL: "https://example.com"}))
	require.NoError(t, repo.UpsertStats(ctx, &website.Stats{WebsiteID: "w1"}))

	agg := monitor.NewAggregator(repo, 100, zerolog.Nop())
	require.NoError(t, agg.Recompute(ctx, "w1"))

	// With no outcomes the stats row stays at its zero state
	stats, err := repo.GetStats(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChecks)
	assert.Zero(t, stats.UptimePercentage)
	assert.Nil(t, stats.LastCheck)
}

func TestAggregator_Recompute_Concurrent(t *testing.T) {
	repo := website.NewInMemoryRepository()
	base := time.Now().UTC()

	seedOutcomes(t, repo, "w1", []website.CheckOutcome{
		{ID: "a", Status: website.StatusSuccess, ResponseTime: 0.1, LoadTime: 1.0, Timestamp: base},
		{ID: "b", Status: website.StatusSuccess, ResponseTime: 0.3, LoadTime: 2.0, Timestamp: base.Add(time.Minute)},
	})

	agg := monitor.NewAggregator(repo, 100, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, agg.Recompute(ctx, "w1"))
		}()
	}
	wg.Wait()

	stats, err := repo.GetStats(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalChecks)
	assert.InDelta(t, 100.0, stats.UptimePercentage, 1e-9)
}
