package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewatch/sitewatch/internal/monitor"
	"github.com/sitewatch/sitewatch/internal/website"
)

// scriptedRunner returns a canned status per website URL, panicking where
// the script says so.
type scriptedRunner struct {
	statuses map[string]website.Status
	panics   map[string]bool
}

func (r *scriptedRunner) Execute(_ context.Context, site website.Website) website.CheckOutcome {
	if r.panics[site.URL] {
		panic("scripted fault: " + site.URL)
	}

	status := r.statuses[site.URL]
	if status == "" {
		status = website.StatusSuccess
	}
	return website.CheckOutcome{
		ID:           uuid.NewString(),
		WebsiteID:    site.ID,
		Status:       status,
		ResponseTime: 0.1,
		LoadTime:     1.0,
		Timestamp:    time.Now().UTC(),
	}
}

// recordingNotifier collects published snapshots.
type recordingNotifier struct {
	mu     sync.Mutex
	events []website.Snapshot
}

func (n *recordingNotifier) WebsiteUpdated(_ context.Context, snapshot website.Snapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, snapshot)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) snapshots() []website.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]website.Snapshot(nil), n.events...)
}

func seedWebsites(t *testing.T, repo *website.InMemoryRepository, urls ...string) []website.Website {
	t.Helper()
	ctx := context.Background()

	sites := make([]website.Website, 0, len(urls))
	for i, url := range urls {
		site := website.Website{
			ID:     uuid.NewString(),
			URL:    url,
			Name:   string(rune('a' + i)),
			Active: true,
		}
		require.NoError(t, repo.CreateWebsite(ctx, &site))
		sites = append(sites, site)
	}
	return sites
}

func newOrchestrator(repo *website.InMemoryRepository, runner monitor.CheckRunner, notifier *recordingNotifier) *monitor.Orchestrator {
	cfg := monitor.OrchestratorConfig{
		Executor:   runner,
		Repository: repo,
		Aggregator: monitor.NewAggregator(repo, 100, zerolog.Nop()),
		PoolSize:   3,
		Logger:     zerolog.Nop(),
	}
	if notifier != nil {
		cfg.Notifier = notifier
	}
	return monitor.NewOrchestrator(cfg)
}

func TestOrchestrator_RunCycle(t *testing.T) {
	repo := website.NewInMemoryRepository()
	sites := seedWebsites(t, repo,
		"https://one.example.com",
		"https://two.example.com",
		"https://three.example.com",
	)

	runner := &scriptedRunner{statuses: map[string]website.Status{
		"https://two.example.com": website.StatusTimeout,
	}}
	notifier := &recordingNotifier{}
	orch := newOrchestrator(repo, runner, notifier)

	outcomes := orch.RunCycle(context.Background(), sites)
	require.Len(t, outcomes, len(sites))

	// Every website got exactly one persisted outcome and a stats row
	ctx := context.Background()
	for _, site := range sites {
		stored, err := repo.LatestOutcomes(ctx, site.ID, 10)
		require.NoError(t, err)
		require.Len(t, stored, 1, "website %s", site.URL)

		stats, err := repo.GetStats(ctx, site.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalChecks)
	}

	failed, err := repo.GetStats(ctx, sites[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, failed.FailedChecks)
	assert.Zero(t, failed.UptimePercentage)

	// One update event per website, carrying fresh stats
	events := notifier.snapshots()
	require.Len(t, events, len(sites))
	for _, event := range events {
		assert.Equal(t, 1, event.Stats.TotalChecks)
		require.NotNil(t, event.LatestOutcome)
		assert.Equal(t, event.Website.ID, event.LatestOutcome.WebsiteID)
	}
}

func TestOrchestrator_RunCycle_PanicBecomesConnectionError(t *testing.T) {
	repo := website.NewInMemoryRepository()
	sites := seedWebsites(t, repo,
		"https://ok.example.com",
		"https://boom.example.com",
	)

	runner := &scriptedRunner{panics: map[string]bool{
		"https://boom.example.com": true,
	}}
	orch := newOrchestrator(repo, runner, nil)

	outcomes := orch.RunCycle(context.Background(), sites)
	require.Len(t, outcomes, 2)

	byWebsite := make(map[string]website.CheckOutcome, len(outcomes))
	for _, outcome := range outcomes {
		byWebsite[outcome.WebsiteID] = outcome
	}

	// The faulting website still yields a classified, persisted outcome
	faulted := byWebsite[sites[1].ID]
	assert.Equal(t, website.StatusConnectionError, faulted.Status)
	assert.Contains(t, faulted.ErrorMessage, "worker fault")

	stored, err := repo.LatestOutcomes(context.Background(), sites[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, website.StatusConnectionError, stored[0].Status)

	// The healthy website is unaffected
	assert.Equal(t, website.StatusSuccess, byWebsite[sites[0].ID].Status)
}

func TestOrchestrator_RunCycle_NoWebsites(t *testing.T) {
	repo := website.NewInMemoryRepository()
	orch := newOrchestrator(repo, &scriptedRunner{}, nil)

	outcomes := orch.RunCycle(context.Background(), nil)
	assert.Empty(t, outcomes)
}

func TestOrchestrator_RunAll(t *testing.T) {
	repo := website.NewInMemoryRepository()
	seedWebsites(t, repo, "https://one.example.com", "https://two.example.com")

	// An inactive website must not be checked
	require.NoError(t, repo.CreateWebsite(context.Background(), &website.Website{
		ID:  uuid.NewString(),
		URL: "https://paused.example.com",
	}))

	orch := newOrchestrator(repo, &scriptedRunner{}, nil)

	outcomes, err := orch.RunAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
}
