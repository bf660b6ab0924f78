package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewatch/sitewatch/internal/monitor"
	"github.com/sitewatch/sitewatch/internal/website"
	"github.com/sitewatch/sitewatch/internal/worker"
)

type staticRunner struct {
	status website.Status
}

func (r staticRunner) Execute(_ context.Context, site website.Website) website.CheckOutcome {
	return website.CheckOutcome{
		ID:        uuid.NewString(),
		WebsiteID: site.ID,
		Status:    r.status,
		Timestamp: time.Now().UTC(),
	}
}

func TestRunner_RunOnce(t *testing.T) {
	repo := website.NewInMemoryRepository()
	ctx := context.Background()

	for _, url := range []string{"https://one.example.com", "https://two.example.com"} {
		require.NoError(t, repo.CreateWebsite(ctx, &website.Website{
			ID:     uuid.NewString(),
			URL:    url,
			Active: true,
		}))
	}

	orch := monitor.NewOrchestrator(monitor.OrchestratorConfig{
		Executor:   staticRunner{status: website.StatusSuccess},
		Repository: repo,
		Aggregator: monitor.NewAggregator(repo, 100, zerolog.Nop()),
		Logger:     zerolog.Nop(),
	})
	runner := worker.NewRunner(orch, time.Minute, zerolog.Nop())

	result, err := runner.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Len(t, result.Outcomes, 2)
	assert.False(t, result.StartTime.IsZero())
	for _, entry := range result.Outcomes {
		assert.Equal(t, website.StatusSuccess, entry.Status)
		assert.NotEmpty(t, entry.WebsiteID)
	}
}

func TestRunner_RunOnce_EmptyRegistry(t *testing.T) {
	repo := website.NewInMemoryRepository()

	orch := monitor.NewOrchestrator(monitor.OrchestratorConfig{
		Executor:   staticRunner{status: website.StatusSuccess},
		Repository: repo,
		Aggregator: monitor.NewAggregator(repo, 100, zerolog.Nop()),
		Logger:     zerolog.Nop(),
	})
	runner := worker.NewRunner(orch, time.Minute, zerolog.Nop())

	result, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, result.Outcomes)
}
