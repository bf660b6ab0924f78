package website_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewatch/sitewatch/internal/website"
)

func newService() (*website.Service, *website.InMemoryRepository) {
	repo := website.NewInMemoryRepository()
	return website.NewService(repo, zerolog.Nop()), repo
}

func TestService_Register(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	site, err := svc.Register(ctx, "https://example.com/status", "", true)
	require.NoError(t, err)
	assert.NotEmpty(t, site.ID)
	assert.Equal(t, "https://example.com/status", site.URL)
	assert.True(t, site.Active)

	// Name derives from the last path segment
	assert.Equal(t, "status", site.Name)

	// A fresh website starts with a zeroed stats row
	stats, err := repo.GetStats(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalChecks)
	assert.Zero(t, stats.UptimePercentage)
	assert.Nil(t, stats.LastCheck)
}

func TestService_Register_NameFallsBackToHost(t *testing.T) {
	svc, _ := newService()

	site, err := svc.Register(context.Background(), "https://example.com/", "", true)
	require.NoError(t, err)
	assert.Equal(t, "example.com", site.Name)
}

func TestService_Register_ExplicitNameWins(t *testing.T) {
	svc, _ := newService()

	site, err := svc.Register(context.Background(), "https://example.com", "Homepage", true)
	require.NoError(t, err)
	assert.Equal(t, "Homepage", site.Name)
}

func TestService_Register_InvalidURL(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cases := []string{
		"",
		"not a url",
		"ftp://example.com",
		"https://",
	}
	for _, rawURL := range cases {
		_, err := svc.Register(ctx, rawURL, "", true)
		assert.ErrorIs(t, err, website.ErrInvalidURL, "url %q", rawURL)
	}
}

func TestService_Register_DuplicateURL(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "https://example.com", "", true)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "https://example.com", "", true)
	assert.ErrorIs(t, err, website.ErrDuplicateURL)
}

func TestService_Import(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	created, err := svc.Import(ctx, []string{
		"https://example.com",
		"https://example.org/docs",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	sites, err := repo.ListActiveWebsites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 2)

	// Imported websites carry zeroed stats rows
	for _, site := range sites {
		stats, err := repo.GetStats(ctx, site.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalChecks)
	}
}

func TestService_Import_Idempotent(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	urls := []string{"https://example.com", "https://example.org"}

	created, err := svc.Import(ctx, urls)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	// Re-importing the same list creates nothing new
	created, err = svc.Import(ctx, urls)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	sites, err := repo.ListWebsites(ctx)
	require.NoError(t, err)
	assert.Len(t, sites, 2)
}

func TestService_Import_DuplicateWithinPayload(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	created, err := svc.Import(ctx, []string{
		"https://example.com",
		"https://example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	sites, err := repo.ListWebsites(ctx)
	require.NoError(t, err)
	assert.Len(t, sites, 1)
}

func TestService_Import_SkipsInvalidURLs(t *testing.T) {
	svc, _ := newService()

	created, err := svc.Import(context.Background(), []string{
		"https://example.com",
		"not a url",
		"ftp://example.org",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestService_Outcomes(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	site, err := svc.Register(ctx, "https://example.com", "", true)
	require.NoError(t, err)

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		code := 200
		err := repo.AppendOutcome(ctx, &website.CheckOutcome{
			ID:         string(rune('a' + i)),
			WebsiteID:  site.ID,
			Status:     website.StatusSuccess,
			StatusCode: &code,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	outcomes, err := svc.Outcomes(ctx, site.ID, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// Newest first
	assert.Equal(t, "c", outcomes[0].ID)
	assert.Equal(t, "b", outcomes[1].ID)
}

func TestService_Outcomes_UnknownWebsite(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Outcomes(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, website.ErrWebsiteNotFound)
}

func TestService_Snapshots(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	active, err := svc.Register(ctx, "https://example.com", "Alpha", true)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "https://example.org", "Beta", false)
	require.NoError(t, err)

	now := time.Now().UTC()
	code := 200
	require.NoError(t, repo.AppendOutcome(ctx, &website.CheckOutcome{
		ID:         "o1",
		WebsiteID:  active.ID,
		Status:     website.StatusSuccess,
		StatusCode: &code,
		Timestamp:  now,
	}))
	require.NoError(t, repo.UpsertStats(ctx, &website.Stats{
		WebsiteID:        active.ID,
		TotalChecks:      1,
		SuccessfulChecks: 1,
		UptimePercentage: 100,
		LastCheck:        &now,
	}))

	snapshots, err := svc.Snapshots(ctx)
	require.NoError(t, err)

	// Inactive websites are excluded from the dashboard
	require.Len(t, snapshots, 1)
	snap := snapshots[0]
	assert.Equal(t, active.ID, snap.Website.ID)
	assert.Equal(t, 1, snap.Stats.TotalChecks)
	require.NotNil(t, snap.LatestOutcome)
	assert.Equal(t, "o1", snap.LatestOutcome.ID)
}
