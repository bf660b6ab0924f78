package website

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidURL is returned when a registration URL cannot be parsed or is
// missing a scheme or host.
var ErrInvalidURL = errors.New("invalid website URL")

// Service provides website registration, bulk import, and dashboard snapshot
// assembly on top of a Repository.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new website service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register creates a single website with a freshly zeroed stats row.
// The display name defaults to a name derived from the URL.
func (s *Service) Register(ctx context.Context, rawURL, name string, active bool) (*Website, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	if name == "" {
		name = displayName(rawURL)
	}

	now := time.Now().UTC()
	site := &Website{
		ID:        uuid.NewString(),
		URL:       rawURL,
		Name:      name,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateWebsite(ctx, site); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertStats(ctx, &Stats{WebsiteID: site.ID}); err != nil {
		return nil, fmt.Errorf("initialize stats: %w", err)
	}

	s.logger.Info().Str("website_id", site.ID).Str("url", site.URL).Msg("website registered")
	return site, nil
}

// Import bulk-registers a list of URLs. The operation is idempotent: URLs
// that are already registered (or repeated within the list) are skipped, and
// only missing websites are created, each with a zeroed stats row. Returns
// the number of websites created.
func (s *Service) Import(ctx context.Context, urls []string) (int, error) {
	created := 0
	seen := make(map[string]struct{}, len(urls))

	for _, rawURL := range urls {
		rawURL = strings.TrimSpace(rawURL)
		if _, ok := seen[rawURL]; ok {
			continue
		}
		seen[rawURL] = struct{}{}

		if err := validateURL(rawURL); err != nil {
			s.logger.Warn().Str("url", rawURL).Msg("skipping invalid import URL")
			continue
		}

		if _, err := s.repo.GetWebsiteByURL(ctx, rawURL); err == nil {
			continue
		} else if !errors.Is(err, ErrWebsiteNotFound) {
			return created, fmt.Errorf("look up %q: %w", rawURL, err)
		}

		if _, err := s.Register(ctx, rawURL, "", true); err != nil {
			// A concurrent import may have created it between the lookup
			// and the insert.
			if errors.Is(err, ErrDuplicateURL) {
				continue
			}
			return created, fmt.Errorf("register %q: %w", rawURL, err)
		}
		created++
	}

	s.logger.Info().Int("urls", len(urls)).Int("created", created).Msg("website import completed")
	return created, nil
}

// ListActive returns all websites with the active flag set.
func (s *Service) ListActive(ctx context.Context) ([]Website, error) {
	return s.repo.ListActiveWebsites(ctx)
}

// Outcomes returns the most recent outcomes for a website, newest first.
func (s *Service) Outcomes(ctx context.Context, websiteID string, limit int) ([]CheckOutcome, error) {
	if _, err := s.repo.GetWebsite(ctx, websiteID); err != nil {
		return nil, err
	}
	return s.repo.LatestOutcomes(ctx, websiteID, limit)
}

// Snapshot assembles the dashboard view of one website.
func (s *Service) Snapshot(ctx context.Context, websiteID string) (*Snapshot, error) {
	site, err := s.repo.GetWebsite(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	return s.snapshotFor(ctx, *site)
}

// Snapshots assembles the dashboard view of all active websites.
func (s *Service) Snapshots(ctx context.Context) ([]Snapshot, error) {
	sites, err := s.repo.ListActiveWebsites(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(sites))
	for _, site := range sites {
		snap, err := s.snapshotFor(ctx, site)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, nil
}

func (s *Service) snapshotFor(ctx context.Context, site Website) (*Snapshot, error) {
	stats, err := s.repo.GetStats(ctx, site.ID)
	if err != nil {
		return nil, fmt.Errorf("stats for %s: %w", site.ID, err)
	}

	snap := &Snapshot{Website: site, Stats: *stats}

	latest, err := s.repo.LatestOutcomes(ctx, site.ID, 1)
	if err != nil {
		return nil, fmt.Errorf("latest outcome for %s: %w", site.ID, err)
	}
	if len(latest) > 0 {
		snap.LatestOutcome = &latest[0]
	}
	return snap, nil
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// displayName derives a human-readable name from a URL: the last non-empty
// path segment, falling back to the host.
func displayName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if last := segments[len(segments)-1]; last != "" {
		return last
	}
	return parsed.Host
}
