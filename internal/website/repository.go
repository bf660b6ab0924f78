package website

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Repository errors.
var (
	ErrWebsiteNotFound = errors.New("website not found")
	ErrDuplicateURL    = errors.New("website URL already registered")
)

// Repository is the persistence contract for websites, check outcomes, and
// derived stats. Outcomes are append-only; the stats row for a website is
// overwritten wholesale on every recomputation.
type Repository interface {
	// CreateWebsite registers a new website. Returns ErrDuplicateURL if a
	// website with the same URL already exists.
	CreateWebsite(ctx context.Context, site *Website) error

	// GetWebsite retrieves a website by ID.
	GetWebsite(ctx context.Context, id string) (*Website, error)

	// GetWebsiteByURL retrieves a website by its unique URL.
	GetWebsiteByURL(ctx context.Context, url string) (*Website, error)

	// ListWebsites returns all registered websites.
	ListWebsites(ctx context.Context) ([]Website, error)

	// ListActiveWebsites returns the subset of websites with the active flag set.
	ListActiveWebsites(ctx context.Context) ([]Website, error)

	// AppendOutcome records a check outcome. Outcomes are never updated.
	AppendOutcome(ctx context.Context, outcome *CheckOutcome) error

	// LatestOutcomes returns up to limit outcomes for a website, newest first.
	LatestOutcomes(ctx context.Context, websiteID string, limit int) ([]CheckOutcome, error)

	// GetStats retrieves the stats row for a website. Returns a zero-valued
	// Stats if the website has never had stats written.
	GetStats(ctx context.Context, websiteID string) (*Stats, error)

	// UpsertStats creates or replaces the stats row for a website.
	UpsertStats(ctx context.Context, stats *Stats) error
}

// InMemoryRepository is an in-memory implementation of Repository, used in
// tests and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	websites map[string]*Website
	byURL    map[string]string
	outcomes map[string][]CheckOutcome
	stats    map[string]*Stats
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		websites: make(map[string]*Website),
		byURL:    make(map[string]string),
		outcomes: make(map[string][]CheckOutcome),
		stats:    make(map[string]*Stats),
	}
}

// CreateWebsite registers a new website.
func (r *InMemoryRepository) CreateWebsite(_ context.Context, site *Website) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byURL[site.URL]; ok {
		return ErrDuplicateURL
	}

	cp := *site
	r.websites[site.ID] = &cp
	r.byURL[site.URL] = site.ID
	return nil
}

// GetWebsite retrieves a website by ID.
func (r *InMemoryRepository) GetWebsite(_ context.Context, id string) (*Website, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	site, ok := r.websites[id]
	if !ok {
		return nil, ErrWebsiteNotFound
	}
	cp := *site
	return &cp, nil
}

// GetWebsiteByURL retrieves a website by URL.
func (r *InMemoryRepository) GetWebsiteByURL(_ context.Context, url string) (*Website, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byURL[url]
	if !ok {
		return nil, ErrWebsiteNotFound
	}
	cp := *r.websites[id]
	return &cp, nil
}

// ListWebsites returns all websites ordered by name, then URL.
func (r *InMemoryRepository) ListWebsites(_ context.Context) ([]Website, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedWebsites(false), nil
}

// ListActiveWebsites returns active websites ordered by name, then URL.
func (r *InMemoryRepository) ListActiveWebsites(_ context.Context) ([]Website, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedWebsites(true), nil
}

func (r *InMemoryRepository) sortedWebsites(activeOnly bool) []Website {
	sites := make([]Website, 0, len(r.websites))
	for _, site := range r.websites {
		if activeOnly && !site.Active {
			continue
		}
		sites = append(sites, *site)
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Name != sites[j].Name {
			return sites[i].Name < sites[j].Name
		}
		return sites[i].URL < sites[j].URL
	})
	return sites
}

// AppendOutcome records a check outcome.
func (r *InMemoryRepository) AppendOutcome(_ context.Context, outcome *CheckOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.websites[outcome.WebsiteID]; !ok {
		return ErrWebsiteNotFound
	}
	r.outcomes[outcome.WebsiteID] = append(r.outcomes[outcome.WebsiteID], *outcome)
	return nil
}

// LatestOutcomes returns up to limit outcomes for a website, newest first.
func (r *InMemoryRepository) LatestOutcomes(_ context.Context, websiteID string, limit int) ([]CheckOutcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.outcomes[websiteID]
	result := make([]CheckOutcome, len(stored))
	copy(result, stored)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetStats retrieves the stats row for a website, zero-valued if absent.
func (r *InMemoryRepository) GetStats(_ context.Context, websiteID string) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stats, ok := r.stats[websiteID]; ok {
		cp := *stats
		return &cp, nil
	}
	return &Stats{WebsiteID: websiteID}, nil
}

// UpsertStats creates or replaces the stats row for a website.
func (r *InMemoryRepository) UpsertStats(_ context.Context, stats *Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *stats
	r.stats[stats.WebsiteID] = &cp
	return nil
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
