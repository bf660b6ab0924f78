package website

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL website repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateWebsite registers a new website.
func (r *PostgresRepository) CreateWebsite(ctx context.Context, site *Website) error {
	query := `
		INSERT INTO websites (id, url, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		site.ID,
		site.URL,
		site.Name,
		site.Active,
		site.CreatedAt,
		site.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation on websites.url
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateURL
		}
		return err
	}
	return nil
}

// GetWebsite retrieves a website by ID.
func (r *PostgresRepository) GetWebsite(ctx context.Context, id string) (*Website, error) {
	query := `
		SELECT id, url, name, is_active, created_at, updated_at
		FROM websites
		WHERE id = $1
	`
	return r.scanWebsite(r.pool.QueryRow(ctx, query, id))
}

// GetWebsiteByURL retrieves a website by its unique URL.
func (r *PostgresRepository) GetWebsiteByURL(ctx context.Context, url string) (*Website, error) {
	query := `
		SELECT id, url, name, is_active, created_at, updated_at
		FROM websites
		WHERE url = $1
	`
	return r.scanWebsite(r.pool.QueryRow(ctx, query, url))
}

func (r *PostgresRepository) scanWebsite(row pgx.Row) (*Website, error) {
	var site Website
	err := row.Scan(
		&site.ID,
		&site.URL,
		&site.Name,
		&site.Active,
		&site.CreatedAt,
		&site.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWebsiteNotFound
		}
		return nil, err
	}
	return &site, nil
}

// ListWebsites returns all websites ordered by name, then URL.
func (r *PostgresRepository) ListWebsites(ctx context.Context) ([]Website, error) {
	query := `
		SELECT id, url, name, is_active, created_at, updated_at
		FROM websites
		ORDER BY name, url
	`
	return r.queryWebsites(ctx, query)
}

// ListActiveWebsites returns active websites ordered by name, then URL.
func (r *PostgresRepository) ListActiveWebsites(ctx context.Context) ([]Website, error) {
	query := `
		SELECT id, url, name, is_active, created_at, updated_at
		FROM websites
		WHERE is_active
		ORDER BY name, url
	`
	return r.queryWebsites(ctx, query)
}

func (r *PostgresRepository) queryWebsites(ctx context.Context, query string, args ...any) ([]Website, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []Website
	for rows.Next() {
		var site Website
		if err := rows.Scan(
			&site.ID,
			&site.URL,
			&site.Name,
			&site.Active,
			&site.CreatedAt,
			&site.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// AppendOutcome records a check outcome.
func (r *PostgresRepository) AppendOutcome(ctx context.Context, outcome *CheckOutcome) error {
	query := `
		INSERT INTO check_outcomes (
			id, website_id, status_code, response_time, load_time,
			status, error_message, screenshot_path, checked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		outcome.ID,
		outcome.WebsiteID,
		outcome.StatusCode,
		outcome.ResponseTime,
		outcome.LoadTime,
		string(outcome.Status),
		outcome.ErrorMessage,
		outcome.ScreenshotPath,
		outcome.Timestamp,
	)
	return err
}

// LatestOutcomes returns up to limit outcomes for a website, newest first.
func (r *PostgresRepository) LatestOutcomes(ctx context.Context, websiteID string, limit int) ([]CheckOutcome, error) {
	query := `
		SELECT id, website_id, status_code, response_time, load_time,
			status, error_message, screenshot_path, checked_at
		FROM check_outcomes
		WHERE website_id = $1
		ORDER BY checked_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, websiteID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []CheckOutcome
	for rows.Next() {
		var outcome CheckOutcome
		var status string
		if err := rows.Scan(
			&outcome.ID,
			&outcome.WebsiteID,
			&outcome.StatusCode,
			&outcome.ResponseTime,
			&outcome.LoadTime,
			&status,
			&outcome.ErrorMessage,
			&outcome.ScreenshotPath,
			&outcome.Timestamp,
		); err != nil {
			return nil, err
		}
		outcome.Status = Status(status)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

// GetStats retrieves the stats row for a website, zero-valued if absent.
func (r *PostgresRepository) GetStats(ctx context.Context, websiteID string) (*Stats, error) {
	query := `
		SELECT website_id, total_checks, successful_checks, failed_checks,
			average_response_time, average_load_time, uptime_percentage, last_check
		FROM website_stats
		WHERE website_id = $1
	`

	var stats Stats
	err := r.pool.QueryRow(ctx, query, websiteID).Scan(
		&stats.WebsiteID,
		&stats.TotalChecks,
		&stats.SuccessfulChecks,
		&stats.FailedChecks,
		&stats.AverageResponseTime,
		&stats.AverageLoadTime,
		&stats.UptimePercentage,
		&stats.LastCheck,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Stats{WebsiteID: websiteID}, nil
		}
		return nil, err
	}
	return &stats, nil
}

// UpsertStats creates or replaces the stats row for a website.
func (r *PostgresRepository) UpsertStats(ctx context.Context, stats *Stats) error {
	query := `
		INSERT INTO website_stats (
			website_id, total_checks, successful_checks, failed_checks,
			average_response_time, average_load_time, uptime_percentage, last_check
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (website_id) DO UPDATE SET
			total_checks = EXCLUDED.total_checks,
			successful_checks = EXCLUDED.successful_checks,
			failed_checks = EXCLUDED.failed_checks,
			average_response_time = EXCLUDED.average_response_time,
			average_load_time = EXCLUDED.average_load_time,
			uptime_percentage = EXCLUDED.uptime_percentage,
			last_check = EXCLUDED.last_check
	`

	_, err := r.pool.Exec(ctx, query,
		stats.WebsiteID,
		stats.TotalChecks,
		stats.SuccessfulChecks,
		stats.FailedChecks,
		stats.AverageResponseTime,
		stats.AverageLoadTime,
		stats.UptimePercentage,
		stats.LastCheck,
	)
	return err
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
