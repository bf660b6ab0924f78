// Package website defines the monitored-website domain model and its
// persistence contract.
package website

import "time"

// Status classifies the result of a single health check.
//
// The split between StatusError and StatusConnectionError is deliberate:
// error means the check ran and failed, connection_error means the check
// could not be run at all (no browser session, worker fault).
type Status string

const (
	StatusSuccess         Status = "success"
	StatusError           Status = "error"
	StatusTimeout         Status = "timeout"
	StatusConnectionError Status = "connection_error"
)

// Valid reports whether s is one of the known classifications.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusError, StatusTimeout, StatusConnectionError:
		return true
	}
	return false
}

// Website is a monitored target. Websites are read-only inputs to a check
// cycle; only administrative operations mutate them.
type Website struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckOutcome is one classified result of checking a website at a point in
// time. Outcomes are append-only and never mutated after creation.
type CheckOutcome struct {
	ID        string `json:"id"`
	WebsiteID string `json:"website_id"`

	// StatusCode is the HTTP status from the network probe. Nil when the
	// network probe failed.
	StatusCode *int `json:"status_code,omitempty"`

	// ResponseTime is the network probe duration in seconds. Zero when the
	// network probe failed.
	ResponseTime float64 `json:"response_time"`

	// LoadTime is the render probe duration in seconds, including the
	// post-navigation settle interval.
	LoadTime float64 `json:"load_time"`

	Status         Status    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
}

// Stats is the rolling health record for a website, derived wholesale from
// the most recent outcome window. It is recomputable at any time and never
// independently authoritative.
//
// Invariants: SuccessfulChecks+FailedChecks == TotalChecks, and
// UptimePercentage == SuccessfulChecks/TotalChecks*100 when TotalChecks > 0.
type Stats struct {
	WebsiteID        string `json:"website_id"`
	TotalChecks      int    `json:"total_checks"`
	SuccessfulChecks int    `json:"successful_checks"`
	FailedChecks     int    `json:"failed_checks"`

	// Averages cover successful checks only.
	AverageResponseTime float64 `json:"average_response_time"`
	AverageLoadTime     float64 `json:"average_load_time"`

	UptimePercentage float64    `json:"uptime_percentage"`
	LastCheck        *time.Time `json:"last_check,omitempty"`
}

// Snapshot is the dashboard view of a website: the website itself, its
// current stats, and its most recent outcome (nil if never checked).
type Snapshot struct {
	Website       Website       `json:"website"`
	Stats         Stats         `json:"stats"`
	LatestOutcome *CheckOutcome `json:"latest_outcome,omitempty"`
}
