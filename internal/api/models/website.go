package models

import (
	"math"
	"time"

	"github.com/sitewatch/sitewatch/internal/website"
)

// RegisterWebsiteRequest is the body of POST /v1/websites.
type RegisterWebsiteRequest struct {
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
	Active *bool  `json:"is_active,omitempty"`
}

// ImportRequest is the body of POST /v1/websites/import.
type ImportRequest struct {
	URLs []string `json:"urls"`
}

// ImportResponse reports the result of a bulk import.
type ImportResponse struct {
	Created int `json:"created"`
}

// StatsResponse is the dashboard representation of rolling stats, with
// averages and uptime rounded for display.
type StatsResponse struct {
	TotalChecks         int     `json:"total_checks"`
	SuccessfulChecks    int     `json:"successful_checks"`
	FailedChecks        int     `json:"failed_checks"`
	AverageResponseTime float64 `json:"average_response_time"`
	AverageLoadTime     float64 `json:"average_load_time"`
	UptimePercentage    float64 `json:"uptime_percentage"`
	LastCheck           *string `json:"last_check"`
}

// OutcomeResponse is the API representation of one check outcome.
type OutcomeResponse struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	StatusCode   *int    `json:"status_code"`
	ResponseTime float64 `json:"response_time"`
	LoadTime     float64 `json:"load_time"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Timestamp    string  `json:"timestamp"`
}

// SnapshotResponse is one website entry of the dashboard listing.
type SnapshotResponse struct {
	ID            string           `json:"id"`
	URL           string           `json:"url"`
	Name          string           `json:"name"`
	Active        bool             `json:"is_active"`
	Stats         StatsResponse    `json:"stats"`
	LatestOutcome *OutcomeResponse `json:"latest_result"`
}

// WebsiteListResponse is the body of GET /v1/websites.
type WebsiteListResponse struct {
	Websites []SnapshotResponse `json:"websites"`
}

// OutcomeListResponse is the body of GET /v1/websites/{websiteID}/checks.
type OutcomeListResponse struct {
	Results []OutcomeResponse `json:"results"`
}

// RunCycleResponse is the body of POST /v1/checks/run.
type RunCycleResponse struct {
	Processed int               `json:"processed"`
	Duration  string            `json:"duration"`
	Outcomes  []CycleOutcomeRef `json:"outcomes"`
}

// CycleOutcomeRef is the per-website line of a cycle summary.
type CycleOutcomeRef struct {
	WebsiteID string `json:"website_id"`
	Status    string `json:"status"`
}

// NewSnapshotResponse converts a domain snapshot for the API.
func NewSnapshotResponse(snap website.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		ID:     snap.Website.ID,
		URL:    snap.Website.URL,
		Name:   snap.Website.Name,
		Active: snap.Website.Active,
		Stats: StatsResponse{
			TotalChecks:         snap.Stats.TotalChecks,
			SuccessfulChecks:    snap.Stats.SuccessfulChecks,
			FailedChecks:        snap.Stats.FailedChecks,
			AverageResponseTime: round2(snap.Stats.AverageResponseTime),
			AverageLoadTime:     round2(snap.Stats.AverageLoadTime),
			UptimePercentage:    round2(snap.Stats.UptimePercentage),
			LastCheck:           formatTimePtr(snap.Stats.LastCheck),
		},
	}
	if snap.LatestOutcome != nil {
		outcome := NewOutcomeResponse(*snap.LatestOutcome)
		resp.LatestOutcome = &outcome
	}
	return resp
}

// NewOutcomeResponse converts a domain outcome for the API.
func NewOutcomeResponse(outcome website.CheckOutcome) OutcomeResponse {
	return OutcomeResponse{
		ID:           outcome.ID,
		Status:       string(outcome.Status),
		StatusCode:   outcome.StatusCode,
		ResponseTime: outcome.ResponseTime,
		LoadTime:     outcome.LoadTime,
		ErrorMessage: outcome.ErrorMessage,
		Timestamp:    outcome.Timestamp.Format(time.RFC3339),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
