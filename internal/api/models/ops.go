package models

import "time"

// Health status values.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// Health is the body of the liveness and readiness endpoints.
type Health struct {
	Status  string         `json:"status"`
	Time    time.Time      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}
