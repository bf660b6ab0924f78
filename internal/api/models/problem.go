// Package models defines request and response shapes for the sitewatch API.
package models

import (
	"encoding/json"
	"net/http"
)

// Problem represents an RFC7807 error response, written with
// Content-Type: application/problem+json.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// TraceID is the request identifier for correlation.
	TraceID string `json:"traceId"`
}

// Problem type URIs.
const (
	ProblemTypeValidation      = "https://api.sitewatch.dev/problems/validation-error"
	ProblemTypeNotFound        = "https://api.sitewatch.dev/problems/not-found"
	ProblemTypeConflict        = "https://api.sitewatch.dev/problems/conflict"
	ProblemTypeTooManyRequests = "https://api.sitewatch.dev/problems/too-many-requests"
	ProblemTypeInternal        = "https://api.sitewatch.dev/problems/internal-error"
)

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 Bad Request problem.
func NewBadRequest(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeValidation,
		Title:   "Validation error",
		Status:  http.StatusBadRequest,
		Detail:  detail,
		TraceID: traceID,
	}
}

// NewNotFound creates a 404 Not Found problem.
func NewNotFound(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeNotFound,
		Title:   "Not found",
		Status:  http.StatusNotFound,
		Detail:  detail,
		TraceID: traceID,
	}
}

// NewConflict creates a 409 Conflict problem.
func NewConflict(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeConflict,
		Title:   "Conflict",
		Status:  http.StatusConflict,
		Detail:  detail,
		TraceID: traceID,
	}
}

// NewTooManyRequests creates a 429 Too Many Requests problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeTooManyRequests,
		Title:   "Too many requests",
		Status:  http.StatusTooManyRequests,
		Detail:  detail,
		TraceID: traceID,
	}
}

// NewInternalError creates a 500 Internal Server Error problem.
func NewInternalError(traceID, detail string) *Problem {
	return &Problem{
		Type:    ProblemTypeInternal,
		Title:   "Internal server error",
		Status:  http.StatusInternalServerError,
		Detail:  detail,
		TraceID: traceID,
	}
}
