package handler

import (
	"net/http"

	"github.com/sitewatch/sitewatch/internal/api/models"
	"github.com/sitewatch/sitewatch/internal/api/response"
	"github.com/sitewatch/sitewatch/internal/worker"
)

// ChecksHandler handles on-demand check cycle endpoints.
type ChecksHandler struct {
	runner *worker.Runner
}

// NewChecksHandler creates a new ChecksHandler.
func NewChecksHandler(runner *worker.Runner) *ChecksHandler {
	return &ChecksHandler{runner: runner}
}

// RunCycle handles POST /v1/checks/run - run one check cycle over all active
// websites synchronously and return the summary.
func (h *ChecksHandler) RunCycle(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.RunOnce(r.Context())
	if err != nil {
		response.InternalError(w, r, "check cycle failed")
		return
	}

	resp := models.RunCycleResponse{
		Processed: result.Processed,
		Duration:  result.Duration.String(),
		Outcomes:  make([]models.CycleOutcomeRef, 0, len(result.Outcomes)),
	}
	for _, entry := range result.Outcomes {
		resp.Outcomes = append(resp.Outcomes, models.CycleOutcomeRef{
			WebsiteID: entry.WebsiteID,
			Status:    string(entry.Status),
		})
	}
	response.JSON(w, r, http.StatusOK, resp)
}
