package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sitewatch/sitewatch/internal/api/models"
	"github.com/sitewatch/sitewatch/internal/api/response"
	"github.com/sitewatch/sitewatch/internal/website"
)

// DefaultOutcomeLimit bounds GET /v1/websites/{websiteID}/checks when no
// limit query parameter is given.
const DefaultOutcomeLimit = 50

// MaxOutcomeLimit is the hard cap on the limit query parameter.
const MaxOutcomeLimit = 100

// WebsitesHandler handles website registration and listing endpoints.
type WebsitesHandler struct {
	service *website.Service
}

// NewWebsitesHandler creates a new WebsitesHandler.
func NewWebsitesHandler(service *website.Service) *WebsitesHandler {
	return &WebsitesHandler{service: service}
}

// ListWebsites handles GET /v1/websites - dashboard listing of all active
// websites with their rolling stats and latest check.
func (h *WebsitesHandler) ListWebsites(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.service.Snapshots(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to list websites")
		return
	}

	resp := models.WebsiteListResponse{
		Websites: make([]models.SnapshotResponse, 0, len(snapshots)),
	}
	for _, snap := range snapshots {
		resp.Websites = append(resp.Websites, models.NewSnapshotResponse(snap))
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// RegisterWebsite handles POST /v1/websites - register a single website.
func (h *WebsitesHandler) RegisterWebsite(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterWebsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if req.URL == "" {
		response.BadRequest(w, r, "url is required")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	site, err := h.service.Register(r.Context(), req.URL, req.Name, active)
	switch {
	case errors.Is(err, website.ErrInvalidURL):
		response.BadRequest(w, r, err.Error())
		return
	case errors.Is(err, website.ErrDuplicateURL):
		response.Conflict(w, r, "website URL already registered")
		return
	case err != nil:
		response.InternalError(w, r, "failed to register website")
		return
	}

	snap, err := h.service.Snapshot(r.Context(), site.ID)
	if err != nil {
		response.InternalError(w, r, "failed to load website")
		return
	}
	response.JSON(w, r, http.StatusCreated, models.NewSnapshotResponse(*snap))
}

// ImportWebsites handles POST /v1/websites/import - idempotent bulk import.
func (h *WebsitesHandler) ImportWebsites(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		response.BadRequest(w, r, "urls is required")
		return
	}

	created, err := h.service.Import(r.Context(), req.URLs)
	if err != nil {
		response.InternalError(w, r, "failed to import websites")
		return
	}
	response.JSON(w, r, http.StatusOK, models.ImportResponse{Created: created})
}

// ListOutcomes handles GET /v1/websites/{websiteID}/checks - recent check
// outcomes for one website, newest first.
func (h *WebsitesHandler) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	websiteID := chi.URLParam(r, "websiteID")

	limit := DefaultOutcomeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = min(parsed, MaxOutcomeLimit)
	}

	outcomes, err := h.service.Outcomes(r.Context(), websiteID, limit)
	switch {
	case errors.Is(err, website.ErrWebsiteNotFound):
		response.NotFound(w, r, "website not found")
		return
	case err != nil:
		response.InternalError(w, r, "failed to list check outcomes")
		return
	}

	resp := models.OutcomeListResponse{
		Results: make([]models.OutcomeResponse, 0, len(outcomes)),
	}
	for _, outcome := range outcomes {
		resp.Results = append(resp.Results, models.NewOutcomeResponse(outcome))
	}
	response.JSON(w, r, http.StatusOK, resp)
}
