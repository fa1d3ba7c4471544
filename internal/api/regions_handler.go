package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/discograf/discograf/pkg/catalog"
)

// RegionsHandler handles region API endpoints
type RegionsHandler struct {
	service catalog.Service
	auth    chi.Middlewares
}

// NewRegionsHandler creates a new regions handler. auth guards the
// mutating routes and may be empty.
func NewRegionsHandler(service catalog.Service, auth chi.Middlewares) *RegionsHandler {
	return &RegionsHandler{service: service, auth: auth}
}

// Routes returns the router for region endpoints
func (h *RegionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListRegions)
	r.Get("/{region_id}", h.GetRegion)
	r.With(h.auth...).Put("/{region_id}", h.UpsertRegion)
	r.With(h.auth...).Delete("/{region_id}", h.DeleteRegion)
	return r
}

// RegionRequest is the request body for creating or replacing a region
type RegionRequest struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// RegionResponse is the response body for a region
type RegionResponse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRegionResponse(region *catalog.Region) RegionResponse {
	return RegionResponse{
		ID:        region.ID,
		Name:      region.Name,
		Active:    region.Active,
		UpdatedAt: region.UpdatedAt,
	}
}

func regionIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "region_id"))
	return id, err == nil
}

// UpsertRegion creates or replaces a region under the given ID
func (h *RegionsHandler) UpsertRegion(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region ID", http.StatusBadRequest)
		return
	}

	var req RegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	region, err := h.service.UpsertRegion(r.Context(), catalog.UpsertRegionRequest{
		ID:     regionID,
		Name:   req.Name,
		Active: req.Active,
	})
	if err != nil {
		writeError(w, r, "upsert region", err)
		return
	}

	render.JSON(w, r, toRegionResponse(region))
}

// GetRegion returns one region
func (h *RegionsHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region ID", http.StatusBadRequest)
		return
	}

	region, err := h.service.GetRegion(r.Context(), regionID)
	if err != nil {
		writeError(w, r, "get region", err)
		return
	}

	render.JSON(w, r, toRegionResponse(region))
}

// ListRegions returns all regions ordered by ID
func (h *RegionsHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.ListRegions(r.Context())
	if err != nil {
		writeError(w, r, "list regions", err)
		return
	}

	resp := make([]RegionResponse, 0, len(regions))
	for _, region := range regions {
		resp = append(resp, toRegionResponse(region))
	}
	render.JSON(w, r, resp)
}

// DeleteRegion removes a region
func (h *RegionsHandler) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	regionID, ok := regionIDParam(r)
	if !ok {
		http.Error(w, "Invalid region ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteRegion(r.Context(), regionID); err != nil {
		writeError(w, r, "delete region", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
