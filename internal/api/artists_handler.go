package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/discograf/discograf/pkg/catalog"
)

// ArtistsHandler handles artist API endpoints
type ArtistsHandler struct {
	service catalog.Service
	auth    chi.Middlewares
}

// NewArtistsHandler creates a new artists handler. auth guards the
// mutating routes and may be empty.
func NewArtistsHandler(service catalog.Service, auth chi.Middlewares) *ArtistsHandler {
	return &ArtistsHandler{service: service, auth: auth}
}

// Routes returns the router for artist endpoints
func (h *ArtistsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListArtists)
	r.Get("/{artist_id}", h.GetArtist)
	r.With(h.auth...).Post("/", h.CreateArtist)
	r.With(h.auth...).Put("/{artist_id}", h.UpdateArtist)
	r.With(h.auth...).Delete("/{artist_id}", h.DeleteArtist)
	return r
}

// ArtistRequest is the request body for creating or updating an artist
type ArtistRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ArtistResponse is the response body for an artist
type ArtistResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func toArtistResponse(artist *catalog.Artist) ArtistResponse {
	return ArtistResponse{
		ID:        artist.ID.String(),
		Name:      artist.Name,
		Type:      string(artist.Type),
		CreatedAt: artist.CreatedAt,
	}
}

func artistIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "artist_id"))
	return id, err == nil
}

// CreateArtist creates a new artist
func (h *ArtistsHandler) CreateArtist(w http.ResponseWriter, r *http.Request) {
	var req ArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	artist, err := h.service.CreateArtist(r.Context(), catalog.CreateArtistRequest{
		Name: req.Name,
		Type: catalog.ArtistType(req.Type),
	})
	if err != nil {
		writeError(w, r, "create artist", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, toArtistResponse(artist))
}

// GetArtist returns one artist
func (h *ArtistsHandler) GetArtist(w http.ResponseWriter, r *http.Request) {
	artistID, ok := artistIDParam(r)
	if !ok {
		http.Error(w, "Invalid artist ID", http.StatusBadRequest)
		return
	}

	artist, err := h.service.GetArtist(r.Context(), artistID)
	if err != nil {
		writeError(w, r, "get artist", err)
		return
	}

	render.JSON(w, r, toArtistResponse(artist))
}

// ListArtists returns all artists ordered by name
func (h *ArtistsHandler) ListArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.service.ListArtists(r.Context())
	if err != nil {
		writeError(w, r, "list artists", err)
		return
	}

	resp := make([]ArtistResponse, 0, len(artists))
	for _, artist := range artists {
		resp = append(resp, toArtistResponse(artist))
	}
	render.JSON(w, r, resp)
}

// UpdateArtist updates artist name and type
func (h *ArtistsHandler) UpdateArtist(w http.ResponseWriter, r *http.Request) {
	artistID, ok := artistIDParam(r)
	if !ok {
		http.Error(w, "Invalid artist ID", http.StatusBadRequest)
		return
	}

	var req ArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	artist, err := h.service.UpdateArtist(r.Context(), catalog.UpdateArtistRequest{
		ID:   artistID,
		Name: req.Name,
		Type: catalog.ArtistType(req.Type),
	})
	if err != nil {
		writeError(w, r, "update artist", err)
		return
	}

	render.JSON(w, r, toArtistResponse(artist))
}

// DeleteArtist removes an artist
func (h *ArtistsHandler) DeleteArtist(w http.ResponseWriter, r *http.Request) {
	artistID, ok := artistIDParam(r)
	if !ok {
		http.Error(w, "Invalid artist ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteArtist(r.Context(), artistID); err != nil {
		writeError(w, r, "delete artist", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
