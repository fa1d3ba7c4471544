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

// AlbumsHandler handles album API endpoints, with cover endpoints
// mounted underneath
type AlbumsHandler struct {
	service catalog.Service
	covers  *CoversHandler
	auth    chi.Middlewares
}

// NewAlbumsHandler creates a new albums handler. auth guards the
// mutating routes and may be empty.
func NewAlbumsHandler(service catalog.Service, covers *CoversHandler, auth chi.Middlewares) *AlbumsHandler {
	return &AlbumsHandler{
		service: service,
		covers:  covers,
		auth:    auth,
	}
}

// Routes returns the router for album endpoints. Reads are open,
// mutations go through the auth chain. The covers router applies its
// own.
func (h *AlbumsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListAlbums)
	r.Get("/{album_id}", h.GetAlbum)
	r.With(h.auth...).Post("/", h.CreateAlbum)
	r.With(h.auth...).Put("/{album_id}", h.UpdateAlbum)
	r.With(h.auth...).Delete("/{album_id}", h.DeleteAlbum)
	r.With(h.auth...).Put("/{album_id}/artists/{artist_id}", h.AddArtist)
	r.With(h.auth...).Delete("/{album_id}/artists/{artist_id}", h.RemoveArtist)
	r.Mount("/{album_id}/covers", h.covers.Routes())
	return r
}

// CreateAlbumRequest is the request body for creating an album
type CreateAlbumRequest struct {
	Title       string   `json:"title"`
	ReleaseYear int      `json:"release_year"`
	ArtistIDs   []string `json:"artist_ids,omitempty"`
}

// UpdateAlbumRequest is the request body for updating an album
type UpdateAlbumRequest struct {
	Title       string `json:"title"`
	ReleaseYear int    `json:"release_year"`
}

// AlbumResponse is the response body for an album
type AlbumResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ReleaseYear int       `json:"release_year"`
	ArtistIDs   []string  `json:"artist_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAlbumResponse(album *catalog.Album) AlbumResponse {
	artistIDs := make([]string, 0, len(album.ArtistIDs))
	for _, id := range album.ArtistIDs {
		artistIDs = append(artistIDs, id.String())
	}
	return AlbumResponse{
		ID:          album.ID.String(),
		Title:       album.Title,
		ReleaseYear: album.ReleaseYear,
		ArtistIDs:   artistIDs,
		CreatedAt:   album.CreatedAt,
	}
}

// CreateAlbum creates a new album
func (h *AlbumsHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req CreateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	artistIDs := make([]uuid.UUID, 0, len(req.ArtistIDs))
	for _, s := range req.ArtistIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "Invalid artist ID", http.StatusBadRequest)
			return
		}
		artistIDs = append(artistIDs, id)
	}

	album, err := h.service.CreateAlbum(r.Context(), catalog.CreateAlbumRequest{
		Title:       req.Title,
		ReleaseYear: req.ReleaseYear,
		ArtistIDs:   artistIDs,
	})
	if err != nil {
		writeError(w, r, "create album", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, toAlbumResponse(album))
}

// AlbumDetailResponse is the response body for a single album, with
// its covers embedded
type AlbumDetailResponse struct {
	AlbumResponse
	Covers []CoverResponse `json:"covers"`
}

// GetAlbum returns one album with its covers
func (h *AlbumsHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	album, err := h.service.GetAlbum(r.Context(), albumID)
	if err != nil {
		writeError(w, r, "get album", err)
		return
	}

	views, err := h.service.ListCovers(r.Context(), albumID)
	if err != nil {
		writeError(w, r, "get album covers", err)
		return
	}

	covers := make([]CoverResponse, 0, len(views))
	for _, v := range views {
		covers = append(covers, toCoverResponse(v))
	}

	render.JSON(w, r, AlbumDetailResponse{
		AlbumResponse: toAlbumResponse(album),
		Covers:        covers,
	})
}

// ListAlbums returns all albums, newest first
func (h *AlbumsHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.service.ListAlbums(r.Context())
	if err != nil {
		writeError(w, r, "list albums", err)
		return
	}

	resp := make([]AlbumResponse, 0, len(albums))
	for _, album := range albums {
		resp = append(resp, toAlbumResponse(album))
	}
	render.JSON(w, r, resp)
}

// UpdateAlbum updates album title and release year
func (h *AlbumsHandler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	var req UpdateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	album, err := h.service.UpdateAlbum(r.Context(), catalog.UpdateAlbumRequest{
		ID:          albumID,
		Title:       req.Title,
		ReleaseYear: req.ReleaseYear,
	})
	if err != nil {
		writeError(w, r, "update album", err)
		return
	}

	render.JSON(w, r, toAlbumResponse(album))
}

// DeleteAlbum removes the album together with its covers
func (h *AlbumsHandler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteAlbum(r.Context(), albumID); err != nil {
		writeError(w, r, "delete album", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AlbumsHandler) AddArtist(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	artistID, err := uuid.Parse(chi.URLParam(r, "artist_id"))
	if err != nil {
		http.Error(w, "Invalid artist ID", http.StatusBadRequest)
		return
	}

	if err := h.service.AddArtistToAlbum(r.Context(), albumID, artistID); err != nil {
		writeError(w, r, "add album artist", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AlbumsHandler) RemoveArtist(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	artistID, err := uuid.Parse(chi.URLParam(r, "artist_id"))
	if err != nil {
		http.Error(w, "Invalid artist ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveArtistFromAlbum(r.Context(), albumID, artistID); err != nil {
		writeError(w, r, "remove album artist", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
