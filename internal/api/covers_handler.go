package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/discograf/discograf/pkg/catalog"
)

// CoversHandler handles cover image API endpoints. It is mounted under
// an album route, so every request carries an album_id URL param.
type CoversHandler struct {
	service   catalog.Service
	maxUpload int64
	auth      chi.Middlewares
}

// NewCoversHandler creates a new covers handler. maxUpload bounds the
// accepted request body size. auth guards the mutating routes and may
// be empty.
func NewCoversHandler(service catalog.Service, maxUpload int64, auth chi.Middlewares) *CoversHandler {
	return &CoversHandler{
		service:   service,
		maxUpload: maxUpload,
		auth:      auth,
	}
}

// Routes returns the router for cover endpoints. Reads are open,
// mutations go through the auth chain.
func (h *CoversHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCovers)
	r.Get("/primary", h.GetPrimaryCover)
	r.With(h.auth...).Post("/", h.UploadCover)
	r.With(h.auth...).Delete("/", h.DeleteAllCovers)
	r.With(h.auth...).Put("/{cover_id}/primary", h.SetPrimaryCover)
	r.With(h.auth...).Delete("/{cover_id}", h.DeleteCover)
	return r
}

// CoverResponse is the response body for a cover
type CoverResponse struct {
	ID          string    `json:"id"`
	AlbumID     string    `json:"album_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	IsPrimary   bool      `json:"is_primary"`
	AccessURL   string    `json:"access_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCoverResponse(v *catalog.CoverView) CoverResponse {
	return CoverResponse{
		ID:          v.ID.String(),
		AlbumID:     v.AlbumID.String(),
		FileName:    v.FileName,
		ContentType: v.ContentType,
		FileSize:    v.FileSize,
		IsPrimary:   v.IsPrimary,
		AccessURL:   v.AccessURL,
		CreatedAt:   v.CreatedAt,
	}
}

func albumIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "album_id"))
	return id, err == nil
}

// UploadCover accepts a multipart upload under field "file" and attaches
// it to the album
func (h *CoversHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	// Slack on top of the limit so the service reports the oversize,
	// not an opaque body-read failure.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Fail to read multipart file", "album_id", albumID, "error", err)
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	view, err := h.service.UploadCover(r.Context(), catalog.UploadCoverRequest{
		AlbumID:     albumID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		writeError(w, r, "upload cover", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, toCoverResponse(view))
}

// ListCovers returns every cover of the album, newest first
func (h *CoversHandler) ListCovers(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	views, err := h.service.ListCovers(r.Context(), albumID)
	if err != nil {
		writeError(w, r, "list covers", err)
		return
	}

	resp := make([]CoverResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toCoverResponse(v))
	}
	render.JSON(w, r, resp)
}

// GetPrimaryCover returns the album's primary cover
func (h *CoversHandler) GetPrimaryCover(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	view, err := h.service.GetPrimaryCover(r.Context(), albumID)
	if err != nil {
		writeError(w, r, "get primary cover", err)
		return
	}

	render.JSON(w, r, toCoverResponse(view))
}

// SetPrimaryCover promotes one cover and demotes its siblings
func (h *CoversHandler) SetPrimaryCover(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	coverID, err := uuid.Parse(chi.URLParam(r, "cover_id"))
	if err != nil {
		http.Error(w, "Invalid cover ID", http.StatusBadRequest)
		return
	}

	view, err := h.service.SetPrimaryCover(r.Context(), albumID, coverID)
	if err != nil {
		writeError(w, r, "set primary cover", err)
		return
	}

	render.JSON(w, r, toCoverResponse(view))
}

// DeleteCover removes one cover, blob first
func (h *CoversHandler) DeleteCover(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	coverID, err := uuid.Parse(chi.URLParam(r, "cover_id"))
	if err != nil {
		http.Error(w, "Invalid cover ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteCover(r.Context(), albumID, coverID); err != nil {
		writeError(w, r, "delete cover", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllCovers removes every cover of the album, best effort
func (h *CoversHandler) DeleteAllCovers(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDParam(r)
	if !ok {
		http.Error(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteAllCovers(r.Context(), albumID); err != nil {
		writeError(w, r, "delete all covers", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
