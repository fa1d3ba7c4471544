package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/discograf/discograf/pkg/catalog"
)

// writeError translates service errors into HTTP status codes. Unknown
// errors are logged and reported opaquely.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	switch {
	case errors.Is(err, catalog.ErrAlbumNotFound),
		errors.Is(err, catalog.ErrArtistNotFound),
		errors.Is(err, catalog.ErrRegionNotFound),
		errors.Is(err, catalog.ErrCoverNotFound),
		errors.Is(err, catalog.ErrPrimaryCoverNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, catalog.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalog.ErrPayloadTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, catalog.ErrStorageUnavailable):
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		slog.Error("Request failed", "operation", operation, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
