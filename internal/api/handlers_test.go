package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discograf/discograf/pkg/catalog"
	"github.com/discograf/discograf/pkg/catalog/repo/memory"
	memorystorage "github.com/discograf/discograf/pkg/catalog/storage/memory"
)

func setupHandlerTest(t *testing.T) (chi.Router, catalog.Service, *memorystorage.Backend) {
	t.Helper()

	store := memorystorage.New()
	svc, err := catalog.New(
		catalog.WithRepository(memory.New()),
		catalog.WithBlobStore(store),
	)
	require.NoError(t, err)

	covers := NewCoversHandler(svc, 1<<20, nil)
	albums := NewAlbumsHandler(svc, covers, nil)
	artists := NewArtistsHandler(svc, nil)
	regions := NewRegionsHandler(svc, nil)

	router := chi.NewRouter()
	router.Mount("/albums", albums.Routes())
	router.Mount("/artists", artists.Routes())
	router.Mount("/regions", regions.Routes())

	return router, svc, store
}

func createAlbumViaAPI(t *testing.T, router chi.Router, title string) AlbumResponse {
	t.Helper()

	body, err := json.Marshal(CreateAlbumRequest{Title: title, ReleaseYear: 1999})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/albums/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AlbumResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func coverUploadRequest(t *testing.T, albumID, fileName, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/albums/%s/covers/", albumID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAlbumEndpoints(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	album := createAlbumViaAPI(t, router, "Blue Train")
	assert.Equal(t, "Blue Train", album.Title)

	req := httptest.NewRequest(http.MethodGet, "/albums/"+album.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/albums/"+uuid.NewString(), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/albums/not-a-uuid", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, _ := json.Marshal(CreateAlbumRequest{Title: "  "})
	req = httptest.NewRequest(http.MethodPost, "/albums/", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/albums/"+album.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCoverUploadEndpoint(t *testing.T) {
	router, _, store := setupHandlerTest(t)
	album := createAlbumViaAPI(t, router, "Blue Train")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, coverUploadRequest(t, album.ID, "front.jpg", "image/jpeg", []byte("fake image")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp CoverResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsPrimary)
	assert.Equal(t, album.ID, resp.AlbumID)
	assert.NotEmpty(t, resp.AccessURL)
	assert.Equal(t, 1, store.Len())

	// The album detail embeds its covers.
	req := httptest.NewRequest(http.MethodGet, "/albums/"+album.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var detail AlbumDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Len(t, detail.Covers, 1)
	assert.Equal(t, resp.ID, detail.Covers[0].ID)

	// Wrong content type is rejected with no blob written.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, coverUploadRequest(t, album.ID, "notes.txt", "text/plain", []byte("hi")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, store.Len())

	// Missing file field.
	req = httptest.NewRequest(http.MethodPost, "/albums/"+album.ID+"/covers/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown album.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, coverUploadRequest(t, uuid.NewString(), "front.jpg", "image/jpeg", []byte("fake image")))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCoverPrimaryEndpoints(t *testing.T) {
	router, _, _ := setupHandlerTest(t)
	album := createAlbumViaAPI(t, router, "Blue Train")

	upload := func(name string) CoverResponse {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, coverUploadRequest(t, album.ID, name, "image/png", []byte("img "+name)))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp CoverResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	first := upload("first.png")
	second := upload("second.png")

	req := httptest.NewRequest(http.MethodGet, "/albums/"+album.ID+"/covers/primary", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var primary CoverResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &primary))
	assert.Equal(t, first.ID, primary.ID)

	// Promote the second cover.
	req = httptest.NewRequest(http.MethodPut,
		"/albums/"+album.ID+"/covers/"+second.ID+"/primary", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/albums/"+album.ID+"/covers/primary", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &primary))
	assert.Equal(t, second.ID, primary.ID)

	// Promoting a cover through a foreign album is invalid.
	other := createAlbumViaAPI(t, router, "Other Album")
	req = httptest.NewRequest(http.MethodPut,
		"/albums/"+other.ID+"/covers/"+second.ID+"/primary", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Delete the primary; the survivor takes over.
	req = httptest.NewRequest(http.MethodDelete,
		"/albums/"+album.ID+"/covers/"+second.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/albums/"+album.ID+"/covers/primary", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &primary))
	assert.Equal(t, first.ID, primary.ID)
}

func TestCoverStorageUnavailable(t *testing.T) {
	router, _, store := setupHandlerTest(t)
	album := createAlbumViaAPI(t, router, "Blue Train")

	store.PutErr = func(key string) error { return errors.New("connection refused") }

	w := httptest.NewRecorder()
	router.ServeHTTP(w, coverUploadRequest(t, album.ID, "front.jpg", "image/jpeg", []byte("fake image")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestArtistEndpoints(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	body, _ := json.Marshal(ArtistRequest{Name: "Art Blakey", Type: "solo"})
	req := httptest.NewRequest(http.MethodPost, "/artists/", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var artist ArtistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artist))
	assert.Equal(t, "solo", artist.Type)

	body, _ = json.Marshal(ArtistRequest{Name: "Nobody", Type: "orchestra"})
	req = httptest.NewRequest(http.MethodPost, "/artists/", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/artists/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var artists []ArtistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artists))
	assert.Len(t, artists, 1)
}

func TestRegionEndpoints(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	body, _ := json.Marshal(RegionRequest{Name: "Japan", Active: true})
	req := httptest.NewRequest(http.MethodPut, "/regions/81", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var region RegionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &region))
	assert.Equal(t, 81, region.ID)
	assert.True(t, region.Active)

	req = httptest.NewRequest(http.MethodGet, "/regions/81", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/regions/81", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/regions/81", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventStream(t *testing.T) {
	broker := catalog.NewBroker()
	handler := NewEventsHandler(broker)

	router := chi.NewRouter()
	router.Mount("/events", handler.Routes())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events/", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	// Give the handler time to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	albumID := uuid.New()
	broker.Publish(catalog.Event{
		Type:       catalog.EventAlbumCreated,
		AlbumID:    albumID,
		Title:      "Streamed Album",
		OccurredAt: time.Now().UTC(),
	})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not stop on disconnect")
	}

	body := w.Body.String()
	assert.Contains(t, body, "event: "+catalog.EventAlbumCreated)
	assert.Contains(t, body, albumID.String())
}
