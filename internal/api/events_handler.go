package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/discograf/discograf/pkg/catalog"
)

// EventsHandler streams catalog change notifications over SSE
type EventsHandler struct {
	broker *catalog.Broker
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(broker *catalog.Broker) *EventsHandler {
	return &EventsHandler{broker: broker}
}

// Routes returns the router for event endpoints
func (h *EventsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Stream)
	return r
}

// EventPayload is the SSE data payload for a catalog event
type EventPayload struct {
	Type       string    `json:"type"`
	AlbumID    string    `json:"album_id"`
	Title      string    `json:"title,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Stream subscribes the client to catalog events until it disconnects
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	events, cancel := h.broker.Subscribe(16)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(EventPayload{
				Type:       event.Type,
				AlbumID:    event.AlbumID.String(),
				Title:      event.Title,
				Message:    event.Message,
				OccurredAt: event.OccurredAt,
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
