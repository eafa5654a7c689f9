package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/middleware"
	"gallery-twin/internal/service"
)

// EventHandler records visitor interaction events.
type EventHandler struct {
	events *service.EventService
}

func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// RecordEventRequest is the event ingestion payload. Timestamp is optional;
// when absent the server clock is used.
type RecordEventRequest struct {
	ExhibitID *int64            `json:"exhibit_id,omitempty"`
	EventType string            `json:"event_type"`
	Timestamp *time.Time        `json:"timestamp,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Record appends one event to the session's interaction log.
func (h *EventHandler) Record(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"No session"}`, http.StatusInternalServerError)
		return
	}

	var req RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	var timestamp time.Time
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	event, err := h.events.Record(r.Context(), session.ID, req.ExhibitID, domain.EventType(req.EventType), timestamp, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			http.Error(w, `{"error":"Unknown event type"}`, http.StatusBadRequest)
		case errors.Is(err, domain.ErrExhibitNotFound):
			http.Error(w, `{"error":"Exhibit not found"}`, http.StatusNotFound)
		default:
			http.Error(w, `{"error":"Failed to record event"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}
