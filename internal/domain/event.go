package domain

import (
	"context"
	"time"
)

// EventType classifies a visitor interaction.
type EventType string

const (
	EventViewStart  EventType = "view_start"
	EventViewEnd    EventType = "view_end"
	EventAudioPlay  EventType = "audio_play"
	EventAudioPause EventType = "audio_pause"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventViewStart, EventViewEnd, EventAudioPlay, EventAudioPause:
		return true
	}
	return false
}

// Event is one entry in the append-only interaction log. ExhibitID is nil
// for global events. Metadata is an opaque bag (e.g. playback position).
type Event struct {
	ID        int64             `json:"id"`
	SessionID int64             `json:"session_id"`
	ExhibitID *int64            `json:"exhibit_id,omitempty"`
	Type      EventType         `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventRepository defines the interface for the append-only event log.
// There is deliberately no update or delete method.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// ListBySession returns events ordered by timestamp ascending, ties
	// broken by id ascending. exhibitID narrows to one exhibit when set.
	ListBySession(ctx context.Context, sessionID int64, exhibitID *int64) ([]*Event, error)
}
