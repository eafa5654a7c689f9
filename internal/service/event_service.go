package service

import (
	"context"
	"time"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/observability"
)

// EventService appends to and reads the interaction event log.
type EventService struct {
	eventRepo domain.EventRepository
	now       func() time.Time
}

func NewEventService(eventRepo domain.EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo, now: time.Now}
}

// WithClock overrides the time source used for defaulted timestamps.
func (s *EventService) WithClock(now func() time.Time) *EventService {
	s.now = now
	return s
}

// Record appends one event. The zero timestamp defaults to now; a client
// supplied timestamp is kept as-is since ordering authority lies with the
// timestamp and insertion order breaks ties. Recording against a missing
// session or exhibit returns the corresponding not-found error — that
// indicates a caller bug, never expected input.
func (s *EventService) Record(ctx context.Context, sessionID int64, exhibitID *int64, eventType domain.EventType, timestamp time.Time, metadata map[string]string) (*domain.Event, error) {
	if !eventType.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if timestamp.IsZero() {
		timestamp = s.now()
	}

	event := &domain.Event{
		SessionID: sessionID,
		ExhibitID: exhibitID,
		Type:      eventType,
		Timestamp: timestamp,
		Metadata:  metadata,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	observability.EventsRecorded.WithLabelValues(string(eventType)).Inc()
	return event, nil
}

// List returns a session's events ordered by timestamp, insertion order as
// tiebreak. exhibitID narrows to one exhibit when set.
func (s *EventService) List(ctx context.Context, sessionID int64, exhibitID *int64) ([]*domain.Event, error) {
	return s.eventRepo.ListBySession(ctx, sessionID, exhibitID)
}
