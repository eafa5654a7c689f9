package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gallery-twin/internal/domain"
)

type EventRepository struct {
	db                *sql.DB
	createStmt        *sql.Stmt
	listBySessionStmt *sql.Stmt
	listByExhibitStmt *sql.Stmt
}

// NewEventRepository creates a new EventRepository with prepared statements.
// The events table is append-only: there are deliberately no update or
// delete statements here.
func NewEventRepository(db *sql.DB) (*EventRepository, error) {
	repo := &EventRepository{db: db}

	var err error
	repo.createStmt, err = db.Prepare(`
		INSERT INTO events (session_id, exhibit_id, event_type, timestamp, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}

	repo.listBySessionStmt, err = db.Prepare(`
		SELECT id, session_id, exhibit_id, event_type, timestamp, metadata
		FROM events
		WHERE session_id = $1
		ORDER BY timestamp ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare listBySession statement: %w", err)
	}

	repo.listByExhibitStmt, err = db.Prepare(`
		SELECT id, session_id, exhibit_id, event_type, timestamp, metadata
		FROM events
		WHERE session_id = $1 AND exhibit_id = $2
		ORDER BY timestamp ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare listByExhibit statement: %w", err)
	}

	return repo, nil
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode event metadata: %w", err)
		}
	}

	err := r.createStmt.QueryRowContext(ctx,
		event.SessionID,
		event.ExhibitID,
		string(event.Type),
		event.Timestamp,
		metadata,
	).Scan(&event.ID)

	if err != nil {
		// Appends against a missing session or exhibit surface as domain
		// not-found conditions; they indicate caller bugs, not user input.
		if IsForeignKeyViolation(err, "events_session_id_fkey") {
			return domain.ErrSessionNotFound
		}
		if IsForeignKeyViolation(err, "events_exhibit_id_fkey") {
			return domain.ErrExhibitNotFound
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *EventRepository) ListBySession(ctx context.Context, sessionID int64, exhibitID *int64) ([]*domain.Event, error) {
	var rows *sql.Rows
	var err error
	if exhibitID != nil {
		rows, err = r.listByExhibitStmt.QueryContext(ctx, sessionID, *exhibitID)
	} else {
		rows, err = r.listBySessionStmt.QueryContext(ctx, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*domain.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (*domain.Event, error) {
	event := &domain.Event{}
	var exhibitID sql.NullInt64
	var eventType string
	var metadata []byte

	if err := rows.Scan(
		&event.ID,
		&event.SessionID,
		&exhibitID,
		&eventType,
		&event.Timestamp,
		&metadata,
	); err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	if exhibitID.Valid {
		event.ExhibitID = &exhibitID.Int64
	}
	event.Type = domain.EventType(eventType)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode event metadata: %w", err)
		}
	}
	return event, nil
}
