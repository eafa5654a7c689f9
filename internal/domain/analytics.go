package domain

import (
	"context"
	"encoding/json"
	"time"
)

// TimeWindow bounds a count to [From, To). Either side may be nil for
// all-time.
type TimeWindow struct {
	From *time.Time
	To   *time.Time
}

// ViewEvent is the projection of the event log the dwell-time computation
// consumes: view_start/view_end events that reference an exhibit.
type ViewEvent struct {
	ID        int64
	SessionID int64
	ExhibitID int64
	Type      EventType
	Timestamp time.Time
}

// AnswerValue is one answer joined with its question, as consumed by the
// distribution computations.
type AnswerValue struct {
	QuestionID   int64
	QuestionText string
	QuestionType QuestionType
	Options      []string
	ValueText    *string
	ValueJSON    json.RawMessage
}

// ResponseRecord is one answer row joined with session and question context,
// produced for the operator's response listing and the external CSV
// formatter.
type ResponseRecord struct {
	SessionUUID  string          `json:"session_uuid"`
	ExhibitSlug  string          `json:"exhibit_slug,omitempty"`
	QuestionID   int64           `json:"question_id"`
	QuestionText string          `json:"question_text"`
	ValueText    *string         `json:"value_text,omitempty"`
	ValueJSON    json.RawMessage `json:"value_json,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ResponseFilter narrows the response listing.
type ResponseFilter struct {
	ExhibitID  *int64
	QuestionID *int64
}

// AnalyticsRepository is the read-side contract the aggregator depends on.
// All methods are pure reads; results reflect a point-in-time snapshot and
// may legitimately trail concurrent writes.
type AnalyticsRepository interface {
	CountSessions(ctx context.Context, window TimeWindow) (int64, error)
	CountCompletedSessions(ctx context.Context, window TimeWindow) (int64, error)
	// ListViewEvents returns exhibit-scoped view_start/view_end events
	// ordered by (session_id, exhibit_id, timestamp, id).
	ListViewEvents(ctx context.Context) ([]ViewEvent, error)
	// ListAnswerValues returns answers to questions of the given category
	// joined with their question metadata.
	ListAnswerValues(ctx context.Context, category QuestionCategory) ([]AnswerValue, error)
	ListResponses(ctx context.Context, filter ResponseFilter) ([]ResponseRecord, error)
}
