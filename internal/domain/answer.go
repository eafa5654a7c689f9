package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Answer is a visitor's response to one question. ValueText holds text and
// single-choice answers, ValueJSON holds multi-choice arrays; the two are
// mutually exclusive by question type. A resubmission for the same
// (session, question) pair replaces the stored value rather than
// duplicating the row.
type Answer struct {
	ID         int64           `json:"id"`
	SessionID  int64           `json:"session_id"`
	QuestionID int64           `json:"question_id"`
	ValueText  *string         `json:"value_text,omitempty"`
	ValueJSON  json.RawMessage `json:"value_json,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AnswerRepository defines the interface for answer data access
type AnswerRepository interface {
	// Upsert inserts the answer or replaces the existing value for the
	// same (session, question) pair.
	Upsert(ctx context.Context, answer *Answer) error
	// UpsertAll applies a whole submission atomically.
	UpsertAll(ctx context.Context, answers []*Answer) error
	ListBySession(ctx context.Context, sessionID int64) ([]*Answer, error)
}
