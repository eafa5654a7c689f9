package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gallery-twin/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

func nextID() int64 {
	return idCounter.Add(1)
}

// SessionOptions allows customizing session fixture creation
type SessionOptions struct {
	ID             int64
	UUID           string
	UserAgent      string
	AcceptLanguage string
	Completed      bool
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// NewTestSession creates a test session with sensible defaults.
// Pass options to override specific fields.
func NewTestSession(opts ...func(*SessionOptions)) *domain.Session {
	o := &SessionOptions{
		ID:             nextID(),
		UUID:           uuid.NewString(),
		UserAgent:      "Mozilla/5.0 (test)",
		AcceptLanguage: "en-US",
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	if o.LastActivityAt.IsZero() {
		o.LastActivityAt = o.CreatedAt
	}

	return &domain.Session{
		ID:             o.ID,
		UUID:           o.UUID,
		UserAgent:      o.UserAgent,
		AcceptLanguage: o.AcceptLanguage,
		Completed:      o.Completed,
		CreatedAt:      o.CreatedAt,
		LastActivityAt: o.LastActivityAt,
	}
}

// Session option functions

func WithSessionUUID(u string) func(*SessionOptions) {
	return func(o *SessionOptions) { o.UUID = u }
}

func WithSessionCompleted() func(*SessionOptions) {
	return func(o *SessionOptions) { o.Completed = true }
}

func WithLastActivity(t time.Time) func(*SessionOptions) {
	return func(o *SessionOptions) { o.LastActivityAt = t }
}

// EventOptions allows customizing event fixture creation
type EventOptions struct {
	ID        int64
	SessionID int64
	ExhibitID *int64
	Type      domain.EventType
	Timestamp time.Time
	Metadata  map[string]string
}

// NewTestEvent creates a test event with sensible defaults
func NewTestEvent(opts ...func(*EventOptions)) *domain.Event {
	exhibitID := int64(1)
	o := &EventOptions{
		ID:        nextID(),
		SessionID: 1,
		ExhibitID: &exhibitID,
		Type:      domain.EventViewStart,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}

	return &domain.Event{
		ID:        o.ID,
		SessionID: o.SessionID,
		ExhibitID: o.ExhibitID,
		Type:      o.Type,
		Timestamp: o.Timestamp,
		Metadata:  o.Metadata,
	}
}

// Event option functions

func WithEventSession(sessionID int64) func(*EventOptions) {
	return func(o *EventOptions) { o.SessionID = sessionID }
}

func WithEventExhibit(exhibitID int64) func(*EventOptions) {
	return func(o *EventOptions) { o.ExhibitID = &exhibitID }
}

func WithEventType(t domain.EventType) func(*EventOptions) {
	return func(o *EventOptions) { o.Type = t }
}

func WithEventTimestamp(t time.Time) func(*EventOptions) {
	return func(o *EventOptions) { o.Timestamp = t }
}

// NewTestExhibit creates a test exhibit. The order index doubles as the ID
// so fixtures stay easy to reason about in neighbor tests.
func NewTestExhibit(orderIndex int) *domain.Exhibit {
	return &domain.Exhibit{
		ID:         int64(orderIndex),
		Slug:       fmt.Sprintf("exhibit-%d", orderIndex),
		Title:      fmt.Sprintf("Exhibit %d", orderIndex),
		OrderIndex: orderIndex,
	}
}

// QuestionOptions allows customizing question fixture creation
type QuestionOptions struct {
	ID        int64
	ExhibitID *int64
	Category  domain.QuestionCategory
	Text      string
	Type      domain.QuestionType
	Options   []string
	Required  bool
	SortOrder int
}

// NewTestQuestion creates a test question with sensible defaults
func NewTestQuestion(opts ...func(*QuestionOptions)) *domain.Question {
	o := &QuestionOptions{
		ID:       nextID(),
		Category: domain.CategoryExhibit,
		Type:     domain.QuestionText,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Text == "" {
		o.Text = fmt.Sprintf("Question %d?", o.ID)
	}

	return &domain.Question{
		ID:        o.ID,
		ExhibitID: o.ExhibitID,
		Category:  o.Category,
		Text:      o.Text,
		Type:      o.Type,
		Options:   o.Options,
		Required:  o.Required,
		SortOrder: o.SortOrder,
	}
}

// Question option functions

func WithQuestionExhibit(exhibitID int64) func(*QuestionOptions) {
	return func(o *QuestionOptions) { o.ExhibitID = &exhibitID }
}

func WithQuestionCategory(c domain.QuestionCategory) func(*QuestionOptions) {
	return func(o *QuestionOptions) { o.Category = c }
}

func WithQuestionType(t domain.QuestionType, options ...string) func(*QuestionOptions) {
	return func(o *QuestionOptions) {
		o.Type = t
		o.Options = options
	}
}

func WithQuestionRequired() func(*QuestionOptions) {
	return func(o *QuestionOptions) { o.Required = true }
}
