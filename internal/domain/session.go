package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// Session is a pseudonymous visitor identity bound to a browser cookie.
// The UUID is the only externally visible identifier; it is generated once
// and never reused. A session expires once now - LastActivityAt exceeds the
// configured TTL; expired rows are never touched again, a new session
// supersedes them.
type Session struct {
	ID             int64     `json:"id"`
	UUID           string    `json:"uuid"`
	UserAgent      string    `json:"user_agent,omitempty"`
	AcceptLanguage string    `json:"accept_language,omitempty"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Expired reports whether the session's sliding window has elapsed at the
// given instant.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivityAt) > ttl
}

// ClientMetadata carries the request attributes stored on a new session.
type ClientMetadata struct {
	UserAgent      string
	AcceptLanguage string
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByUUID(ctx context.Context, uuid string) (*Session, error)
	// Touch updates last_activity_at in place. Last writer wins under
	// concurrent double-submits for the same session.
	Touch(ctx context.Context, id int64, at time.Time) error
	MarkCompleted(ctx context.Context, id int64) error
}
