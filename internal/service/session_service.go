package service

import (
	"context"
	"time"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/observability"

	"github.com/google/uuid"
)

// SessionService is the visitor session registry. It resolves the session a
// request belongs to, creating a new one whenever the presented identifier
// is absent, malformed, unknown, or past its sliding expiration window.
//
// Sessions are pseudonymous and disposable, so every failure mode fails
// open to a fresh session rather than an error.
type SessionService struct {
	repo domain.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionService creates a session registry with the given sliding TTL.
func NewSessionService(repo domain.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{repo: repo, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source for deterministic expiry tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// TTL returns the configured sliding expiration window.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Resolve attaches the request to a session. created reports whether a new
// session row was made, which tells the caller to re-issue the cookie.
//
// A live session gets its last_activity_at refreshed in place; the sliding
// window restarts from now. An expired session is never mutated, only
// superseded by the new row.
func (s *SessionService) Resolve(ctx context.Context, cookieUUID string, meta domain.ClientMetadata) (*domain.Session, bool, error) {
	now := s.now()

	if cookieUUID != "" {
		if _, err := uuid.Parse(cookieUUID); err != nil {
			// Malformed cookie values are treated the same as no cookie.
			observability.FromContext(ctx).Debug("malformed session cookie, starting new session")
			cookieUUID = ""
		}
	}

	if cookieUUID != "" {
		session, err := s.repo.GetByUUID(ctx, cookieUUID)
		switch {
		case err == domain.ErrSessionNotFound:
			// Unknown uuid, fall through to creation.
		case err != nil:
			return nil, false, err
		case session.Expired(now, s.ttl):
			// Fall through to creation; the expired row stays untouched.
		default:
			if err := s.repo.Touch(ctx, session.ID, now); err != nil {
				return nil, false, err
			}
			session.LastActivityAt = now
			observability.SessionsResumed.Inc()
			return session, false, nil
		}
	}

	session := &domain.Session{
		UUID:           uuid.New().String(),
		UserAgent:      meta.UserAgent,
		AcceptLanguage: meta.AcceptLanguage,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, false, err
	}

	observability.SessionsCreated.Inc()
	observability.FromContext(ctx).Debug("created visitor session",
		"session_uuid", session.UUID)
	return session, true, nil
}

// MarkCompleted flags the session as having finished the visit. The
// aggregator's completion rate reads this flag.
func (s *SessionService) MarkCompleted(ctx context.Context, sessionID int64) error {
	if err := s.repo.MarkCompleted(ctx, sessionID); err != nil {
		return err
	}
	observability.SessionsCompleted.Inc()
	return nil
}
