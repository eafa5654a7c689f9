package middleware

import (
	"context"
	"net/http"
	"time"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/observability"
	"gallery-twin/internal/service"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionCookieName is the cookie carrying the visitor's session uuid.
const SessionCookieName = "gallery_session_id"

// Session resolves the visitor session for every request and stores it in
// the request context. A missing, malformed, unknown, or expired cookie
// silently starts a fresh session; the cookie is (re-)issued whenever a new
// session row was created. Visitors are never asked to authenticate.
func Session(sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookieUUID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				cookieUUID = cookie.Value
			}

			session, created, err := sessions.Resolve(r.Context(), cookieUUID, domain.ClientMetadata{
				UserAgent:      r.UserAgent(),
				AcceptLanguage: r.Header.Get("Accept-Language"),
			})
			if err != nil {
				observability.FromContext(r.Context()).Error("failed to resolve session", "error", err)
				http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
				return
			}

			if created {
				http.SetCookie(w, SessionCookie(session.UUID, sessions.TTL()))
			}

			ctx := WithSession(r.Context(), session)
			ctx = observability.WithSessionUUID(ctx, session.UUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionCookie builds the session cookie with the lifetime matching the
// sliding server-side TTL. HttpOnly keeps the uuid away from scripts;
// SameSite=Lax still lets museum QR-code navigations carry it.
func SessionCookie(sessionUUID string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionUUID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// GetSession returns the session stored by the Session middleware.
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*domain.Session)
	return session, ok
}

// WithSession stores a session in the context, used by the middleware and
// by handler tests.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}
