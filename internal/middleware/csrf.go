package middleware

import (
	"net/http"
	"strings"

	"gallery-twin/internal/observability"
	"gallery-twin/internal/security"
)

// CSRF validates the signed token on state-changing requests. The token is
// bound to the session uuid, so it is only meaningful together with the
// session cookie; the Session middleware must run first.
//
// Token sources (checked in order):
// - Form field: csrf_token
// - Header: X-CSRF-Token
// - Header: X-XSRF-Token (alternate)
func CSRF(tokens *security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			session, ok := GetSession(r.Context())
			if !ok {
				http.Error(w, `{"error":"No session"}`, http.StatusForbidden)
				return
			}

			submitted := extractCSRFToken(r)
			if submitted == "" {
				rejectCSRF(w, r, "missing")
				return
			}
			if !tokens.Verify(submitted, session.UUID) {
				rejectCSRF(w, r, "invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectCSRF(w http.ResponseWriter, r *http.Request, reason string) {
	observability.CSRFFailures.WithLabelValues(reason).Inc()
	observability.FromContext(r.Context()).Warn("CSRF validation failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)
	http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
}

// isSafeMethod returns true for methods that never modify state.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// isExemptPath returns true for paths outside the visitor write surface.
// The session bootstrap endpoint is exempt: it is where the client obtains
// its first token.
func isExemptPath(path string) bool {
	exemptPaths := []string{
		"/health",
		"/metrics",
		"/api/v1/session",
	}

	for _, exemptPath := range exemptPaths {
		if strings.HasPrefix(path, exemptPath) {
			return true
		}
	}
	return false
}

func extractCSRFToken(r *http.Request) string {
	if token := r.PostFormValue("csrf_token"); token != "" {
		return token
	}
	if token := r.Header.Get("X-CSRF-Token"); token != "" {
		return token
	}
	return r.Header.Get("X-XSRF-Token")
}
