package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"gallery-twin/internal/observability"
)

// AdminAuth protects the operator endpoints with HTTP basic auth. In
// production the password is checked against a bcrypt hash; the plaintext
// password fallback exists for development only and config validation
// enforces that.
func AdminAuth(username, password, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !adminCredentialsValid(user, pass, username, password, passwordHash) {
				observability.FromContext(r.Context()).Warn("admin auth failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr)
				w.Header().Set("WWW-Authenticate", `Basic realm="gallery admin"`)
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func adminCredentialsValid(user, pass, username, password, passwordHash string) bool {
	// Hash both sides so comparison time does not leak credential length.
	userHash := sha256.Sum256([]byte(user))
	wantUserHash := sha256.Sum256([]byte(username))
	if subtle.ConstantTimeCompare(userHash[:], wantUserHash[:]) != 1 {
		return false
	}

	if passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)) == nil
	}

	passHash := sha256.Sum256([]byte(pass))
	wantPassHash := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(passHash[:], wantPassHash[:]) == 1
}
