package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrEmptySecret = errors.New("csrf: signing secret must not be empty")

// TokenManager issues and verifies CSRF tokens bound to a session UUID.
//
// A token is a keyed signature over (session uuid, issued-at), so
// verification is a pure function: no server-side token table is needed and
// tokens can be embedded in forms across concurrent requests without shared
// state. Tokens remain valid for repeated submissions within their TTL;
// single-use consumption is intentionally not enforced.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager with the given signing secret and
// token lifetime. Returns an error if the secret is empty.
func NewTokenManager(secret []byte, ttl time.Duration) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}, nil
}

// WithClock overrides the time source. Used by tests to exercise expiry
// deterministically.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// Issue produces a token bound to sessionUUID and the current time.
// Token format: base64url(sessionUUID|unixIssuedAt) "." base64url(signature).
func (tm *TokenManager) Issue(sessionUUID string) (string, error) {
	if sessionUUID == "" {
		return "", fmt.Errorf("csrf: session uuid must not be empty")
	}
	payload := sessionUUID + "|" + strconv.FormatInt(tm.now().Unix(), 10)
	sig := tm.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify reports whether token is a currently valid token for sessionUUID.
// It returns false, never an error, on malformed encoding, a bad signature,
// a session mismatch, or expiry. A token issued for one session never
// verifies against another.
func (tm *TokenManager) Verify(token, sessionUUID string) bool {
	payloadPart, sigPart, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}

	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return false
	}

	// Check the signature before trusting any payload content.
	if !hmac.Equal(sig, tm.sign(string(payload))) {
		return false
	}

	boundUUID, issuedPart, ok := strings.Cut(string(payload), "|")
	if !ok {
		return false
	}
	if !hmac.Equal([]byte(boundUUID), []byte(sessionUUID)) {
		return false
	}

	issuedUnix, err := strconv.ParseInt(issuedPart, 10, 64)
	if err != nil {
		return false
	}
	issuedAt := time.Unix(issuedUnix, 0)
	age := tm.now().Sub(issuedAt)
	if age < 0 || age > tm.ttl {
		return false
	}

	return true
}

func (tm *TokenManager) sign(payload string) []byte {
	mac := hmac.New(sha256.New, tm.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
