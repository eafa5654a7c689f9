package handler

import (
	"encoding/json"
	"net/http"

	"gallery-twin/internal/middleware"
	"gallery-twin/internal/security"
)

// SessionHandler exposes the session bootstrap endpoint. The rendering
// layer calls it once per page load to learn the session uuid and obtain a
// fresh CSRF token for subsequent mutations.
type SessionHandler struct {
	tokens *security.TokenManager
}

func NewSessionHandler(tokens *security.TokenManager) *SessionHandler {
	return &SessionHandler{tokens: tokens}
}

// SessionResponse is the bootstrap payload.
type SessionResponse struct {
	SessionUUID string `json:"session_uuid"`
	CSRFToken   string `json:"csrf_token"`
	Completed   bool   `json:"completed"`
}

// Get returns the resolved session and a fresh CSRF token. The session
// itself was resolved (and the cookie issued) by the Session middleware.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"No session"}`, http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.Issue(session.UUID)
	if err != nil {
		http.Error(w, `{"error":"Failed to issue token"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SessionResponse{
		SessionUUID: session.UUID,
		CSRFToken:   token,
		Completed:   session.Completed,
	})
}
