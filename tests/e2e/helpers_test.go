//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"
)

// VisitorClient simulates one visitor device: a cookie jar holds the session
// cookie and the CSRF token from the last bootstrap is attached to writes.
type VisitorClient struct {
	*http.Client
	t         *testing.T
	csrfToken string
}

// NewVisitorClient creates a fresh client with its own cookie jar
func NewVisitorClient(t *testing.T) *VisitorClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &VisitorClient{
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		t: t,
	}
}

// SessionInfo is the bootstrap response body
type SessionInfo struct {
	SessionUUID string `json:"session_uuid"`
	CSRFToken   string `json:"csrf_token"`
	Completed   bool   `json:"completed"`
}

// Bootstrap calls GET /api/v1/session, stores the CSRF token, and returns
// the session info.
func (vc *VisitorClient) Bootstrap() (*SessionInfo, error) {
	resp, err := vc.Get(baseURL + "/api/v1/session")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bootstrap failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}

	vc.csrfToken = info.CSRFToken
	return &info, nil
}

// MustBootstrap bootstraps and fails the test on error
func (vc *VisitorClient) MustBootstrap() *SessionInfo {
	vc.t.Helper()
	info, err := vc.Bootstrap()
	if err != nil {
		vc.t.Fatalf("bootstrap: %v", err)
	}
	return info
}

// GetJSON performs a GET and decodes the JSON body into out
func (vc *VisitorClient) GetJSON(path string, out interface{}) (*http.Response, error) {
	resp, err := vc.Get(baseURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, nil
}

// PostJSON performs a POST with the stored CSRF token and decodes the JSON
// body into out when the request succeeds.
func (vc *VisitorClient) PostJSON(path string, body interface{}, out interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if vc.csrfToken != "" {
		req.Header.Set("X-CSRF-Token", vc.csrfToken)
	}

	resp, err := vc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, nil
}

// adminGetJSON performs an authenticated admin GET and decodes the body
func adminGetJSON(t *testing.T, path string, out interface{}) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("failed to build admin request: %v", err)
	}
	req.SetBasicAuth(adminUser, adminPassword)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("admin request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode admin response: %v", err)
		}
	}
	return resp
}

// recordEvent posts one engagement event for the given exhibit
func (vc *VisitorClient) recordEvent(exhibitID int64, eventType string, at time.Time) (*http.Response, error) {
	body := map[string]interface{}{
		"exhibit_id": exhibitID,
		"event_type": eventType,
		"timestamp":  at.Format(time.RFC3339),
	}
	return vc.PostJSON("/api/v1/events", body, nil)
}

// submitAnswers posts questionnaire answers for one exhibit
func (vc *VisitorClient) submitAnswers(slug string, answers []map[string]interface{}, out interface{}) (*http.Response, error) {
	return vc.PostJSON("/api/v1/exhibits/"+slug+"/answers", map[string]interface{}{
		"answers": answers,
	}, out)
}
