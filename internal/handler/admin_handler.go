package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/observability"
	"gallery-twin/internal/service"
)

// AdminHandler serves the operator endpoints behind basic auth.
type AdminHandler struct {
	analytics *service.AnalyticsService
	stats     domain.AnalyticsRepository
}

func NewAdminHandler(analytics *service.AnalyticsService, stats domain.AnalyticsRepository) *AdminHandler {
	return &AdminHandler{analytics: analytics, stats: stats}
}

// Dashboard returns every aggregate in one payload.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.analytics.BuildDashboard(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Error("failed to build dashboard", "error", err)
		http.Error(w, `{"error":"Failed to build dashboard"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboard)
}

// Responses lists raw answers joined with session and question metadata,
// optionally narrowed by exhibit or question. The external export tooling
// consumes this as structured JSON.
func (h *AdminHandler) Responses(w http.ResponseWriter, r *http.Request) {
	filter := domain.ResponseFilter{}

	if raw := r.URL.Query().Get("exhibit_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, `{"error":"Invalid exhibit_id"}`, http.StatusBadRequest)
			return
		}
		filter.ExhibitID = &id
	}
	if raw := r.URL.Query().Get("question_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, `{"error":"Invalid question_id"}`, http.StatusBadRequest)
			return
		}
		filter.QuestionID = &id
	}

	records, err := h.stats.ListResponses(r.Context(), filter)
	if err != nil {
		observability.FromContext(r.Context()).Error("failed to list responses", "error", err)
		http.Error(w, `{"error":"Failed to list responses"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"responses": records,
		"count":     len(records),
	})
}
