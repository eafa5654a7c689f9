package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/service"
	"gallery-twin/internal/testutil"
)

func newAdminHandlerFixture() (*testutil.MockAnalyticsRepository, *AdminHandler) {
	stats := testutil.NewMockAnalyticsRepository()
	exhibits := testutil.NewMockExhibitRepository(testutil.NewTestExhibit(1))
	analytics := service.NewAnalyticsService(stats, exhibits)
	return stats, NewAdminHandler(analytics, stats)
}

func TestAdminHandler_Dashboard(t *testing.T) {
	stats, h := newAdminHandlerFixture()
	stats.Sessions = 10
	stats.Completed = 4

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	w := httptest.NewRecorder()
	h.Dashboard(w, req)

	dash := testutil.DecodeJSON[service.Dashboard](t, w)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertEqual(t, dash.TotalSessions, int64(10))
	testutil.AssertEqual(t, dash.CompletedSessions, int64(4))
	testutil.AssertEqual(t, dash.CompletionRate, 0.4)
}

func TestAdminHandler_Dashboard_Error(t *testing.T) {
	stats, h := newAdminHandlerFixture()
	stats.CountSessionsFunc = func(ctx context.Context, w domain.TimeWindow) (int64, error) {
		return 0, errors.New("db down")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	w := httptest.NewRecorder()
	h.Dashboard(w, req)

	testutil.AssertStatusCode(t, w, http.StatusInternalServerError)
}

func TestAdminHandler_Responses(t *testing.T) {
	stats, h := newAdminHandlerFixture()
	value := "bright"
	stats.Responses = []domain.ResponseRecord{
		{SessionUUID: "abc", ExhibitSlug: "entrance", QuestionID: 101, QuestionText: "Impression?", ValueText: &value, CreatedAt: time.Now()},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/responses", nil)
	w := httptest.NewRecorder()
	h.Responses(w, req)

	body := testutil.AssertJSONResponse(t, w, http.StatusOK)
	testutil.AssertEqual[any](t, body["count"], float64(1))
}

func TestAdminHandler_Responses_FilterPassedThrough(t *testing.T) {
	stats, h := newAdminHandlerFixture()
	var gotFilter domain.ResponseFilter
	stats.ListResponsesFunc = func(ctx context.Context, filter domain.ResponseFilter) ([]domain.ResponseRecord, error) {
		gotFilter = filter
		return nil, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/responses?exhibit_id=3&question_id=101", nil)
	w := httptest.NewRecorder()
	h.Responses(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertNotNil(t, gotFilter.ExhibitID)
	testutil.AssertEqual(t, *gotFilter.ExhibitID, int64(3))
	testutil.AssertNotNil(t, gotFilter.QuestionID)
	testutil.AssertEqual(t, *gotFilter.QuestionID, int64(101))
}

func TestAdminHandler_Responses_InvalidFilter(t *testing.T) {
	_, h := newAdminHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/responses?exhibit_id=abc", nil)
	w := httptest.NewRecorder()
	h.Responses(w, req)

	testutil.AssertStatusCode(t, w, http.StatusBadRequest)
}
