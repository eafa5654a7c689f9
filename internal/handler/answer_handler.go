package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/middleware"
	"gallery-twin/internal/service"
)

// AnswerHandler accepts questionnaire submissions.
type AnswerHandler struct {
	answers *service.AnswerService
}

func NewAnswerHandler(answers *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

// SubmitAnswersRequest carries the answers for one questionnaire.
type SubmitAnswersRequest struct {
	Answers []service.Submission `json:"answers"`
}

// SubmitExhibit stores the visitor's answers for one exhibit and returns
// where to navigate next. Answering the final exhibit marks the session
// completed.
func (h *AnswerHandler) SubmitExhibit(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"No session"}`, http.StatusInternalServerError)
		return
	}

	slug := chi.URLParam(r, "slug")

	var req SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	result, err := h.answers.Submit(r.Context(), session, slug, req.Answers)
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// SubmitGlobal stores answers to a global questionnaire. The category path
// parameter selects self-evaluation or post-visit feedback.
func (h *AnswerHandler) SubmitGlobal(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"No session"}`, http.StatusInternalServerError)
		return
	}

	category := domain.QuestionCategory(chi.URLParam(r, "category"))
	if category != domain.CategorySelfEval && category != domain.CategoryFeedback {
		http.Error(w, `{"error":"Unknown questionnaire"}`, http.StatusNotFound)
		return
	}

	var req SubmitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := h.answers.SubmitGlobal(r.Context(), session, category, req.Answers); err != nil {
		writeSubmitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
}

func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrExhibitNotFound):
		http.Error(w, `{"error":"Exhibit not found"}`, http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	case errors.Is(err, domain.ErrQuestionNotFound):
		http.Error(w, `{"error":"Question not found"}`, http.StatusNotFound)
	default:
		http.Error(w, `{"error":"Failed to save answers"}`, http.StatusInternalServerError)
	}
}
