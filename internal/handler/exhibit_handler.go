package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gallery-twin/internal/domain"
)

// ExhibitHandler serves the exhibit catalogue read models.
type ExhibitHandler struct {
	exhibits  domain.ExhibitRepository
	questions domain.QuestionRepository
}

func NewExhibitHandler(exhibits domain.ExhibitRepository, questions domain.QuestionRepository) *ExhibitHandler {
	return &ExhibitHandler{exhibits: exhibits, questions: questions}
}

// List returns all exhibits in display order.
func (h *ExhibitHandler) List(w http.ResponseWriter, r *http.Request) {
	exhibits, err := h.exhibits.List(r.Context())
	if err != nil {
		http.Error(w, `{"error":"Failed to list exhibits"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"exhibits": exhibits,
	})
}

// ExhibitDetail is one exhibit with its questionnaire and navigation slugs.
type ExhibitDetail struct {
	*domain.Exhibit
	Questions []*domain.Question `json:"questions"`
	PrevSlug  string             `json:"prev_slug,omitempty"`
	NextSlug  string             `json:"next_slug,omitempty"`
}

// Get returns one exhibit by slug, with its questions and the neighboring
// slugs for sequential navigation.
func (h *ExhibitHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	exhibit, err := h.exhibits.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrExhibitNotFound) {
			http.Error(w, `{"error":"Exhibit not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to load exhibit"}`, http.StatusInternalServerError)
		return
	}

	questions, err := h.questions.ListByExhibit(r.Context(), exhibit.ID)
	if err != nil {
		http.Error(w, `{"error":"Failed to load questions"}`, http.StatusInternalServerError)
		return
	}

	prev, next, err := h.exhibits.Neighbors(r.Context(), exhibit.OrderIndex)
	if err != nil {
		http.Error(w, `{"error":"Failed to load navigation"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ExhibitDetail{
		Exhibit:   exhibit,
		Questions: questions,
		PrevSlug:  prev,
		NextSlug:  next,
	})
}
