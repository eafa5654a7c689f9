package domain

import (
	"context"
	"errors"
)

var (
	ErrExhibitNotFound  = errors.New("exhibit not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// QuestionType classifies how a question is answered and aggregated.
type QuestionType string

const (
	QuestionSingle QuestionType = "single"
	QuestionMulti  QuestionType = "multi"
	QuestionLikert QuestionType = "likert"
	QuestionText   QuestionType = "text"
)

// Exhibit is a read-only content unit owned by the content-loading path.
type Exhibit struct {
	ID         int64  `json:"id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

// QuestionCategory separates the two global questionnaires from
// exhibit-attached questions.
type QuestionCategory string

const (
	CategoryExhibit  QuestionCategory = "exhibit"
	CategorySelfEval QuestionCategory = "selfeval"
	CategoryFeedback QuestionCategory = "feedback"
)

// Question is a read-only survey question. ExhibitID is nil for global
// questions (self-evaluation, post-visit feedback). Options lists the
// choices for single/multi/likert questions in display order.
type Question struct {
	ID        int64            `json:"id"`
	ExhibitID *int64           `json:"exhibit_id,omitempty"`
	Category  QuestionCategory `json:"category"`
	Text      string           `json:"text"`
	Type      QuestionType     `json:"type"`
	Options   []string         `json:"options,omitempty"`
	Required  bool             `json:"required"`
	SortOrder int              `json:"sort_order"`
}

// ExhibitRepository defines read access to the exhibit catalogue.
type ExhibitRepository interface {
	GetByID(ctx context.Context, id int64) (*Exhibit, error)
	GetBySlug(ctx context.Context, slug string) (*Exhibit, error)
	// List returns all exhibits ordered by order_index ascending.
	List(ctx context.Context) ([]*Exhibit, error)
	// Neighbors returns the slugs of the exhibits immediately before and
	// after the given order index; empty string when at either edge.
	Neighbors(ctx context.Context, orderIndex int) (prev, next string, err error)
}

// QuestionRepository defines read access to survey questions.
type QuestionRepository interface {
	GetByID(ctx context.Context, id int64) (*Question, error)
	ListByExhibit(ctx context.Context, exhibitID int64) ([]*Question, error)
	// ListGlobal returns questions not attached to any exhibit.
	ListGlobal(ctx context.Context) ([]*Question, error)
}
