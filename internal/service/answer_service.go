package service

import (
	"context"
	"encoding/json"
	"fmt"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/observability"
)

// AnswerService handles questionnaire submissions: validation, idempotent
// upsert per (session, question), and flagging the session completed when
// the final exhibit's questionnaire is answered.
type AnswerService struct {
	answerRepo   domain.AnswerRepository
	questionRepo domain.QuestionRepository
	exhibitRepo  domain.ExhibitRepository
	sessions     *SessionService
}

func NewAnswerService(
	answerRepo domain.AnswerRepository,
	questionRepo domain.QuestionRepository,
	exhibitRepo domain.ExhibitRepository,
	sessions *SessionService,
) *AnswerService {
	return &AnswerService{
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		exhibitRepo:  exhibitRepo,
		sessions:     sessions,
	}
}

// Submission is one submitted value keyed by question. Values holds the
// selected options; single/likert/text submissions carry exactly one.
type Submission struct {
	QuestionID int64    `json:"question_id"`
	Values     []string `json:"values"`
}

// SubmitResult tells the caller where to navigate next.
type SubmitResult struct {
	NextSlug  string `json:"next_slug,omitempty"`
	Completed bool   `json:"completed"`
}

// Submit validates and stores a visitor's answers for one exhibit's
// questionnaire. Answers are written atomically; resubmitting replaces the
// stored values. When the exhibit is the last in the sequence the session
// is marked completed.
func (s *AnswerService) Submit(ctx context.Context, session *domain.Session, exhibitSlug string, submissions []Submission) (*SubmitResult, error) {
	exhibit, err := s.exhibitRepo.GetBySlug(ctx, exhibitSlug)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.ListByExhibit(ctx, exhibit.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	submitted := make(map[int64][]string, len(submissions))
	for _, sub := range submissions {
		submitted[sub.QuestionID] = sub.Values
	}

	answers := []*domain.Answer{}
	for _, question := range questions {
		values, ok := submitted[question.ID]
		if !ok || len(values) == 0 {
			if question.Required {
				return nil, fmt.Errorf("%w: question %q is required", domain.ErrInvalidInput, question.Text)
			}
			continue
		}

		answer, err := buildAnswer(session.ID, question, values)
		if err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}

	if err := s.answerRepo.UpsertAll(ctx, answers); err != nil {
		return nil, err
	}
	for range answers {
		observability.AnswersSaved.Inc()
	}

	_, nextSlug, err := s.exhibitRepo.Neighbors(ctx, exhibit.OrderIndex)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{NextSlug: nextSlug}
	if nextSlug == "" {
		// Final exhibit answered: this is the terminal marker the
		// completion rate counts.
		if err := s.sessions.MarkCompleted(ctx, session.ID); err != nil {
			return nil, err
		}
		result.Completed = true
	}

	observability.FromContext(ctx).Info("answers saved",
		"exhibit_slug", exhibitSlug,
		"answer_count", len(answers),
		"completed", result.Completed)
	return result, nil
}

// SubmitGlobal stores answers to a global questionnaire (self-evaluation or
// post-visit feedback), which has no exhibit navigation or completion side
// effect.
func (s *AnswerService) SubmitGlobal(ctx context.Context, session *domain.Session, category domain.QuestionCategory, submissions []Submission) error {
	questions, err := s.questionRepo.ListGlobal(ctx)
	if err != nil {
		return fmt.Errorf("failed to load global questions: %w", err)
	}

	submitted := make(map[int64][]string, len(submissions))
	for _, sub := range submissions {
		submitted[sub.QuestionID] = sub.Values
	}

	answers := []*domain.Answer{}
	for _, question := range questions {
		if question.Category != category {
			continue
		}
		values, ok := submitted[question.ID]
		if !ok || len(values) == 0 {
			if question.Required {
				return fmt.Errorf("%w: question %q is required", domain.ErrInvalidInput, question.Text)
			}
			continue
		}

		answer, err := buildAnswer(session.ID, question, values)
		if err != nil {
			return err
		}
		answers = append(answers, answer)
	}

	if err := s.answerRepo.UpsertAll(ctx, answers); err != nil {
		return err
	}
	for range answers {
		observability.AnswersSaved.Inc()
	}
	return nil
}

// buildAnswer maps submitted values onto the value_text/value_json split:
// multi-choice answers serialize to a JSON array, everything else stores
// its single value as text.
func buildAnswer(sessionID int64, question *domain.Question, values []string) (*domain.Answer, error) {
	answer := &domain.Answer{SessionID: sessionID, QuestionID: question.ID}

	if question.Type == domain.QuestionMulti {
		raw, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("failed to encode answer values: %w", err)
		}
		answer.ValueJSON = raw
		return answer, nil
	}

	if len(values) != 1 {
		return nil, fmt.Errorf("%w: question %d expects a single value", domain.ErrInvalidInput, question.ID)
	}
	answer.ValueText = &values[0]
	return answer, nil
}
