package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gallery-twin/internal/domain"
	"gallery-twin/internal/testutil"
)

type answerFixture struct {
	answers   *testutil.MockAnswerRepository
	questions *testutil.MockQuestionRepository
	exhibits  *testutil.MockExhibitRepository
	sessions  *testutil.MockSessionRepository
	session   *domain.Session
	svc       *AnswerService
}

// newAnswerFixture wires a three-exhibit gallery with one required text
// question on each exhibit and two global questions.
func newAnswerFixture(t *testing.T) *answerFixture {
	t.Helper()

	exhibits := testutil.NewMockExhibitRepository(
		testutil.NewTestExhibit(1),
		testutil.NewTestExhibit(2),
		testutil.NewTestExhibit(3),
	)

	questions := testutil.NewMockQuestionRepository(
		&domain.Question{ID: 101, ExhibitID: &exhibits.Exhibits[0].ID, Category: domain.CategoryExhibit, Text: "Thoughts on exhibit 1?", Type: domain.QuestionText, Required: true},
		&domain.Question{ID: 102, ExhibitID: &exhibits.Exhibits[1].ID, Category: domain.CategoryExhibit, Text: "Thoughts on exhibit 2?", Type: domain.QuestionText, Required: true},
		&domain.Question{ID: 103, ExhibitID: &exhibits.Exhibits[2].ID, Category: domain.CategoryExhibit, Text: "Thoughts on exhibit 3?", Type: domain.QuestionText, Required: true},
		&domain.Question{ID: 201, Category: domain.CategorySelfEval, Text: "Age bracket", Type: domain.QuestionSingle, Options: []string{"18-24", "25-34"}},
		&domain.Question{ID: 301, Category: domain.CategoryFeedback, Text: "What did you like?", Type: domain.QuestionMulti, Options: []string{"audio", "layout"}},
	)

	session := testutil.NewTestSession()
	sessionRepo := testutil.NewMockSessionRepository()
	sessionRepo.Sessions[session.ID] = session

	answers := testutil.NewMockAnswerRepository()
	svc := NewAnswerService(answers, questions, exhibits, NewSessionService(sessionRepo, time.Hour))

	return &answerFixture{
		answers:   answers,
		questions: questions,
		exhibits:  exhibits,
		sessions:  sessionRepo,
		session:   session,
		svc:       svc,
	}
}

func TestAnswerService_Submit(t *testing.T) {
	f := newAnswerFixture(t)

	result, err := f.svc.Submit(context.Background(), f.session, "exhibit-1", []Submission{
		{QuestionID: 101, Values: []string{"beautiful"}},
	})

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, result.NextSlug, "exhibit-2")
	testutil.AssertFalse(t, result.Completed, "mid-sequence submit must not complete")
	testutil.AssertFalse(t, f.sessions.Sessions[f.session.ID].Completed, "session flag untouched")

	stored := f.answers.Answers[[2]int64{f.session.ID, 101}]
	testutil.AssertNotNil(t, stored)
	testutil.AssertEqual(t, *stored.ValueText, "beautiful")
	testutil.AssertNil(t, stored.ValueJSON)
}

func TestAnswerService_Submit_FinalExhibitCompletes(t *testing.T) {
	f := newAnswerFixture(t)

	result, err := f.svc.Submit(context.Background(), f.session, "exhibit-3", []Submission{
		{QuestionID: 103, Values: []string{"a fine ending"}},
	})

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, result.NextSlug, "")
	testutil.AssertTrue(t, result.Completed, "final exhibit completes the visit")
	testutil.AssertTrue(t, f.sessions.Sessions[f.session.ID].Completed, "session flagged completed")
}

func TestAnswerService_Submit_UnknownExhibit(t *testing.T) {
	f := newAnswerFixture(t)

	_, err := f.svc.Submit(context.Background(), f.session, "no-such-room", nil)
	testutil.AssertErrorIs(t, err, domain.ErrExhibitNotFound)
}

func TestAnswerService_Submit_MissingRequiredAnswer(t *testing.T) {
	f := newAnswerFixture(t)

	_, err := f.svc.Submit(context.Background(), f.session, "exhibit-1", nil)
	testutil.AssertErrorIs(t, err, domain.ErrInvalidInput)
	testutil.AssertEqual(t, len(f.answers.Answers), 0)
}

func TestAnswerService_Submit_EmptyValuesCountAsMissing(t *testing.T) {
	f := newAnswerFixture(t)

	_, err := f.svc.Submit(context.Background(), f.session, "exhibit-1", []Submission{
		{QuestionID: 101, Values: []string{}},
	})
	testutil.AssertErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswerService_Submit_ResubmitReplacesValue(t *testing.T) {
	f := newAnswerFixture(t)

	_, err := f.svc.Submit(context.Background(), f.session, "exhibit-1", []Submission{
		{QuestionID: 101, Values: []string{"first impression"}},
	})
	testutil.AssertNoError(t, err)

	_, err = f.svc.Submit(context.Background(), f.session, "exhibit-1", []Submission{
		{QuestionID: 101, Values: []string{"on reflection"}},
	})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(f.answers.Answers), 1)
	stored := f.answers.Answers[[2]int64{f.session.ID, 101}]
	testutil.AssertEqual(t, *stored.ValueText, "on reflection")
}

func TestAnswerService_Submit_UpsertError(t *testing.T) {
	f := newAnswerFixture(t)
	dbErr := errors.New("deadlock detected")
	f.answers.UpsertAllFunc = func(ctx context.Context, answers []*domain.Answer) error {
		return dbErr
	}

	_, err := f.svc.Submit(context.Background(), f.session, "exhibit-1", []Submission{
		{QuestionID: 101, Values: []string{"x"}},
	})
	testutil.AssertErrorIs(t, err, dbErr)
}

func TestAnswerService_SubmitGlobal_SelfEval(t *testing.T) {
	f := newAnswerFixture(t)

	err := f.svc.SubmitGlobal(context.Background(), f.session, domain.CategorySelfEval, []Submission{
		{QuestionID: 201, Values: []string{"25-34"}},
	})
	testutil.AssertNoError(t, err)

	stored := f.answers.Answers[[2]int64{f.session.ID, 201}]
	testutil.AssertNotNil(t, stored)
	testutil.AssertEqual(t, *stored.ValueText, "25-34")
	testutil.AssertFalse(t, f.sessions.Sessions[f.session.ID].Completed, "global submit has no completion side effect")
}

func TestAnswerService_SubmitGlobal_MultiStoresJSONArray(t *testing.T) {
	f := newAnswerFixture(t)

	err := f.svc.SubmitGlobal(context.Background(), f.session, domain.CategoryFeedback, []Submission{
		{QuestionID: 301, Values: []string{"audio", "layout"}},
	})
	testutil.AssertNoError(t, err)

	stored := f.answers.Answers[[2]int64{f.session.ID, 301}]
	testutil.AssertNotNil(t, stored)
	testutil.AssertNil(t, stored.ValueText)
	testutil.AssertEqual(t, string(stored.ValueJSON), `["audio","layout"]`)
}

func TestAnswerService_SubmitGlobal_IgnoresOtherCategory(t *testing.T) {
	f := newAnswerFixture(t)

	// A feedback question submitted under the self-eval category is not
	// part of that questionnaire and is silently skipped.
	err := f.svc.SubmitGlobal(context.Background(), f.session, domain.CategorySelfEval, []Submission{
		{QuestionID: 301, Values: []string{"audio"}},
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(f.answers.Answers), 0)
}

func TestBuildAnswer_SingleRejectsMultipleValues(t *testing.T) {
	question := &domain.Question{ID: 1, Type: domain.QuestionSingle}

	_, err := buildAnswer(1, question, []string{"a", "b"})
	testutil.AssertErrorIs(t, err, domain.ErrInvalidInput)
}
