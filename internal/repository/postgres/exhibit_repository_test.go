package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"gallery-twin/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exhibitColumns = []string{"id", "slug", "title", "order_index"}

func setupExhibitRepositoryMocks(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare(regexp.QuoteMeta(`
		SELECT id, slug, title, order_index FROM exhibits WHERE id = $1
	`))
	mock.ExpectPrepare(regexp.QuoteMeta(`
		SELECT id, slug, title, order_index FROM exhibits WHERE slug = $1
	`))
	mock.ExpectPrepare(regexp.QuoteMeta(`
		SELECT id, slug, title, order_index FROM exhibits ORDER BY order_index ASC
	`))
	mock.ExpectPrepare(regexp.QuoteMeta(`
		SELECT slug FROM exhibits WHERE order_index < $1 ORDER BY order_index DESC LIMIT 1
	`))
	mock.ExpectPrepare(regexp.QuoteMeta(`
		SELECT slug FROM exhibits WHERE order_index > $1 ORDER BY order_index ASC LIMIT 1
	`))
}

func newExhibitRepository(t *testing.T) (*ExhibitRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	setupExhibitRepositoryMocks(mock)
	repo, err := NewExhibitRepository(db)
	require.NoError(t, err)

	return repo, mock, func() { db.Close() }
}

func TestExhibitRepository_GetBySlug(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, cleanup := newExhibitRepository(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE slug = $1`)).
			WithArgs("north-wing").
			WillReturnRows(sqlmock.NewRows(exhibitColumns).AddRow(int64(2), "north-wing", "The North Wing", 2))

		exhibit, err := repo.GetBySlug(context.Background(), "north-wing")
		require.NoError(t, err)
		assert.Equal(t, int64(2), exhibit.ID)
		assert.Equal(t, "The North Wing", exhibit.Title)
		assert.Equal(t, 2, exhibit.OrderIndex)
	})

	t.Run("not_found", func(t *testing.T) {
		repo, mock, cleanup := newExhibitRepository(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE slug = $1`)).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(exhibitColumns))

		_, err := repo.GetBySlug(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrExhibitNotFound)
	})
}

func TestExhibitRepository_List(t *testing.T) {
	repo, mock, cleanup := newExhibitRepository(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY order_index ASC`)).
		WillReturnRows(sqlmock.NewRows(exhibitColumns).
			AddRow(int64(1), "entrance", "Entrance Hall", 1).
			AddRow(int64(2), "north-wing", "The North Wing", 2))

	exhibits, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, exhibits, 2)
	assert.Equal(t, "entrance", exhibits[0].Slug)
	assert.Equal(t, "north-wing", exhibits[1].Slug)
}

func TestExhibitRepository_Neighbors(t *testing.T) {
	t.Run("middle_of_sequence", func(t *testing.T) {
		repo, mock, cleanup := newExhibitRepository(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE order_index < $1`)).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("entrance"))
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE order_index > $1`)).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("south-wing"))

		prev, next, err := repo.Neighbors(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, "entrance", prev)
		assert.Equal(t, "south-wing", next)
	})

	t.Run("last_exhibit_has_no_next", func(t *testing.T) {
		repo, mock, cleanup := newExhibitRepository(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE order_index < $1`)).
			WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("north-wing"))
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE order_index > $1`)).
			WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"slug"}))

		prev, next, err := repo.Neighbors(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, "north-wing", prev)
		assert.Empty(t, next)
	})

	t.Run("query_error", func(t *testing.T) {
		repo, mock, cleanup := newExhibitRepository(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE order_index < $1`)).
			WillReturnError(errors.New("query failed"))

		_, _, err := repo.Neighbors(context.Background(), 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get previous exhibit")
	})
}

var questionColumns = []string{"id", "exhibit_id", "category", "text", "type", "options", "required", "sort_order"}

func setupQuestionRepositoryMocks(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare(regexp.QuoteMeta(`
		SELECT id, exhibit_id, category, text, type, options, required, sort_order
		FROM questions WHERE id = $1
	`))
	mock.ExpectPrepare(regexp.QuoteMeta(`
		SELECT id, exhibit_id, category, text, type, options, required, sort_order
		FROM questions WHERE exhibit_id = $1 ORDER BY sort_order ASC, id ASC
	`))
	mock.ExpectPrepare(regexp.QuoteMeta(`
		SELECT id, exhibit_id, category, text, type, options, required, sort_order
		FROM questions WHERE exhibit_id IS NULL ORDER BY sort_order ASC, id ASC
	`))
}

func newQuestionRepository(t *testing.T) (*QuestionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	setupQuestionRepositoryMocks(mock)
	repo, err := NewQuestionRepository(db)
	require.NoError(t, err)

	return repo, mock, func() { db.Close() }
}

func TestQuestionRepository_GetByID(t *testing.T) {
	t.Run("found_with_options", func(t *testing.T) {
		repo, mock, cleanup := newQuestionRepository(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(questionColumns).
				AddRow(int64(10), int64(1), "exhibit", "How did this room feel?", "single", []byte(`["calm","busy"]`), true, 1))

		question, err := repo.GetByID(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryExhibit, question.Category)
		assert.Equal(t, domain.QuestionSingle, question.Type)
		assert.Equal(t, []string{"calm", "busy"}, question.Options)
		assert.True(t, question.Required)
		require.NotNil(t, question.ExhibitID)
		assert.Equal(t, int64(1), *question.ExhibitID)
	})

	t.Run("not_found", func(t *testing.T) {
		repo, mock, cleanup := newQuestionRepository(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(questionColumns))

		_, err := repo.GetByID(context.Background(), 404)
		assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
	})
}

func TestQuestionRepository_ListGlobal(t *testing.T) {
	repo, mock, cleanup := newQuestionRepository(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE exhibit_id IS NULL`)).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow(int64(201), nil, "selfeval", "Age bracket", "single", []byte(`["18-24","25-34"]`), false, 1).
			AddRow(int64(301), nil, "feedback", "Overall rating", "likert", []byte(`["1","2","3","4","5"]`), false, 2))

	questions, err := repo.ListGlobal(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Nil(t, questions[0].ExhibitID)
	assert.Equal(t, domain.CategorySelfEval, questions[0].Category)
	assert.Equal(t, domain.CategoryFeedback, questions[1].Category)
	assert.Equal(t, domain.QuestionLikert, questions[1].Type)
}

func TestQuestionRepository_ListByExhibit(t *testing.T) {
	repo, mock, cleanup := newQuestionRepository(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE exhibit_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow(int64(101), int64(1), "exhibit", "Your impression?", "text", nil, true, 1))

	questions, err := repo.ListByExhibit(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].Options)
	assert.Equal(t, domain.QuestionText, questions[0].Type)
}
