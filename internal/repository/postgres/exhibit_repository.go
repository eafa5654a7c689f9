package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gallery-twin/internal/domain"
)

// ExhibitRepository reads the exhibit catalogue. Content rows are owned by
// the external content-loading path; this repository exposes no writes.
type ExhibitRepository struct {
	db            *sql.DB
	getByIDStmt   *sql.Stmt
	getBySlugStmt *sql.Stmt
	listStmt      *sql.Stmt
	prevSlugStmt  *sql.Stmt
	nextSlugStmt  *sql.Stmt
}

func NewExhibitRepository(db *sql.DB) (*ExhibitRepository, error) {
	repo := &ExhibitRepository{db: db}

	var err error
	repo.getByIDStmt, err = db.Prepare(`
		SELECT id, slug, title, order_index FROM exhibits WHERE id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByID statement: %w", err)
	}

	repo.getBySlugStmt, err = db.Prepare(`
		SELECT id, slug, title, order_index FROM exhibits WHERE slug = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getBySlug statement: %w", err)
	}

	repo.listStmt, err = db.Prepare(`
		SELECT id, slug, title, order_index FROM exhibits ORDER BY order_index ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare list statement: %w", err)
	}

	repo.prevSlugStmt, err = db.Prepare(`
		SELECT slug FROM exhibits WHERE order_index < $1 ORDER BY order_index DESC LIMIT 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare prevSlug statement: %w", err)
	}

	repo.nextSlugStmt, err = db.Prepare(`
		SELECT slug FROM exhibits WHERE order_index > $1 ORDER BY order_index ASC LIMIT 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare nextSlug statement: %w", err)
	}

	return repo, nil
}

func (r *ExhibitRepository) GetByID(ctx context.Context, id int64) (*domain.Exhibit, error) {
	return r.scanOne(r.getByIDStmt.QueryRowContext(ctx, id))
}

func (r *ExhibitRepository) GetBySlug(ctx context.Context, slug string) (*domain.Exhibit, error) {
	return r.scanOne(r.getBySlugStmt.QueryRowContext(ctx, slug))
}

func (r *ExhibitRepository) List(ctx context.Context) ([]*domain.Exhibit, error) {
	rows, err := r.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list exhibits: %w", err)
	}
	defer rows.Close()

	exhibits := []*domain.Exhibit{}
	for rows.Next() {
		exhibit := &domain.Exhibit{}
		if err := rows.Scan(&exhibit.ID, &exhibit.Slug, &exhibit.Title, &exhibit.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan exhibit: %w", err)
		}
		exhibits = append(exhibits, exhibit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exhibits: %w", err)
	}
	return exhibits, nil
}

func (r *ExhibitRepository) Neighbors(ctx context.Context, orderIndex int) (string, string, error) {
	var prev, next string

	err := r.prevSlugStmt.QueryRowContext(ctx, orderIndex).Scan(&prev)
	if err != nil && err != sql.ErrNoRows {
		return "", "", fmt.Errorf("failed to get previous exhibit: %w", err)
	}

	err = r.nextSlugStmt.QueryRowContext(ctx, orderIndex).Scan(&next)
	if err != nil && err != sql.ErrNoRows {
		return "", "", fmt.Errorf("failed to get next exhibit: %w", err)
	}

	return prev, next, nil
}

func (r *ExhibitRepository) scanOne(row *sql.Row) (*domain.Exhibit, error) {
	exhibit := &domain.Exhibit{}
	err := row.Scan(&exhibit.ID, &exhibit.Slug, &exhibit.Title, &exhibit.OrderIndex)
	if err == sql.ErrNoRows {
		return nil, domain.ErrExhibitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exhibit: %w", err)
	}
	return exhibit, nil
}

// QuestionRepository reads survey questions, another content-owned table.
type QuestionRepository struct {
	db                *sql.DB
	getByIDStmt       *sql.Stmt
	listByExhibitStmt *sql.Stmt
	listGlobalStmt    *sql.Stmt
}

func NewQuestionRepository(db *sql.DB) (*QuestionRepository, error) {
	repo := &QuestionRepository{db: db}

	var err error
	repo.getByIDStmt, err = db.Prepare(`
		SELECT id, exhibit_id, category, text, type, options, required, sort_order
		FROM questions WHERE id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByID statement: %w", err)
	}

	repo.listByExhibitStmt, err = db.Prepare(`
		SELECT id, exhibit_id, category, text, type, options, required, sort_order
		FROM questions WHERE exhibit_id = $1 ORDER BY sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare listByExhibit statement: %w", err)
	}

	repo.listGlobalStmt, err = db.Prepare(`
		SELECT id, exhibit_id, category, text, type, options, required, sort_order
		FROM questions WHERE exhibit_id IS NULL ORDER BY sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare listGlobal statement: %w", err)
	}

	return repo, nil
}

func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	question, err := scanQuestionRow(r.getByIDStmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (r *QuestionRepository) ListByExhibit(ctx context.Context, exhibitID int64) ([]*domain.Question, error) {
	return r.list(ctx, r.listByExhibitStmt, exhibitID)
}

func (r *QuestionRepository) ListGlobal(ctx context.Context) ([]*domain.Question, error) {
	return r.list(ctx, r.listGlobalStmt)
}

func (r *QuestionRepository) list(ctx context.Context, stmt *sql.Stmt, args ...interface{}) ([]*domain.Question, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []*domain.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestionRow(row rowScanner) (*domain.Question, error) {
	return scanQuestionFrom(row)
}

func scanQuestion(rows *sql.Rows) (*domain.Question, error) {
	question, err := scanQuestionFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan question: %w", err)
	}
	return question, nil
}

func scanQuestionFrom(s rowScanner) (*domain.Question, error) {
	question := &domain.Question{}
	var exhibitID sql.NullInt64
	var category, questionType string
	var options []byte

	if err := s.Scan(
		&question.ID,
		&exhibitID,
		&category,
		&question.Text,
		&questionType,
		&options,
		&question.Required,
		&question.SortOrder,
	); err != nil {
		return nil, err
	}

	if exhibitID.Valid {
		question.ExhibitID = &exhibitID.Int64
	}
	question.Category = domain.QuestionCategory(category)
	question.Type = domain.QuestionType(questionType)
	if len(options) > 0 {
		if err := json.Unmarshal(options, &question.Options); err != nil {
			return nil, fmt.Errorf("failed to decode question options: %w", err)
		}
	}
	return question, nil
}
