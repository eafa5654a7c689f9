package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gallery-twin/internal/domain"
)

const upsertAnswerSQL = `
		INSERT INTO answers (session_id, question_id, value_text, value_json, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (session_id, question_id)
		DO UPDATE SET value_text = EXCLUDED.value_text, value_json = EXCLUDED.value_json
		RETURNING id, created_at
	`

type AnswerRepository struct {
	db                *sql.DB
	tx                *TxManager
	upsertStmt        *sql.Stmt
	listBySessionStmt *sql.Stmt
}

// NewAnswerRepository creates a new AnswerRepository with prepared statements.
func NewAnswerRepository(db *sql.DB) (*AnswerRepository, error) {
	repo := &AnswerRepository{db: db, tx: NewTxManager(db)}

	var err error
	repo.upsertStmt, err = db.Prepare(upsertAnswerSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	repo.listBySessionStmt, err = db.Prepare(`
		SELECT id, session_id, question_id, value_text, value_json, created_at
		FROM answers
		WHERE session_id = $1
		ORDER BY question_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare listBySession statement: %w", err)
	}

	return repo, nil
}

// Upsert inserts the answer or replaces the stored value for the same
// (session, question) pair. The aggregator only ever reads the latest value.
func (r *AnswerRepository) Upsert(ctx context.Context, answer *domain.Answer) error {
	err := r.upsertStmt.QueryRowContext(ctx,
		answer.SessionID,
		answer.QuestionID,
		answer.ValueText,
		nullJSON(answer.ValueJSON),
	).Scan(&answer.ID, &answer.CreatedAt)

	if err != nil {
		if IsForeignKeyViolation(err, "answers_session_id_fkey") {
			return domain.ErrSessionNotFound
		}
		if IsForeignKeyViolation(err, "answers_question_id_fkey") {
			return domain.ErrQuestionNotFound
		}
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

// UpsertAll writes a submission's answers atomically: either every answer
// lands or none do.
func (r *AnswerRepository) UpsertAll(ctx context.Context, answers []*domain.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	return r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		stmt := tx.StmtContext(ctx, r.upsertStmt)
		defer stmt.Close()

		for _, answer := range answers {
			err := stmt.QueryRowContext(ctx,
				answer.SessionID,
				answer.QuestionID,
				answer.ValueText,
				nullJSON(answer.ValueJSON),
			).Scan(&answer.ID, &answer.CreatedAt)
			if err != nil {
				if IsForeignKeyViolation(err, "answers_session_id_fkey") {
					return domain.ErrSessionNotFound
				}
				if IsForeignKeyViolation(err, "answers_question_id_fkey") {
					return domain.ErrQuestionNotFound
				}
				return fmt.Errorf("failed to upsert answer for question %d: %w", answer.QuestionID, err)
			}
		}
		return nil
	})
}

func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Answer, error) {
	rows, err := r.listBySessionStmt.QueryContext(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	answers := []*domain.Answer{}
	for rows.Next() {
		answer := &domain.Answer{}
		var valueText sql.NullString
		var valueJSON []byte
		if err := rows.Scan(
			&answer.ID,
			&answer.SessionID,
			&answer.QuestionID,
			&valueText,
			&valueJSON,
			&answer.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		if valueText.Valid {
			answer.ValueText = &valueText.String
		}
		if len(valueJSON) > 0 {
			answer.ValueJSON = valueJSON
		}
		answers = append(answers, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}
	return answers, nil
}

// nullJSON maps empty JSON payloads to NULL so the value_text/value_json
// exclusivity holds at the row level.
func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
