package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gallery-twin/internal/domain"
)

type SessionRepository struct {
	db                *sql.DB
	createStmt        *sql.Stmt
	getByUUIDStmt     *sql.Stmt
	touchStmt         *sql.Stmt
	markCompletedStmt *sql.Stmt
}

// NewSessionRepository creates a new SessionRepository with prepared statements.
// Returns an error if statement preparation fails.
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	repo := &SessionRepository{db: db}

	var err error
	repo.createStmt, err = db.Prepare(`
		INSERT INTO sessions (uuid, user_agent, accept_language, created_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}

	repo.getByUUIDStmt, err = db.Prepare(`
		SELECT id, uuid, user_agent, accept_language, completed, created_at, last_activity_at
		FROM sessions
		WHERE uuid = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByUUID statement: %w", err)
	}

	repo.touchStmt, err = db.Prepare(`
		UPDATE sessions SET last_activity_at = $1 WHERE id = $2
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare touch statement: %w", err)
	}

	repo.markCompletedStmt, err = db.Prepare(`
		UPDATE sessions SET completed = TRUE WHERE id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare markCompleted statement: %w", err)
	}

	return repo, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	err := r.createStmt.QueryRowContext(ctx,
		session.UUID,
		nullString(session.UserAgent),
		nullString(session.AcceptLanguage),
		session.CreatedAt,
		session.LastActivityAt,
	).Scan(&session.ID)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByUUID(ctx context.Context, uuid string) (*domain.Session, error) {
	session := &domain.Session{}
	var userAgent, acceptLanguage sql.NullString
	err := r.getByUUIDStmt.QueryRowContext(ctx, uuid).Scan(
		&session.ID,
		&session.UUID,
		&userAgent,
		&acceptLanguage,
		&session.Completed,
		&session.CreatedAt,
		&session.LastActivityAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by uuid: %w", err)
	}
	session.UserAgent = userAgent.String
	session.AcceptLanguage = acceptLanguage.String
	return session, nil
}

// Touch updates last_activity_at in place. Concurrent touches for the same
// session are last-writer-wins; no row is ever recreated.
func (r *SessionRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	result, err := r.touchStmt.ExecContext(ctx, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) MarkCompleted(ctx context.Context, id int64) error {
	result, err := r.markCompletedStmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to mark session completed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
