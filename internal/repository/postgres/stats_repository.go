package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"gallery-twin/internal/domain"
)

// StatsRepository is the aggregator's read side. Its queries compose
// optional filters (time windows, exhibit/question narrowing), so they are
// built dynamically instead of prepared up front.
type StatsRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *StatsRepository) CountSessions(ctx context.Context, window domain.TimeWindow) (int64, error) {
	return r.countSessions(ctx, window, false)
}

func (r *StatsRepository) CountCompletedSessions(ctx context.Context, window domain.TimeWindow) (int64, error) {
	return r.countSessions(ctx, window, true)
}

func (r *StatsRepository) countSessions(ctx context.Context, window domain.TimeWindow, completedOnly bool) (int64, error) {
	builder := r.sb.Select("COUNT(id)").From("sessions")
	if window.From != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *window.From})
	}
	if window.To != nil {
		builder = builder.Where(sq.Lt{"created_at": *window.To})
	}
	if completedOnly {
		builder = builder.Where(sq.Eq{"completed": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build session count query: %w", err)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

func (r *StatsRepository) ListViewEvents(ctx context.Context) ([]domain.ViewEvent, error) {
	query, args, err := r.sb.
		Select("id", "session_id", "exhibit_id", "event_type", "timestamp").
		From("events").
		Where(sq.Eq{"event_type": []string{string(domain.EventViewStart), string(domain.EventViewEnd)}}).
		Where(sq.NotEq{"exhibit_id": nil}).
		OrderBy("session_id ASC", "exhibit_id ASC", "timestamp ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build view events query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list view events: %w", err)
	}
	defer rows.Close()

	events := []domain.ViewEvent{}
	for rows.Next() {
		var event domain.ViewEvent
		var eventType string
		if err := rows.Scan(&event.ID, &event.SessionID, &event.ExhibitID, &eventType, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan view event: %w", err)
		}
		event.Type = domain.EventType(eventType)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate view events: %w", err)
	}
	return events, nil
}

func (r *StatsRepository) ListAnswerValues(ctx context.Context, category domain.QuestionCategory) ([]domain.AnswerValue, error) {
	query, args, err := r.sb.
		Select("q.id", "q.text", "q.type", "q.options", "a.value_text", "a.value_json").
		From("answers a").
		Join("questions q ON q.id = a.question_id").
		Where(sq.Eq{"q.category": string(category)}).
		OrderBy("q.sort_order ASC", "q.id ASC", "a.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build answer values query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list answer values: %w", err)
	}
	defer rows.Close()

	values := []domain.AnswerValue{}
	for rows.Next() {
		var value domain.AnswerValue
		var questionType string
		var options []byte
		var valueText sql.NullString
		var valueJSON []byte
		if err := rows.Scan(&value.QuestionID, &value.QuestionText, &questionType, &options, &valueText, &valueJSON); err != nil {
			return nil, fmt.Errorf("failed to scan answer value: %w", err)
		}
		value.QuestionType = domain.QuestionType(questionType)
		if len(options) > 0 {
			if err := json.Unmarshal(options, &value.Options); err != nil {
				return nil, fmt.Errorf("failed to decode question options: %w", err)
			}
		}
		if valueText.Valid {
			value.ValueText = &valueText.String
		}
		if len(valueJSON) > 0 {
			value.ValueJSON = valueJSON
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answer values: %w", err)
	}
	return values, nil
}

func (r *StatsRepository) ListResponses(ctx context.Context, filter domain.ResponseFilter) ([]domain.ResponseRecord, error) {
	builder := r.sb.
		Select("s.uuid", "COALESCE(e.slug, '')", "q.id", "q.text", "a.value_text", "a.value_json", "a.created_at").
		From("answers a").
		Join("sessions s ON s.id = a.session_id").
		Join("questions q ON q.id = a.question_id").
		LeftJoin("exhibits e ON e.id = q.exhibit_id").
		OrderBy("a.created_at DESC", "a.id DESC")

	if filter.ExhibitID != nil {
		builder = builder.Where(sq.Eq{"q.exhibit_id": *filter.ExhibitID})
	}
	if filter.QuestionID != nil {
		builder = builder.Where(sq.Eq{"a.question_id": *filter.QuestionID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build responses query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	records := []domain.ResponseRecord{}
	for rows.Next() {
		var record domain.ResponseRecord
		var valueText sql.NullString
		var valueJSON []byte
		if err := rows.Scan(
			&record.SessionUUID,
			&record.ExhibitSlug,
			&record.QuestionID,
			&record.QuestionText,
			&valueText,
			&valueJSON,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan response record: %w", err)
		}
		if valueText.Valid {
			record.ValueText = &valueText.String
		}
		if len(valueJSON) > 0 {
			record.ValueJSON = valueJSON
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate response records: %w", err)
	}
	return records, nil
}
