package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/harulab/tcm-api/internal/models"
)

const sessionColumns = "id, course_id, session_date, starts_at, ends_at, sequence, room_name, teacher_name, note, created_at"

// SessionRepository persists generated class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) executor(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec == nil {
		return r.db
	}
	return exec
}

// DeleteAllByCourse removes every session of a course and returns the count.
func (r *SessionRepository) DeleteAllByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	res, err := r.executor(exec).ExecContext(ctx, "DELETE FROM class_sessions WHERE course_id = $1", courseID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions for course %s: %w", courseID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete sessions rows affected: %w", err)
	}
	return affected, nil
}

// DeleteFutureByCourse removes sessions on or after the given date.
func (r *SessionRepository) DeleteFutureByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string, from time.Time) (int64, error) {
	res, err := r.executor(exec).ExecContext(ctx, "DELETE FROM class_sessions WHERE course_id = $1 AND session_date >= $2", courseID, from)
	if err != nil {
		return 0, fmt.Errorf("delete future sessions for course %s: %w", courseID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete future sessions rows affected: %w", err)
	}
	return affected, nil
}

// BulkCreate inserts generated sessions in one statement.
func (r *SessionRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, sessions []models.ClassSession) error {
	if len(sessions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].CreatedAt.IsZero() {
			sessions[i].CreatedAt = now
		}
	}
	query := `INSERT INTO class_sessions (id, course_id, session_date, starts_at, ends_at, sequence, room_name, teacher_name, note, created_at)
VALUES (:id, :course_id, :session_date, :starts_at, :ends_at, :sequence, :room_name, :teacher_name, :note, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.executor(exec), query, sessions); err != nil {
		return fmt.Errorf("bulk create sessions: %w", err)
	}
	return nil
}

// ListByCourse returns a course's sessions in sequence order.
func (r *SessionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE course_id = $1 ORDER BY sequence ASC", sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, courseID); err != nil {
		return nil, fmt.Errorf("list sessions for course %s: %w", courseID, err)
	}
	return sessions, nil
}

// FindByID loads a single session.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE id = $1", sessionColumns)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CountBetween returns the number of sessions in the inclusive date range.
func (r *SessionRepository) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM class_sessions WHERE session_date >= $1 AND session_date <= $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("count sessions between: %w", err)
	}
	return total, nil
}
