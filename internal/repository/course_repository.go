package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/harulab/tcm-api/internal/models"
)

const courseColumns = "id, name, start_date, end_date, start_time, end_time, days_of_week, total_sessions, room_id, teacher_id, created_at, updated_at"

// CourseRepository persists courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) executor(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec == nil {
		return r.db
	}
	return exec
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	query := `INSERT INTO courses (id, name, start_date, end_date, start_time, end_time, days_of_week, total_sessions, room_id, teacher_id, created_at, updated_at)
VALUES (:id, :name, :start_date, :end_date, :start_time, :end_time, :days_of_week, :total_sessions, :room_id, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID loads a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListEndingOnOrAfter returns courses whose end date is on or after the given
// date. Courses entirely in the past, or never scheduled (NULL end date), are
// excluded. Ordered by id so reschedule cascades process courses in a stable
// order.
func (r *CourseRepository) ListEndingOnOrAfter(ctx context.Context, date time.Time) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE end_date >= $1 ORDER BY id ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, date); err != nil {
		return nil, fmt.Errorf("list courses ending on or after %s: %w", date.Format("2006-01-02"), err)
	}
	return courses, nil
}

// CountActiveOn returns the number of courses whose date range covers the date.
func (r *CourseRepository) CountActiveOn(ctx context.Context, date time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM courses WHERE start_date <= $1 AND (end_date IS NULL OR end_date >= $1)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, date); err != nil {
		return 0, fmt.Errorf("count active courses: %w", err)
	}
	return total, nil
}

// UpdateEndDate persists a recomputed course end date.
func (r *CourseRepository) UpdateEndDate(ctx context.Context, exec sqlx.ExtContext, courseID string, endDate time.Time) error {
	const query = `UPDATE courses SET end_date = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.executor(exec).ExecContext(ctx, query, endDate, time.Now().UTC(), courseID); err != nil {
		return fmt.Errorf("update course end date: %w", err)
	}
	return nil
}
