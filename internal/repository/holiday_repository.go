package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/harulab/tcm-api/internal/models"
)

const holidayColumns = "id, name, start_date, end_date, color, created_at, updated_at"

// HolidayRepository persists holiday intervals.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs a holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListAll returns every stored holiday ordered by start date.
func (r *HolidayRepository) ListAll(ctx context.Context) ([]models.Holiday, error) {
	query := fmt.Sprintf("SELECT %s FROM holidays ORDER BY start_date ASC", holidayColumns)
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// FindByID loads a holiday.
func (r *HolidayRepository) FindByID(ctx context.Context, id string) (*models.Holiday, error) {
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE id = $1", holidayColumns)
	var holiday models.Holiday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		return nil, err
	}
	return &holiday, nil
}

// FindByYear returns holidays whose range intersects the given calendar year.
func (r *HolidayRepository) FindByYear(ctx context.Context, year int) ([]models.Holiday, error) {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE start_date <= $1 AND end_date >= $2 ORDER BY start_date ASC", holidayColumns)
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, yearEnd, yearStart); err != nil {
		return nil, fmt.Errorf("list holidays for year %d: %w", year, err)
	}
	return holidays, nil
}

// Create inserts a holiday.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = now
	}
	holiday.UpdatedAt = now
	query := `INSERT INTO holidays (id, name, start_date, end_date, color, created_at, updated_at)
VALUES (:id, :name, :start_date, :end_date, :color, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Delete removes a holiday, returning sql.ErrNoRows when it does not exist.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete holiday rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindExpiredBefore returns holidays whose end date is strictly before the date.
func (r *HolidayRepository) FindExpiredBefore(ctx context.Context, date time.Time) ([]models.Holiday, error) {
	query := fmt.Sprintf("SELECT %s FROM holidays WHERE end_date < $1 ORDER BY end_date ASC", holidayColumns)
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, date); err != nil {
		return nil, fmt.Errorf("list expired holidays: %w", err)
	}
	return holidays, nil
}

// DeleteByIDs bulk-deletes holidays and returns the number removed.
func (r *HolidayRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("bulk delete holidays: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete holidays rows affected: %w", err)
	}
	return affected, nil
}
