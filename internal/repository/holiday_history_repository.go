package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/harulab/tcm-api/internal/models"
)

// HolidayHistoryRepository appends holiday audit entries. Entries are never
// updated or deleted.
type HolidayHistoryRepository struct {
	db *sqlx.DB
}

// NewHolidayHistoryRepository constructs a history repository.
func NewHolidayHistoryRepository(db *sqlx.DB) *HolidayHistoryRepository {
	return &HolidayHistoryRepository{db: db}
}

// Append records a holiday mutation.
func (r *HolidayHistoryRepository) Append(ctx context.Context, actor, action string) error {
	entry := models.HolidayHistory{
		ID:        uuid.NewString(),
		Actor:     actor,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO holiday_history (id, actor, action, created_at)
VALUES (:id, :actor, :action, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append holiday history: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first.
func (r *HolidayHistoryRepository) ListRecent(ctx context.Context, limit int) ([]models.HolidayHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT id, actor, action, created_at FROM holiday_history ORDER BY created_at DESC LIMIT %d", limit)
	var entries []models.HolidayHistory
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list holiday history: %w", err)
	}
	return entries, nil
}
