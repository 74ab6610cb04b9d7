package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/harulab/tcm-api/internal/models"
)

// RoomRepository resolves classroom display names.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByID loads a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, "SELECT id, name FROM rooms WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &room, nil
}
