package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/harulab/tcm-api/internal/models"
)

// TeacherRepository resolves teacher display names.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID loads a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, "SELECT id, name FROM teachers WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &teacher, nil
}
