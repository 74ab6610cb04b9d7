package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harulab/tcm-api/internal/models"
)

func holidayRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "color", "created_at", "updated_at"})
}

func TestHolidayRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec("INSERT INTO holidays").
		WillReturnResult(sqlmock.NewResult(0, 1))

	holiday := &models.Holiday{
		Name:      "Winter Break",
		StartDate: time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), holiday))
	assert.NotEmpty(t, holiday.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryFindByYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	rows := holidayRows().AddRow("h-1", "Winter Break", time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "#ff0000", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM holidays WHERE start_date <= $1 AND end_date >= $2 ORDER BY start_date ASC")).
		WithArgs(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(rows)

	holidays, err := repo.FindByYear(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "Winter Break", holidays[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).
		WithArgs("h-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "h-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryFindExpiredBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := holidayRows().AddRow("h-old", "Past", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM holidays WHERE end_date < $1 ORDER BY end_date ASC")).
		WithArgs(today).
		WillReturnRows(rows)

	expired, err := repo.FindExpiredBefore(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "h-old", expired[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryDeleteByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.DeleteByIDs(context.Background(), []string{"h-1", "h-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayHistoryRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayHistoryRepository(db)

	mock.ExpectExec("INSERT INTO holiday_history").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Append(context.Background(), models.SystemActor, "Deleted holiday Past (expired 2024-01-02)"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
