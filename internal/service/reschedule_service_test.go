package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harulab/tcm-api/internal/models"
	"github.com/harulab/tcm-api/pkg/config"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
)

type courseStoreStub struct {
	courses        []models.Course
	endDateUpdates map[string]time.Time
	updateErr      error
}

func (s *courseStoreStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for i := range s.courses {
		if s.courses[i].ID == id {
			return &s.courses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *courseStoreStub) ListEndingOnOrAfter(ctx context.Context, date time.Time) ([]models.Course, error) {
	var out []models.Course
	for _, c := range s.courses {
		if c.EndDate != nil && !c.EndDate.Before(date) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *courseStoreStub) UpdateEndDate(ctx context.Context, exec sqlx.ExtContext, courseID string, endDate time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.endDateUpdates == nil {
		s.endDateUpdates = make(map[string]time.Time)
	}
	s.endDateUpdates[courseID] = endDate
	return nil
}

type sessionStoreStub struct {
	deletedCourses []string
	created        map[string][]models.ClassSession
	createErr      error
}

func (s *sessionStoreStub) DeleteAllByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	s.deletedCourses = append(s.deletedCourses, courseID)
	return 0, nil
}

func (s *sessionStoreStub) BulkCreate(ctx context.Context, exec sqlx.ExtContext, sessions []models.ClassSession) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.created == nil {
		s.created = make(map[string][]models.ClassSession)
	}
	if len(sessions) > 0 {
		s.created[sessions[0].CourseID] = sessions
	}
	return nil
}

type generatorStub struct {
	results map[string]GenerationResult
	errs    map[string]error
}

func (s generatorStub) Generate(ctx context.Context, course models.Course, isHoliday HolidayCheck) (GenerationResult, error) {
	if err, ok := s.errs[course.ID]; ok {
		return GenerationResult{}, err
	}
	return s.results[course.ID], nil
}

type openCalendarStub struct{}

func (openCalendarStub) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	return false, nil
}

func newTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduledCourse(id string, end time.Time) models.Course {
	start := day(2024, 1, 1)
	return models.Course{
		ID:            id,
		StartDate:     &start,
		EndDate:       &end,
		StartTime:     "10:00",
		EndTime:       "11:00",
		DaysOfWeek:    []string{"Mon"},
		TotalSessions: 2,
	}
}

func sessionsFor(courseID string, dates ...time.Time) []models.ClassSession {
	out := make([]models.ClassSession, 0, len(dates))
	for i, d := range dates {
		out = append(out, models.ClassSession{
			ID:       DeterministicSessionID(courseID, d, i+1),
			CourseID: courseID,
			Date:     d,
			Sequence: i + 1,
		})
	}
	return out
}

func TestRescheduleAfterBatchCommit(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	courses := &courseStoreStub{courses: []models.Course{
		scheduledCourse("course-a", day(2024, 6, 1)),
		scheduledCourse("course-b", day(2024, 7, 1)),
	}}
	sessions := &sessionStoreStub{}
	gen := generatorStub{results: map[string]GenerationResult{
		"course-a": {Sessions: sessionsFor("course-a", day(2024, 1, 1), day(2024, 1, 8)), Complete: true},
		"course-b": {Sessions: sessionsFor("course-b", day(2024, 1, 1), day(2024, 1, 8)), Complete: true},
	}}

	svc := NewRescheduleService(courses, sessions, gen, openCalendarStub{}, db, nil, nil, nil, config.GranularityBatch)
	result, err := svc.RescheduleAfter(context.Background(), day(2024, 2, 1), day(2024, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, 2, result.CoursesProcessed)
	assert.Equal(t, 4, result.SessionsCreated)
	assert.Empty(t, result.PartialCourseIDs)
	assert.Equal(t, []string{"course-a", "course-b"}, sessions.deletedCourses)
	assert.Equal(t, day(2024, 1, 8), courses.endDateUpdates["course-a"])
	assert.Equal(t, day(2024, 1, 8), courses.endDateUpdates["course-b"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleAfterEmptyRegenerationRollsBackBatch(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	courses := &courseStoreStub{courses: []models.Course{
		scheduledCourse("course-a", day(2024, 6, 1)),
		scheduledCourse("course-b", day(2024, 7, 1)),
	}}
	sessions := &sessionStoreStub{}
	gen := generatorStub{results: map[string]GenerationResult{
		"course-a": {Sessions: sessionsFor("course-a", day(2024, 1, 1)), Complete: true},
		"course-b": {}, // unschedulable
	}}

	svc := NewRescheduleService(courses, sessions, gen, openCalendarStub{}, db, nil, nil, nil, config.GranularityBatch)
	result, err := svc.RescheduleAfter(context.Background(), day(2024, 2, 1), day(2024, 2, 3))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, appErrors.ErrUnschedulable.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleAfterStoreFailureRollsBackBatch(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	courses := &courseStoreStub{courses: []models.Course{
		scheduledCourse("course-a", day(2024, 6, 1)),
	}}
	sessions := &sessionStoreStub{createErr: assert.AnError}
	gen := generatorStub{results: map[string]GenerationResult{
		"course-a": {Sessions: sessionsFor("course-a", day(2024, 1, 1)), Complete: true},
	}}

	svc := NewRescheduleService(courses, sessions, gen, openCalendarStub{}, db, nil, nil, nil, config.GranularityBatch)
	_, err := svc.RescheduleAfter(context.Background(), day(2024, 2, 1), day(2024, 2, 3))
	require.Error(t, err)
	assert.Empty(t, courses.endDateUpdates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleAfterNoAffectedCoursesIsNoOp(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()

	courses := &courseStoreStub{courses: []models.Course{
		scheduledCourse("course-past", day(2023, 1, 1)),
	}}
	svc := NewRescheduleService(courses, &sessionStoreStub{}, generatorStub{}, openCalendarStub{}, db, nil, nil, nil, config.GranularityBatch)

	result, err := svc.RescheduleAfter(context.Background(), day(2024, 2, 1), day(2024, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 0, result.CoursesProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleAfterPartialGenerationCommitsWithWarning(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	courses := &courseStoreStub{courses: []models.Course{
		scheduledCourse("course-a", day(2024, 6, 1)),
	}}
	gen := generatorStub{results: map[string]GenerationResult{
		"course-a": {Sessions: sessionsFor("course-a", day(2024, 1, 1)), Complete: false},
	}}

	svc := NewRescheduleService(courses, &sessionStoreStub{}, gen, openCalendarStub{}, db, nil, nil, nil, config.GranularityBatch)
	result, err := svc.RescheduleAfter(context.Background(), day(2024, 2, 1), day(2024, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"course-a"}, result.PartialCourseIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleAfterCourseGranularityKeepsEarlierCommits(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	courses := &courseStoreStub{courses: []models.Course{
		scheduledCourse("course-a", day(2024, 6, 1)),
		scheduledCourse("course-b", day(2024, 7, 1)),
	}}
	sessions := &sessionStoreStub{}
	gen := generatorStub{results: map[string]GenerationResult{
		"course-a": {Sessions: sessionsFor("course-a", day(2024, 1, 1)), Complete: true},
		"course-b": {}, // unschedulable
	}}

	svc := NewRescheduleService(courses, sessions, gen, openCalendarStub{}, db, nil, nil, nil, config.GranularityCourse)
	_, err := svc.RescheduleAfter(context.Background(), day(2024, 2, 1), day(2024, 2, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "course-b")
	assert.Equal(t, day(2024, 1, 1), courses.endDateUpdates["course-a"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleCourseCommitsAndReportsEndDate(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	course := scheduledCourse("course-a", day(2024, 6, 1))
	course.EndDate = nil
	courses := &courseStoreStub{courses: []models.Course{course}}
	gen := generatorStub{results: map[string]GenerationResult{
		"course-a": {Sessions: sessionsFor("course-a", day(2024, 1, 1), day(2024, 1, 8)), Complete: true},
	}}

	svc := NewRescheduleService(courses, &sessionStoreStub{}, gen, openCalendarStub{}, db, nil, nil, nil, config.GranularityBatch)
	resp, err := svc.ScheduleCourse(context.Background(), "course-a")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.SessionsCreated)
	assert.True(t, resp.Complete)
	require.NotNil(t, resp.EndDate)
	assert.Equal(t, "2024-01-08", *resp.EndDate)
	assert.Equal(t, day(2024, 1, 8), courses.endDateUpdates["course-a"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleCourseNotFound(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	svc := NewRescheduleService(&courseStoreStub{}, &sessionStoreStub{}, generatorStub{}, openCalendarStub{}, db, nil, nil, nil, config.GranularityBatch)
	_, err := svc.ScheduleCourse(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleCourseNothingToGenerate(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	course := scheduledCourse("course-a", day(2024, 6, 1))
	course.DaysOfWeek = nil
	courses := &courseStoreStub{courses: []models.Course{course}}
	gen := generatorStub{results: map[string]GenerationResult{
		"course-a": {Complete: true},
	}}

	svc := NewRescheduleService(courses, &sessionStoreStub{}, gen, openCalendarStub{}, db, nil, nil, nil, config.GranularityBatch)
	resp, err := svc.ScheduleCourse(context.Background(), "course-a")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.SessionsCreated)
	assert.Empty(t, courses.endDateUpdates)
	assert.NoError(t, mock.ExpectationsWereMet())
}
