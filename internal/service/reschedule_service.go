package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/harulab/tcm-api/internal/dto"
	"github.com/harulab/tcm-api/internal/models"
	"github.com/harulab/tcm-api/pkg/config"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
)

type rescheduleCourseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListEndingOnOrAfter(ctx context.Context, date time.Time) ([]models.Course, error)
	UpdateEndDate(ctx context.Context, exec sqlx.ExtContext, courseID string, endDate time.Time) error
}

type rescheduleSessionStore interface {
	DeleteAllByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, sessions []models.ClassSession) error
}

type scheduleGenerator interface {
	Generate(ctx context.Context, course models.Course, isHoliday HolidayCheck) (GenerationResult, error)
}

type holidayChecker interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// RescheduleService owns the delete-then-regenerate unit of work: first-time
// course scheduling and the holiday-change cascade across affected courses.
type RescheduleService struct {
	courses     rescheduleCourseStore
	sessions    rescheduleSessionStore
	generator   scheduleGenerator
	calendar    holidayChecker
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	granularity string
}

// NewRescheduleService wires the coordinator.
func NewRescheduleService(
	courses rescheduleCourseStore,
	sessions rescheduleSessionStore,
	generator scheduleGenerator,
	calendar holidayChecker,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	granularity string,
) *RescheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if granularity != config.GranularityCourse {
		granularity = config.GranularityBatch
	}
	return &RescheduleService{
		courses:     courses,
		sessions:    sessions,
		generator:   generator,
		calendar:    calendar,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		granularity: granularity,
	}
}

// RescheduleAfter regenerates the schedule of every course whose end date
// falls on or after rangeStart. In batch granularity the whole cascade is one
// transaction: any store failure, or a course regenerating to zero sessions,
// rolls back every change. In course granularity each course commits on its
// own and the first failure stops the cascade with earlier commits standing.
func (s *RescheduleService) RescheduleAfter(ctx context.Context, rangeStart, rangeEnd time.Time) (*dto.RescheduleResult, error) {
	affected, err := s.courses.ListEndingOnOrAfter(ctx, rangeStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affected courses")
	}

	result := &dto.RescheduleResult{Granularity: s.granularity}
	if len(affected) == 0 {
		s.logger.Info("holiday change affects no courses",
			zap.Time("range_start", rangeStart), zap.Time("range_end", rangeEnd))
		return result, nil
	}

	if s.granularity == config.GranularityCourse {
		err = s.reschedulePerCourse(ctx, affected, result)
	} else {
		err = s.rescheduleBatch(ctx, affected, result)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordReschedule("rolled_back")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordReschedule("committed")
		s.metrics.AddSessionsGenerated(result.SessionsCreated)
	}
	s.invalidateDashboard(ctx)
	s.logger.Info("reschedule cascade committed",
		zap.Int("courses", result.CoursesProcessed),
		zap.Int("sessions", result.SessionsCreated),
		zap.Strings("partial_course_ids", result.PartialCourseIDs))
	return result, nil
}

func (s *RescheduleService) rescheduleBatch(ctx context.Context, affected []models.Course, result *dto.RescheduleResult) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin reschedule transaction")
	}

	for _, course := range affected {
		created, complete, err := s.regenerateCourse(ctx, tx, course)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		result.CoursesProcessed++
		result.SessionsCreated += created
		if !complete {
			result.PartialCourseIDs = append(result.PartialCourseIDs, course.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reschedule transaction")
	}
	return nil
}

func (s *RescheduleService) reschedulePerCourse(ctx context.Context, affected []models.Course, result *dto.RescheduleResult) error {
	for _, course := range affected {
		tx, err := s.tx.BeginTxx(ctx, nil)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin reschedule transaction")
		}
		created, complete, err := s.regenerateCourse(ctx, tx, course)
		if err != nil {
			_ = tx.Rollback()
			return appErrors.Wrap(err, appErrors.FromError(err).Code, appErrors.FromError(err).Status,
				fmt.Sprintf("reschedule stopped at course %s; %d earlier course(s) already committed", course.ID, result.CoursesProcessed))
		}
		if err := tx.Commit(); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reschedule transaction")
		}
		result.CoursesProcessed++
		result.SessionsCreated += created
		if !complete {
			result.PartialCourseIDs = append(result.PartialCourseIDs, course.ID)
		}
	}
	return nil
}

// regenerateCourse wipes and rebuilds one course's sessions inside the given
// transaction and recomputes its end date from the last generated session. A
// zero-session regeneration is a logical invariant violation (the course had a
// schedule before) and aborts the caller's unit of work.
func (s *RescheduleService) regenerateCourse(ctx context.Context, tx *sqlx.Tx, course models.Course) (int, bool, error) {
	if _, err := s.sessions.DeleteAllByCourse(ctx, tx, course.ID); err != nil {
		return 0, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sessions for course "+course.ID)
	}

	generated, err := s.generator.Generate(ctx, course, s.calendar.IsHoliday)
	if err != nil {
		return 0, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to regenerate sessions for course "+course.ID)
	}
	if len(generated.Sessions) == 0 {
		return 0, false, appErrors.Clone(appErrors.ErrUnschedulable,
			fmt.Sprintf("course %s produced no schedulable sessions", course.ID))
	}

	if err := s.sessions.BulkCreate(ctx, tx, generated.Sessions); err != nil {
		return 0, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist sessions for course "+course.ID)
	}

	newEnd := generated.Sessions[len(generated.Sessions)-1].Date
	if course.EndDate == nil || !course.EndDate.Equal(newEnd) {
		if err := s.courses.UpdateEndDate(ctx, tx, course.ID, newEnd); err != nil {
			return 0, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update end date for course "+course.ID)
		}
	}

	return len(generated.Sessions), generated.Complete, nil
}

// ScheduleCourse materializes a course's schedule for the first time (or on
// demand). A validation-empty generation is not an error: nothing is persisted
// and the response reports zero sessions.
func (s *RescheduleService) ScheduleCourse(ctx context.Context, courseID string) (*dto.ScheduleCourseResponse, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin schedule transaction")
	}

	if _, err := s.sessions.DeleteAllByCourse(ctx, tx, course.ID); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sessions for course "+course.ID)
	}

	generated, err := s.generator.Generate(ctx, *course, s.calendar.IsHoliday)
	if err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate sessions for course "+course.ID)
	}

	resp := &dto.ScheduleCourseResponse{
		CourseID:       course.ID,
		TargetSessions: course.TotalSessions,
		Complete:       generated.Complete,
	}

	if len(generated.Sessions) == 0 {
		_ = tx.Rollback()
		return resp, nil
	}

	if err := s.sessions.BulkCreate(ctx, tx, generated.Sessions); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist sessions for course "+course.ID)
	}

	newEnd := generated.Sessions[len(generated.Sessions)-1].Date
	if err := s.courses.UpdateEndDate(ctx, tx, course.ID, newEnd); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update end date for course "+course.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
	}

	if s.metrics != nil {
		s.metrics.AddSessionsGenerated(len(generated.Sessions))
	}
	s.invalidateDashboard(ctx)

	resp.SessionsCreated = len(generated.Sessions)
	endStr := newEnd.Format("2006-01-02")
	resp.EndDate = &endStr
	return resp, nil
}

func (s *RescheduleService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
