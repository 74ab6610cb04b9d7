package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/harulab/tcm-api/internal/dto"
	"github.com/harulab/tcm-api/internal/models"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
)

const dashboardSummaryKey = "dashboard:summary"

type dashboardCourseCounter interface {
	CountActiveOn(ctx context.Context, date time.Time) (int, error)
}

type dashboardSessionCounter interface {
	CountBetween(ctx context.Context, from, to time.Time) (int, error)
}

type dashboardHolidayLister interface {
	ListByYear(ctx context.Context, year int) ([]models.Holiday, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the landing-page summary, cached through redis.
type DashboardService struct {
	courses  dashboardCourseCounter
	sessions dashboardSessionCounter
	calendar dashboardHolidayLister
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(courses dashboardCourseCounter, sessions dashboardSessionCounter, calendar dashboardHolidayLister, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		courses:  courses,
		sessions: sessions,
		calendar: calendar,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Summary returns the dashboard counters, serving from cache when possible.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	var cached dto.DashboardSummary
	if hit, err := s.cache.Get(ctx, dashboardSummaryKey, &cached); err == nil && hit {
		return &cached, nil
	}

	today := time.Date(s.now().Year(), s.now().Month(), s.now().Day(), 0, 0, 0, 0, time.UTC)

	activeCourses, err := s.courses.CountActiveOn(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active courses")
	}
	sessionsToday, err := s.sessions.CountBetween(ctx, today, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions for today")
	}
	sessionsWeek, err := s.sessions.CountBetween(ctx, today, today.AddDate(0, 0, 7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count upcoming sessions")
	}

	holidays, err := s.calendar.ListByYear(ctx, today.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	monthHolidays := make([]dto.DashboardHoliday, 0)
	for _, h := range holidays {
		if h.StartDate.After(monthEnd) || h.EndDate.Before(monthStart) {
			continue
		}
		monthHolidays = append(monthHolidays, dto.DashboardHoliday{
			ID:        h.ID,
			Name:      h.Name,
			StartDate: h.StartDate.Format("2006-01-02"),
			EndDate:   h.EndDate.Format("2006-01-02"),
			Color:     h.Color,
		})
	}

	summary := &dto.DashboardSummary{
		ActiveCourses:     activeCourses,
		SessionsToday:     sessionsToday,
		SessionsNext7Days: sessionsWeek,
		HolidaysThisMonth: monthHolidays,
		GeneratedAt:       s.now().UTC().Format(time.RFC3339),
	}

	if err := s.cache.Set(ctx, dashboardSummaryKey, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return summary, nil
}
