package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harulab/tcm-api/internal/models"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
)

type holidayStore interface {
	ListAll(ctx context.Context) ([]models.Holiday, error)
	FindByID(ctx context.Context, id string) (*models.Holiday, error)
	FindByYear(ctx context.Context, year int) ([]models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
	FindExpiredBefore(ctx context.Context, date time.Time) ([]models.Holiday, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type historyAppender interface {
	Append(ctx context.Context, actor, action string) error
}

// HolidayCalendarService answers holiday queries through a memoized
// read-through cache over the holiday store. The cache is cleared synchronously
// after every write this service performs and lazily once the TTL elapses, so a
// query never observes state older than this process's own last write.
type HolidayCalendarService struct {
	store   holidayStore
	history historyAppender
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	mu              sync.Mutex
	coveringByDate  map[string]*models.Holiday
	byYear          map[int][]models.Holiday
	all             []models.Holiday
	allLoaded       bool
	lastInvalidated time.Time
	lastSweepDay    string
}

// NewHolidayCalendarService constructs the calendar with the given cache TTL.
func NewHolidayCalendarService(store holidayStore, history historyAppender, logger *zap.Logger, ttl time.Duration) *HolidayCalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &HolidayCalendarService{
		store:          store,
		history:        history,
		logger:         logger,
		ttl:            ttl,
		now:            time.Now,
		coveringByDate: make(map[string]*models.Holiday),
		byYear:         make(map[int][]models.Holiday),
	}
}

// IsHoliday reports whether any stored holiday's inclusive range contains date.
func (s *HolidayCalendarService) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	holiday, err := s.HolidayCovering(ctx, date)
	if err != nil {
		return false, err
	}
	return holiday != nil, nil
}

// HolidayCovering returns the holiday containing the date, or nil when the date
// is a regular working day. When holidays overlap the earliest-starting match
// wins.
func (s *HolidayCalendarService) HolidayCovering(ctx context.Context, date time.Time) (*models.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	key := date.Format("2006-01-02")
	if cached, ok := s.coveringByDate[key]; ok {
		return cached, nil
	}

	all, err := s.listAllLocked(ctx)
	if err != nil {
		return nil, err
	}

	var match *models.Holiday
	for i := range all {
		if all[i].Covers(date) {
			match = &all[i]
			break
		}
	}
	s.coveringByDate[key] = match
	return match, nil
}

// ListByYear returns holidays whose range intersects the calendar year.
func (s *HolidayCalendarService) ListByYear(ctx context.Context, year int) ([]models.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	if cached, ok := s.byYear[year]; ok {
		return cached, nil
	}
	holidays, err := s.store.FindByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	s.byYear[year] = holidays
	return holidays, nil
}

// ListAll returns every stored holiday.
func (s *HolidayCalendarService) ListAll(ctx context.Context) ([]models.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
	return s.listAllLocked(ctx)
}

// Add persists a new holiday, records the mutation and invalidates the cache.
func (s *HolidayCalendarService) Add(ctx context.Context, actor string, holiday *models.Holiday) (*models.Holiday, error) {
	if holiday == nil || holiday.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "holiday name is required")
	}
	if holiday.EndDate.Before(holiday.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "holiday end date precedes start date")
	}

	if err := s.store.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	action := fmt.Sprintf("Created holiday %s (%s to %s)", holiday.Name,
		holiday.StartDate.Format("2006-01-02"), holiday.EndDate.Format("2006-01-02"))
	if err := s.history.Append(ctx, actor, action); err != nil {
		s.logger.Warn("failed to append holiday history", zap.Error(err))
	}
	s.Invalidate()
	return holiday, nil
}

// Remove deletes a holiday by id. The second return value is false when no
// such holiday exists; the removed holiday is returned so callers can derive
// the affected date range.
func (s *HolidayCalendarService) Remove(ctx context.Context, actor, id string) (*models.Holiday, bool, error) {
	holiday, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	if err := s.history.Append(ctx, actor, fmt.Sprintf("Deleted holiday %s", holiday.Name)); err != nil {
		s.logger.Warn("failed to append holiday history", zap.Error(err))
	}
	s.Invalidate()
	return holiday, true, nil
}

// Invalidate clears all memoized state. Called synchronously after every write.
func (s *HolidayCalendarService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// refreshLocked applies the lazy TTL bound and the once-per-day expiry sweep.
// Callers must hold the mutex.
func (s *HolidayCalendarService) refreshLocked(ctx context.Context) {
	if s.now().Sub(s.lastInvalidated) > s.ttl {
		s.clearLocked()
	}
	s.sweepLocked(ctx)
}

// sweepLocked deletes holidays that ended before today, at most once per
// calendar day. Sweep failures are housekeeping failures: logged, never
// surfaced to the triggering query.
func (s *HolidayCalendarService) sweepLocked(ctx context.Context) {
	today := dateOnly(s.now())
	marker := today.Format("2006-01-02")
	if s.lastSweepDay == marker {
		return
	}
	s.lastSweepDay = marker

	expired, err := s.store.FindExpiredBefore(ctx, today)
	if err != nil {
		s.logger.Warn("holiday expiry sweep failed", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}

	ids := make([]string, 0, len(expired))
	for _, h := range expired {
		ids = append(ids, h.ID)
	}
	if _, err := s.store.DeleteByIDs(ctx, ids); err != nil {
		s.logger.Warn("holiday expiry sweep failed", zap.Error(err))
		return
	}
	for _, h := range expired {
		action := fmt.Sprintf("Deleted holiday %s (expired %s)", h.Name, h.EndDate.Format("2006-01-02"))
		if err := s.history.Append(ctx, models.SystemActor, action); err != nil {
			s.logger.Warn("failed to append holiday history", zap.Error(err))
		}
	}
	s.logger.Info("expired holidays swept", zap.Int("count", len(expired)))
	s.clearLocked()
}

func (s *HolidayCalendarService) listAllLocked(ctx context.Context) ([]models.Holiday, error) {
	if s.allLoaded {
		return s.all, nil
	}
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.all = all
	s.allLoaded = true
	return all, nil
}

func (s *HolidayCalendarService) clearLocked() {
	s.coveringByDate = make(map[string]*models.Holiday)
	s.byYear = make(map[int][]models.Holiday)
	s.all = nil
	s.allLoaded = false
	s.lastInvalidated = s.now()
}
