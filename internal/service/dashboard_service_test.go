package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harulab/tcm-api/internal/models"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
)

type courseCounterStub struct {
	active int
	calls  int
}

func (s *courseCounterStub) CountActiveOn(ctx context.Context, date time.Time) (int, error) {
	s.calls++
	return s.active, nil
}

type sessionCounterStub struct {
	counts map[string]int
}

func (s *sessionCounterStub) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	return s.counts[from.Format("2006-01-02")+"/"+to.Format("2006-01-02")], nil
}

type holidayListerStub struct {
	holidays []models.Holiday
}

func (s holidayListerStub) ListByYear(ctx context.Context, year int) ([]models.Holiday, error) {
	return s.holidays, nil
}

type memoryCacheRepo struct {
	values map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.values = make(map[string][]byte)
	return nil
}

func TestDashboardSummaryComposesCounters(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	today := "2024-03-15"
	sessions := &sessionCounterStub{counts: map[string]int{
		today + "/" + today:        3,
		today + "/" + "2024-03-22": 11,
	}}
	holidays := holidayListerStub{holidays: []models.Holiday{
		{ID: "h-1", Name: "Spring Break", StartDate: day(2024, 3, 20), EndDate: day(2024, 3, 24)},
		{ID: "h-2", Name: "Summer Break", StartDate: day(2024, 7, 1), EndDate: day(2024, 7, 31)},
	}}

	svc := NewDashboardService(&courseCounterStub{active: 7}, sessions, holidays, nil, nil, DashboardServiceConfig{})
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, summary.ActiveCourses)
	assert.Equal(t, 3, summary.SessionsToday)
	assert.Equal(t, 11, summary.SessionsNext7Days)
	require.Len(t, summary.HolidaysThisMonth, 1)
	assert.Equal(t, "Spring Break", summary.HolidaysThisMonth[0].Name)
}

func TestDashboardSummaryServedFromCache(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	today := "2024-03-15"
	courses := &courseCounterStub{active: 7}
	sessions := &sessionCounterStub{counts: map[string]int{
		today + "/" + today:        3,
		today + "/" + "2024-03-22": 11,
	}}
	cacheSvc := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, nil, true)

	svc := NewDashboardService(courses, sessions, holidayListerStub{}, cacheSvc, nil, DashboardServiceConfig{})
	svc.now = func() time.Time { return now }

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, courses.calls, "second summary must come from cache")
}
