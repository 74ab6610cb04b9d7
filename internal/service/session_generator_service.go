package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harulab/tcm-api/internal/models"
)

// PlaceholderName is snapshotted when a room or teacher cannot be resolved.
const PlaceholderName = "N/A"

// sessionNamespace seeds deterministic (v5) session ids so regenerating an
// unchanged course reproduces the exact same id set.
var sessionNamespace = uuid.MustParse("3b9b1a52-8c6f-4de1-9d0a-64f21b7c5e18")

// DeterministicSessionID derives a session id from its course, date and
// sequence position.
func DeterministicSessionID(courseID string, date time.Time, sequence int) string {
	name := fmt.Sprintf("%s|%s|%d", courseID, date.Format("2006-01-02"), sequence)
	return uuid.NewSHA1(sessionNamespace, []byte(name)).String()
}

// HolidayCheck reports whether a candidate date is blocked by a holiday.
type HolidayCheck func(ctx context.Context, date time.Time) (bool, error)

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// GenerationResult is the outcome of materializing a course's schedule.
// Complete is false only when the safety horizon cut generation short of the
// course's target count; a validation-empty result is complete by definition
// (there was nothing to generate).
type GenerationResult struct {
	Sessions []models.ClassSession
	Complete bool
}

// SessionGeneratorService materializes concrete session dates from a course's
// weekly recurrence pattern. Pure with respect to its inputs apart from the
// one-time room/teacher name snapshot and the holiday callback.
type SessionGeneratorService struct {
	rooms        roomReader
	teachers     teacherReader
	logger       *zap.Logger
	horizonYears int
}

// NewSessionGeneratorService wires generator dependencies.
func NewSessionGeneratorService(rooms roomReader, teachers teacherReader, logger *zap.Logger, horizonYears int) *SessionGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if horizonYears <= 0 {
		horizonYears = 3
	}
	return &SessionGeneratorService{rooms: rooms, teachers: teachers, logger: logger, horizonYears: horizonYears}
}

// Generate produces the ordered session sequence for a course, skipping
// weekdays outside the recurrence set and dates blocked by the holiday check.
// Generation stops at the target count or at the safety horizon (course start
// plus the configured number of years), whichever comes first.
func (s *SessionGeneratorService) Generate(ctx context.Context, course models.Course, isHoliday HolidayCheck) (GenerationResult, error) {
	if course.StartDate == nil || course.TotalSessions <= 0 || len(course.DaysOfWeek) == 0 || course.StartTime == "" || course.EndTime == "" {
		s.logger.Warn("course missing schedule parameters, nothing to generate",
			zap.String("course_id", course.ID))
		return GenerationResult{Complete: true}, nil
	}

	startClock, err := time.Parse("15:04", course.StartTime)
	if err != nil {
		s.logger.Warn("course has invalid start time, nothing to generate",
			zap.String("course_id", course.ID), zap.String("start_time", course.StartTime))
		return GenerationResult{Complete: true}, nil
	}
	endClock, err := time.Parse("15:04", course.EndTime)
	if err != nil {
		s.logger.Warn("course has invalid end time, nothing to generate",
			zap.String("course_id", course.ID), zap.String("end_time", course.EndTime))
		return GenerationResult{Complete: true}, nil
	}

	weekdays := parseWeekdays(course.DaysOfWeek)
	if len(weekdays) == 0 {
		s.logger.Warn("course recurrence set has no valid weekdays, nothing to generate",
			zap.String("course_id", course.ID), zap.Strings("days_of_week", course.DaysOfWeek))
		return GenerationResult{Complete: true}, nil
	}

	roomName := s.resolveRoomName(ctx, course.RoomID)
	teacherName := s.resolveTeacherName(ctx, course.TeacherID)

	start := dateOnly(*course.StartDate)
	horizon := start.AddDate(s.horizonYears, 0, 0)

	sessions := make([]models.ClassSession, 0, course.TotalSessions)
	for day := start; len(sessions) < course.TotalSessions && !day.After(horizon); day = day.AddDate(0, 0, 1) {
		if !weekdays[day.Weekday()] {
			continue
		}
		blocked, err := isHoliday(ctx, day)
		if err != nil {
			return GenerationResult{}, fmt.Errorf("holiday check for %s: %w", day.Format("2006-01-02"), err)
		}
		if blocked {
			continue
		}
		sequence := len(sessions) + 1
		sessions = append(sessions, models.ClassSession{
			ID:          DeterministicSessionID(course.ID, day, sequence),
			CourseID:    course.ID,
			Date:        day,
			StartsAt:    combine(day, startClock),
			EndsAt:      combine(day, endClock),
			Sequence:    sequence,
			RoomName:    roomName,
			TeacherName: teacherName,
		})
	}

	complete := len(sessions) == course.TotalSessions
	if !complete {
		s.logger.Warn("safety horizon reached before target session count",
			zap.String("course_id", course.ID),
			zap.Int("generated", len(sessions)),
			zap.Int("target", course.TotalSessions))
	}

	return GenerationResult{Sessions: sessions, Complete: complete}, nil
}

func (s *SessionGeneratorService) resolveRoomName(ctx context.Context, roomID string) string {
	if roomID == "" || s.rooms == nil {
		return PlaceholderName
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil || room == nil {
		return PlaceholderName
	}
	return room.Name
}

func (s *SessionGeneratorService) resolveTeacherName(ctx context.Context, teacherID string) string {
	if teacherID == "" || s.teachers == nil {
		return PlaceholderName
	}
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil || teacher == nil {
		return PlaceholderName
	}
	return teacher.Name
}

var weekdayTokens = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// parseWeekdays converts short day tokens ("Mon".."Sun", case-insensitive)
// into a weekday set, ignoring tokens that do not parse.
func parseWeekdays(tokens []string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(tokens))
	for _, token := range tokens {
		if day, ok := weekdayTokens[strings.ToLower(strings.TrimSpace(token))]; ok {
			set[day] = true
		}
	}
	return set
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func combine(day time.Time, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
}
