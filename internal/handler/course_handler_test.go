package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harulab/tcm-api/internal/dto"
	"github.com/harulab/tcm-api/internal/models"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
)

type courseSchedulerStub struct {
	result *dto.ScheduleCourseResponse
	err    error
	id     string
}

func (s *courseSchedulerStub) ScheduleCourse(ctx context.Context, courseID string) (*dto.ScheduleCourseResponse, error) {
	s.id = courseID
	return s.result, s.err
}

type sessionListerStub struct {
	sessions []models.ClassSession
	err      error
}

func (s sessionListerStub) ListByCourse(ctx context.Context, courseID string) ([]models.ClassSession, error) {
	return s.sessions, s.err
}

func TestCourseScheduleReturnsResult(t *testing.T) {
	scheduler := &courseSchedulerStub{result: &dto.ScheduleCourseResponse{
		CourseID:        "course-1",
		SessionsCreated: 16,
		TargetSessions:  16,
		Complete:        true,
	}}
	h := NewCourseHandler(scheduler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/course-1/schedule", nil)
	c := authedContext(w, req)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}
	h.Schedule(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "course-1", scheduler.id)

	var envelope struct {
		Data dto.ScheduleCourseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 16, envelope.Data.SessionsCreated)
	assert.True(t, envelope.Data.Complete)
}

func TestCourseScheduleUnknownCourse(t *testing.T) {
	scheduler := &courseSchedulerStub{err: appErrors.Clone(appErrors.ErrNotFound, "course not found")}
	h := NewCourseHandler(scheduler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/ghost/schedule", nil)
	c := authedContext(w, req)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	h.Schedule(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseScheduleRequiresAuth(t *testing.T) {
	h := NewCourseHandler(&courseSchedulerStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/courses/course-1/schedule", nil)
	h.Schedule(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionListByCourse(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewSessionHandler(sessionListerStub{sessions: []models.ClassSession{
		{ID: "s-1", CourseID: "course-1", Date: date, Sequence: 1},
		{ID: "s-2", CourseID: "course-1", Date: date.AddDate(0, 0, 2), Sequence: 2},
	}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/course-1/sessions", nil)
	c := authedContext(w, req)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}
	h.ListByCourse(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data []models.ClassSession `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, 1, envelope.Data[0].Sequence)
}
