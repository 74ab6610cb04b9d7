package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harulab/tcm-api/internal/dto"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
	"github.com/harulab/tcm-api/pkg/response"
)

type courseScheduler interface {
	ScheduleCourse(ctx context.Context, courseID string) (*dto.ScheduleCourseResponse, error)
}

// CourseHandler exposes course scheduling.
type CourseHandler struct {
	scheduler courseScheduler
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(scheduler courseScheduler) *CourseHandler {
	return &CourseHandler{scheduler: scheduler}
}

// Schedule materializes a course's session schedule.
func (h *CourseHandler) Schedule(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.scheduler.ScheduleCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
