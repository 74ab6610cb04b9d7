package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/harulab/tcm-api/internal/dto"
	"github.com/harulab/tcm-api/internal/models"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
	"github.com/harulab/tcm-api/pkg/response"
)

type holidayCalendar interface {
	Add(ctx context.Context, actor string, holiday *models.Holiday) (*models.Holiday, error)
	Remove(ctx context.Context, actor, id string) (*models.Holiday, bool, error)
	ListByYear(ctx context.Context, year int) ([]models.Holiday, error)
}

type rescheduler interface {
	RescheduleAfter(ctx context.Context, rangeStart, rangeEnd time.Time) (*dto.RescheduleResult, error)
}

// HolidayHandler exposes holiday administration. Every mutation triggers the
// reschedule cascade over the changed date range.
type HolidayHandler struct {
	calendar  holidayCalendar
	scheduler rescheduler
	validator *validator.Validate
}

// NewHolidayHandler constructs the handler.
func NewHolidayHandler(calendar holidayCalendar, scheduler rescheduler, validate *validator.Validate) *HolidayHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &HolidayHandler{calendar: calendar, scheduler: scheduler, validator: validate}
}

// Create declares a holiday and reschedules every affected course.
func (h *HolidayHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload"))
		return
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	holiday, err := h.calendar.Add(c.Request.Context(), actorFromClaims(claims), &models.Holiday{
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Color:     req.Color,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.scheduler.RescheduleAfter(c.Request.Context(), holiday.StartDate, holiday.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.HolidayMutationResponse{HolidayID: holiday.ID, Reschedule: result})
}

// Delete removes a holiday and reschedules every affected course.
func (h *HolidayHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	holiday, found, err := h.calendar.Remove(c.Request.Context(), actorFromClaims(claims), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "holiday not found"))
		return
	}

	result, err := h.scheduler.RescheduleAfter(c.Request.Context(), holiday.StartDate, holiday.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.HolidayMutationResponse{HolidayID: holiday.ID, Reschedule: result}, nil)
}

// List returns holidays intersecting the requested calendar year.
func (h *HolidayHandler) List(c *gin.Context) {
	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid year, expected YYYY"))
			return
		}
		year = parsed
	}

	holidays, err := h.calendar.ListByYear(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, nil)
}
