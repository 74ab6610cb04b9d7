package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harulab/tcm-api/internal/dto"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
	"github.com/harulab/tcm-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (*dto.DashboardSummary, error)
}

// DashboardHandler exposes the landing-page summary.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary returns aggregated counters for the dashboard.
func (h *DashboardHandler) Summary(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
