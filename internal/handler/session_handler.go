package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harulab/tcm-api/internal/models"
	appErrors "github.com/harulab/tcm-api/pkg/errors"
	"github.com/harulab/tcm-api/pkg/response"
)

type sessionLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.ClassSession, error)
}

// SessionHandler exposes read access to generated sessions.
type SessionHandler struct {
	sessions sessionLister
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions sessionLister) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// ListByCourse returns a course's sessions in sequence order.
func (h *SessionHandler) ListByCourse(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sessions, err := h.sessions.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}
