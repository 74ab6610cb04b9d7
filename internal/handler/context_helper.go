package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/harulab/tcm-api/internal/middleware"
	"github.com/harulab/tcm-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromClaims(claims *models.JWTClaims) string {
	if claims == nil {
		return ""
	}
	if claims.FullName != "" {
		return claims.FullName
	}
	return claims.UserID
}
