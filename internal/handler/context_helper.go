package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/open-depot/archive-api/internal/middleware"
	"github.com/open-depot/archive-api/internal/models"
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

// principalFromContext materializes the request principal. Requests without
// valid claims browse as the anonymous principal.
func principalFromContext(c *gin.Context) *models.Principal {
	return claimsFromContext(c).Principal()
}
