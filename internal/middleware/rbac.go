package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/open-depot/archive-api/internal/models"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
	"github.com/open-depot/archive-api/pkg/response"
)

// RequireRoles blocks the request unless the authenticated principal holds
// at least one of the given roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		for _, role := range claims.Roles {
			if _, ok := allowed[role]; ok {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
