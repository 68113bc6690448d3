package middleware

import (
	"github.com/gin-gonic/gin"

	"learnhub/api/internal/apperr"
	"learnhub/api/internal/models"
)

// AuthorizeRoles must run after IsAuthenticated.
func AuthorizeRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, apperr.ErrUnauthenticated)
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			abort(c, apperr.ErrForbidden.Withf("Role: %s is not allowed to access this resource", user.Role))
			return
		}

		c.Next()
	}
}
