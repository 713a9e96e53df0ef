package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
	"github.com/noah-isme/unitime-api/pkg/response"
)

// RequireRoles rejects actors whose role is not listed. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Actor(c)
		if claims == nil {
			response.Failure(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Failure(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not modify the timetable"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// TimetableWriters are the roles allowed to change schedule data.
var TimetableWriters = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleDispatcher}
