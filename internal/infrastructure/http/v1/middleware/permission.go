package middleware

import (
	"github.com/gin-gonic/gin"

	"mams/internal/core/apperror"
	appctx "mams/internal/core/context"
	"mams/internal/core/security"
)

// RequirePermission rejects callers whose role does not grant perm on entity.
func RequirePermission(entity string, perm security.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if err := security.GetScope(ctx).RequirePermission(entity, perm); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
