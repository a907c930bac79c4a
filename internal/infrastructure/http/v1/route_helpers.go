package v1

import (
	"github.com/gin-gonic/gin"

	"mams/internal/core/security"
	"mams/internal/infrastructure/http/v1/middleware"
)

// LedgerRouteHandler defines the CRUD surface every ledger handler exposes.
type LedgerRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterLedgerRoutes registers the standard CRUD routes for a ledger.
// Reads are open to every role; the role table decides writes.
//
// Usage:
//
//	handler := handlers.NewPurchasesHandler(baseHandler, svc.Purchases)
//	RegisterLedgerRoutes(api.Group("/purchases"), handler, "purchase")
func RegisterLedgerRoutes(group *gin.RouterGroup, handler LedgerRouteHandler, entity string) {
	group.GET("", read(entity), handler.List)
	group.POST("", middleware.RequirePermission(entity, security.PermissionCreate), handler.Create)
	group.GET("/:id", read(entity), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(entity, security.PermissionUpdate), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(entity, security.PermissionDelete), handler.Delete)
}

func read(entity string) gin.HandlerFunc {
	return middleware.RequirePermission(entity, security.PermissionRead)
}
