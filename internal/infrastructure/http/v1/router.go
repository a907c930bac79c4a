// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"mams/internal/core/security"
	"mams/internal/domain/audit"
	"mams/internal/domain/base"
	"mams/internal/domain/inventory"
	"mams/internal/domain/ledger"
	"mams/internal/domain/personnel"
	"mams/internal/infrastructure/http/v1/handlers"
	"mams/internal/infrastructure/http/v1/middleware"
	"mams/internal/infrastructure/metrics"
	"mams/pkg/logger"
)

// Services are the domain services the API exposes.
type Services struct {
	Bases        *base.Service
	Purchases    *ledger.PurchaseService
	Transfers    *ledger.TransferService
	Assignments  *ledger.AssignmentService
	Expenditures *ledger.ExpenditureService
	Calculator   *inventory.Calculator
	Lister       *inventory.Lister
	Summarizer   *inventory.Summarizer
	Personnel    *personnel.Directory
	Audit        audit.Reader
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services Services

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Metrics, when set, records request metrics and serves /metrics.
	Metrics *metrics.Metrics

	// StoreName labels the readiness check; Pinger backs it (nil is always ready).
	StoreName string
	Pinger    handlers.Pinger

	// Mode is the gin mode; empty keeps the current one.
	Mode string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	var obs middleware.RequestObserver
	if cfg.Metrics != nil {
		obs = cfg.Metrics
	}

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger, obs))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.StoreName, cfg.Pinger)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	registerRoutes(api, cfg.Services)

	return router
}

func registerRoutes(api *gin.RouterGroup, svc Services) {
	bh := handlers.NewBaseHandler(svc.Bases)
	inv := handlers.NewInventoryHandler(bh, svc.Calculator, svc.Lister)

	bases := handlers.NewBasesHandler(bh, svc.Bases)
	basesGroup := api.Group("/bases")
	{
		basesGroup.GET("", read("base"), bases.List)
		basesGroup.GET("/:id", read("base"), bases.Get)
		basesGroup.POST("", middleware.RequirePermission("base", security.PermissionCreate), bases.Create)
	}

	purchases := api.Group("/purchases")
	purchases.GET("/items/filter", read("purchase"), inv.LedgerItems(inventory.FlowPurchased))
	RegisterLedgerRoutes(purchases, handlers.NewPurchasesHandler(bh, svc.Purchases), "purchase")

	transfersHandler := handlers.NewTransfersHandler(bh, svc.Transfers)
	transfers := api.Group("/transfers")
	transfers.GET("/items/available", read("transfer"), inv.Available(inventory.ModeTransfer))
	transfers.GET("/items/filter", read("transfer"),
		inv.LedgerItems(inventory.FlowTransferredIn, inventory.FlowTransferredOut))
	transfers.GET("/stock/current", read("transfer"), inv.CurrentStock)
	transfers.GET("/stats", read("transfer"), transfersHandler.Stats)
	RegisterLedgerRoutes(transfers, transfersHandler, "transfer")

	roster := handlers.NewPersonnelHandler(bh, svc.Personnel)
	assignments := api.Group("/assignments")
	assignments.GET("/items/available", read("assignment"), inv.Available(inventory.ModeAssignment))
	assignments.GET("/items/filter", read("assignment"), inv.LedgerItems(inventory.FlowAssigned))
	assignments.GET("/personnel/list", read("assignment"), roster.List)
	RegisterLedgerRoutes(assignments, handlers.NewAssignmentsHandler(bh, svc.Assignments), "assignment")

	expenditures := api.Group("/expenditures")
	expenditures.GET("/items/available", read("expenditure"), inv.Available(inventory.ModeExpenditure))
	expenditures.GET("/items/filter", read("expenditure"), inv.LedgerItems(inventory.FlowExpended))
	RegisterLedgerRoutes(expenditures, handlers.NewExpendituresHandler(bh, svc.Expenditures), "expenditure")

	inventoryGroup := api.Group("/inventory")
	{
		inventoryGroup.GET("/balance", read("inventory"), inv.Balance)
		inventoryGroup.GET("/available", read("inventory"), inv.Available(inventory.ModeGeneric))
	}

	dashboard := handlers.NewDashboardHandler(inv, svc.Summarizer, svc.Purchases, svc.Transfers)
	dashboardGroup := api.Group("/dashboard")
	{
		dashboardGroup.GET("/summary", read("dashboard"), dashboard.Summary)
		dashboardGroup.GET("/net-movement", read("dashboard"), dashboard.NetMovement)
	}

	if svc.Audit != nil {
		auditHandler := handlers.NewAuditHandler(bh, svc.Audit)
		api.GET("/audit", read("audit"), auditHandler.History)
	}
}
