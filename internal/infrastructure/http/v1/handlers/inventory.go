package handlers

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"

	"mams/internal/core/apperror"
	"mams/internal/core/security"
	"mams/internal/domain/base"
	"mams/internal/domain/inventory"
	"mams/internal/domain/ledger"
	"mams/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves derived stock: balances, availability listings,
// current stock and the item pickers of each ledger.
type InventoryHandler struct {
	*BaseHandler
	calc   *inventory.Calculator
	lister *inventory.Lister
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(bh *BaseHandler, calc *inventory.Calculator, lister *inventory.Lister) *InventoryHandler {
	return &InventoryHandler{BaseHandler: bh, calc: calc, lister: lister}
}

// Balance handles GET /inventory/balance
func (h *InventoryHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()
	var q dto.BalanceQuery
	if !h.BindQuery(c, &q) {
		return
	}
	asOf, err := dto.ParseDateParam("asOf", q.AsOf)
	if err != nil {
		h.Error(c, err)
		return
	}
	baseID, err := h.readBase(ctx, q.Ref())
	if err != nil {
		h.Error(c, err)
		return
	}

	item := ledger.NormalizeItem(q.Item)
	b, err := h.calc.Compute(ctx, inventory.BalanceQuery{Item: item, BaseID: baseID, AsOf: asOf})
	if err != nil {
		h.Error(c, err)
		return
	}
	at := h.calc.Today()
	if asOf != nil {
		at = *asOf
	}
	h.OK(c, dto.BalanceResponse{Balance: b, Item: item, BaseID: baseID, AsOf: at})
}

// Available returns a handler listing positive stock at one base in mode.
// A "mode" query parameter overrides the route's mode.
func (h *InventoryHandler) Available(mode inventory.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var q dto.AvailableQuery
		if !h.BindQuery(c, &q) {
			return
		}
		m := mode
		if q.Mode != "" {
			parsed, err := inventory.ParseMode(q.Mode)
			if err != nil {
				h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "mode"))
				return
			}
			m = parsed
		}
		baseID, err := h.requireBase(ctx, q.Ref())
		if err != nil {
			h.Error(c, err)
			return
		}

		items, err := h.lister.ListAvailable(ctx, baseID, m)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.NewItemsResponse(items))
	}
}

// CurrentStock handles GET /transfers/stock/current
func (h *InventoryHandler) CurrentStock(c *gin.Context) {
	ctx := c.Request.Context()
	var q dto.CurrentStockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	item := ledger.NormalizeItem(q.Item)
	if item == "" {
		h.Error(c, apperror.NewValidation("item is required").WithDetail("field", "item"))
		return
	}
	baseID, err := h.requireBase(ctx, q.Ref())
	if err != nil {
		h.Error(c, err)
		return
	}

	level, err := h.lister.CurrentStock(ctx, baseID, item)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, level)
}

// LedgerItems returns a handler listing the distinct items recorded in the
// ledgers behind flows, for filter pickers.
func (h *InventoryHandler) LedgerItems(flows ...inventory.Flow) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var q dto.BaseQuery
		if !h.BindQuery(c, &q) {
			return
		}
		baseID, err := h.readBase(ctx, q.Ref())
		if err != nil {
			h.Error(c, err)
			return
		}

		var items []string
		for _, flow := range flows {
			got, err := h.lister.LedgerItems(ctx, flow, baseID)
			if err != nil {
				h.Error(c, err)
				return
			}
			items = append(items, got...)
		}
		slices.Sort(items)
		h.OK(c, dto.NewItemsResponse(slices.Compact(items)))
	}
}

// readBase resolves an optional base filter and narrows it to the caller's scope.
func (h *InventoryHandler) readBase(ctx context.Context, ref base.Ref) (*int64, error) {
	requested, err := h.ResolveBase(ctx, ref)
	if err != nil {
		return nil, err
	}
	return security.GetScope(ctx).ReadBase(requested)
}

// requireBase is readBase for endpoints that need exactly one base.
func (h *InventoryHandler) requireBase(ctx context.Context, ref base.Ref) (int64, error) {
	baseID, err := h.readBase(ctx, ref)
	if err != nil {
		return 0, err
	}
	if baseID == nil {
		return 0, apperror.NewValidation("baseId is required").WithDetail("field", "baseId")
	}
	return *baseID, nil
}
