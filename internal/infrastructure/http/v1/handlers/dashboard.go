package handlers

import (
	"github.com/gin-gonic/gin"

	"mams/internal/domain/inventory"
	"mams/internal/domain/ledger"
	"mams/internal/infrastructure/http/v1/dto"
)

// DashboardHandler serves period summaries.
type DashboardHandler struct {
	*InventoryHandler
	summarizer *inventory.Summarizer
	purchases  *ledger.PurchaseService
	transfers  *ledger.TransferService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(
	ih *InventoryHandler,
	summarizer *inventory.Summarizer,
	purchases *ledger.PurchaseService,
	transfers *ledger.TransferService,
) *DashboardHandler {
	return &DashboardHandler{
		InventoryHandler: ih,
		summarizer:       summarizer,
		purchases:        purchases,
		transfers:        transfers,
	}
}

// Summary handles GET /dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	var q dto.SummaryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, err := dto.ParseDateParam("startDate", q.StartDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	to, err := dto.ParseDateParam("endDate", q.EndDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	baseID, err := h.readBase(ctx, q.Ref())
	if err != nil {
		h.Error(c, err)
		return
	}

	s, err := h.summarizer.Summarize(ctx, inventory.SummaryQuery{
		Item:   ledger.NormalizeItem(q.Item),
		BaseID: baseID,
		From:   from,
		To:     to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// NetMovement handles GET /dashboard/net-movement. It lists the purchase and
// transfer rows in the period; without a base every transfer is both in and out.
func (h *DashboardHandler) NetMovement(c *gin.Context) {
	ctx := c.Request.Context()
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}
	if f.BaseID, err = h.readBase(ctx, q.Ref()); err != nil {
		h.Error(c, err)
		return
	}

	purchases, err := h.purchases.List(ctx, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	transfers, err := h.transfers.List(ctx, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	names, err := h.BaseNames(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.NetMovementResponse{
		Purchases:    make([]dto.PurchaseResponse, 0, len(purchases)),
		TransfersIn:  []dto.TransferResponse{},
		TransfersOut: []dto.TransferResponse{},
	}
	for _, p := range purchases {
		resp.Purchases = append(resp.Purchases, dto.FromPurchase(p, names))
	}
	for _, t := range transfers {
		tr := dto.FromTransfer(t, names)
		if f.BaseID == nil || t.DestinationBaseID == *f.BaseID {
			resp.TransfersIn = append(resp.TransfersIn, tr)
		}
		if f.BaseID == nil || t.SourceBaseID == *f.BaseID {
			resp.TransfersOut = append(resp.TransfersOut, tr)
		}
	}
	h.OK(c, resp)
}
