package handlers

import (
	"github.com/gin-gonic/gin"

	"mams/internal/domain/ledger"
	"mams/internal/infrastructure/http/v1/dto"
)

// PurchasesHandler handles HTTP requests for the purchase ledger.
type PurchasesHandler struct {
	*BaseHandler
	service *ledger.PurchaseService
}

// NewPurchasesHandler creates a new purchases handler.
func NewPurchasesHandler(bh *BaseHandler, service *ledger.PurchaseService) *PurchasesHandler {
	return &PurchasesHandler{BaseHandler: bh, service: service}
}

// List handles GET /purchases
func (h *PurchasesHandler) List(c *gin.Context) {
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
	if f.BaseID, err = h.ResolveBase(ctx, q.Ref()); err != nil {
		h.Error(c, err)
		return
	}

	rows, err := h.service.List(ctx, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	names, err := h.BaseNames(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	out := make([]dto.PurchaseResponse, len(rows))
	for i, p := range rows {
		out[i] = dto.FromPurchase(p, names)
	}
	h.OK(c, dto.NewListResponse(out, f.Limit, f.Offset))
}

// Get handles GET /purchases/:id
func (h *PurchasesHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, p, false)
}

// Create handles POST /purchases
func (h *PurchasesHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in := req.ToInput(nil)
	if err := in.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	baseID, err := h.ResolveTargetBase(ctx, req.BaseRef(), "baseId")
	if err != nil {
		h.Error(c, err)
		return
	}
	in.BaseID = baseID
	p, err := h.service.Create(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, p, true)
}

// Update handles PUT /purchases/:id
func (h *PurchasesHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.UpdatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.ToPatch(req.BaseID).Validate(); err != nil {
		h.Error(c, err)
		return
	}
	baseID, err := h.ResolveTargetBase(ctx, req.BaseRef(), "baseId")
	if err != nil {
		h.Error(c, err)
		return
	}
	p, err := h.service.Update(ctx, id, req.ToPatch(baseID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, p, false)
}

// Delete handles DELETE /purchases/:id
func (h *PurchasesHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "purchase deleted")
}

func (h *PurchasesHandler) respond(c *gin.Context, p *ledger.Purchase, created bool) {
	names, err := h.BaseNames(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := dto.FromPurchase(*p, names)
	if created {
		h.Created(c, resp)
		return
	}
	h.OK(c, resp)
}
