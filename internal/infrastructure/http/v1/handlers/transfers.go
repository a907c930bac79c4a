package handlers

import (
	"github.com/gin-gonic/gin"

	"mams/internal/domain/ledger"
	"mams/internal/infrastructure/http/v1/dto"
)

// TransfersHandler handles HTTP requests for the transfer ledger.
type TransfersHandler struct {
	*BaseHandler
	service *ledger.TransferService
}

// NewTransfersHandler creates a new transfers handler.
func NewTransfersHandler(bh *BaseHandler, service *ledger.TransferService) *TransfersHandler {
	return &TransfersHandler{BaseHandler: bh, service: service}
}

// List handles GET /transfers. A base filter matches either side.
func (h *TransfersHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	f, ok := h.filter(c)
	if !ok {
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
	out := make([]dto.TransferResponse, len(rows))
	for i, t := range rows {
		out[i] = dto.FromTransfer(t, names)
	}
	h.OK(c, dto.NewListResponse(out, f.Limit, f.Offset))
}

// Stats handles GET /transfers/stats
func (h *TransfersHandler) Stats(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}

// Get handles GET /transfers/:id
func (h *TransfersHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	names, err := h.BaseNames(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTransfer(*t, names))
}

// Create handles POST /transfers. The response carries the source stock
// before and after the transfer.
func (h *TransfersHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in := req.ToInput(nil, nil)
	if err := in.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	srcID, err := h.ResolveTargetBase(ctx, req.SourceRef(), "sourceBaseId")
	if err != nil {
		h.Error(c, err)
		return
	}
	dstID, err := h.ResolveBase(ctx, req.DestinationRef())
	if err != nil {
		h.Error(c, err)
		return
	}
	in.SourceBaseID, in.DestinationBaseID = srcID, dstID

	res, err := h.service.Create(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	names, err := h.BaseNames(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.CreateTransferResponse{
		TransferResponse: dto.FromTransfer(*res.Transfer, names),
		StockInfo:        res.StockInfo,
	})
}

// Update handles PUT /transfers/:id
func (h *TransfersHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.UpdateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.ToPatch(req.SourceBaseID, req.DestinationBaseID).Validate(); err != nil {
		h.Error(c, err)
		return
	}
	srcID, err := h.ResolveTargetBase(ctx, req.SourceRef(), "sourceBaseId")
	if err != nil {
		h.Error(c, err)
		return
	}
	dstID, err := h.ResolveBase(ctx, req.DestinationRef())
	if err != nil {
		h.Error(c, err)
		return
	}

	t, err := h.service.Update(ctx, id, req.ToPatch(srcID, dstID))
	if err != nil {
		h.Error(c, err)
		return
	}
	names, err := h.BaseNames(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTransfer(*t, names))
}

// Delete handles DELETE /transfers/:id
func (h *TransfersHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "transfer deleted")
}

func (h *TransfersHandler) filter(c *gin.Context) (ledger.ListFilter, bool) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return ledger.ListFilter{}, false
	}
	f, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return ledger.ListFilter{}, false
	}
	if f.BaseID, err = h.ResolveBase(c.Request.Context(), q.Ref()); err != nil {
		h.Error(c, err)
		return ledger.ListFilter{}, false
	}
	return f, true
}
