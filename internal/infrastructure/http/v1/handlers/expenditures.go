package handlers

import (
	"github.com/gin-gonic/gin"

	"mams/internal/domain/ledger"
	"mams/internal/infrastructure/http/v1/dto"
)

// ExpendituresHandler handles HTTP requests for the expenditure ledger.
type ExpendituresHandler struct {
	*BaseHandler
	service *ledger.ExpenditureService
}

// NewExpendituresHandler creates a new expenditures handler.
func NewExpendituresHandler(bh *BaseHandler, service *ledger.ExpenditureService) *ExpendituresHandler {
	return &ExpendituresHandler{BaseHandler: bh, service: service}
}

// List handles GET /expenditures
func (h *ExpendituresHandler) List(c *gin.Context) {
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
	out := make([]dto.ExpenditureResponse, len(rows))
	for i, e := range rows {
		out[i] = dto.FromExpenditure(e, names)
	}
	h.OK(c, dto.NewListResponse(out, f.Limit, f.Offset))
}

// Get handles GET /expenditures/:id
func (h *ExpendituresHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	e, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, e, false)
}

// Create handles POST /expenditures
func (h *ExpendituresHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateExpenditureRequest
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
	e, err := h.service.Create(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, e, true)
}

// Update handles PUT /expenditures/:id
func (h *ExpendituresHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.UpdateExpenditureRequest
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
	e, err := h.service.Update(ctx, id, req.ToPatch(baseID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, e, false)
}

// Delete handles DELETE /expenditures/:id
func (h *ExpendituresHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "expenditure deleted")
}

func (h *ExpendituresHandler) respond(c *gin.Context, e *ledger.Expenditure, created bool) {
	names, err := h.BaseNames(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := dto.FromExpenditure(*e, names)
	if created {
		h.Created(c, resp)
		return
	}
	h.OK(c, resp)
}
