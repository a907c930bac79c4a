package handlers

import (
	"github.com/gin-gonic/gin"

	"mams/internal/domain/ledger"
	"mams/internal/infrastructure/http/v1/dto"
)

// AssignmentsHandler handles HTTP requests for the assignment ledger.
type AssignmentsHandler struct {
	*BaseHandler
	service *ledger.AssignmentService
}

// NewAssignmentsHandler creates a new assignments handler.
func NewAssignmentsHandler(bh *BaseHandler, service *ledger.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{BaseHandler: bh, service: service}
}

// List handles GET /assignments
func (h *AssignmentsHandler) List(c *gin.Context) {
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
	out := make([]dto.AssignmentResponse, len(rows))
	for i, a := range rows {
		out[i] = dto.FromAssignment(a, names)
	}
	h.OK(c, dto.NewListResponse(out, f.Limit, f.Offset))
}

// Get handles GET /assignments/:id
func (h *AssignmentsHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, a, false)
}

// Create handles POST /assignments
func (h *AssignmentsHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateAssignmentRequest
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
	a, err := h.service.Create(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, a, true)
}

// Update handles PUT /assignments/:id
func (h *AssignmentsHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req dto.UpdateAssignmentRequest
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
	a, err := h.service.Update(ctx, id, req.ToPatch(baseID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, a, false)
}

// Delete handles DELETE /assignments/:id
func (h *AssignmentsHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "assignment deleted")
}

func (h *AssignmentsHandler) respond(c *gin.Context, a *ledger.Assignment, created bool) {
	names, err := h.BaseNames(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := dto.FromAssignment(*a, names)
	if created {
		h.Created(c, resp)
		return
	}
	h.OK(c, resp)
}
