package handlers

import (
	"github.com/gin-gonic/gin"

	"mams/internal/domain/base"
	"mams/internal/infrastructure/http/v1/dto"
)

// BasesHandler handles HTTP requests for the base catalog.
type BasesHandler struct {
	*BaseHandler
	service *base.Service
}

// NewBasesHandler creates a new bases handler.
func NewBasesHandler(bh *BaseHandler, service *base.Service) *BasesHandler {
	return &BasesHandler{BaseHandler: bh, service: service}
}

// List handles GET /bases
func (h *BasesHandler) List(c *gin.Context) {
	bases, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItemsResponse(bases))
}

// Get handles GET /bases/:id
func (h *BasesHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Create handles POST /bases
func (h *BasesHandler) Create(c *gin.Context) {
	var req dto.CreateBaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}
