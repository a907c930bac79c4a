package handlers

import (
	"github.com/gin-gonic/gin"

	"mams/internal/core/security"
	"mams/internal/domain/base"
	"mams/internal/domain/personnel"
	"mams/internal/infrastructure/http/v1/dto"
)

// PersonnelHandler serves the configured roster.
type PersonnelHandler struct {
	*BaseHandler
	directory *personnel.Directory
}

// NewPersonnelHandler creates a new personnel handler.
func NewPersonnelHandler(bh *BaseHandler, directory *personnel.Directory) *PersonnelHandler {
	return &PersonnelHandler{BaseHandler: bh, directory: directory}
}

// List handles GET /assignments/personnel/list. Scoped callers always get
// the roster of their home base; admins get every roster unless they name a base.
func (h *PersonnelHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var q dto.PersonnelQuery
	if !h.BindQuery(c, &q) {
		return
	}
	ref := q.Ref()
	if ref.Name == "" {
		ref.Name = q.BaseLocation
	}
	requested, err := h.ResolveBase(ctx, ref)
	if err != nil {
		h.Error(c, err)
		return
	}
	baseID, err := security.GetScope(ctx).ReadBase(requested)
	if err != nil {
		h.Error(c, err)
		return
	}
	if baseID == nil {
		h.OK(c, dto.NewItemsResponse(h.directory.All()))
		return
	}

	b, err := h.bases.Resolve(ctx, base.Ref{ID: baseID})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItemsResponse(h.directory.ForBase(b.Name)))
}
