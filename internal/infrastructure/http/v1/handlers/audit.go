package handlers

import (
	"github.com/gin-gonic/gin"

	"mams/internal/core/apperror"
	"mams/internal/core/security"
	"mams/internal/domain/audit"
	"mams/internal/infrastructure/http/v1/dto"
)

// AuditHandler reads the audit trail back. Admin only.
type AuditHandler struct {
	*BaseHandler
	reader audit.Reader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(bh *BaseHandler, reader audit.Reader) *AuditHandler {
	return &AuditHandler{BaseHandler: bh, reader: reader}
}

type auditQuery struct {
	ResourceType string `form:"resourceType"`
	ResourceID   string `form:"resourceId"`
	ActorID      string `form:"actorId"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// History handles GET /audit
func (h *AuditHandler) History(c *gin.Context) {
	ctx := c.Request.Context()
	if !security.GetScope(ctx).IsPrivileged() {
		h.Error(c, apperror.NewForbidden("only admin may read the audit log"))
		return
	}
	var q auditQuery
	if !h.BindQuery(c, &q) {
		return
	}

	entries, err := h.reader.History(ctx, audit.HistoryFilter{
		ResourceType: q.ResourceType,
		ResourceID:   q.ResourceID,
		ActorID:      q.ActorID,
		Limit:        q.Limit,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItemsResponse(entries))
}
