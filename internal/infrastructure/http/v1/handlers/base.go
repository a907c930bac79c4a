package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mams/internal/core/apperror"
	"mams/internal/core/security"
	"mams/internal/domain/base"
	"mams/internal/infrastructure/http/v1/dto"
)

// BaseDirectory resolves base references and names at the API edge.
type BaseDirectory interface {
	base.Resolver
	Names(ctx context.Context) (map[int64]string, error)
}

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	bases BaseDirectory
}

// NewBaseHandler creates a new base handler.
func NewBaseHandler(bases BaseDirectory) *BaseHandler {
	return &BaseHandler{bases: bases}
}

// BindJSON binds the JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error processes error and sends appropriate response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	h.HandleError(c, err)
}

// HandleError registers error on Gin context and aborts request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses the :id path parameter.
func (h *BaseHandler) ParseID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail("id", raw))
		return 0, false
	}
	return parsed, true
}

// ResolveBase turns a reference into a base id. A zero reference yields nil,
// leaving the default to the service.
func (h *BaseHandler) ResolveBase(ctx context.Context, ref base.Ref) (*int64, error) {
	if ref.IsZero() {
		return nil, nil
	}
	b, err := h.bases.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &b.ID, nil
}

// ResolveTargetBase resolves the base a mutation debits or books into.
// Scoped callers may only name their home base; any other reference, known
// or not, is ForbiddenScope.
func (h *BaseHandler) ResolveTargetBase(ctx context.Context, ref base.Ref, field string) (*int64, error) {
	if ref.IsZero() {
		return nil, nil
	}
	scope := security.GetScope(ctx)
	if scope.IsPrivileged() {
		return h.ResolveBase(ctx, ref)
	}
	home, err := scope.TargetBase(ref.ID, field)
	if err != nil {
		return nil, err
	}
	if ref.ID == nil {
		b, err := h.bases.Resolve(ctx, base.Ref{ID: &home})
		if err != nil {
			return nil, err
		}
		if name := strings.TrimSpace(ref.Name); name != b.Name {
			return nil, apperror.NewForbiddenScope("operation outside of your base is not allowed").
				WithDetail("field", field).
				WithDetail("base", name)
		}
	}
	return &home, nil
}

// BaseNames returns the id to name map used to decorate responses.
func (h *BaseHandler) BaseNames(ctx context.Context) (map[int64]string, error) {
	return h.bases.Names(ctx)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
