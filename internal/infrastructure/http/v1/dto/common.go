// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"

	"mams/internal/core/apperror"
	"mams/internal/core/types"
	"mams/internal/domain/base"
	"mams/internal/domain/ledger"
)

// --- List Response ---

// ListResponse wraps list results with the applied paging.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewListResponse creates a list response. A nil slice is sent as [].
func NewListResponse[T any](items []T, limit, offset int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Limit: limit, Offset: offset}
}

// ItemsResponse wraps a plain list of values.
type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}

// NewItemsResponse creates an items response. A nil slice is sent as [].
func NewItemsResponse[T any](items []T) ItemsResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ItemsResponse[T]{Items: items}
}

// --- Base references ---

// BaseQuery addresses a base in query parameters, by id or by name.
type BaseQuery struct {
	BaseID   *int64 `form:"baseId"`
	BaseName string `form:"base"`
}

// Ref converts the query to a base reference.
func (q BaseQuery) Ref() base.Ref {
	return base.Ref{ID: q.BaseID, Name: q.BaseName}
}

// --- Ledger listing ---

// ListQuery contains the filter parameters shared by ledger listings.
type ListQuery struct {
	BaseQuery
	Item      string `form:"item"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Personnel string `form:"personnel"`
	Status    string `form:"status"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// Filter converts the query to a ledger filter. The base is left for the
// caller to resolve.
func (q ListQuery) Filter() (ledger.ListFilter, error) {
	from, err := ParseDateParam("startDate", q.StartDate)
	if err != nil {
		return ledger.ListFilter{}, err
	}
	to, err := ParseDateParam("endDate", q.EndDate)
	if err != nil {
		return ledger.ListFilter{}, err
	}
	f := ledger.ListFilter{
		Item:      ledger.NormalizeItem(q.Item),
		From:      from,
		To:        to,
		Personnel: strings.TrimSpace(q.Personnel),
		Status:    strings.TrimSpace(q.Status),
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	f.Normalize()
	return f, nil
}

// ParseDateParam parses an optional YYYY-MM-DD parameter.
func ParseDateParam(name, value string) (*types.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := types.ParseDate(value)
	if err != nil {
		return nil, apperror.NewValidation("invalid "+name).
			WithDetail("field", name).
			WithDetail("value", value)
	}
	return &d, nil
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse mirrors what middleware.ErrorHandler renders.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
