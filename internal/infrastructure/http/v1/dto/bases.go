package dto

import "mams/internal/domain/base"

// CreateBaseRequest is the request body for registering a base.
type CreateBaseRequest struct {
	Name     string  `json:"name" binding:"required"`
	Code     string  `json:"code" binding:"required"`
	Location *string `json:"location"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateBaseRequest) ToEntity() *base.Base {
	return &base.Base{Name: r.Name, Code: r.Code, Location: r.Location}
}
